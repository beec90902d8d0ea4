package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// CreateWorkout inserts a workout template row.
func (db *DB) CreateWorkout(ctx context.Context, w models.Workout) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		w.ID, w.UserID, w.Name, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// ListWorkouts returns the user's workout templates ordered by name.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM workouts WHERE user_id = $1 ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		var w models.Workout
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout returns a workout by id, scoped to its owner.
func (db *DB) GetWorkout(ctx context.Context, id uuid.UUID, userID int) (models.Workout, error) {
	var w models.Workout
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM workouts WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&w.ID, &w.UserID, &w.Name, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Workout{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Workout{}, fmt.Errorf("querying workout: %w", err)
	}
	return w, nil
}

// DeleteWorkout removes a workout and everything under it.
func (db *DB) DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateExercise inserts a template exercise row.
func (db *DB) CreateExercise(ctx context.Context, ex models.Exercise) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, workout_id, name, position) VALUES ($1, $2, $3, $4)`,
		ex.ID, ex.WorkoutID, ex.Name, ex.Position)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// ListExercises returns a workout's exercises in display order.
func (db *DB) ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, workout_id, name, position FROM exercises
		 WHERE workout_id = $1 ORDER BY position, id`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// DeleteExercise removes one exercise from a template.
func (db *DB) DeleteExercise(ctx context.Context, id, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises WHERE id = $1 AND workout_id = $2`, id, workoutID)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SwapExercisePositions exchanges the position values of two exercises
// in one transaction.
func (db *DB) SwapExercisePositions(ctx context.Context, a, b uuid.UUID) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning swap: %w", err)
	}
	defer tx.Rollback(ctx)

	var posA, posB int
	if err := tx.QueryRow(ctx, `SELECT position FROM exercises WHERE id = $1 FOR UPDATE`, a).Scan(&posA); err != nil {
		return fmt.Errorf("reading position: %w", err)
	}
	if err := tx.QueryRow(ctx, `SELECT position FROM exercises WHERE id = $1 FOR UPDATE`, b).Scan(&posB); err != nil {
		return fmt.Errorf("reading position: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE exercises SET position = $1 WHERE id = $2`, posB, a); err != nil {
		return fmt.Errorf("updating position: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE exercises SET position = $1 WHERE id = $2`, posA, b); err != nil {
		return fmt.Errorf("updating position: %w", err)
	}
	return tx.Commit(ctx)
}

// ExercisesWithHistory lists the user's exercises that appear in at
// least one finished session, ordered by name.
func (db *DB) ExercisesWithHistory(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT e.id, e.workout_id, e.name, e.position
		 FROM exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 JOIN exercise_sessions es ON es.exercise_id = e.id
		 JOIN sessions s ON s.id = es.session_id AND s.end_time IS NOT NULL
		 WHERE w.user_id = $1
		 ORDER BY e.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises with history: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

func scanExercises(rows pgx.Rows) ([]models.Exercise, error) {
	var result []models.Exercise
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(&ex.ID, &ex.WorkoutID, &ex.Name, &ex.Position); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
