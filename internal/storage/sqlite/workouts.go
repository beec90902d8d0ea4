package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// CreateWorkout inserts a workout template row.
func (d *DB) CreateWorkout(ctx context.Context, w models.Workout) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO workouts (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		w.ID.String(), w.UserID, w.Name, encodeTime(w.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// ListWorkouts returns the user's workout templates ordered by name.
func (d *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM workouts WHERE user_id = ? ORDER BY name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.Workout
	for rows.Next() {
		var (
			w       models.Workout
			id      string
			created string
		)
		if err := rows.Scan(&id, &w.UserID, &w.Name, &created); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		if w.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing workout id: %w", err)
		}
		if w.CreatedAt, err = decodeTime(created); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// GetWorkout returns a workout by id, scoped to its owner.
func (d *DB) GetWorkout(ctx context.Context, id uuid.UUID, userID int) (models.Workout, error) {
	var (
		w       models.Workout
		created string
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT user_id, name, created_at FROM workouts WHERE id = ? AND user_id = ?`,
		id.String(), userID).Scan(&w.UserID, &w.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workout{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Workout{}, fmt.Errorf("querying workout: %w", err)
	}
	w.ID = id
	if w.CreatedAt, err = decodeTime(created); err != nil {
		return models.Workout{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return w, nil
}

// DeleteWorkout removes a workout and everything under it.
func (d *DB) DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error {
	tag, err := d.db.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = ? AND user_id = ?`, id.String(), userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateExercise inserts a template exercise row.
func (d *DB) CreateExercise(ctx context.Context, ex models.Exercise) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO exercises (id, workout_id, name, position) VALUES (?, ?, ?, ?)`,
		ex.ID.String(), ex.WorkoutID.String(), ex.Name, ex.Position)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// ListExercises returns a workout's exercises in display order.
func (d *DB) ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.Exercise, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, workout_id, name, position FROM exercises
		 WHERE workout_id = ? ORDER BY position, id`,
		workoutID.String())
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

// DeleteExercise removes one exercise from a template.
func (d *DB) DeleteExercise(ctx context.Context, id, workoutID uuid.UUID) error {
	tag, err := d.db.ExecContext(ctx,
		`DELETE FROM exercises WHERE id = ? AND workout_id = ?`,
		id.String(), workoutID.String())
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SwapExercisePositions exchanges the position values of two exercises
// in one transaction.
func (d *DB) SwapExercisePositions(ctx context.Context, a, b uuid.UUID) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning swap: %w", err)
	}
	defer tx.Rollback()

	var posA, posB int
	if err := tx.QueryRowContext(ctx, `SELECT position FROM exercises WHERE id = ?`, a.String()).Scan(&posA); err != nil {
		return fmt.Errorf("reading position: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT position FROM exercises WHERE id = ?`, b.String()).Scan(&posB); err != nil {
		return fmt.Errorf("reading position: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE exercises SET position = ? WHERE id = ?`, posB, a.String()); err != nil {
		return fmt.Errorf("updating position: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE exercises SET position = ? WHERE id = ?`, posA, b.String()); err != nil {
		return fmt.Errorf("updating position: %w", err)
	}
	return tx.Commit()
}

// ExercisesWithHistory lists the user's exercises that appear in at
// least one finished session, ordered by name.
func (d *DB) ExercisesWithHistory(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT e.id, e.workout_id, e.name, e.position
		 FROM exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 JOIN exercise_sessions es ON es.exercise_id = e.id
		 JOIN sessions s ON s.id = es.session_id AND s.end_time IS NOT NULL
		 WHERE w.user_id = ?
		 ORDER BY e.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises with history: %w", err)
	}
	defer rows.Close()
	return scanExercises(rows)
}

func scanExercises(rows *sql.Rows) ([]models.Exercise, error) {
	var result []models.Exercise
	for rows.Next() {
		var (
			ex        models.Exercise
			id        string
			workoutID string
		)
		if err := rows.Scan(&id, &workoutID, &ex.Name, &ex.Position); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		var err error
		if ex.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing exercise id: %w", err)
		}
		if ex.WorkoutID, err = uuid.Parse(workoutID); err != nil {
			return nil, fmt.Errorf("parsing workout id: %w", err)
		}
		result = append(result, ex)
	}
	return result, rows.Err()
}
