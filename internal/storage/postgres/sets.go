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

// CreateExerciseSession inserts one exercise session row (used when a
// template gains an exercise while a session is live).
func (db *DB) CreateExerciseSession(ctx context.Context, es models.ExerciseSession) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercise_sessions (id, session_id, exercise_id, notes, rest_timer_seconds)
		 VALUES ($1, $2, $3, $4, $5)`,
		es.ID, es.SessionID, es.ExerciseID, es.Notes, es.RestTimerSeconds)
	if err != nil {
		return fmt.Errorf("inserting exercise session: %w", err)
	}
	return nil
}

const exerciseSessionColumns = `es.id, es.session_id, es.exercise_id, es.notes, es.rest_timer_seconds, e.name, e.position`

// ListExerciseSessions returns a session's exercise sessions ordered
// by the template exercise's position.
func (db *DB) ListExerciseSessions(ctx context.Context, sessionID uuid.UUID) ([]models.ExerciseSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseSessionColumns+`
		 FROM exercise_sessions es JOIN exercises e ON e.id = es.exercise_id
		 WHERE es.session_id = $1
		 ORDER BY e.position, es.id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise sessions: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseSession
	for rows.Next() {
		var es models.ExerciseSession
		if err := rows.Scan(&es.ID, &es.SessionID, &es.ExerciseID, &es.Notes, &es.RestTimerSeconds, &es.ExerciseName, &es.ExercisePosition); err != nil {
			return nil, fmt.Errorf("scanning exercise session: %w", err)
		}
		result = append(result, es)
	}
	return result, rows.Err()
}

// GetExerciseSession returns one exercise session, scoped to the
// owning user via its session.
func (db *DB) GetExerciseSession(ctx context.Context, id uuid.UUID, userID int) (models.ExerciseSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseSessionColumns+`
		 FROM exercise_sessions es
		 JOIN exercises e ON e.id = es.exercise_id
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.id = $1 AND s.user_id = $2`,
		id, userID)

	var es models.ExerciseSession
	err := row.Scan(&es.ID, &es.SessionID, &es.ExerciseID, &es.Notes, &es.RestTimerSeconds, &es.ExerciseName, &es.ExercisePosition)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ExerciseSession{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ExerciseSession{}, fmt.Errorf("querying exercise session: %w", err)
	}
	return es, nil
}

// UpdateExerciseNotes overwrites the notes on an exercise session.
func (db *DB) UpdateExerciseNotes(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercise_sessions SET notes = $1 WHERE id = $2`, notes, id)
	if err != nil {
		return fmt.Errorf("updating notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LastCompletedExerciseSession returns the id of the exercise session
// from the user's most recent finished session containing the
// exercise. Date ties break on the later start time.
func (db *DB) LastCompletedExerciseSession(ctx context.Context, exerciseID uuid.UUID, userID int) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT es.id
		 FROM exercise_sessions es
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.exercise_id = $1 AND s.user_id = $2 AND s.end_time IS NOT NULL
		 ORDER BY s.date DESC, s.start_time DESC
		 LIMIT 1`,
		exerciseID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, storage.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("querying last completed exercise session: %w", err)
	}
	return id, nil
}

// SeedSets inserts the initial sets for an exercise session, ignoring
// rows whose (exercise_session_id, set_number) already exist so that
// concurrent first navigations seed exactly once.
func (db *DB) SeedSets(ctx context.Context, sets []models.SetRecord) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, set := range sets {
		_, err = tx.Exec(ctx,
			`INSERT INTO sets (id, exercise_session_id, set_number, weight, reps, completed)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (exercise_session_id, set_number) DO NOTHING`,
			set.ID, set.ExerciseSessionID, set.SetNumber, set.Weight, set.Reps, set.Completed)
		if err != nil {
			return fmt.Errorf("seeding set: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListSets returns an exercise session's sets in set-number order.
func (db *DB) ListSets(ctx context.Context, exerciseSessionID uuid.UUID) ([]models.SetRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_session_id, set_number, weight, reps, completed
		 FROM sets WHERE exercise_session_id = $1 ORDER BY set_number`,
		exerciseSessionID)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetRecord
	for rows.Next() {
		var set models.SetRecord
		if err := rows.Scan(&set.ID, &set.ExerciseSessionID, &set.SetNumber, &set.Weight, &set.Reps, &set.Completed); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		result = append(result, set)
	}
	return result, rows.Err()
}

// CreateSet inserts one set row. Returns storage.ErrConflict when the
// set number is already taken.
func (db *DB) CreateSet(ctx context.Context, set models.SetRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO sets (id, exercise_session_id, set_number, weight, reps, completed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		set.ID, set.ExerciseSessionID, set.SetNumber, set.Weight, set.Reps, set.Completed)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting set: %w", err)
	}
	return nil
}

// UpdateSet overwrites a set's weight, reps, and completed flag. The
// set must belong to a session owned by userID; otherwise
// storage.ErrNotFound.
func (db *DB) UpdateSet(ctx context.Context, id uuid.UUID, userID int, weight float64, reps int, completed bool) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sets SET weight = $1, reps = $2, completed = $3
		 WHERE id = $4 AND exercise_session_id IN (
			SELECT es.id FROM exercise_sessions es
			JOIN sessions s ON s.id = es.session_id
			WHERE s.user_id = $5)`,
		weight, reps, completed, id, userID)
	if err != nil {
		return fmt.Errorf("updating set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MaxSetNumber returns the highest set number in an exercise session,
// or 0 when it has no sets.
func (db *DB) MaxSetNumber(ctx context.Context, exerciseSessionID uuid.UUID) (int, error) {
	var maxNumber int
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM sets WHERE exercise_session_id = $1`,
		exerciseSessionID).Scan(&maxNumber)
	if err != nil {
		return 0, fmt.Errorf("querying max set number: %w", err)
	}
	return maxNumber, nil
}

// CompletedSetHistory returns the user's completed sets for an
// exercise across finished sessions, ordered by session date, session
// start time, and set number.
func (db *DB) CompletedSetHistory(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.HistorySet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT es.id, s.date, s.start_time, st.weight, st.reps
		 FROM sets st
		 JOIN exercise_sessions es ON es.id = st.exercise_session_id
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.exercise_id = $1 AND s.user_id = $2 AND s.end_time IS NOT NULL AND st.completed
		 ORDER BY s.date, s.start_time, es.id, st.set_number`,
		exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying set history: %w", err)
	}
	defer rows.Close()

	var result []models.HistorySet
	for rows.Next() {
		var h models.HistorySet
		if err := rows.Scan(&h.ExerciseSessionID, &h.SessionDate, &h.StartTime, &h.Weight, &h.Reps); err != nil {
			return nil, fmt.Errorf("scanning history set: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}
