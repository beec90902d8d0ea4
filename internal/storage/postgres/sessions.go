package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

const sessionColumns = `s.id, s.workout_id, s.user_id, s.date, s.start_time, s.end_time, w.name`

// FindActiveSession returns the user's session with no end time, or
// nil when none exists.
func (db *DB) FindActiveSession(ctx context.Context, userID int) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.user_id = $1 AND s.end_time IS NULL`,
		userID)

	var s models.Session
	err := row.Scan(&s.ID, &s.WorkoutID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.WorkoutName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	return &s, nil
}

// CreateSession inserts a session and its exercise sessions in one
// transaction. Returns storage.ErrConflict when the user already has
// an active session (partial unique index on user_id).
func (db *DB) CreateSession(ctx context.Context, s models.Session, exerciseSessions []models.ExerciseSession) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning session create: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, workout_id, user_id, date, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		s.ID, s.WorkoutID, s.UserID, s.Date, s.StartTime)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, es := range exerciseSessions {
		_, err = tx.Exec(ctx,
			`INSERT INTO exercise_sessions (id, session_id, exercise_id, notes, rest_timer_seconds)
			 VALUES ($1, $2, $3, $4, $5)`,
			es.ID, es.SessionID, es.ExerciseID, es.Notes, es.RestTimerSeconds)
		if err != nil {
			return fmt.Errorf("inserting exercise session: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetSession returns a session by id, scoped to its owner.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.id = $1 AND s.user_id = $2`,
		id, userID)

	var s models.Session
	err := row.Scan(&s.ID, &s.WorkoutID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.WorkoutName)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("querying session: %w", err)
	}
	return s, nil
}

// FinishSession stamps the end time. Returns storage.ErrConflict when
// the session is already finished.
func (db *DB) FinishSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE sessions SET end_time = $1 WHERE id = $2 AND end_time IS NULL`, end, id)
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrConflict
	}
	return nil
}

// DeleteSession removes a session; exercise sessions and sets cascade.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SessionsOnDate returns the user's finished sessions on a calendar
// day, ordered by start time.
func (db *DB) SessionsOnDate(ctx context.Context, userID int, date time.Time) ([]models.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.user_id = $1 AND s.date = $2 AND s.end_time IS NOT NULL
		 ORDER BY s.start_time`,
		userID, date)
	if err != nil {
		return nil, fmt.Errorf("querying sessions on date: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.WorkoutID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.WorkoutName); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// FinishedSessionDates returns the distinct dates in [from, to] on
// which the user finished at least one session.
func (db *DB) FinishedSessionDates(ctx context.Context, userID int, from, to time.Time) ([]time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT date FROM sessions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3 AND end_time IS NOT NULL`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying session dates: %w", err)
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// CountFinishedSessions counts the user's finished sessions with dates
// in [from, to].
func (db *DB) CountFinishedSessions(ctx context.Context, userID int, from, to time.Time) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sessions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3 AND end_time IS NOT NULL`,
		userID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}
