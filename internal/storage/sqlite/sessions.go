package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

const sessionColumns = `s.id, s.workout_id, s.user_id, s.date, s.start_time, s.end_time, w.name`

// FindActiveSession returns the user's session with no end time, or
// nil when none exists.
func (d *DB) FindActiveSession(ctx context.Context, userID int) (*models.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.user_id = ? AND s.end_time IS NULL`,
		userID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	return &session, nil
}

// CreateSession inserts a session and its exercise sessions in one
// transaction. Returns storage.ErrConflict when the user already has
// an active session (partial unique index on user_id).
func (d *DB) CreateSession(ctx context.Context, s models.Session, exerciseSessions []models.ExerciseSession) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning session create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, workout_id, user_id, date, start_time, end_time)
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		s.ID.String(), s.WorkoutID.String(), s.UserID, encodeDate(s.Date), encodeTime(s.StartTime))
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, es := range exerciseSessions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exercise_sessions (id, session_id, exercise_id, notes, rest_timer_seconds)
			 VALUES (?, ?, ?, ?, ?)`,
			es.ID.String(), es.SessionID.String(), es.ExerciseID.String(), es.Notes, es.RestTimerSeconds)
		if err != nil {
			return fmt.Errorf("inserting exercise session: %w", err)
		}
	}
	return tx.Commit()
}

// GetSession returns a session by id, scoped to its owner.
func (d *DB) GetSession(ctx context.Context, id uuid.UUID, userID int) (models.Session, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.id = ? AND s.user_id = ?`,
		id.String(), userID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("querying session: %w", err)
	}
	return session, nil
}

// FinishSession stamps the end time. Returns storage.ErrConflict when
// the session is already finished.
func (d *DB) FinishSession(ctx context.Context, id uuid.UUID, end time.Time) error {
	tag, err := d.db.ExecContext(ctx,
		`UPDATE sessions SET end_time = ? WHERE id = ? AND end_time IS NULL`,
		encodeTime(end), id.String())
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrConflict
	}
	return nil
}

// DeleteSession removes a session; exercise sessions and sets cascade.
func (d *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SessionsOnDate returns the user's finished sessions on a calendar
// day, ordered by start time.
func (d *DB) SessionsOnDate(ctx context.Context, userID int, date time.Time) ([]models.Session, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions s JOIN workouts w ON w.id = s.workout_id
		 WHERE s.user_id = ? AND s.date = ? AND s.end_time IS NOT NULL
		 ORDER BY s.start_time`,
		userID, encodeDate(date))
	if err != nil {
		return nil, fmt.Errorf("querying sessions on date: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

// FinishedSessionDates returns the distinct dates in [from, to] on
// which the user finished at least one session.
func (d *DB) FinishedSessionDates(ctx context.Context, userID int, from, to time.Time) ([]time.Time, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM sessions
		 WHERE user_id = ? AND date >= ? AND date <= ? AND end_time IS NOT NULL`,
		userID, encodeDate(from), encodeDate(to))
	if err != nil {
		return nil, fmt.Errorf("querying session dates: %w", err)
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning date: %w", err)
		}
		date, err := decodeDate(s)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		result = append(result, date)
	}
	return result, rows.Err()
}

// CountFinishedSessions counts the user's finished sessions with dates
// in [from, to].
func (d *DB) CountFinishedSessions(ctx context.Context, userID int, from, to time.Time) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions
		 WHERE user_id = ? AND date >= ? AND date <= ? AND end_time IS NOT NULL`,
		userID, encodeDate(from), encodeDate(to)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (models.Session, error) {
	var (
		s         models.Session
		id        string
		workoutID string
		date      string
		start     string
		end       sql.NullString
	)
	if err := row.Scan(&id, &workoutID, &s.UserID, &date, &start, &end, &s.WorkoutName); err != nil {
		return models.Session{}, err
	}

	var err error
	if s.ID, err = uuid.Parse(id); err != nil {
		return models.Session{}, fmt.Errorf("parsing session id: %w", err)
	}
	if s.WorkoutID, err = uuid.Parse(workoutID); err != nil {
		return models.Session{}, fmt.Errorf("parsing workout id: %w", err)
	}
	if s.Date, err = decodeDate(date); err != nil {
		return models.Session{}, fmt.Errorf("parsing date: %w", err)
	}
	if s.StartTime, err = decodeTime(start); err != nil {
		return models.Session{}, fmt.Errorf("parsing start_time: %w", err)
	}
	if end.Valid {
		t, err := decodeTime(end.String)
		if err != nil {
			return models.Session{}, fmt.Errorf("parsing end_time: %w", err)
		}
		s.EndTime = &t
	}
	return s, nil
}
