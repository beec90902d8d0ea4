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

// CreateExerciseSession inserts one exercise session row (used when a
// template gains an exercise while a session is live).
func (d *DB) CreateExerciseSession(ctx context.Context, es models.ExerciseSession) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO exercise_sessions (id, session_id, exercise_id, notes, rest_timer_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		es.ID.String(), es.SessionID.String(), es.ExerciseID.String(), es.Notes, es.RestTimerSeconds)
	if err != nil {
		return fmt.Errorf("inserting exercise session: %w", err)
	}
	return nil
}

const exerciseSessionColumns = `es.id, es.session_id, es.exercise_id, es.notes, es.rest_timer_seconds, e.name, e.position`

// ListExerciseSessions returns a session's exercise sessions ordered
// by the template exercise's position.
func (d *DB) ListExerciseSessions(ctx context.Context, sessionID uuid.UUID) ([]models.ExerciseSession, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+exerciseSessionColumns+`
		 FROM exercise_sessions es JOIN exercises e ON e.id = es.exercise_id
		 WHERE es.session_id = ?
		 ORDER BY e.position, es.id`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying exercise sessions: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseSession
	for rows.Next() {
		es, err := scanExerciseSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise session: %w", err)
		}
		result = append(result, es)
	}
	return result, rows.Err()
}

// GetExerciseSession returns one exercise session, scoped to the
// owning user via its session.
func (d *DB) GetExerciseSession(ctx context.Context, id uuid.UUID, userID int) (models.ExerciseSession, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+exerciseSessionColumns+`
		 FROM exercise_sessions es
		 JOIN exercises e ON e.id = es.exercise_id
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.id = ? AND s.user_id = ?`,
		id.String(), userID)
	es, err := scanExerciseSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExerciseSession{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ExerciseSession{}, fmt.Errorf("querying exercise session: %w", err)
	}
	return es, nil
}

// UpdateExerciseNotes overwrites the notes on an exercise session.
func (d *DB) UpdateExerciseNotes(ctx context.Context, id uuid.UUID, notes string) error {
	tag, err := d.db.ExecContext(ctx,
		`UPDATE exercise_sessions SET notes = ? WHERE id = ?`, notes, id.String())
	if err != nil {
		return fmt.Errorf("updating notes: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LastCompletedExerciseSession returns the id of the exercise session
// from the user's most recent finished session containing the
// exercise. Date ties break on the later start time.
func (d *DB) LastCompletedExerciseSession(ctx context.Context, exerciseID uuid.UUID, userID int) (uuid.UUID, error) {
	var id string
	err := d.db.QueryRowContext(ctx,
		`SELECT es.id
		 FROM exercise_sessions es
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.exercise_id = ? AND s.user_id = ? AND s.end_time IS NOT NULL
		 ORDER BY s.date DESC, s.start_time DESC
		 LIMIT 1`,
		exerciseID.String(), userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, storage.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("querying last completed exercise session: %w", err)
	}
	return uuid.Parse(id)
}

// SeedSets inserts the initial sets for an exercise session, ignoring
// rows whose (exercise_session_id, set_number) already exist so that
// concurrent first navigations seed exactly once.
func (d *DB) SeedSets(ctx context.Context, sets []models.SetRecord) error {
	if len(sets) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed: %w", err)
	}
	defer tx.Rollback()

	for _, set := range sets {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sets (id, exercise_session_id, set_number, weight, reps, completed)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (exercise_session_id, set_number) DO NOTHING`,
			set.ID.String(), set.ExerciseSessionID.String(), set.SetNumber, set.Weight, set.Reps, set.Completed)
		if err != nil {
			return fmt.Errorf("seeding set: %w", err)
		}
	}
	return tx.Commit()
}

// ListSets returns an exercise session's sets in set-number order.
func (d *DB) ListSets(ctx context.Context, exerciseSessionID uuid.UUID) ([]models.SetRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, exercise_session_id, set_number, weight, reps, completed
		 FROM sets WHERE exercise_session_id = ? ORDER BY set_number`,
		exerciseSessionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetRecord
	for rows.Next() {
		var (
			set  models.SetRecord
			id   string
			esID string
		)
		if err := rows.Scan(&id, &esID, &set.SetNumber, &set.Weight, &set.Reps, &set.Completed); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		if set.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing set id: %w", err)
		}
		if set.ExerciseSessionID, err = uuid.Parse(esID); err != nil {
			return nil, fmt.Errorf("parsing exercise session id: %w", err)
		}
		result = append(result, set)
	}
	return result, rows.Err()
}

// CreateSet inserts one set row. Returns storage.ErrConflict when the
// set number is already taken.
func (d *DB) CreateSet(ctx context.Context, set models.SetRecord) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO sets (id, exercise_session_id, set_number, weight, reps, completed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		set.ID.String(), set.ExerciseSessionID.String(), set.SetNumber, set.Weight, set.Reps, set.Completed)
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
func (d *DB) UpdateSet(ctx context.Context, id uuid.UUID, userID int, weight float64, reps int, completed bool) error {
	tag, err := d.db.ExecContext(ctx,
		`UPDATE sets SET weight = ?, reps = ?, completed = ?
		 WHERE id = ? AND exercise_session_id IN (
			SELECT es.id FROM exercise_sessions es
			JOIN sessions s ON s.id = es.session_id
			WHERE s.user_id = ?)`,
		weight, reps, completed, id.String(), userID)
	if err != nil {
		return fmt.Errorf("updating set: %w", err)
	}
	if n, _ := tag.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MaxSetNumber returns the highest set number in an exercise session,
// or 0 when it has no sets.
func (d *DB) MaxSetNumber(ctx context.Context, exerciseSessionID uuid.UUID) (int, error) {
	var maxNumber int
	err := d.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(set_number), 0) FROM sets WHERE exercise_session_id = ?`,
		exerciseSessionID.String()).Scan(&maxNumber)
	if err != nil {
		return 0, fmt.Errorf("querying max set number: %w", err)
	}
	return maxNumber, nil
}

// CompletedSetHistory returns the user's completed sets for an
// exercise across finished sessions, ordered by session date, session
// start time, and set number.
func (d *DB) CompletedSetHistory(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.HistorySet, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT es.id, s.date, s.start_time, st.weight, st.reps
		 FROM sets st
		 JOIN exercise_sessions es ON es.id = st.exercise_session_id
		 JOIN sessions s ON s.id = es.session_id
		 WHERE es.exercise_id = ? AND s.user_id = ? AND s.end_time IS NOT NULL AND st.completed
		 ORDER BY s.date, s.start_time, es.id, st.set_number`,
		exerciseID.String(), userID)
	if err != nil {
		return nil, fmt.Errorf("querying set history: %w", err)
	}
	defer rows.Close()

	var result []models.HistorySet
	for rows.Next() {
		var (
			h     models.HistorySet
			esID  string
			date  string
			start string
		)
		if err := rows.Scan(&esID, &date, &start, &h.Weight, &h.Reps); err != nil {
			return nil, fmt.Errorf("scanning history set: %w", err)
		}
		if h.ExerciseSessionID, err = uuid.Parse(esID); err != nil {
			return nil, fmt.Errorf("parsing exercise session id: %w", err)
		}
		if h.SessionDate, err = decodeDate(date); err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		if h.StartTime, err = decodeTime(start); err != nil {
			return nil, fmt.Errorf("parsing start_time: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

func scanExerciseSession(row scanner) (models.ExerciseSession, error) {
	var (
		es         models.ExerciseSession
		id         string
		sessionID  string
		exerciseID string
	)
	if err := row.Scan(&id, &sessionID, &exerciseID, &es.Notes, &es.RestTimerSeconds, &es.ExerciseName, &es.ExercisePosition); err != nil {
		return models.ExerciseSession{}, err
	}

	var err error
	if es.ID, err = uuid.Parse(id); err != nil {
		return models.ExerciseSession{}, fmt.Errorf("parsing exercise session id: %w", err)
	}
	if es.SessionID, err = uuid.Parse(sessionID); err != nil {
		return models.ExerciseSession{}, fmt.Errorf("parsing session id: %w", err)
	}
	if es.ExerciseID, err = uuid.Parse(exerciseID); err != nil {
		return models.ExerciseSession{}, fmt.Errorf("parsing exercise id: %w", err)
	}
	return es, nil
}
