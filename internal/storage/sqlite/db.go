// Package sqlite is the embedded single-file store used in dev mode
// and by the test suite. It implements the same contract as
// storage/postgres on top of database/sql and modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	login        TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	last_seen    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workouts (
	id         TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS workouts_user_idx ON workouts(user_id);

CREATE TABLE IF NOT EXISTS exercises (
	id         TEXT PRIMARY KEY,
	workout_id TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	position   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS exercises_workout_idx ON exercises(workout_id, position);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	workout_id TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	date       TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time   TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS sessions_one_active_per_user
	ON sessions(user_id) WHERE end_time IS NULL;
CREATE INDEX IF NOT EXISTS sessions_user_date_idx ON sessions(user_id, date);

CREATE TABLE IF NOT EXISTS exercise_sessions (
	id                 TEXT PRIMARY KEY,
	session_id         TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	exercise_id        TEXT NOT NULL REFERENCES exercises(id) ON DELETE CASCADE,
	notes              TEXT NOT NULL DEFAULT '',
	rest_timer_seconds INTEGER NOT NULL DEFAULT 120
);
CREATE INDEX IF NOT EXISTS exercise_sessions_session_idx ON exercise_sessions(session_id);
CREATE INDEX IF NOT EXISTS exercise_sessions_exercise_idx ON exercise_sessions(exercise_id);

CREATE TABLE IF NOT EXISTS sets (
	id                  TEXT PRIMARY KEY,
	exercise_session_id TEXT NOT NULL REFERENCES exercise_sessions(id) ON DELETE CASCADE,
	set_number          INTEGER NOT NULL,
	weight              REAL NOT NULL DEFAULT 0,
	reps                INTEGER NOT NULL DEFAULT 0,
	completed           INTEGER NOT NULL DEFAULT 0,
	UNIQUE (exercise_session_id, set_number)
);
`

// DB wraps a database/sql handle on a SQLite file.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the
// schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
		}
	}

	// Pragmas go in the DSN so the driver applies them to every pooled
	// connection, not just the one Exec happens to grab. foreign_keys
	// and busy_timeout are per-connection settings in SQLite.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339Nano
)

func encodeDate(t time.Time) string { return t.UTC().Format(dateFormat) }
func encodeTime(t time.Time) string { return t.UTC().Format(timeFormat) }

func decodeDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateFormat, s, time.UTC)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The driver exposes no stable typed error for this, so match
// the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
