// Package workout is the session progression and analytics engine:
// template catalog, session lifecycle, carry-over of prior performance,
// live set mutation, and the calendar/chart aggregations. It runs every
// operation to completion against the Store; no caching, no background
// work.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

const (
	// seededSetCount is how many sets navigation creates the first time
	// an exercise session is visited.
	seededSetCount = 4

	// DefaultRestTimerSeconds is the initial rest timer for a new
	// exercise session.
	DefaultRestTimerSeconds = 120
)

var (
	// ErrValidation rejects malformed input before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both missing rows and rows owned by someone
	// else.
	ErrNotFound = errors.New("not found")

	// ErrSessionFinished is returned when finishing or cancelling a
	// session that is no longer active.
	ErrSessionFinished = errors.New("session already finished")

	// ErrNoExercises is returned by Navigate on a session with no
	// exercise sessions; the caller should finish the session instead.
	ErrNoExercises = errors.New("session has no exercises")
)

// Store is the durable backing the engine operates against. Both
// storage/postgres and storage/sqlite satisfy it. Implementations
// return storage.ErrNotFound for missing or foreign rows and
// storage.ErrConflict for uniqueness violations.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (models.User, error)

	CreateWorkout(ctx context.Context, w models.Workout) error
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id uuid.UUID, userID int) (models.Workout, error)
	DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error

	CreateExercise(ctx context.Context, ex models.Exercise) error
	ListExercises(ctx context.Context, workoutID uuid.UUID) ([]models.Exercise, error)
	DeleteExercise(ctx context.Context, id, workoutID uuid.UUID) error
	SwapExercisePositions(ctx context.Context, a, b uuid.UUID) error

	FindActiveSession(ctx context.Context, userID int) (*models.Session, error)
	CreateSession(ctx context.Context, s models.Session, exerciseSessions []models.ExerciseSession) error
	GetSession(ctx context.Context, id uuid.UUID, userID int) (models.Session, error)
	FinishSession(ctx context.Context, id uuid.UUID, end time.Time) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	SessionsOnDate(ctx context.Context, userID int, date time.Time) ([]models.Session, error)
	FinishedSessionDates(ctx context.Context, userID int, from, to time.Time) ([]time.Time, error)
	CountFinishedSessions(ctx context.Context, userID int, from, to time.Time) (int, error)

	CreateExerciseSession(ctx context.Context, es models.ExerciseSession) error
	ListExerciseSessions(ctx context.Context, sessionID uuid.UUID) ([]models.ExerciseSession, error)
	GetExerciseSession(ctx context.Context, id uuid.UUID, userID int) (models.ExerciseSession, error)
	UpdateExerciseNotes(ctx context.Context, id uuid.UUID, notes string) error
	LastCompletedExerciseSession(ctx context.Context, exerciseID uuid.UUID, userID int) (uuid.UUID, error)
	ExercisesWithHistory(ctx context.Context, userID int) ([]models.Exercise, error)

	SeedSets(ctx context.Context, sets []models.SetRecord) error
	ListSets(ctx context.Context, exerciseSessionID uuid.UUID) ([]models.SetRecord, error)
	CreateSet(ctx context.Context, set models.SetRecord) error
	UpdateSet(ctx context.Context, id uuid.UUID, userID int, weight float64, reps int, completed bool) error
	MaxSetNumber(ctx context.Context, exerciseSessionID uuid.UUID) (int, error)
	CompletedSetHistory(ctx context.Context, exerciseID uuid.UUID, userID int) ([]models.HistorySet, error)
}

// Engine implements the core operations on top of a Store.
type Engine struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates an Engine.
func New(store Store, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log, now: time.Now}
}

// Identify resolves a transport-supplied login name to a user record,
// creating it on first sight.
func (e *Engine) Identify(ctx context.Context, login, displayName string) (models.User, error) {
	user, err := e.store.GetOrCreateUser(ctx, login, displayName)
	if err != nil {
		return models.User{}, fmt.Errorf("identifying %q: %w", login, err)
	}
	return user, nil
}

// mapStoreErr translates storage sentinels into the engine taxonomy.
func mapStoreErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
