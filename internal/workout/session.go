package workout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// ExercisePage is one screen of a live session: the exercise at a
// 1-indexed position, its sets, and navigation flags.
type ExercisePage struct {
	Session         models.Session         `json:"session"`
	ExerciseSession models.ExerciseSession `json:"exercise_session"`
	Sets            []models.SetRecord     `json:"sets"`
	Position        int                    `json:"position"`
	TotalExercises  int                    `json:"total_exercises"`
	HasPrevious     bool                   `json:"has_previous"`
	HasNext         bool                   `json:"has_next"`
}

// ActiveSession returns the user's active session, or nil.
func (e *Engine) ActiveSession(ctx context.Context, userID int) (*models.Session, error) {
	return e.store.FindActiveSession(ctx, userID)
}

// Start begins a session against the workout. If the user already has
// an active session it is returned as-is, even when it belongs to a
// different workout; no duplicate is ever created. Concurrent starts
// race on a store uniqueness constraint and the loser adopts the
// winner's session.
func (e *Engine) Start(ctx context.Context, userID int, workoutID uuid.UUID) (models.Session, error) {
	if active, err := e.store.FindActiveSession(ctx, userID); err != nil {
		return models.Session{}, fmt.Errorf("checking active session: %w", err)
	} else if active != nil {
		return *active, nil
	}

	w, err := e.store.GetWorkout(ctx, workoutID, userID)
	if err != nil {
		return models.Session{}, mapStoreErr(err)
	}
	exercises, err := e.store.ListExercises(ctx, workoutID)
	if err != nil {
		return models.Session{}, fmt.Errorf("listing exercises: %w", err)
	}

	now := e.now().UTC()
	session := models.Session{
		ID:          uuid.New(),
		WorkoutID:   w.ID,
		UserID:      userID,
		Date:        dateOf(now),
		StartTime:   now,
		WorkoutName: w.Name,
	}
	exerciseSessions := make([]models.ExerciseSession, 0, len(exercises))
	for _, ex := range exercises {
		exerciseSessions = append(exerciseSessions, models.ExerciseSession{
			ID:               uuid.New(),
			SessionID:        session.ID,
			ExerciseID:       ex.ID,
			RestTimerSeconds: DefaultRestTimerSeconds,
		})
	}

	err = e.store.CreateSession(ctx, session, exerciseSessions)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the race: another request created the active session
		// between our check and the insert. Adopt it.
		winner, findErr := e.store.FindActiveSession(ctx, userID)
		if findErr != nil {
			return models.Session{}, fmt.Errorf("refetching active session: %w", findErr)
		}
		if winner != nil {
			e.log.Info("concurrent session start, adopting winner", "user", userID, "session", winner.ID)
			return *winner, nil
		}
		return models.Session{}, fmt.Errorf("creating session: %w", err)
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("creating session: %w", err)
	}

	e.log.Info("session started", "user", userID, "workout", w.ID, "session", session.ID)
	return session, nil
}

// Navigate returns the exercise page at the given 1-indexed position,
// sorted by template order. Out-of-range positions clamp to 1. The
// first visit to an exercise session seeds four sets, copying weight
// and reps from the last finished session for that exercise.
func (e *Engine) Navigate(ctx context.Context, userID int, sessionID uuid.UUID, position int) (*ExercisePage, error) {
	session, err := e.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	exerciseSessions, err := e.store.ListExerciseSessions(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing exercise sessions: %w", err)
	}
	if len(exerciseSessions) == 0 {
		return nil, ErrNoExercises
	}

	if position < 1 || position > len(exerciseSessions) {
		position = 1
	}
	current := exerciseSessions[position-1]

	sets, err := e.store.ListSets(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("listing sets: %w", err)
	}
	if len(sets) == 0 {
		if err := e.seedSets(ctx, userID, current); err != nil {
			return nil, err
		}
		sets, err = e.store.ListSets(ctx, current.ID)
		if err != nil {
			return nil, fmt.Errorf("listing seeded sets: %w", err)
		}
	}

	return &ExercisePage{
		Session:         session,
		ExerciseSession: current,
		Sets:            sets,
		Position:        position,
		TotalExercises:  len(exerciseSessions),
		HasPrevious:     position > 1,
		HasNext:         position < len(exerciseSessions),
	}, nil
}

// seedSets creates the initial four sets for a never-visited exercise
// session. The first N copy weight/reps from the carry-over sets
// (completed = false); the rest are zero-filled. The insert ignores
// (exercise_session_id, set_number) conflicts, so concurrent
// navigations seed exactly once.
func (e *Engine) seedSets(ctx context.Context, userID int, es models.ExerciseSession) error {
	previous, err := e.LastCompletedSets(ctx, userID, es.ExerciseID)
	if err != nil {
		return err
	}

	seeds := make([]models.SetRecord, 0, seededSetCount)
	for n := 1; n <= seededSetCount; n++ {
		set := models.SetRecord{
			ID:                uuid.New(),
			ExerciseSessionID: es.ID,
			SetNumber:         n,
		}
		if n <= len(previous) {
			set.Weight = previous[n-1].Weight
			set.Reps = previous[n-1].Reps
		}
		seeds = append(seeds, set)
	}

	if err := e.store.SeedSets(ctx, seeds); err != nil {
		return fmt.Errorf("seeding sets: %w", err)
	}
	return nil
}

// Finish ends the session, freezing it into history. Finishing a
// session twice is an error, not a no-op.
func (e *Engine) Finish(ctx context.Context, userID int, sessionID uuid.UUID) (models.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return models.Session{}, mapStoreErr(err)
	}
	if !session.IsActive() {
		return models.Session{}, ErrSessionFinished
	}

	end := e.now().UTC()
	if err := e.store.FinishSession(ctx, sessionID, end); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Session{}, ErrSessionFinished
		}
		return models.Session{}, fmt.Errorf("finishing session: %w", err)
	}
	session.EndTime = &end

	e.log.Info("session finished", "user", userID, "session", sessionID)
	return session, nil
}

// Cancel deletes an active session and everything under it. Finished
// sessions are history and cannot be cancelled.
func (e *Engine) Cancel(ctx context.Context, userID int, sessionID uuid.UUID) error {
	session, err := e.store.GetSession(ctx, sessionID, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !session.IsActive() {
		return ErrSessionFinished
	}

	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("cancelling session: %w", err)
	}
	e.log.Info("session cancelled", "user", userID, "session", sessionID)
	return nil
}
