package workout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// SetUpdate is the mutation payload for a single set. Weight and reps
// are stored as given; the original accepted any numeric input, so no
// bounds are applied here either.
type SetUpdate struct {
	ID        uuid.UUID `json:"set_id"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	Completed bool      `json:"completed"`
}

// UpdateSet overwrites a set in place. The set must belong to a
// session owned by the user; otherwise the outcome is ErrNotFound.
// Last writer wins under concurrent edits.
func (e *Engine) UpdateSet(ctx context.Context, userID int, upd SetUpdate) error {
	err := e.store.UpdateSet(ctx, upd.ID, userID, upd.Weight, upd.Reps, upd.Completed)
	if err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// UpdateNotes overwrites the free-text notes on an exercise session.
func (e *Engine) UpdateNotes(ctx context.Context, userID int, exerciseSessionID uuid.UUID, notes string) error {
	if _, err := e.store.GetExerciseSession(ctx, exerciseSessionID, userID); err != nil {
		return mapStoreErr(err)
	}
	if err := e.store.UpdateExerciseNotes(ctx, exerciseSessionID, notes); err != nil {
		return fmt.Errorf("updating notes: %w", err)
	}
	return nil
}

// AddSet appends a zero set numbered one past the current maximum.
// Gaps in set numbers are never filled: {1,2,4} grows to 5, not 3.
func (e *Engine) AddSet(ctx context.Context, userID int, exerciseSessionID uuid.UUID) (models.SetRecord, error) {
	if _, err := e.store.GetExerciseSession(ctx, exerciseSessionID, userID); err != nil {
		return models.SetRecord{}, mapStoreErr(err)
	}

	maxNumber, err := e.store.MaxSetNumber(ctx, exerciseSessionID)
	if err != nil {
		return models.SetRecord{}, fmt.Errorf("finding max set number: %w", err)
	}

	set := models.SetRecord{
		ID:                uuid.New(),
		ExerciseSessionID: exerciseSessionID,
		SetNumber:         maxNumber + 1,
	}
	if err := e.store.CreateSet(ctx, set); err != nil {
		return models.SetRecord{}, fmt.Errorf("creating set: %w", err)
	}
	return set, nil
}
