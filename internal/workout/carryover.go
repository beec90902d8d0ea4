package workout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// LastCompletedSets returns the sets the user recorded for this
// exercise in their most recent finished session, in set-number order.
// When several finished sessions share the latest date, the one with
// the latest start time wins. Returns an empty slice when the exercise
// has no finished history.
func (e *Engine) LastCompletedSets(ctx context.Context, userID int, exerciseID uuid.UUID) ([]models.SetRecord, error) {
	esID, err := e.store.LastCompletedExerciseSession(ctx, exerciseID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding last completed session: %w", err)
	}

	sets, err := e.store.ListSets(ctx, esID)
	if err != nil {
		return nil, fmt.Errorf("listing previous sets: %w", err)
	}
	return sets, nil
}
