package workout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// Direction selects a reorder neighbor.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// CreateWorkout creates a new workout template for the user.
func (e *Engine) CreateWorkout(ctx context.Context, userID int, name string) (models.Workout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Workout{}, fmt.Errorf("%w: workout name is required", ErrValidation)
	}

	w := models.Workout{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: e.now().UTC(),
	}
	if err := e.store.CreateWorkout(ctx, w); err != nil {
		return models.Workout{}, fmt.Errorf("creating workout: %w", err)
	}
	return w, nil
}

// Workouts lists the user's workout templates.
func (e *Engine) Workouts(ctx context.Context, userID int) ([]models.Workout, error) {
	return e.store.ListWorkouts(ctx, userID)
}

// WorkoutDetail returns a workout and its exercises in display order.
func (e *Engine) WorkoutDetail(ctx context.Context, userID int, workoutID uuid.UUID) (models.Workout, []models.Exercise, error) {
	w, err := e.store.GetWorkout(ctx, workoutID, userID)
	if err != nil {
		return models.Workout{}, nil, mapStoreErr(err)
	}
	exercises, err := e.store.ListExercises(ctx, workoutID)
	if err != nil {
		return models.Workout{}, nil, fmt.Errorf("listing exercises: %w", err)
	}
	return w, exercises, nil
}

// DeleteWorkout removes a workout template. Exercises, sessions, and
// their descendants cascade.
func (e *Engine) DeleteWorkout(ctx context.Context, userID int, workoutID uuid.UUID) error {
	return mapStoreErr(e.store.DeleteWorkout(ctx, workoutID, userID))
}

// AddExercise appends an exercise to the template, one past the
// current highest position. If the user has an active session against
// this workout, the new exercise joins it immediately.
func (e *Engine) AddExercise(ctx context.Context, userID int, workoutID uuid.UUID, name string) (models.Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Exercise{}, fmt.Errorf("%w: exercise name is required", ErrValidation)
	}

	if _, err := e.store.GetWorkout(ctx, workoutID, userID); err != nil {
		return models.Exercise{}, mapStoreErr(err)
	}

	existing, err := e.store.ListExercises(ctx, workoutID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("listing exercises: %w", err)
	}
	maxPos := 0
	for _, ex := range existing {
		if ex.Position > maxPos {
			maxPos = ex.Position
		}
	}

	ex := models.Exercise{
		ID:        uuid.New(),
		WorkoutID: workoutID,
		Name:      name,
		Position:  maxPos + 1,
	}
	if err := e.store.CreateExercise(ctx, ex); err != nil {
		return models.Exercise{}, fmt.Errorf("creating exercise: %w", err)
	}

	active, err := e.store.FindActiveSession(ctx, userID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("checking active session: %w", err)
	}
	if active != nil && active.WorkoutID == workoutID {
		es := models.ExerciseSession{
			ID:               uuid.New(),
			SessionID:        active.ID,
			ExerciseID:       ex.ID,
			RestTimerSeconds: DefaultRestTimerSeconds,
		}
		if err := e.store.CreateExerciseSession(ctx, es); err != nil {
			return models.Exercise{}, fmt.Errorf("adding exercise to live session: %w", err)
		}
		e.log.Info("exercise added to live session", "exercise", ex.ID, "session", active.ID)
	}

	return ex, nil
}

// RemoveExercise deletes an exercise from the template. Sibling
// positions are not renumbered.
func (e *Engine) RemoveExercise(ctx context.Context, userID int, workoutID, exerciseID uuid.UUID) error {
	if _, err := e.store.GetWorkout(ctx, workoutID, userID); err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(e.store.DeleteExercise(ctx, exerciseID, workoutID))
}

// Reorder swaps the exercise's position value with its neighbor in
// sort order: up takes the greatest position below it, down the least
// position above it. A value swap, not a shift, so position gaps
// survive. No-op when there is no neighbor on that side.
func (e *Engine) Reorder(ctx context.Context, userID int, workoutID, exerciseID uuid.UUID, dir Direction) error {
	if dir != DirectionUp && dir != DirectionDown {
		return fmt.Errorf("%w: direction must be up or down", ErrValidation)
	}
	if _, err := e.store.GetWorkout(ctx, workoutID, userID); err != nil {
		return mapStoreErr(err)
	}

	exercises, err := e.store.ListExercises(ctx, workoutID)
	if err != nil {
		return fmt.Errorf("listing exercises: %w", err)
	}

	idx := -1
	for i, ex := range exercises {
		if ex.ID == exerciseID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	var neighbor int
	switch dir {
	case DirectionUp:
		neighbor = idx - 1
	case DirectionDown:
		neighbor = idx + 1
	}
	if neighbor < 0 || neighbor >= len(exercises) {
		return nil
	}

	if err := e.store.SwapExercisePositions(ctx, exercises[idx].ID, exercises[neighbor].ID); err != nil {
		return fmt.Errorf("swapping positions: %w", err)
	}
	return nil
}
