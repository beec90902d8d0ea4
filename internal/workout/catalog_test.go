package workout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateWorkoutValidation(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := e.CreateWorkout(ctx, user.ID, name); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateWorkout(%q) err = %v, want ErrValidation", name, err)
		}
	}

	w, err := e.CreateWorkout(ctx, user.ID, "  Push  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Name != "Push" {
		t.Errorf("name = %q, want trimmed %q", w.Name, "Push")
	}
}

func TestAddExerciseAppends(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, exs := buildWorkout(t, e, user.ID, "Push", "Bench Press", "Incline Press", "Dips")

	for i, ex := range exs {
		if ex.Position != i+1 {
			t.Errorf("exercise %d position = %d, want %d", i, ex.Position, i+1)
		}
	}

	if _, err := e.AddExercise(ctx, user.ID, w.ID, " "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank exercise name err = %v, want ErrValidation", err)
	}
	if _, err := e.AddExercise(ctx, user.ID, uuid.New(), "Curl"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown workout err = %v, want ErrNotFound", err)
	}
}

func TestAddExerciseJoinsActiveSession(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, err := e.Start(ctx, user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.AddExercise(ctx, user.ID, w.ID, "Dips"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := e.Navigate(ctx, user.ID, session.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalExercises != 2 {
		t.Errorf("live session has %d exercises, want 2", page.TotalExercises)
	}
	if page.ExerciseSession.ExerciseName != "Dips" {
		t.Errorf("position 2 exercise = %q, want %q", page.ExerciseSession.ExerciseName, "Dips")
	}
	if page.ExerciseSession.RestTimerSeconds != DefaultRestTimerSeconds {
		t.Errorf("rest timer = %d, want %d", page.ExerciseSession.RestTimerSeconds, DefaultRestTimerSeconds)
	}
}

func TestAddExerciseOtherWorkoutSessionUntouched(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	push, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")
	pull, _ := buildWorkout(t, e, user.ID, "Pull", "Row")

	session, _ := e.Start(ctx, user.ID, push.ID)
	if _, err := e.AddExercise(ctx, user.ID, pull.ID, "Curl"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalExercises != 1 {
		t.Errorf("session gained %d exercises, want 1 (other template's addition must not join)", page.TotalExercises)
	}
}

func TestReorderSwapsNeighbors(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, exs := buildWorkout(t, e, user.ID, "Push", "A", "B", "C")

	order := func() []string {
		t.Helper()
		_, current, err := e.WorkoutDetail(ctx, user.ID, w.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names := make([]string, len(current))
		for i, ex := range current {
			names[i] = ex.Name
		}
		return names
	}

	if err := e.Reorder(ctx, user.ID, w.ID, exs[2].ID, DirectionUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := order(); got[0] != "A" || got[1] != "C" || got[2] != "B" {
		t.Errorf("after up: %v, want [A C B]", got)
	}

	// Down undoes up.
	if err := e.Reorder(ctx, user.ID, w.ID, exs[2].ID, DirectionDown); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := order(); got[0] != "A" || got[1] != "B" || got[2] != "C" {
		t.Errorf("after up+down: %v, want [A B C]", got)
	}
}

func TestReorderEdgesAreNoOps(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, exs := buildWorkout(t, e, user.ID, "Push", "A", "B")

	if err := e.Reorder(ctx, user.ID, w.ID, exs[0].ID, DirectionUp); err != nil {
		t.Fatalf("first up: unexpected error: %v", err)
	}
	if err := e.Reorder(ctx, user.ID, w.ID, exs[1].ID, DirectionDown); err != nil {
		t.Fatalf("last down: unexpected error: %v", err)
	}

	_, current, err := e.WorkoutDetail(ctx, user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current[0].Name != "A" || current[1].Name != "B" {
		t.Errorf("edge reorders changed order: %v", current)
	}
}

func TestReorderValidation(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, exs := buildWorkout(t, e, user.ID, "Push", "A", "B")

	if err := e.Reorder(ctx, user.ID, w.ID, exs[0].ID, Direction("sideways")); !errors.Is(err, ErrValidation) {
		t.Errorf("bad direction err = %v, want ErrValidation", err)
	}
	if err := e.Reorder(ctx, user.ID, w.ID, uuid.New(), DirectionUp); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown exercise err = %v, want ErrNotFound", err)
	}
}

func TestRemoveExerciseKeepsGaps(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, exs := buildWorkout(t, e, user.ID, "Push", "A", "B", "C")

	if err := e.RemoveExercise(ctx, user.ID, w.ID, exs[1].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, current, err := e.WorkoutDetail(ctx, user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(current) != 2 {
		t.Fatalf("remaining exercises = %d, want 2", len(current))
	}
	// Siblings keep their positions; the next append still lands last.
	if current[0].Position != 1 || current[1].Position != 3 {
		t.Errorf("positions = %d,%d, want 1,3 (no renumbering)", current[0].Position, current[1].Position)
	}
	added, err := e.AddExercise(ctx, user.ID, w.ID, "D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added.Position != 4 {
		t.Errorf("appended position = %d, want 4", added.Position)
	}
}

func TestWorkoutOwnershipIsOpaque(t *testing.T) {
	e, alice := newTestEngine(t)
	ctx := context.Background()
	bob, err := e.Identify(ctx, "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, _ := buildWorkout(t, e, alice.ID, "Push", "Bench Press")

	if _, _, err := e.WorkoutDetail(ctx, bob.ID, w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign read err = %v, want ErrNotFound", err)
	}
	if err := e.DeleteWorkout(ctx, bob.ID, w.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign delete err = %v, want ErrNotFound", err)
	}
	// Still there for the owner.
	if _, _, err := e.WorkoutDetail(ctx, alice.ID, w.ID); err != nil {
		t.Errorf("owner read after foreign delete attempt: %v", err)
	}
}
