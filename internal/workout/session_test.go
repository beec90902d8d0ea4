package workout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// recordedSet is a weight/reps pair logged during a test session.
type recordedSet struct {
	weight float64
	reps   int
}

// runFinishedSession starts a session, overwrites the first exercise's
// seeded sets with the given values (marked completed), and finishes.
// The clock advances an hour afterwards so the next session lands later.
func runFinishedSession(t *testing.T, e *Engine, userID int, workoutID uuid.UUID, sets []recordedSet) {
	t.Helper()
	ctx := context.Background()

	session, err := e.Start(ctx, userID, workoutID)
	if err != nil {
		t.Fatalf("starting session: %v", err)
	}
	page, err := e.Navigate(ctx, userID, session.ID, 1)
	if err != nil {
		t.Fatalf("navigating: %v", err)
	}
	for i, rec := range sets {
		if i >= len(page.Sets) {
			t.Fatalf("session seeded %d sets, need %d", len(page.Sets), len(sets))
		}
		upd := SetUpdate{ID: page.Sets[i].ID, Weight: rec.weight, Reps: rec.reps, Completed: true}
		if err := e.UpdateSet(ctx, userID, upd); err != nil {
			t.Fatalf("updating set %d: %v", i+1, err)
		}
	}
	if _, err := e.Finish(ctx, userID, session.ID); err != nil {
		t.Fatalf("finishing session: %v", err)
	}
	advanceClock(e, time.Hour)
}

func TestStartIsIdempotent(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	first, err := e.Start(ctx, user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Start(ctx, user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second start created session %s, want existing %s", second.ID, first.ID)
	}

	// Starting a different workout also returns the active session.
	other, _ := buildWorkout(t, e, user.ID, "Pull", "Row")
	third, err := e.Start(ctx, user.ID, other.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.ID != first.ID {
		t.Errorf("start against other workout created session %s, want existing %s", third.ID, first.ID)
	}
	if third.WorkoutID != w.ID {
		t.Errorf("active session workout = %s, want original %s", third.WorkoutID, w.ID)
	}
}

func TestStartConcurrentCallersShareOneSession(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	const callers = 8
	ids := make(chan uuid.UUID, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := e.Start(ctx, user.ID, w.ID)
			if err != nil {
				errs <- err
				return
			}
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("concurrent start failed: %v", err)
	}

	// Losers of the insert race adopt the winner's session, so every
	// caller sees the same ID.
	var want uuid.UUID
	for id := range ids {
		if want == uuid.Nil {
			want = id
			continue
		}
		if id != want {
			t.Errorf("concurrent start returned session %s, want %s", id, want)
		}
	}

	active, err := e.ActiveSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active == nil || active.ID != want {
		t.Errorf("active session = %v, want %s", active, want)
	}
}

func TestStartUnknownWorkout(t *testing.T) {
	e, user := newTestEngine(t)

	_, err := e.Start(context.Background(), user.ID, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStartSetsDateAndTime(t *testing.T) {
	e, user := newTestEngine(t)
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, err := e.Start(context.Background(), user.ID, w.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.StartTime.Equal(testClock) {
		t.Errorf("start time = %v, want %v", session.StartTime, testClock)
	}
	wantDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !session.Date.Equal(wantDate) {
		t.Errorf("date = %v, want %v", session.Date, wantDate)
	}
	if !session.IsActive() {
		t.Error("new session must be active")
	}
	if session.WorkoutName != "Push" {
		t.Errorf("workout name = %q, want %q", session.WorkoutName, "Push")
	}
}

func TestNavigateSeedsFourZeroSets(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	page, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(page.Sets) != 4 {
		t.Fatalf("seeded %d sets, want 4", len(page.Sets))
	}
	for i, set := range page.Sets {
		if set.SetNumber != i+1 {
			t.Errorf("set %d number = %d, want %d", i, set.SetNumber, i+1)
		}
		if set.Weight != 0 || set.Reps != 0 || set.Completed {
			t.Errorf("set %d = %+v, want zero-filled and not completed", i, set)
		}
	}
}

func TestNavigateCarriesOverLastSession(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	runFinishedSession(t, e, user.ID, w.ID, []recordedSet{{40, 10}, {45, 8}})

	session, _ := e.Start(ctx, user.ID, w.ID)
	page, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Sets) != 4 {
		t.Fatalf("seeded %d sets, want 4", len(page.Sets))
	}

	// First two sets copy the prior session's values; the previous
	// session seeded four sets, so sets 3 and 4 carry its zero sets.
	want := []recordedSet{{40, 10}, {45, 8}, {0, 0}, {0, 0}}
	for i, set := range page.Sets {
		if set.Weight != want[i].weight || set.Reps != want[i].reps {
			t.Errorf("set %d = %.1fx%d, want %.1fx%d", i+1, set.Weight, set.Reps, want[i].weight, want[i].reps)
		}
		if set.Completed {
			t.Errorf("set %d carried over as completed", i+1)
		}
	}
}

func TestCarryOverPrefersLatestStart(t *testing.T) {
	e, user := newTestEngine(t)
	w, exs := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	// Two finished sessions on the same date; the later start wins.
	runFinishedSession(t, e, user.ID, w.ID, []recordedSet{{40, 10}})
	runFinishedSession(t, e, user.ID, w.ID, []recordedSet{{50, 5}})

	sets, err := e.LastCompletedSets(context.Background(), user.ID, exs[0].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) == 0 || sets[0].Weight != 50 {
		t.Errorf("carry-over sets = %+v, want first weight 50 from the later session", sets)
	}
}

func TestNavigateSeedsExactlyOnce(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	first, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(second.Sets) != len(first.Sets) {
		t.Fatalf("revisit changed set count from %d to %d", len(first.Sets), len(second.Sets))
	}
	for i := range first.Sets {
		if second.Sets[i].ID != first.Sets[i].ID {
			t.Errorf("set %d id changed on revisit", i+1)
		}
	}
}

func TestNavigateClampsPosition(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press", "Incline Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	for _, pos := range []int{0, -3, 99} {
		page, err := e.Navigate(ctx, user.ID, session.ID, pos)
		if err != nil {
			t.Fatalf("position %d: unexpected error: %v", pos, err)
		}
		if page.Position != 1 {
			t.Errorf("position %d clamped to %d, want 1", pos, page.Position)
		}
	}

	page, err := e.Navigate(ctx, user.ID, session.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Position != 2 || !page.HasPrevious || page.HasNext {
		t.Errorf("page 2 of 2 = pos %d prev %v next %v, want 2 true false",
			page.Position, page.HasPrevious, page.HasNext)
	}
}

func TestNavigateEmptyWorkout(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Empty")

	session, _ := e.Start(ctx, user.ID, w.ID)
	_, err := e.Navigate(ctx, user.ID, session.ID, 1)
	if !errors.Is(err, ErrNoExercises) {
		t.Errorf("err = %v, want ErrNoExercises", err)
	}
}

func TestFinishTwice(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	finished, err := e.Finish(ctx, user.ID, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finished.EndTime == nil {
		t.Fatal("finished session has no end time")
	}

	if _, err := e.Finish(ctx, user.ID, session.ID); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("second finish err = %v, want ErrSessionFinished", err)
	}
}

func TestCancelDiscardsSession(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	if _, err := e.Navigate(ctx, user.ID, session.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Cancel(ctx, user.ID, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := e.ActiveSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Errorf("active session after cancel = %v, want none", active.ID)
	}
	if _, err := e.Navigate(ctx, user.ID, session.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("navigating cancelled session err = %v, want ErrNotFound", err)
	}
}

func TestCancelFinishedSession(t *testing.T) {
	e, user := newTestEngine(t)
	ctx := context.Background()
	w, _ := buildWorkout(t, e, user.ID, "Push", "Bench Press")

	session, _ := e.Start(ctx, user.ID, w.ID)
	if _, err := e.Finish(ctx, user.ID, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Cancel(ctx, user.ID, session.ID); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("err = %v, want ErrSessionFinished", err)
	}
}

func TestSessionIsolatedBetweenUsers(t *testing.T) {
	e, alice := newTestEngine(t)
	ctx := context.Background()
	bob, err := e.Identify(ctx, "bob", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, _ := buildWorkout(t, e, alice.ID, "Push", "Bench Press")
	session, _ := e.Start(ctx, alice.ID, w.ID)

	if _, err := e.Navigate(ctx, bob.ID, session.ID, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign navigate err = %v, want ErrNotFound", err)
	}
	if _, err := e.Finish(ctx, bob.ID, session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign finish err = %v, want ErrNotFound", err)
	}
}
