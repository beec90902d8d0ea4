package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedWorkout creates a user, workout, and one exercise.
func seedWorkout(t *testing.T, db *DB) (models.User, models.Workout, models.Exercise) {
	t.Helper()
	ctx := context.Background()

	user, err := db.GetOrCreateUser(ctx, "alice", "Alice")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	w := models.Workout{ID: uuid.New(), UserID: user.ID, Name: "Push", CreatedAt: time.Now().UTC()}
	if err := db.CreateWorkout(ctx, w); err != nil {
		t.Fatalf("creating workout: %v", err)
	}
	ex := models.Exercise{ID: uuid.New(), WorkoutID: w.ID, Name: "Bench Press", Position: 1}
	if err := db.CreateExercise(ctx, ex); err != nil {
		t.Fatalf("creating exercise: %v", err)
	}
	return user, w, ex
}

func newSession(user models.User, w models.Workout, start time.Time) models.Session {
	return models.Session{
		ID:        uuid.New(),
		WorkoutID: w.ID,
		UserID:    user.ID,
		Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartTime: start,
	}
}

func TestSecondActiveSessionConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, _ := seedWorkout(t, db)

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := db.CreateSession(ctx, newSession(user, w, start), nil); err != nil {
		t.Fatalf("first session: %v", err)
	}

	err := db.CreateSession(ctx, newSession(user, w, start.Add(time.Minute)), nil)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("second active session err = %v, want ErrConflict", err)
	}

	// Finishing the first frees the slot.
	active, err := db.FindActiveSession(ctx, user.ID)
	if err != nil || active == nil {
		t.Fatalf("active session = %v, %v", active, err)
	}
	if err := db.FinishSession(ctx, active.ID, start.Add(time.Hour)); err != nil {
		t.Fatalf("finishing: %v", err)
	}
	if err := db.CreateSession(ctx, newSession(user, w, start.Add(2*time.Hour)), nil); err != nil {
		t.Fatalf("session after finish: %v", err)
	}
}

func TestActiveSessionPerUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	alice, w, _ := seedWorkout(t, db)

	bob, err := db.GetOrCreateUser(ctx, "bob", "Bob")
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
	bobW := models.Workout{ID: uuid.New(), UserID: bob.ID, Name: "Pull", CreatedAt: time.Now().UTC()}
	if err := db.CreateWorkout(ctx, bobW); err != nil {
		t.Fatalf("creating workout: %v", err)
	}

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	if err := db.CreateSession(ctx, newSession(alice, w, start), nil); err != nil {
		t.Fatalf("alice session: %v", err)
	}
	// One user's active session doesn't block another's.
	if err := db.CreateSession(ctx, newSession(bob, bobW, start), nil); err != nil {
		t.Fatalf("bob session: %v", err)
	}
}

func TestFinishSessionTwiceConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, _ := seedWorkout(t, db)

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s := newSession(user, w, start)
	if err := db.CreateSession(ctx, s, nil); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	if err := db.FinishSession(ctx, s.ID, start.Add(time.Hour)); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	if err := db.FinishSession(ctx, s.ID, start.Add(2*time.Hour)); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("second finish err = %v, want ErrConflict", err)
	}
}

func TestSeedSetsIgnoresExisting(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, ex := seedWorkout(t, db)

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s := newSession(user, w, start)
	es := models.ExerciseSession{ID: uuid.New(), SessionID: s.ID, ExerciseID: ex.ID, RestTimerSeconds: 120}
	if err := db.CreateSession(ctx, s, []models.ExerciseSession{es}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	batch := func(weight float64) []models.SetRecord {
		sets := make([]models.SetRecord, 0, 4)
		for n := 1; n <= 4; n++ {
			sets = append(sets, models.SetRecord{
				ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: n, Weight: weight,
			})
		}
		return sets
	}

	if err := db.SeedSets(ctx, batch(40)); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	// Second batch collides on every set number and must change nothing.
	if err := db.SeedSets(ctx, batch(99)); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	sets, err := db.ListSets(ctx, es.ID)
	if err != nil {
		t.Fatalf("listing sets: %v", err)
	}
	if len(sets) != 4 {
		t.Fatalf("sets = %d, want 4", len(sets))
	}
	for _, set := range sets {
		if set.Weight != 40 {
			t.Errorf("set %d weight = %v, want 40 (reseed must not overwrite)", set.SetNumber, set.Weight)
		}
	}
}

func TestDuplicateSetNumberConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, ex := seedWorkout(t, db)

	s := newSession(user, w, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	es := models.ExerciseSession{ID: uuid.New(), SessionID: s.ID, ExerciseID: ex.ID, RestTimerSeconds: 120}
	if err := db.CreateSession(ctx, s, []models.ExerciseSession{es}); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	set := models.SetRecord{ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: 1}
	if err := db.CreateSet(ctx, set); err != nil {
		t.Fatalf("first set: %v", err)
	}
	dup := models.SetRecord{ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: 1}
	if err := db.CreateSet(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate set number err = %v, want ErrConflict", err)
	}
}

func TestDeleteWorkoutCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, ex := seedWorkout(t, db)

	s := newSession(user, w, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	es := models.ExerciseSession{ID: uuid.New(), SessionID: s.ID, ExerciseID: ex.ID, RestTimerSeconds: 120}
	if err := db.CreateSession(ctx, s, []models.ExerciseSession{es}); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	set := models.SetRecord{ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: 1, Weight: 40, Reps: 10}
	if err := db.CreateSet(ctx, set); err != nil {
		t.Fatalf("creating set: %v", err)
	}

	if err := db.DeleteWorkout(ctx, w.ID, user.ID); err != nil {
		t.Fatalf("deleting workout: %v", err)
	}

	if active, err := db.FindActiveSession(ctx, user.ID); err != nil || active != nil {
		t.Errorf("active session after cascade = %v, %v, want none", active, err)
	}
	sets, err := db.ListSets(ctx, es.ID)
	if err != nil {
		t.Fatalf("listing sets: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("sets after cascade = %d, want 0", len(sets))
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, w, ex := seedWorkout(t, db)

	s := newSession(user, w, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	es := models.ExerciseSession{ID: uuid.New(), SessionID: s.ID, ExerciseID: ex.ID, RestTimerSeconds: 120}
	if err := db.CreateSession(ctx, s, []models.ExerciseSession{es}); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	set := models.SetRecord{ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: 1}
	if err := db.CreateSet(ctx, set); err != nil {
		t.Fatalf("creating set: %v", err)
	}

	if err := db.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("deleting session: %v", err)
	}

	// The template survives; the session tree is gone.
	if _, err := db.GetWorkout(ctx, w.ID, user.ID); err != nil {
		t.Errorf("workout gone after session delete: %v", err)
	}
	sets, err := db.ListSets(ctx, es.ID)
	if err != nil {
		t.Fatalf("listing sets: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("sets after cascade = %d, want 0", len(sets))
	}
	if _, err := db.GetExerciseSession(ctx, es.ID, user.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("exercise session err = %v, want ErrNotFound", err)
	}
}

func TestPragmasApplyToEveryConnection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Force the pool to open a fresh connection for each statement.
	// Connection-scoped pragmas must survive that, or foreign keys and
	// the busy timeout silently vanish under load.
	db.db.SetMaxIdleConns(0)

	var fk, timeout int
	if err := db.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys on fresh connection = %d, want 1", fk)
	}
	if err := db.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout on fresh connection = %d, want 5000", timeout)
	}

	// Cascade must hold on connections the pool opened after setup.
	user, w, ex := seedWorkout(t, db)
	s := newSession(user, w, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	es := models.ExerciseSession{ID: uuid.New(), SessionID: s.ID, ExerciseID: ex.ID, RestTimerSeconds: 120}
	if err := db.CreateSession(ctx, s, []models.ExerciseSession{es}); err != nil {
		t.Fatalf("creating session: %v", err)
	}
	set := models.SetRecord{ID: uuid.New(), ExerciseSessionID: es.ID, SetNumber: 1}
	if err := db.CreateSet(ctx, set); err != nil {
		t.Fatalf("creating set: %v", err)
	}
	if err := db.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("deleting session: %v", err)
	}

	var orphans int
	err := db.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM exercise_sessions) + (SELECT COUNT(*) FROM sets)`,
	).Scan(&orphans)
	if err != nil {
		t.Fatalf("counting orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned rows after cascade = %d, want 0", orphans)
	}
}

func TestDateRoundTrip(t *testing.T) {
	in := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out, err := decodeDate(encodeDate(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}
