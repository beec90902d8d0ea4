// Package importer loads historical training logs from CSV exports
// into the store as finished sessions, so carry-over and charts work
// from day one instead of starting empty.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
	"github.com/meltforce/ironlog/internal/workout"
)

// Stats tracks import progress.
type Stats struct {
	RowsParsed       int
	RowsSkipped      int
	SessionsImported int
	SetsInserted     int
	WorkoutsCreated  int
	ExercisesCreated int
}

// Importer turns parsed CSV rows into workout templates and finished
// sessions for one user.
type Importer struct {
	store  workout.Store
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates an Importer.
func New(store workout.Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// importedStartHour places imported sessions at a fixed midday start,
// since CSV exports carry only the date.
const importedStartHour = 12

// sessionKey groups rows into one finished session.
type sessionKey struct {
	date    string
	workout string
}

// Import reads a CSV export and writes one finished session per
// (date, workout) pair, creating templates and exercises on first
// sight. Fails when the user has an active session, because imported
// sessions briefly occupy the single active slot.
func (imp *Importer) Import(ctx context.Context, userID int, r io.Reader) (*Stats, error) {
	rows, skipped, err := ParseCSV(r)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.RowsParsed = len(rows)
	imp.stats.RowsSkipped = skipped

	groups := make(map[sessionKey][]Row)
	for _, row := range rows {
		key := sessionKey{date: row.Date.Format("2006-01-02"), workout: row.Workout}
		groups[key] = append(groups[key], row)
	}

	// Chronological order, so carry-over history reads naturally.
	keys := make([]sessionKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].workout < keys[j].workout
	})

	for _, key := range keys {
		if err := imp.importSession(ctx, userID, groups[key]); err != nil {
			return &imp.stats, fmt.Errorf("importing %s %q: %w", key.date, key.workout, err)
		}
		imp.stats.SessionsImported++
	}
	return &imp.stats, nil
}

// importSession writes one finished session from a group of rows that
// share a date and workout name.
func (imp *Importer) importSession(ctx context.Context, userID int, rows []Row) error {
	w, err := imp.findOrCreateWorkout(ctx, userID, rows[0].Workout)
	if err != nil {
		return err
	}

	// Exercise name -> its sets, preserving first-seen order.
	var exerciseOrder []string
	setsByExercise := make(map[string][]Row)
	for _, row := range rows {
		if _, seen := setsByExercise[row.Exercise]; !seen {
			exerciseOrder = append(exerciseOrder, row.Exercise)
		}
		setsByExercise[row.Exercise] = append(setsByExercise[row.Exercise], row)
	}

	exercises := make(map[string]models.Exercise, len(exerciseOrder))
	for _, name := range exerciseOrder {
		ex, err := imp.findOrCreateExercise(ctx, w.ID, name)
		if err != nil {
			return err
		}
		exercises[name] = ex
	}

	if imp.dryRun {
		for _, name := range exerciseOrder {
			imp.stats.SetsInserted += len(setsByExercise[name])
		}
		return nil
	}

	date := rows[0].Date
	start := time.Date(date.Year(), date.Month(), date.Day(), importedStartHour, 0, 0, 0, time.UTC)
	session := models.Session{
		ID:        uuid.New(),
		WorkoutID: w.ID,
		UserID:    userID,
		Date:      date,
		StartTime: start,
	}
	exerciseSessions := make([]models.ExerciseSession, 0, len(exerciseOrder))
	esByExercise := make(map[string]uuid.UUID, len(exerciseOrder))
	for _, name := range exerciseOrder {
		es := models.ExerciseSession{
			ID:               uuid.New(),
			SessionID:        session.ID,
			ExerciseID:       exercises[name].ID,
			RestTimerSeconds: workout.DefaultRestTimerSeconds,
		}
		exerciseSessions = append(exerciseSessions, es)
		esByExercise[name] = es.ID
	}

	if err := imp.store.CreateSession(ctx, session, exerciseSessions); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("user has an active session; finish or cancel it before importing: %w", err)
		}
		return fmt.Errorf("creating session: %w", err)
	}

	for _, name := range exerciseOrder {
		for _, row := range setsByExercise[name] {
			set := models.SetRecord{
				ID:                uuid.New(),
				ExerciseSessionID: esByExercise[name],
				SetNumber:         row.SetNum,
				Weight:            row.Weight,
				Reps:              row.Reps,
				Completed:         true,
			}
			if err := imp.store.CreateSet(ctx, set); err != nil {
				if errors.Is(err, storage.ErrConflict) {
					imp.log.Warn("duplicate set number in export, skipping",
						"date", rows[0].Date.Format("2006-01-02"), "exercise", name, "set", row.SetNum)
					imp.stats.RowsSkipped++
					continue
				}
				return fmt.Errorf("inserting set: %w", err)
			}
			imp.stats.SetsInserted++
		}
	}

	// Finished an hour after start; the export has no duration.
	return imp.store.FinishSession(ctx, session.ID, start.Add(time.Hour))
}

func (imp *Importer) findOrCreateWorkout(ctx context.Context, userID int, name string) (models.Workout, error) {
	existing, err := imp.store.ListWorkouts(ctx, userID)
	if err != nil {
		return models.Workout{}, fmt.Errorf("listing workouts: %w", err)
	}
	for _, w := range existing {
		if w.Name == name {
			return w, nil
		}
	}

	w := models.Workout{ID: uuid.New(), UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	imp.stats.WorkoutsCreated++
	if imp.dryRun {
		return w, nil
	}
	if err := imp.store.CreateWorkout(ctx, w); err != nil {
		return models.Workout{}, fmt.Errorf("creating workout %q: %w", name, err)
	}
	imp.log.Info("workout created from import", "name", name)
	return w, nil
}

func (imp *Importer) findOrCreateExercise(ctx context.Context, workoutID uuid.UUID, name string) (models.Exercise, error) {
	existing, err := imp.store.ListExercises(ctx, workoutID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("listing exercises: %w", err)
	}
	maxPos := 0
	for _, ex := range existing {
		if ex.Name == name {
			return ex, nil
		}
		if ex.Position > maxPos {
			maxPos = ex.Position
		}
	}

	ex := models.Exercise{ID: uuid.New(), WorkoutID: workoutID, Name: name, Position: maxPos + 1}
	imp.stats.ExercisesCreated++
	if imp.dryRun {
		return ex, nil
	}
	if err := imp.store.CreateExercise(ctx, ex); err != nil {
		return models.Exercise{}, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	return ex, nil
}
