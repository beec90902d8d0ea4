package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account identified by a bare login name. Authentication
// strength is the transport layer's problem; the core only needs a
// stable identifier.
type User struct {
	ID          int       `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Workout is a reusable template: a named, ordered list of exercises
// (e.g. Push, Pull, Legs).
type Workout struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Exercise is one entry in a workout template. Position is a mutable
// ordering key: reordering swaps position values between neighbors, so
// the sequence stays strictly ordered but may have gaps.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	WorkoutID uuid.UUID `json:"workout_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
}

// Session is one timestamped occurrence of performing a workout.
// A nil EndTime means the session is still active; at most one active
// session exists per user (enforced by a partial unique index).
type Session struct {
	ID          uuid.UUID  `json:"id"`
	WorkoutID   uuid.UUID  `json:"workout_id"`
	UserID      int        `json:"-"`
	Date        time.Time  `json:"date"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	WorkoutName string     `json:"workout_name,omitempty"`
}

// IsActive reports whether the session has not been finished yet.
func (s Session) IsActive() bool { return s.EndTime == nil }

// ExerciseSession is one exercise's instance within a session. Display
// order is inherited from the referenced template exercise.
type ExerciseSession struct {
	ID               uuid.UUID `json:"id"`
	SessionID        uuid.UUID `json:"session_id"`
	ExerciseID       uuid.UUID `json:"exercise_id"`
	Notes            string    `json:"notes"`
	RestTimerSeconds int       `json:"rest_timer_seconds"`

	// Joined from the template exercise.
	ExerciseName     string `json:"exercise_name"`
	ExercisePosition int    `json:"exercise_position"`
}

// SetRecord is one logged attempt (weight x reps) within an exercise
// session. SetNumber is unique within the parent and defines display
// order.
type SetRecord struct {
	ID                uuid.UUID `json:"id"`
	ExerciseSessionID uuid.UUID `json:"exercise_session_id"`
	SetNumber         int       `json:"set_number"`
	Weight            float64   `json:"weight"`
	Reps              int       `json:"reps"`
	Completed         bool      `json:"completed"`
}

// HistorySet is one completed set joined with its session's date, used
// by the progress chart aggregation. Rows arrive ordered by session
// date, session start time, and set number.
type HistorySet struct {
	ExerciseSessionID uuid.UUID
	SessionDate       time.Time
	StartTime         time.Time
	Weight            float64
	Reps              int
}
