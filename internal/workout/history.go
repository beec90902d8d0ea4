package workout

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// CalendarDay is one cell of the 6x7 history grid.
type CalendarDay struct {
	Day        int       `json:"day"`
	Date       time.Time `json:"date"`
	OtherMonth bool      `json:"other_month"`
	HasSession bool      `json:"has_session"`
	IsToday    bool      `json:"is_today"`
}

// CalendarPage is a month of history: a fixed 42-cell Monday-anchored
// grid plus navigation anchors and the month's finished-session count.
type CalendarPage struct {
	Year              int           `json:"year"`
	Month             int           `json:"month"`
	MonthName         string        `json:"month_name"`
	Days              []CalendarDay `json:"days"`
	PrevYear          int           `json:"prev_year"`
	PrevMonth         int           `json:"prev_month"`
	NextYear          int           `json:"next_year"`
	NextMonth         int           `json:"next_month"`
	SessionsThisMonth int           `json:"sessions_this_month"`
}

// SessionDetail is a finished session with its exercises and sets,
// used by the day-history view.
type SessionDetail struct {
	Session   models.Session   `json:"session"`
	Exercises []ExerciseDetail `json:"exercises"`
}

// ExerciseDetail pairs an exercise session with its sets.
type ExerciseDetail struct {
	ExerciseSession models.ExerciseSession `json:"exercise_session"`
	Sets            []models.SetRecord     `json:"sets"`
}

// Calendar builds the history grid for a month: the month's days plus
// enough leading days of the previous month and trailing days of the
// next to fill 42 cells. A cell has a session only when the user
// finished at least one session on that date; leading and trailing
// cells never do.
func (e *Engine) Calendar(ctx context.Context, userID, year, month int) (*CalendarPage, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be 1-12", ErrValidation)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	daysInMonth := last.Day()

	sessionDates, err := e.store.FinishedSessionDates(ctx, userID, first, last)
	if err != nil {
		return nil, fmt.Errorf("loading session dates: %w", err)
	}
	hasSession := make(map[string]bool, len(sessionDates))
	for _, d := range sessionDates {
		hasSession[d.Format("2006-01-02")] = true
	}

	count, err := e.store.CountFinishedSessions(ctx, userID, first, last)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	today := dateOf(e.now())

	// Monday-anchored: Monday contributes zero leading cells.
	leading := (int(first.Weekday()) + 6) % 7

	days := make([]CalendarDay, 0, 42)
	prevLast := first.AddDate(0, 0, -1)
	for i := 0; i < leading; i++ {
		d := prevLast.AddDate(0, 0, i-leading+1)
		days = append(days, CalendarDay{Day: d.Day(), Date: d, OtherMonth: true})
	}
	for day := 1; day <= daysInMonth; day++ {
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		days = append(days, CalendarDay{
			Day:        day,
			Date:       d,
			HasSession: hasSession[d.Format("2006-01-02")],
			IsToday:    d.Equal(today),
		})
	}
	nextFirst := last.AddDate(0, 0, 1)
	for i := 0; len(days) < 42; i++ {
		d := nextFirst.AddDate(0, 0, i)
		days = append(days, CalendarDay{Day: d.Day(), Date: d, OtherMonth: true})
	}

	return &CalendarPage{
		Year:              year,
		Month:             month,
		MonthName:         first.Format("January 2006"),
		Days:              days,
		PrevYear:          prevLast.Year(),
		PrevMonth:         int(prevLast.Month()),
		NextYear:          nextFirst.Year(),
		NextMonth:         int(nextFirst.Month()),
		SessionsThisMonth: count,
	}, nil
}

// DayHistory returns the user's finished sessions on a calendar day,
// each with its exercise sessions and sets.
func (e *Engine) DayHistory(ctx context.Context, userID, year, month, day int) ([]SessionDetail, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return nil, fmt.Errorf("%w: invalid date", ErrValidation)
	}

	sessions, err := e.store.SessionsOnDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}

	details := make([]SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		exerciseSessions, err := e.store.ListExerciseSessions(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("listing exercise sessions: %w", err)
		}
		detail := SessionDetail{Session: session, Exercises: make([]ExerciseDetail, 0, len(exerciseSessions))}
		for _, es := range exerciseSessions {
			sets, err := e.store.ListSets(ctx, es.ID)
			if err != nil {
				return nil, fmt.Errorf("listing sets: %w", err)
			}
			detail.Exercises = append(detail.Exercises, ExerciseDetail{ExerciseSession: es, Sets: sets})
		}
		details = append(details, detail)
	}
	return details, nil
}
