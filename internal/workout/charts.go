package workout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
)

// ChartPoint is one finished session's aggregates for an exercise,
// computed over completed sets only.
type ChartPoint struct {
	Date        string  `json:"date"`
	MaxWeight   float64 `json:"max_weight"`
	AvgWeight   float64 `json:"avg_weight"`
	TotalReps   int     `json:"total_reps"`
	TotalVolume float64 `json:"total_volume"`
}

// ChartExercises lists the user's exercises that have at least one
// finished session, for the chart picker.
func (e *Engine) ChartExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	return e.store.ExercisesWithHistory(ctx, userID)
}

// Series returns the per-session progress series for an exercise,
// ordered by session date ascending. Sessions where no set was marked
// completed contribute nothing; they are omitted rather than emitted
// as zero points.
func (e *Engine) Series(ctx context.Context, userID int, exerciseID uuid.UUID) ([]ChartPoint, error) {
	rows, err := e.store.CompletedSetHistory(ctx, exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("loading set history: %w", err)
	}

	var (
		points  []ChartPoint
		current uuid.UUID
		sets    []models.HistorySet
	)
	flush := func() {
		if len(sets) == 0 {
			return
		}
		points = append(points, aggregate(sets))
		sets = sets[:0]
	}
	for _, row := range rows {
		if row.ExerciseSessionID != current {
			flush()
			current = row.ExerciseSessionID
		}
		sets = append(sets, row)
	}
	flush()

	return points, nil
}

func aggregate(sets []models.HistorySet) ChartPoint {
	p := ChartPoint{
		Date:      sets[0].SessionDate.Format("2006-01-02"),
		MaxWeight: sets[0].Weight,
	}
	var weightSum float64
	for _, s := range sets {
		if s.Weight > p.MaxWeight {
			p.MaxWeight = s.Weight
		}
		weightSum += s.Weight
		p.TotalReps += s.Reps
		p.TotalVolume += s.Weight * float64(s.Reps)
	}
	p.AvgWeight = weightSum / float64(len(sets))
	return p
}
