package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the user's workout templates with their exercises in display order."),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Per-session progress series for one exercise: max weight, average weight, total reps, and total volume over completed sets, ordered by date."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID (see list_workouts)")),
)

var toolGetCalendar = mcp.NewTool("get_calendar",
	mcp.WithDescription("Month calendar of training history: a 42-cell Monday-anchored grid marking days with finished sessions, plus the month's session count."),
	mcp.WithNumber("year", mcp.Description("Calendar year. Defaults to the current year.")),
	mcp.WithNumber("month", mcp.Description("Month 1-12. Defaults to the current month.")),
)

var toolGetLastSets = mcp.NewTool("get_last_sets",
	mcp.WithDescription("Sets recorded for an exercise in the user's most recent finished session. These are the values a new session carries over."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise UUID (see list_workouts)")),
)

var toolGetDayHistory = mcp.NewTool("get_day_history",
	mcp.WithDescription("Finished sessions on one calendar day, each with its exercises and sets."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to look up (YYYY-MM-DD)")),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)

	workouts, err := h.engine.Workouts(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]map[string]any, 0, len(workouts))
	for _, w := range workouts {
		_, exercises, err := h.engine.WorkoutDetail(ctx, uid, w.ID)
		if err != nil {
			h.log.Error("mcp list_workouts detail", "workout", w.ID, "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		out = append(out, map[string]any{
			"workout":   w,
			"exercises": exercises,
		})
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("exercise_id must be a UUID"), nil
	}

	uid := UserIDFromContext(ctx)
	points, err := h.engine.Series(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := time.Now().UTC()
	year := req.GetInt("year", now.Year())
	month := req.GetInt("month", int(now.Month()))

	uid := UserIDFromContext(ctx)
	page, err := h.engine.Calendar(ctx, uid, year, month)
	if err != nil {
		h.log.Error("mcp get_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(page)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getLastSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	exerciseID, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("exercise_id must be a UUID"), nil
	}

	uid := UserIDFromContext(ctx)
	sets, err := h.engine.LastCompletedSets(ctx, uid, exerciseID)
	if err != nil {
		h.log.Error("mcp get_last_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sets)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDayHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
	}

	uid := UserIDFromContext(ctx)
	details, err := h.engine.DayHistory(ctx, uid, date.Year(), int(date.Month()), date.Day())
	if err != nil {
		h.log.Error("mcp get_day_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(details)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
