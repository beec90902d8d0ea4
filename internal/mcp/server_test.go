package mcp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/ironlog/internal/storage/sqlite"
	"github.com/meltforce/ironlog/internal/workout"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no
// value is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from
// context after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

func newTestHandlers(t *testing.T) (*handlers, int) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := workout.New(db, log)

	user, err := engine.Identify(context.Background(), "alice", "Alice")
	if err != nil {
		t.Fatalf("identifying: %v", err)
	}
	return &handlers{engine: engine, log: log}, user.ID
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestListWorkoutsTool(t *testing.T) {
	h, uid := newTestHandlers(t)
	ctx := WithUserID(context.Background(), uid)

	w, err := h.engine.CreateWorkout(ctx, uid, "Push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.engine.AddExercise(ctx, uid, w.ID, "Bench Press"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := h.listWorkouts(ctx, callReq(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
}

func TestGetProgressToolValidation(t *testing.T) {
	h, uid := newTestHandlers(t)
	ctx := WithUserID(context.Background(), uid)

	result, err := h.getProgress(ctx, callReq(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("missing exercise_id must produce a tool error")
	}

	result, err = h.getProgress(ctx, callReq(map[string]any{"exercise_id": "not-a-uuid"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("malformed exercise_id must produce a tool error")
	}
}

func TestGetCalendarTool(t *testing.T) {
	h, uid := newTestHandlers(t)
	ctx := WithUserID(context.Background(), uid)

	result, err := h.getCalendar(ctx, callReq(map[string]any{"year": 2024., "month": 2.}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	result, err = h.getCalendar(ctx, callReq(map[string]any{"month": 13.}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("month 13 must produce a tool error")
	}
}

func TestGetDayHistoryToolValidation(t *testing.T) {
	h, uid := newTestHandlers(t)
	ctx := WithUserID(context.Background(), uid)

	result, err := h.getDayHistory(ctx, callReq(map[string]any{"date": "February 3rd"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("malformed date must produce a tool error")
	}

	result, err = h.getDayHistory(ctx, callReq(map[string]any{"date": "2024-03-15"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
}
