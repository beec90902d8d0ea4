package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/ironlog/internal/workout"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(engine *workout.Engine, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronLog strength training server. Query workout templates, training history, last recorded sets, and per-exercise progress. All data is scoped to the authenticated user."),
	)

	h := &handlers{engine: engine, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetCalendar, Handler: h.getCalendar},
		server.ServerTool{Tool: toolGetLastSets, Handler: h.getLastSets},
		server.ServerTool{Tool: toolGetDayHistory, Handler: h.getDayHistory},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
		server.ServerResource{Resource: resChartExercises, Handler: h.chartExercises},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	engine *workout.Engine
	log    *slog.Logger
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"ironlog://dashboard",
	"Dashboard",
	mcp.WithResourceDescription("The user's workout templates and their active session, if any"),
	mcp.WithMIMEType("application/json"),
)

var resChartExercises = mcp.NewResource(
	"ironlog://chart_exercises",
	"Chartable Exercises",
	mcp.WithResourceDescription("Exercises with at least one finished session, eligible for progress charts"),
	mcp.WithMIMEType("application/json"),
)
