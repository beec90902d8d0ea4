package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/ironlog/internal/workout"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine *workout.Engine
	log    *slog.Logger
	lc     *local.Client
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(engine *workout.Engine, log *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		log:    log,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables WhoIs-based identity resolution. Without it,
// identity comes from the X-IronLog-User header (dev mode).
func (s *Server) SetTailscale(lc *local.Client) {
	s.lc = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.Identity)

		r.Get("/me", s.handleMe)
		r.Get("/dashboard", s.handleDashboard)

		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleCreateWorkout)
		r.Get("/workouts/{workoutID}", s.handleGetWorkout)
		r.Delete("/workouts/{workoutID}", s.handleDeleteWorkout)
		r.Post("/workouts/{workoutID}/exercises", s.handleAddExercise)
		r.Delete("/workouts/{workoutID}/exercises/{exerciseID}", s.handleDeleteExercise)
		r.Post("/workouts/{workoutID}/exercises/{exerciseID}/reorder", s.handleReorder)
		r.Post("/workouts/{workoutID}/sessions", s.handleStartSession)

		r.Get("/sessions/active", s.handleActiveSession)
		r.Get("/sessions/{sessionID}/exercises/{position}", s.handleExercisePage)
		r.Post("/sessions/{sessionID}/finish", s.handleFinishSession)
		r.Post("/sessions/{sessionID}/cancel", s.handleCancelSession)

		r.Post("/sets/update", s.handleUpdateSet)
		r.Post("/sets/add", s.handleAddSet)
		r.Post("/notes/update", s.handleUpdateNotes)

		r.Get("/history", s.handleHistory)
		r.Get("/history/{year}/{month}/{day}", s.handleHistoryDay)
		r.Get("/charts/exercises", s.handleChartExercises)
		r.Get("/charts/{exerciseID}", s.handleChartSeries)
	})
}

// MountMCP attaches an MCP transport handler under /mcp, inside the
// identity middleware so tools see the resolved user.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.Identity)
		r.Handle("/*", h)
		r.Handle("/", h)
	})
}
