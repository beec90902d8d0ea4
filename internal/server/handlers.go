package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/workout"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}

	workouts, err := s.engine.Workouts(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	active, err := s.engine.ActiveSession(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workouts":       workouts,
		"active_session": active,
	})
}

// mustUser pulls the resolved user from context, failing the request
// when the Identity middleware did not run.
func (s *Server) mustUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"no identity"}`, http.StatusUnauthorized)
		return models.User{}, false
	}
	return user, true
}

// writeError maps engine sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workout.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, workout.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, workout.ErrSessionFinished), errors.Is(err, workout.ErrNoExercises):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pathUUID parses a chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, workout.ErrNotFound
	}
	return id, nil
}
