package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/ironlog/internal/workout"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	session, err := s.engine.Start(r.Context(), user.ID, workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	session, err := s.engine.ActiveSession(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (s *Server) handleExercisePage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		position = 1
	}
	page, err := s.engine.Navigate(r.Context(), user.ID, sessionID, position)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	session, err := s.engine.Finish(r.Context(), user.ID, sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	sessionID, err := pathUUID(r, "sessionID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.Cancel(r.Context(), user.ID, sessionID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	var upd workout.SetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := s.engine.UpdateSet(r.Context(), user.ID, upd); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseSessionID uuid.UUID `json:"exercise_session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	set, err := s.engine.AddSet(r.Context(), user.ID, req.ExerciseSessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseSessionID uuid.UUID `json:"exercise_session_id"`
		Notes             string    `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := s.engine.UpdateNotes(r.Context(), user.ID, req.ExerciseSessionID, req.Notes); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
