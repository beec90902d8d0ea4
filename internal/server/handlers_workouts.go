package server

import (
	"encoding/json"
	"net/http"

	"github.com/meltforce/ironlog/internal/workout"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workouts, err := s.engine.Workouts(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workouts": workouts})
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	created, err := s.engine.CreateWorkout(r.Context(), user.ID, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail, exercises, err := s.engine.WorkoutDetail(r.Context(), user.ID, workoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workout":   detail,
		"exercises": exercises,
	})
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.DeleteWorkout(r.Context(), user.ID, workoutID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	ex, err := s.engine.AddExercise(r.Context(), user.ID, workoutID, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	exerciseID, err := pathUUID(r, "exerciseID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.RemoveExercise(r.Context(), user.ID, workoutID, exerciseID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	workoutID, err := pathUUID(r, "workoutID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	exerciseID, err := pathUUID(r, "exerciseID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	err = s.engine.Reorder(r.Context(), user.ID, workoutID, exerciseID, workout.Direction(req.Direction))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
