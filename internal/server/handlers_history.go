package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// handleHistory serves the month calendar. Year and month come from
// query params, defaulting to the current month.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := r.URL.Query().Get("month"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	page, err := s.engine.Calendar(r.Context(), user.ID, year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHistoryDay(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}

	year, err1 := strconv.Atoi(chi.URLParam(r, "year"))
	month, err2 := strconv.Atoi(chi.URLParam(r, "month"))
	day, err3 := strconv.Atoi(chi.URLParam(r, "day"))
	if err1 != nil || err2 != nil || err3 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	details, err := s.engine.DayHistory(r.Context(), user.ID, year, month, day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": details})
}

func (s *Server) handleChartExercises(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	exercises, err := s.engine.ChartExercises(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

func (s *Server) handleChartSeries(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustUser(w, r)
	if !ok {
		return
	}
	exerciseID, err := pathUUID(r, "exerciseID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	points, err := s.engine.Series(r.Context(), user.ID, exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}
