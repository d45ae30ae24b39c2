package adapthttp

import (
	"net/http"
	"time"

	"weightduel/internal/domain"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	unit := r.URL.Query().Get("unit")
	if unit == "" {
		unit = "kg"
	}

	points, err := s.progress.Daily(unit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unit":            unit,
		"challenge_start": s.progress.ChallengeStart(),
		"summary":         s.progress.Summary(),
		"items":           points,
	})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeJSON(w, http.StatusOK, s.menu.Today())
		return
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	t, _ := day.Time(time.UTC)
	// Noon keeps the calendar day stable under any zone conversion.
	writeJSON(w, http.StatusOK, s.menu.For(t.Add(12*time.Hour)))
}
