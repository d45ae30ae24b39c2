package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weightduel/internal/app"
	"weightduel/internal/domain"
)

type roleView struct {
	Key         string           `json:"key"`
	DisplayName string           `json:"display_name"`
	Claimed     bool             `json:"claimed"`
	Identity    *domain.Identity `json:"identity,omitempty"`
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roles := s.registration.Roles()
	items := make([]roleView, 0, len(roles))
	for _, b := range roles {
		items = append(items, roleView{
			Key:         b.RoleKey,
			DisplayName: b.DisplayName,
			Claimed:     b.Claimed(),
			Identity:    b.Identity,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.weight.All()})
}

func (s *Server) knownRole(key string) bool {
	for _, b := range s.registration.Roles() {
		if b.RoleKey == key {
			return true
		}
	}
	return false
}

func (s *Server) handleEntriesRecent(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if !s.knownRole(role) {
		s.writeDomainError(w, r, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role))
		return
	}
	limit := intQuery(r, "limit", app.RecentLimit)
	writeJSON(w, http.StatusOK, map[string]any{"items": s.weight.RecentFor(role, limit)})
}

func (s *Server) handleEntryAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Day   domain.Day `json:"day"`
		Value *float64   `json:"value"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New("value is required"))
		return
	}
	entry, err := s.weight.Record(r.Context(), chi.URLParam(r, "role"), body.Day, *body.Value)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (s *Server) handleEntryCorrect(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("id must be an integer"))
		return
	}
	var body struct {
		Value *float64 `json:"value"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New("value is required"))
		return
	}
	entry, err := s.weight.CorrectByID(r.Context(), id, *body.Value)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}
