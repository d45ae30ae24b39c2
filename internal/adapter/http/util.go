package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"weightduel/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeDomainError maps err to a status by kind. Persistence detail never
// reaches the client.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindValidation:
		writeError(w, http.StatusBadRequest, err)
	case domain.KindConflict:
		writeError(w, http.StatusConflict, err)
	case domain.KindNotFound:
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Error("request failed",
			"request_id", requestIDFrom(r.Context()),
			"kind", kind.String(),
			"error", err.Error())
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// maxQueryLimit caps numeric query parameters such as limit.
const maxQueryLimit = 100

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return min(n, maxQueryLimit)
}
