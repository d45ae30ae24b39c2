package adapthttp

import (
	"net/http/httptest"
	"testing"
)

func TestIntQuery(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 4},
		{"limit=2", 2},
		{"limit=0", 4},
		{"limit=-3", 4},
		{"limit=abc", 4},
		{"limit=100", 100},
		{"limit=100000", maxQueryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/entries/semen/recent?"+tt.query, nil)
			if got := intQuery(r, "limit", 4); got != tt.want {
				t.Errorf("intQuery(%q) = %d, want %d", tt.query, got, tt.want)
			}
		})
	}
}
