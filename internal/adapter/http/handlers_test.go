package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	adapthttp "weightduel/internal/adapter/http"
	"weightduel/internal/adapter/memory"
	"weightduel/internal/app"
	"weightduel/internal/domain"
	"weightduel/internal/meals"
	"weightduel/internal/metrics"
	"weightduel/internal/store"
)

var testRoles = []domain.Role{
	{Key: "semen", Name: "Semen"},
	{Key: "sergeant", Name: "Sergeant"},
}

func kcal(v float64) *float64 { return &v }

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

type harness struct {
	srv     http.Handler
	store   *store.Store
	reg     *app.RegistrationService
	metrics *prometheus.Registry
}

func newHarness(t *testing.T, tokenHash string) *harness {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) }
	st, err := store.Open(context.Background(), memory.New(), testRoles,
		store.WithClock(clock), store.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	catalogs := meals.Catalogs{
		Breakfast: []meals.Meal{
			{Day: "1", Legacy: []string{"oatmeal"}},
			{Day: "2", Items: []meals.Item{{Name: "eggs", Macros: meals.Macros{Kcal: kcal(150)}}}},
		},
	}

	reg := prometheus.NewRegistry()
	col := metrics.NewCollector(reg)
	regSvc := app.NewRegistrationService(st)

	srv := adapthttp.New(adapthttp.Deps{
		Weight:       app.NewWeightService(st),
		Registration: regSvc,
		Progress:     app.NewProgressService(st),
		Menu:         app.NewMenuService(catalogs, st),
		Gatherer:     reg,
		Recorder:     col,
		TokenHash:    tokenHash,
	})
	return &harness{srv: srv.Handler(), store: st, reg: regSvc, metrics: reg}
}

func (h *harness) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	h.srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHarness(t, "")
	w := h.do(t, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get(adapthttp.RequestIDHeader); got == "" {
		t.Error("missing request id header")
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := newHarness(t, "")
	w := h.do(t, http.MethodGet, "/health", nil, http.Header{adapthttp.RequestIDHeader: {"abc-123"}})
	if got := w.Header().Get(adapthttp.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestRoster(t *testing.T) {
	h := newHarness(t, "")
	if _, err := h.reg.Register(context.Background(), "semen", 101); err != nil {
		t.Fatalf("register: %v", err)
	}

	w := h.do(t, http.MethodGet, "/api/roster", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Items []struct {
			Key      string `json:"key"`
			Claimed  bool   `json:"claimed"`
			Identity *int64 `json:"identity"`
		} `json:"items"`
	}
	decode(t, w, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Key != "semen" || !resp.Items[0].Claimed || resp.Items[0].Identity == nil || *resp.Items[0].Identity != 101 {
		t.Errorf("semen = %+v", resp.Items[0])
	}
	if resp.Items[1].Claimed {
		t.Errorf("sergeant should be unclaimed")
	}
}

func TestEntryAdd(t *testing.T) {
	h := newHarness(t, "")

	w := h.do(t, http.MethodPost, "/api/entries/semen", map[string]any{"value": 82.4}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Entry domain.WeightEntry `json:"entry"`
	}
	decode(t, w, &resp)
	if resp.Entry.Day != "2024-01-10" || resp.Entry.Value != 82.4 || resp.Entry.RoleKey != "semen" {
		t.Errorf("entry = %+v", resp.Entry)
	}

	w = h.do(t, http.MethodPost, "/api/entries/semen", map[string]any{"value": 82.0}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}

	w = h.do(t, http.MethodPost, "/api/entries/semen", map[string]any{"day": "2024-01-09", "value": 83.1}, nil)
	if w.Code != http.StatusCreated {
		t.Errorf("explicit day status = %d", w.Code)
	}
}

func TestEntryAdd_Errors(t *testing.T) {
	h := newHarness(t, "")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"missing value", "/api/entries/semen", map[string]any{}, http.StatusBadRequest},
		{"out of range", "/api/entries/semen", map[string]any{"value": 0}, http.StatusBadRequest},
		{"unknown field", "/api/entries/semen", map[string]any{"value": 80, "unit": "kg"}, http.StatusBadRequest},
		{"bad day", "/api/entries/semen", map[string]any{"day": "10.01.2024", "value": 80}, http.StatusBadRequest},
		{"unknown role", "/api/entries/ghost", map[string]any{"value": 80}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, tt.path, tt.body, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestEntriesRecent(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	for i, day := range []domain.Day{"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09"} {
		if _, err := h.store.AddEntry(ctx, "semen", day, 80+float64(i)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	w := h.do(t, http.MethodGet, "/api/entries/semen/recent", nil, nil)
	var resp struct {
		Items []domain.PositionedEntry `json:"items"`
	}
	decode(t, w, &resp)
	if len(resp.Items) != app.RecentLimit {
		t.Fatalf("items = %d, want %d", len(resp.Items), app.RecentLimit)
	}
	if resp.Items[0].Entry.Day != "2024-01-09" {
		t.Errorf("first = %s, want newest", resp.Items[0].Entry.Day)
	}

	w = h.do(t, http.MethodGet, "/api/entries/semen/recent?limit=2", nil, nil)
	decode(t, w, &resp)
	if len(resp.Items) != 2 {
		t.Errorf("limited items = %d, want 2", len(resp.Items))
	}

	w = h.do(t, http.MethodGet, "/api/entries/ghost/recent", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown role status = %d, want 404", w.Code)
	}
}

func TestEntries_All(t *testing.T) {
	h := newHarness(t, "")
	if _, err := h.store.AddEntry(context.Background(), "sergeant", "2024-01-10", 91); err != nil {
		t.Fatal(err)
	}
	w := h.do(t, http.MethodGet, "/api/entries", nil, nil)
	var resp struct {
		Items []domain.WeightEntry `json:"items"`
	}
	decode(t, w, &resp)
	if len(resp.Items) != 1 || resp.Items[0].RoleKey != "sergeant" {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestEntryCorrect(t *testing.T) {
	h := newHarness(t, "")
	e, err := h.store.AddEntry(context.Background(), "semen", "2024-01-10", 82)
	if err != nil {
		t.Fatal(err)
	}

	w := h.do(t, http.MethodPut, "/api/entries/id/1", map[string]any{"value": 81.5}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	all := h.store.AllEntries()
	if all[0].ID != e.ID || all[0].Value != 81.5 || all[0].Day != e.Day {
		t.Errorf("after correction = %+v", all[0])
	}

	if w := h.do(t, http.MethodPut, "/api/entries/id/99", map[string]any{"value": 81}, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", w.Code)
	}
	if w := h.do(t, http.MethodPut, "/api/entries/id/x", map[string]any{"value": 81}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
	if w := h.do(t, http.MethodPut, "/api/entries/id/1", map[string]any{"value": 900}, nil); w.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d, want 400", w.Code)
	}
}

func TestProgress(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()
	if _, err := h.store.AddEntry(ctx, "semen", "2024-01-10", 80); err != nil {
		t.Fatal(err)
	}

	w := h.do(t, http.MethodGet, "/api/progress", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Unit           string            `json:"unit"`
		ChallengeStart string            `json:"challenge_start"`
		Summary        []app.RoleSummary `json:"summary"`
		Items          []json.RawMessage `json:"items"`
	}
	decode(t, w, &resp)
	if resp.Unit != "kg" || resp.ChallengeStart != "2024-01-10" {
		t.Errorf("unit=%q start=%q", resp.Unit, resp.ChallengeStart)
	}
	if len(resp.Summary) != 2 || len(resp.Items) != 1 {
		t.Errorf("summary=%d items=%d", len(resp.Summary), len(resp.Items))
	}

	if w := h.do(t, http.MethodGet, "/api/progress?unit=stone", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad unit status = %d, want 400", w.Code)
	}
}

func TestMenu(t *testing.T) {
	h := newHarness(t, "")

	var plan meals.MenuPlan
	w := h.do(t, http.MethodGet, "/api/menu?date=2024-03-02", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	decode(t, w, &plan)
	if plan.DayOfMonth != 2 {
		t.Errorf("day of month = %d, want 2", plan.DayOfMonth)
	}
	if len(plan.Courses) != len(meals.CourseOrder) {
		t.Fatalf("courses = %d", len(plan.Courses))
	}
	if plan.Courses[0].Meal == nil || plan.Courses[0].Meal.Items[0].Name != "eggs" {
		t.Errorf("breakfast = %+v", plan.Courses[0].Meal)
	}
	if plan.Total == nil || plan.Total.Kcal == nil || *plan.Total.Kcal != 150 {
		t.Errorf("total = %+v", plan.Total)
	}

	w = h.do(t, http.MethodGet, "/api/menu", nil, nil)
	decode(t, w, &plan)
	if plan.DayOfMonth != 10 {
		t.Errorf("today day of month = %d, want 10", plan.DayOfMonth)
	}

	if w := h.do(t, http.MethodGet, "/api/menu?date=tomorrow", nil, nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
}

func TestAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, string(hash))

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Basic s3cret"}}, http.StatusUnauthorized},
		{"wrong token", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"valid", http.Header{"Authorization": {"Bearer s3cret"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodGet, "/api/roster", nil, tt.header)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if w := h.do(t, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Errorf("health should not require auth, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, "")
	h.do(t, http.MethodGet, "/health", nil, nil)

	w := h.do(t, http.MethodGet, "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("weightduel_http_responses_total")) {
		t.Errorf("metrics body missing http counter:\n%s", w.Body.String())
	}
}
