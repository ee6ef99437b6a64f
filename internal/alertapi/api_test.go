package alertapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/sentiment"
	"github.com/linnemanlabs/pulse/internal/triage"
)

// fakeStore implements triage.Store in memory for handler tests.
type fakeStore struct {
	mu        sync.Mutex
	alerts    map[string]*triage.Alert
	failAll   bool
	lastLimit int
}

func newFakeStore() *fakeStore {
	return &fakeStore{alerts: map[string]*triage.Alert{}}
}

func (f *fakeStore) add(a triage.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts[a.ID] = &a
}

func (f *fakeStore) CreateAlert(_ context.Context, a *triage.NewAlert) (string, error) {
	if f.failAll {
		return "", errors.New("store down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "alert-" + a.Source
	f.alerts[id] = &triage.Alert{ID: id, Source: a.Source, Status: triage.StatusNew}
	return id, nil
}

func (f *fakeStore) MarkNotified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return triage.ErrNotFound
	}
	a.Notified = true
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status triage.Status) error {
	if f.failAll {
		return errors.New("store down")
	}
	if !triage.ValidStatus(status) {
		return triage.ErrInvalidStatus
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return triage.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeStore) ListRecent(_ context.Context, limit int) ([]triage.Alert, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	var out []triage.Alert
	for _, a := range f.alerts {
		out = append(out, *a)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListUnnotified(context.Context) ([]triage.Alert, error) { return nil, nil }

func (f *fakeStore) Stats(context.Context) (*triage.Stats, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &triage.Stats{ByUrgency: map[triage.Urgency]int{}}
	for _, a := range f.alerts {
		st.TotalAlerts++
		st.ByUrgency[a.Urgency]++
	}
	return st, nil
}

// fakeMonitor implements MonitorService with canned responses.
type fakeMonitor struct {
	cycleCalls   int
	lastTrigger  string
	previewCalls int
	lastText     string
}

func (f *fakeMonitor) RunCycle(_ context.Context, trigger string) *triage.CycleResult {
	f.cycleCalls++
	f.lastTrigger = trigger
	return &triage.CycleResult{
		ItemsPerSource: map[string]int{"reddit": 5},
		TotalItems:     5,
		AlertsCreated:  2,
	}
}

func (f *fakeMonitor) Preview(_ context.Context, text string) *triage.Preview {
	f.previewCalls++
	f.lastText = text
	return &triage.Preview{
		Sentiment: sentiment.Result{
			Label:      sentiment.LabelNegative,
			RawScore:   0.9,
			Normalized: -0.9,
		},
		Urgency:        triage.UrgencyHigh,
		Recommendation: "Escalate to technical support team immediately",
	}
}

func newTestRouter(t *testing.T) (chi.Router, *fakeStore, *fakeMonitor) {
	t.Helper()
	store := newFakeStore()
	svc := &fakeMonitor{}
	api := New(nil, store, svc)
	r := chi.NewRouter()
	api.RegisterRoutes(r)
	return r, store, svc
}

//  New / constructor

func TestNew_NilLogger(t *testing.T) {
	t.Parallel()

	api := New(nil, newFakeStore(), &fakeMonitor{})
	if api == nil {
		t.Fatal("New returned nil API")
	}
	if api.logger == nil {
		t.Fatal("New left logger nil; expected Nop logger")
	}
}

func TestNew_WithLogger(t *testing.T) {
	t.Parallel()

	api := New(log.Nop(), newFakeStore(), &fakeMonitor{})
	if api.logger == nil {
		t.Fatal("New left logger nil")
	}
}

func TestNew_NilStore_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic; expected panic for nil store")
		}
	}()
	New(nil, nil, &fakeMonitor{})
}

func TestNew_NilService_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("New did not panic; expected panic for nil service")
		}
	}()
	New(nil, newFakeStore(), nil)
}

// GET /api/v1/alerts

func TestListAlerts(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	store.add(triage.Alert{ID: "a1", Source: "reddit", Urgency: triage.UrgencyHigh, CreatedAt: time.Now()})
	store.add(triage.Alert{ID: "a2", Source: "twitter", Urgency: triage.UrgencyLow, CreatedAt: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Alerts []triage.Alert `json:"alerts"`
		Count  int            `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.Alerts) != 2 {
		t.Errorf("count = %d, alerts = %d, want 2 each", body.Count, len(body.Alerts))
	}
}

func TestListAlerts_Empty(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// Empty store returns an empty array, not null.
	if !strings.Contains(rec.Body.String(), `"alerts":[]`) {
		t.Errorf("body = %s, want empty alerts array", rec.Body.String())
	}
}

func TestListAlerts_LimitValidation(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	for _, id := range []string{"a1", "a2", "a3"} {
		store.add(triage.Alert{ID: id, CreatedAt: time.Now()})
	}

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"valid limit", "?limit=2", http.StatusOK},
		{"oversized limit clamps", "?limit=100000000", http.StatusOK},
		{"zero limit", "?limit=0", http.StatusBadRequest},
		{"negative limit", "?limit=-5", http.StatusBadRequest},
		{"non-numeric limit", "?limit=abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts"+tt.query, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("GET /api/v1/alerts%s = %d, want %d", tt.query, rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestListAlerts_LimitClampedAtCap(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?limit=100000000", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	store.mu.Lock()
	got := store.lastLimit
	store.mu.Unlock()
	if got != maxListLimit {
		t.Errorf("store received limit %d, want %d", got, maxListLimit)
	}
}

func TestListAlerts_StoreError(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	store.failAll = true

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// GET /api/v1/alerts/stats

func TestStats(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	store.add(triage.Alert{ID: "a1", Urgency: triage.UrgencyHigh, CreatedAt: time.Now()})
	store.add(triage.Alert{ID: "a2", Urgency: triage.UrgencyHigh, CreatedAt: time.Now()})
	store.add(triage.Alert{ID: "a3", Urgency: triage.UrgencyLow, CreatedAt: time.Now()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats triage.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalAlerts != 3 {
		t.Errorf("total = %d, want 3", stats.TotalAlerts)
	}
	if stats.ByUrgency[triage.UrgencyHigh] != 2 {
		t.Errorf("HIGH = %d, want 2", stats.ByUrgency[triage.UrgencyHigh])
	}
}

// PUT /api/v1/alerts/{id}/status

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	store.add(triage.Alert{ID: "a1", Status: triage.StatusNew, CreatedAt: time.Now()})

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"valid transition", "a1", `{"status":"resolved"}`, http.StatusOK},
		{"invalid enum value", "a1", `{"status":"escalated"}`, http.StatusBadRequest},
		{"empty status", "a1", `{"status":""}`, http.StatusBadRequest},
		{"malformed body", "a1", `{bad`, http.StatusBadRequest},
		{"unknown id", "nope", `{"status":"resolved"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/v1/alerts/"+tt.id+"/status", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("PUT status %q = %d, want %d", tt.body, rec.Code, tt.wantStatus)
			}
		})
	}

	// The valid transition stuck.
	if store.alerts["a1"].Status != triage.StatusResolved {
		t.Errorf("alert status = %q, want resolved", store.alerts["a1"].Status)
	}
}

// POST /api/v1/monitor/run

func TestRunCycle(t *testing.T) {
	t.Parallel()

	r, _, svc := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/monitor/run", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.cycleCalls != 1 {
		t.Errorf("cycle calls = %d, want 1", svc.cycleCalls)
	}
	if svc.lastTrigger != "manual" {
		t.Errorf("trigger = %q, want manual", svc.lastTrigger)
	}

	var result triage.CycleResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TotalItems != 5 || result.AlertsCreated != 2 {
		t.Errorf("result = %+v", result)
	}
}

// POST /api/v1/test/sentiment

func TestPreview(t *testing.T) {
	t.Parallel()

	r, _, svc := newTestRouter(t)

	body := `{"text":"This product is terrible and support is useless"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/test/sentiment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.previewCalls != 1 {
		t.Errorf("preview calls = %d, want 1", svc.previewCalls)
	}
	if svc.lastText != "This product is terrible and support is useless" {
		t.Errorf("text = %q", svc.lastText)
	}

	var preview triage.Preview
	if err := json.NewDecoder(rec.Body).Decode(&preview); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if preview.Urgency != triage.UrgencyHigh {
		t.Errorf("urgency = %q, want HIGH", preview.Urgency)
	}
}

func TestPreview_BadRequests(t *testing.T) {
	t.Parallel()

	r, _, svc := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{bad`},
		{"missing text", `{}`},
		{"empty text", `{"text":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/test/sentiment", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	if svc.previewCalls != 0 {
		t.Errorf("preview called %d times for invalid requests", svc.previewCalls)
	}
}

// Routing

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/alerts"},
		{http.MethodDelete, "/api/v1/alerts"},
		{http.MethodGet, "/api/v1/monitor/run"},
		{http.MethodGet, "/api/v1/test/sentiment"},
		{http.MethodPost, "/api/v1/alerts/a1/status"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s = %d, want 405", tt.method, tt.path, rec.Code)
			}
		})
	}
}
