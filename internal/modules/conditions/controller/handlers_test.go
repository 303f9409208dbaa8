package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"riverwatch/internal/modules/conditions/types"
	"riverwatch/internal/modules/conditions/views"
	"riverwatch/internal/upstream"
)

type mockService struct {
	reading    types.Reading
	currentErr error
	stored     types.StoredRecord
	storeErr   error
	records    []types.StoredRecord
	historyErr error

	historyHours []int
	storeCalls   int
}

func (m *mockService) FetchCurrent(ctx context.Context) (types.Reading, error) {
	return m.reading, m.currentErr
}

func (m *mockService) FetchAndPersist(ctx context.Context) (types.StoredRecord, error) {
	m.storeCalls++
	return m.stored, m.storeErr
}

func (m *mockService) History(ctx context.Context, hours int) ([]types.StoredRecord, error) {
	m.historyHours = append(m.historyHours, hours)
	return m.records, m.historyErr
}

func f(v float64) *float64 { return &v }

func sampleReading() types.Reading {
	ts := time.Date(2024, 6, 1, 19, 15, 0, 0, time.UTC)
	return types.Reading{Timestamp: &ts, GageHeightFt: f(512.34), WaterTempC: f(18.5), AirTempC: f(30)}
}

func newTestController(svc *mockService) *conditionsControllerImpl {
	return NewConditionsController(svc, Options{Title: "River Watch", Subtitle: "Units: ft"}).(*conditionsControllerImpl)
}

func loadTemplates(t *testing.T) {
	t.Helper()
	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
}

func TestNewConditionsController_defaults(t *testing.T) {
	c := NewConditionsController(&mockService{}, Options{}).(*conditionsControllerImpl)
	if c.historyHours != DefaultHistoryHours {
		t.Errorf("historyHours = %d; want %d", c.historyHours, DefaultHistoryHours)
	}
	if c.logger == nil {
		t.Error("logger = nil; want slog.Default()")
	}
}

func Test_handleDashboard(t *testing.T) {
	loadTemplates(t)

	t.Run("renders current conditions and history", func(t *testing.T) {
		svc := &mockService{reading: sampleReading()}
		ctrl := newTestController(svc)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q; want text/html; charset=utf-8", ct)
		}
		body := rec.Body.String()
		for _, want := range []string{"River Watch", "512.34 ft", "65.3 °F", "N/A mph", "Last 24 Hours"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
		if len(svc.historyHours) != 1 || svc.historyHours[0] != DefaultHistoryHours {
			t.Errorf("History called with %v; want [%d]", svc.historyHours, DefaultHistoryHours)
		}
	})

	t.Run("shows stored banner after redirect", func(t *testing.T) {
		ctrl := newTestController(&mockService{reading: sampleReading()})
		req := httptest.NewRequest(http.MethodGet, "/?stored=1", nil)
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, req)

		if !strings.Contains(rec.Body.String(), "Snapshot stored.") {
			t.Errorf("body missing stored banner")
		}
	})

	t.Run("fetch error renders banner and skips history", func(t *testing.T) {
		fetchErr := &upstream.FetchError{Source: "usgs", Err: errors.New("connection refused")}
		svc := &mockService{currentErr: fmt.Errorf("fetch gage: %w", fetchErr)}
		ctrl := newTestController(svc)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadGateway)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Data fetch error: fetch gage: usgs fetch: connection refused") {
			t.Errorf("body = %q; want fetch error banner", body)
		}
		if strings.Contains(body, "Current Conditions") {
			t.Error("body renders current conditions after fetch error")
		}
		if len(svc.historyHours) != 0 {
			t.Errorf("History called %d times; want 0", len(svc.historyHours))
		}
	})

	t.Run("returns 500 when history fails", func(t *testing.T) {
		ctrl := newTestController(&mockService{reading: sampleReading(), historyErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(rec.Body.String(), "failed to load history") {
			t.Errorf("body = %q; want failed to load history", rec.Body.String())
		}
	})
}

func Test_handleStoreSnapshot(t *testing.T) {
	t.Run("redirects to dashboard on success", func(t *testing.T) {
		svc := &mockService{stored: types.StoredRecord{ID: 7}}
		ctrl := newTestController(svc)
		req := httptest.NewRequest(http.MethodPost, "/snapshots", nil)
		rec := httptest.NewRecorder()

		ctrl.handleStoreSnapshot(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusSeeOther)
		}
		if loc := rec.Header().Get("Location"); loc != "/?stored=1" {
			t.Errorf("Location = %q; want /?stored=1", loc)
		}
		if svc.storeCalls != 1 {
			t.Errorf("FetchAndPersist calls = %d; want 1", svc.storeCalls)
		}
	})

	t.Run("returns 502 on parse error", func(t *testing.T) {
		parseErr := &upstream.ParseError{Source: "openmeteo", Err: errors.New("missing current.time")}
		ctrl := newTestController(&mockService{storeErr: fmt.Errorf("fetch weather: %w", parseErr)})
		req := httptest.NewRequest(http.MethodPost, "/snapshots", nil)
		rec := httptest.NewRecorder()

		ctrl.handleStoreSnapshot(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadGateway)
		}
		if !strings.Contains(rec.Body.String(), "missing current.time") {
			t.Errorf("body = %q; want parse error message", rec.Body.String())
		}
	})
}

func Test_handleHistoryPartial(t *testing.T) {
	loadTemplates(t)

	t.Run("renders requested window", func(t *testing.T) {
		svc := &mockService{}
		ctrl := newTestController(svc)
		req := httptest.NewRequest(http.MethodGet, "/partials/history?hours=6", nil)
		rec := httptest.NewRecorder()

		ctrl.handleHistoryPartial(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "Last 6 Hours") {
			t.Errorf("body = %q; want Last 6 Hours", rec.Body.String())
		}
		if len(svc.historyHours) != 1 || svc.historyHours[0] != 6 {
			t.Errorf("History called with %v; want [6]", svc.historyHours)
		}
	})

	t.Run("returns 400 on bad hours", func(t *testing.T) {
		ctrl := newTestController(&mockService{})
		req := httptest.NewRequest(http.MethodGet, "/partials/history?hours=0", nil)
		rec := httptest.NewRecorder()

		ctrl.handleHistoryPartial(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func Test_handleCurrent(t *testing.T) {
	t.Run("returns reading with nulls preserved", func(t *testing.T) {
		ctrl := newTestController(&mockService{reading: sampleReading()})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/current", nil)
		rec := httptest.NewRecorder()

		ctrl.handleCurrent(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var got map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["gageHeightFt"] != 512.34 {
			t.Errorf("gageHeightFt = %v; want 512.34", got["gageHeightFt"])
		}
		if v, ok := got["windMph"]; !ok || v != nil {
			t.Errorf("windMph = %v (present=%v); want explicit null", v, ok)
		}
		if got["timestamp"] != "2024-06-01T19:15:00Z" {
			t.Errorf("timestamp = %v; want 2024-06-01T19:15:00Z", got["timestamp"])
		}
	})

	t.Run("returns 500 on non-upstream error", func(t *testing.T) {
		ctrl := newTestController(&mockService{currentErr: context.Canceled})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/current", nil)
		rec := httptest.NewRecorder()

		ctrl.handleCurrent(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_handleCreateSnapshot(t *testing.T) {
	t.Run("returns 201 with stored record", func(t *testing.T) {
		stored := types.StoredRecord{ID: 3, Reading: sampleReading()}
		ctrl := newTestController(&mockService{stored: stored})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshots", nil)
		rec := httptest.NewRecorder()

		ctrl.handleCreateSnapshot(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusCreated)
		}
		var got types.StoredRecord
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got.ID != 3 || got.GageHeightFt == nil || *got.GageHeightFt != 512.34 {
			t.Errorf("record = %+v; want id 3 with gage height 512.34", got)
		}
		if got.WindMph != nil {
			t.Errorf("WindMph = %v; want nil", *got.WindMph)
		}
	})

	t.Run("returns 502 on upstream status error", func(t *testing.T) {
		fetchErr := &upstream.FetchError{Source: "usgs", StatusCode: http.StatusServiceUnavailable, Err: errors.New("busy")}
		ctrl := newTestController(&mockService{storeErr: fetchErr})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshots", nil)
		rec := httptest.NewRecorder()

		ctrl.handleCreateSnapshot(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadGateway)
		}
	})
}

func Test_handleReadings(t *testing.T) {
	t.Run("returns records for default window", func(t *testing.T) {
		svc := &mockService{records: []types.StoredRecord{{ID: 1, Reading: sampleReading()}}}
		ctrl := newTestController(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil)
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), `"id":1`) {
			t.Errorf("body = %q; want record id 1", rec.Body.String())
		}
		if svc.historyHours[0] != DefaultHistoryHours {
			t.Errorf("hours = %d; want %d", svc.historyHours[0], DefaultHistoryHours)
		}
	})

	t.Run("returns empty array when nothing stored", func(t *testing.T) {
		ctrl := newTestController(&mockService{records: []types.StoredRecord{}})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/readings?hours=1", nil)
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, req)

		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("body = %q; want []", body)
		}
	})

	t.Run("returns 400 when hours is invalid", func(t *testing.T) {
		ctrl := newTestController(&mockService{})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/readings?hours=abc", nil)
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "invalid 'hours'") {
			t.Errorf("body = %q; want invalid 'hours'", rec.Body.String())
		}
	})

	t.Run("returns 500 when store fails", func(t *testing.T) {
		ctrl := newTestController(&mockService{historyErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil)
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func TestRegisterRoutes(t *testing.T) {
	loadTemplates(t)
	mux := http.NewServeMux()
	newTestController(&mockService{reading: sampleReading()}).RegisterRoutes(mux)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPost, "/snapshots", http.StatusSeeOther},
		{http.MethodGet, "/partials/history", http.StatusOK},
		{http.MethodGet, "/api/v1/current", http.StatusOK},
		{http.MethodPost, "/api/v1/snapshots", http.StatusCreated},
		{http.MethodGet, "/api/v1/readings", http.StatusOK},
		{http.MethodGet, "/api/v1/snapshots", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d; want %d", rec.Code, tt.want)
			}
		})
	}
}
