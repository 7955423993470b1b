package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

type stubChecker struct{ status string }

func (s stubChecker) CheckReady(context.Context) (string, string) { return s.status, "" }

type stubStats struct {
	stats *model.Stats
	err   error
}

func (s stubStats) Stats(context.Context) (*model.Stats, error) { return s.stats, s.err }

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil, 0)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	var resp healthLiveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || resp.Status != "ok" || resp.Service != "attachment-module" {
		t.Errorf("неожиданный ответ %d %+v", rec.Code, resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		backend    ReadinessChecker
		keycloak   ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"backend ok", NewBackendReadinessChecker(stubStats{stats: &model.Stats{TotalFiles: 5}}), nil, http.StatusOK, "ok"},
		{"backend недоступен", NewBackendReadinessChecker(stubStats{err: errors.New("timeout")}), nil, http.StatusServiceUnavailable, "fail"},
		{"нет checker", nil, nil, http.StatusServiceUnavailable, "fail"},
		{"keycloak degraded", stubChecker{"ok"}, stubChecker{"degraded"}, http.StatusOK, "degraded"},
		{"keycloak fail", stubChecker{"ok"}, stubChecker{"fail"}, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.backend, tt.keycloak, 0)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			var resp healthReadyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantCode || resp.Status != tt.wantStatus {
				t.Errorf("получено %d/%s, ожидалось %d/%s", rec.Code, resp.Status, tt.wantCode, tt.wantStatus)
			}
		})
	}
}
