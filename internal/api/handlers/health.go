// health.go — обработчики health endpoints Attachment Module.
// /health/live — проверка живости (процесс жив)
// /health/ready — проверка готовности (ERP backend и Keycloak доступны)
// /metrics — Prometheus метрики
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diazhh/erp-ace-sub003/internal/config"
	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

const serviceName = "attachment-module"

// Статусы health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady(ctx context.Context) (status, message string)
}

// StatsSource — источник статистики backend (apiclient.Client).
type StatsSource interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

// BackendReadinessChecker проверяет ERP backend запросом статистики вложений.
type BackendReadinessChecker struct {
	source StatsSource
}

// NewBackendReadinessChecker создаёт checker ERP backend.
func NewBackendReadinessChecker(source StatsSource) *BackendReadinessChecker {
	return &BackendReadinessChecker{source: source}
}

// CheckReady запрашивает /attachments/stats.
func (b *BackendReadinessChecker) CheckReady(ctx context.Context) (status, message string) {
	stats, err := b.source.Stats(ctx)
	if err != nil {
		return statusFail, fmt.Sprintf("ERP backend недоступен: %v", err)
	}
	if stats == nil {
		return statusDegraded, "ERP backend: пустой ответ статистики"
	}
	return statusOK, fmt.Sprintf("вложений на backend: %d", stats.TotalFiles)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	backend     ReadinessChecker
	keycloak    ReadinessChecker
	timeout     time.Duration
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// backend == nil даёт "fail", keycloak == nil означает, что аутентификация выключена.
func NewHealthHandler(backend, keycloak ReadinessChecker, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{
		backend:     backend,
		keycloak:    keycloak,
		timeout:     timeout,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ проверки живости.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ проверки готовности.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Backend  healthCheckResult  `json:"erp_backend"`
		Keycloak *healthCheckResult `json:"keycloak,omitempty"`
	} `json:"checks"`
}

// HealthLive — проверка живости. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — проверка готовности. Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.backend != nil {
		st, msg := h.backend.CheckReady(ctx)
		resp.Checks.Backend = healthCheckResult{Status: st, Message: msg}
	} else {
		resp.Checks.Backend = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}
	statuses := []string{resp.Checks.Backend.Status}

	if h.keycloak != nil {
		st, msg := h.keycloak.CheckReady(ctx)
		resp.Checks.Keycloak = &healthCheckResult{Status: st, Message: msg}
		statuses = append(statuses, st)
	}

	resp.Status = overallStatus(statuses...)

	code := http.StatusOK
	if resp.Status == statusFail {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail, если degraded — degraded.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
