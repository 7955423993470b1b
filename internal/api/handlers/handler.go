// handler.go — основной обработчик API, реализующий generated.ServerInterface.
// Объединяет health и обработчики вложений.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/diazhh/erp-ace-sub003/internal/api/errors"
	"github.com/diazhh/erp-ace-sub003/internal/api/generated"
)

var _ generated.ServerInterface = (*APIHandler)(nil)

// APIHandler — основной обработчик API Attachment Module.
// Операции вложений и превью обслуживает встроенный AttachmentHandler.
type APIHandler struct {
	*AttachmentHandler
	health *HealthHandler
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(health *HealthHandler, attachments *AttachmentHandler, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		AttachmentHandler: attachments,
		health:            health,
		logger:            logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — проверка живости.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — проверка готовности.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// ParamErrorHandler — ErrorHandlerFunc для generated-маршрутов:
// ошибки разбора параметров пути и query в стандартном формате.
func ParamErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	var invalid *generated.InvalidParamFormatError
	if errors.As(err, &invalid) {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректное значение параметра %s", invalid.ParamName))
		return
	}
	var required *generated.RequiredParamError
	if errors.As(err, &required) {
		apierrors.ValidationError(w, fmt.Sprintf("Не указан обязательный параметр %s", required.ParamName))
		return
	}
	apierrors.ValidationError(w, "Некорректные параметры запроса: "+err.Error())
}
