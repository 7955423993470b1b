// Пакет errors — конструкторы стандартных ошибок Attachment Module.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
)

// Коды ошибок.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeBackendError         = "BACKEND_ERROR"
	CodeBackendUnavailable   = "BACKEND_UNAVAILABLE"
	CodeBackendTimeout       = "BACKEND_TIMEOUT"
	CodeRequestCanceled      = "REQUEST_CANCELED"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// StatusClientClosedRequest — клиент закрыл соединение до ответа (nginx 499).
const StatusClientClosedRequest = 499

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, CodeForbidden, message)
}

// ConfirmationRequired — 409 удаление без подтверждения.
func ConfirmationRequired(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConfirmationRequired, message)
}

// BackendUnavailable — 502 ERP backend недоступен.
func BackendUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, CodeBackendUnavailable, message)
}

// PayloadTooLarge — 413 тело запроса превышает лимит.
func PayloadTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// Describe сопоставляет ошибку backend со статусом и кодом ответа.
// Сообщение сервера передаётся без изменений, статусы 4xx сохраняются,
// остальные ответы backend и сетевые ошибки дают 502. Отмена запроса,
// таймаут и ошибки чтения локальных файлов не считаются отказом backend.
func Describe(err error) (status int, code, message string) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return describeAPIError(apiErr)
	}

	var fileErr *apiclient.LocalFileError
	var netErr net.Error
	switch {
	case errors.As(err, &fileErr):
		return http.StatusInternalServerError, CodeInternalError, fileErr.Error()
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, CodeRequestCanceled, "Запрос отменён клиентом"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout, CodeBackendTimeout, "ERP backend не ответил вовремя: " + err.Error()
	default:
		return http.StatusBadGateway, CodeBackendUnavailable, "ERP backend недоступен: " + err.Error()
	}
}

func describeAPIError(apiErr *apiclient.APIError) (status int, code, message string) {
	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		return apiErr.StatusCode, CodeNotFound, apiErr.Message
	case apiErr.StatusCode == http.StatusUnauthorized:
		return apiErr.StatusCode, CodeUnauthorized, apiErr.Message
	case apiErr.StatusCode == http.StatusForbidden:
		return apiErr.StatusCode, CodeForbidden, apiErr.Message
	case apiErr.StatusCode == http.StatusConflict:
		return apiErr.StatusCode, CodeConflict, apiErr.Message
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode, CodeValidationError, apiErr.Message
	default:
		return http.StatusBadGateway, CodeBackendError, apiErr.Message
	}
}

// Denied сообщает, что backend отказал вызывающему в доступе к ресурсу
// (401, 403, 404). Такой ответ не должен содержать данных из общего кэша.
func Denied(err error) bool {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// FromBackend записывает ошибку backend в стандартном формате.
func FromBackend(w http.ResponseWriter, err error) {
	status, code, message := Describe(err)
	WriteError(w, status, code, message)
}
