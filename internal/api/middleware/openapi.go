// openapi.go — проверка параметров запроса по OpenAPI-спецификации (kin-openapi).
// Тела запросов не проверяются: multipart разбирается обработчиками,
// JSON — go-playground/validator.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/diazhh/erp-ace-sub003/internal/api/errors"
)

// RequestValidator — middleware проверки параметров по спецификации.
type RequestValidator struct {
	router routers.Router
	logger *slog.Logger
}

// NewRequestValidator создаёт middleware по загруженной спецификации
// (generated.GetSwagger). Спецификация проверяется при создании.
func NewRequestValidator(doc *openapi3.T, logger *slog.Logger) (*RequestValidator, error) {
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("маршрутизатор OpenAPI: %w", err)
	}
	return &RequestValidator{
		router: router,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware. Запросы к путям вне спецификации
// пропускаются: ответ 404/405 формирует chi.
func (v *RequestValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				var routeErr *routers.RouteError
				if !errors.As(err, &routeErr) {
					v.logger.Warn("Ошибка поиска маршрута OpenAPI", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			// проверка security в kin-openapi читает тело целиком
			params := r.WithContext(r.Context())
			params.Body = http.NoBody

			input := &openapi3filter.RequestValidationInput{
				Request:    params,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					ExcludeRequestBody:  true,
					SkipSettingDefaults: true,
					AuthenticationFunc:  openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				v.logger.Debug("Запрос не соответствует спецификации",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, describeRequestError(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func describeRequestError(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		return fmt.Sprintf("Некорректный параметр %s: %s", reqErr.Parameter.Name, reqErr.Error())
	}
	return "Запрос не соответствует спецификации API: " + err.Error()
}
