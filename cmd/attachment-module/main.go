// Точка входа Attachment Module — подсистема вложений ERP.
// Загружает конфигурацию, создаёт клиент ERP backend (с SA-токеном),
// кэш вложений, справочники, download proxy, JWT middleware,
// запускает мониторинг зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/diazhh/erp-ace-sub003/internal/api/generated"
	"github.com/diazhh/erp-ace-sub003/internal/api/handlers"
	"github.com/diazhh/erp-ace-sub003/internal/api/middleware"
	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
	"github.com/diazhh/erp-ace-sub003/internal/config"
	"github.com/diazhh/erp-ace-sub003/internal/preview"
	"github.com/diazhh/erp-ace-sub003/internal/server"
	"github.com/diazhh/erp-ace-sub003/internal/service"
)

const serviceID = "attachment-module"

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Attachment Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("api_url", cfg.APIURL),
	)

	if os.Getenv("ATT_DEPHEALTH_GROUP") == "" {
		logger.Warn("ATT_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	ctx := context.Background()

	// 3. SA-токен для запросов к backend (client_credentials)
	var tokenProvider apiclient.TokenProvider
	if cfg.TokenURL != "" {
		ts := apiclient.NewTokenSource(&http.Client{Timeout: cfg.APITimeout},
			cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, logger)
		tokenProvider = ts.Token
		logger.Info("SA-токен для backend включён", slog.String("client_id", cfg.ClientID))
	} else {
		logger.Warn("ATT_TOKEN_URL не задан, запросы к backend без SA-токена")
	}

	// 4. Клиент ERP backend
	client, err := apiclient.New(cfg.APIURL, cfg.APICACertPath, cfg.APITimeout, tokenProvider, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Сервисы
	store := service.NewAttachmentStore(client, cfg.CacheMaxEntities, cfg.CacheTTL, logger)
	previews := preview.NewRegistry(cfg.PreviewMaxDimension, cfg.PreviewTTL, logger)

	defaults := service.UploadPolicy{
		MaxFiles:     cfg.UploadMaxFiles,
		MaxSize:      cfg.UploadMaxSize,
		AllowedTypes: cfg.UploadAllowedTypes,
	}
	catalog := service.NewCatalogService(client, defaults, cfg.CatalogsTTL, logger)
	catalog.SetRetryInterval(cfg.CatalogsRetryInterval)
	if err := catalog.Load(ctx); err != nil {
		// Не фатально: используются умолчания конфигурации, повтор при первом запросе
		logger.Warn("Справочники не загружены при старте", slog.String("error", err.Error()))
	}

	downloads := service.NewDownloadService(store, client, logger)

	// 6. JWT middleware и readiness checkers
	var (
		jwtAuth   *middleware.JWTAuth
		kcChecker handlers.ReadinessChecker
	)
	if cfg.AuthEnabled() {
		jwtAuth, err = middleware.NewJWTAuth(
			cfg.JWKSURL,
			cfg.JWKSCACertPath,
			cfg.JWTIssuer,
			cfg.EditorGroups,
			cfg.ViewerGroups,
			cfg.JWKSClientTimeout,
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)

		checker, err := middleware.NewKeycloakReadinessChecker(cfg.JWKSURL, cfg.JWKSCACertPath, cfg.JWKSClientTimeout)
		if err != nil {
			logger.Error("Ошибка создания Keycloak readiness checker", slog.String("error", err.Error()))
			os.Exit(1)
		}
		kcChecker = checker
	} else {
		logger.Warn("ATT_JWKS_URL не задан, аутентификация входящих запросов отключена")
	}

	healthHandler := handlers.NewHealthHandler(handlers.NewBackendReadinessChecker(client), kcChecker, cfg.APITimeout)
	attachmentHandler := handlers.NewAttachmentHandler(store, catalog, downloads, previews, logger)
	apiHandler := handlers.NewAPIHandler(healthHandler, attachmentHandler, logger)

	// Проверка параметров запросов по встроенной OpenAPI-спецификации
	swagger, err := generated.GetSwagger()
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI-спецификации", slog.String("error", err.Error()))
		os.Exit(1)
	}
	validator, err := middleware.NewRequestValidator(swagger, logger)
	if err != nil {
		logger.Error("Ошибка создания OpenAPI validator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. topologymetrics — мониторинг зависимостей (ERP backend + IdP)
	dephealthSvc, err := service.NewDephealthService(service.DephealthConfig{
		ServiceID:         serviceID,
		Group:             cfg.DephealthGroup,
		BackendURL:        cfg.APIURL,
		BackendHealthPath: cfg.APIHealthPath,
		JWKSURL:           cfg.JWKSURL,
		CheckInterval:     cfg.DephealthCheckInterval,
		IsEntry:           cfg.DephealthIsEntry,
	}, logger)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
		dephealthSvc = nil
	} else if err := dephealthSvc.Start(ctx); err != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", err.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 8. HTTP-сервер
	srv := server.New(cfg, logger, apiHandler, jwtAuth, validator)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Attachment Module остановлен",
		slog.Int("cached_entities", store.Len()),
		slog.Int("active_previews", previews.Len()),
	)
}
