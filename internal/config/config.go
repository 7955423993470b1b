// Пакет config — загрузка и валидация конфигурации Attachment Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Attachment Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (по умолчанию 8040)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- ERP backend ---

	// Базовый URL REST API backend (обязательный), относительно него
	// разрешаются fileUrl и thumbnailUrl
	APIURL string
	// Путь к CA-сертификату backend (опционально)
	APICACertPath string
	// Таймаут запросов к backend
	APITimeout time.Duration
	// Путь health endpoint backend для мониторинга зависимостей
	APIHealthPath string

	// --- Service Account (client_credentials) ---

	// Token endpoint IdP (пусто — запросы к backend без SA-токена)
	TokenURL string
	// Client ID сервисного аккаунта
	ClientID string
	// Client Secret сервисного аккаунта
	ClientSecret string //nolint:gosec // G117: поле конфигурации

	// --- JWT ---

	// URL JWKS endpoint (пусто — аутентификация входящих запросов отключена)
	JWKSURL string
	// Путь к CA-сертификату JWKS (опционально)
	JWKSCACertPath string
	// Ожидаемый issuer JWT (пусто — не проверяется)
	JWTIssuer string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Группы IdP с ролью editor
	EditorGroups []string
	// Группы IdP с ролью viewer
	ViewerGroups []string

	// --- Кэш вложений ---

	// Максимум сущностей в кэше
	CacheMaxEntities int
	// Время жизни списка вложений (0 — без истечения)
	CacheTTL time.Duration
	// Период перечитывания справочников backend
	CatalogsTTL time.Duration
	// Пауза перед повторной загрузкой справочников после ошибки
	CatalogsRetryInterval time.Duration

	// --- Загрузка ---

	// Максимум файлов в одном пакете
	UploadMaxFiles int
	// Максимальный размер файла в байтах
	UploadMaxSize int64
	// Допустимые MIME-типы, маски и расширения (пусто — умолчания сервиса)
	UploadAllowedTypes []string
	// Максимальная сторона превью в пикселях
	PreviewMaxDimension int
	// Время жизни превью, не освобождённого клиентом
	PreviewTTL time.Duration

	// --- Dephealth ---

	// Имя группы в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
	// Лейбл isentry=yes для зависимостей
	DephealthIsEntry bool

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration
}

// AuthEnabled сообщает, включена ли JWT-аутентификация входящих запросов.
func (c *Config) AuthEnabled() bool {
	return c.JWKSURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// ATT_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("ATT_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("ATT_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("ATT_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// ATT_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("ATT_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("ATT_LOG_LEVEL: %w", err)
	}

	// ATT_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("ATT_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("ATT_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- ERP backend ---

	// ATT_API_URL — обязательный
	cfg.APIURL, err = getEnvRequired("ATT_API_URL")
	if err != nil {
		return nil, err
	}
	if err := validateURL(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("ATT_API_URL: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	cfg.APICACertPath = getEnvDefault("ATT_API_CA_CERT_PATH", "")

	// ATT_API_TIMEOUT — таймаут запросов к backend (по умолчанию 30s)
	cfg.APITimeout, err = getEnvDurationPositive("ATT_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_API_TIMEOUT: %w", err)
	}

	cfg.APIHealthPath = getEnvDefault("ATT_API_HEALTH_PATH", "/health")

	// --- Service Account ---

	cfg.TokenURL = getEnvDefault("ATT_TOKEN_URL", "")
	cfg.ClientID = getEnvDefault("ATT_CLIENT_ID", "")
	cfg.ClientSecret = getEnvDefault("ATT_CLIENT_SECRET", "")
	if cfg.TokenURL != "" {
		if err := validateURL(cfg.TokenURL); err != nil {
			return nil, fmt.Errorf("ATT_TOKEN_URL: %w", err)
		}
		if cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("ATT_TOKEN_URL задан: ATT_CLIENT_ID и ATT_CLIENT_SECRET обязательны")
		}
	}

	// --- JWT ---

	cfg.JWKSURL = getEnvDefault("ATT_JWKS_URL", "")
	if cfg.JWKSURL != "" {
		if err := validateURL(cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("ATT_JWKS_URL: %w", err)
		}
	}
	cfg.JWKSCACertPath = getEnvDefault("ATT_JWKS_CA_CERT_PATH", "")
	cfg.JWTIssuer = getEnvDefault("ATT_JWT_ISSUER", "")

	// ATT_JWT_LEEWAY — допустимое отклонение времени (по умолчанию 5s)
	cfg.JWTLeeway, err = getEnvDuration("ATT_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_JWT_LEEWAY: %w", err)
	}

	// ATT_JWKS_REFRESH_INTERVAL — интервал обновления JWKS (по умолчанию 15m)
	cfg.JWKSRefreshInterval, err = getEnvDurationPositive("ATT_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ATT_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// ATT_JWKS_CLIENT_TIMEOUT — таймаут HTTP-клиента JWKS (по умолчанию 10s)
	cfg.JWKSClientTimeout, err = getEnvDurationPositive("ATT_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	cfg.EditorGroups = parseCSV(getEnvDefault("ATT_EDITOR_GROUPS", "erp-editors"))
	cfg.ViewerGroups = parseCSV(getEnvDefault("ATT_VIEWER_GROUPS", "erp-viewers"))

	// --- Кэш ---

	// ATT_CACHE_MAX_ENTITIES — максимум сущностей в кэше (по умолчанию 1000)
	cfg.CacheMaxEntities, err = getEnvInt("ATT_CACHE_MAX_ENTITIES", 1000)
	if err != nil {
		return nil, fmt.Errorf("ATT_CACHE_MAX_ENTITIES: %w", err)
	}
	if cfg.CacheMaxEntities <= 0 {
		return nil, fmt.Errorf("ATT_CACHE_MAX_ENTITIES: значение должно быть положительным")
	}

	// ATT_CACHE_TTL — время жизни списка (по умолчанию 0 — без истечения)
	cfg.CacheTTL, err = getEnvDuration("ATT_CACHE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("ATT_CACHE_TTL: %w", err)
	}
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("ATT_CACHE_TTL: значение не может быть отрицательным")
	}

	// ATT_CATALOGS_TTL — период перечитывания справочников (по умолчанию 10m)
	cfg.CatalogsTTL, err = getEnvDuration("ATT_CATALOGS_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ATT_CATALOGS_TTL: %w", err)
	}

	// ATT_CATALOGS_RETRY_INTERVAL — пауза после неудачной загрузки справочников (по умолчанию 30s)
	cfg.CatalogsRetryInterval, err = getEnvDurationPositive("ATT_CATALOGS_RETRY_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_CATALOGS_RETRY_INTERVAL: %w", err)
	}

	// --- Загрузка ---

	// ATT_UPLOAD_MAX_FILES — максимум файлов в пакете (по умолчанию 10)
	cfg.UploadMaxFiles, err = getEnvInt("ATT_UPLOAD_MAX_FILES", 10)
	if err != nil {
		return nil, fmt.Errorf("ATT_UPLOAD_MAX_FILES: %w", err)
	}
	if cfg.UploadMaxFiles <= 0 {
		return nil, fmt.Errorf("ATT_UPLOAD_MAX_FILES: значение должно быть положительным")
	}

	// ATT_UPLOAD_MAX_SIZE — максимальный размер файла (по умолчанию 10 MiB)
	cfg.UploadMaxSize, err = getEnvInt64("ATT_UPLOAD_MAX_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("ATT_UPLOAD_MAX_SIZE: %w", err)
	}
	if cfg.UploadMaxSize <= 0 {
		return nil, fmt.Errorf("ATT_UPLOAD_MAX_SIZE: значение должно быть положительным")
	}

	cfg.UploadAllowedTypes = parseCSV(getEnvDefault("ATT_UPLOAD_ALLOWED_TYPES", ""))

	// ATT_PREVIEW_MAX_DIMENSION — сторона превью (по умолчанию 320)
	cfg.PreviewMaxDimension, err = getEnvInt("ATT_PREVIEW_MAX_DIMENSION", 320)
	if err != nil {
		return nil, fmt.Errorf("ATT_PREVIEW_MAX_DIMENSION: %w", err)
	}
	if cfg.PreviewMaxDimension <= 0 {
		return nil, fmt.Errorf("ATT_PREVIEW_MAX_DIMENSION: значение должно быть положительным")
	}

	// ATT_PREVIEW_TTL — время жизни превью (по умолчанию 10m)
	cfg.PreviewTTL, err = getEnvDurationPositive("ATT_PREVIEW_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ATT_PREVIEW_TTL: %w", err)
	}

	// --- Dephealth ---

	cfg.DephealthGroup = getEnvDefault("ATT_DEPHEALTH_GROUP", "erp")

	// ATT_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDurationPositive("ATT_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// DEPHEALTH_ISENTRY — общий для всех сервисов флаг точки входа
	cfg.DephealthIsEntry, err = getEnvBool("DEPHEALTH_ISENTRY", false)
	if err != nil {
		return nil, fmt.Errorf("DEPHEALTH_ISENTRY: %w", err)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("ATT_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("ATT_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("ATT_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("ATT_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ATT_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 из переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationPositive — как getEnvDuration, но значение должно быть > 0.
func getEnvDurationPositive(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// validateURL проверяет, что значение — абсолютный http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("некорректный URL %q: ожидается схема http или https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("некорректный URL %q: отсутствует хост", raw)
	}
	return nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
