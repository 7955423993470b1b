package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"ATT_API_URL": "https://erp.kryukov.lan/api/",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port = %d, ожидается 8040", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.APIURL != "https://erp.kryukov.lan/api" {
		t.Errorf("APIURL = %q, ожидается без завершающего /", cfg.APIURL)
	}
	if cfg.APITimeout != 30*time.Second {
		t.Errorf("APITimeout = %v, ожидается 30s", cfg.APITimeout)
	}
	if cfg.UploadMaxFiles != 10 || cfg.UploadMaxSize != 10<<20 {
		t.Errorf("лимиты загрузки %d/%d, ожидается 10/10MiB", cfg.UploadMaxFiles, cfg.UploadMaxSize)
	}
	if cfg.CacheTTL != 0 || cfg.CacheMaxEntities != 1000 {
		t.Errorf("кэш %v/%d, ожидается 0/1000", cfg.CacheTTL, cfg.CacheMaxEntities)
	}
	if cfg.PreviewTTL != 10*time.Minute || cfg.CatalogsRetryInterval != 30*time.Second {
		t.Errorf("превью/справочники %v/%v, ожидается 10m/30s", cfg.PreviewTTL, cfg.CatalogsRetryInterval)
	}
	if cfg.AuthEnabled() {
		t.Error("без ATT_JWKS_URL аутентификация должна быть выключена")
	}
	if len(cfg.EditorGroups) != 1 || cfg.EditorGroups[0] != "erp-editors" {
		t.Errorf("EditorGroups = %v", cfg.EditorGroups)
	}
	if cfg.DephealthIsEntry {
		t.Error("DephealthIsEntry по умолчанию false")
	}
}

func TestLoad_FullConfig(t *testing.T) {
	envs := minimalEnvs()
	envs["ATT_PORT"] = "9040"
	envs["ATT_LOG_LEVEL"] = "debug"
	envs["ATT_LOG_FORMAT"] = "text"
	envs["ATT_TOKEN_URL"] = "https://keycloak.kryukov.lan/realms/erp/protocol/openid-connect/token"
	envs["ATT_CLIENT_ID"] = "attachment-module"
	envs["ATT_CLIENT_SECRET"] = "secret"
	envs["ATT_JWKS_URL"] = "https://keycloak.kryukov.lan/realms/erp/protocol/openid-connect/certs"
	envs["ATT_EDITOR_GROUPS"] = "erp-admins, erp-editors"
	envs["ATT_UPLOAD_ALLOWED_TYPES"] = "image/*, .pdf"
	envs["ATT_UPLOAD_MAX_SIZE"] = "5242880"
	envs["ATT_CACHE_TTL"] = "5m"
	envs["DEPHEALTH_ISENTRY"] = "true"
	envs["ATT_PREVIEW_TTL"] = "2m"
	envs["ATT_CATALOGS_RETRY_INTERVAL"] = "5s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9040 || cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "text" {
		t.Errorf("неожиданные параметры сервера: %d %v %s", cfg.Port, cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.AuthEnabled() {
		t.Error("с ATT_JWKS_URL аутентификация должна быть включена")
	}
	if len(cfg.EditorGroups) != 2 || cfg.EditorGroups[0] != "erp-admins" {
		t.Errorf("EditorGroups = %v", cfg.EditorGroups)
	}
	if len(cfg.UploadAllowedTypes) != 2 || cfg.UploadAllowedTypes[1] != ".pdf" {
		t.Errorf("UploadAllowedTypes = %v", cfg.UploadAllowedTypes)
	}
	if cfg.UploadMaxSize != 5<<20 || cfg.CacheTTL != 5*time.Minute || !cfg.DephealthIsEntry {
		t.Errorf("неожиданные значения: %d %v %v", cfg.UploadMaxSize, cfg.CacheTTL, cfg.DephealthIsEntry)
	}
	if cfg.PreviewTTL != 2*time.Minute || cfg.CatalogsRetryInterval != 5*time.Second {
		t.Errorf("PreviewTTL/CatalogsRetryInterval = %v/%v", cfg.PreviewTTL, cfg.CatalogsRetryInterval)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"нет ATT_API_URL", map[string]string{}, "ATT_API_URL"},
		{"относительный ATT_API_URL", map[string]string{"ATT_API_URL": "/api"}, "ATT_API_URL"},
		{"некорректный порт", map[string]string{"ATT_PORT": "abc"}, "ATT_PORT"},
		{"порт вне диапазона", map[string]string{"ATT_PORT": "70000"}, "ATT_PORT"},
		{"уровень логов", map[string]string{"ATT_LOG_LEVEL": "trace"}, "ATT_LOG_LEVEL"},
		{"формат логов", map[string]string{"ATT_LOG_FORMAT": "xml"}, "ATT_LOG_FORMAT"},
		{"token без секрета", map[string]string{"ATT_TOKEN_URL": "https://idp/token"}, "ATT_CLIENT_ID"},
		{"нулевой max files", map[string]string{"ATT_UPLOAD_MAX_FILES": "0"}, "ATT_UPLOAD_MAX_FILES"},
		{"max size не число", map[string]string{"ATT_UPLOAD_MAX_SIZE": "10MB"}, "ATT_UPLOAD_MAX_SIZE"},
		{"отрицательный TTL", map[string]string{"ATT_CACHE_TTL": "-1s"}, "ATT_CACHE_TTL"},
		{"нулевой таймаут backend", map[string]string{"ATT_API_TIMEOUT": "0s"}, "ATT_API_TIMEOUT"},
		{"нулевой TTL превью", map[string]string{"ATT_PREVIEW_TTL": "0s"}, "ATT_PREVIEW_TTL"},
		{"пауза справочников", map[string]string{"ATT_CATALOGS_RETRY_INTERVAL": "soon"}, "ATT_CATALOGS_RETRY_INTERVAL"},
		{"isentry", map[string]string{"DEPHEALTH_ISENTRY": "yes"}, "DEPHEALTH_ISENTRY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			if tt.name == "нет ATT_API_URL" {
				envs = map[string]string{"ATT_API_URL": ""}
			}
			for k, v := range tt.envs {
				envs[k] = v
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ошибка %q не содержит %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	got := parseCSV(" a, ,b ,c,")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("parseCSV = %v, ожидалось [a b c]", got)
	}
	if parseCSV("") != nil {
		t.Error("parseCSV(\"\") должен вернуть nil")
	}
}
