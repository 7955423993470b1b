// Пакет apiclient — HTTP-клиент ERP backend для работы с вложениями.
// Покрывает REST-контракт /attachments: список, загрузка (multipart),
// обновление, удаление, изменение порядка, справочники и скачивание файлов.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/diazhh/erp-ace-sub003/internal/domain/model"
)

// ErrEmptyBatch — попытка загрузить пустой набор файлов.
var ErrEmptyBatch = errors.New("список файлов для загрузки пуст")

// APIError — ошибка, возвращённая backend. Message — сообщение сервера без изменений.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend вернул статус %d: %s", e.StatusCode, e.Message)
}

// IsNotFound сообщает, что ошибка — 404 от backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client — HTTP-клиент ERP backend.
type Client struct {
	httpClient    *http.Client
	baseURL       *url.URL
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент backend.
// baseURL — базовый URL API (например, http://erp-backend:5000/api).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов.
// tokenProvider — источник SA-токена (может быть nil).
func New(baseURL, caCertPath string, timeout time.Duration, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("разбор URL backend %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("URL backend %q должен быть абсолютным", baseURL)
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
	}
	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient:    &http.Client{Timeout: timeout, Transport: transport},
		baseURL:       parsed,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "api_client")),
	}, nil
}

// HTTPClient возвращает HTTP-клиент (используется TokenSource и health checks).
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL возвращает базовый URL API.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List запрашивает вложения сущности.
// GET /attachments/{entityType}/{entityId}?category=
func (c *Client) List(ctx context.Context, key model.EntityKey, category string) ([]model.Attachment, error) {
	query := url.Values{}
	if category != "" {
		query.Set("category", category)
	}

	var items []model.Attachment
	if err := c.doJSON(ctx, http.MethodGet, entityPath(key), query, nil, &items); err != nil {
		return nil, fmt.Errorf("список вложений %s: %w", key, err)
	}
	return items, nil
}

// Update частично обновляет вложение (category/description).
// PUT /attachments/{id}
func (c *Client) Update(ctx context.Context, id string, req model.UpdateRequest) (*model.Attachment, error) {
	var updated model.Attachment
	if err := c.doJSON(ctx, http.MethodPut, "/attachments/"+url.PathEscape(id), nil, req, &updated); err != nil {
		return nil, fmt.Errorf("обновление вложения %s: %w", id, err)
	}
	return &updated, nil
}

// Delete удаляет вложение. hard — безвозвратное удаление вместо soft delete.
// DELETE /attachments/{id}?hard=
func (c *Client) Delete(ctx context.Context, id string, hard bool) error {
	query := url.Values{"hard": {strconv.FormatBool(hard)}}
	if err := c.doJSON(ctx, http.MethodDelete, "/attachments/"+url.PathEscape(id), query, nil, nil); err != nil {
		return fmt.Errorf("удаление вложения %s: %w", id, err)
	}
	return nil
}

// DeleteForEntity удаляет все вложения сущности.
// DELETE /attachments/{entityType}/{entityId}?hard=
func (c *Client) DeleteForEntity(ctx context.Context, key model.EntityKey, hard bool) error {
	query := url.Values{"hard": {strconv.FormatBool(hard)}}
	if err := c.doJSON(ctx, http.MethodDelete, entityPath(key), query, nil, nil); err != nil {
		return fmt.Errorf("удаление вложений %s: %w", key, err)
	}
	return nil
}

// Reorder передаёт новый порядок вложений.
// PUT /attachments/reorder
func (c *Client) Reorder(ctx context.Context, items []model.ReorderItem) error {
	body := struct {
		Items []model.ReorderItem `json:"items"`
	}{Items: items}
	if err := c.doJSON(ctx, http.MethodPut, "/attachments/reorder", nil, body, nil); err != nil {
		return fmt.Errorf("изменение порядка вложений: %w", err)
	}
	return nil
}

// Stats запрашивает статистику вложений.
// GET /attachments/stats
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/attachments/stats", nil, nil, &stats); err != nil {
		return nil, fmt.Errorf("статистика вложений: %w", err)
	}
	return &stats, nil
}

// Catalogs запрашивает справочники вложений.
// GET /attachments/catalogs
func (c *Client) Catalogs(ctx context.Context) (*model.Catalogs, error) {
	var catalogs model.Catalogs
	if err := c.doJSON(ctx, http.MethodGet, "/attachments/catalogs", nil, nil, &catalogs); err != nil {
		return nil, fmt.Errorf("справочники вложений: %w", err)
	}
	return &catalogs, nil
}

// ResolveURL разрешает fileUrl/thumbnailUrl относительно базового URL API.
// Абсолютные URL возвращаются без изменений.
func (c *Client) ResolveURL(fileURL string) (string, error) {
	ref, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("разбор URL файла %q: %w", fileURL, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	resolved := *c.baseURL
	resolved.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	resolved.RawQuery = ref.RawQuery
	return resolved.String(), nil
}

// Fetch выполняет streaming-загрузку файла по fileUrl/thumbnailUrl.
// Возвращает *http.Response — вызывающий код ОБЯЗАН закрыть resp.Body.
// rangeHeader — значение заголовка Range (пустая строка — без Range).
func (c *Client) Fetch(ctx context.Context, fileURL, rangeHeader string) (*http.Response, error) {
	target, err := c.ResolveURL(fileURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("создание запроса Fetch: %w", err)
	}
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL разрешён относительно базового URL API
	if err != nil {
		return nil, fmt.Errorf("запрос Fetch %s: %w", target, err)
	}
	return resp, nil
}

// doJSON выполняет JSON-запрос к backend и декодирует ответ в out (если out != nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("кодирование тела запроса: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("создание запроса %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

// do выполняет запрос с авторизацией и разбирает ответ.
func (c *Client) do(req *http.Request, out any) error {
	if err := c.authorize(req.Context(), req); err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return fmt.Errorf("запрос %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Ответ backend",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("чтение ответа backend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decodeEnvelope(data, out); err != nil {
		return fmt.Errorf("декодирование ответа backend: %w", err)
	}
	return nil
}

// authorize добавляет Authorization: токен пользователя из контекста
// имеет приоритет над SA-токеном.
func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if token := bearerFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
	if c.tokenProvider == nil {
		return nil
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return fmt.Errorf("получение токена для backend: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// endpoint формирует URL запроса.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	escaped := strings.TrimRight(c.baseURL.EscapedPath(), "/") + path
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		u.Path = unescaped
		u.RawPath = escaped
	} else {
		u.Path = escaped
		u.RawPath = ""
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// entityPath — путь /attachments/{entityType}/{entityId}.
func entityPath(key model.EntityKey) string {
	return "/attachments/" + url.PathEscape(key.EntityType) + "/" + url.PathEscape(key.EntityID)
}

// decodeEnvelope декодирует ответ вида {"success":..,"data":..} или голый JSON.
func decodeEnvelope(data []byte, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if inner, ok := envelope["data"]; ok {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}

// errorMessage извлекает сообщение об ошибке из тела ответа backend.
// Поддерживаются {"message"}, {"error":"..."} и {"error":{"message"}}.
func errorMessage(status int, data []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if len(body.Error) > 0 {
			var s string
			if json.Unmarshal(body.Error, &s) == nil && s != "" {
				return s
			}
			var detail struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(body.Error, &detail) == nil && detail.Message != "" {
				return detail.Message
			}
		}
	}

	if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}
