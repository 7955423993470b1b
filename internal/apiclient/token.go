// token.go — SA-токен для авторизации запросов к ERP backend.
// Получается через client_credentials grant и кэшируется до exp - 30s.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenProvider — функция, возвращающая bearer-токен для запросов к backend.
type TokenProvider func(ctx context.Context) (string, error)

// tokenInfo — закэшированный SA-токен с временем истечения.
type tokenInfo struct {
	accessToken string
	expiresAt   time.Time
}

// TokenSource — источник SA-токенов (client_credentials) с кэшем.
type TokenSource struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string //nolint:gosec // G101: поле структуры, не содержит секрет напрямую
	logger       *slog.Logger

	// Кэш SA-токена (thread-safe)
	mu    sync.RWMutex
	token *tokenInfo
}

// NewTokenSource создаёт источник токенов.
// tokenURL — token endpoint IdP (например, https://keycloak/realms/erp/protocol/openid-connect/token).
func NewTokenSource(httpClient *http.Client, tokenURL, clientID, clientSecret string, logger *slog.Logger) *TokenSource {
	return &TokenSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger.With(slog.String("component", "token_source")),
	}
}

// Token возвращает SA-токен. Если закэшированный токен ещё валиден — возвращает его,
// иначе запрашивает новый.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token != nil && time.Now().Before(s.token.expiresAt) {
		token := s.token.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check после получения write lock
	if s.token != nil && time.Now().Before(s.token.expiresAt) {
		return s.token.accessToken, nil
	}

	return s.requestToken(ctx)
}

// requestToken запрашивает новый SA-токен. Вызывается под write lock.
func (s *TokenSource) requestToken(ctx context.Context) (string, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("создание запроса token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return "", fmt.Errorf("запрос token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token endpoint вернул статус %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		Token     string `json:"access_token"` //nolint:gosec // G117: JSON-маппинг OAuth2 ответа
		ExpiresIn int    `json:"expires_in"`
		TokenType string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("декодирование token response: %w", err)
	}

	if tokenResp.Token == "" {
		return "", fmt.Errorf("пустой access_token в ответе token endpoint")
	}

	// Кэшируем токен (с запасом 30 секунд до истечения)
	s.token = &tokenInfo{
		accessToken: tokenResp.Token,
		expiresAt:   time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - 30*time.Second),
	}

	s.logger.Debug("SA-токен получен",
		slog.Int("expires_in", tokenResp.ExpiresIn),
	)

	return tokenResp.Token, nil
}

// bearerKey — ключ контекста для токена пользователя.
type bearerKey struct{}

// WithBearer возвращает контекст с токеном пользователя, который будет
// передан backend вместо SA-токена.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// bearerFromContext извлекает токен пользователя из контекста.
func bearerFromContext(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}
