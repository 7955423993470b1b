package server

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/diazhh/erp-ace-sub003/internal/api/generated"
	"github.com/diazhh/erp-ace-sub003/internal/api/handlers"
	"github.com/diazhh/erp-ace-sub003/internal/api/middleware"
	"github.com/diazhh/erp-ace-sub003/internal/apiclient"
	"github.com/diazhh/erp-ace-sub003/internal/service"
)

const testKeyID = "test-key-server"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestRouter собирает router поверх mock ERP backend.
// backendAuth получает заголовок Authorization запросов к backend.
func newTestRouter(t *testing.T, key *rsa.PrivateKey, backendAuth *[]string) http.Handler {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*backendAuth = append(*backendAuth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/attachments/catalogs":
			_, _ = w.Write([]byte(`{"success":true,"data":{"categories":["PHOTO"],"maxFiles":3}}`))
		case "/api/attachments/stats":
			_, _ = w.Write([]byte(`{"success":true,"data":{"totalFiles":1}}`))
		default:
			_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
		}
	}))
	t.Cleanup(backend.Close)

	logger := testLogger()
	client, err := apiclient.New(backend.URL+"/api", "", 5*time.Second, nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	store := service.NewAttachmentStore(client, 10, 0, logger)
	catalog := service.NewCatalogService(client, service.DefaultUploadPolicy(), 0, logger)
	attachments := handlers.NewAttachmentHandler(store, catalog, service.NewDownloadService(store, client, logger), nil, logger)
	health := handlers.NewHealthHandler(handlers.NewBackendReadinessChecker(client), nil, time.Second)

	var jwtAuth *middleware.JWTAuth
	if key != nil {
		kf, err := keyfunc.NewJWKSetJSON(jwksJSON(&key.PublicKey))
		if err != nil {
			t.Fatal(err)
		}
		jwtAuth = middleware.NewJWTAuthWithKeyfunc(kf, "", []string{"erp-editors"}, []string{"erp-viewers"}, logger)
	}
	doc, err := generated.GetSwagger()
	if err != nil {
		t.Fatal(err)
	}
	validator, err := middleware.NewRequestValidator(doc, logger)
	if err != nil {
		t.Fatalf("спецификация не прошла проверку: %v", err)
	}
	return NewRouter(logger, handlers.NewAPIHandler(health, attachments, logger), jwtAuth, validator)
}

func jwksJSON(pub *rsa.PublicKey) json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA", "kid": testKeyID, "use": "sig", "alg": "RS256",
			"n": base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e": base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
	return data
}

func userToken(t *testing.T, key *rsa.PrivateKey, group string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":    "user-1",
		"groups": []string{group},
		"exp":    jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if method == http.MethodPut {
		body = strings.NewReader(`{"items":[{"id":"1","order":0}]}`)
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_WithoutAuth(t *testing.T) {
	var auth []string
	router := newTestRouter(t, nil, &auth)

	if rec := serve(router, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("/health/live: %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("/health/ready: %d, тело %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("/metrics: %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/v1/attachments/catalogs", ""); rec.Code != http.StatusOK {
		t.Errorf("catalogs: %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/api/v1/entities/inventory_item/7/attachments", ""); rec.Code != http.StatusOK {
		t.Errorf("список: %d, тело %s", rec.Code, rec.Body.String())
	}
	if rec := serve(router, http.MethodGet, "/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("неизвестный путь: %d", rec.Code)
	}
}

func TestRouter_WithAuth(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	var auth []string
	router := newTestRouter(t, key, &auth)

	viewer := userToken(t, key, "erp-viewers")
	editor := userToken(t, key, "erp-editors")

	tests := []struct {
		name   string
		method string
		target string
		token  string
		want   int
	}{
		{"health без токена", http.MethodGet, "/health/live", "", http.StatusOK},
		{"metrics без токена", http.MethodGet, "/metrics", "", http.StatusOK},
		{"catalogs без токена", http.MethodGet, "/api/v1/attachments/catalogs", "", http.StatusUnauthorized},
		{"catalogs viewer", http.MethodGet, "/api/v1/attachments/catalogs", viewer, http.StatusOK},
		{"reorder viewer", http.MethodPut, "/api/v1/attachments/reorder", viewer, http.StatusForbidden},
		{"reorder editor", http.MethodPut, "/api/v1/attachments/reorder", editor, http.StatusNoContent},
		{"bulk delete viewer", http.MethodDelete, "/api/v1/entities/inventory_item/7/attachments", viewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := serve(router, tt.method, tt.target, tt.token); rec.Code != tt.want {
				t.Errorf("статус %d, ожидался %d, тело %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Токен пользователя передаётся backend вместо SA-токена
	found := false
	for _, h := range auth {
		if h == "Bearer "+editor {
			found = true
		}
	}
	if !found {
		t.Errorf("токен editor не передан backend: %v", auth)
	}
}

func TestRouter_ParameterValidation(t *testing.T) {
	var auth []string
	router := newTestRouter(t, nil, &auth)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"неизвестный layout", http.MethodGet, "/api/v1/entities/inventory_item/7/attachments?layout=tiles", http.StatusBadRequest},
		{"неизвестный variant", http.MethodGet, "/api/v1/entities/inventory_item/7/attachments?variant=modal", http.StatusBadRequest},
		{"допустимые layout и variant", http.MethodGet, "/api/v1/entities/inventory_item/7/attachments?layout=list&variant=tabbed", http.StatusOK},
		{"hard не булев", http.MethodDelete, "/api/v1/attachments/1?hard=maybe", http.StatusBadRequest},
		{"thumbnail не булев", http.MethodGet, "/api/v1/attachments/1/download?thumbnail=yes-please", http.StatusBadRequest},
		{"id превью не UUID", http.MethodGet, "/api/v1/previews/not-a-uuid", http.StatusBadRequest},
		{"неизвестное превью", http.MethodGet, "/api/v1/previews/6f1c1c4e-7c55-4c8e-9a55-1b2f9d1f0a11", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, "")
			if rec.Code != tt.want {
				t.Fatalf("статус %d, ожидался %d, тело %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusBadRequest && !strings.Contains(rec.Body.String(), "VALIDATION_ERROR") {
				t.Errorf("ожидался код VALIDATION_ERROR, тело %s", rec.Body.String())
			}
		})
	}
}

func TestRouter_PreviewsRequireAuth(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	var auth []string
	router := newTestRouter(t, key, &auth)

	const target = "/api/v1/previews/6f1c1c4e-7c55-4c8e-9a55-1b2f9d1f0a11"
	if rec := serve(router, http.MethodGet, target, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("без токена: %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, target, userToken(t, key, "erp-viewers")); rec.Code != http.StatusForbidden {
		t.Errorf("освобождение viewer: %d", rec.Code)
	}
	if rec := serve(router, http.MethodDelete, target, userToken(t, key, "erp-editors")); rec.Code != http.StatusNotFound {
		t.Errorf("освобождение editor: %d", rec.Code)
	}
}
