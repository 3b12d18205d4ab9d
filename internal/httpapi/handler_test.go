package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/auth"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

type backend struct {
	access   string
	lastAuth string
	cookie   string
	srv      *httptest.Server
}

func newBackend(t *testing.T, extra http.HandlerFunc) *backend {
	t.Helper()
	b := &backend{access: mintToken(t, time.Hour)}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.lastAuth = r.Header.Get("Authorization")
		b.cookie = r.Header.Get("Cookie")
		switch r.URL.Path {
		case apiclient.LoginPath:
			var req loginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail": "No active account found with the given credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access":  b.access,
				"refresh": "refresh-1",
				"user":    map[string]any{"id": "1", "email": req.Email, "role": "admin", "join_date": "2024-01-01T00:00:00Z"},
			})
		case "/api/users/me/":
			w.Write([]byte(`{"id": 1, "email": "admin@example.com", "role": "admin", "join_date": "2024-01-01T00:00:00Z"}`))
		default:
			if extra != nil {
				extra(w, r)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func newTestHandler(t *testing.T, b *backend, limiter *RateLimiter) http.Handler {
	t.Helper()
	h, err := NewHandler(Options{
		BackendURL:     b.srv.URL,
		Sessions:       NewCookieStore("0123456789abcdef0123456789abcdef", false),
		HTTPClient:     b.srv.Client(),
		AllowedOrigins: []string{"http://localhost:3000"},
		Limiter:        limiter,
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h.Routes()
}

func login(t *testing.T, handler http.Handler, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func withCookies(req *http.Request, resp *httptest.ResponseRecorder) *http.Request {
	for _, c := range resp.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestLoginSetsSessionCookie(t *testing.T) {
	b := newBackend(t, nil)
	handler := newTestHandler(t, b, nil)

	resp := login(t, handler, "secret")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload sessionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Redirect != auth.HomePath || payload.User == nil || payload.User.Email != "admin@example.com" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	cookies := resp.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != sessionName || !cookies[0].HttpOnly {
		t.Fatalf("expected http-only session cookie, got %+v", cookies)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	resp := login(t, handler, "wrong")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid_credentials") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatalf("failed login must not set a session")
	}
}

func TestLoginInvalidJSON(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestSessionRestore(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	loginResp := login(t, handler, "secret")

	req := withCookies(httptest.NewRequest(http.MethodGet, "/auth/session", nil), loginResp)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	anon := httptest.NewRecorder()
	handler.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without a session, got %d", anon.Code)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	loginResp := login(t, handler, "secret")

	req := withCookies(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), loginResp)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), auth.LoginPath) {
		t.Fatalf("unexpected logout response %d %s", resp.Code, resp.Body.String())
	}
	cookies := resp.Result().Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}

func TestReportInvalidType(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/report/audit", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	var payload map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &payload)
	if payload["error"] != "Invalid report type: audit" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestReportRequiresSession(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/report/inventory", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	var payload map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &payload)
	if payload["error"] != "Authentication required" {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestReportProxiesBinary(t *testing.T) {
	var path, query string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="x.pdf"`)
		w.Write([]byte("%PDF-1.4"))
	})
	handler := newTestHandler(t, b, nil)
	loginResp := login(t, handler, "secret")

	req := withCookies(httptest.NewRequest(http.MethodGet, "/report/inventory?format=pdf&days=7", nil), loginResp)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if path != "/api/reports/inventory/" || query != "format=pdf&days=7" {
		t.Fatalf("unexpected upstream request %s?%s", path, query)
	}
	if b.lastAuth != "Bearer "+b.access {
		t.Fatalf("expected bearer from session, got %q", b.lastAuth)
	}
	if resp.Header().Get("Content-Disposition") != `attachment; filename="x.pdf"` || resp.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("expected headers passed through, got %v", resp.Header())
	}
	if resp.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}

func TestReportBackendError(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "json", status: http.StatusBadRequest, body: `{"error": "start_date after end_date"}`, message: "start_date after end_date"},
		{name: "detail", status: http.StatusForbidden, body: `{"detail": "forbidden"}`, message: "forbidden"},
		{name: "text", status: http.StatusBadGateway, body: "gateway down", message: "gateway down"},
		{name: "empty", status: http.StatusInternalServerError, body: "", message: reportErrorFallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			handler := newTestHandler(t, b, nil)
			loginResp := login(t, handler, "secret")

			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, withCookies(httptest.NewRequest(http.MethodGet, "/report/expiry", nil), loginResp))
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
			var payload map[string]string
			_ = json.Unmarshal(resp.Body.Bytes(), &payload)
			if payload["error"] != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, payload["error"])
			}
		})
	}
}

func TestAPIProxyAddsBearer(t *testing.T) {
	var path string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[]`))
	})
	handler := newTestHandler(t, b, nil)
	loginResp := login(t, handler, "secret")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, withCookies(httptest.NewRequest(http.MethodGet, "/api/chemical/", nil), loginResp))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if path != "/api/chemical/" || b.lastAuth != "Bearer "+b.access {
		t.Fatalf("unexpected upstream path=%s auth=%q", path, b.lastAuth)
	}
	if b.cookie != "" {
		t.Fatalf("session cookie must not reach the backend, got %q", b.cookie)
	}
}

func TestAPIProxyKeepsCallerBearer(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	handler := newTestHandler(t, b, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/location/", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if b.lastAuth != "Bearer caller-token" {
		t.Fatalf("expected caller token, got %q", b.lastAuth)
	}
}

func TestLoginRateLimitedPerAccount(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{IPPerMinute: 1000, IPBurst: 1000, AccountPerMinute: 1, AccountBurst: 2})
	handler := newTestHandler(t, newBackend(t, nil), limiter)

	for i := 0; i < 2; i++ {
		if resp := login(t, handler, "wrong"); resp.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, resp.Code)
		}
	}
	if resp := login(t, handler, "wrong"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, newBackend(t, nil), nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestNewHandlerValidates(t *testing.T) {
	if _, err := NewHandler(Options{BackendURL: "not a url", Sessions: NewCookieStore("k", false)}); err == nil {
		t.Fatalf("expected invalid url error")
	}
	if _, err := NewHandler(Options{BackendURL: "http://localhost:8000"}); err == nil {
		t.Fatalf("expected missing session store error")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"bearer abc":    "abc",
		"Basic abc":     "",
		"Bearer a b":    "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("header %q: expected %q, got %q", header, want, got)
		}
	}
}
