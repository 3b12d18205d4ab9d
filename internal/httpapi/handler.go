// Package httpapi is the gateway in front of the Chemoventry backend: cookie
// session login, the report download proxy and a pass-through for /api calls.
package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/auth"
	"chemoventry/internal/models"
	"chemoventry/internal/store/rest"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	BackendURL     string
	Sessions       sessions.Store
	HTTPClient     *http.Client
	AllowedOrigins []string
	Limiter        *RateLimiter
}

type Handler struct {
	backend  *url.URL
	sessions sessions.Store
	http     *http.Client
	proxy    *httputil.ReverseProxy
	origins  []string
	limiter  *RateLimiter
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User     *models.User `json:"user,omitempty"`
	Redirect string       `json:"redirect,omitempty"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(opts Options) (*Handler, error) {
	backend, err := url.Parse(strings.TrimRight(opts.BackendURL, "/"))
	if err != nil || backend.Scheme == "" || backend.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BackendURL)
	}
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(RateLimitConfig{})
	}
	h := &Handler{
		backend:  backend,
		sessions: opts.Sessions,
		http:     hc,
		origins:  opts.AllowedOrigins,
		limiter:  limiter,
	}
	h.proxy = h.newProxy()
	return h, nil
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           60 * 15,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", expvar.Handler())

	r.Route("/auth", func(rr chi.Router) {
		rr.With(h.limiter.Middleware).Post("/login", h.handleLogin)
		rr.Post("/logout", h.handleLogout)
		rr.Get("/session", h.handleSession)
	})

	r.Get("/report/{type}", h.handleReport)
	r.Get("/api/report/{type}", h.handleReport)
	r.Handle("/api/*", http.HandlerFunc(h.handleProxy))
	return r
}

// manager wires a session manager to the cookie of this request. The returned
// func reports where the manager navigated, if anywhere.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*auth.Manager, func() string) {
	tokens := newCookieTokens(h.sessions, w, r)
	client := apiclient.New(h.backend.String(), tokens, apiclient.WithHTTPClient(h.http))
	var target string
	nav := auth.NavigatorFunc(func(to string) { target = to })
	return auth.NewManager(client, rest.New(client), nav), func() string { return target }
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	m, navigated := h.manager(w, r)
	user, err := m.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "missing_credentials", err.Error())
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "login_failed", auth.ErrLoginFailed.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: &user, Redirect: navigated()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	m, navigated := h.manager(w, r)
	if err := m.Logout(r.Context()); err != nil {
		log.Printf("gateway logout err=%v", err)
	}
	writeJSON(w, http.StatusOK, sessionResponse{Redirect: navigated()})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	m, _ := h.manager(w, r)
	user, err := m.Restore(r.Context())
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not authenticated")
		return
	case err != nil:
		writeError(w, http.StatusUnauthorized, "session_expired", "session expired, log in again")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: &user})
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
