// Package apiclient is the single dispatch point for calls to the Chemoventry backend.
//
// It attaches the current access token, and when a call fails with 401 it refreshes
// the token pair and replays the call exactly once. Concurrent 401s share one refresh.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"chemoventry/internal/tokenstore"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	LoginPath   = "/api/users/token/"
	RefreshPath = "/api/users/token/refresh/"

	defaultTimeout = 30 * time.Second
)

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Blob marks binary downloads; their failures are never intercepted.
	Blob   bool
	Accept string

	retried bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  tokenstore.Store
	tracer  trace.Tracer
	group   singleflight.Group

	mu           sync.RWMutex
	onSessionEnd []func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			// Copy so a client passed to WithHTTPClient keeps its own timeout.
			clone := *c.http
			clone.Timeout = d
			c.http = &clone
		}
	}
}

// WithSessionEndHook registers fn to run when a refresh fails and the tokens are dropped.
func WithSessionEndHook(fn func()) Option {
	return func(c *Client) {
		if fn != nil {
			c.onSessionEnd = append(c.onSessionEnd, fn)
		}
	}
}

func New(baseURL string, tokens tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		tracer: otel.Tracer("chemoventry/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Tokens() tokenstore.Store {
	return c.tokens
}

// OnSessionEnd adds a hook fired after an irrecoverable refresh failure.
func (c *Client) OnSessionEnd(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.onSessionEnd = append(c.onSessionEnd, fn)
	c.mu.Unlock()
}

func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
	}

	resp, err := c.send(ctx, req, body, c.accessToken())
	if err == nil {
		return resp, nil
	}
	return c.intercept(ctx, req, body, err)
}

// JSON sends in as the request body and decodes the answer into out. Either may be nil.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.Do(ctx, Request{Method: method, Path: path, Query: query, Body: in})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) intercept(ctx context.Context, req Request, body []byte, err error) (*Response, error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil, err
	}
	if isAuthEndpoint(req.Path) || req.Blob || req.retried {
		return nil, err
	}

	switch apiErr.Status {
	case http.StatusUnauthorized:
		tokens, ok := c.tokens.Get()
		if !ok || tokens.Refresh == "" {
			return nil, err
		}
		access, refreshErr := c.Refresh(ctx)
		if refreshErr != nil {
			return nil, refreshErr
		}
		req.retried = true
		return c.send(ctx, req, body, access)
	case http.StatusForbidden:
		log.Printf("api forbidden method=%s path=%s", req.Method, req.Path)
		return nil, err
	default:
		return nil, err
	}
}

// Refresh mints a new token pair from the stored refresh token and returns the new
// access token. Callers racing on an expired session share a single refresh call.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	value, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "apiclient.refresh")
	defer span.End()

	tokens, ok := c.tokens.Get()
	if !ok || tokens.Refresh == "" {
		c.endSession()
		span.SetStatus(codes.Error, ErrNoRefreshToken.Error())
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, ErrNoRefreshToken)
	}

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	err := c.post(ctx, RefreshPath, map[string]string{"refresh": tokens.Refresh}, &pair)
	if err == nil && pair.Access == "" {
		err = errors.New("refresh response without access token")
	}
	if err == nil {
		next := pair.Refresh
		if next == "" {
			next = tokens.Refresh
		}
		err = c.tokens.Set(pair.Access, next)
	}
	if err != nil {
		log.Printf("api refresh failed err=%v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		if clearErr := c.tokens.Clear(); clearErr != nil {
			log.Printf("api clear tokens err=%v", clearErr)
		}
		c.endSession()
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return pair.Access, nil
}

// post is an uninterceptable call used by the refresh itself.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := encodeBody(in)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: path}, body, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request, body []byte, token string) (*Response, error) {
	target := c.baseURL + ensureSlash(req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			Method:  req.Method,
			Path:    req.Path,
			Status:  resp.StatusCode,
			Header:  resp.Header.Clone(),
			Body:    data,
			Message: MessageFromBody(data, resp.StatusCode),
		}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}

func (c *Client) accessToken() string {
	tokens, ok := c.tokens.Get()
	if !ok {
		return ""
	}
	return tokens.Access
}

func (c *Client) endSession() {
	c.mu.RLock()
	hooks := append([]func(){}, c.onSessionEnd...)
	c.mu.RUnlock()
	for _, hook := range hooks {
		hook()
	}
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/token/")
}

func ensureSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
