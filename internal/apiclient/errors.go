package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrSessionExpired = errors.New("session expired")
	ErrNoRefreshToken = errors.New("no refresh token available")
)

const maxMessageLen = 512

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Header  http.Header
	Body    []byte
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageFromBody picks the most readable message out of an error body: a JSON
// object's error/detail/message field, else the raw text, else the status text.
func MessageFromBody(body []byte, status int) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err == nil {
			if msg := messageField(obj); msg != "" {
				return msg
			}
		} else if trimmed[0] != '{' && trimmed[0] != '[' && utf8.Valid(trimmed) {
			return truncate(string(trimmed))
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func messageField(obj map[string]any) string {
	for _, key := range []string{"error", "detail", "message"} {
		switch value := obj[key].(type) {
		case string:
			if strings.TrimSpace(value) != "" {
				return truncate(value)
			}
		case map[string]any:
			if msg, ok := value["message"].(string); ok && msg != "" {
				return truncate(msg)
			}
		}
	}
	return ""
}

func truncate(value string) string {
	if len(value) <= maxMessageLen {
		return value
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
