package httpapi

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"chemoventry/internal/apiclient"
	"chemoventry/internal/reports"

	"github.com/go-chi/chi/v5"
)

const reportErrorFallback = "Error generating report"

// handleReport forwards a report download to the backend with the session's
// bearer token. Errors use a flat {"error": message} body.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	kindParam := chi.URLParam(r, "type")
	kind, err := reports.ParseKind(kindParam)
	if err != nil {
		writeFlatError(w, http.StatusBadRequest, fmt.Sprintf("Invalid report type: %s", kindParam))
		return
	}

	token := newCookieTokens(h.sessions, w, r).accessToken()
	if token == "" {
		writeFlatError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	target := *h.backend
	target.Path = h.backend.Path + reports.Path(kind)
	target.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeFlatError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	log.Printf("report proxy kind=%s target=%s", kind, target.Path)
	resp, err := h.http.Do(req)
	if err != nil {
		log.Printf("report proxy failed kind=%s err=%v", kind, err)
		writeFlatError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	defer resp.Body.Close()
	reportsTotal.Add(1)

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		message := reportErrorFallback
		if len(body) > 0 {
			message = apiclient.MessageFromBody(body, resp.StatusCode)
		}
		writeFlatError(w, resp.StatusCode, message)
		return
	}

	for _, header := range []string{"Content-Type", "Content-Disposition", "Content-Length"} {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Printf("report proxy copy kind=%s err=%v", kind, err)
	}
}

func writeFlatError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
