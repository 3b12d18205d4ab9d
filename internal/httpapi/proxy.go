package httpapi

import (
	"log"
	"net/http"
	"net/http/httputil"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func (h *Handler) newProxy() *httputil.ReverseProxy {
	transport := h.http.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(h.backend)
			pr.SetXForwarded()
			pr.Out.Host = h.backend.Host
			pr.Out.Header.Del("Cookie")
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("api proxy failed method=%s path=%s err=%v", r.Method, r.URL.Path, err)
			writeError(w, http.StatusBadGateway, "backend_unavailable", "backend unavailable")
		},
	}
}

// handleProxy forwards /api calls unchanged, adding the session's bearer token
// when the caller did not send its own.
func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	if bearerToken(r.Header.Get("Authorization")) == "" {
		if token := newCookieTokens(h.sessions, w, r).accessToken(); token != "" {
			r = r.Clone(r.Context())
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
	proxiedTotal.Add(1)
	h.proxy.ServeHTTP(w, r)
}
