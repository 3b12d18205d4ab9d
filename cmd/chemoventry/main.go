package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chemoventry/internal/config"
	"chemoventry/internal/httpapi"
	"chemoventry/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := config.Load()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	shutdownTelemetry := telemetry.Setup("chemoventry", cfg.OTLPEndpoint, cfg.OTLPInsecure)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	if cfg.IsProduction() && cfg.SessionSecret == "" {
		log.Fatalf("SESSION_SECRET is required in production")
	}
	sessions := httpapi.NewCookieStore(cfg.SessionSecret, cfg.CookieSecure)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:      cfg.RateLimitPerMinute,
		IPBurst:          cfg.RateLimitBurst,
		AccountPerMinute: cfg.AccountRateLimitPerMinute,
		AccountBurst:     cfg.AccountRateLimitBurst,
	})

	handler, err := httpapi.NewHandler(httpapi.Options{
		BackendURL:     cfg.APIURL,
		Sessions:       sessions,
		HTTPClient:     &http.Client{Timeout: cfg.HTTPTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
	})
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(handler.Routes()), "chemoventry")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("chemoventry listening on %s backend=%s env=%s", server.Addr, cfg.APIURL, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
