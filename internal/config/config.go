package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultAPIURL  = "http://localhost:8000"
	defaultStoreID = "qrcode-storage"
)

type Config struct {
	Environment string `yaml:"environment"`
	APIURL      string `yaml:"api_url"`
	Port        string `yaml:"port"`

	SessionSecret  string   `yaml:"session_secret"`
	CookieSecure   bool     `yaml:"cookie_secure"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	TokenFile      string `yaml:"token_file"`
	LabelFile      string `yaml:"label_file"`
	LabelStoreName string `yaml:"label_store_name"`
	DatabaseURL    string `yaml:"database_url"`

	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	SyncInterval time.Duration `yaml:"sync_interval"`

	RateLimitPerMinute        int `yaml:"rate_limit_per_min"`
	RateLimitBurst            int `yaml:"rate_limit_burst"`
	AccountRateLimitPerMinute int `yaml:"account_rate_limit_per_min"`
	AccountRateLimitBurst     int `yaml:"account_rate_limit_burst"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	_ = godotenv.Load(".env")

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	stateDir := filepath.Join(home, ".chemoventry")

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = os.Getenv("BACKEND_URL")
	}

	cfg := Config{
		Environment:    readString("CHEMOVENTRY_ENV", EnvDevelopment),
		APIURL:         NormalizeURL(apiURL),
		Port:           readString("PORT", "3000"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		CookieSecure:   readBool("COOKIE_SECURE", false),
		AllowedOrigins: readList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TokenFile:      readString("TOKEN_FILE", filepath.Join(stateDir, "session.json")),
		LabelFile:      readString("LABEL_FILE", filepath.Join(stateDir, defaultStoreID+".json")),
		LabelStoreName: readString("LABEL_STORE_NAME", defaultStoreID),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		HTTPTimeout:    readDuration("HTTP_TIMEOUT", 30*time.Second),
		SyncInterval:   readDuration("LABEL_SYNC_INTERVAL", 5*time.Minute),

		RateLimitPerMinute:        readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:            readInt("RATE_LIMIT_BURST", 30),
		AccountRateLimitPerMinute: readInt("ACCOUNT_RATE_LIMIT_PER_MIN", 10),
		AccountRateLimitBurst:     readInt("ACCOUNT_RATE_LIMIT_BURST", 5),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure: readBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}
	return cfg
}

// LoadFile overlays the YAML file at path on top of Load. A missing file is an error.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.APIURL = NormalizeURL(cfg.APIURL)
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvProduction)
}

// NormalizeURL applies the default backend address and strips trailing slashes.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = defaultAPIURL
	}
	return strings.TrimRight(raw, "/")
}

func readString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func readList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func readDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
