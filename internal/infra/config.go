package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	HumeBaseURL      string
	HumeVoiceID      string
	DIDBaseURL       string
	SecretsPath      string
	AssetsDir        string
	MaxUploadBytes   int64
	ProviderTimeout  time.Duration
	PollInterval     time.Duration
	PollAttempts     int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Provider credentials are deliberately not part of
// the Config; they are resolved through the credentials store so the secrets
// file keeps priority over the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		HumeBaseURL:      getEnv("HUME_BASE_URL", "https://api.hume.ai"),
		HumeVoiceID:      os.Getenv("HUME_VOICE_ID"),
		DIDBaseURL:       getEnv("DID_BASE_URL", "https://api.d-id.com"),
		SecretsPath:      getEnv("SECRETS_PATH", ".secrets.toml"),
		AssetsDir:        getEnv("ASSETS_DIR", "assets"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		ProviderTimeout:  time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 45)),
		PollInterval:     time.Second * time.Duration(getEnvInt("TALK_POLL_INTERVAL_SECONDS", 3)),
		PollAttempts:     getEnvInt("TALK_POLL_ATTEMPTS", 60),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
