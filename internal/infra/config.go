package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	AppBaseURL  string

	AdminAPIKey string
	IPHashSalt  string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBaseURL       string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	ResendAPIKey  string
	ResendBaseURL string
	EmailFrom     string

	GeoIPDBPath    string
	DefaultLocale  string
	AllowedOrigins []string

	ChatRateLimit  int
	ChatRateWindow time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	BurstLimitPerMin int

	DBMaxConns int32
	DBMinConns int32
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppBaseURL:  getEnv("APP_BASE_URL", "https://greenshillings.org"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
		IPHashSalt:  getEnv("IP_HASH_SALT", "greenshillings-salt"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeBaseURL:       getEnv("STRIPE_BASE_URL", "https://api.stripe.com/v1"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendBaseURL: getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:     getEnv("CONTACT_FROM_EMAIL", "GreenShillings <hello@greenshillings.org>"),

		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "https://greenshillings.org,http://localhost:3000")),

		ChatRateLimit:  getEnvInt("CHAT_RATE_LIMIT", 3),
		ChatRateWindow: time.Hour * time.Duration(getEnvInt("CHAT_RATE_WINDOW_HOURS", 24)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		BurstLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns: int32(getEnvInt("DB_MIN_CONNS", 1)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ChatRateLimit <= 0 {
		return nil, fmt.Errorf("CHAT_RATE_LIMIT must be positive")
	}

	return cfg, nil
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
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
