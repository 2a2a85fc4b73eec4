package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const placeholderJWTSecret = "bagswap-dev-secret-change-me"

// Config holds application configuration values.
type Config struct {
	AppPort string
	AppURL  string
	AppEnv  string

	DatabaseURL        string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	JWTSecret    string
	TokenExpires time.Duration

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	EscrowEnabled        bool
	PaymentCurrency      string

	AdminAPIKey     string
	AdminAPIKeyHash string

	TelegramBotToken  string
	TelegramAdminChat string

	MongoURI      string
	MongoDatabase string

	LogLevel string
}

// Load reads environment variables and returns a populated Config.
// Missing integrations are reported through Status rather than failing startup.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),

		JWTSecret:    getEnv("AUTH_JWT_SECRET", placeholderJWTSecret),
		TokenExpires: getEnvDuration("AUTH_TOKEN_TTL_HOURS", 24) * time.Hour,

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PaymentCurrency:      strings.ToLower(getEnv("PAYMENT_CURRENCY", "inr")),

		AdminAPIKey:     getEnv("ADMIN_API_KEY", ""),
		AdminAPIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),

		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChat: getEnv("TELEGRAM_ADMIN_CHAT_ID", ""),

		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "bagswap"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	cfg.EscrowEnabled = getEnvBool("ESCROW_ENABLED", cfg.StripeSecretKey != "")
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	return cfg
}

// Status summarizes which integrations are usable.
type Status struct {
	DatabaseConfigured bool     `json:"databaseConfigured"`
	StripeConfigured   bool     `json:"stripeConfigured"`
	AdminConfigured    bool     `json:"adminConfigured"`
	EscrowEnabled      bool     `json:"escrowEnabled"`
	PlaceholderSecret  bool     `json:"placeholderSecret"`
	Issues             []string `json:"issues"`
}

// Status reports missing or placeholder configuration without failing.
func (c *Config) Status() Status {
	st := Status{
		DatabaseConfigured: c.DatabaseURL != "",
		StripeConfigured:   c.StripeSecretKey != "" && !isPlaceholder(c.StripeSecretKey),
		AdminConfigured:    c.AdminAPIKey != "" || c.AdminAPIKeyHash != "",
		EscrowEnabled:      c.EscrowEnabled,
		PlaceholderSecret:  c.JWTSecret == placeholderJWTSecret,
		Issues:             []string{},
	}

	if !st.DatabaseConfigured {
		st.Issues = append(st.Issues, "DATABASE_URL is not set; using the in-memory demo store")
	}
	if c.EscrowEnabled && !st.StripeConfigured {
		st.Issues = append(st.Issues, "ESCROW_ENABLED is true but STRIPE_SECRET_KEY is missing or a placeholder")
	}
	if !st.AdminConfigured {
		st.Issues = append(st.Issues, "ADMIN_API_KEY is not set; admin routes are disabled")
	}
	if st.PlaceholderSecret {
		st.Issues = append(st.Issues, "AUTH_JWT_SECRET is a placeholder value")
	}
	if c.EscrowEnabled && c.StripeWebhookSecret == "" {
		st.Issues = append(st.Issues, "STRIPE_WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	return st
}

// Valid reports whether the configuration has no blocking issue for production use.
func (s Status) Valid() bool {
	return s.DatabaseConfigured && (!s.EscrowEnabled || s.StripeConfigured)
}

func isPlaceholder(v string) bool {
	v = strings.ToLower(v)
	return strings.Contains(v, "placeholder") || strings.Contains(v, "your-")
}

// MaskSecret returns a short prefix of a secret for diagnostics.
func MaskSecret(v string, keep int) string {
	if v == "" {
		return ""
	}
	if len(v) <= keep {
		return strings.Repeat("*", len(v))
	}
	return v[:keep] + "..."
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
