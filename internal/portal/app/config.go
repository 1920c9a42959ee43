package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	PublicURL string // Required: externally reachable base URL for verification links

	StoreDriver  string // Store driver (postgrest, sqlite) (default: postgrest)
	BackendURL   string // Managed backend project URL (postgrest driver)
	ServiceKey   string // Backend service key (postgrest driver + function mailer)
	DatabaseFile string // SQLite database file (sqlite driver) (default: ./portal.db)

	AuthURL   string // Auth provider URL (default: BackendURL)
	AnonKey   string // Auth provider anon key
	JWTSecret string // Auth provider HS256 signing secret

	MailerDriver string // Mailer driver (function, queue) (default: function)
	AMQPURL      string // Broker URL (queue driver)
	EmailQueue   string // Queue name (default: portal.emails)

	SessionCookie string // Session cookie name (default: sb-access-token)
	LoginPath     string // Redirect target for unauthenticated callers (default: /login)
	ManagePath    string // Redirect target for non-admins on admin paths (default: /manage)

	VerificationTTL time.Duration // Verification link lifetime (default: 24h)
	TokenValidity   time.Duration // Minted token lifetime (default: 8760h, one year)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		PublicURL: os.Getenv("PORTAL_PUBLIC_URL"),

		StoreDriver:  getEnvOrDefault("PORTAL_STORE_DRIVER", "postgrest"),
		BackendURL:   os.Getenv("PORTAL_BACKEND_URL"),
		ServiceKey:   os.Getenv("PORTAL_SERVICE_KEY"),
		DatabaseFile: getEnvOrDefault("PORTAL_DATABASE_FILE", "portal.db"),

		AuthURL:   os.Getenv("PORTAL_AUTH_URL"),
		AnonKey:   os.Getenv("PORTAL_ANON_KEY"),
		JWTSecret: os.Getenv("PORTAL_JWT_SECRET"),

		MailerDriver: getEnvOrDefault("PORTAL_MAILER_DRIVER", "function"),
		AMQPURL:      os.Getenv("PORTAL_AMQP_URL"),
		EmailQueue:   os.Getenv("PORTAL_EMAIL_QUEUE"),

		SessionCookie: os.Getenv("PORTAL_SESSION_COOKIE"),
		LoginPath:     os.Getenv("PORTAL_LOGIN_PATH"),
		ManagePath:    os.Getenv("PORTAL_MANAGE_PATH"),

		VerificationTTL: getEnvDurationOrDefault("PORTAL_VERIFICATION_TTL", 24*time.Hour),
		TokenValidity:   getEnvDurationOrDefault("PORTAL_TOKEN_VALIDITY", 365*24*time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// The auth provider normally lives on the same project as the backend.
	if cfg.AuthURL == "" {
		cfg.AuthURL = cfg.BackendURL
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

// MailerConfig configures the standalone delivery worker (cmd/mailer).
type MailerConfig struct {
	AMQPURL    string // Required: broker URL
	EmailQueue string // Queue name (default: portal.emails)

	SMTPHost     string // Required: SMTP relay host
	SMTPPort     int    // SMTP relay port (default: 587)
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string // Sender address on outgoing mail

	Env       string
	LogLevel  string
	LogFormat string
}

func LoadMailerConfig() MailerConfig {
	return MailerConfig{
		AMQPURL:    os.Getenv("PORTAL_AMQP_URL"),
		EmailQueue: os.Getenv("PORTAL_EMAIL_QUEUE"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "SFIN Portal <noreply@localhost>"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
