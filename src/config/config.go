package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port     string
	LogLevel string

	// Remote catalog/backend API (brands, models, years, quotes, orders).
	CatalogAPIBaseURL string
	CatalogTimeout    time.Duration
	CatalogCacheTTL   time.Duration

	// Wizard behaviour.
	SessionTTL       time.Duration
	StepVerifyDelay  time.Duration
	QuoteRevealDelay time.Duration

	// Price presentation.
	PriceFloor      float64
	CardPriceMarkup float64

	AllowedOrigins []string

	// Order notification email.
	EmailServiceProvider string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SenderEmail    string
	SenderName     string
	OpsNotifyEmail string
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	catalogBaseURL := getEnv("CATALOG_API_BASE_URL", "https://flask-excel-production.up.railway.app/api")
	if catalogBaseURL == "" {
		log.Fatalf("FATAL: CATALOG_API_BASE_URL must not be empty.")
	}

	priceFloor := getEnvAsFloat("PRICE_FLOOR", 8760)
	if priceFloor < 0 {
		log.Printf("WARNING: Negative PRICE_FLOOR %f, using 0.", priceFloor)
		priceFloor = 0
	}

	cardMarkup := getEnvAsFloat("CARD_PRICE_MARKUP", 1.3)
	if cardMarkup < 1 {
		log.Printf("WARNING: CARD_PRICE_MARKUP %f is below 1, card prices would undercut transfer prices. Using default 1.3.", cardMarkup)
		cardMarkup = 1.3
	}

	allowedOriginsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	allowedOrigins := []string{}
	for _, origin := range strings.Split(allowedOriginsStr, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	Cfg = &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CatalogAPIBaseURL: strings.TrimRight(catalogBaseURL, "/"),
		CatalogTimeout:    getEnvAsDuration("CATALOG_TIMEOUT", 20*time.Second),
		CatalogCacheTTL:   getEnvAsDuration("CATALOG_CACHE_TTL", 15*time.Minute),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		// UX pacing only; the original flow paused here to suggest a
		// verification step that is never actually performed.
		StepVerifyDelay:  getEnvAsDuration("STEP_VERIFY_DELAY", 1500*time.Millisecond),
		QuoteRevealDelay: getEnvAsDuration("QUOTE_REVEAL_DELAY", 2*time.Second),

		PriceFloor:      priceFloor,
		CardPriceMarkup: cardMarkup,

		AllowedOrigins: allowedOrigins,

		EmailServiceProvider: getEnv("EMAIL_SERVICE_PROVIDER", "mock"),

		SMTPServer:   getEnv("SMTP_SERVER", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),

		SenderEmail:    getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:     getEnv("SENDER_NAME", "SigortaApp"),
		OpsNotifyEmail: getEnv("OPS_NOTIFY_EMAIL", ""),
	}

	if Cfg.EmailServiceProvider == "mailgun" {
		if Cfg.MailgunDomain == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
		if Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_PRIVATE_API_KEY is required when EMAIL_SERVICE_PROVIDER is 'mailgun', but it's not set in environment or .env file.")
		}
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, CatalogAPIBaseURL=%s, EmailProvider=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.CatalogAPIBaseURL, Cfg.EmailServiceProvider)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %f", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
