package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tourledger/internal/utils"

	"github.com/joho/godotenv"
)

const (
	GatewayModeProduction = "production"
	GatewayModeSandbox    = "sandbox"
	GatewayModeMock       = "mock"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN      string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	JWTSecret   string
	CORSOrigins []string

	// Gateway
	GatewayMode       string
	GatewayTimeout    time.Duration
	MPAccessToken     string
	MPBaseURL         string
	MPWebhookSecret   string
	MPNotificationURL string
	SiteURL           string
}

// LoadEnv reads configuration from the process environment, loading .env first when present.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] .env tidak ditemukan, memakai environment sistem")
	}

	appAddr := getEnv("APP_ADDR", ":8080")

	timeout := 10 * time.Second
	if raw := getEnv("GATEWAY_TIMEOUT", ""); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			timeout = d
		} else {
			log.Printf("[CONFIG] GATEWAY_TIMEOUT tidak valid (%q), memakai %s", raw, timeout)
		}
	}


	return Env{
		AppAddr: appAddr,
		GinMode: getEnv("GIN_MODE", ""),

		DBDSN:      getEnv("DB_DSN", ""),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "127.0.0.1:3306"),
		DBName:     getEnv("DB_NAME", "tourledger"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: utils.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		GatewayMode:       strings.ToLower(getEnv("GATEWAY_MODE", GatewayModeMock)),
		GatewayTimeout:    timeout,
		MPAccessToken:     getEnv("MP_ACCESS_TOKEN", ""),
		MPBaseURL:         getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
		MPWebhookSecret:   getEnv("MP_WEBHOOK_SECRET", ""),
		MPNotificationURL: getEnv("MP_NOTIFICATION_URL", ""),
		SiteURL:           strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/"),
	}
}

// Validate rejects configurations that would silently degrade production behaviour.
func (e Env) Validate() error {
	switch e.GatewayMode {
	case GatewayModeProduction:
		if e.MPAccessToken == "" {
			return fmt.Errorf("MP_ACCESS_TOKEN wajib diisi untuk GATEWAY_MODE=production")
		}
	case GatewayModeSandbox, GatewayModeMock:
	default:
		return fmt.Errorf("GATEWAY_MODE tidak dikenal: %q", e.GatewayMode)
	}
	if e.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET wajib diisi")
	}
	return nil
}

// WebhookURL is where the gateway posts notifications: MP_NOTIFICATION_URL, or SITE_URL's webhook route.
func (e Env) WebhookURL() string {
	if e.MPNotificationURL != "" {
		return e.MPNotificationURL
	}
	return e.SiteURL + "/api/webhooks/mercadopago"
}

func getEnv(key, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
