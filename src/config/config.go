package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	PlaidClientID      string
	PlaidSecret        string
	PlaidEnv           string
	PlaidWebhookURL    string
	PlaidWebhookVerify bool

	LLMAPIURL   string
	LLMAPIToken string

	IsDemo bool

	// TestAuthBypass injects a fixed user on every request. Explicit opt-in
	// for local testing only; never inferred from the environment name.
	TestAuthBypass bool
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:               getEnv("PORT", "8000"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		PlaidClientID:      getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:        getEnv("PLAID_SECRET", ""),
		PlaidEnv:           getEnv("PLAID_ENV", "sandbox"),
		PlaidWebhookURL:    getEnv("PLAID_WEBHOOK_URL", ""),
		PlaidWebhookVerify: getEnv("PLAID_WEBHOOK_VERIFY", "false") == "true",
		LLMAPIURL:          getEnv("LLM_API_URL", ""),
		LLMAPIToken:        getEnv("LLM_API_TOKEN", ""),
		IsDemo:             getEnv("DEMO_MODE", "false") == "true",
		TestAuthBypass:     getEnv("TEST_AUTH_BYPASS", "false") == "true",
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
