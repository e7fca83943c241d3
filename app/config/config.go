package config

import (
	"os"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	DB          PostgresConfig
	Anthropic   AnthropicConfig
	Supabase    SupabaseConfig
	Stripe      StripeConfig
	Storage     StorageConfig
	OpsQueueURL string
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	// Pro subscribers get the higher-accuracy model, free users the
	// faster/cheaper one.
	ModelPro  string
	ModelFree string
	Timeout   time.Duration
}

type SupabaseConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

type StripeConfig struct {
	SecretKey         string
	WebhookSecret     string
	PriceIDProMonthly string
	FrontendURL       string
}

type StorageConfig struct {
	Bucket        string
	Region        string
	BaseEndpoint  string
	PublicBaseURL string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		OpsQueueURL: os.Getenv("OPS_QUEUE_URL"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     os.Getenv("POSTGRES_PORT"),
		},
		Anthropic: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL:   getenvDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			ModelPro:  getenvDefault("ANTHROPIC_MODEL_PRO", "claude-sonnet-4-20250514"),
			ModelFree: getenvDefault("ANTHROPIC_MODEL_FREE", "claude-3-5-haiku-20241022"),
			Timeout:   60 * time.Second,
		},
		Supabase: SupabaseConfig{
			Issuer:   os.Getenv("SUPABASE_ISSUER"),
			Audience: getenvDefault("SUPABASE_AUDIENCE", "authenticated"),
			JWKSURL:  os.Getenv("SUPABASE_JWKS_URL"),
		},
		Stripe: StripeConfig{
			SecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDProMonthly: os.Getenv("STRIPE_PRICE_ID_PRO_MONTHLY"),
			FrontendURL:       os.Getenv("FRONTEND_URL"),
		},
		Storage: StorageConfig{
			Bucket:        getenvDefault("PHOTOS_BUCKET", "plant-photos"),
			Region:        os.Getenv("PHOTOS_REGION"),
			BaseEndpoint:  os.Getenv("PHOTOS_S3_ENDPOINT"),
			PublicBaseURL: os.Getenv("PHOTOS_PUBLIC_BASE_URL"),
		},
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
