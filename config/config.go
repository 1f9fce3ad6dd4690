package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds every tunable the marketplace reads at runtime. Product
// policy numbers (fee percent, trust threshold, confirmation deadline,
// payout hold) live here instead of as literals in the business code.
type Settings struct {
	PlatformFeePercent int64 `envconfig:"PLATFORM_FEE_PERCENT" default:"15"`
	TrustThreshold     int   `envconfig:"TRUST_THRESHOLD" default:"5"`
	AutoConfirmHours   int   `envconfig:"AUTO_CONFIRM_HOURS" default:"72"`
	PayoutHoldDays     int   `envconfig:"PAYOUT_HOLD_DAYS" default:"7"`

	CronSecret string `envconfig:"CRON_SECRET"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"BeMyMentor <no-reply@bemymentor.app>"`
}

var C Settings

// Load reads .env in development and populates C from the environment.
func Load() {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	if err := envconfig.Process("", &C); err != nil {
		log.Panic("error loading settings: " + err.Error())
	}
}
