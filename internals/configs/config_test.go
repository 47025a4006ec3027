package configs

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RAILWAY_ENVIRONMENT", "test")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
	t.Setenv("DB_NAME", "academy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.Currency != "GBP" {
		t.Errorf("Currency = %q, want GBP", cfg.Currency)
	}
	if cfg.StatsTTL != 5*time.Minute {
		t.Errorf("StatsTTL = %v, want 5m", cfg.StatsTTL)
	}
	if cfg.WebhookSecret != "whsec" {
		t.Errorf("WebhookSecret = %q", cfg.WebhookSecret)
	}
	if !strings.Contains(cfg.DSN(), "/academy?sslmode=require") {
		t.Errorf("DSN() = %q", cfg.DSN())
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	if got := cfg.Location(); got != time.UTC {
		t.Errorf("Location() = %v, want UTC", got)
	}
}

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("TTNTS_SURELY_UNSET_KEY", "fallback"); got != "fallback" {
		t.Errorf("GetEnv() = %q, want fallback", got)
	}
}
