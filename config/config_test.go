package config

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() succeeded without JWT_SECRET")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("POCKETBASE_URL", "")
	t.Setenv("NOTIFICATION_WINDOW", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("TOKEN_TTL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %v, want :8080", cfg.ServerAddr)
	}
	if cfg.PocketBaseURL != "http://127.0.0.1:8090" {
		t.Errorf("PocketBaseURL = %v, want default", cfg.PocketBaseURL)
	}
	if cfg.NotificationWindow != 50 {
		t.Errorf("NotificationWindow = %d, want 50", cfg.NotificationWindow)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
}

func TestLoadConfigOverridesAndBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("NOTIFICATION_WINDOW", "25")
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ServerAddr != ":9000" {
		t.Errorf("ServerAddr = %v, want :9000", cfg.ServerAddr)
	}
	if cfg.NotificationWindow != 25 {
		t.Errorf("NotificationWindow = %d, want 25", cfg.NotificationWindow)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want fallback 5s on bad value", cfg.PollInterval)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL)
	}
}
