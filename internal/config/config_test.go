package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URI", "TELEGRAM_TOKEN", "DELIVERY_CHANNEL", "POLL_INTERVAL", "LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := load(viper.New(), "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.UpcomingHorizon != time.Hour {
		t.Errorf("UpcomingHorizon = %v, want 1h", cfg.UpcomingHorizon)
	}
	if cfg.DeliveryChannel != ChannelLog {
		t.Errorf("DeliveryChannel = %q, want log", cfg.DeliveryChannel)
	}
	if cfg.UsePostgres() {
		t.Error("UsePostgres() = true without DATABASE_URI")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("DATABASE_URI", "postgres://localhost/reminders")

	cfg, err := load(viper.New(), "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.DeliveryChannel != ChannelTelegram {
		t.Errorf("DeliveryChannel = %q, want telegram when a token is set", cfg.DeliveryChannel)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.PollInterval)
	}
	if !cfg.UsePostgres() {
		t.Error("UsePostgres() = false with DATABASE_URI set")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")

	path := filepath.Join(t.TempDir(), "remindcall.yaml")
	if err := os.WriteFile(path, []byte("HTTP_ADDR: \":9999\"\nUPCOMING_HORIZON: 2h\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(viper.New(), path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want :9999", cfg.HTTPAddr)
	}
	if cfg.UpcomingHorizon != 2*time.Hour {
		t.Errorf("UpcomingHorizon = %v, want 2h", cfg.UpcomingHorizon)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		DeliveryChannel: ChannelLog,
		PollInterval:    time.Second,
		DeliveryTimeout: time.Second,
		UpcomingHorizon: time.Hour,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "POLL_INTERVAL"},
		{"negative timeout", func(c *Config) { c.DeliveryTimeout = -time.Second }, "DELIVERY_TIMEOUT"},
		{"telegram without token", func(c *Config) { c.DeliveryChannel = ChannelTelegram }, "TELEGRAM_TOKEN"},
		{"webpush without keys", func(c *Config) { c.DeliveryChannel = ChannelWebPush }, "VAPID"},
		{"unknown channel", func(c *Config) { c.DeliveryChannel = "pigeon" }, "unknown DELIVERY_CHANNEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
