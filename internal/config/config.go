package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Delivery channels.
const (
	ChannelTelegram = "telegram"
	ChannelWebPush  = "webpush"
	ChannelLog      = "log"
)

type Config struct {
	DatabaseURI string
	SQLitePath  string
	HTTPAddr    string

	TelegramToken   string
	DeliveryChannel string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string

	PollInterval    time.Duration
	DeliveryTimeout time.Duration
	UpcomingHorizon time.Duration

	LogLevel string
	DevMode  bool
}

// Load reads an optional .env file, an optional YAML file named by
// REMINDCALL_CONFIG, and then the environment, which wins over both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}
	return load(viper.New(), os.Getenv("REMINDCALL_CONFIG"))
}

func load(v *viper.Viper, file string) (*Config, error) {
	v.SetDefault("DATABASE_URI", "")
	v.SetDefault("SQLITE_PATH", "remindcall.db")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("AI_BASE_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("AI_MODEL", "openai/gpt-4o-mini")
	v.SetDefault("VAPID_SUBSCRIBER", "reminders@example.com")
	v.SetDefault("POLL_INTERVAL", 30*time.Second)
	v.SetDefault("DELIVERY_TIMEOUT", 45*time.Second)
	v.SetDefault("UPCOMING_HORIZON", time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEV_MODE", false)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", file, err)
			}
		}
	}

	cfg := &Config{
		DatabaseURI:     v.GetString("DATABASE_URI"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		TelegramToken:   v.GetString("TELEGRAM_TOKEN"),
		DeliveryChannel: strings.ToLower(v.GetString("DELIVERY_CHANNEL")),
		VAPIDPublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
		VAPIDSubscriber: v.GetString("VAPID_SUBSCRIBER"),
		AIAPIKey:        v.GetString("AI_API_KEY"),
		AIBaseURL:       v.GetString("AI_BASE_URL"),
		AIModel:         v.GetString("AI_MODEL"),
		PollInterval:    v.GetDuration("POLL_INTERVAL"),
		DeliveryTimeout: v.GetDuration("DELIVERY_TIMEOUT"),
		UpcomingHorizon: v.GetDuration("UPCOMING_HORIZON"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		DevMode:         v.GetBool("DEV_MODE"),
	}

	if cfg.DeliveryChannel == "" {
		cfg.DeliveryChannel = ChannelLog
		if cfg.TelegramToken != "" {
			cfg.DeliveryChannel = ChannelTelegram
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive, got %s", c.DeliveryTimeout)
	}
	if c.UpcomingHorizon <= 0 {
		return fmt.Errorf("UPCOMING_HORIZON must be positive, got %s", c.UpcomingHorizon)
	}

	switch c.DeliveryChannel {
	case ChannelLog:
	case ChannelTelegram:
		if c.TelegramToken == "" {
			return errors.New("TELEGRAM_TOKEN is required for telegram delivery")
		}
	case ChannelWebPush:
		if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
			return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required for webpush delivery")
		}
	default:
		return fmt.Errorf("unknown DELIVERY_CHANNEL %q", c.DeliveryChannel)
	}
	return nil
}

// UsePostgres reports whether a Postgres DSN was configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURI != ""
}
