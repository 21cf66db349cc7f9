package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BadgerDBPath     string `mapstructure:"BADGERDB_PATH"`
	// RedisURL selects the shared preview store. Empty keeps previews in memory.
	RedisURL string `mapstructure:"REDIS_URL"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	InstagramToken    string `mapstructure:"INSTAGRAM_TOKEN"`
	InstagramEndpoint string `mapstructure:"INSTAGRAM_GRAPH_ENDPOINT"`
	MicrolinkEndpoint string `mapstructure:"MICROLINK_ENDPOINT"`
	// BrowserEnabled adds the headless browser fetcher after Microlink in the fallback tier.
	BrowserEnabled bool `mapstructure:"BROWSER_ENABLED"`

	FetchTimeout     time.Duration `mapstructure:"FETCH_TIMEOUT"`
	RefetchTimeout   time.Duration `mapstructure:"REFETCH_TIMEOUT"`
	StaleAfter       time.Duration `mapstructure:"STALE_AFTER"`
	DispatchDebounce time.Duration `mapstructure:"DISPATCH_DEBOUNCE"`
	RetryDelay       time.Duration `mapstructure:"RETRY_DELAY"`
	GCInterval       time.Duration `mapstructure:"BADGER_GC_INTERVAL"`
	SessionCacheSize int           `mapstructure:"SESSION_CACHE_SIZE"`
}

var defaults = map[string]any{
	"BADGERDB_PATH":            "./badger_data",
	"REDIS_URL":                "",
	"LOG_LEVEL":                "info",
	"INSTAGRAM_TOKEN":          "",
	"INSTAGRAM_GRAPH_ENDPOINT": "https://graph.facebook.com/v19.0/instagram_oembed",
	"MICROLINK_ENDPOINT":       "https://api.microlink.io",
	"BROWSER_ENABLED":          false,
	"FETCH_TIMEOUT":            "10s",
	"REFETCH_TIMEOUT":          "15s",
	"STALE_AFTER":              "168h",
	"DISPATCH_DEBOUNCE":        "200ms",
	"RETRY_DELAY":              "2s",
	"BADGER_GC_INTERVAL":       "10m",
	"SESSION_CACHE_SIZE":       1000,
}

// LoadConfig reads configuration from path/config.yaml and the environment.
// Environment variables take precedence; a missing config file is not an error.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if c.BadgerDBPath == "" {
		return fmt.Errorf("BADGERDB_PATH must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for name, d := range map[string]time.Duration{
		"FETCH_TIMEOUT":      c.FetchTimeout,
		"REFETCH_TIMEOUT":    c.RefetchTimeout,
		"STALE_AFTER":        c.StaleAfter,
		"BADGER_GC_INTERVAL": c.GCInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.SessionCacheSize)
	}
	return nil
}

// Level parses LOG_LEVEL into a logrus level.
func (c Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}
