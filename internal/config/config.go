package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/leshachaplin/capirelay/internal/conversions"
	"github.com/leshachaplin/capirelay/internal/storage/delivery/clickhouse"
	"github.com/leshachaplin/capirelay/internal/worker"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/capirelay/internal/worker/redpanda/producer"
)

const (
	PathEnv        = "CAPIRELAY_CONFIG"
	PixelIDEnv     = "PIXEL_ID"
	AccessTokenEnv = "ACCESS_TOKEN"

	defaultPath = "config.yaml"
	defaultAddr = ":8080"
)

// Config is the main config for the application
type Config struct {
	LogLevel      string             `yaml:"log_level"`
	Addr          string             `yaml:"addr"`
	Conversions   conversions.Config `yaml:"conversions"`
	Clickhouse    clickhouse.Config  `yaml:"clickhouse"`
	EventWorker   worker.Config      `yaml:"event_worker"`
	EventProducer producer.Config    `yaml:"event_producer"`
	EventConsumer consumer.Config    `yaml:"event_consumer"`
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		LogLevel: "INFO",
		Addr:     defaultAddr,
		Conversions: conversions.Config{
			BaseURL:    conversions.DefaultBaseURL,
			APIVersion: conversions.DefaultAPIVersion,
		},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(PixelIDEnv); ok {
		cfg.Conversions.PixelID = v
	}
	if v, ok := os.LookupEnv(AccessTokenEnv); ok {
		cfg.Conversions.AccessToken = v
	}
	return cfg, nil
}

// FromEnv loads the file named by CAPIRELAY_CONFIG, or config.yaml.
func FromEnv() (Config, error) {
	path, ok := os.LookupEnv(PathEnv)
	if !ok || path == "" {
		path = defaultPath
	}
	return Load(path)
}

// UseBrokers reports whether conversions are queued through Redpanda.
func (c Config) UseBrokers() bool {
	return len(c.EventProducer.Brokers) > 0 && len(c.EventConsumer.Brokers) > 0
}

// ZeroLevel parses LogLevel case-insensitively. Empty or unknown levels mean info.
func (c Config) ZeroLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
