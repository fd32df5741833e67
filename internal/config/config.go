package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/you/pawnduel/internal/game"
)

type Config struct {
	Port           string `yaml:"port"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	RedisURL       string `yaml:"redis_url"`
	KafkaBrokers   string `yaml:"kafka_brokers"`
	KafkaTopic     string `yaml:"kafka_topic"`
	KafkaGroupID   string `yaml:"kafka_group_id"`
	MoveBudget     int    `yaml:"move_budget"`
	OutboxSize     int    `yaml:"outbox_size"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Port:           "8000",
		KafkaTopic:     "game.analytics",
		KafkaGroupID:   "analytics",
		MoveBudget:     game.DefaultMoveBudget,
		OutboxSize:     32,
		WriteTimeoutMS: 2000,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE, then
// environment variables. Empty POSTGRES_DSN, REDIS_URL or KAFKA_BROKERS
// switch that collaborator off.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if path := strings.TrimSpace(getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive integer, got %q", key, v)
		}
		*dst = n
		return nil
	}

	str("PORT", &cfg.Port)
	str("POSTGRES_DSN", &cfg.PostgresDSN)
	str("REDIS_URL", &cfg.RedisURL)
	str("KAFKA_BROKERS", &cfg.KafkaBrokers)
	str("KAFKA_TOPIC", &cfg.KafkaTopic)
	str("KAFKA_GROUP_ID", &cfg.KafkaGroupID)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	for key, dst := range map[string]*int{
		"MOVE_BUDGET":      &cfg.MoveBudget,
		"OUTBOX_SIZE":      &cfg.OutboxSize,
		"WRITE_TIMEOUT_MS": &cfg.WriteTimeoutMS,
	} {
		if err := num(key, dst); err != nil {
			return Config{}, err
		}
	}

	if cfg.MoveBudget <= 0 {
		return Config{}, fmt.Errorf("move_budget must be positive, got %d", cfg.MoveBudget)
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 32
	}
	return cfg, nil
}
