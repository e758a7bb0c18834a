package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix         = "agora"
	ConfigFileEnvVar  = "AGORA_CONFIG_FILE"
	DriverPostgres    = "postgres"
	DriverSQLite      = "sqlite"
	DriverMemory      = "memory"
	defaultSQLitePath = "agora.db"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName        string        `yaml:"serviceName"        split_words:"true"`
	HTTPPort           string        `yaml:"httpPort"           envconfig:"HTTP_PORT"`
	DatabaseDriver     string        `yaml:"databaseDriver"     split_words:"true"`
	DatabaseDSN        string        `yaml:"databaseDsn"        envconfig:"DATABASE_DSN"`
	KafkaBrokers       []string      `yaml:"kafkaBrokers"       split_words:"true"`
	BootstrapAdmins    []string      `yaml:"bootstrapAdmins"    split_words:"true"`
	AuthorizedCallers  []string      `yaml:"authorizedCallers"  split_words:"true"`
	MinVotingWindow    time.Duration `yaml:"minVotingWindow"    split_words:"true"`
	OutboxBatchSize    int           `yaml:"outboxBatchSize"    split_words:"true"`
	RelayInterval      time.Duration `yaml:"relayInterval"      split_words:"true"`
	PermissionCacheTTL time.Duration `yaml:"permissionCacheTtl" envconfig:"PERMISSION_CACHE_TTL"`
	MetricsEnabled     bool          `yaml:"metricsEnabled"     split_words:"true"`
	Debug              bool          `yaml:"debug"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		ServiceName:        "agora",
		HTTPPort:           "8080",
		DatabaseDriver:     DriverMemory,
		KafkaBrokers:       []string{"localhost:9092"},
		MinVotingWindow:    time.Hour,
		OutboxBatchSize:    100,
		RelayInterval:      2 * time.Second,
		PermissionCacheTTL: 5 * time.Minute,
		MetricsEnabled:     true,
	}
}

// Load overlays an optional YAML file and then AGORA_* environment variables
// onto Defaults. An empty configFile falls back to AGORA_CONFIG_FILE.
func Load(configFile string) (Config, error) {
	cfg := Defaults()

	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnvVar)
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}

	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.BootstrapAdmins = compact(cfg.BootstrapAdmins)
	cfg.AuthorizedCallers = compact(cfg.AuthorizedCallers)
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			c.DatabaseDSN = defaultSQLitePath
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return errors.New("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.MinVotingWindow <= 0 {
		return errors.New("min voting window must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("outbox batch size must be positive")
	}
	if c.RelayInterval <= 0 {
		return errors.New("relay interval must be positive")
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
