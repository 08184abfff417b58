package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `cashbook init`.
const FileName = "cashbook.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Event drivers. Driver may list several, comma-separated.
const (
	EventsNone  = "none"
	EventsAMQP  = "amqp"
	EventsKafka = "kafka"
)

// Config represents the top-level cashbook.yaml configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Ledger LedgerConfig `yaml:"ledger"`
	Events EventsConfig `yaml:"events"`
	Log    LogConfig    `yaml:"log"`
	Audit  AuditConfig  `yaml:"audit"`
	Import ImportConfig `yaml:"import"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"` // sqlite file, relative to the config file
}

// LedgerConfig tunes the engine.
type LedgerConfig struct {
	RestoreBalanceOnReverse bool `yaml:"restore_balance_on_reverse"`
	MaxRetries              int  `yaml:"max_retries"`
}

// EventsConfig controls where committed changes are published.
type EventsConfig struct {
	Driver   string   `yaml:"driver"`
	URL      string   `yaml:"url,omitempty"`
	Exchange string   `yaml:"exchange,omitempty"`
	Queue    string   `yaml:"queue,omitempty"`
	Brokers  []string `yaml:"brokers,omitempty"`
	Topic    string   `yaml:"topic,omitempty"`
}

// Drivers returns the configured event drivers, excluding "none".
func (c EventsConfig) Drivers() []string {
	var out []string
	for _, d := range strings.Split(c.Driver, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && d != EventsNone {
			out = append(out, d)
		}
	}
	return out
}

// LogConfig controls the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuditConfig controls the CSV audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ImportConfig locates the bulk import directory.
type ImportConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads a cashbook.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "data/cashbook.db",
		},
		Ledger: LedgerConfig{
			RestoreBalanceOnReverse: true,
			MaxRetries:              3,
		},
		Events: EventsConfig{
			Driver:   EventsNone,
			Exchange: "cashbook",
			Queue:    "ledger_events",
			Topic:    "cashbook.ledger",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Audit: AuditConfig{
			Enabled: true,
			Path:    "logs/audit.csv",
		},
		Import: ImportConfig{
			Dir: "import",
		},
	}
}

// ResolvePaths makes relative file paths relative to baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	for _, p := range []*string{&c.Store.Path, &c.Audit.Path, &c.Import.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(baseDir, *p)
		}
	}
}

// ApplyEnv overrides fields from CASHBOOK_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var problems []string

	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s=%q: not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	setString("CASHBOOK_STORE_DRIVER", &c.Store.Driver)
	setString("CASHBOOK_STORE_PATH", &c.Store.Path)
	setBool("CASHBOOK_RESTORE_ON_REVERSE", &c.Ledger.RestoreBalanceOnReverse)
	if v := getenv("CASHBOOK_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("CASHBOOK_MAX_RETRIES=%q: not a number", v))
		} else {
			c.Ledger.MaxRetries = n
		}
	}
	setString("CASHBOOK_EVENTS_DRIVER", &c.Events.Driver)
	setString("CASHBOOK_AMQP_URL", &c.Events.URL)
	setString("CASHBOOK_AMQP_EXCHANGE", &c.Events.Exchange)
	setString("CASHBOOK_AMQP_QUEUE", &c.Events.Queue)
	if v := getenv("CASHBOOK_KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Events.Brokers = append(c.Events.Brokers, b)
			}
		}
	}
	setString("CASHBOOK_KAFKA_TOPIC", &c.Events.Topic)
	setString("CASHBOOK_LOG_LEVEL", &c.Log.Level)
	setString("CASHBOOK_LOG_FORMAT", &c.Log.Format)
	setBool("CASHBOOK_AUDIT_ENABLED", &c.Audit.Enabled)
	setString("CASHBOOK_AUDIT_PATH", &c.Audit.Path)
	setString("CASHBOOK_IMPORT_DIR", &c.Import.Dir)

	if len(problems) > 0 {
		return fmt.Errorf("environment overrides: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			problems = append(problems, "store.path cannot be empty when using the sqlite driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid store.driver %q: must be one of [memory sqlite]", c.Store.Driver))
	}

	if c.Ledger.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ledger.max_retries %d must not be negative", c.Ledger.MaxRetries))
	}

	for _, d := range c.Events.Drivers() {
		switch d {
		case EventsAMQP:
			if parsed, err := url.Parse(c.Events.URL); err != nil || c.Events.URL == "" {
				problems = append(problems, fmt.Sprintf("invalid events.url %q for amqp", c.Events.URL))
			} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
				problems = append(problems, fmt.Sprintf("invalid events.url scheme %q: must be 'amqp' or 'amqps'", parsed.Scheme))
			}
			if c.Events.Exchange == "" || c.Events.Queue == "" {
				problems = append(problems, "events.exchange and events.queue are required for amqp")
			}
		case EventsKafka:
			if len(c.Events.Brokers) == 0 {
				problems = append(problems, "events.brokers is required for kafka")
			}
			if c.Events.Topic == "" {
				problems = append(problems, "events.topic is required for kafka")
			}
		default:
			problems = append(problems, fmt.Sprintf("invalid events.driver %q: must be none, amqp, or kafka", d))
		}
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		problems = append(problems, "audit.path cannot be empty when audit is enabled")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
