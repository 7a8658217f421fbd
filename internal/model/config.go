package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Backend drivers understood by the store package.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// BackendConfig selects and configures the persistence backend.
type BackendConfig struct {
	// Driver is either "sqlite" (local demo database) or "postgres"
	// (the hosted backend with a realtime change feed).
	Driver string `mapstructure:"driver" yaml:"driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`

	// DSN is the Postgres connection string. When empty it is looked up
	// in the environment and then in the system keyring.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// AlertConfig controls alert polling and the audible notification cadence.
type AlertConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// NotifyThreshold is the lowest level that raises the emergency
	// overlay and audible cue.
	NotifyThreshold string `mapstructure:"notify_threshold" yaml:"notify_threshold"`

	WarningIntervalMs   int  `mapstructure:"warning_interval_ms" yaml:"warning_interval_ms"`
	EmergencyIntervalMs int  `mapstructure:"emergency_interval_ms" yaml:"emergency_interval_ms"`
	LeadInMs            int  `mapstructure:"lead_in_ms" yaml:"lead_in_ms"`
	Sound               bool `mapstructure:"sound" yaml:"sound"`
}

// ChatConfig holds private chat settings.
type ChatConfig struct {
	// DedupCapacity bounds the recently-seen message id set.
	DedupCapacity int `mapstructure:"dedup_capacity" yaml:"dedup_capacity"`

	// PollIntervalSec is the message catch-up interval used when the
	// backend has no push feed.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// SessionConfig remembers the logged-in viewer between runs.
type SessionConfig struct {
	ViewerID string `mapstructure:"viewer_id" yaml:"viewer_id"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Alert   AlertConfig   `mapstructure:"alert" yaml:"alert"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// AlertPollInterval returns the alert poll interval as a duration.
func (c AlertConfig) AlertPollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// MessagePollInterval returns the message catch-up interval.
func (c ChatConfig) MessagePollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// CueIntervals returns the warning and emergency cue intervals and the
// lead-in delay before the first cue.
func (c AlertConfig) CueIntervals() (warning, emergency, leadIn time.Duration) {
	return time.Duration(c.WarningIntervalMs) * time.Millisecond,
		time.Duration(c.EmergencyIntervalMs) * time.Millisecond,
		time.Duration(c.LeadInMs) * time.Millisecond
}

// Threshold parses NotifyThreshold, falling back to LevelWarning.
func (c AlertConfig) Threshold() Level {
	lvl, err := ParseLevel(c.NotifyThreshold)
	if err != nil || lvl == LevelNormal {
		return LevelWarning
	}
	return lvl
}

// ConfigDir returns ~/.config/vulcania, or "." when the home directory
// cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "vulcania")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/vulcania/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			Driver:     DriverSQLite,
			SQLitePath: filepath.Join(ConfigDir(), "vulcania.db"),
		},
		Alert: AlertConfig{
			PollIntervalSec:     5,
			NotifyThreshold:     LevelWarning.String(),
			WarningIntervalMs:   4000,
			EmergencyIntervalMs: 3000,
			LeadInMs:            1000,
			Sound:               true,
		},
		Chat: ChatConfig{
			DedupCapacity:   256,
			PollIntervalSec: 3,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "vulcania.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.driver", defaults.Backend.Driver)
	v.SetDefault("backend.sqlite_path", defaults.Backend.SQLitePath)
	v.SetDefault("alert.poll_interval_sec", defaults.Alert.PollIntervalSec)
	v.SetDefault("alert.notify_threshold", defaults.Alert.NotifyThreshold)
	v.SetDefault("alert.warning_interval_ms", defaults.Alert.WarningIntervalMs)
	v.SetDefault("alert.emergency_interval_ms", defaults.Alert.EmergencyIntervalMs)
	v.SetDefault("alert.lead_in_ms", defaults.Alert.LeadInMs)
	v.SetDefault("alert.sound", defaults.Alert.Sound)
	v.SetDefault("chat.dedup_capacity", defaults.Chat.DedupCapacity)
	v.SetDefault("chat.poll_interval_sec", defaults.Chat.PollIntervalSec)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Alert.PollIntervalSec <= 0 {
		cfg.Alert.PollIntervalSec = defaults.Alert.PollIntervalSec
	}
	if cfg.Chat.DedupCapacity <= 0 {
		cfg.Chat.DedupCapacity = defaults.Chat.DedupCapacity
	}
	switch cfg.Backend.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("parsing config %s: unknown backend driver %q", path, cfg.Backend.Driver)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("alert", cfg.Alert)
	v.Set("chat", cfg.Chat)
	v.Set("session", cfg.Session)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
