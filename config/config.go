package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all postpad configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	User    UserConfig    `yaml:"user"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr" validate:"required"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig selects where posts are kept.
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"oneof=badger sqlite memory"`
	// Path is the database location; empty picks the driver default.
	Path string `yaml:"path"`
	Key  string `yaml:"key" validate:"required"`
}

// UserConfig identifies the acting user.
type UserConfig struct {
	ID            string `yaml:"id" validate:"required"`
	CommentAuthor string `yaml:"comment_author" validate:"required"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

const (
	defaultBadgerPath = "data/badger"
	defaultSQLitePath = "data/postpad.db"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Driver: "badger",
			Key:    "blogPosts",
		},
		User: UserConfig{
			ID:            "me",
			CommentAuthor: "Anonymous",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile exports the variables of a .env file into the process
// environment without overriding variables already set. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"POSTPAD_ADDR", &c.Server.Addr},
		{"POSTPAD_STORAGE_DRIVER", &c.Storage.Driver},
		{"POSTPAD_STORAGE_PATH", &c.Storage.Path},
		{"POSTPAD_STORAGE_KEY", &c.Storage.Key},
		{"POSTPAD_USER_ID", &c.User.ID},
		{"POSTPAD_COMMENT_AUTHOR", &c.User.CommentAuthor},
		{"POSTPAD_LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
	if v := os.Getenv("POSTPAD_LOG_DEVELOPMENT"); v == "1" || strings.EqualFold(v, "true") {
		c.Logging.Development = true
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.ShutdownTimeout() <= 0 {
		return fmt.Errorf("invalid config: bad shutdown_timeout %q", c.Server.ShutdownTimeout)
	}
	return nil
}

// ShutdownTimeout returns how long serve waits for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0
	}
	return d
}

// StoragePath returns the configured path or the driver's default.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	switch c.Storage.Driver {
	case "sqlite":
		return defaultSQLitePath
	case "memory":
		return ""
	default:
		return defaultBadgerPath
	}
}
