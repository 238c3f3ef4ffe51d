package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds settings for the realtime server process.
type ServerConfig struct {
	// ListenAddr is the host:port the websocket endpoint binds to.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`

	// PingIntervalSec is how often (in seconds) the gateway pings each
	// connection. A connection missing two consecutive pongs is dropped.
	PingIntervalSec int `mapstructure:"ping_interval_sec" yaml:"ping_interval_sec"`

	// AllowedOrigins restricts websocket handshakes by Origin header.
	// Empty means same-origin only.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// DatabaseConfig holds settings for the backing store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// PingInterval returns the configured ping interval as a duration.
func (c *AppConfig) PingInterval() time.Duration {
	return time.Duration(c.Server.PingIntervalSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/harbor/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "harbor", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			ListenAddr:      "127.0.0.1:8750",
			PingIntervalSec: 30,
		},
		Database: DatabaseConfig{
			Path: "harbor.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.listen_addr", "127.0.0.1:8750")
	v.SetDefault("server.ping_interval_sec", 30)
	v.SetDefault("database.path", "harbor.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.PingIntervalSec <= 0 {
		cfg.Server.PingIntervalSec = 30
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

	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
