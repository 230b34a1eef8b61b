// Package config loads kansync settings from
// $XDG_CONFIG_HOME/kansync/config.yaml with environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thenoetrevino/kansync/internal/config/colors"
	"github.com/thenoetrevino/kansync/internal/models"
)

// Config represents the application configuration
type Config struct {
	SocketPath   string `yaml:"socket_path"`
	DatabasePath string `yaml:"database_path"`
	LogPath      string `yaml:"log_path"`
	LogLevel     string `yaml:"log_level"`
	// IDStrategy picks the card id generator: monotonic or clock
	IDStrategy string `yaml:"id_strategy"`

	Client   ClientConfig   `yaml:"client"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Seed is the board shown before anything is stored
	Seed models.Board `yaml:"seed"`

	KeyMappings KeyMappings        `yaml:"key_mappings"`
	ColorScheme colors.ColorScheme `yaml:"theme"`
}

// ClientConfig tunes the UI side of the socket
type ClientConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	DialRetries  int           `yaml:"dial_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
}

// DaemonConfig tunes the host process
type DaemonConfig struct {
	// StatusAddr is the HTTP status listener, e.g. 127.0.0.1:7420. Empty disables it.
	StatusAddr   string        `yaml:"status_addr"`
	PingInterval time.Duration `yaml:"ping_interval"`
	StaleAfter   time.Duration `yaml:"stale_after"`
}

// SnapshotConfig holds export targets
type SnapshotConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config points at an S3-compatible bucket (AWS, MinIO)
type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
	Key          string `yaml:"key"`
}

// DefaultSeed is the board a fresh install starts with
func DefaultSeed() models.Board {
	return models.Board{Columns: []models.Column{
		{ID: 0, Title: "Backlog", Cards: []models.Card{
			{ID: 0, Title: "Add a kanban board", Description: models.StringPtr("Render it in the terminal.")},
		}},
		{ID: 1, Title: "In Progress"},
	}}
}

// Default returns a config with every field at its default
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// loadThemeFile loads and merges theme from KANSYNC_THEME_FILE environment variable
func loadThemeFile(config *Config) {
	themeFile := os.Getenv("KANSYNC_THEME_FILE")
	if themeFile == "" {
		return
	}

	themeData, err := os.ReadFile(themeFile)
	if err != nil {
		return
	}

	var themeConfig struct {
		Theme colors.ColorScheme `yaml:"theme"`
	}

	if yaml.Unmarshal(themeData, &themeConfig) == nil {
		config.ColorScheme.MergeFrom(themeConfig.Theme)
	}
}

// applyEnv lets the environment override file values
func applyEnv(config *Config) {
	if v := os.Getenv("KANSYNC_SOCKET"); v != "" {
		config.SocketPath = v
	}
	if v := os.Getenv("KANSYNC_DB"); v != "" {
		config.DatabasePath = v
	}
	if v := os.Getenv("KANSYNC_CLIENT_QUEUE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.Client.QueueSize = n
		}
	}
}

// Load loads config from the user's config directory
// Returns default config if file doesn't exist
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		// Return default config if we can't determine config path
		return finish(&Config{}), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads config from path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return finish(&Config{}), nil
	}
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return finish(&config), nil
}

func finish(config *Config) *Config {
	loadThemeFile(config)
	applyEnv(config)
	// Fill in any missing values with defaults
	config.applyDefaults()
	return config
}

// Save saves the config to the user's config directory
func (c *Config) Save() error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	// Try XDG_CONFIG_HOME first
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "kansync", "config.yaml"), nil
	}

	// Fall back to ~/.config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".config", "kansync", "config.yaml"), nil
}

// dataDir is ~/.kansync, or a relative .kansync when there is no home
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kansync"
	}
	return filepath.Join(home, ".kansync")
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	dir := dataDir()
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(dir, "kansync.sock")
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(dir, "board.db")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(dir, "logs", "kansync.log")
	}
	if c.LogLevel == "" {
		c.LogLevel = "debug"
	}
	if c.IDStrategy == "" {
		c.IDStrategy = "monotonic"
	}

	if c.Client.QueueSize <= 0 {
		c.Client.QueueSize = 256
	}
	if c.Client.AckTimeout <= 0 {
		c.Client.AckTimeout = 5 * time.Second
	}
	if c.Client.WriteTimeout <= 0 {
		c.Client.WriteTimeout = 5 * time.Second
	}
	if c.Client.DialRetries <= 0 {
		c.Client.DialRetries = 3
	}
	if c.Client.BaseDelay <= 0 {
		c.Client.BaseDelay = 200 * time.Millisecond
	}

	if c.Daemon.PingInterval <= 0 {
		c.Daemon.PingInterval = 30 * time.Second
	}
	if c.Daemon.StaleAfter <= 0 {
		c.Daemon.StaleAfter = 90 * time.Second
	}

	if c.Snapshot.S3.Region == "" {
		c.Snapshot.S3.Region = "us-east-1"
	}
	if c.Snapshot.S3.Key == "" {
		c.Snapshot.S3.Key = "board.json"
	}

	if len(c.Seed.Columns) == 0 {
		c.Seed = DefaultSeed()
	}

	c.KeyMappings.applyDefaults()
	c.ColorScheme.ApplyDefaults()
}
