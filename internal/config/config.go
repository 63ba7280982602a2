// Package config loads hmp configuration from the data directory and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the full hmp configuration.
type Config struct {
	// DataDir holds the local database, photo cache, session file, and logs.
	DataDir string `mapstructure:"data_dir"`

	// Remote is the shared database endpoint.
	Remote RemoteConfig `mapstructure:"remote"`

	// Storage is the blob store for photos and PDFs.
	Storage StorageConfig `mapstructure:"storage"`

	// Sync tunes the push scheduler.
	Sync SyncConfig `mapstructure:"sync"`

	// Dashboard configures the WebSocket status server.
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// RemoteConfig holds the shared database endpoint.
type RemoteConfig struct {
	// URL is the libsql:// endpoint (or file: path for local testing).
	URL string `mapstructure:"url"`

	// AuthToken authenticates against the hosted endpoint.
	AuthToken string `mapstructure:"auth_token"`
}

// StorageConfig holds the blob store settings.
type StorageConfig struct {
	// Bucket is the cloud storage bucket name.
	Bucket string `mapstructure:"bucket"`

	// CredentialsFile is an optional service account key path. Empty means
	// ambient credentials.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// SyncConfig tunes the push scheduler.
type SyncConfig struct {
	// Debounce is the quiet interval before a category's save fires.
	Debounce time.Duration `mapstructure:"debounce"`
}

// DashboardConfig configures the status server.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DefaultDataDir returns ~/.hmp, or ./.hmp when the home directory cannot be
// resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hmp"
	}
	return filepath.Join(home, ".hmp")
}

// Load reads config.yaml from dataDir, applying defaults and HMP_*
// environment overrides. A missing config file is not an error; defaults
// apply.
func Load(dataDir string) (*Config, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)

	v.SetEnvPrefix("HMP")
	v.AutomaticEnv()

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.auth_token", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")
	v.SetDefault("sync.debounce", 2*time.Second)
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", 8719)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return &cfg, nil
}

// DatabasePath returns the local database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "local.db")
}

// PhotoCacheDir returns the photo cache directory.
func (c *Config) PhotoCacheDir() string {
	return filepath.Join(c.DataDir, "photos")
}

// SessionPath returns the session file path.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.json")
}

// LogPath returns the rotating log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "hmp.log")
}

// EnsureDataDir creates the data directory tree.
func (c *Config) EnsureDataDir() error {
	for _, dir := range []string{c.DataDir, c.PhotoCacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
