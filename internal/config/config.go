// ABOUTME: Configuration management with storage backend and remote selection
// ABOUTME: JSON config under XDG_CONFIG_HOME with DAYBOOK_ environment overrides

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/harper/daybook/internal/charm"
	"github.com/harper/daybook/internal/remote"
	"github.com/harper/daybook/internal/storage"
)

// Remote holds Charm sync settings.
type Remote struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host,omitempty" mapstructure:"host"`
	DBName   string `json:"db_name,omitempty" mapstructure:"db_name"`
	AutoSync bool   `json:"auto_sync" mapstructure:"auto_sync"`
}

// Config stores daybook configuration.
type Config struct {
	// Backend selects the local cache: "diskv" (default) or "sqlite".
	Backend string `json:"backend,omitempty" mapstructure:"backend"`

	// DataDir is the root directory for the local cache.
	// Supports ~ expansion. Defaults to ~/.local/share/daybook.
	DataDir string `json:"data_dir,omitempty" mapstructure:"data_dir"`

	// WindowSize is the number of visible days.
	WindowSize int `json:"window_size,omitempty" mapstructure:"window_size"`

	Remote Remote `json:"remote" mapstructure:"remote"`
}

// GetBackend returns the configured backend, defaulting to "diskv".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendDiskv
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetWindowSize returns the visible day count, defaulting to 7.
func (c *Config) GetWindowSize() int {
	if c.WindowSize <= 0 {
		return DefaultWindowSize
	}
	return c.WindowSize
}

// GetDBName returns the charm database name, defaulting to "daybook".
func (c *Config) GetDBName() string {
	if strings.TrimSpace(c.Remote.DBName) == "" {
		return charm.DBName
	}
	return c.Remote.DBName
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// OpenStorage creates the local KV for the configured backend.
func (c *Config) OpenStorage() (storage.KV, error) {
	dataDir := c.GetDataDir()

	switch c.GetBackend() {
	case BackendDiskv:
		return storage.NewDiskvKV(filepath.Join(dataDir, CacheDirName))
	case BackendSQLite:
		return storage.NewSQLiteKV(filepath.Join(dataDir, DBFilename))
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// OpenCharm creates a Charm client from the remote settings.
func (c *Config) OpenCharm(logger *log.Logger) (*charm.Client, error) {
	return charm.NewClient(charm.Options{
		Host:     c.Remote.Host,
		DBName:   c.GetDBName(),
		AutoSync: c.Remote.AutoSync,
		Logger:   logger,
	})
}

// OpenRemote returns the configured remote store. When sync is disabled or
// the client cannot be created it logs once and returns remote.Disabled.
func (c *Config) OpenRemote(logger *log.Logger) remote.Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if !c.Remote.Enabled {
		logger.Debug("remote sync not enabled in config")
		return remote.Disabled{}
	}
	client, err := c.OpenCharm(logger)
	if err != nil {
		logger.Warn("remote sync unavailable, working locally", "err", err)
		return remote.Disabled{}
	}
	return client
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := homedir.Dir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "daybook", "config.json")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendDiskv)
	v.SetDefault("data_dir", "")
	v.SetDefault("window_size", DefaultWindowSize)
	v.SetDefault("remote.enabled", false)
	v.SetDefault("remote.host", "")
	v.SetDefault("remote.db_name", "")
	v.SetDefault("remote.auto_sync", true)
	return v
}

// Load reads config from disk and applies DAYBOOK_* environment overrides.
// A missing file yields defaults and is written out for next time.
func Load() (*Config, error) {
	path := GetConfigPath()
	v := newViper(path)

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	case os.IsNotExist(statErr):
		defaults := &Config{Backend: BackendDiskv, Remote: Remote{AutoSync: true}}
		if err := defaults.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", err)
		}
	default:
		return nil, fmt.Errorf("stat config: %w", statErr)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(GetConfigPath(), append(data, '\n'))
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DefaultDirPerms); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// defaultDataDir returns the standard XDG data directory for daybook.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := homedir.Dir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "daybook")
}
