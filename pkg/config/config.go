package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// Defaults - easy to change
const (
	DefaultThemeName  = "nord"
	DefaultLocale     = "en-US"
	DefaultViewMode   = "table"
	DefaultPageSize   = 10
	DefaultArmSeconds = 3
	DefaultDebounceMS = 500
	DefaultAPITimeout = "10s"
	DefaultCatalog    = "catalog.yaml"
)

// Storage backends for table settings and navigation state
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the complete backoffice configuration
type Config struct {
	Appearance AppearanceConfig `toml:"appearance"`
	Table      TableConfig      `toml:"table"`
	Storage    StorageConfig    `toml:"storage"`
	Catalog    CatalogConfig    `toml:"catalog"`
	API        APIConfig        `toml:"api,omitempty"`
	Log        LogConfig        `toml:"log,omitempty"`
}

// AppearanceConfig holds theme and visual settings
type AppearanceConfig struct {
	Theme     string            `toml:"theme"`
	Locale    string            `toml:"locale,omitempty"`    // date formatting and text collation
	ViewMode  string            `toml:"view_mode,omitempty"` // "table" or "card"
	Overrides map[string]string `toml:"overrides,omitempty"`
}

// TableConfig holds table behaviour
type TableConfig struct {
	PageSize   int `toml:"page_size,omitempty"`
	ArmSeconds int `toml:"arm_seconds,omitempty"` // delete confirmation window
	DebounceMS int `toml:"debounce_ms,omitempty"` // search debounce
}

// StorageConfig selects where column settings and page state are kept
type StorageConfig struct {
	Backend string `toml:"backend,omitempty"`
	Path    string `toml:"path,omitempty"`
}

// CatalogConfig points at the entity catalog
type CatalogConfig struct {
	Path string `toml:"path,omitempty"`
}

// APIConfig configures remote entities
type APIConfig struct {
	BaseURL  string `toml:"base_url,omitempty"`
	Token    string `toml:"token,omitempty"`
	Timeout  string `toml:"timeout,omitempty"`
	Insecure bool   `toml:"insecure,omitempty"`
	// TLS trust for self-hosted APIs
	CACert string `toml:"ca_cert,omitempty"`
	CADir  string `toml:"ca_dir,omitempty"`
}

// LogConfig configures the log file
type LogConfig struct {
	Level string `toml:"level,omitempty"`
	Path  string `toml:"path,omitempty"`
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	if configPath := os.Getenv("BACKOFFICE_CONFIG"); configPath != "" {
		return configPath
	}
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "backoffice")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "backoffice")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "backoffice")
	}
}

// GetDefaultConfig returns a config with sensible defaults
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Appearance.Theme == "" {
		c.Appearance.Theme = DefaultThemeName
	}
	if c.Appearance.Locale == "" {
		c.Appearance.Locale = DefaultLocale
	}
	if c.Appearance.ViewMode == "" {
		c.Appearance.ViewMode = DefaultViewMode
	}
	if c.Table.PageSize <= 0 {
		c.Table.PageSize = DefaultPageSize
	}
	if c.Table.ArmSeconds <= 0 {
		c.Table.ArmSeconds = DefaultArmSeconds
	}
	if c.Table.DebounceMS <= 0 {
		c.Table.DebounceMS = DefaultDebounceMS
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = DefaultCatalog
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultAPITimeout
	}
}

// Load reads the configuration at GetConfigPath
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads the configuration at path with fallback to defaults. A
// missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return GetDefaultConfig(), nil
	}
	if err != nil {
		return nil, apperrors.ConfigError("CONFIG_READ_FAILED", "Failed to read config").
			WithCause(err).
			WithContext("path", path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.ConfigError("CONFIG_PARSE_FAILED", "Failed to parse config").
			WithCause(err).
			WithContext("path", path).
			WithUserAction(fmt.Sprintf("Fix the TOML syntax in %s", path))
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and duration fields
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return apperrors.ConfigError("INVALID_BACKEND",
			fmt.Sprintf("Unknown storage backend %q", c.Storage.Backend)).
			WithUserAction("Use one of: file, sqlite, memory")
	}
	switch strings.ToLower(c.Appearance.ViewMode) {
	case "table", "card":
	default:
		return apperrors.ConfigError("INVALID_VIEW_MODE",
			fmt.Sprintf("Unknown view mode %q", c.Appearance.ViewMode)).
			WithUserAction("Use table or card")
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return apperrors.ConfigError("INVALID_TIMEOUT",
			fmt.Sprintf("Invalid api timeout %q", c.API.Timeout)).
			WithCause(err)
	}
	return nil
}

// Save writes the configuration to path, creating its directory
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ConfigError("CONFIG_DIR_FAILED", "Failed to create config directory").WithCause(err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return apperrors.ConfigError("CONFIG_ENCODE_FAILED", "Failed to encode config").WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.ConfigError("CONFIG_WRITE_FAILED", "Failed to write config").
			WithCause(err).
			WithContext("path", path)
	}
	return nil
}

// ArmDuration is the delete confirmation window
func (c *Config) ArmDuration() time.Duration {
	return time.Duration(c.Table.ArmSeconds) * time.Second
}

// Debounce is the search debounce delay
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Table.DebounceMS) * time.Millisecond
}

// APITimeout returns the per-request timeout for remote entities
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultAPITimeout)
	}
	return d
}

// GetAPIToken returns the bearer token.
// Priority: BACKOFFICE_API_TOKEN env var > config file
func (c *Config) GetAPIToken() string {
	if tok := os.Getenv("BACKOFFICE_API_TOKEN"); tok != "" {
		return tok
	}
	return c.API.Token
}

// StoragePath returns where the settings store lives. Relative paths and
// the empty default resolve inside the config directory.
func (c *Config) StoragePath() string {
	p := c.Storage.Path
	if p == "" {
		switch c.Storage.Backend {
		case BackendSQLite:
			p = "state.db"
		default:
			p = "state.json"
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(GetConfigPath()), p)
}

// CatalogPath returns the catalog path. Relative paths are kept relative to
// the working directory.
func (c *Config) CatalogPath() string {
	return c.Catalog.Path
}
