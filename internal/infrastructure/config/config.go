// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for activity configuration.
	DefaultConfigDir = ".activity"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultSitesFile is the default sites file name.
	DefaultSitesFile = "sites.yaml"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// LLMConfig holds configuration for the LLM provider.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"` // OpenAI-compatible endpoint
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host   string `yaml:"host,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver,omitempty"`
	// DSN is the PostgreSQL connection string. Unused for SQLite.
	DSN string `yaml:"dsn,omitempty"`
	// Path overrides the SQLite file location.
	// When empty, each site gets its own file (see SQLitePathForSite).
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls the runtime logger.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	// File, when set, receives logfmt output in addition to the console.
	File string `yaml:"file,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .activity directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'activity sites create' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// API keys only fill empty values; DSN and log level always win.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
	if dsn := os.Getenv("ACTIVITY_DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
		c.Database.Driver = DriverPostgres
	}
	if level := os.Getenv("ACTIVITY_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database driver %q requires a dsn", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown database driver %q (valid: %s, %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	return nil
}

// ConfigDir returns the path to the .activity config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SitesFilePath returns the path to the sites file.
func SitesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultSitesFile)
}

// Exists checks if an activity config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeSiteName converts a site name to a valid identifier.
// "Example.blog" becomes "example_blog".
func SanitizeSiteName(name string) string {
	name = strings.ToLower(name)

	// Replace separators with underscores
	name = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(name)

	name = reNonAlphanumeric.ReplaceAllString(name, "")
	name = reMultipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateCollectionName creates a collection name for a site.
func GenerateCollectionName(siteName string) string {
	return "activity_" + SanitizeSiteName(siteName)
}

// SQLitePathForSite returns the SQLite database path for a given site.
func SQLitePathForSite(basePath, siteName string) string {
	return filepath.Join(SiteDir(basePath, siteName), "activity.db")
}

// SiteDir returns the directory path for a given site.
func SiteDir(basePath, siteName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "sites", SanitizeSiteName(siteName))
}
