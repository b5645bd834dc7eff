package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/studio/internal/builder"
	"github.com/livetemplate/studio/internal/security"
	"github.com/livetemplate/studio/internal/store"
	"github.com/livetemplate/studio/internal/workspace"
)

// FileName is the configuration file looked up by LoadFromDir.
const FileName = "studio.yaml"

// Config represents the studio configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Publish  PublishConfig  `yaml:"publish"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
	API      *APIConfig     `yaml:"api,omitempty"`
	Session  SessionConfig  `yaml:"session"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port  int    `yaml:"port"`
	Host  string `yaml:"host"`
	Debug bool   `yaml:"debug"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects where buffers and publications are persisted
type StorageConfig struct {
	Driver  string `yaml:"driver"`  // "sqlite" or "postgres"
	DSN     string `yaml:"dsn"`     // file path for sqlite, connection string for postgres
	Project string `yaml:"project"` // project whose buffers the server edits
}

// PublishConfig holds publish settings
type PublishConfig struct {
	BaseURL string `yaml:"base_url"`
	// RequirePublic rejects base URLs pointing at localhost or private networks.
	RequirePublic bool `yaml:"require_public,omitempty"`
}

// ImportConfig holds file import settings
type ImportConfig struct {
	WatchDir string `yaml:"watch_dir,omitempty"` // inbox directory; empty disables watching
	MaxSize  int64  `yaml:"max_size,omitempty"`  // bytes (default: 2 MiB)
}

// GetMaxSize returns the import size limit (default: 2 MiB)
func (c ImportConfig) GetMaxSize() int64 {
	if c.MaxSize <= 0 {
		return 2 << 20
	}
	return c.MaxSize
}

// LogConfig holds logging configuration
type LogConfig struct {
	File       string `yaml:"file,omitempty"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// APIConfig holds REST API configuration
type APIConfig struct {
	CORS      *CORSConfig      `yaml:"cors,omitempty"`
	RateLimit *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// CORSConfig holds CORS configuration for the API
type CORSConfig struct {
	Origins []string `yaml:"origins,omitempty"` // Allowed origins (e.g., ["http://localhost:3000", "*"])
}

// RateLimitConfig holds rate limiting configuration for the API
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"` // default: 10
	Burst             int     `yaml:"burst,omitempty"`               // default: 20
	MaxTrackedIPs     int     `yaml:"max_tracked_ips,omitempty"`     // default: 10000
}

// GetCORSOrigins returns the configured CORS origins, or nil if not configured
func (c *APIConfig) GetCORSOrigins() []string {
	if c == nil || c.CORS == nil {
		return nil
	}
	return c.CORS.Origins
}

// GetRateLimitRPS returns the rate limit in requests per second (default: 10)
func (c *APIConfig) GetRateLimitRPS() float64 {
	if c == nil || c.RateLimit == nil || c.RateLimit.RequestsPerSecond <= 0 {
		return 10
	}
	return c.RateLimit.RequestsPerSecond
}

// GetRateLimitBurst returns the burst size (default: 20)
func (c *APIConfig) GetRateLimitBurst() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.Burst <= 0 {
		return 20
	}
	return c.RateLimit.Burst
}

// GetMaxTrackedIPs returns how many client IPs the limiter tracks (default: 10000)
func (c *APIConfig) GetMaxTrackedIPs() int {
	if c == nil || c.RateLimit == nil || c.RateLimit.MaxTrackedIPs <= 0 {
		return 10000
	}
	return c.RateLimit.MaxTrackedIPs
}

// SessionConfig controls how long idle builder sessions are kept
type SessionConfig struct {
	TTL     string `yaml:"ttl,omitempty"`     // e.g. "30m" (default: 1h)
	Cleanup string `yaml:"cleanup,omitempty"` // sweep interval (default: 10m)
}

// GetTTL returns the idle session lifetime (default: 1h)
func (c SessionConfig) GetTTL() time.Duration {
	return parseDuration(c.TTL, time.Hour)
}

// GetCleanupInterval returns how often expired sessions are swept (default: 10m)
func (c SessionConfig) GetCleanupInterval() time.Duration {
	return parseDuration(c.Cleanup, 10*time.Minute)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// DefaultsConfig overrides the starter content of a new project.
// Empty fields keep the built-in starter.
type DefaultsConfig struct {
	HTML       string `yaml:"html,omitempty"`
	CSS        string `yaml:"css,omitempty"`
	JS         string `yaml:"js,omitempty"`
	Background string `yaml:"background,omitempty"`
}

// Starter returns the buffers seeded into a new project.
func (c DefaultsConfig) Starter() workspace.Snapshot {
	s := workspace.Defaults()
	if c.HTML != "" {
		s.HTML = c.HTML
	}
	if c.CSS != "" {
		s.CSS = c.CSS
	}
	if c.JS != "" {
		s.JS = c.JS
	}
	if c.Background != "" {
		s.Background = c.Background
	}
	return s
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:  8080,
			Host:  "localhost",
			Debug: false,
		},
		Storage: StorageConfig{
			Driver:  store.DriverSQLite,
			DSN:     filepath.Join(".studio", "studio.db"),
			Project: "default",
		},
		Publish: PublishConfig{
			BaseURL: "http://localhost:8080/sites",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file
// If the file doesn't exist, returns the default configuration
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromDir loads studio.yaml from dir, after loading dir/.env into the
// process environment. STUDIO_* variables override file values.
func LoadFromDir(dir string) (*Config, error) {
	if err := LoadEnvFile(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads a dotenv file if it exists. Variables already set in
// the environment win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configuration from STUDIO_* environment variables.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"STUDIO_HOST":             &c.Server.Host,
		"STUDIO_DB_DRIVER":        &c.Storage.Driver,
		"STUDIO_DB_DSN":           &c.Storage.DSN,
		"STUDIO_PROJECT":          &c.Storage.Project,
		"STUDIO_PUBLISH_BASE_URL": &c.Publish.BaseURL,
		"STUDIO_WATCH_DIR":        &c.Import.WatchDir,
		"STUDIO_LOG_FILE":         &c.Log.File,
		"STUDIO_LOG_LEVEL":        &c.Log.Level,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("STUDIO_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("STUDIO_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("STUDIO_DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STUDIO_DEBUG: %w", err)
		}
		c.Server.Debug = debug
	}
	return nil
}

// Validate returns the first configuration error.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Driver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", store.DriverSQLite, store.DriverPostgres, c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.Project == "" {
		return fmt.Errorf("storage.project is required")
	}

	check := security.ValidateBaseURL
	if c.Publish.RequirePublic {
		check = security.ValidatePublicURL
	}
	if err := check(c.Publish.BaseURL); err != nil {
		return fmt.Errorf("publish.base_url: %w", err)
	}

	if bg := c.Defaults.Background; bg != "" && !builder.ValidColor(bg) {
		return fmt.Errorf("defaults.background %q is not a hex colour", bg)
	}
	return nil
}

// Save writes the configuration to a YAML file
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
