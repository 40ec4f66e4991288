// Package config loads the server configuration from an optional YAML file,
// the environment and defaults, in increasing order of precedence for the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ceronops/jobcal/internal/constants"
	"github.com/ceronops/jobcal/internal/db"
)

// Defaults
const (
	DefaultPort            = "8080"
	DefaultTimezone        = "America/Los_Angeles"
	DefaultWindowDays      = 90
	DefaultMinDaysAhead    = 30
	DefaultSyncConcurrency = 4
	DefaultAutoSyncCron    = "*/15 * * * *"
	DefaultLogLevel        = "info"
)

// DatabaseConfig describes the database connection
type DatabaseConfig struct {
	Driver     string `yaml:"driver" json:"driver"`
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	User       string `yaml:"user" json:"user"`
	Password   string `yaml:"password" json:"-"`
	Name       string `yaml:"name" json:"name"`
	SSLEnabled bool   `yaml:"ssl_enabled" json:"ssl_enabled"`
	// Path is the SQLite file used when Driver is sqlite
	Path string `yaml:"path" json:"path"`
}

// CalendarConfig describes how the calendar credential is obtained
type CalendarConfig struct {
	// TokenBackendURL takes precedence over the OAuth client fields
	TokenBackendURL string `yaml:"token_backend_url" json:"token_backend_url"`
	ClientID        string `yaml:"client_id" json:"client_id"`
	ClientSecret    string `yaml:"client_secret" json:"-"`
	RedirectURL     string `yaml:"redirect_url" json:"redirect_url"`
	// Endpoint overrides the Google Calendar API base URL
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// SyncConfig controls calendar synchronization
type SyncConfig struct {
	Concurrency     int    `yaml:"concurrency" json:"concurrency"`
	AutoSyncEnabled bool   `yaml:"auto_sync_enabled" json:"auto_sync_enabled"`
	AutoSyncCron    string `yaml:"auto_sync_cron" json:"auto_sync_cron"`
}

// Config is the top-level server configuration
type Config struct {
	Port         string         `yaml:"port" json:"port"`
	LogLevel     string         `yaml:"log_level" json:"log_level"`
	Timezone     string         `yaml:"timezone" json:"timezone"`
	WindowDays   int            `yaml:"window_days" json:"window_days"`
	MinDaysAhead int            `yaml:"min_days_ahead" json:"min_days_ahead"`
	Database     DatabaseConfig `yaml:"database" json:"database"`
	Calendar     CalendarConfig `yaml:"calendar" json:"calendar"`
	Sync         SyncConfig     `yaml:"sync" json:"sync"`
}

// DefaultConfig returns a configuration with every default filled in
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills in missing or zero values with their defaults
func (c *Config) Normalize() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.MinDaysAhead <= 0 {
		c.MinDaysAhead = DefaultMinDaysAhead
	}
	if c.Sync.Concurrency <= 0 {
		c.Sync.Concurrency = DefaultSyncConcurrency
	}
	if c.Sync.AutoSyncCron == "" {
		c.Sync.AutoSyncCron = DefaultAutoSyncCron
	}

	d := &c.Database
	if d.Driver == "" {
		d.Driver = db.DriverPostgres
	}
	d.Driver = strings.ToLower(d.Driver)
	if d.Host == "" {
		d.Host = db.DefaultHost
	}
	if d.Port == 0 {
		d.Port = db.DefaultPort
	}
	if d.User == "" {
		d.User = db.DefaultUser
	}
	if d.Password == "" {
		d.Password = db.DefaultPassword
	}
	if d.Name == "" {
		d.Name = db.DefaultDBName
	}
	if d.Path == "" {
		d.Path = db.DefaultSQLitePath
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Sync.AutoSyncEnabled {
		if _, err := cron.ParseStandard(c.Sync.AutoSyncCron); err != nil {
			return fmt.Errorf("invalid auto sync schedule %q: %w", c.Sync.AutoSyncCron, err)
		}
	}
	if c.Calendar.TokenBackendURL == "" && c.Calendar.ClientID != "" && c.Calendar.ClientSecret == "" {
		return errors.New("calendar client secret is required with a client id")
	}
	return nil
}

// Location returns the configured time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DBOptions returns the connection options of the configured database
func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver:     c.Database.Driver,
		Host:       c.Database.Host,
		Port:       c.Database.Port,
		User:       c.Database.User,
		Password:   c.Database.Password,
		DBName:     c.Database.Name,
		SSLEnabled: c.Database.SSLEnabled,
		Path:       c.Database.Path,
	}
}

// Load reads .env if present, then the YAML file at path (if any), then applies
// environment overrides and defaults. An empty path falls back to JOBCAL_CONFIG.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(constants.EnvConfigFile)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, constants.EnvPort)
	setString(&c.LogLevel, constants.EnvLogLevel)
	setString(&c.Timezone, constants.EnvTimezone)

	setString(&c.Database.Driver, constants.EnvDBDriver)
	setString(&c.Database.Host, constants.EnvDBHost)
	setString(&c.Database.User, constants.EnvDBUser)
	setString(&c.Database.Password, constants.EnvDBPassword)
	setString(&c.Database.Name, constants.EnvDBName)
	setString(&c.Database.Path, constants.EnvDBPath)

	setString(&c.Calendar.TokenBackendURL, constants.EnvCalendarTokenBackendURL)
	setString(&c.Calendar.ClientID, constants.EnvGoogleClientID)
	setString(&c.Calendar.ClientSecret, constants.EnvGoogleClientSecret)
	setString(&c.Calendar.RedirectURL, constants.EnvGoogleRedirectURL)
	setString(&c.Calendar.Endpoint, constants.EnvGoogleCalendarEndpoint)

	setString(&c.Sync.AutoSyncCron, constants.EnvAutoSyncCron)

	ints := []struct {
		dst *int
		key string
	}{
		{&c.Database.Port, constants.EnvDBPort},
		{&c.WindowDays, constants.EnvWindowDays},
		{&c.MinDaysAhead, constants.EnvMinDaysAhead},
		{&c.Sync.Concurrency, constants.EnvSyncConcurrency},
	}
	for _, v := range ints {
		if err := setInt(v.dst, v.key); err != nil {
			return err
		}
	}

	bools := []struct {
		dst *bool
		key string
	}{
		{&c.Database.SSLEnabled, constants.EnvDBSSLEnabled},
		{&c.Sync.AutoSyncEnabled, constants.EnvAutoSyncEnabled},
	}
	for _, v := range bools {
		if err := setBool(v.dst, v.key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
