// Package db provides database connectivity and operations
package db

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceronops/jobcal/internal/db/models"
)

// Database configuration constants
const (
	// DriverPostgres selects PostgreSQL
	DriverPostgres = "postgres"
	// DriverSQLite selects SQLite, used for local runs
	DriverSQLite = "sqlite"

	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName = "jobcal"
	// DefaultSQLitePath is the default SQLite database file
	DefaultSQLitePath = "jobcal.db"
)

// Options represents database connection configuration options
type Options struct {
	Driver     string
	Host       string
	User       string
	Password   string
	DBName     string
	Port       int
	SSLEnabled bool
	// Path is the SQLite database file or DSN
	Path     string
	LogLevel logger.LogLevel
}

// New creates a new database connection with the given options and migrates the schema
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)

	// Configure custom logger to ignore record not found errors
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres:
		dialector = postgres.Open(opts.DSN())
	case DriverSQLite:
		dialector = sqlite.Open(opts.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// DSN returns the PostgreSQL connection string for the options
func (o Options) DSN() string {
	sslMode := "disable"
	if o.SSLEnabled {
		sslMode = "require"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		o.Host, o.User, o.Password, o.DBName, o.Port, sslMode)
}

// URL returns the PostgreSQL connection URL for the options, as used by golang-migrate
func (o Options) URL() string {
	sslMode := "disable"
	if o.SSLEnabled {
		sslMode = "require"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		o.User, o.Password, o.Host, o.Port, o.DBName, sslMode)
}

// Migrate creates or updates the tables of all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.JobTemplate{},
		&models.JobInstance{},
		&models.CalendarCredential{},
	)
}

// IsDuplicateKeyError checks if the given error is a duplicate key error
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return errors.Is(postgres.Dialector{}.Translate(err), gorm.ErrDuplicatedKey) ||
		errors.Is(sqlite.Dialector{}.Translate(err), gorm.ErrDuplicatedKey)
}

func setDefaults(opts Options) Options {
	if opts.Driver == "" {
		opts.Driver = DriverPostgres
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.User == "" {
		opts.User = DefaultUser
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.DBName == "" {
		opts.DBName = DefaultDBName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Path == "" {
		opts.Path = DefaultSQLitePath
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return opts
}
