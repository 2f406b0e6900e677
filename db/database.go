package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"rov_inventory_go/logger"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds local web state only: sessions, audit trail and export records.
// Inventory data lives in the hosted backend.
var DB *gorm.DB

// Options selects the local store. A Turso URL takes precedence over the file path.
type Options struct {
	Path        string
	Environment string
	TursoURL    string
	TursoToken  string
}

// Initialize sets up the database connection with WAL mode for concurrency
func Initialize(opts Options) error {
	logLevel := gormlogger.Info
	if opts.Environment == "production" {
		logLevel = gormlogger.Warn
	}
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(logLevel)}

	var (
		conn *gorm.DB
		err  error
	)

	if opts.TursoURL != "" {
		dsn, derr := LibsqlDSN(opts.TursoURL, opts.TursoToken)
		if derr != nil {
			return derr
		}
		sqlDB, oerr := sql.Open("libsql", dsn)
		if oerr != nil {
			return fmt.Errorf("failed to open libsql connection: %w", oerr)
		}
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		conn, err = gorm.Open(sqlite.Dialector{Conn: sqlDB}, gormCfg)
		if err == nil {
			logger.Info("Database connection established (libsql)", zap.String("host", hostOf(opts.TursoURL)))
		}
	} else {
		conn, err = gorm.Open(sqlite.Open(opts.Path+"?_journal_mode=WAL"), gormCfg)
		if err == nil {
			logger.Info("Database connection established (WAL mode enabled)", zap.String("path", opts.Path))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = conn
	return nil
}

// LibsqlDSN appends the auth token to a libsql URL.
func LibsqlDSN(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return ""
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database migrations completed")
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
