// Package db opens the GORM connection to the price store.
package db

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	priceadapters "stock_etl/internal/feature/prices/adapters"
	"stock_etl/internal/platform/config"
)

const (
	// ConnectTimeout bounds how long Open keeps retrying the first connection.
	ConnectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second

	defaultSQLServerPort = 1433
	defaultPostgresPort  = 5432

	// missingValue stands in for unset settings so a broken DSN is recognizable.
	missingValue = "None"
)

// Opener opens a GORM handle for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN renders the driver-specific connection string. It never fails:
// unset values are rendered as "None".
func BuildDSN(cfg config.DBConfig) string {
	server := orMissing(cfg.Server)
	name := orMissing(cfg.Database)
	user := orMissing(cfg.User)
	pass := orMissing(cfg.Password)

	switch cfg.Driver {
	case config.DriverSQLite:
		return name
	case config.DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, pass),
			Host:     server + ":" + strconv.Itoa(portOrDefault(cfg.Port, defaultPostgresPort)),
			Path:     "/" + name,
			RawQuery: "sslmode=prefer",
		}
		return u.String()
	default:
		q := url.Values{}
		q.Set("database", name)
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "true")
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(user, pass),
			Host:     server + ":" + strconv.Itoa(portOrDefault(cfg.Port, defaultSQLServerPort)),
			RawQuery: q.Encode(),
		}
		return u.String()
	}
}

// OpenerFor returns the GORM opener for a configured driver name.
func OpenerFor(driver string) (Opener, error) {
	var dial func(string) gorm.Dialector
	switch driver {
	case config.DriverSQLServer:
		dial = sqlserver.Open
	case config.DriverPostgres:
		dial = postgres.Open
	case config.DriverSQLite:
		dial = sqlite.Open
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	return func(dsn string) (*gorm.DB, error) {
		return gorm.Open(dial(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	}, nil
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// Open connects to the configured store and, when RunMigrations is set,
// creates the price table.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(BuildDSN(cfg), ConnectTimeout, open)
	if err != nil {
		return nil, err
	}
	slog.Info("db connected", "driver", cfg.Driver, "server", cfg.Server, "database", cfg.Database)

	if cfg.RunMigrations {
		if err := priceadapters.Migrate(db, cfg.Table); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}

func orMissing(s string) string {
	if s == "" {
		return missingValue
	}
	return s
}

func portOrDefault(port, def int) int {
	if port > 0 {
		return port
	}
	return def
}
