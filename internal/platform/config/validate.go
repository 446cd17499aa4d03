package config

import (
	"fmt"
	"strings"
)

// ValidationError lists every required setting that is missing or invalid.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "config: " + strings.Join(parts, "; ")
}

func (e *ValidationError) empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// Validate checks everything the ETL job needs before it touches the network.
// It returns a *ValidationError or nil.
func (c *Config) Validate() error {
	ve := &ValidationError{}
	if c.API.AccessKey == "" {
		ve.Missing = append(ve.Missing, EnvAccessKey)
	}
	c.DB.collect(ve)

	if c.ETL.LoadMode != LoadModeAppend && c.ETL.LoadMode != LoadModeUpsert {
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("%s=%q", EnvLoadMode, c.ETL.LoadMode))
	}
	if c.ETL.Shards < 1 {
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("%s=%d", EnvShards, c.ETL.Shards))
	}
	if c.ETL.RateLimit < 1 {
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("%s=%d", EnvRateLimit, c.ETL.RateLimit))
	}
	if c.API.MaxRetries < 0 {
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("%s=%d", EnvMaxRetries, c.API.MaxRetries))
	}
	if len(c.ETL.Tickers) == 0 {
		ve.Missing = append(ve.Missing, "tickers")
	}

	if ve.empty() {
		return nil
	}
	return ve
}

// Validate checks only the database settings, for binaries that never call the API.
func (d *DBConfig) Validate() error {
	ve := &ValidationError{}
	d.collect(ve)
	if ve.empty() {
		return nil
	}
	return ve
}

func (d *DBConfig) collect(ve *ValidationError) {
	switch d.Driver {
	case DriverSQLite:
		// database is the file path; no server or credentials.
	case DriverSQLServer, DriverPostgres:
		if d.Server == "" {
			ve.Missing = append(ve.Missing, EnvServer)
		}
		if d.User == "" {
			ve.Missing = append(ve.Missing, EnvDBUser)
		}
		if d.Password == "" {
			ve.Missing = append(ve.Missing, EnvDBPassword)
		}
	default:
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("%s=%q", EnvDBDriver, d.Driver))
	}
	if d.Database == "" {
		ve.Missing = append(ve.Missing, EnvDatabase)
	}
	if d.Table == "" {
		ve.Missing = append(ve.Missing, EnvTable)
	}
}
