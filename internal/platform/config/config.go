// Package config loads the ETL job configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Required environment variables. Names follow the deployment's existing .env files.
const (
	EnvAccessKey  = "access_key"
	EnvServer     = "server"
	EnvDatabase   = "database"
	EnvDBUser     = "db_user"
	EnvDBPassword = "db_password"
	EnvTable      = "table"
)

// Optional environment variables.
const (
	EnvDBDriver        = "ETL_DB_DRIVER"
	EnvDBPort          = "ETL_DB_PORT"
	EnvAPIURL          = "ETL_API_URL"
	EnvAPIHost         = "ETL_API_HOST"
	EnvTickersFile     = "ETL_TICKERS_FILE"
	EnvLogFile         = "ETL_LOG_FILE"
	EnvWatermarkFilter = "ETL_WATERMARK_FILTER"
	EnvLoadMode        = "ETL_LOAD_MODE"
	EnvShards          = "ETL_SHARDS"
	EnvRateLimit       = "ETL_RATE_LIMIT"
	EnvRatePause       = "ETL_RATE_PAUSE"
	EnvMaxRetries      = "ETL_MAX_RETRIES"
	EnvHTTPTimeout     = "ETL_HTTP_TIMEOUT"
	EnvRunTimeout      = "ETL_RUN_TIMEOUT"
	EnvRunMigrations   = "RUN_MIGRATIONS"
	EnvKafkaBrokers    = "KAFKA_BROKERS"
	EnvKafkaTopic      = "KAFKA_TOPIC"
	EnvRedisHost       = "REDIS_HOST"
	EnvRedisPort       = "REDIS_PORT"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvJWTSecret       = "JWT_SECRET"
	EnvServerAddr      = "SERVER_ADDR"
)

// Supported database drivers.
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// Load modes for the loader.
const (
	LoadModeAppend = "append"
	LoadModeUpsert = "upsert"
)

// Defaults for optional settings.
const (
	DefaultAPIURL      = "https://alpha-vantage.p.rapidapi.com/query"
	DefaultAPIHost     = "alpha-vantage.p.rapidapi.com"
	DefaultLogFile     = "etl_process.log"
	DefaultShards      = 4
	DefaultRateLimit   = 5
	DefaultRatePause   = 65 * time.Second
	DefaultMaxRetries  = 2
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRunTimeout  = time.Hour
	DefaultKafkaTopic  = "etl-runs"
	DefaultServerAddr  = ":8080"
)

// DefaultTickers is the ticker list used when no tickers file is configured.
var DefaultTickers = []string{
	"INFY", "TCS", "UPL", "ITC", "AAPL", "MSFT", "BRK.B", "NVDA", "JPM", "V",
	"PG", "WMT", "DIS", "PFE", "KO", "CSCO", "NFLX", "INTC", "AMD", "IBM",
	"CRM", "QCOM", "ORCL", "BA", "LLY", "NOW", "MDT", "AMGN", "HON", "SBUX",
}

// Config holds the full job configuration.
type Config struct {
	API     APIConfig
	DB      DBConfig
	ETL     ETLConfig
	Kafka   KafkaConfig
	Redis   RedisConfig
	Server  ServerConfig
	LogFile string
}

// APIConfig holds market data API settings.
type APIConfig struct {
	AccessKey  string        // RapidAPI key
	URL        string        // query endpoint
	Host       string        // x-rapidapi-host header value
	Timeout    time.Duration // per request timeout
	MaxRetries int           // retries on transport errors and 5xx
}

// DBConfig holds relational store settings.
type DBConfig struct {
	Driver        string
	Server        string
	Port          int // 0 means the driver default
	Database      string
	User          string
	Password      string
	Table         string
	RunMigrations bool
}

// ETLConfig holds pipeline behavior settings.
type ETLConfig struct {
	Tickers         []string
	WatermarkFilter bool
	LoadMode        string
	Shards          int
	RateLimit       int
	RatePause       time.Duration
	RunTimeout      time.Duration
}

// KafkaConfig holds the run summary publisher settings. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig holds read cache settings. Empty Host disables the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// ServerConfig holds read API settings.
type ServerConfig struct {
	Addr      string
	JWTSecret string
}

// tickersFile is the YAML layout of ETL_TICKERS_FILE.
type tickersFile struct {
	Tickers []string `yaml:"tickers"`
}

// LoadDotEnv loads .env from the working directory if present.
// It reports whether a file was loaded.
func LoadDotEnv() bool {
	return godotenv.Load(".env") == nil
}

// Load reads configuration from the environment. It fails only on malformed
// optional values; missing required values are reported by Validate.
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			AccessKey: os.Getenv(EnvAccessKey),
			URL:       getEnv(EnvAPIURL, DefaultAPIURL),
			Host:      getEnv(EnvAPIHost, DefaultAPIHost),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(getEnv(EnvDBDriver, DriverSQLServer)),
			Server:   os.Getenv(EnvServer),
			Database: os.Getenv(EnvDatabase),
			User:     os.Getenv(EnvDBUser),
			Password: os.Getenv(EnvDBPassword),
			Table:    os.Getenv(EnvTable),
		},
		ETL: ETLConfig{
			LoadMode: strings.ToLower(getEnv(EnvLoadMode, LoadModeAppend)),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv(EnvKafkaBrokers)),
			Topic:   getEnv(EnvKafkaTopic, DefaultKafkaTopic),
		},
		Redis: RedisConfig{
			Host:     os.Getenv(EnvRedisHost),
			Port:     getEnv(EnvRedisPort, "6379"),
			Password: os.Getenv(EnvRedisPassword),
		},
		Server: ServerConfig{
			Addr:      getEnv(EnvServerAddr, DefaultServerAddr),
			JWTSecret: os.Getenv(EnvJWTSecret),
		},
		LogFile: getEnv(EnvLogFile, DefaultLogFile),
	}

	var err error
	if cfg.API.Timeout, err = getDuration(EnvHTTPTimeout, DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.API.MaxRetries, err = getInt(EnvMaxRetries, DefaultMaxRetries); err != nil {
		return nil, err
	}
	if cfg.DB.Port, err = getInt(EnvDBPort, 0); err != nil {
		return nil, err
	}
	if cfg.DB.RunMigrations, err = getBool(EnvRunMigrations, false); err != nil {
		return nil, err
	}
	if cfg.ETL.WatermarkFilter, err = getBool(EnvWatermarkFilter, false); err != nil {
		return nil, err
	}
	if cfg.ETL.Shards, err = getInt(EnvShards, DefaultShards); err != nil {
		return nil, err
	}
	if cfg.ETL.RateLimit, err = getInt(EnvRateLimit, DefaultRateLimit); err != nil {
		return nil, err
	}
	if cfg.ETL.RatePause, err = getDuration(EnvRatePause, DefaultRatePause); err != nil {
		return nil, err
	}
	if cfg.ETL.RunTimeout, err = getDuration(EnvRunTimeout, DefaultRunTimeout); err != nil {
		return nil, err
	}

	cfg.ETL.Tickers = append([]string(nil), DefaultTickers...)
	if path := os.Getenv(EnvTickersFile); path != "" {
		tickers, err := LoadTickers(path)
		if err != nil {
			return nil, err
		}
		cfg.ETL.Tickers = tickers
	}

	return cfg, nil
}

// LoadTickers reads a YAML file of the form `tickers: [AAPL, MSFT]`.
func LoadTickers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tickers file: %w", err)
	}
	var f tickersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tickers yaml: %w", err)
	}
	out := make([]string, 0, len(f.Tickers))
	for _, t := range f.Tickers {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("tickers file %s lists no tickers", path)
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
