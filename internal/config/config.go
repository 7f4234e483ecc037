package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// DBDriver selects the database/sql driver. DBDSN is passed through as-is
	// when set; for sqlite3 it is built from SQLitePath otherwise.
	DBDriver          string
	DBDSN             string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// LogSQL logs every SQLite statement at debug level.
	LogSQL bool
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
// Values found there act as defaults; environment variables win.
type fileConfig struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	HTTP     struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"http"`
	DB struct {
		Driver          string `yaml:"driver"`
		DSN             string `yaml:"dsn"`
		SQLitePath      string `yaml:"sqlite_path"`
		MaxOpenConns    string `yaml:"max_open_conns"`
		MaxIdleConns    string `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		LogSQL          string `yaml:"log_sql"`
	} `yaml:"db"`
}

func LoadFromEnv() (Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		fc = loaded
	}

	appEnv := lookup("APP_ENV", fc.AppEnv, "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(lookup("LOG_LEVEL", fc.LogLevel, "info"))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := parseDuration("HTTP_READ_TIMEOUT", fc.HTTP.ReadTimeout, "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := parseDuration("HTTP_WRITE_TIMEOUT", fc.HTTP.WriteTimeout, "10s")
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", fc.HTTP.ShutdownTimeout, "10s")
	if err != nil {
		return Config{}, err
	}

	driver := lookup("DB_DRIVER", fc.DB.Driver, DriverSQLite)
	dsn := lookup("DB_DSN", fc.DB.DSN, "")
	switch driver {
	case DriverSQLite:
	case DriverPostgres, DriverMySQL:
		if dsn == "" {
			return Config{}, fmt.Errorf("DB_DSN is required for DB_DRIVER %q", driver)
		}
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: %s, %s, %s)", driver, DriverSQLite, DriverPostgres, DriverMySQL)
	}

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", fc.DB.MaxOpenConns, "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", fc.DB.MaxIdleConns, "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration("DB_CONN_MAX_LIFETIME", fc.DB.ConnMaxLifetime, "0s")
	if err != nil {
		return Config{}, err
	}

	logSQLStr := lookup("LOG_SQL", fc.DB.LogSQL, "false")
	logSQL, err := strconv.ParseBool(logSQLStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_SQL %q: %w", logSQLStr, err)
	}

	return Config{
		AppEnv:            appEnv,
		LogLevel:          level,
		HTTPAddr:          lookup("HTTP_ADDR", fc.HTTP.Addr, ":8080"),
		HTTPReadTimeout:   readTimeout,
		HTTPWriteTimeout:  writeTimeout,
		ShutdownTimeout:   shutdownTimeout,
		DBDriver:          driver,
		DBDSN:             dsn,
		SQLitePath:        lookup("SQLITE_PATH", fc.DB.SQLitePath, "Resources/hawaii.sqlite"),
		DBMaxOpenConns:    maxOpenConns,
		DBMaxIdleConns:    maxIdleConns,
		DBConnMaxLifetime: connMaxLifetime,
		LogSQL:            logSQL,
	}, nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}
	return fc, nil
}

// lookup returns the trimmed env value, then the file value, then def.
func lookup(key, fileValue, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fileValue); v != "" {
		return v
	}
	return def
}

func parseInt(key, fileValue, def string) (int, error) {
	s := lookup(key, fileValue, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, fileValue, def string) (time.Duration, error) {
	s := lookup(key, fileValue, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
