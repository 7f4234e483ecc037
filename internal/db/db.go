package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"climate-server/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Mode controls whether a SQLite store is opened read-only.
// Server drivers ignore it; their DSN decides.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func Open(cfg config.Config, mode Mode) (*sql.DB, error) {
	dsn, err := buildDSN(cfg, mode)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL && cfg.DBDriver == config.DriverSQLite {
		connector, err := NewLoggingConnector(dsn, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.DBDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	// One shared connection by default; raise DB_MAX_OPEN_CONNS for server drivers.
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	}

	// Validate connectivity early
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Describe returns a loggable description of the configured store with
// credentials removed.
func Describe(cfg config.Config) string {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if cfg.DBDSN != "" {
			return cfg.DBDSN
		}
		return cfg.SQLitePath
	case config.DriverMySQL:
		mc, err := mysql.ParseDSN(cfg.DBDSN)
		if err != nil {
			return "invalid mysql dsn"
		}
		return fmt.Sprintf("%s(%s)/%s", mc.Net, mc.Addr, mc.DBName)
	default:
		if at := strings.LastIndex(cfg.DBDSN, "@"); at >= 0 {
			return cfg.DBDSN[at+1:]
		}
		return cfg.DBDSN
	}
}

func buildDSN(cfg config.Config, mode Mode) (string, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return buildSQLiteDSN(cfg, mode)
	case config.DriverMySQL:
		mc, err := mysql.ParseDSN(cfg.DBDSN)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		// Dates are compared and returned as ISO strings.
		mc.ParseTime = false
		return mc.FormatDSN(), nil
	case config.DriverPostgres:
		if cfg.DBDSN == "" {
			return "", fmt.Errorf("postgres dsn is empty")
		}
		return cfg.DBDSN, nil
	default:
		return "", fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

func buildSQLiteDSN(cfg config.Config, mode Mode) (string, error) {
	if cfg.DBDSN != "" {
		return cfg.DBDSN, nil
	}

	path := cfg.SQLitePath
	params := []string{"_busy_timeout=5000"}
	if mode == ReadOnly {
		// The served store is never written; a missing file must fail the ping
		// instead of creating an empty database.
		params = append(params, "mode=ro")
	} else {
		dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		params = append(params, "_foreign_keys=on")
	}

	// If caller provided something like "file:/data/app.db?x=y" as Path, don't double-wrap
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
