package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"climate-server/internal/config"
)

func sqliteConfig(path string) config.Config {
	return config.Config{
		DBDriver:       config.DriverSQLite,
		SQLitePath:     path,
		DBMaxOpenConns: 1,
		DBMaxIdleConns: 1,
	}
}

func TestBuildDSN_sqlite(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		path   string
		mode   Mode
		prefix string
		has    []string
		hasNot []string
	}{
		{
			name:   "read only plain path",
			path:   filepath.Join(dir, "hawaii.sqlite"),
			mode:   ReadOnly,
			prefix: "file:" + filepath.Join(dir, "hawaii.sqlite") + "?",
			has:    []string{"mode=ro", "_busy_timeout=5000"},
			hasNot: []string{"_journal_mode=WAL"},
		},
		{
			name:   "read write plain path",
			path:   filepath.Join(dir, "nested", "dev.sqlite"),
			mode:   ReadWrite,
			prefix: "file:" + filepath.Join(dir, "nested", "dev.sqlite") + "?",
			has:    []string{"_foreign_keys=on"},
			hasNot: []string{"mode=ro", "_journal_mode=WAL"},
		},
		{
			name:   "file uri with query",
			path:   "file:" + filepath.Join(dir, "x.sqlite") + "?cache=shared",
			mode:   ReadOnly,
			prefix: "file:" + filepath.Join(dir, "x.sqlite") + "?cache=shared&",
			has:    []string{"mode=ro"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(sqliteConfig(tt.path), tt.mode)
			if err != nil {
				t.Fatalf("buildDSN: %v", err)
			}
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("dsn = %q; want prefix %q", got, tt.prefix)
			}
			for _, s := range tt.has {
				if !strings.Contains(got, s) {
					t.Errorf("dsn = %q; want %q", got, s)
				}
			}
			for _, s := range tt.hasNot {
				if strings.Contains(got, s) {
					t.Errorf("dsn = %q; must not contain %q", got, s)
				}
			}
		})
	}
}

func TestBuildDSN_explicitDSNWins(t *testing.T) {
	cfg := sqliteConfig("ignored.sqlite")
	cfg.DBDSN = "file::memory:?cache=shared"
	got, err := buildDSN(cfg, ReadOnly)
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if got != cfg.DBDSN {
		t.Errorf("dsn = %q; want %q", got, cfg.DBDSN)
	}
}

func TestBuildDSN_mysql(t *testing.T) {
	cfg := config.Config{DBDriver: config.DriverMySQL, DBDSN: "climate:secret@tcp(db:3306)/hawaii?parseTime=true"}
	got, err := buildDSN(cfg, ReadOnly)
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if strings.Contains(got, "parseTime=true") {
		t.Errorf("dsn = %q; parseTime must be disabled", got)
	}
	if !strings.Contains(got, "tcp(db:3306)/hawaii") {
		t.Errorf("dsn = %q; want address and db name kept", got)
	}

	cfg.DBDSN = "not a dsn"
	if _, err := buildDSN(cfg, ReadOnly); err == nil {
		t.Error("buildDSN with malformed mysql dsn: error = nil")
	}
}

func TestBuildDSN_unsupportedDriver(t *testing.T) {
	if _, err := buildDSN(config.Config{DBDriver: "oracle"}, ReadOnly); err == nil {
		t.Fatal("buildDSN(oracle) error = nil")
	}
	if _, err := buildDSN(config.Config{DBDriver: config.DriverPostgres}, ReadOnly); err == nil {
		t.Fatal("buildDSN(postgres, empty dsn) error = nil")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{name: "sqlite path", cfg: sqliteConfig("Resources/hawaii.sqlite"), want: "Resources/hawaii.sqlite"},
		{name: "mysql hides password", cfg: config.Config{DBDriver: config.DriverMySQL, DBDSN: "u:p@tcp(db:3306)/hawaii"}, want: "tcp(db:3306)/hawaii"},
		{name: "postgres hides credentials", cfg: config.Config{DBDriver: config.DriverPostgres, DBDSN: "postgres://u:p@db:5432/hawaii"}, want: "db:5432/hawaii"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.cfg); got != tt.want {
				t.Errorf("Describe() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_readOnlyMissingFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sqlite")
	conn, err := Open(sqliteConfig(path), ReadOnly)
	if err == nil {
		_ = Close(conn)
		t.Fatal("Open(read only, missing file) error = nil; want error")
	}
}

func TestOpen_readWriteThenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "hawaii.sqlite")
	cfg := sqliteConfig(path)

	rw, err := Open(cfg, ReadWrite)
	if err != nil {
		t.Fatalf("Open(read write): %v", err)
	}
	if _, err := rw.Exec(`CREATE TABLE station (station TEXT, name TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := Close(rw); err != nil {
		t.Fatalf("close: %v", err)
	}

	cfg.LogSQL = true
	ro, err := Open(cfg, ReadOnly)
	if err != nil {
		t.Fatalf("Open(read only): %v", err)
	}
	defer func() { _ = Close(ro) }()

	if _, err := ro.Exec(`INSERT INTO station VALUES ('USC1', 'Honolulu')`); err == nil {
		t.Fatal("insert on read-only store succeeded")
	}
	var n int
	if err := ro.QueryRow(`SELECT COUNT(*) FROM station`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
}

func TestClose_nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil) = %v; want nil", err)
	}
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{name: "question untouched", dialect: DialectQuestion, in: "a = ? AND b = ?", want: "a = ? AND b = ?"},
		{name: "dollar numbering", dialect: DialectDollar, in: "a = ? AND b <= ?", want: "a = $1 AND b <= $2"},
		{name: "quoted literal kept", dialect: DialectDollar, in: "a = '?' OR b = ?", want: "a = '?' OR b = $1"},
		{name: "no placeholders", dialect: DialectDollar, in: "SELECT 1", want: "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.in); got != tt.want {
				t.Errorf("Rebind(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	if DialectFor(config.DriverPostgres) != DialectDollar {
		t.Error("postgres should use dollar placeholders")
	}
	for _, d := range []string{config.DriverSQLite, config.DriverMySQL} {
		if DialectFor(d) != DialectQuestion {
			t.Errorf("%s should use question placeholders", d)
		}
	}
}

func TestSchema_Verify(t *testing.T) {
	conn, _ := openLogged(t)
	if _, err := conn.Exec(`CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, elevation REAL)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	ctx := context.Background()

	ok := Schema{Version: 1, Tables: []Table{{Name: "station", Columns: []string{"station", "name"}}}}
	if err := ok.Verify(ctx, conn); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	missingCol := Schema{Version: 1, Tables: []Table{{Name: "station", Columns: []string{"station", "latitude"}}}}
	err := missingCol.Verify(ctx, conn)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Verify(missing column) = %v; want ErrSchemaMismatch", err)
	}
	if !strings.Contains(err.Error(), "latitude") {
		t.Errorf("error %q does not name the missing column", err)
	}

	missingTable := Schema{Version: 1, Tables: []Table{{Name: "measurement", Columns: []string{"date"}}}}
	if err := missingTable.Verify(ctx, conn); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Verify(missing table) = %v; want ErrSchemaMismatch", err)
	}
}
