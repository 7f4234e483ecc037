package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
)

// recordingHandler keeps every record so tests can inspect the sql attrs.
type recordingHandler struct {
	mu      sync.Mutex
	records []map[string]slog.Value
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.records = append(h.records, m)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) last(t *testing.T) map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i]["msg"].String() == "sql" {
			return h.records[i]
		}
	}
	t.Fatal("no sql record logged")
	return nil
}

func openLogged(t *testing.T) (*sql.DB, *recordingHandler) {
	t.Helper()
	handler := &recordingHandler{}
	connector, err := NewLoggingConnector(":memory:", slog.New(handler))
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, handler
}

func TestNewLoggingConnector_rejectsEmptyDSN(t *testing.T) {
	if _, err := NewLoggingConnector("", nil); err == nil {
		t.Fatal("NewLoggingConnector(\"\") error = nil; want error")
	}
}

func TestNewLoggingConnector_nilLoggerUsesDefault(t *testing.T) {
	c, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if c.(*loggingConnector).logger != slog.Default() {
		t.Error("logger is not slog.Default()")
	}
}

func TestLoggingConnector_driverOpenUnsupported(t *testing.T) {
	c, err := NewLoggingConnector(":memory:", nil)
	if err != nil {
		t.Fatalf("NewLoggingConnector: %v", err)
	}
	if _, err := c.Driver().Open(":memory:"); err == nil {
		t.Fatal("Driver().Open error = nil; want error")
	}
}

func TestLoggingConnector_logsExecWithArgs(t *testing.T) {
	conn, handler := openLogged(t)

	if _, err := conn.Exec(`CREATE TABLE station (station TEXT, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO station (station, name) VALUES (?, ?)`, "USC00519397", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got := handler.last(t)
	if got["op"].String() != "exec" {
		t.Errorf("op = %q; want exec", got["op"].String())
	}
	if got["sql"].String() != `INSERT INTO station (station, name) VALUES (?, ?)` {
		t.Errorf("sql = %q", got["sql"].String())
	}
	args, ok := got["args"].Any().([]string)
	if !ok || len(args) != 2 || args[0] != "USC00519397" || args[1] != "NULL" {
		t.Errorf("args = %#v; want [USC00519397 NULL]", got["args"].Any())
	}
	if _, ok := got["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestLoggingConnector_logsQuery(t *testing.T) {
	conn, handler := openLogged(t)

	var one int
	if err := conn.QueryRow(`SELECT 1`).Scan(&one); err != nil {
		t.Fatalf("query row: %v", err)
	}

	got := handler.last(t)
	if got["op"].String() != "query" || got["sql"].String() != `SELECT 1` {
		t.Errorf("record = op %q sql %q; want query SELECT 1", got["op"].String(), got["sql"].String())
	}
	if _, ok := got["error"]; ok {
		t.Error("unexpected error attr on successful query")
	}
}

func TestLoggingConnector_logsPrepareFailure(t *testing.T) {
	conn, handler := openLogged(t)

	if _, err := conn.Query(`SELECT * FROM missing_table`); err == nil {
		t.Fatal("query on missing table succeeded")
	}

	got := handler.last(t)
	if got["op"].String() != "prepare" {
		t.Errorf("op = %q; want prepare", got["op"].String())
	}
	if _, ok := got["error"]; !ok {
		t.Error("error attr missing")
	}
}

func TestLoggingConnector_transactions(t *testing.T) {
	conn, _ := openLogged(t)

	if _, err := conn.Exec(`CREATE TABLE measurement (station TEXT, date TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(`INSERT INTO measurement VALUES ('USC1', '2017-08-01')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM measurement`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count after rollback = %d; want 0", n)
	}
}
