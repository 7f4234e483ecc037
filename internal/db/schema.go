package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrSchemaMismatch = errors.New("schema mismatch")

// Table names a table and the columns the service reads from it.
// Extra columns in the store are allowed.
type Table struct {
	Name    string
	Columns []string
}

// Schema is a versioned set of tables the store must provide.
type Schema struct {
	Version int
	Tables  []Table
}

// Verify checks every table of s against the live store. A table that cannot
// be selected from or lacks a column yields an error wrapping ErrSchemaMismatch.
func (s Schema) Verify(ctx context.Context, conn *sql.DB) error {
	for _, t := range s.Tables {
		cols, err := columnsOf(ctx, conn, t.Name)
		if err != nil {
			return fmt.Errorf("%w: v%d table %q: %w", ErrSchemaMismatch, s.Version, t.Name, err)
		}
		var missing []string
		for _, want := range t.Columns {
			if _, ok := cols[want]; !ok {
				missing = append(missing, want)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: v%d table %q missing columns %s", ErrSchemaMismatch, s.Version, t.Name, strings.Join(missing, ", "))
		}
	}
	return nil
}

func columnsOf(ctx context.Context, conn *sql.DB, table string) (map[string]struct{}, error) {
	// table comes from a compiled-in Schema, never from user input.
	rows, err := conn.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = struct{}{}
	}
	return out, rows.Err()
}
