// Package importer loads the station and measurement CSV files the climate
// dataset ships as into an initialised store.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"climate-server/internal/db"
	"climate-server/internal/modules/climate/types"
)

// ErrBadInput marks CSV content that cannot be loaded.
var ErrBadInput = errors.New("bad csv input")

// Ids are assigned here because only SQLite fills an INTEGER PRIMARY KEY on
// its own.
const (
	insertStationSQL     = `INSERT INTO station (id, station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?, ?)`
	insertMeasurementSQL = `INSERT INTO measurement (id, station, date, prcp, tobs) VALUES (?, ?, ?, ?, ?)`

	// SQLite only enforces the foreign key when the connection enables it.
	orphanMeasurementSQL = `SELECT m.station FROM measurement m
LEFT JOIN station s ON s.station = m.station
WHERE s.station IS NULL
LIMIT 1`
)

var (
	stationColumns     = []string{"station", "name"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

type Result struct {
	Stations     int
	Measurements int
}

// Import loads both files inside one transaction. Either reader may be nil.
// Empty cells become NULL; the header row is required and matched by name.
func Import(ctx context.Context, conn *sql.DB, dialect db.Dialect, stations, measurements io.Reader) (Result, error) {
	var res Result

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("import rollback", "error", rbErr)
			}
		}
	}()

	if stations != nil {
		res.Stations, err = load(ctx, tx, dialect.Rebind(insertStationSQL), "station", stations, stationColumns, stationArgs)
		if err != nil {
			return Result{}, err
		}
	}
	if measurements != nil {
		res.Measurements, err = load(ctx, tx, dialect.Rebind(insertMeasurementSQL), "measurement", measurements, measurementColumns, measurementArgs)
		if err != nil {
			return Result{}, err
		}
		if err = checkStationRefs(ctx, tx); err != nil {
			return Result{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

// checkStationRefs fails when any measurement names a station the store does
// not hold.
func checkStationRefs(ctx context.Context, tx *sql.Tx) error {
	var station string
	err := tx.QueryRowContext(ctx, orphanMeasurementSQL).Scan(&station)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check measurement stations: %w", err)
	}
	return fmt.Errorf("%w: measurement references unknown station %q", ErrBadInput, station)
}

type rowFunc func(get func(col string) string) ([]any, error)

// load reads r into table. table is one of the two fixed table names, never
// caller input.
func load(ctx context.Context, tx *sql.Tx, query, table string, r io.Reader, required []string, args rowFunc) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %s: missing header row", ErrBadInput, table)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadInput, table, err)
	}
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := colIdx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %s: header lacks %s", ErrBadInput, table, strings.Join(missing, ", "))
	}

	var lastID int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM `+table).Scan(&lastID); err != nil {
		return 0, fmt.Errorf("next %s id: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("%w: %s: %w", ErrBadInput, table, err)
		}
		line, _ := reader.FieldPos(0)
		get := func(col string) string {
			i, ok := colIdx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		values, err := args(get)
		if err != nil {
			return n, fmt.Errorf("%w: %s line %d: %w", ErrBadInput, table, line, err)
		}
		lastID++
		if _, err := stmt.ExecContext(ctx, append([]any{lastID}, values...)...); err != nil {
			return n, fmt.Errorf("insert %s line %d: %w", table, line, err)
		}
		n++
	}
	slog.Info("csv loaded", "table", table, "rows", n)
	return n, nil
}

func stationArgs(get func(string) string) ([]any, error) {
	id := get("station")
	if id == "" {
		return nil, errors.New("empty station")
	}
	lat, err := nullableFloat("latitude", get("latitude"))
	if err != nil {
		return nil, err
	}
	lng, err := nullableFloat("longitude", get("longitude"))
	if err != nil {
		return nil, err
	}
	elev, err := nullableFloat("elevation", get("elevation"))
	if err != nil {
		return nil, err
	}
	return []any{id, get("name"), lat, lng, elev}, nil
}

func measurementArgs(get func(string) string) ([]any, error) {
	id := get("station")
	if id == "" {
		return nil, errors.New("empty station")
	}
	date := get("date")
	if _, err := time.Parse(types.DateLayout, date); err != nil {
		return nil, fmt.Errorf("date %q is not YYYY-MM-DD", date)
	}
	prcp, err := nullableFloat("prcp", get("prcp"))
	if err != nil {
		return nil, err
	}
	if prcp.Valid && prcp.Float64 < 0 {
		return nil, fmt.Errorf("negative prcp %v", prcp.Float64)
	}
	tobs, err := nullableFloat("tobs", get("tobs"))
	if err != nil {
		return nil, err
	}
	return []any{id, date, prcp, tobs}, nil
}

func nullableFloat(col, s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("%s %q is not a number", col, s)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
