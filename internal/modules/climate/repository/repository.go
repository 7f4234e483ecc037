package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"climate-server/internal/db"
	"climate-server/internal/metrics"
	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-most-recent-date.sql
var getMostRecentDateSQL string

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-station-activity.sql
var getStationActivitySQL string

//go:embed sql/get-station-temperatures.sql
var getStationTemperaturesSQL string

//go:embed sql/get-temperature-stats-from.sql
var getTemperatureStatsFromSQL string

//go:embed sql/get-temperature-stats-range.sql
var getTemperatureStatsRangeSQL string

// ErrStoreUnavailable wraps every failure to reach or query the store.
var ErrStoreUnavailable = errors.New("data store unavailable")

// Schema is the part of the store this repository reads. Version it when a
// query starts depending on another column.
var Schema = db.Schema{
	Version: 1,
	Tables: []db.Table{
		{Name: "station", Columns: []string{"station", "name"}},
		{Name: "measurement", Columns: []string{"station", "date", "prcp", "tobs"}},
	},
}

type ClimateRepository interface {
	GetStations(ctx context.Context) ([]types.Station, error)
	// GetMostRecentDate returns ok=false when measurement is empty.
	GetMostRecentDate(ctx context.Context) (date time.Time, ok bool, err error)
	GetPrecipitation(ctx context.Context, window types.DateWindow) ([]types.Precipitation, error)
	// GetStationActivity ranks stations by temperature observation count
	// inside window, busiest first, ties by station id ascending.
	GetStationActivity(ctx context.Context, window types.DateWindow) ([]types.StationActivity, error)
	GetStationTemperatures(ctx context.Context, stationID string, window types.DateWindow) ([]types.TemperatureObservation, error)
	// GetTemperatureStats aggregates tobs for date >= start and, when end is
	// non-nil, date <= end.
	GetTemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureAggregate, error)
	CheckReadiness(ctx context.Context) error
}

type repositoryImpl struct {
	db      *sql.DB
	dialect db.Dialect
}

func NewRepository(conn *sql.DB, dialect db.Dialect) ClimateRepository {
	return &repositoryImpl{db: conn, dialect: dialect}
}

func (r *repositoryImpl) query(ctx context.Context, name, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	metrics.RecordDBQuery(name, start, err)
	if err != nil {
		return nil, unavailable(name, err)
	}
	return rows, nil
}

func (r *repositoryImpl) queryRow(ctx context.Context, name, query string, args []any, dest ...any) error {
	start := time.Now()
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), args...).Scan(dest...)
	metrics.RecordDBQuery(name, start, err)
	if err != nil {
		return unavailable(name, err)
	}
	return nil
}

func unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, name, err)
}

func closeRows(rows *sql.Rows, name string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", name, "error", err)
	}
}

func (r *repositoryImpl) GetStations(ctx context.Context) ([]types.Station, error) {
	const name = "get_stations"
	rows, err := r.query(ctx, name, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, name)

	out := []types.Station{}
	for rows.Next() {
		var s types.Station
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, unavailable(name, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(name, err)
	}
	return out, nil
}

func (r *repositoryImpl) GetMostRecentDate(ctx context.Context) (time.Time, bool, error) {
	var d nullISODate
	if err := r.queryRow(ctx, "get_most_recent_date", getMostRecentDateSQL, nil, &d); err != nil {
		return time.Time{}, false, err
	}
	if !d.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(types.DateLayout, d.Date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: most recent date %q: %w", ErrStoreUnavailable, d.Date, err)
	}
	return t, true, nil
}

func (r *repositoryImpl) GetPrecipitation(ctx context.Context, window types.DateWindow) ([]types.Precipitation, error) {
	const name = "get_precipitation"
	rows, err := r.query(ctx, name, getPrecipitationSQL, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, name)

	out := []types.Precipitation{}
	for rows.Next() {
		var (
			date isoDate
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&date, &prcp); err != nil {
			return nil, unavailable(name, err)
		}
		out = append(out, types.Precipitation{Date: string(date), Prcp: floatPtr(prcp)})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(name, err)
	}
	return out, nil
}

func (r *repositoryImpl) GetStationActivity(ctx context.Context, window types.DateWindow) ([]types.StationActivity, error) {
	const name = "get_station_activity"
	rows, err := r.query(ctx, name, getStationActivitySQL, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, name)

	out := []types.StationActivity{}
	for rows.Next() {
		var a types.StationActivity
		if err := rows.Scan(&a.StationID, &a.Observations); err != nil {
			return nil, unavailable(name, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(name, err)
	}
	return out, nil
}

func (r *repositoryImpl) GetStationTemperatures(ctx context.Context, stationID string, window types.DateWindow) ([]types.TemperatureObservation, error) {
	const name = "get_station_temperatures"
	rows, err := r.query(ctx, name, getStationTemperaturesSQL, stationID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, name)

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var (
			date isoDate
			tobs sql.NullFloat64
		)
		if err := rows.Scan(&date, &tobs); err != nil {
			return nil, unavailable(name, err)
		}
		out = append(out, types.TemperatureObservation{Date: string(date), Temperature: floatPtr(tobs)})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(name, err)
	}
	return out, nil
}

func (r *repositoryImpl) GetTemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureAggregate, error) {
	name, query, args := "get_temperature_stats_from", getTemperatureStatsFromSQL, []any{start}
	if end != nil {
		name, query, args = "get_temperature_stats_range", getTemperatureStatsRangeSQL, []any{start, *end}
	}

	var minT, avgT, maxT sql.NullFloat64
	if err := r.queryRow(ctx, name, query, args, &minT, &avgT, &maxT); err != nil {
		return types.TemperatureAggregate{}, err
	}
	return types.TemperatureAggregate{
		Min: floatPtr(minT),
		Avg: floatPtr(avgT),
		Max: floatPtr(maxT),
	}, nil
}

// CheckReadiness verifies the store still matches Schema.
func (r *repositoryImpl) CheckReadiness(ctx context.Context) error {
	if err := Schema.Verify(ctx, r.db); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
