package service

import (
	"context"
	"log/slog"
	"time"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// Service answers the climate queries on top of a ClimateRepository. Every
// method is a pure read; calling it twice against an unchanged store gives
// the same result.
type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

// PrecipitationLastYear lists every measurement in the year ending at the
// most recent measurement date. An empty store yields an empty list.
func (s *Service) PrecipitationLastYear(ctx context.Context) ([]types.Precipitation, error) {
	window, ok, err := s.lastYear(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.Precipitation{}, nil
	}
	return s.repository.GetPrecipitation(ctx, window)
}

func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	return s.repository.GetStations(ctx)
}

// MostActiveStationTemperatures returns the last year of temperature
// observations of the station with the most non-null observations in that
// year. Ties go to the smallest station id.
func (s *Service) MostActiveStationTemperatures(ctx context.Context) ([]types.TemperatureObservation, error) {
	window, ok, err := s.lastYear(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []types.TemperatureObservation{}, nil
	}

	activity, err := s.repository.GetStationActivity(ctx, window)
	if err != nil {
		return nil, err
	}
	if len(activity) == 0 {
		return []types.TemperatureObservation{}, nil
	}
	busiest := activity[0]
	slog.Debug("most active station", "station", busiest.StationID, "observations", busiest.Observations,
		"from", window.Start, "to", window.End)

	return s.repository.GetStationTemperatures(ctx, busiest.StationID, window)
}

// TemperatureStats aggregates tobs from start onward and, when end is set,
// up to end inclusive. end before start is not an error; it matches nothing.
func (s *Service) TemperatureStats(ctx context.Context, start time.Time, end *time.Time) (types.TemperatureStats, error) {
	stats := types.TemperatureStats{StartDate: start.Format(types.DateLayout)}
	if end != nil {
		e := end.Format(types.DateLayout)
		stats.EndDate = &e
	}

	agg, err := s.repository.GetTemperatureStats(ctx, stats.StartDate, stats.EndDate)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	stats.TemperatureAggregate = agg
	return stats, nil
}

// CheckReadiness reports whether the store still carries the columns the queries read.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.repository.CheckReadiness(ctx)
}

func (s *Service) lastYear(ctx context.Context) (types.DateWindow, bool, error) {
	mostRecent, ok, err := s.repository.GetMostRecentDate(ctx)
	if err != nil || !ok {
		return types.DateWindow{}, false, err
	}
	return types.WindowEndingAt(mostRecent), true, nil
}
