package controller

import (
	"context"
	"net/http"
	"time"

	"climate-server/internal/modules/climate/types"
)

// ClimateService is the query surface the HTTP layer needs.
type ClimateService interface {
	PrecipitationLastYear(ctx context.Context) ([]types.Precipitation, error)
	Stations(ctx context.Context) ([]types.Station, error)
	MostActiveStationTemperatures(ctx context.Context) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, start time.Time, end *time.Time) (types.TemperatureStats, error)
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
}

func NewClimateController(service ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleHome)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleStatsFrom)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleStatsRange)
}
