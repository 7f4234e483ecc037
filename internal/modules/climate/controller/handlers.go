package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

var homeRoutes = []views.Route{
	{Path: "/api/v1.0/precipitation", Description: "precipitation for the last year of data"},
	{Path: "/api/v1.0/stations", Description: "all weather stations"},
	{Path: "/api/v1.0/tobs", Description: "last year of temperatures at the most active station"},
	{Path: "/api/v1.0/<start>", Description: "min, avg and max temperature from start"},
	{Path: "/api/v1.0/<start>/<end>", Description: "min, avg and max temperature from start to end inclusive"},
}

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	data := views.HomeData{
		Title:      "Hawaii Climate API",
		Routes:     homeRoutes,
		DateFormat: "YYYY-MM-DD",
	}
	var buf bytes.Buffer
	if err := views.RenderHome(&buf, &data); err != nil {
		slog.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("home: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.service.PrecipitationLastYear(r.Context())
	if err != nil {
		writeServiceError(w, r, "precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, r, "stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.MostActiveStationTemperatures(r.Context())
	if err != nil {
		writeServiceError(w, r, "tobs", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleStatsFrom(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate("start", r.PathValue("start"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.TemperatureStats(r.Context(), start, nil)
	if err != nil {
		writeServiceError(w, r, "temperature stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStatsRange(w http.ResponseWriter, r *http.Request) {
	start, err := parseDate("start", r.PathValue("start"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDate("end", r.PathValue("end"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := c.service.TemperatureStats(r.Context(), start, &end)
	if err != nil {
		writeServiceError(w, r, "temperature stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
