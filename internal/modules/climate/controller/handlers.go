package controller

import (
	"bytes"
	"log/slog"
	"net/http"

	"climate-server/internal/modules/climate/types"
	"climate-server/internal/modules/climate/views"
	"climate-server/internal/utils"
)

type stationResponse struct {
	Elevation float64 `json:"elevation"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// temperatureSummaryResponse fields are declared in key order so the body
// matches the map-based responses, which encoding/json sorts.
type temperatureSummaryResponse struct {
	AvgTemp  *float64 `json:"avg temperature"`
	FromDate *string  `json:"from date"`
	MaxTemp  *float64 `json:"max temperature"`
	MinTemp  *float64 `json:"min temperature"`
	ToDate   *string  `json:"to date"`
}

func (c *climateControllerImpl) handleHome(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := views.RenderHome(&buf, &views.HomeData{Title: appTitle, Routes: apiRoutes}); err != nil {
		slog.Error("home template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	rows, err := c.repository.GetPrecipitationSince(r.Context(), trailingYearStartDate())
	if err != nil {
		slog.ErrorContext(r.Context(), "precipitation: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load precipitation")
		return
	}
	utils.WriteJSON(w, http.StatusOK, byDate(rows))
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.repository.GetStations(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "stations: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load stations")
		return
	}
	out := make(map[string]stationResponse, len(stations))
	for _, s := range stations {
		out[s.ID] = stationResponse{
			Elevation: s.Elevation,
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Name:      s.Name,
		}
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	station, rows, err := c.repository.GetMostActiveStationTobs(r.Context(), trailingYearStartDate())
	if err != nil {
		slog.ErrorContext(r.Context(), "tobs: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature observations")
		return
	}
	slog.DebugContext(r.Context(), "tobs: most active station", "station", station, "rows", len(rows))
	utils.WriteJSON(w, http.StatusOK, byDate(rows))
}

// handleTemperatureSummary serves both the open-ended /{start} and the
// closed /{start}/{end} routes. Dates are passed to the store unvalidated.
func (c *climateControllerImpl) handleTemperatureSummary(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	var end *string
	if e := r.PathValue("end"); e != "" {
		end = &e
	}

	s, err := c.repository.GetTemperatureSummary(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "temperature summary: query failed", "start", start, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load temperature summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, temperatureSummaryResponse{
		AvgTemp:  s.AvgTemp,
		FromDate: s.FromDate,
		MaxTemp:  s.MaxTemp,
		MinTemp:  s.MinTemp,
		ToDate:   s.ToDate,
	})
}

// byDate keys values by date; a later row for the same date replaces an
// earlier one.
func byDate(rows []types.DailyValue) map[string]float64 {
	out := make(map[string]float64, len(rows))
	for _, v := range rows {
		out[v.Date] = v.Value
	}
	return out
}
