package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/disaster-risk-service/internal/advisor"
	"github.com/couchcryptid/disaster-risk-service/internal/domain"
	"github.com/couchcryptid/disaster-risk-service/internal/forecast"
)

const maxBodyBytes = 4 << 10

type forecastResponse struct {
	domain.Forecast
	SelectedDay *int                       `json:"selected_day,omitempty"`
	Day         *domain.DisasterPrediction `json:"day,omitempty"`
}

type locationSummary struct {
	Name       string                     `json:"name"`
	Coordinate domain.Coordinate          `json:"coordinate"`
	Selected   int                        `json:"selected_day"`
	Day        *domain.DisasterPrediction `json:"day,omitempty"`
	Synthetic  bool                       `json:"synthetic"`
}

type selectionRequest struct {
	Day *int `json:"day"`
}

type adviceRequest struct {
	Message string `json:"message"`
}

type adviceResponse struct {
	Reply string `json:"reply"`
}

// handleForecast serves GET /api/v1/forecast?lat=&lon= or ?place=, with optional day=.
// Without coordinates or a place the default location is forecast.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, ok := parseDay(w, q.Get("day"))
	if !ok {
		return
	}

	var (
		pos   *domain.Coordinate
		label string
	)
	switch place := q.Get("place"); {
	case place != "":
		coord, name, err := s.forecasts.Locate(r.Context(), place)
		switch {
		case errors.Is(err, forecast.ErrPlaceNotFound):
			writeError(w, http.StatusNotFound, "place not found")
			return
		case errors.Is(err, forecast.ErrGeocodingDisabled):
			writeError(w, http.StatusNotImplemented, "place lookup is disabled")
			return
		case err != nil:
			s.logger.Warn("place lookup failed", "place", place, "error", err)
			writeError(w, http.StatusBadGateway, "place lookup failed")
			return
		}
		pos, label = &coord, name
	case q.Get("lat") != "" || q.Get("lon") != "":
		coord, err := parseCoordinate(q.Get("lat"), q.Get("lon"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pos = &coord
	}

	f := s.forecasts.Forecast(r.Context(), pos)
	if label != "" && f.Location == domain.UnknownLocation {
		f.Location = label
	}

	resp := forecastResponse{Forecast: f}
	if day != nil {
		row, _ := f.Day(*day)
		resp.SelectedDay = day
		resp.Day = &row
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	locations := s.watch.Locations()
	out := make([]locationSummary, 0, len(locations))
	for _, loc := range locations {
		summary := locationSummary{Name: loc.Name, Coordinate: loc.Coordinate, Selected: domain.TodayIndex}
		if view, err := s.watch.View(loc.Name); err == nil {
			if snap, ok := view.Snapshot(); ok {
				summary.Selected = snap.Selected
				summary.Day = &snap.Day
				summary.Synthetic = snap.Forecast.Synthetic
			}
		}
		out = append(out, summary)
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, view)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookupView(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Day == nil {
		writeError(w, http.StatusBadRequest, `body must be {"day": <0-6>}`)
		return
	}
	if err := view.Select(*req.Day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeSnapshot(w, view)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `body must be {"message": "..."}`)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, adviceResponse{Reply: advisor.Respond(req.Message)})
}

func (s *Server) lookupView(w http.ResponseWriter, r *http.Request) (*forecast.View, bool) {
	view, err := s.watch.View(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown location")
		return nil, false
	}
	return view, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, view *forecast.View) {
	snap, ok := view.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "forecast not available yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

// parseDay validates the optional day query parameter. It writes the error response
// itself and reports false when the value is invalid.
func parseDay(w http.ResponseWriter, raw string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 0 || day >= domain.WindowSize {
		writeError(w, http.StatusBadRequest, "day must be an integer between 0 and 6")
		return nil, false
	}
	return &day, true
}

// parseCoordinate requires both components to be numbers. Range is not checked here;
// an out-of-range position falls back to the default location with an advisory.
func parseCoordinate(lat, lon string) (domain.Coordinate, error) {
	if lat == "" || lon == "" {
		return domain.Coordinate{}, errors.New("lat and lon must be provided together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("lat must be a number")
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("lon must be a number")
	}
	return domain.Coordinate{Lat: la, Lon: lo}, nil
}
