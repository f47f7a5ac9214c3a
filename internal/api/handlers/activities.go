// Package handlers contains the HTTP handler implementations for the
// SkyCast API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"skycast/internal/activities"
	"skycast/internal/core"
	"skycast/internal/types"
)

// CurrentWeatherFetcher provides the conditions the recommendation engine
// scores against. Satisfied by the weather aggregator and by single-provider
// clients alike.
type CurrentWeatherFetcher interface {
	Current(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error)
}

// --- Request/Response Models ---

// RecommendationsRequest is the request body for
// POST /v1/activities/recommendations.
// Coordinates are range-checked in the handler with ValidateCoordinate,
// and only when no inline weather snapshot is supplied.
type RecommendationsRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// Weather, when supplied, is scored directly instead of fetching
	// current conditions for the coordinate.
	Weather *types.WeatherSnapshot `json:"weather,omitempty"`

	// Preferences override the stored ones for this request; when omitted,
	// an authenticated user's saved preferences apply.
	Preferences *types.ActivityPreferences `json:"preferences,omitempty"`
}

// RecommendationDTO is one scored catalog entry in the response.
type RecommendationDTO struct {
	Activity *types.Activity `json:"activity"`
	Score    float64         `json:"score"`
}

// RecommendationsResponse is the response body for
// POST /v1/activities/recommendations.
type RecommendationsResponse struct {
	Recommendations []RecommendationDTO    `json:"recommendations"`
	Weather         *types.WeatherSnapshot `json:"weather,omitempty"`
	Daypart         types.TimeOfDay        `json:"daypart,omitempty"`
	Season          types.Season           `json:"season,omitempty"`
}

// --- Handler ---

// ActivityHandler serves the activity catalog, preference-based browsing,
// and weather-aware recommendations.
type ActivityHandler struct {
	engine    *activities.Engine
	weather   CurrentWeatherFetcher
	validator *core.Validator
	logger    *slog.Logger
}

// NewActivityHandler creates a new ActivityHandler with the provided
// dependencies.
func NewActivityHandler(
	engine *activities.Engine,
	weather CurrentWeatherFetcher,
	v *core.Validator,
	l *slog.Logger,
) *ActivityHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ActivityHandler{
		engine:    engine,
		weather:   weather,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the activity routes. All activity endpoints are
// public; authenticated users get their saved preferences applied.
func (h *ActivityHandler) RegisterRoutes(r chi.Router) {
	r.Route("/activities", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/browse", h.Browse)
		r.Post("/recommendations", h.Recommendations)
	})
}

// List handles GET /v1/activities: the full catalog in stable order.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.engine.All()})
}

// Browse handles GET /v1/activities/browse: catalog filtering on preference
// compatibility alone, with no weather involved. Preferences arrive as query
// parameters so the endpoint stays linkable.
func (h *ActivityHandler) Browse(w http.ResponseWriter, r *http.Request) {
	prefs, err := browsePrefsFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if prefs == nil {
		prefs = h.resolvePreferences(r, nil)
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.engine.Browse(prefs)})
}

// Recommendations handles POST /v1/activities/recommendations. When the
// weather fetch fails the endpoint degrades: an empty list plus a warning
// rather than an error, so the dashboard can still render.
func (h *ActivityHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationsRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := types.ValidateActivityPreferences(req.Preferences); err != nil {
		core.Error(w, r, err)
		return
	}

	prefs := h.resolvePreferences(r, req.Preferences)

	weather := req.Weather
	if weather == nil {
		if err := types.ValidateCoordinate(req.Lat, req.Lon); err != nil {
			core.Error(w, r, err)
			return
		}
		fetched, err := h.weather.Current(r.Context(), req.Lat, req.Lon)
		if err != nil {
			h.logger.Warn("weather unavailable for recommendations",
				slog.Float64("lat", req.Lat),
				slog.Float64("lon", req.Lon),
				slog.String("error", err.Error()),
			)
			core.JSON(w, r, http.StatusOK, core.APIResponse{
				Data: RecommendationsResponse{Recommendations: []RecommendationDTO{}},
				Meta: &types.ResponseMeta{
					Warnings: []string{"weather data unavailable; no recommendations generated"},
				},
			})
			return
		}
		weather = fetched
	}

	scored := h.engine.RecommendScored(weather, prefs)
	recs := make([]RecommendationDTO, 0, len(scored))
	for _, s := range scored {
		recs = append(recs, RecommendationDTO{Activity: s.Activity, Score: s.Score})
	}

	resp := RecommendationsResponse{
		Recommendations: recs,
		Weather:         weather,
		Daypart:         activities.ClassifyDaypart(weather.ObservedAt, weather.Sunrise, weather.Sunset),
		Season:          activities.ClassifySeason(weather.ObservedAt),
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp})
}

// resolvePreferences picks the effective preferences for a request: an
// explicit override wins, then the authenticated user's saved preferences,
// then nil (neutral scoring).
func (h *ActivityHandler) resolvePreferences(r *http.Request, override *types.ActivityPreferences) *types.ActivityPreferences {
	if override != nil {
		return override
	}
	if user, ok := types.GetUser(r.Context()); ok {
		return user.Preferences.ActivityPreferences
	}
	return nil
}

// browsePrefsFromQuery builds ActivityPreferences from browse query
// parameters. Returns nil when no parameter is present.
func browsePrefsFromQuery(r *http.Request) (*types.ActivityPreferences, error) {
	q := r.URL.Query()
	prefs := &types.ActivityPreferences{}
	found := false

	if raw := q.Get("outdoor_preference"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
				"outdoor_preference must be a number between 0 and 1", nil)
		}
		prefs.OutdoorPreference = &v
		found = true
	}
	if raw := q.Get("physical_level"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidField,
				"physical_level must be a number between 0 and 1", nil)
		}
		prefs.PhysicalLevel = &v
		found = true
	}
	if raw := q.Get("time_of_day"); raw != "" {
		prefs.TimeOfDay = types.TimeOfDay(raw)
		found = true
	}
	if raw := q.Get("disliked"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				prefs.DislikedActivities = append(prefs.DislikedActivities, tag)
			}
		}
		found = true
	}

	if !found {
		return nil, nil
	}
	if err := types.ValidateActivityPreferences(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
