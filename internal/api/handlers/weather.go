package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"skycast/internal/core"
	"skycast/internal/types"
	"skycast/internal/weather"
)

// historicalDayFormat is the wire format for the historical date parameter.
const historicalDayFormat = "2006-01-02"

// Aggregator abstracts the multi-provider consensus fetch.
type Aggregator interface {
	Aggregate(ctx context.Context, lat, lon float64) (*types.AggregatedWeather, error)
}

// GeoWeatherProvider covers the OpenWeather-specific operations beyond
// current conditions: geocoding, air quality, and historical lookback.
type GeoWeatherProvider interface {
	CurrentWeatherFetcher
	Historical(ctx context.Context, lat, lon float64, at time.Time) (*types.WeatherSnapshot, error)
	Geocode(ctx context.Context, city string) ([]weather.GeocodeResult, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	AirQuality(ctx context.Context, lat, lon float64) (*types.AirQuality, error)
}

// --- Response Models ---

// CurrentWeatherResponse pairs a snapshot with the resolved place name and
// the display annotations the dashboard's conditions card renders.
type CurrentWeatherResponse struct {
	Weather       *types.WeatherSnapshot `json:"weather"`
	Location      string                 `json:"location_name,omitempty"`
	UVBand        string                 `json:"uv_band,omitempty"`
	WindDirection string                 `json:"wind_direction,omitempty"`
}

// AirQualityResponse pairs the raw reading with its human-readable banding.
type AirQualityResponse struct {
	AirQuality  *types.AirQuality    `json:"air_quality"`
	Description types.AQIDescription `json:"description"`
}

// HistoricalResponse is the response body for GET /v1/weather/historical.
type HistoricalResponse struct {
	Day       string                   `json:"day"`
	Snapshots []*types.WeatherSnapshot `json:"snapshots"`
}

// --- Handler ---

// WeatherHandler serves current, aggregated, historical, and air quality
// weather data plus geocoding.
type WeatherHandler struct {
	provider   GeoWeatherProvider
	aggregator Aggregator
	archive    types.SnapshotArchive
	logger     *slog.Logger
}

// NewWeatherHandler creates a new WeatherHandler with the provided
// dependencies. The archive may be nil, in which case historical lookups go
// straight to the provider and snapshots are not persisted.
func NewWeatherHandler(
	provider GeoWeatherProvider,
	aggregator Aggregator,
	archive types.SnapshotArchive,
	l *slog.Logger,
) *WeatherHandler {
	if l == nil {
		l = slog.Default()
	}
	return &WeatherHandler{
		provider:   provider,
		aggregator: aggregator,
		archive:    archive,
		logger:     l,
	}
}

// RegisterRoutes mounts the weather and geocoding routes. All are public.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(r chi.Router) {
		r.Get("/current", h.Current)
		r.Get("/aggregate", h.Aggregate)
		r.Get("/air-quality", h.AirQuality)
		r.Get("/historical", h.Historical)
	})
	r.Route("/geocode", func(r chi.Router) {
		r.Get("/", h.Geocode)
		r.Get("/reverse", h.ReverseGeocode)
	})
}

// Current handles GET /v1/weather/current: the primary provider's snapshot
// with a best-effort reverse-geocoded place name.
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	snap, err := h.provider.Current(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.archiveSnapshot(r.Context(), snap)

	resp := CurrentWeatherResponse{
		Weather:       snap,
		UVBand:        weather.DescribeUVIndex(snap.UVIndex),
		WindDirection: weather.CompassDirection(snap.WindDeg),
	}
	var meta *types.ResponseMeta
	if name, nameErr := h.provider.ReverseGeocode(r.Context(), lat, lon); nameErr == nil {
		resp.Location = name
	} else {
		h.logger.Warn("reverse geocode failed", slog.String("error", nameErr.Error()))
		meta = &types.ResponseMeta{Warnings: []string{"location name unavailable"}}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: resp, Meta: meta})
}

// Aggregate handles GET /v1/weather/aggregate: the multi-provider consensus
// view. Partial provider failures surface as warnings, not errors.
func (h *WeatherHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	agg, err := h.aggregator.Aggregate(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	var meta *types.ResponseMeta
	for provider := range agg.ProviderErrors {
		if meta == nil {
			meta = &types.ResponseMeta{}
		}
		meta.Warnings = append(meta.Warnings, "provider degraded: "+string(provider))
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: agg, Meta: meta})
}

// AirQuality handles GET /v1/weather/air-quality.
func (h *WeatherHandler) AirQuality(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	aq, err := h.provider.AirQuality(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: AirQualityResponse{
			AirQuality:  aq,
			Description: weather.DescribeAQI(aq.AQI),
		},
	})
}

// Historical handles GET /v1/weather/historical?lat&lon&date=YYYY-MM-DD.
// The archive is consulted first; on a miss the provider's lookback endpoint
// fills in (noon of the requested day) and the result is archived.
func (h *WeatherHandler) Historical(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	day, err := time.Parse(historicalDayFormat, r.URL.Query().Get("date"))
	if err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidDate,
			"date must be formatted YYYY-MM-DD", err))
		return
	}
	day = day.UTC()

	if h.archive != nil {
		snaps, archiveErr := h.archive.GetByDay(r.Context(), lat, lon, day)
		if archiveErr == nil {
			core.JSON(w, r, http.StatusOK, core.APIResponse{
				Data: HistoricalResponse{Day: day.Format(historicalDayFormat), Snapshots: snaps},
			})
			return
		}
	}

	snap, err := h.provider.Historical(r.Context(), lat, lon, day.Add(12*time.Hour))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	h.archiveSnapshot(r.Context(), snap)

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: HistoricalResponse{
			Day:       day.Format(historicalDayFormat),
			Snapshots: []*types.WeatherSnapshot{snap},
		},
	})
}

// Geocode handles GET /v1/geocode?q=<city>.
func (h *WeatherHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("q")
	if city == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"query parameter q is required", nil))
		return
	}

	results, err := h.provider.Geocode(r.Context(), city)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if len(results) == 0 {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundLocation,
			"no locations matched that query", nil))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: results})
}

// ReverseGeocode handles GET /v1/geocode/reverse?lat&lon.
func (h *WeatherHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonFromQuery(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	name, err := h.provider.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"name": name}})
}

// archiveSnapshot persists a snapshot best-effort; archival failures never
// affect the response.
func (h *WeatherHandler) archiveSnapshot(ctx context.Context, snap *types.WeatherSnapshot) {
	if h.archive == nil || snap == nil {
		return
	}
	if err := h.archive.Save(ctx, snap); err != nil {
		h.logger.Warn("failed to archive snapshot", slog.String("error", err.Error()))
	}
}

// latLonFromQuery parses and validates the lat/lon query parameters.
func latLonFromQuery(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLat,
			"query parameter lat must be a number", err)
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return 0, 0, types.NewAppError(types.ErrCodeValidationInvalidLon,
			"query parameter lon must be a number", err)
	}
	if err := types.ValidateCoordinate(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
