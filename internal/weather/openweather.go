// Package weather contains the upstream provider clients and the
// multi-provider aggregation service. Each client normalizes its vendor's
// response shape into types.WeatherSnapshot so the rest of the system never
// sees vendor-specific payloads.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"skycast/internal/external"
	"skycast/internal/types"
)

// defaultOpenWeatherHost is the production API host; tests point the client
// at an httptest server instead.
const defaultOpenWeatherHost = "https://api.openweathermap.org"

const (
	openWeatherOneCallPath     = "/data/3.0/onecall"
	openWeatherTimeMachinePath = "/data/3.0/onecall/timemachine"
	openWeatherGeocodePath     = "/geo/1.0/direct"
	openWeatherReversePath     = "/geo/1.0/reverse"
	openWeatherAirPath         = "/data/2.5/air_pollution"
)

// owOneCallResponse mirrors the subset of the One Call 3.0 payload we consume.
type owOneCallResponse struct {
	Lat            float64       `json:"lat"`
	Lon            float64       `json:"lon"`
	Timezone       string        `json:"timezone"`
	TimezoneOffset int           `json:"timezone_offset"`
	Current        owCondition   `json:"current"`
	Data           []owCondition `json:"data"` // timemachine responses use "data" instead of "current"
}

type owCondition struct {
	Dt        int64   `json:"dt"`
	Sunrise   int64   `json:"sunrise"`
	Sunset    int64   `json:"sunset"`
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
	UVI       float64 `json:"uvi"`
	Clouds    float64 `json:"clouds"`
	WindSpeed float64 `json:"wind_speed"`
	WindDeg   float64 `json:"wind_deg"`
	Weather   []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Rain *struct {
		OneH float64 `json:"1h"`
	} `json:"rain,omitempty"`
	Snow *struct {
		OneH float64 `json:"1h"`
	} `json:"snow,omitempty"`
}

type owGeocodeEntry struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

type owAirResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

// GeocodeResult is a resolved place name with coordinates.
type GeocodeResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// OpenWeatherClient is the primary weather source. Beyond current conditions
// it also provides geocoding, air quality, and historical lookups, which the
// secondary providers do not.
type OpenWeatherClient struct {
	apiKey types.SecretString
	base   *external.BaseClient
	logger *slog.Logger
	host   string
}

// NewOpenWeatherClient builds a client around the shared resilient HTTP base.
func NewOpenWeatherClient(apiKey types.SecretString, base *external.BaseClient, logger *slog.Logger) *OpenWeatherClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenWeatherClient{
		apiKey: apiKey,
		base:   base,
		logger: logger,
		host:   defaultOpenWeatherHost,
	}
}

// Provider implements types.WeatherSource.
func (c *OpenWeatherClient) Provider() types.WeatherProvider {
	return types.ProviderOpenWeather
}

// Current implements types.WeatherSource using the One Call 3.0 endpoint.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("exclude", "minutely,hourly,daily,alerts")
	q.Set("units", "metric")
	q.Set("appid", c.apiKey.Unmask())

	var payload owOneCallResponse
	if err := c.getJSON(ctx, c.host+openWeatherOneCallPath, q, &payload); err != nil {
		return nil, err
	}

	return c.toSnapshot(&payload, payload.Current), nil
}

// Historical fetches the observed conditions for a past instant via the
// timemachine endpoint. OpenWeather returns a single entry for the requested
// timestamp.
func (c *OpenWeatherClient) Historical(ctx context.Context, lat, lon float64, at time.Time) (*types.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("dt", fmt.Sprintf("%d", at.Unix()))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey.Unmask())

	var payload owOneCallResponse
	if err := c.getJSON(ctx, c.host+openWeatherTimeMachinePath, q, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"historical data missing from provider response",
			nil,
		)
	}

	return c.toSnapshot(&payload, payload.Data[0]), nil
}

// Geocode resolves a free-text city name to up to five coordinate candidates.
func (c *OpenWeatherClient) Geocode(ctx context.Context, city string) ([]GeocodeResult, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "5")
	q.Set("appid", c.apiKey.Unmask())

	var entries []owGeocodeEntry
	if err := c.getJSON(ctx, c.host+openWeatherGeocodePath, q, &entries); err != nil {
		return nil, err
	}

	results := make([]GeocodeResult, len(entries))
	for i, e := range entries {
		results[i] = GeocodeResult{
			Name:    e.Name,
			Lat:     e.Lat,
			Lon:     e.Lon,
			Country: e.Country,
			State:   e.State,
		}
	}
	return results, nil
}

// ReverseGeocode returns the nearest place name for a coordinate, or
// "Unknown Location" when the provider has no match.
func (c *OpenWeatherClient) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("limit", "1")
	q.Set("appid", c.apiKey.Unmask())

	var entries []owGeocodeEntry
	if err := c.getJSON(ctx, c.host+openWeatherReversePath, q, &entries); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "Unknown Location", nil
	}
	return entries[0].Name, nil
}

// AirQuality fetches the current air pollution reading for a coordinate.
func (c *OpenWeatherClient) AirQuality(ctx context.Context, lat, lon float64) (*types.AirQuality, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lon))
	q.Set("appid", c.apiKey.Unmask())

	var payload owAirResponse
	if err := c.getJSON(ctx, c.host+openWeatherAirPath, q, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"air quality data missing from provider response",
			nil,
		)
	}

	first := payload.List[0]
	return &types.AirQuality{
		Location:   types.Location{Lat: lat, Lon: lon},
		ObservedAt: time.Unix(first.Dt, 0).UTC(),
		AQI:        first.Main.AQI,
		Components: first.Components,
	}, nil
}

func (c *OpenWeatherClient) toSnapshot(payload *owOneCallResponse, cond owCondition) *types.WeatherSnapshot {
	snap := &types.WeatherSnapshot{
		Location:   types.Location{Lat: payload.Lat, Lon: payload.Lon},
		ObservedAt: time.Unix(cond.Dt, 0).UTC(),
		Sunrise:    time.Unix(cond.Sunrise, 0).UTC(),
		Sunset:     time.Unix(cond.Sunset, 0).UTC(),
		TempC:      cond.Temp,
		FeelsLikeC: cond.FeelsLike,
		Humidity:   cond.Humidity,
		Pressure:   cond.Pressure,
		UVIndex:    cond.UVI,
		CloudCover: cond.Clouds,
		WindSpeed:  cond.WindSpeed,
		WindDeg:    cond.WindDeg,
		Source:     string(types.ProviderOpenWeather),
	}
	if len(cond.Weather) > 0 {
		snap.Condition = types.WeatherCondition(cond.Weather[0].Main)
		snap.Description = cond.Weather[0].Description
		snap.Icon = cond.Weather[0].Icon
	}
	if cond.Rain != nil {
		snap.Rain1hMM = cond.Rain.OneH
	}
	if cond.Snow != nil {
		snap.Snow1hMM = cond.Snow.OneH
	}
	return snap
}

// getJSON performs a GET through the resilient base client and decodes the
// body into dst. Non-2xx statuses that survive the retry layer (plain 4xx)
// are mapped to an upstream error here.
func (c *OpenWeatherClient) getJSON(ctx context.Context, endpoint string, q url.Values, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build provider request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("provider returned non-success status",
			slog.String("provider", string(types.ProviderOpenWeather)),
			slog.Int("status", resp.StatusCode),
		)
		return types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("provider returned status %d", resp.StatusCode),
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamWeather, "failed to decode provider response", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
