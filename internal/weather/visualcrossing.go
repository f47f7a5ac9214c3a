package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skycast/internal/external"
	"skycast/internal/types"
)

const defaultVisualCrossingHost = "https://weather.visualcrossing.com"

const visualCrossingTimelinePath = "/VisualCrossingWebServices/rest/services/timeline"

type vcTimelineResponse struct {
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	CurrentConditions vcConditions `json:"currentConditions"`
}

type vcConditions struct {
	DatetimeEpoch int64   `json:"datetimeEpoch"`
	Temp          float64 `json:"temp"`
	FeelsLike     float64 `json:"feelslike"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	UVIndex       float64 `json:"uvindex"`
	CloudCover    float64 `json:"cloudcover"`
	WindSpeed     float64 `json:"windspeed"`
	WindDir       float64 `json:"winddir"`
	Precip        float64 `json:"precip"`
	Snow          float64 `json:"snow"`
	Conditions    string  `json:"conditions"`
	Icon          string  `json:"icon"`
	SunriseEpoch  int64   `json:"sunriseEpoch"`
	SunsetEpoch   int64   `json:"sunsetEpoch"`
}

// VisualCrossingClient is a secondary weather source used for aggregation.
// The timeline endpoint returns today's slice with current conditions in a
// single round-trip.
type VisualCrossingClient struct {
	apiKey types.SecretString
	base   *external.BaseClient
	logger *slog.Logger
	host   string
}

// NewVisualCrossingClient builds a client around the shared resilient HTTP
// base.
func NewVisualCrossingClient(apiKey types.SecretString, base *external.BaseClient, logger *slog.Logger) *VisualCrossingClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisualCrossingClient{
		apiKey: apiKey,
		base:   base,
		logger: logger,
		host:   defaultVisualCrossingHost,
	}
}

// Provider implements types.WeatherSource.
func (c *VisualCrossingClient) Provider() types.WeatherProvider {
	return types.ProviderVisualCrossing
}

// Current implements types.WeatherSource.
func (c *VisualCrossingClient) Current(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	endpoint := fmt.Sprintf("%s%s/%s,%s/today", c.host, visualCrossingTimelinePath, formatCoord(lat), formatCoord(lon))

	q := url.Values{}
	q.Set("unitGroup", "metric")
	q.Set("include", "current")
	q.Set("key", c.apiKey.Unmask())
	q.Set("contentType", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build provider request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("provider returned non-success status",
			slog.String("provider", string(types.ProviderVisualCrossing)),
			slog.Int("status", resp.StatusCode),
		)
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("provider returned status %d", resp.StatusCode),
			nil,
		)
	}

	var payload vcTimelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "failed to decode provider response", err)
	}

	return c.toSnapshot(&payload), nil
}

func (c *VisualCrossingClient) toSnapshot(payload *vcTimelineResponse) *types.WeatherSnapshot {
	cond := payload.CurrentConditions
	return &types.WeatherSnapshot{
		Location:    types.Location{Lat: payload.Latitude, Lon: payload.Longitude},
		ObservedAt:  time.Unix(cond.DatetimeEpoch, 0).UTC(),
		Sunrise:     time.Unix(cond.SunriseEpoch, 0).UTC(),
		Sunset:      time.Unix(cond.SunsetEpoch, 0).UTC(),
		TempC:       cond.Temp,
		FeelsLikeC:  cond.FeelsLike,
		Humidity:    cond.Humidity,
		Pressure:    cond.Pressure,
		UVIndex:     cond.UVIndex,
		CloudCover:  cond.CloudCover,
		WindSpeed:   kmhToMS(cond.WindSpeed),
		WindDeg:     cond.WindDir,
		Condition:   mapVisualCrossingIcon(cond.Icon),
		Description: cond.Conditions,
		Icon:        cond.Icon,
		Rain1hMM:    cond.Precip,
		Snow1hMM:    cond.Snow,
		Source:      string(types.ProviderVisualCrossing),
	}
}

// mapVisualCrossingIcon normalizes the vendor's icon identifiers
// ("clear-day", "partly-cloudy-night", "rain", ...) into the shared
// condition vocabulary.
func mapVisualCrossingIcon(icon string) types.WeatherCondition {
	switch {
	case strings.HasPrefix(icon, "clear"):
		return types.ConditionClear
	case strings.Contains(icon, "thunder"):
		return types.ConditionThunderstorm
	case strings.Contains(icon, "snow"):
		return types.ConditionSnow
	case strings.Contains(icon, "rain"), strings.Contains(icon, "showers"):
		return types.ConditionRain
	case strings.Contains(icon, "fog"):
		return types.ConditionMist
	default:
		return types.ConditionClouds
	}
}
