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

const defaultAccuWeatherHost = "https://dataservice.accuweather.com"

const (
	accuWeatherLocationPath   = "/locations/v1/cities/geoposition/search"
	accuWeatherConditionsPath = "/currentconditions/v1"
)

type awLocationResponse struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

type awCondition struct {
	EpochTime   int64  `json:"EpochTime"`
	WeatherText string `json:"WeatherText"`
	WeatherIcon int    `json:"WeatherIcon"`
	Temperature struct {
		Metric awMetricValue `json:"Metric"`
	} `json:"Temperature"`
	RealFeelTemperature struct {
		Metric awMetricValue `json:"Metric"`
	} `json:"RealFeelTemperature"`
	RelativeHumidity float64 `json:"RelativeHumidity"`
	Wind             struct {
		Speed struct {
			Metric awMetricValue `json:"Metric"`
		} `json:"Speed"`
		Direction struct {
			Degrees float64 `json:"Degrees"`
		} `json:"Direction"`
	} `json:"Wind"`
	UVIndex    float64 `json:"UVIndex"`
	CloudCover float64 `json:"CloudCover"`
	Pressure   struct {
		Metric awMetricValue `json:"Metric"`
	} `json:"Pressure"`
	HasPrecipitation  bool   `json:"HasPrecipitation"`
	PrecipitationType string `json:"PrecipitationType"` // "Rain", "Snow", "Ice", or empty
	Precip1hr         struct {
		Metric awMetricValue `json:"Metric"`
	} `json:"Precip1hr"`
}

type awMetricValue struct {
	Value float64 `json:"Value"`
	Unit  string  `json:"Unit"`
}

// AccuWeatherClient is a secondary weather source used for aggregation.
// Current conditions require two round-trips: a geoposition search to obtain
// the vendor's location key, then the conditions lookup by that key.
// Location keys are cached per coordinate to halve steady-state traffic.
type AccuWeatherClient struct {
	apiKey types.SecretString
	base   *external.BaseClient
	logger *slog.Logger
	host   string

	locationKeys locationKeyCache
}

// NewAccuWeatherClient builds a client around the shared resilient HTTP base.
func NewAccuWeatherClient(apiKey types.SecretString, base *external.BaseClient, logger *slog.Logger) *AccuWeatherClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccuWeatherClient{
		apiKey: apiKey,
		base:   base,
		logger: logger,
		host:   defaultAccuWeatherHost,
	}
}

// Provider implements types.WeatherSource.
func (c *AccuWeatherClient) Provider() types.WeatherProvider {
	return types.ProviderAccuWeather
}

// Current implements types.WeatherSource.
func (c *AccuWeatherClient) Current(ctx context.Context, lat, lon float64) (*types.WeatherSnapshot, error) {
	key, err := c.locationKey(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey.Unmask())
	q.Set("details", "true")

	var conditions []awCondition
	if err := c.getJSON(ctx, c.host+accuWeatherConditionsPath+"/"+url.PathEscape(key), q, &conditions); err != nil {
		return nil, err
	}
	if len(conditions) == 0 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"current conditions missing from provider response",
			nil,
		)
	}

	return c.toSnapshot(lat, lon, conditions[0]), nil
}

// locationKey resolves (and caches) the vendor location key for a coordinate.
func (c *AccuWeatherClient) locationKey(ctx context.Context, lat, lon float64) (string, error) {
	if key, ok := c.locationKeys.get(lat, lon); ok {
		return key, nil
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey.Unmask())
	q.Set("q", fmt.Sprintf("%s,%s", formatCoord(lat), formatCoord(lon)))

	var loc awLocationResponse
	if err := c.getJSON(ctx, c.host+accuWeatherLocationPath, q, &loc); err != nil {
		return "", err
	}
	if loc.Key == "" {
		return "", types.NewAppError(
			types.ErrCodeUpstreamWeather,
			"location key missing from provider response",
			nil,
		)
	}

	c.locationKeys.put(lat, lon, loc.Key)
	return loc.Key, nil
}

func (c *AccuWeatherClient) toSnapshot(lat, lon float64, cond awCondition) *types.WeatherSnapshot {
	snap := &types.WeatherSnapshot{
		Location:    types.Location{Lat: lat, Lon: lon},
		ObservedAt:  time.Unix(cond.EpochTime, 0).UTC(),
		TempC:       cond.Temperature.Metric.Value,
		FeelsLikeC:  cond.RealFeelTemperature.Metric.Value,
		Humidity:    cond.RelativeHumidity,
		Pressure:    cond.Pressure.Metric.Value,
		UVIndex:     cond.UVIndex,
		CloudCover:  cond.CloudCover,
		WindSpeed:   kmhToMS(cond.Wind.Speed.Metric.Value),
		WindDeg:     cond.Wind.Direction.Degrees,
		Condition:   mapAccuWeatherCondition(cond),
		Description: cond.WeatherText,
		Source:      string(types.ProviderAccuWeather),
	}
	if cond.HasPrecipitation {
		switch cond.PrecipitationType {
		case "Snow", "Ice":
			snap.Snow1hMM = cond.Precip1hr.Metric.Value
		default:
			snap.Rain1hMM = cond.Precip1hr.Metric.Value
		}
	}
	return snap
}

// mapAccuWeatherCondition normalizes AccuWeather's numeric icon codes into
// the shared condition vocabulary. Codes follow the vendor's published table:
// 1-5 sunny, 6-11 cloudy/fog, 12-18 rain, 15-17 thunderstorms, 19-29 snow/ice.
func mapAccuWeatherCondition(cond awCondition) types.WeatherCondition {
	icon := cond.WeatherIcon
	switch {
	case icon >= 1 && icon <= 5:
		return types.ConditionClear
	case icon == 11:
		return types.ConditionMist
	case icon >= 6 && icon <= 11:
		return types.ConditionClouds
	case icon >= 15 && icon <= 17:
		return types.ConditionThunderstorm
	case icon >= 12 && icon <= 18:
		return types.ConditionRain
	case icon >= 19 && icon <= 29:
		return types.ConditionSnow
	default:
		return types.ConditionClouds
	}
}

// kmhToMS converts the vendor's metric wind speed (km/h) to m/s.
func kmhToMS(kmh float64) float64 {
	return kmh / 3.6
}

func (c *AccuWeatherClient) getJSON(ctx context.Context, endpoint string, q url.Values, dst interface{}) error {
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
			slog.String("provider", string(types.ProviderAccuWeather)),
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
