package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"skycast/internal/types"
)

const awConditionsBody = `[{
	"EpochTime": 1750000000,
	"WeatherText": "Mostly cloudy",
	"WeatherIcon": 6,
	"Temperature": {"Metric": {"Value": 16.1, "Unit": "C"}},
	"RealFeelTemperature": {"Metric": {"Value": 15.0, "Unit": "C"}},
	"RelativeHumidity": 71,
	"Wind": {"Speed": {"Metric": {"Value": 18.0, "Unit": "km/h"}}, "Direction": {"Degrees": 230}},
	"UVIndex": 2,
	"CloudCover": 80,
	"Pressure": {"Metric": {"Value": 1011.0, "Unit": "mb"}},
	"HasPrecipitation": false
}]`

func TestAccuWeatherCurrentTwoStep(t *testing.T) {
	var locationCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == accuWeatherLocationPath:
			locationCalls.Add(1)
			w.Write([]byte(`{"Key": "328328", "LocalizedName": "London"}`))
		case strings.HasPrefix(r.URL.Path, accuWeatherConditionsPath+"/"):
			if got := strings.TrimPrefix(r.URL.Path, accuWeatherConditionsPath+"/"); got != "328328" {
				t.Errorf("conditions requested for key %q", got)
			}
			w.Write([]byte(awConditionsBody))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewAccuWeatherClient(types.SecretString("k"), testBaseClient(), testLogger())
	c.host = server.URL

	snap, err := c.Current(context.Background(), 51.5074, -0.1278)
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}

	if snap.TempC != 16.1 {
		t.Errorf("TempC = %v, want 16.1", snap.TempC)
	}
	if want := 18.0 / 3.6; snap.WindSpeed != want {
		t.Errorf("WindSpeed = %v, want %v (m/s)", snap.WindSpeed, want)
	}
	if snap.Condition != types.ConditionClouds {
		t.Errorf("Condition = %q, want Clouds", snap.Condition)
	}
	if snap.Description != "Mostly cloudy" {
		t.Errorf("Description = %q", snap.Description)
	}
	if snap.Source != string(types.ProviderAccuWeather) {
		t.Errorf("Source = %q", snap.Source)
	}

	// Second call for the same coordinate must reuse the cached location key.
	if _, err := c.Current(context.Background(), 51.5074, -0.1278); err != nil {
		t.Fatalf("second Current() error: %v", err)
	}
	if got := locationCalls.Load(); got != 1 {
		t.Errorf("location endpoint called %d times, want 1", got)
	}
}

func TestAccuWeatherMissingLocationKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewAccuWeatherClient(types.SecretString("k"), testBaseClient(), testLogger())
	c.host = server.URL

	_, err := c.Current(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("expected error for missing location key")
	}
	appErr, ok := err.(*types.AppError)
	if !ok {
		t.Fatalf("error type %T, want *types.AppError", err)
	}
	if appErr.Code != types.ErrCodeUpstreamWeather {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeUpstreamWeather)
	}
}

func TestMapAccuWeatherCondition(t *testing.T) {
	tests := []struct {
		name   string
		icon   int
		precip string
		want   types.WeatherCondition
	}{
		{"sunny", 1, "", types.ConditionClear},
		{"mostly sunny", 3, "", types.ConditionClear},
		{"cloudy", 7, "", types.ConditionClouds},
		{"fog", 11, "", types.ConditionMist},
		{"showers", 13, "", types.ConditionRain},
		{"thunderstorm", 15, "", types.ConditionThunderstorm},
		{"rain", 18, "", types.ConditionRain},
		{"flurries", 19, "", types.ConditionSnow},
		{"ice", 24, "", types.ConditionSnow},
		{"unrecognized icon", 40, "", types.ConditionClouds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := awCondition{WeatherIcon: tt.icon, PrecipitationType: tt.precip}
			if got := mapAccuWeatherCondition(cond); got != tt.want {
				t.Errorf("icon %d: got %q, want %q", tt.icon, got, tt.want)
			}
		})
	}
}

func TestAccuWeatherPrecipitationTyping(t *testing.T) {
	body := `[{
		"EpochTime": 1750000000,
		"WeatherText": "Snow",
		"WeatherIcon": 22,
		"Temperature": {"Metric": {"Value": -2.0, "Unit": "C"}},
		"HasPrecipitation": true,
		"PrecipitationType": "Snow",
		"Precip1hr": {"Metric": {"Value": 1.4, "Unit": "mm"}}
	}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == accuWeatherLocationPath {
			w.Write([]byte(`{"Key": "100"}`))
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := NewAccuWeatherClient(types.SecretString("k"), testBaseClient(), testLogger())
	c.host = server.URL

	snap, err := c.Current(context.Background(), 60, 25)
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}
	if snap.Snow1hMM != 1.4 {
		t.Errorf("Snow1hMM = %v, want 1.4", snap.Snow1hMM)
	}
	if snap.Rain1hMM != 0 {
		t.Errorf("Rain1hMM = %v, want 0", snap.Rain1hMM)
	}
	if snap.Condition != types.ConditionSnow {
		t.Errorf("Condition = %q, want Snow", snap.Condition)
	}
	if snap.SnowPrecipitation() != 1.4 {
		t.Errorf("effective snow = %v, want 1.4", snap.SnowPrecipitation())
	}
}
