package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skycast/internal/types"
)

const vcTimelineBody = `{
	"latitude": 40.7128,
	"longitude": -74.006,
	"currentConditions": {
		"datetimeEpoch": 1750000000,
		"temp": 24.3,
		"feelslike": 25.1,
		"humidity": 55,
		"pressure": 1016,
		"uvindex": 6,
		"cloudcover": 10,
		"windspeed": 12.6,
		"winddir": 180,
		"precip": 0,
		"snow": 0,
		"conditions": "Clear",
		"icon": "clear-day",
		"sunriseEpoch": 1749980000,
		"sunsetEpoch": 1750040000
	}
}`

func TestVisualCrossingCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, visualCrossingTimelinePath+"/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if !strings.HasSuffix(r.URL.Path, "/today") {
			t.Errorf("path %q missing /today suffix", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("unitGroup") != "metric" {
			t.Error("unitGroup=metric not requested")
		}
		if q.Get("include") != "current" {
			t.Error("include=current not requested")
		}
		w.Write([]byte(vcTimelineBody))
	}))
	defer server.Close()

	c := NewVisualCrossingClient(types.SecretString("k"), testBaseClient(), testLogger())
	c.host = server.URL

	snap, err := c.Current(context.Background(), 40.7128, -74.006)
	if err != nil {
		t.Fatalf("Current() error: %v", err)
	}

	if snap.TempC != 24.3 {
		t.Errorf("TempC = %v, want 24.3", snap.TempC)
	}
	if want := 12.6 / 3.6; snap.WindSpeed != want {
		t.Errorf("WindSpeed = %v, want %v (m/s)", snap.WindSpeed, want)
	}
	if snap.Condition != types.ConditionClear {
		t.Errorf("Condition = %q, want Clear", snap.Condition)
	}
	if snap.Sunrise.IsZero() || snap.Sunset.IsZero() {
		t.Error("sunrise/sunset not decoded")
	}
	if snap.Source != string(types.ProviderVisualCrossing) {
		t.Errorf("Source = %q", snap.Source)
	}
}

func TestVisualCrossingCurrentUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewVisualCrossingClient(types.SecretString("bad"), testBaseClient(), testLogger())
	c.host = server.URL

	_, err := c.Current(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	appErr, ok := err.(*types.AppError)
	if !ok {
		t.Fatalf("error type %T, want *types.AppError", err)
	}
	if appErr.Code != types.ErrCodeUpstreamWeather {
		t.Errorf("Code = %q, want %q", appErr.Code, types.ErrCodeUpstreamWeather)
	}
}

func TestMapVisualCrossingIcon(t *testing.T) {
	tests := []struct {
		icon string
		want types.WeatherCondition
	}{
		{"clear-day", types.ConditionClear},
		{"clear-night", types.ConditionClear},
		{"partly-cloudy-day", types.ConditionClouds},
		{"cloudy", types.ConditionClouds},
		{"rain", types.ConditionRain},
		{"showers-day", types.ConditionRain},
		{"snow", types.ConditionSnow},
		{"thunder-rain", types.ConditionThunderstorm},
		{"fog", types.ConditionMist},
		{"wind", types.ConditionClouds},
	}

	for _, tt := range tests {
		t.Run(tt.icon, func(t *testing.T) {
			if got := mapVisualCrossingIcon(tt.icon); got != tt.want {
				t.Errorf("mapVisualCrossingIcon(%q) = %q, want %q", tt.icon, got, tt.want)
			}
		})
	}
}
