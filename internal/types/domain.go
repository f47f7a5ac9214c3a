package types

import "time"

// Location represents a geographic coordinate with an optional display name.
type Location struct {
	Lat         float64 `json:"lat" db:"lat"`
	Lon         float64 `json:"lon" db:"lon"`
	DisplayName string  `json:"display_name,omitempty" db:"display_name"`
}

// Suitability holds the hard-filter bounds and soft-scoring weights attached
// to one activity definition. Temperature bounds are inclusive; precipitation,
// wind, and UV bounds are inclusive upper limits.
type Suitability struct {
	TempMinC   float64 `json:"temp_min_c"`
	TempMaxC   float64 `json:"temp_max_c"`
	RainMaxMM  float64 `json:"rain_max_mm"`
	SnowMaxMM  float64 `json:"snow_max_mm"`
	WindMaxMS  float64 `json:"wind_max_ms"`
	UVIndexMax float64 `json:"uv_index_max"`

	// TimeOfDay lists the dayparts during which the activity is appropriate.
	TimeOfDay []TimeOfDay `json:"time_of_day"`

	// PhysicalLevel is the required exertion in [0,1].
	PhysicalLevel float64 `json:"physical_level"`

	// OutdoorPreference is how outdoor-oriented the activity is, in [0,1].
	OutdoorPreference float64 `json:"outdoor_preference"`

	// SeasonAffinity is the base affinity toward summer in [0,1], from which
	// per-season ratings are derived.
	SeasonAffinity float64 `json:"season_affinity"`
}

// Activity is an immutable catalog entry. Instances are defined once at
// process start and never mutated; the engine returns references, not copies.
type Activity struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Category    ActivityCategory `json:"category"`
	Tags        []string         `json:"tags"`
	Suitability Suitability      `json:"suitability"`
}

// HasAnyTag reports whether any of the activity's tags appears in the given
// set. A single match is sufficient; additional matches are not counted.
func (a *Activity) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range a.Tags {
		for _, want := range tags {
			if t == want {
				return true
			}
		}
	}
	return false
}

// WeatherSnapshot is the current-conditions input consumed by the
// recommendation engine. All timestamps share the same time base.
type WeatherSnapshot struct {
	Location   Location         `json:"location"`
	ObservedAt time.Time        `json:"observed_at"`
	Sunrise    time.Time        `json:"sunrise"`
	Sunset     time.Time        `json:"sunset"`
	TempC      float64          `json:"temp_c"`
	FeelsLikeC float64          `json:"feels_like_c"`
	Humidity   float64          `json:"humidity_percent"`
	Pressure   float64          `json:"pressure_hpa"`
	UVIndex    float64          `json:"uv_index"`
	CloudCover float64          `json:"cloud_cover_percent"`
	WindSpeed  float64          `json:"wind_speed_ms"`
	WindDeg    float64          `json:"wind_deg"`
	Condition  WeatherCondition `json:"condition"`
	// Description and Icon are provider display metadata, opaque to the engine.
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	// Rain1hMM and Snow1hMM are precipitation amounts over the last hour.
	// Missing provider fields decode as zero.
	Rain1hMM float64 `json:"rain_1h_mm"`
	Snow1hMM float64 `json:"snow_1h_mm"`
	Source   string  `json:"source,omitempty"`
}

// RainPrecipitation returns the effective rain amount for filtering: the
// last-hour accumulation when the current condition is rain, zero otherwise.
func (w *WeatherSnapshot) RainPrecipitation() float64 {
	if w.Condition == ConditionRain {
		return w.Rain1hMM
	}
	return 0
}

// SnowPrecipitation returns the effective snow amount for filtering.
func (w *WeatherSnapshot) SnowPrecipitation() float64 {
	if w.Condition == ConditionSnow {
		return w.Snow1hMM
	}
	return 0
}

// ActivityPreferences is the user-tunable input to recommendation scoring.
// Scalar fields are pointers: a nil field means that factor's multiplier is
// skipped (treated as neutral), not an error.
type ActivityPreferences struct {
	OutdoorPreference  *float64  `json:"outdoor_preference,omitempty" validate:"omitempty,min=0,max=1"`
	PhysicalLevel      *float64  `json:"physical_level,omitempty" validate:"omitempty,min=0,max=1"`
	FavoriteActivities []string  `json:"favorite_activities,omitempty"`
	DislikedActivities []string  `json:"disliked_activities,omitempty"`
	TimeOfDay          TimeOfDay `json:"time_of_day,omitempty" validate:"daypart"`
}

// FavoriteLocation is a saved location in user preferences.
type FavoriteLocation struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Preferences is the full per-user preference record.
type Preferences struct {
	TemperatureUnit     TemperatureUnit      `json:"temperature_unit" validate:"omitempty,oneof=celsius fahrenheit"`
	FavoriteLocations   []FavoriteLocation   `json:"favorite_locations,omitempty"`
	HomeLocation        *FavoriteLocation    `json:"home_location,omitempty"`
	ActivityPreferences *ActivityPreferences `json:"activity_preferences,omitempty"`
}

// DefaultPreferences returns the preference record assigned to new users.
func DefaultPreferences() Preferences {
	half := 0.5
	return Preferences{
		TemperatureUnit: UnitCelsius,
		ActivityPreferences: &ActivityPreferences{
			OutdoorPreference: &half,
			PhysicalLevel:     &half,
			TimeOfDay:         TimeAny,
		},
	}
}

// User is a registered dashboard user.
type User struct {
	ID           string      `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Preferences  Preferences `json:"preferences" db:"preferences"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Session is an authenticated user session. Token holds the keyed digest of
// the bearer token, not the token itself.
type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ResponseMeta contains non-blocking metadata returned with API responses,
// e.g. warnings about degraded upstream providers.
type ResponseMeta struct {
	Warnings []string `json:"warnings,omitempty"`
}

// AirQuality is the air-pollution reading for a location. AQI uses the
// provider's 1-5 scale.
type AirQuality struct {
	Location   Location           `json:"location"`
	ObservedAt time.Time          `json:"observed_at"`
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components,omitempty"`
}

// AQIDescription is the human-readable banding for an AQI value.
type AQIDescription struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Caution string `json:"caution"`
}

// AggregatedWeather is the multi-provider consensus view of current
// conditions. Averages are arithmetic means over the providers that
// responded; PerProvider retains the individual readings.
type AggregatedWeather struct {
	Location       Location                             `json:"location"`
	GeneratedAt    time.Time                            `json:"generated_at"`
	TempC          float64                              `json:"temp_c"`
	Humidity       float64                              `json:"humidity_percent"`
	WindSpeed      float64                              `json:"wind_speed_ms"`
	CloudCover     float64                              `json:"cloud_cover_percent"`
	Description    string                               `json:"description"`
	TempDeviationC float64                              `json:"temp_deviation_c"`
	ProvidersUsed  []WeatherProvider                    `json:"providers_used"`
	ProviderErrors map[WeatherProvider]string           `json:"provider_errors,omitempty"`
	PerProvider    map[WeatherProvider]*WeatherSnapshot `json:"per_provider,omitempty"`
}
