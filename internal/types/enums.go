package types

// ActivityCategory classifies where an activity takes place.
type ActivityCategory string

const (
	CategoryOutdoor ActivityCategory = "outdoor"
	CategoryIndoor  ActivityCategory = "indoor"
	CategoryBoth    ActivityCategory = "both"
)

// TimeOfDay is a categorical daypart label derived from sun position.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeNight     TimeOfDay = "night"

	// TimeAny is valid only as a preference value, never as a derived label.
	// It means "match against the daypart derived from the current weather".
	TimeAny TimeOfDay = "any"
)

// IsConcrete reports whether t names a specific daypart (i.e. is usable as a
// hard-filter value). Empty and "any" are treated as non-concrete.
func (t TimeOfDay) IsConcrete() bool {
	switch t {
	case TimeMorning, TimeAfternoon, TimeEvening, TimeNight:
		return true
	}
	return false
}

// Season is a Northern-Hemisphere meteorological season.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// WeatherCondition is the normalized current-condition label reported by
// weather providers (OpenWeather "main" field vocabulary).
type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "Clear"
	ConditionClouds       WeatherCondition = "Clouds"
	ConditionRain         WeatherCondition = "Rain"
	ConditionDrizzle      WeatherCondition = "Drizzle"
	ConditionSnow         WeatherCondition = "Snow"
	ConditionThunderstorm WeatherCondition = "Thunderstorm"
	ConditionMist         WeatherCondition = "Mist"
)

// TemperatureUnit is the display unit stored in user preferences.
type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "celsius"
	UnitFahrenheit TemperatureUnit = "fahrenheit"
)

// WeatherProvider identifies an upstream weather data source.
type WeatherProvider string

const (
	ProviderOpenWeather    WeatherProvider = "openweather"
	ProviderAccuWeather    WeatherProvider = "accuweather"
	ProviderVisualCrossing WeatherProvider = "visualcrossing"
)
