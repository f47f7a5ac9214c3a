package activities

import (
	"time"

	"skycast/internal/types"
)

// ClassifySeason maps an observation time to a Northern-Hemisphere
// meteorological season by calendar month.
func ClassifySeason(at time.Time) types.Season {
	switch at.Month() {
	case time.March, time.April, time.May:
		return types.SeasonSpring
	case time.June, time.July, time.August:
		return types.SeasonSummer
	case time.September, time.October, time.November:
		return types.SeasonFall
	default:
		return types.SeasonWinter
	}
}

// SeasonRating converts an activity's summer-oriented affinity scalar
// (in [0,1]) into a fit rating for the given season. The rating is a soft
// multiplier input, never a hard filter.
func SeasonRating(season types.Season, affinity float64) float64 {
	switch season {
	case types.SeasonWinter:
		return 1 - affinity
	case types.SeasonSpring:
		return affinity * 0.8
	case types.SeasonSummer:
		return affinity
	case types.SeasonFall:
		return affinity * 0.6
	default:
		return 0.5
	}
}
