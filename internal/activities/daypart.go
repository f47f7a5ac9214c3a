package activities

import (
	"time"

	"skycast/internal/types"
)

// Offsets used by the daypart classifier, relative to sunrise and sunset.
const (
	// morningWindow is how long after sunrise the morning label applies.
	morningWindow = 4 * time.Hour

	// duskMargin bounds the evening label: it starts 2 hours before sunset
	// and ends 2 hours after.
	duskMargin = 2 * time.Hour
)

// ClassifyDaypart derives a daypart label from an observation time and the
// day's sunrise/sunset. All three must share the same time base.
//
// Branches are evaluated in order, so for very short days where the morning
// window overruns the afternoon boundary the earlier label wins. The result
// is deterministic but may diverge from intuition near polar latitudes.
func ClassifyDaypart(at, sunrise, sunset time.Time) types.TimeOfDay {
	switch {
	case at.Before(sunrise) || at.After(sunset.Add(duskMargin)):
		return types.TimeNight
	case at.Before(sunrise.Add(morningWindow)):
		return types.TimeMorning
	case at.Before(sunset.Add(-duskMargin)):
		return types.TimeAfternoon
	default:
		return types.TimeEvening
	}
}
