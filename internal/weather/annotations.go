package weather

// compassPoints are the 16-point compass labels in clockwise order from
// north. Each point covers a 22.5 degree arc centered on its bearing.
var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassDirection converts a meteorological wind bearing in degrees to its
// 16-point compass label. Bearings outside [0, 360) are normalized first.
func CompassDirection(deg float64) string {
	deg = deg - 360*float64(int(deg/360))
	if deg < 0 {
		deg += 360
	}
	idx := int((deg+11.25)/22.5) % len(compassPoints)
	return compassPoints[idx]
}

// DescribeUVIndex maps a UV index reading to the WHO exposure bands used by
// the dashboard's current-conditions card.
func DescribeUVIndex(uvi float64) string {
	switch {
	case uvi < 0:
		return "Unknown"
	case uvi < 3:
		return "Low"
	case uvi < 6:
		return "Moderate"
	case uvi < 8:
		return "High"
	case uvi < 11:
		return "Very High"
	default:
		return "Extreme"
	}
}
