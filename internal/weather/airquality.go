package weather

import "skycast/internal/types"

// DescribeAQI maps a provider AQI value (1-5 scale) to its human-readable
// banding. Out-of-range values report as unknown rather than erroring; a
// stale or malformed upstream reading should never break the endpoint.
func DescribeAQI(aqi int) types.AQIDescription {
	switch aqi {
	case 1:
		return types.AQIDescription{
			Level:   "Good",
			Message: "Air quality is considered satisfactory, and air pollution poses little or no risk.",
			Caution: "No precautions needed. Enjoy outdoor activities.",
		}
	case 2:
		return types.AQIDescription{
			Level:   "Fair",
			Message: "Air quality is acceptable; however, there may be a moderate health concern for a very small number of people.",
			Caution: "Unusually sensitive people should consider reducing prolonged outdoor exertion.",
		}
	case 3:
		return types.AQIDescription{
			Level:   "Moderate",
			Message: "Members of sensitive groups may experience health effects. The general public is not likely to be affected.",
			Caution: "People with respiratory or heart disease should limit prolonged outdoor exertion.",
		}
	case 4:
		return types.AQIDescription{
			Level:   "Poor",
			Message: "Everyone may begin to experience health effects; members of sensitive groups may experience more serious health effects.",
			Caution: "Active children and adults, and people with respiratory disease should avoid prolonged outdoor exertion.",
		}
	case 5:
		return types.AQIDescription{
			Level:   "Very Poor",
			Message: "Health warnings of emergency conditions. The entire population is more likely to be affected.",
			Caution: "Everyone should avoid outdoor exertion and stay indoors when possible.",
		}
	default:
		return types.AQIDescription{
			Level:   "Unknown",
			Message: "Air quality data is unavailable or cannot be calculated.",
			Caution: "Check back later for updated information.",
		}
	}
}
