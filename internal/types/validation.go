package types

import "fmt"

// ValidateActivityPreferences checks the cross-field invariants that struct
// tags cannot express. It enforces mutual exclusivity between favorite and
// disliked tags at the preferences boundary: the recommendation engine itself
// tolerates overlap, but persisted preferences must not carry it.
func ValidateActivityPreferences(p *ActivityPreferences) error {
	if p == nil {
		return nil
	}

	if p.OutdoorPreference != nil && (*p.OutdoorPreference < 0 || *p.OutdoorPreference > 1) {
		return NewAppError(ErrCodeValidationInvalidField,
			"outdoor_preference must be between 0 and 1", nil)
	}
	if p.PhysicalLevel != nil && (*p.PhysicalLevel < 0 || *p.PhysicalLevel > 1) {
		return NewAppError(ErrCodeValidationInvalidField,
			"physical_level must be between 0 and 1", nil)
	}
	if p.TimeOfDay != "" && p.TimeOfDay != TimeAny && !p.TimeOfDay.IsConcrete() {
		return NewAppError(ErrCodeValidationInvalidField,
			fmt.Sprintf("time_of_day %q is not a valid daypart", p.TimeOfDay), nil)
	}
	// Night is a derived label only; the preference vocabulary is
	// morning/afternoon/evening/any.
	if p.TimeOfDay == TimeNight {
		return NewAppError(ErrCodeValidationInvalidField,
			"time_of_day preference must be one of morning, afternoon, evening, any", nil)
	}

	disliked := make(map[string]struct{}, len(p.DislikedActivities))
	for _, tag := range p.DislikedActivities {
		disliked[tag] = struct{}{}
	}
	for _, tag := range p.FavoriteActivities {
		if _, ok := disliked[tag]; ok {
			return NewAppErrorWithDetails(ErrCodeValidationTagConflict,
				"a tag cannot be both favorite and disliked", nil,
				map[string]any{"tag": tag})
		}
	}

	return nil
}

// ValidateCoordinate checks that lat/lon form a valid WGS84 coordinate.
func ValidateCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f out of range [-90, 90]", lat), nil)
	}
	if lon < -180 || lon > 180 {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %.4f out of range [-180, 180]", lon), nil)
	}
	return nil
}
