package activities

import (
	"log/slog"
	"math"
	"sort"

	"skycast/internal/types"
)

// Scoring weights. Multipliers compose multiplicatively, so a poor match on
// one axis dampens but does not zero out the total.
const (
	// alignmentFloor and alignmentSpan bound the outdoor- and physical-level
	// multipliers to [0.7, 1.0]: mismatch costs at most 30%.
	alignmentFloor = 0.7
	alignmentSpan  = 0.3

	// favoriteBoost applies once on any favorite-tag intersection.
	favoriteBoost = 1.3

	// dislikePenalty applies once on any disliked-tag intersection. It is
	// independent of favoriteBoost; both can apply to the same activity.
	dislikePenalty = 0.5

	// seasonFloor and seasonSpan bound the seasonal multiplier to [0.8, 1.0].
	seasonFloor = 0.8
	seasonSpan  = 0.2
)

// ScoredActivity pairs an activity reference with its computed score.
// Returned by RecommendScored for callers that display the ranking detail.
type ScoredActivity struct {
	Activity *types.Activity `json:"activity"`
	Score    float64         `json:"score"`
}

// Engine produces ranked activity recommendations from a weather snapshot
// and user preferences. It holds no state between calls beyond the injected
// read-only catalog; every invocation is an independent full recomputation.
type Engine struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewEngine creates an Engine over the given catalog.
func NewEngine(catalog *Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: catalog, logger: logger}
}

// All returns the full catalog in definition order.
func (e *Engine) All() []*types.Activity {
	return e.catalog.All()
}

// Recommend returns the activities suited to the given weather, ranked by
// preference fit. See RecommendScored for the scoring detail.
func (e *Engine) Recommend(weather *types.WeatherSnapshot, prefs *types.ActivityPreferences) []*types.Activity {
	scored := e.RecommendScored(weather, prefs)
	out := make([]*types.Activity, len(scored))
	for i, s := range scored {
		out[i] = s.Activity
	}
	return out
}

// RecommendScored is the primary recommendation contract.
//
// Stage 1 hard-filters the catalog against the weather: temperature,
// effective rain/snow, wind, and UV bounds are non-negotiable, as is the
// daypart match. Stage 2 scores the survivors against the preferences with
// independent multiplicative factors; it runs only when prefs is non-nil,
// otherwise survivors are returned in catalog order with a neutral score.
// Stage 3 stable-sorts descending by score, so ties keep catalog order.
//
// A nil weather snapshot is a caller precondition violation: the engine logs
// it and returns an empty sequence rather than failing.
func (e *Engine) RecommendScored(weather *types.WeatherSnapshot, prefs *types.ActivityPreferences) []ScoredActivity {
	if weather == nil {
		e.logger.Warn("recommendation requested without a weather snapshot")
		return []ScoredActivity{}
	}

	daypart := ClassifyDaypart(weather.ObservedAt, weather.Sunrise, weather.Sunset)
	season := ClassifySeason(weather.ObservedAt)

	survivors := make([]ScoredActivity, 0, e.catalog.Len())
	for _, a := range e.catalog.All() {
		if !e.passesHardFilter(a, weather, prefs, daypart) {
			continue
		}
		survivors = append(survivors, ScoredActivity{Activity: a, Score: 1.0})
	}

	if prefs == nil {
		return survivors
	}

	for i := range survivors {
		survivors[i].Score = score(survivors[i].Activity, prefs, season)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score > survivors[j].Score
	})

	return survivors
}

// passesHardFilter applies the Stage-1 eligibility conditions. Any failing
// condition excludes the activity entirely; there is no partial credit.
func (e *Engine) passesHardFilter(a *types.Activity, w *types.WeatherSnapshot, prefs *types.ActivityPreferences, daypart types.TimeOfDay) bool {
	s := a.Suitability

	if w.TempC < s.TempMinC || w.TempC > s.TempMaxC {
		return false
	}
	if w.RainPrecipitation() > s.RainMaxMM {
		return false
	}
	if w.SnowPrecipitation() > s.SnowMaxMM {
		return false
	}
	if w.WindSpeed > s.WindMaxMS {
		return false
	}
	if w.UVIndex > s.UVIndexMax {
		return false
	}

	// A concrete daypart preference overrides the derived label.
	want := daypart
	if prefs != nil && prefs.TimeOfDay.IsConcrete() {
		want = prefs.TimeOfDay
	}
	return containsDaypart(s.TimeOfDay, want)
}

// score computes the Stage-2 soft score for one surviving activity. Absent
// scalar preference fields skip their multiplier (neutral 1.0).
func score(a *types.Activity, prefs *types.ActivityPreferences, season types.Season) float64 {
	total := 1.0
	s := a.Suitability

	if prefs.OutdoorPreference != nil {
		match := 1 - math.Abs(*prefs.OutdoorPreference-s.OutdoorPreference)
		total *= alignmentFloor + alignmentSpan*match
	}
	if prefs.PhysicalLevel != nil {
		match := 1 - math.Abs(*prefs.PhysicalLevel-s.PhysicalLevel)
		total *= alignmentFloor + alignmentSpan*match
	}
	if a.HasAnyTag(prefs.FavoriteActivities) {
		total *= favoriteBoost
	}
	if a.HasAnyTag(prefs.DislikedActivities) {
		total *= dislikePenalty
	}
	total *= seasonFloor + seasonSpan*SeasonRating(season, s.SeasonAffinity)

	return total
}

// Browse applies the lighter catalog filter used by the "browse all" view:
// category fit, physical-level proximity, concrete daypart, and disliked
// tags. No weather bounds and no scoring; catalog order is preserved.
func (e *Engine) Browse(prefs *types.ActivityPreferences) []*types.Activity {
	all := e.catalog.All()
	if prefs == nil {
		return all
	}

	out := make([]*types.Activity, 0, len(all))
	for _, a := range all {
		if prefs.OutdoorPreference != nil {
			if *prefs.OutdoorPreference > 0.7 && a.Category == types.CategoryIndoor {
				continue
			}
			if *prefs.OutdoorPreference < 0.3 && a.Category == types.CategoryOutdoor {
				continue
			}
		}
		if prefs.PhysicalLevel != nil &&
			math.Abs(*prefs.PhysicalLevel-a.Suitability.PhysicalLevel) > 0.4 {
			continue
		}
		if prefs.TimeOfDay.IsConcrete() && !containsDaypart(a.Suitability.TimeOfDay, prefs.TimeOfDay) {
			continue
		}
		if a.HasAnyTag(prefs.DislikedActivities) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func containsDaypart(set []types.TimeOfDay, want types.TimeOfDay) bool {
	for _, t := range set {
		if t == want {
			return true
		}
	}
	return false
}
