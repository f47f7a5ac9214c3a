// Package activities implements the activity catalog and the weather-driven
// recommendation engine for the Skycast dashboard.
//
// The engine is a pure function of its inputs: a current-conditions snapshot,
// an optional user preference set, and the immutable catalog injected at
// construction. Every call performs a full recomputation; there is no cached
// or incremental state.
package activities

import "skycast/internal/types"

// Catalog is an immutably-constructed, read-only set of activity definitions.
// It is built once at process start and shared by reference; no mutation path
// exists after construction.
type Catalog struct {
	items []*types.Activity
}

// NewCatalog builds a catalog from the given definitions, preserving order.
// The slice header is copied so callers cannot alter the catalog afterwards
// by appending to their own slice.
func NewCatalog(items []*types.Activity) *Catalog {
	copied := make([]*types.Activity, len(items))
	copy(copied, items)
	return &Catalog{items: copied}
}

// All returns every activity in definition order. The returned slice is a
// fresh header over the shared immutable entries.
func (c *Catalog) All() []*types.Activity {
	out := make([]*types.Activity, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of activities in the catalog.
func (c *Catalog) Len() int { return len(c.items) }

// DefaultCatalog returns the built-in activity set shipped with the
// dashboard.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultActivities)
}

var defaultActivities = []*types.Activity{
	{
		ID:          "1",
		Name:        "Beach Day",
		Description: "Enjoy swimming, sunbathing, and building sandcastles at the beach.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryOutdoor,
		Tags:        []string{"water", "swimming", "relaxation", "sun"},
		Suitability: types.Suitability{
			TempMinC: 25, TempMaxC: 35,
			RainMaxMM: 0, SnowMaxMM: 0,
			WindMaxMS: 15, UVIndexMax: 8,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon},
			PhysicalLevel:     0.4,
			OutdoorPreference: 0.9,
			SeasonAffinity:    1.0,
		},
	},
	{
		ID:          "2",
		Name:        "Hiking",
		Description: "Explore nature trails and enjoy scenic views while hiking.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryOutdoor,
		Tags:        []string{"nature", "walking", "exercise", "views"},
		Suitability: types.Suitability{
			TempMinC: 10, TempMaxC: 28,
			RainMaxMM: 1, SnowMaxMM: 5,
			WindMaxMS: 20, UVIndexMax: 7,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon},
			PhysicalLevel:     0.7,
			OutdoorPreference: 0.8,
			SeasonAffinity:    0.8,
		},
	},
	{
		ID:          "3",
		Name:        "Museum Visit",
		Description: "Explore art, history, and culture at a local museum.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryIndoor,
		Tags:        []string{"art", "history", "culture", "education"},
		Suitability: types.Suitability{
			TempMinC: -10, TempMaxC: 40,
			RainMaxMM: 100, SnowMaxMM: 100,
			WindMaxMS: 100, UVIndexMax: 12,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon, types.TimeEvening},
			PhysicalLevel:     0.2,
			OutdoorPreference: 0.1,
			SeasonAffinity:    0.5,
		},
	},
	{
		ID:          "4",
		Name:        "Indoor Rock Climbing",
		Description: "Challenge yourself with indoor rock climbing at a local gym.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryIndoor,
		Tags:        []string{"sport", "climbing", "exercise", "challenge"},
		Suitability: types.Suitability{
			TempMinC: -10, TempMaxC: 40,
			RainMaxMM: 100, SnowMaxMM: 100,
			WindMaxMS: 100, UVIndexMax: 12,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon, types.TimeEvening},
			PhysicalLevel:     0.8,
			OutdoorPreference: 0.3,
			SeasonAffinity:    0.5,
		},
	},
	{
		ID:          "5",
		Name:        "Picnic in the Park",
		Description: "Enjoy a relaxing picnic with food and drinks in a local park.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryOutdoor,
		Tags:        []string{"food", "relaxation", "nature", "social"},
		Suitability: types.Suitability{
			TempMinC: 15, TempMaxC: 30,
			RainMaxMM: 0, SnowMaxMM: 0,
			WindMaxMS: 15, UVIndexMax: 6,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon},
			PhysicalLevel:     0.2,
			OutdoorPreference: 0.7,
			SeasonAffinity:    0.9,
		},
	},
	{
		ID:          "6",
		Name:        "Movie Marathon",
		Description: "Stay in and enjoy a marathon of your favorite movies or TV shows.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryIndoor,
		Tags:        []string{"entertainment", "relaxation", "movies", "social"},
		Suitability: types.Suitability{
			TempMinC: -30, TempMaxC: 45,
			RainMaxMM: 100, SnowMaxMM: 100,
			WindMaxMS: 100, UVIndexMax: 12,
			TimeOfDay:         []types.TimeOfDay{types.TimeAfternoon, types.TimeEvening, types.TimeNight},
			PhysicalLevel:     0.1,
			OutdoorPreference: 0.0,
			SeasonAffinity:    0.5,
		},
	},
	{
		ID:          "7",
		Name:        "Cycling",
		Description: "Go for a bike ride through scenic routes and trails.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryOutdoor,
		Tags:        []string{"sport", "biking", "exercise", "nature"},
		Suitability: types.Suitability{
			TempMinC: 10, TempMaxC: 30,
			RainMaxMM: 0, SnowMaxMM: 0,
			WindMaxMS: 20, UVIndexMax: 6,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon},
			PhysicalLevel:     0.6,
			OutdoorPreference: 0.8,
			SeasonAffinity:    0.7,
		},
	},
	{
		ID:          "8",
		Name:        "Cooking Class",
		Description: "Learn new recipes and cooking techniques in a cooking class.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryIndoor,
		Tags:        []string{"food", "cooking", "learning", "social"},
		Suitability: types.Suitability{
			TempMinC: -10, TempMaxC: 40,
			RainMaxMM: 100, SnowMaxMM: 100,
			WindMaxMS: 100, UVIndexMax: 12,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon, types.TimeEvening},
			PhysicalLevel:     0.3,
			OutdoorPreference: 0.2,
			SeasonAffinity:    0.5,
		},
	},
	{
		ID:          "9",
		Name:        "Stargazing",
		Description: "Observe stars, planets, and constellations in the night sky.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryOutdoor,
		Tags:        []string{"astronomy", "night", "relaxation", "nature"},
		Suitability: types.Suitability{
			TempMinC: 5, TempMaxC: 25,
			RainMaxMM: 0, SnowMaxMM: 5,
			WindMaxMS: 10, UVIndexMax: 1,
			TimeOfDay:         []types.TimeOfDay{types.TimeNight},
			PhysicalLevel:     0.2,
			OutdoorPreference: 0.6,
			SeasonAffinity:    0.6,
		},
	},
	{
		ID:          "10",
		Name:        "Coffee Shop Work/Study",
		Description: "Change your environment by working or studying at a cozy coffee shop.",
		ImageURL:    "/placeholder.svg",
		Category:    types.CategoryIndoor,
		Tags:        []string{"work", "coffee", "study", "productivity"},
		Suitability: types.Suitability{
			TempMinC: -10, TempMaxC: 40,
			RainMaxMM: 100, SnowMaxMM: 100,
			WindMaxMS: 100, UVIndexMax: 12,
			TimeOfDay:         []types.TimeOfDay{types.TimeMorning, types.TimeAfternoon},
			PhysicalLevel:     0.1,
			OutdoorPreference: 0.3,
			SeasonAffinity:    0.5,
		},
	},
}
