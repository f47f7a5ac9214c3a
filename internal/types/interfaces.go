package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// WeatherSource retrieves current conditions for a coordinate from a single
// upstream provider.
type WeatherSource interface {
	// Provider identifies the upstream this source reads from.
	Provider() WeatherProvider

	// Current fetches the current-conditions snapshot for the coordinate.
	Current(ctx context.Context, lat, lon float64) (*WeatherSnapshot, error)
}

// UserRepository provides data access for users and their preferences.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error
}

// SessionRepository provides data access for auth sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// SnapshotArchive stores and retrieves historical weather snapshots.
type SnapshotArchive interface {
	Save(ctx context.Context, snapshot *WeatherSnapshot) error
	// GetByDay returns snapshots observed on the given UTC day, closest to
	// the requested coordinate within a small tolerance.
	GetByDay(ctx context.Context, lat, lon float64, day time.Time) ([]*WeatherSnapshot, error)
}
