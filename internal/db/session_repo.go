package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"skycast/internal/types"
)

// SessionRepository provides data access for the sessions table. Tokens are
// stored as opaque strings; the auth service owns hashing decisions.
type SessionRepository struct {
	db DBTX
}

// NewSessionRepository creates a SessionRepository backed by the given
// database connection (pool or transaction).
func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, session *types.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create session", err)
	}
	return nil
}

// GetByToken retrieves a session by its token. Returns ErrCodeAuthTokenInvalid
// when no matching session exists; the caller checks expiry.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*types.Session, error) {
	row := r.db.QueryRow(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`,
		token,
	)

	var s types.Session
	err := row.Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "session not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve session", err)
	}
	return &s, nil
}

// Delete removes a session by token. Deleting an absent token is a no-op so
// logout stays idempotent.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete session", err)
	}
	return nil
}

// DeleteExpired removes all sessions that expired before the given instant
// and reports how many were removed. Run periodically from the server loop.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to purge expired sessions", err)
	}
	return tag.RowsAffected(), nil
}
