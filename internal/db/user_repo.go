package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"skycast/internal/types"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations, used to surface duplicate registrations as conflicts.
const uniqueViolation = "23505"

// UserRepository provides data access for the users table. Preferences are
// stored as a JSONB document so the preference schema can evolve without
// migrations.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a UserRepository backed by the given database
// connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.preferences, u.created_at, u.updated_at`

// scanUser scans a single user row into a types.User. The columns must match
// the order defined in userColumns.
func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var prefsJSON []byte
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&prefsJSON,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &u.Preferences); err != nil {
			return nil, err
		}
	} else {
		u.Preferences = types.DefaultPreferences()
	}
	return &u, nil
}

// Create inserts a new user. Returns ErrCodeConflictEmail when the email or
// username is already registered.
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode preferences", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, preferences, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		prefsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return types.NewAppError(types.ErrCodeConflictEmail, "email or username already registered", nil)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns ErrCodeNotFoundUser when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email address. Returns ErrCodeNotFoundUser
// when absent; the auth service maps this to a credentials error so the
// endpoint does not leak which emails exist.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.email = $1`,
		email,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user by email", err)
	}
	return u, nil
}

// UpdatePreferences replaces the stored preference document for a user.
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID string, prefs types.Preferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode preferences", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET preferences = $1, updated_at = now() WHERE id = $2`,
		prefsJSON,
		userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update preferences", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	}
	return nil
}
