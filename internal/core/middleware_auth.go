package core

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"skycast/internal/types"
)

// Authenticator decouples the HTTP layer from the session store, allowing
// for easy mocking in tests.
type Authenticator interface {
	// ResolveToken resolves an opaque session token to the owning user.
	//
	// Distinct error codes:
	//   - ErrCodeAuthTokenInvalid if the token is malformed or not found.
	//   - ErrCodeAuthSessionExpired if the session exists but has expired.
	ResolveToken(ctx context.Context, token string) (*types.User, error)
}

// AuthMiddleware wraps handlers requiring authentication.
//
//  1. Extracts the Bearer token from the Authorization header.
//  2. Calls Authenticator.ResolveToken to resolve the token to a User.
//  3. Injects the User into the request context via types.WithUser.
//  4. Returns 401 Unauthorized on failure with distinct error codes.
//
// If the Authenticator field on Server is nil (e.g., during tests that don't
// inject one), the middleware passes through without authentication. Routes
// are expected to mount this middleware only on protected groups; public
// endpoints never see it.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Authenticator == nil {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenMissing, "Authorization header is required")
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenMissing, "Bearer token is required")
			return
		}

		user, err := s.Authenticator.ResolveToken(r.Context(), token)
		if err != nil {
			s.handleAuthError(w, r, err)
			return
		}
		if user == nil {
			s.writeAuthError(w, r, types.ErrCodeAuthTokenInvalid, "Invalid authentication token")
			return
		}

		ctx := types.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken parses the Authorization header value and returns the
// token string. It expects the format "Bearer <token>" (case-insensitive
// scheme per RFC 7235). Returns empty string if the format is invalid.
func extractBearerToken(authHeader string) string {
	const prefix = "Bearer "
	if len(authHeader) < len(prefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(prefix):])
}

// handleAuthError inspects the error from Authenticator.ResolveToken and
// writes the appropriate 401 response with the correct error code.
func (s *Server) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeAuthTokenInvalid, types.ErrCodeAuthSessionExpired:
			s.writeAuthError(w, r, appErr.Code, appErr.Message)
			return
		}
	}

	// Unexpected resolution failure (e.g., database outage). Log internally
	// and return a generic invalid-token response without leaking details.
	s.Logger.Error("token resolution failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	s.writeAuthError(w, r, types.ErrCodeAuthTokenInvalid, "Invalid authentication token")
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, code types.ErrorCode, message string) {
	Error(w, r, types.NewAppError(code, message, nil))
}
