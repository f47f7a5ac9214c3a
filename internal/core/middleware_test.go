package core

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"skycast/internal/config"
	"skycast/internal/types"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{Environment: "local"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = types.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("request ID not injected into context")
	}
	if got := w.Header().Get("X-Request-Id"); got != captured {
		t.Errorf("response header %q does not match context value %q", got, captured)
	}
}

func TestRequestIDMiddlewarePropagates(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = types.GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-Id", "client-supplied-id")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if captured != "client-supplied-id" {
		t.Errorf("request ID = %q, want client-supplied-id", captured)
	}
}

func TestRecovererCatchesPanic(t *testing.T) {
	s := testServer(t)
	handler := s.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body APIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("recoverer wrote invalid JSON: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code = %q, want %q", body.Error.Code, types.ErrCodeInternalUnexpected)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := testServer(t)
	handler := s.SecurityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.skycast.dev"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("preflight request reached the handler")
		}))

	r := httptest.NewRequest(http.MethodOptions, "/v1/activities", nil)
	r.Header.Set("Origin", "https://app.skycast.dev")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.skycast.dev" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q for a concrete origin", got)
	}
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	handler := NewCORSMiddleware([]string{"*"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	r.Header.Set("Origin", "https://app.skycast.dev")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Allow-Credentials = %q, must be unset with a wildcard origin", got)
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://app.skycast.dev"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for a disallowed origin", got)
	}
}

// stubAuthenticator resolves a single known token.
type stubAuthenticator struct {
	token string
	user  *types.User
	err   error
}

func (a *stubAuthenticator) ResolveToken(_ context.Context, token string) (*types.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	if token == a.token {
		return a.user, nil
	}
	return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "session not found", nil)
}

func TestAuthMiddleware(t *testing.T) {
	s := testServer(t)
	s.Authenticator = &stubAuthenticator{
		token: "good-token",
		user:  &types.User{ID: "u1", Username: "casey"},
	}

	var gotUser *types.User
	handler := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = types.GetUser(r.Context())
	}))

	t.Run("valid token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil)
		r.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUser == nil || gotUser.ID != "u1" {
			t.Errorf("user not injected into context: %+v", gotUser)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil))
		assertAuthError(t, w, types.ErrCodeAuthTokenMissing)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assertAuthError(t, w, types.ErrCodeAuthTokenMissing)
	})

	t.Run("unknown token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil)
		r.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assertAuthError(t, w, types.ErrCodeAuthTokenInvalid)
	})

	t.Run("expired session", func(t *testing.T) {
		s := testServer(t)
		s.Authenticator = &stubAuthenticator{
			err: types.NewAppError(types.ErrCodeAuthSessionExpired, "session expired", nil),
		}
		h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		r := httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil)
		r.Header.Set("Authorization", "Bearer stale")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assertAuthError(t, w, types.ErrCodeAuthSessionExpired)
	})
}

func assertAuthError(t *testing.T, w *httptest.ResponseRecorder, code types.ErrorCode) {
	t.Helper()
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body APIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body.Error.Code != string(code) {
		t.Errorf("code = %q, want %q", body.Error.Code, code)
	}
}
