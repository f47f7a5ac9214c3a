package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"skycast/internal/core"
	"skycast/internal/types"
)

// AuthService defines the auth operations used by the auth handler.
// Mirrors the concrete auth.Service methods relevant here.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	Logout(ctx context.Context, token string) error
}

// PreferencesRepo provides preference persistence for the profile endpoints.
type PreferencesRepo interface {
	UpdatePreferences(ctx context.Context, userID string, prefs types.Preferences) error
}

// --- Request/Response Models ---

// RegisterRequest is the request body for POST /v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the request body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse returns the authenticated user and their session token.
type SessionResponse struct {
	User  *types.User `json:"user"`
	Token string      `json:"token"`
}

// --- Handler ---

// AuthHandler manages registration, login, logout, and the profile
// endpoints.
type AuthHandler struct {
	auth      AuthService
	prefs     PreferencesRepo
	server    *core.Server
	validator *core.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the provided dependencies.
// The server is needed to mount the auth middleware on protected routes.
func NewAuthHandler(
	auth AuthService,
	prefs PreferencesRepo,
	server *core.Server,
	v *core.Validator,
	l *slog.Logger,
) *AuthHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuthHandler{
		auth:      auth,
		prefs:     prefs,
		server:    server,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts the auth and profile routes.
//
// Public: POST /auth/register, POST /auth/login.
// Protected: POST /auth/logout, GET /users/me, GET/PUT /users/me/preferences.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.server.AuthMiddleware)
			r.Post("/logout", h.Logout)
		})
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Use(h.server.AuthMiddleware)
		r.Get("/", h.Me)
		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.UpdatePreferences)
	})
}

// Register handles POST /v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{
		Data: SessionResponse{User: user, Token: token},
	})
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: SessionResponse{User: user, Token: token},
	})
}

// Logout handles POST /v1/auth/logout. The middleware has already validated
// the token; logout deletes its session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing,
			"authorization token is required", nil))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"status": "logged_out"}})
}

// Me handles GET /v1/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := types.GetUser(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing,
			"authentication required", nil))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: user})
}

// GetPreferences handles GET /v1/users/me/preferences.
func (h *AuthHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := types.GetUser(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing,
			"authentication required", nil))
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: user.Preferences})
}

// UpdatePreferences handles PUT /v1/users/me/preferences. The full
// preference document is replaced; activity preferences have cross-field
// rules that struct tags cannot express, so both validators run.
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user, ok := types.GetUser(r.Context())
	if !ok {
		core.Error(w, r, types.NewAppError(types.ErrCodeAuthTokenMissing,
			"authentication required", nil))
		return
	}

	var prefs types.Preferences
	if err := core.DecodeJSON(w, r, &prefs); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(prefs); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := types.ValidateActivityPreferences(prefs.ActivityPreferences); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.prefs.UpdatePreferences(r.Context(), user.ID, prefs); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: prefs})
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
