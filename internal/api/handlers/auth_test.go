package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skycast/internal/core"
	"skycast/internal/types"
)

// --- Mocks ---

type mockAuthService struct {
	registerFn func(ctx context.Context, username, email, password string) (*types.User, string, error)
	loginFn    func(ctx context.Context, email, password string) (*types.User, string, error)
	loggedOut  []string
	logoutErr  error
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*types.User, string, error) {
	return m.registerFn(ctx, username, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	m.loggedOut = append(m.loggedOut, token)
	return m.logoutErr
}

type mockPrefsRepo struct {
	updated map[string]types.Preferences
	err     error
}

func (m *mockPrefsRepo) UpdatePreferences(ctx context.Context, userID string, prefs types.Preferences) error {
	if m.err != nil {
		return m.err
	}
	if m.updated == nil {
		m.updated = make(map[string]types.Preferences)
	}
	m.updated[userID] = prefs
	return nil
}

func newAuthHandler(auth *mockAuthService, prefs *mockPrefsRepo) *AuthHandler {
	logger := discardLogger()
	return NewAuthHandler(auth, prefs, nil, core.NewValidator(logger), logger)
}

func testUser() *types.User {
	return &types.User{
		ID:          "u-1",
		Username:    "casey",
		Email:       "casey@example.com",
		Preferences: types.DefaultPreferences(),
	}
}

// --- Tests ---

func TestRegisterSuccess(t *testing.T) {
	auth := &mockAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*types.User, string, error) {
			if username != "casey" || email != "casey@example.com" {
				t.Errorf("unexpected register args: %q %q", username, email)
			}
			return testUser(), "sess_abc", nil
		},
	}
	h := newAuthHandler(auth, &mockPrefsRepo{})

	body := `{"username":"casey","email":"casey@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data SessionResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Token != "sess_abc" {
		t.Errorf("token = %q", resp.Data.Token)
	}
	if resp.Data.User == nil || resp.Data.User.ID != "u-1" {
		t.Errorf("user = %+v", resp.Data.User)
	}
}

func TestRegisterValidationFailures(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","email":"a@b.com","password":"hunter2hunter2"}`},
		{"bad email", `{"username":"casey","email":"not-an-email","password":"hunter2hunter2"}`},
		{"short password", `{"username":"casey","email":"a@b.com","password":"short"}`},
		{"malformed json", `{"username":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.Register(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth := &mockAuthService{
		registerFn: func(ctx context.Context, username, email, password string) (*types.User, string, error) {
			return nil, "", types.NewAppError(types.ErrCodeConflictEmail, "email already registered", nil)
		},
	}
	h := newAuthHandler(auth, &mockPrefsRepo{})

	body := `{"username":"casey","email":"casey@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body: %s", w.Code, w.Body.String())
	}
}

func TestLoginSuccess(t *testing.T) {
	auth := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*types.User, string, error) {
			return testUser(), "sess_def", nil
		},
	}
	h := newAuthHandler(auth, &mockPrefsRepo{})

	body := `{"email":"casey@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
}

func TestLoginBadCredentials(t *testing.T) {
	auth := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*types.User, string, error) {
			return nil, "", types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid email or password", nil)
		},
	}
	h := newAuthHandler(auth, &mockPrefsRepo{})

	body := `{"email":"casey@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body: %s", w.Code, w.Body.String())
	}
}

func TestLogout(t *testing.T) {
	auth := &mockAuthService{}
	h := newAuthHandler(auth, &mockPrefsRepo{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer sess_abc")
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	if len(auth.loggedOut) != 1 || auth.loggedOut[0] != "sess_abc" {
		t.Errorf("logged out tokens = %v", auth.loggedOut)
	}
}

func TestLogoutMissingToken(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body: %s", w.Code, w.Body.String())
	}
}

func TestMe(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req = req.WithContext(types.WithUser(req.Context(), testUser()))
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data types.User `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Email != "casey@example.com" {
		t.Errorf("email = %q", resp.Data.Email)
	}
}

func TestMeWithoutUser(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestUpdatePreferences(t *testing.T) {
	prefs := &mockPrefsRepo{}
	h := newAuthHandler(&mockAuthService{}, prefs)

	body := `{
		"temperature_unit": "fahrenheit",
		"activity_preferences": {"outdoor_preference": 0.9, "time_of_day": "morning"}
	}`
	req := httptest.NewRequest(http.MethodPut, "/v1/users/me/preferences", strings.NewReader(body))
	req = req.WithContext(types.WithUser(req.Context(), testUser()))
	w := httptest.NewRecorder()
	h.UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	saved, ok := prefs.updated["u-1"]
	if !ok {
		t.Fatal("preferences were not persisted")
	}
	if saved.TemperatureUnit != types.UnitFahrenheit {
		t.Errorf("temperature unit = %q", saved.TemperatureUnit)
	}
	if saved.ActivityPreferences == nil || *saved.ActivityPreferences.OutdoorPreference != 0.9 {
		t.Errorf("activity preferences = %+v", saved.ActivityPreferences)
	}
}

func TestUpdatePreferencesRejectsInvalid(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	cases := []struct {
		name string
		body string
	}{
		{"night daypart", `{"activity_preferences":{"time_of_day":"night"}}`},
		{"outdoor preference above range", `{"activity_preferences":{"outdoor_preference":1.4}}`},
		{"tag in both sets", `{"activity_preferences":{"favorite_activities":["hiking"],"disliked_activities":["hiking"]}}`},
		{"bad unit", `{"temperature_unit":"kelvin"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/v1/users/me/preferences", strings.NewReader(tc.body))
			req = req.WithContext(types.WithUser(req.Context(), testUser()))
			w := httptest.NewRecorder()
			h.UpdatePreferences(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestGetPreferences(t *testing.T) {
	h := newAuthHandler(&mockAuthService{}, &mockPrefsRepo{})

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me/preferences", nil)
	req = req.WithContext(types.WithUser(req.Context(), testUser()))
	w := httptest.NewRecorder()
	h.GetPreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data types.Preferences `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TemperatureUnit != types.UnitCelsius {
		t.Errorf("temperature unit = %q", resp.Data.TemperatureUnit)
	}
}
