package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"skycast/internal/types"
)

func TestJSONSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]string{"name": "test"}})

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestErrorWithAppError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(types.WithRequestID(r.Context(), "req-123"))

	Error(w, r, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	var body APIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeNotFoundUser) {
		t.Errorf("code = %q, want %q", body.Error.Code, types.ErrCodeNotFoundUser)
	}
	if body.Error.RequestID != "req-123" {
		t.Errorf("request_id = %q, want req-123", body.Error.RequestID)
	}
}

func TestErrorWithGenericError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(w, r, errors.New("pg: connection refused to db-internal.example.com"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "db-internal") {
		t.Error("internal error details leaked to the client")
	}

	var body APIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code = %q, want %q", body.Error.Code, types.ErrCodeInternalUnexpected)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		errPart string
	}{
		{"valid body", `{"name":"hike"}`, false, ""},
		{"empty body", ``, true, "must not be empty"},
		{"malformed json", `{name}`, true, "malformed JSON"},
		{"truncated json", `{"name":`, true, "malformed JSON"},
		{"unknown field", `{"name":"x","extra":1}`, true, "unknown field"},
		{"multiple values", `{"name":"a"}{"name":"b"}`, true, "single JSON object"},
		{"type mismatch", `{"name":42}`, true, "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := DecodeJSON(w, r, &dst)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var appErr *types.AppError
				if !errors.As(err, &appErr) {
					t.Fatalf("error is %T, want *types.AppError", err)
				}
				if appErr.Code != types.ErrCodeValidationInvalidJSON {
					t.Errorf("code = %q, want %q", appErr.Code, types.ErrCodeValidationInvalidJSON)
				}
				if tt.errPart != "" && !strings.Contains(appErr.Message, tt.errPart) {
					t.Errorf("message %q does not contain %q", appErr.Message, tt.errPart)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dst.Name != "hike" {
				t.Errorf("decoded name = %q, want hike", dst.Name)
			}
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	large := `{"name":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(large))

	var dst struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(w, r, &dst)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
	if !strings.Contains(err.Error(), "validation_invalid_json") {
		t.Errorf("unexpected error: %v", err)
	}
}
