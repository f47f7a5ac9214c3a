package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"skycast/internal/types"
)

// maxRequestBodySize caps request bodies at 1 MB. Dashboard payloads are a
// few KB at most; anything larger is abuse.
const maxRequestBodySize = 1 << 20

// APIResponse is the standard envelope for all successful API responses.
// Meta conveys non-blocking warnings (e.g., a degraded weather provider).
type APIResponse struct {
	Data interface{}         `json:"data,omitempty"`
	Meta *types.ResponseMeta `json:"meta,omitempty"`
}

// APIErrorResponse is the standard envelope for all error API responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// JSON writes data as a JSON response with the given status. Marshal
// failures degrade to a 500 error envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		writeErrorEnvelope(w, http.StatusInternalServerError, ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "failed to marshal response",
			RequestID: types.GetRequestID(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response. An error chain containing a
// *types.AppError keeps its code, message, and details, with the HTTP status
// derived from the code. Anything else becomes a generic 500; wrapped causes
// and generic error text are never sent to the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	detail := ErrorDetail{
		Code:      string(types.ErrCodeInternalUnexpected),
		Message:   "an unexpected error occurred",
		RequestID: types.GetRequestID(r.Context()),
	}
	status := http.StatusInternalServerError

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		detail.Code = string(appErr.Code)
		detail.Message = appErr.Message
		detail.Details = appErr.Details
		status = appErr.HTTPStatus()
	}

	writeErrorEnvelope(w, status, detail)
}

// writeErrorEnvelope serializes an error detail directly, bypassing JSON()
// so an error-while-writing-an-error cannot recurse.
func writeErrorEnvelope(w http.ResponseWriter, status int, detail ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIErrorResponse{Error: detail})
}

// DecodeJSON reads the request body into dst with the body size cap and
// DisallowUnknownFields enforced. Every failure mode (syntax error, unknown
// field, wrong type, oversized, empty, or trailing JSON values) comes back
// as a validation_invalid_json AppError so handlers can pass it straight to
// Error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"request body must contain a single JSON object", nil)
	}
	return nil
}

// mapDecodeError translates a json.Decoder error into a structured AppError.
func mapDecodeError(err error) *types.AppError {
	var (
		maxBytesErr *http.MaxBytesError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"request body must not exceed 1MB", err)

	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		// Truncated bodies surface as io.ErrUnexpectedEOF rather than a
		// *json.SyntaxError.
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"malformed JSON in request body", err)

	case errors.As(err, &typeErr):
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidJSON,
			"invalid value for field", err, map[string]any{
				"field":    typeErr.Field,
				"expected": typeErr.Type.String(),
			})

	case strings.HasPrefix(err.Error(), "json: unknown field"):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"unknown field in request body: "+field, err)

	case errors.Is(err, io.EOF):
		return types.NewAppError(types.ErrCodeValidationInvalidJSON,
			"request body must not be empty", err)
	}

	return types.NewAppError(types.ErrCodeValidationInvalidJSON,
		"invalid JSON in request body", err)
}
