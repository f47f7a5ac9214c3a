package core

import (
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"skycast/internal/types"
)

// Validator wraps go-playground/validator to translate struct validation
// failures into structured AppErrors suitable for API responses.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator and registers custom validation tags.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New()

	// daypart accepts a concrete daypart label or "any".
	_ = v.RegisterValidation("daypart", func(fl validator.FieldLevel) bool {
		t := types.TimeOfDay(fl.Field().String())
		return t == "" || t == types.TimeAny || t.IsConcrete()
	})

	return &Validator{
		validate: v,
		logger:   logger,
	}
}

// ValidateStruct validates s against its struct tags. On failure it returns
// a *types.AppError with code "validation_invalid_field" carrying a
// field -> failed-rule map in Details. JSON field casing follows the struct
// tags the client actually sends.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError: the caller passed something that is not a
		// struct. This is a programming error, not client input.
		v.logger.Error("validator invoked with non-struct value", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "internal validation failure", err)
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fieldKey(fe)] = fe.Tag()
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidField,
		"request validation failed",
		err,
		details,
	)
}

// fieldKey converts a validator namespace like "Request.ActivityPreferences.
// OutdoorPreference" into a snake_case leaf name matching the JSON payload.
func fieldKey(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
