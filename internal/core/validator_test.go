package core

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"skycast/internal/types"
)

func TestValidateActivityPreferencesDaypart(t *testing.T) {
	v := NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, tod := range []types.TimeOfDay{"", types.TimeAny, types.TimeMorning, types.TimeAfternoon, types.TimeEvening, types.TimeNight} {
		if err := v.ValidateStruct(types.ActivityPreferences{TimeOfDay: tod}); err != nil {
			t.Errorf("TimeOfDay=%q rejected: %v", tod, err)
		}
	}

	err := v.ValidateStruct(types.ActivityPreferences{TimeOfDay: "dusk"})
	if err == nil {
		t.Fatal("TimeOfDay=dusk accepted")
	}
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("error is %T, want *types.AppError", err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidField {
		t.Errorf("code = %q", appErr.Code)
	}
	if got := appErr.Details["time_of_day"]; got != "daypart" {
		t.Errorf("details[time_of_day] = %v, want daypart", got)
	}
}
