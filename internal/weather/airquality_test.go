package weather

import "testing"

func TestDescribeAQI(t *testing.T) {
	tests := []struct {
		aqi       int
		wantLevel string
	}{
		{1, "Good"},
		{2, "Fair"},
		{3, "Moderate"},
		{4, "Poor"},
		{5, "Very Poor"},
		{0, "Unknown"},
		{6, "Unknown"},
		{-1, "Unknown"},
	}

	for _, tt := range tests {
		desc := DescribeAQI(tt.aqi)
		if desc.Level != tt.wantLevel {
			t.Errorf("DescribeAQI(%d).Level = %q, want %q", tt.aqi, desc.Level, tt.wantLevel)
		}
		if desc.Message == "" {
			t.Errorf("DescribeAQI(%d).Message is empty", tt.aqi)
		}
	}
}

func TestDescribeAQICaution(t *testing.T) {
	for aqi := 1; aqi <= 5; aqi++ {
		if DescribeAQI(aqi).Caution == "" {
			t.Errorf("AQI %d caution is empty", aqi)
		}
	}
}
