package solar

import (
	"math"
	"testing"
	"time"
)

func TestEquationOfTime(t *testing.T) {
	// EoT extremes: ~ -14 min in mid-February, ~ +16 min in early
	// November, near zero in mid-April.
	tests := []struct {
		name    string
		date    time.Time
		want    float64
		epsilon float64
	}{
		{"february minimum", time.Date(2023, 2, 11, 12, 0, 0, 0, time.UTC), -14.2, 1.0},
		{"november maximum", time.Date(2023, 11, 3, 12, 0, 0, 0, time.UTC), 16.4, 1.0},
		{"april zero crossing", time.Date(2023, 4, 15, 12, 0, 0, 0, time.UTC), 0.0, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EquationOfTime(tt.date)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("EquationOfTime(%v) = %.2f min, expected %.1f ± %.1f", tt.date, got, tt.want, tt.epsilon)
			}
		})
	}
}

func TestClearSkyASCE(t *testing.T) {
	// 51°N, 13.75°E (central Europe), 120 m elevation.
	lat, lon, alt := 51.0, 13.75, 120.0

	t.Run("night is zero", func(t *testing.T) {
		midnight := time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC)
		if got := ClearSkyASCE(midnight, lat, lon, alt, 15, 60); got != 0 {
			t.Errorf("radiation at midnight = %.1f, expected 0", got)
		}
	})

	t.Run("summer noon plausible", func(t *testing.T) {
		// Solar noon in LMT is ~12:00 minus EoT; 11:58 UTC is close
		// enough at this longitude once the 55-minute offset applies.
		noon := time.Date(2023, 6, 21, 11, 5, 0, 0, time.UTC)
		got := ClearSkyASCE(noon, lat, lon, alt, 25, 40)
		if got < 700 || got > 1100 {
			t.Errorf("clear-sky summer noon = %.1f W/m², expected 700..1100", got)
		}
	})

	t.Run("winter noon well below summer", func(t *testing.T) {
		summer := ClearSkyASCE(time.Date(2023, 6, 21, 11, 5, 0, 0, time.UTC), lat, lon, alt, 25, 40)
		winter := ClearSkyASCE(time.Date(2023, 12, 21, 11, 5, 0, 0, time.UTC), lat, lon, alt, 0, 70)
		if winter <= 0 || winter >= summer/2 {
			t.Errorf("winter noon %.1f should be positive and well below summer %.1f", winter, summer)
		}
	})
}

func TestSunriseSunset(t *testing.T) {
	t.Run("potsdam equinox", func(t *testing.T) {
		day := time.Date(2023, 3, 20, 12, 0, 0, 0, time.UTC)
		rise, set, ok := SunriseSunset(day, 52.38, 13.06)
		if !ok {
			t.Fatal("no sunrise at 52°N")
		}
		// Sunrise near 05:15 UTC, day length near 12 hours.
		riseMin := rise.Hour()*60 + rise.Minute()
		if riseMin < 285 || riseMin > 345 {
			t.Errorf("sunrise = %v (%d min UTC), expected around 05:15", rise, riseMin)
		}
		length := set.Sub(rise)
		if math.Abs(length.Minutes()-720) > 25 {
			t.Errorf("equinox day length = %v, expected about 12h", length)
		}
	})

	t.Run("equator is near twelve hours year round", func(t *testing.T) {
		for _, day := range []time.Time{
			time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC),
			time.Date(2023, 12, 21, 12, 0, 0, 0, time.UTC),
		} {
			rise, set, ok := SunriseSunset(day, 0, 0)
			if !ok {
				t.Fatalf("no sunrise at the equator on %v", day)
			}
			if length := set.Sub(rise); math.Abs(length.Minutes()-720) > 20 {
				t.Errorf("%v: day length = %v, expected about 12h", day, length)
			}
		}
	})

	t.Run("polar day and night", func(t *testing.T) {
		if _, _, ok := SunriseSunset(time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC), 78, 15); ok {
			t.Error("midsummer at 78°N should be polar day")
		}
		if _, _, ok := SunriseSunset(time.Date(2023, 12, 21, 12, 0, 0, 0, time.UTC), 78, 15); ok {
			t.Error("midwinter at 78°N should be polar night")
		}
	})
}

func TestBras(t *testing.T) {
	lat, lon := 51.0, 13.75

	if got := Bras(time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC), lat, lon, 2); got != 0 {
		t.Errorf("Bras at midnight = %.1f, expected 0", got)
	}

	clear := Bras(time.Date(2023, 6, 21, 11, 5, 0, 0, time.UTC), lat, lon, 2)
	hazy := Bras(time.Date(2023, 6, 21, 11, 5, 0, 0, time.UTC), lat, lon, 5)
	if clear < 600 || clear > 1100 {
		t.Errorf("Bras clear noon = %.1f W/m², expected 600..1100", clear)
	}
	if hazy >= clear {
		t.Errorf("turbid sky %.1f should be below clear sky %.1f", hazy, clear)
	}
}
