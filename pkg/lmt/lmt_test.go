package lmt

import (
	"testing"
	"time"
)

// Dresden-ish station: 13.75°E gives a +3300s LMT offset.
const testLongitude = 13.75

func TestZoneOffset(t *testing.T) {
	tests := []struct {
		name      string
		longitude float64
		offset    int
	}{
		{"greenwich", 0.0, 0},
		{"dresden", 13.75, 3300},
		{"denver", -104.99, -25197},
		{"tokyo", 139.69, 33525},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Zone(tt.longitude)
			_, off := time.Date(2024, 6, 1, 0, 0, 0, 0, loc).Zone()
			if off != tt.offset {
				t.Errorf("Zone(%v) offset = %d, expected %d", tt.longitude, off, tt.offset)
			}
		})
	}
}

func TestStartOfYear(t *testing.T) {
	loc := Zone(testLongitude)
	in := time.Date(2024, 4, 17, 9, 30, 0, 0, loc)
	soy := StartOfYear(in, loc)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, loc)
	if !soy.Equal(want) {
		t.Errorf("StartOfYear = %v, expected %v", soy, want)
	}

	// An instant one second into the year still belongs to it.
	if got := StartOfYear(want.Add(time.Second), loc); !got.Equal(want) {
		t.Errorf("StartOfYear(Jan 1 00:00:01) = %v, expected %v", got, want)
	}
}

func TestStartOfDay(t *testing.T) {
	loc := Zone(testLongitude)
	soy := StartOfYear(time.Date(2023, 7, 1, 0, 0, 0, 0, loc), loc)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midmorning", time.Date(2023, 3, 12, 10, 15, 42, 0, loc), time.Date(2023, 3, 12, 0, 0, 0, 0, loc)},
		{"exact midnight stays", time.Date(2023, 3, 12, 0, 0, 0, 0, loc), time.Date(2023, 3, 12, 0, 0, 0, 0, loc)},
		{"one second before midnight", time.Date(2023, 3, 12, 23, 59, 59, 0, loc), time.Date(2023, 3, 12, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartOfDay(tt.in, soy); !got.Equal(tt.want) {
				t.Errorf("StartOfDay(%v) = %v, expected %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDayIndex(t *testing.T) {
	loc := Zone(testLongitude)
	soy := time.Date(2024, 1, 1, 0, 0, 0, 0, loc) // leap year

	tests := []struct {
		name string
		in   time.Time
		want int
	}{
		{"jan 1", soy, 0},
		{"jan 2", soy.Add(Day * time.Second), 1},
		{"jan 31", time.Date(2024, 1, 31, 0, 0, 0, 0, loc), 30},
		{"before year start clamps", soy.Add(-time.Hour), 0},
		{"last real slot", soy.Add((SeasonEnd - Day) * time.Second), 149},
		{"cutoff hits sentinel", soy.Add(SeasonEnd * time.Second), 150},
		{"deep summer sentinel", time.Date(2024, 8, 15, 12, 0, 0, 0, loc), 150},
		{"december sentinel", time.Date(2024, 12, 31, 23, 59, 59, 0, loc), 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayIndex(tt.in, soy); got != tt.want {
				t.Errorf("DayIndex(%v) = %d, expected %d", tt.in, got, tt.want)
			}
		})
	}
}

// The sentinel must hold in leap and non-leap years alike: the cutoff
// is a fixed second offset, not a calendar date.
func TestDayIndexSentinelLeapInvariance(t *testing.T) {
	loc := Zone(testLongitude)
	for _, year := range []int{2021, 2022, 2023, 2024, 2000, 1900} {
		soy := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
		jun1 := time.Date(year, 6, 1, 0, 0, 0, 0, loc)
		for d := jun1; d.Year() == year; d = d.AddDate(0, 0, 17) {
			if got := DayIndex(d, soy); got != SentinelIndex {
				t.Errorf("year %d: DayIndex(%v) = %d, expected %d", year, d, got, SentinelIndex)
			}
		}
	}
}

func TestDaySpans(t *testing.T) {
	loc := Zone(testLongitude)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, loc)
	spans := DaySpans(start, start.AddDate(0, 0, 5))
	if len(spans) != 5 {
		t.Fatalf("expected 5 day spans, got %d", len(spans))
	}
	for i, s := range spans {
		if s.Duration() != Day*time.Second {
			t.Errorf("span %d: duration %v, expected 24h", i, s.Duration())
		}
		if !s.Start.Equal(start.Add(time.Duration(i) * Day * time.Second)) {
			t.Errorf("span %d starts at %v", i, s.Start)
		}
	}

	if got := DaySpans(start, start); got != nil {
		t.Errorf("empty range should yield no spans, got %d", len(got))
	}
}

func TestDaySpanGrace(t *testing.T) {
	loc := Zone(testLongitude)
	midnight := time.Date(2023, 5, 10, 0, 0, 0, 0, loc)

	// An exact-midnight timestamp belongs to the day it terminates.
	span := DaySpan(loc, midnight, 0)
	if !span.Stop.Equal(midnight) {
		t.Errorf("DaySpan at midnight stops at %v, expected %v", span.Stop, midnight)
	}

	span = DaySpan(loc, midnight.Add(time.Second), 0)
	if !span.Start.Equal(midnight) {
		t.Errorf("DaySpan just after midnight starts at %v, expected %v", span.Start, midnight)
	}

	yesterday := DaySpan(loc, midnight.Add(time.Second), 1)
	if !yesterday.Start.Equal(midnight.AddDate(0, 0, -1)) {
		t.Errorf("days_ago=1 starts at %v", yesterday.Start)
	}
}

func TestTimeSpanContains(t *testing.T) {
	loc := Zone(testLongitude)
	start := time.Date(2023, 5, 10, 0, 0, 0, 0, loc)
	span := Span(start, start.Add(Day*time.Second))

	if span.Contains(start) {
		t.Error("span start should not be contained")
	}
	if !span.Contains(span.Stop) {
		t.Error("span stop should be contained")
	}
	if !span.Contains(start.Add(time.Hour)) {
		t.Error("interior instant should be contained")
	}
}
