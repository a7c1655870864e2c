package gdd

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/florawx/agromet/internal/backend/backendtest"
	"github.com/florawx/agromet/internal/derived"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

const testLongitude = 13.75

var loc = lmt.Zone(testLongitude)

func tempC(v float64) units.Temperature {
	return units.Temperature{Value: v, Unit: units.DegreeC}
}

func tempPtr(v float64) *units.Temperature {
	t := tempC(v)
	return &t
}

func testFake() (*backendtest.Fake, time.Time) {
	start := time.Date(2023, time.May, 1, 0, 0, 0, 0, loc)
	f := backendtest.New(start, start.AddDate(0, 1, 0), units.Metric)
	return f, start
}

func day(start time.Time, i int) time.Time {
	return start.Add(time.Duration(i) * lmt.Day * time.Second)
}

func sum(t *testing.T, e *Engine, span lmt.TimeSpan) derived.Value {
	t.Helper()
	v, err := e.Sum(context.Background(), "outTemp", span)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestIntegralMethod(t *testing.T) {
	f, start := testFake()
	f.DD = 42.5
	f.DDValid = true

	e, err := New(f, testLongitude, nil, Config{Base: tempC(10), Method: MethodIntegral})
	if err != nil {
		t.Fatal(err)
	}
	span := lmt.Span(start, day(start, 10))

	v := sum(t, e, span)
	if !v.Valid || math.Abs(v.Num-42.5) > 1e-9 {
		t.Errorf("integral sum = %+v, expected 42.5", v)
	}

	f.DDValid = false
	if v := sum(t, e, span); v.Valid {
		t.Errorf("empty span should be absent, got %+v", v)
	}
}

func TestDailyAverageMethod(t *testing.T) {
	f, start := testFake()
	f.SetMean("outTemp", day(start, 0), 15) // 5 over base
	f.SetMean("outTemp", day(start, 1), 8)  // below base, counts zero
	// day 2 missing
	f.SetMean("outTemp", day(start, 3), 22) // capped by limit 20

	e, err := New(f, testLongitude, nil, Config{
		Base:   tempC(10),
		Limit:  tempPtr(20),
		Method: MethodDailyAverage,
	})
	if err != nil {
		t.Fatal(err)
	}

	v := sum(t, e, lmt.Span(start, day(start, 4)))
	if !v.Valid || math.Abs(v.Num-15) > 1e-9 {
		t.Errorf("sum = %+v, expected 15 (5 + 0 + gap + 10)", v)
	}
}

func TestHighLowAverageMethods(t *testing.T) {
	f, start := testFake()
	f.SetMinMax("outTemp", day(start, 0), 10, 20) // plain avg 15
	f.SetMinMax("outTemp", day(start, 1), 5, 35)  // high capped at 30

	cfg := Config{Base: tempC(10), Limit: tempPtr(30), Method: MethodHighLowAverage}
	e, err := New(f, testLongitude, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// (20+10)/2 - 10 = 5, then (30+5)/2 - 10 = 7.5
	v := sum(t, e, lmt.Span(start, day(start, 2)))
	if !v.Valid || math.Abs(v.Num-12.5) > 1e-9 {
		t.Errorf("highLowAverage sum = %+v, expected 12.5", v)
	}

	cfg.Method = MethodHighLowClampedLow
	e, err = New(f, testLongitude, nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// (20+10)/2 - 10 = 5, then low clamps to 10: (30+10)/2 - 10 = 10
	v = sum(t, e, lmt.Span(start, day(start, 2)))
	if !v.Valid || math.Abs(v.Num-15) > 1e-9 {
		t.Errorf("clamped-low sum = %+v, expected 15", v)
	}
}

func TestStopTemperature(t *testing.T) {
	f, start := testFake()
	f.SetMinMax("outTemp", day(start, 0), 15, 25)
	f.SetMinMax("outTemp", day(start, 1), 20, 36) // too hot, zeroed

	e, err := New(f, testLongitude, nil, Config{
		Base:   tempC(10),
		Stop:   tempPtr(35),
		Method: MethodHighLowAverage,
	})
	if err != nil {
		t.Fatal(err)
	}
	v := sum(t, e, lmt.Span(start, day(start, 2)))
	if !v.Valid || math.Abs(v.Num-10) > 1e-9 {
		t.Errorf("sum = %+v, expected 10 (hot day contributes nothing)", v)
	}
}

func TestUSUnitArchive(t *testing.T) {
	start := time.Date(2023, time.May, 1, 0, 0, 0, 0, loc)
	f := backendtest.New(start, start.AddDate(0, 1, 0), units.US)
	f.SetMinMax("outTemp", day(start, 0), 50, 68) // 10°C .. 20°C

	e, err := New(f, testLongitude, nil, Config{Base: tempC(10), Method: MethodHighLowAverage})
	if err != nil {
		t.Fatal(err)
	}
	v := sum(t, e, lmt.Span(start, day(start, 1)))
	if !v.Valid || math.Abs(v.Num-5) > 1e-9 {
		t.Errorf("sum = %+v, expected 5", v)
	}
}

func TestPartialTrailingDayIgnored(t *testing.T) {
	f, start := testFake()
	f.SetMean("outTemp", day(start, 0), 15)
	f.SetMean("outTemp", day(start, 1), 15)
	f.SetMean("outTemp", day(start, 2), 15)

	e, err := New(f, testLongitude, nil, Config{Base: tempC(10), Method: MethodDailyAverage})
	if err != nil {
		t.Fatal(err)
	}
	span := lmt.Span(start, day(start, 2).Add(12*time.Hour))
	v := sum(t, e, span)
	if !v.Valid || math.Abs(v.Num-10) > 1e-9 {
		t.Errorf("sum = %+v, expected 10 (two whole days only)", v)
	}
}

func TestFahrenheitBase(t *testing.T) {
	f, start := testFake()
	f.SetMean("outTemp", day(start, 0), 15)

	// A 50°F base is a 10°C base.
	e, err := New(f, testLongitude, nil, Config{
		Base:   units.Temperature{Value: 50, Unit: units.DegreeF},
		Method: MethodDailyAverage,
	})
	if err != nil {
		t.Fatal(err)
	}
	v := sum(t, e, lmt.Span(start, day(start, 1)))
	if !v.Valid || math.Abs(v.Num-5) > 1e-9 {
		t.Errorf("sum = %+v, expected 5", v)
	}
}

func TestConfigValidation(t *testing.T) {
	f, _ := testFake()
	tests := []struct {
		name string
		cfg  Config
		loc  *time.Location
	}{
		{"limit below base", Config{Base: tempC(10), Limit: tempPtr(5)}, nil},
		{"unknown method", Config{Base: tempC(10), Method: "quadratic"}, nil},
		{"unknown boundary", Config{Base: tempC(10), Boundary: "sidereal"}, nil},
		{"civil boundary without zone", Config{Base: tempC(10), Boundary: BoundaryCivil}, nil},
		{"bad unit", Config{Base: units.Temperature{Value: 10, Unit: "degree_R"}}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(f, testLongitude, tc.loc, tc.cfg); !errors.Is(err, derived.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestCivilBoundary(t *testing.T) {
	start := time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)
	f := backendtest.New(start, start.AddDate(0, 1, 0), units.Metric)
	f.SetMean("outTemp", start, 14)
	f.SetMean("outTemp", start.AddDate(0, 0, 1), 16)

	e, err := New(f, testLongitude, time.UTC, Config{
		Base:     tempC(10),
		Method:   MethodDailyAverage,
		Boundary: BoundaryCivil,
	})
	if err != nil {
		t.Fatal(err)
	}
	v := sum(t, e, lmt.Span(start, start.AddDate(0, 0, 2)))
	if !v.Valid || math.Abs(v.Num-10) > 1e-9 {
		t.Errorf("civil-day sum = %+v, expected 10 (4 + 6)", v)
	}
}

func TestYearToDate(t *testing.T) {
	f, _ := testFake()
	f.DD = 120
	f.DDValid = true

	e, err := New(f, testLongitude, nil, Config{Base: tempC(10), Method: MethodIntegral})
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.YearToDate(context.Background(), "outTemp", time.Date(2023, time.May, 15, 12, 0, 0, 0, loc))
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid || math.Abs(v.Num-120) > 1e-9 {
		t.Errorf("year to date = %+v, expected 120", v)
	}
}
