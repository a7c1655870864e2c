// Package gdd computes growing degree days against a configurable
// base temperature, either by integrating archive records directly or
// from per-day temperature summaries.
package gdd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/derived"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// Method selects how a day's degree-day contribution is derived.
type Method string

const (
	// MethodIntegral integrates every archive record weighted by its
	// interval. It needs no day boundaries at all and is the most
	// faithful to the recorded temperature curve.
	MethodIntegral Method = "integral"

	// MethodDailyAverage uses max(0, min(mean, limit) - base) per day.
	MethodDailyAverage Method = "dailyAverage"

	// MethodHighLowAverage uses the classic (high+low)/2 formulation
	// with the high capped at the limit.
	MethodHighLowAverage Method = "highLowAverage"

	// MethodHighLowClampedLow additionally raises the low to the base
	// before averaging (the corn growing degree day convention).
	MethodHighLowClampedLow Method = "highLowAverageClampedLow"
)

// Boundary selects the day boundaries used by the per-day methods.
type Boundary string

const (
	BoundaryLMT   Boundary = "lmt"
	BoundaryCivil Boundary = "civil"
)

// Config describes one degree-day measure. Base is required. Limit,
// when set, caps the temperature that may contribute; Stop, when set,
// zeroes any day whose high (or mean, for the mean-based method)
// reaches it.
type Config struct {
	Base  units.Temperature  `yaml:"base"`
	Limit *units.Temperature `yaml:"limit,omitempty"`
	Stop  *units.Temperature `yaml:"stop,omitempty"`

	Method   Method   `yaml:"method"`
	Boundary Boundary `yaml:"boundary"`
}

// Engine evaluates one configured degree-day measure against an
// archive. It is stateless and safe for concurrent use.
type Engine struct {
	backend backend.TimeSeriesBackend

	// civilLoc is the station's civil time zone, used only when the
	// config asks for civil day boundaries.
	lmtLoc   *time.Location
	civilLoc *time.Location

	method   Method
	boundary Boundary
	baseC    float64
	limitC   float64 // +Inf when unset
	stopC    float64 // +Inf when unset
}

// New validates the config and returns an engine. The civil location
// may be nil when the boundary is LMT.
func New(b backend.TimeSeriesBackend, longitude float64, civilLoc *time.Location, cfg Config) (*Engine, error) {
	e := &Engine{
		backend:  b,
		lmtLoc:   lmt.Zone(longitude),
		civilLoc: civilLoc,
		method:   cfg.Method,
		boundary: cfg.Boundary,
		limitC:   math.Inf(1),
		stopC:    math.Inf(1),
	}
	if e.method == "" {
		e.method = MethodIntegral
	}
	if e.boundary == "" {
		e.boundary = BoundaryLMT
	}

	switch e.method {
	case MethodIntegral, MethodDailyAverage, MethodHighLowAverage, MethodHighLowClampedLow:
	default:
		return nil, fmt.Errorf("%w: unknown degree-day method %q", derived.ErrInvalidArgument, cfg.Method)
	}
	switch e.boundary {
	case BoundaryLMT:
	case BoundaryCivil:
		if civilLoc == nil {
			return nil, fmt.Errorf("%w: civil day boundary requires a time zone", derived.ErrInvalidArgument)
		}
	default:
		return nil, fmt.Errorf("%w: unknown day boundary %q", derived.ErrInvalidArgument, cfg.Boundary)
	}

	var err error
	if e.baseC, err = cfg.Base.Celsius(); err != nil {
		return nil, fmt.Errorf("%w: base: %v", derived.ErrInvalidArgument, err)
	}
	if cfg.Limit != nil {
		if e.limitC, err = cfg.Limit.Celsius(); err != nil {
			return nil, fmt.Errorf("%w: limit: %v", derived.ErrInvalidArgument, err)
		}
		if e.limitC < e.baseC {
			return nil, fmt.Errorf("%w: limit %.1f°C below base %.1f°C", derived.ErrInvalidArgument, e.limitC, e.baseC)
		}
	}
	if cfg.Stop != nil {
		if e.stopC, err = cfg.Stop.Celsius(); err != nil {
			return nil, fmt.Errorf("%w: stop: %v", derived.ErrInvalidArgument, err)
		}
	}
	return e, nil
}

// Sum returns the degree days accumulated by the observation over the
// span, in °C·day. A span with no usable records yields an absent
// value. The per-day methods treat the span start as a day boundary
// and consider only whole days inside the span; a trailing partial
// day is ignored.
func (e *Engine) Sum(ctx context.Context, obs string, span lmt.TimeSpan) (derived.Value, error) {
	if span.IsZero() || !span.Start.Before(span.Stop) {
		return derived.Value{}, fmt.Errorf("%w: missing or inverted time span", derived.ErrInvalidArgument)
	}
	if e.backend == nil {
		return derived.Value{}, backend.ErrUnavailable
	}

	if e.method == MethodIntegral {
		v, ok, err := e.backend.DegreeDayIntegral(ctx, obs, span, e.baseC, e.limitC)
		if err != nil {
			return derived.Value{}, err
		}
		if !ok {
			return derived.NoValue(derived.Number), nil
		}
		return derived.NumberValue(v), nil
	}

	var sum float64
	found := false
	for _, day := range e.days(span) {
		v, ok, err := e.dayContribution(ctx, obs, day)
		if err != nil {
			return derived.Value{}, err
		}
		if ok {
			sum += v
			found = true
		}
	}
	if !found {
		return derived.NoValue(derived.Number), nil
	}
	return derived.NumberValue(sum), nil
}

// YearToDate returns the degree days from local Jan 1 through the
// given instant.
func (e *Engine) YearToDate(ctx context.Context, obs string, at time.Time) (derived.Value, error) {
	loc := e.lmtLoc
	if e.boundary == BoundaryCivil {
		loc = e.civilLoc
	}
	soy := lmt.StartOfYear(at, loc)
	if !soy.Before(at) {
		return derived.NoValue(derived.Number), nil
	}
	return e.Sum(ctx, obs, lmt.Span(soy, at))
}

// days splits the span into the whole days the per-day methods sum
// over.
func (e *Engine) days(span lmt.TimeSpan) []lmt.TimeSpan {
	var all []lmt.TimeSpan
	if e.boundary == BoundaryCivil {
		all = lmt.CivilDaySpans(span.Start, span.Stop, e.civilLoc)
	} else {
		all = lmt.DaySpans(span.Start, span.Stop)
	}
	days := all[:0]
	for _, d := range all {
		if !d.Start.Before(span.Start) && !d.Stop.After(span.Stop) {
			days = append(days, d)
		}
	}
	return days
}

func (e *Engine) dayContribution(ctx context.Context, obs string, day lmt.TimeSpan) (float64, bool, error) {
	if e.method == MethodDailyAverage {
		mean, err := e.backend.MeanOver(ctx, obs, day)
		if err != nil {
			return 0, false, err
		}
		if !mean.Valid {
			return 0, false, nil
		}
		meanC, err := units.TempToCelsius(mean.Value, mean.System)
		if err != nil {
			return 0, false, err
		}
		if meanC >= e.stopC {
			return 0, true, nil
		}
		return math.Max(0, math.Min(meanC, e.limitC)-e.baseC), true, nil
	}

	lo, err := e.backend.AggregateOver(ctx, obs, day, backend.AggMin)
	if err != nil {
		return 0, false, err
	}
	hi, err := e.backend.AggregateOver(ctx, obs, day, backend.AggMax)
	if err != nil {
		return 0, false, err
	}
	if !lo.Valid || !hi.Valid {
		return 0, false, nil
	}
	loC, err := units.TempToCelsius(lo.Value, lo.System)
	if err != nil {
		return 0, false, err
	}
	hiC, err := units.TempToCelsius(hi.Value, hi.System)
	if err != nil {
		return 0, false, err
	}

	if hiC >= e.stopC {
		return 0, true, nil
	}
	hiC = math.Min(hiC, e.limitC)
	if e.method == MethodHighLowClampedLow {
		loC = math.Max(loC, e.baseC)
	}
	return math.Max(0, (hiC+loC)/2-e.baseC), true, nil
}
