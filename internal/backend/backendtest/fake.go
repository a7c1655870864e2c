// Package backendtest provides a deterministic in-memory
// TimeSeriesBackend for calculator tests.
package backendtest

import (
	"context"
	"math"
	"time"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// Fake serves per-day observation statistics from maps keyed by the
// day's start as a Unix second. Days absent from a map behave like
// archive gaps. All values are in Sys units.
type Fake struct {
	FirstTS time.Time
	LastTS  time.Time
	Sys     units.System

	Means map[string]map[int64]float64
	Mins  map[string]map[int64]float64
	Maxs  map[string]map[int64]float64

	// DD and Energy are returned verbatim by the integral methods.
	DD          float64
	DDValid     bool
	Energy      float64
	EnergyValid bool

	// Err, when set, fails every call. FailAfterMeans, when positive,
	// scopes Err to MeanOver calls beyond that count, simulating a
	// backend dying partway through a computation.
	Err            error
	FailAfterMeans int

	// MeanCalls counts MeanOver invocations, for memoization tests.
	MeanCalls int
}

var _ backend.TimeSeriesBackend = (*Fake)(nil)

// New returns a fake spanning [first, last] in the given unit system.
func New(first, last time.Time, sys units.System) *Fake {
	return &Fake{
		FirstTS: first,
		LastTS:  last,
		Sys:     sys,
		Means:   make(map[string]map[int64]float64),
		Mins:    make(map[string]map[int64]float64),
		Maxs:    make(map[string]map[int64]float64),
	}
}

// SetMean records the mean for the day starting at dayStart.
func (f *Fake) SetMean(obs string, dayStart time.Time, v float64) {
	set(f.Means, obs, dayStart, v)
}

// SetMinMax records the daily extremes for the day starting at dayStart.
func (f *Fake) SetMinMax(obs string, dayStart time.Time, min, max float64) {
	set(f.Mins, obs, dayStart, min)
	set(f.Maxs, obs, dayStart, max)
}

func set(m map[string]map[int64]float64, obs string, dayStart time.Time, v float64) {
	if m[obs] == nil {
		m[obs] = make(map[int64]float64)
	}
	m[obs][dayStart.Unix()] = v
}

func (f *Fake) FirstTimestamp(ctx context.Context) (time.Time, error) {
	if f.Err != nil && f.FailAfterMeans == 0 {
		return time.Time{}, f.Err
	}
	return f.FirstTS, nil
}

func (f *Fake) LastTimestamp(ctx context.Context) (time.Time, error) {
	if f.Err != nil && f.FailAfterMeans == 0 {
		return time.Time{}, f.Err
	}
	return f.LastTS, nil
}

func (f *Fake) MeanOver(ctx context.Context, obs string, span lmt.TimeSpan) (backend.Scalar, error) {
	f.MeanCalls++
	if f.Err != nil && (f.FailAfterMeans == 0 || f.MeanCalls > f.FailAfterMeans) {
		return backend.Scalar{}, f.Err
	}
	v, ok := f.Means[obs][span.Start.Unix()]
	return backend.Scalar{Value: v, System: f.Sys, Valid: ok}, nil
}

func (f *Fake) AggregateOver(ctx context.Context, obs string, span lmt.TimeSpan, agg string) (backend.Scalar, error) {
	if f.Err != nil {
		return backend.Scalar{}, f.Err
	}
	switch agg {
	case backend.AggAvg:
		return f.MeanOver(ctx, obs, span)
	case backend.AggMin:
		v, ok := f.Mins[obs][span.Start.Unix()]
		return backend.Scalar{Value: v, System: f.Sys, Valid: ok}, nil
	case backend.AggMax:
		v, ok := f.Maxs[obs][span.Start.Unix()]
		return backend.Scalar{Value: v, System: f.Sys, Valid: ok}, nil
	case backend.AggSum:
		sum, n := f.fold(obs, span)
		return backend.Scalar{Value: sum, System: f.Sys, Valid: n > 0}, nil
	case backend.AggCount:
		_, n := f.fold(obs, span)
		return backend.Scalar{Value: float64(n), Valid: true}, nil
	case backend.AggLast:
		var v float64
		var best int64 = math.MinInt64
		for day, dv := range f.Means[obs] {
			if day >= span.Start.Unix() && day < span.Stop.Unix() && day > best {
				best, v = day, dv
			}
		}
		return backend.Scalar{Value: v, System: f.Sys, Valid: best != math.MinInt64}, nil
	}
	return backend.Scalar{}, nil
}

// fold sums the per-day means whose day falls in the span.
func (f *Fake) fold(obs string, span lmt.TimeSpan) (float64, int) {
	var sum float64
	n := 0
	for day, v := range f.Means[obs] {
		if day >= span.Start.Unix() && day < span.Stop.Unix() {
			sum += v
			n++
		}
	}
	return sum, n
}

func (f *Fake) DegreeDayIntegral(ctx context.Context, obs string, span lmt.TimeSpan, baseC, limitC float64) (float64, bool, error) {
	if f.Err != nil {
		return 0, false, f.Err
	}
	return f.DD, f.DDValid, nil
}

func (f *Fake) EnergyIntegral(ctx context.Context, obs string, span lmt.TimeSpan) (float64, bool, error) {
	if f.Err != nil {
		return 0, false, f.Err
	}
	return f.Energy, f.EnergyValid, nil
}
