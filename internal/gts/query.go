package gts

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/derived"
	"github.com/florawx/agromet/internal/log"
	"github.com/florawx/agromet/pkg/lmt"
)

var _ derived.Calculator = (*Engine)(nil)

// Scalar returns the observation's value as of the given instant. For
// an instant within today the running sum is served live from the
// frontier; past days come from the memoized season arrays. A day
// without archive data yields an absent value, not an error.
func (e *Engine) Scalar(ctx context.Context, obsType string, at time.Time) (derived.Value, error) {
	switch obsType {
	case TypeLMTOffset:
		return derived.NumberValue(float64(e.offset)), nil
	case TypeLMTTime:
		return derived.TimeValue(at.In(e.loc)), nil
	case TypeSum, TypeDate:
	default:
		return derived.Value{}, fmt.Errorf("%w: %q", derived.ErrUnknownType, obsType)
	}

	if e.backend == nil {
		e.scalarUnavailable.Do(func() {
			log.Errorf("growing-season scalar %s requested with no archive backend", obsType)
		})
		return derived.Value{}, backend.ErrUnavailable
	}

	soy := lmt.StartOfYear(at, e.loc)
	sod := lmt.StartOfDay(at, soy)

	first, err := e.backend.FirstTimestamp(ctx)
	if err != nil {
		return derived.Value{}, err
	}
	last, err := e.backend.LastTimestamp(ctx)
	if err != nil {
		return derived.Value{}, err
	}
	if first.IsZero() || soy.Before(first) || sod.After(last) {
		return derived.Value{}, fmt.Errorf("%w: %s at %s", derived.ErrOutOfRange,
			obsType, at.In(e.loc).Format(time.RFC3339))
	}

	if err := e.ensureComputed(ctx, soy); err != nil {
		return derived.Value{}, err
	}

	switch obsType {
	case TypeSum:
		frontier, total := e.liveFrontier()
		if !frontier.IsZero() && !at.Before(frontier) && !at.After(frontier.Add(lmt.Day*time.Second)) {
			return derived.NumberValue(total), nil
		}
		if v, ok := e.slotAt(soy, sod); ok {
			return derived.NumberValue(v), nil
		}
		return derived.NoValue(derived.Number), nil

	default: // TypeDate
		if t, ok := e.thresholdAt(soy); ok {
			return derived.TimeValue(t), nil
		}
		return derived.NoValue(derived.Timestamp), nil
	}
}

// Aggregate aggregates the running sum over a span. Supported kinds
// are avg, min, max, last, mintime, maxtime, lasttime, count and
// not_null.
func (e *Engine) Aggregate(ctx context.Context, obsType string, span lmt.TimeSpan, agg string) (derived.Value, error) {
	switch obsType {
	case TypeLMTOffset:
		return derived.NumberValue(float64(e.offset)), nil
	case TypeSum:
	case TypeDate, TypeLMTTime:
		return derived.Value{}, fmt.Errorf("%w: %s of %s", derived.ErrUnsupportedAggregation, agg, obsType)
	default:
		return derived.Value{}, fmt.Errorf("%w: %q", derived.ErrUnknownType, obsType)
	}

	if span.IsZero() || !span.Start.Before(span.Stop) {
		return derived.Value{}, fmt.Errorf("%w: missing or inverted time span", derived.ErrInvalidArgument)
	}

	if e.backend == nil {
		e.aggUnavailable.Do(func() {
			log.Errorf("growing-season aggregate %s requested with no archive backend", agg)
		})
		return derived.Value{}, backend.ErrUnavailable
	}

	// The one-second nudge keeps a span starting at an exact local
	// midnight of Jan 1 inside that year, not the previous one.
	soyStart := lmt.StartOfYear(span.Start.Add(time.Second), e.loc)
	soyStop := lmt.StartOfYear(span.Stop, e.loc)

	for soy := soyStart; !soy.After(soyStop); soy = nextYear(soy, e.loc) {
		if err := e.ensureComputed(ctx, soy); err != nil {
			return derived.Value{}, err
		}
	}

	switch agg {
	case "avg":
		return e.aggregateAvg(span, soyStart, soyStop)

	case "min", "mintime", "max", "maxtime":
		return e.aggregateExtreme(span, soyStart, soyStop, agg)

	case "last", "lasttime":
		return e.aggregateLast(span, soyStop, agg)

	case "count":
		n, err := e.backend.AggregateOver(ctx, sourceObs, span, backend.AggCount)
		if err != nil {
			return derived.Value{}, err
		}
		return derived.NumberValue(n.Value), nil

	case "not_null":
		n, err := e.backend.AggregateOver(ctx, sourceObs, span, backend.AggCount)
		if err != nil {
			return derived.Value{}, err
		}
		if n.Value > 0 {
			return derived.NumberValue(1), nil
		}
		return derived.NumberValue(0), nil
	}

	return derived.Value{}, fmt.Errorf("%w: %s of %s", derived.ErrUnsupportedAggregation, agg, obsType)
}

// aggregateAvg handles two distinct shapes. A span of at most 25 hours
// is treated as "one day": if its local days differ at the two ends,
// the day holding the larger share of the span wins, with ties going
// to the earlier day. Longer spans must stay within a single season
// and average the populated day slots.
func (e *Engine) aggregateAvg(span lmt.TimeSpan, soyStart, soyStop time.Time) (derived.Value, error) {
	if span.Duration() <= 90000*time.Second {
		a := lmt.StartOfDay(span.Start, soyStart)
		b := lmt.StartOfDay(span.Stop, soyStop)
		if !a.Equal(b) && b.Sub(span.Start) >= span.Stop.Sub(b) {
			b = a
		}
		bsoy := lmt.StartOfYear(b, e.loc)
		if v, ok := e.slotAt(bsoy, b); ok {
			return derived.NumberValue(v), nil
		}
		return derived.NoValue(derived.Number), nil
	}

	if !soyStart.Equal(soyStop) {
		return derived.Value{}, fmt.Errorf("%w: average spanning multiple seasons", derived.ErrInvalidArgument)
	}
	arr, ok := e.seasonCopy(soyStart.Unix())
	if !ok {
		return derived.NoValue(derived.Number), nil
	}

	ia := lmt.DayIndex(span.Start, soyStart)
	ib := lmt.DayIndex(span.Stop, soyStop)
	var vals []float64
	if ia == ib {
		if arr[ia].set {
			vals = append(vals, arr[ia].sum)
		}
	} else {
		for i := ia; i < ib; i++ {
			if arr[i].set {
				vals = append(vals, arr[i].sum)
			}
		}
	}
	if len(vals) == 0 {
		return derived.NoValue(derived.Number), nil
	}
	return derived.NumberValue(stat.Mean(vals, nil)), nil
}

// aggregateExtreme scans the populated slots of every season the span
// touches. Ties keep the earliest occurrence.
func (e *Engine) aggregateExtreme(span lmt.TimeSpan, soyStart, soyStop time.Time, agg string) (derived.Value, error) {
	wantMax := agg == "max" || agg == "maxtime"
	wantTime := agg == "mintime" || agg == "maxtime"

	var bestVal float64
	var bestTime time.Time
	found := false

	for soy := soyStart; !soy.After(soyStop); soy = nextYear(soy, e.loc) {
		arr, ok := e.seasonCopy(soy.Unix())
		if !ok {
			continue
		}
		for i := 0; i < lmt.SeasonSlots; i++ {
			if !arr[i].set {
				continue
			}
			t := soy.Add(time.Duration(i) * lmt.Day * time.Second)
			if !span.Contains(t) {
				continue
			}
			if !found || (wantMax && arr[i].sum > bestVal) || (!wantMax && arr[i].sum < bestVal) {
				found, bestVal, bestTime = true, arr[i].sum, t
			}
		}
	}

	kind := derived.Number
	if wantTime {
		kind = derived.Timestamp
	}
	if !found {
		return derived.NoValue(kind), nil
	}
	if wantTime {
		return derived.TimeValue(bestTime), nil
	}
	return derived.NumberValue(bestVal), nil
}

// aggregateLast serves spans reaching into today (or beyond) straight
// from the live frontier; spans ending in the past walk the final
// season's array backwards to the latest populated day.
func (e *Engine) aggregateLast(span lmt.TimeSpan, soyStop time.Time, agg string) (derived.Value, error) {
	now := e.now()
	todayStart := lmt.StartOfDay(now, lmt.StartOfYear(now, e.loc))

	if !span.Stop.Before(todayStart) {
		frontier, total := e.liveFrontier()
		if agg == "last" {
			return derived.NumberValue(total), nil
		}
		if !frontier.IsZero() {
			return derived.TimeValue(frontier), nil
		}
		return derived.NoValue(derived.Timestamp), nil
	}

	kind := derived.Number
	if agg == "lasttime" {
		kind = derived.Timestamp
	}
	arr, ok := e.seasonCopy(soyStop.Unix())
	if !ok {
		return derived.NoValue(kind), nil
	}
	for i := lmt.DayIndex(span.Stop, soyStop); i >= 0; i-- {
		t := soyStop.Add(time.Duration(i) * lmt.Day * time.Second)
		if t.Before(span.Start) {
			break
		}
		if !arr[i].set {
			continue
		}
		if agg == "last" {
			return derived.NumberValue(arr[i].sum), nil
		}
		return derived.TimeValue(t), nil
	}
	return derived.NoValue(kind), nil
}

func nextYear(soy time.Time, loc *time.Location) time.Time {
	return time.Date(soy.Year()+1, time.January, 1, 0, 0, 0, 0, loc)
}
