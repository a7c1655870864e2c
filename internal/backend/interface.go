// Package backend defines the read interface to a time-ordered
// archive of weather observations. The derived-metric calculators
// consume this interface; implementations live in subpackages.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// ErrUnavailable indicates the archive handle is missing or a call to
// it failed at the transport/storage level.
var ErrUnavailable = errors.New("time-series backend unavailable")

// ErrInconsistentUnits indicates an aggregate window mixed records
// from different unit systems. Averaging across systems would be
// silently wrong, so it is refused.
var ErrInconsistentUnits = errors.New("mixed unit systems in aggregate window")

// Aggregate kinds understood by AggregateOver.
const (
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggSum   = "sum"
	AggCount = "count"
	AggLast  = "last"
)

// Scalar is an aggregate result. Valid is false when the window holds
// no usable records; that is a normal outcome, not an error.
type Scalar struct {
	Value  float64
	System units.System
	Valid  bool
}

// TimeSeriesBackend is the archive capability surface the calculators
// need. Spans follow the archive convention: a record timestamped at t
// covers the interval ending at t, so a span (start, stop] selects
// records with start < dateTime <= stop.
type TimeSeriesBackend interface {
	// FirstTimestamp and LastTimestamp bound the archive's history.
	FirstTimestamp(ctx context.Context) (time.Time, error)
	LastTimestamp(ctx context.Context) (time.Time, error)

	// MeanOver returns the mean of the named observation over the
	// span, tagged with the records' unit system.
	MeanOver(ctx context.Context, obs string, span lmt.TimeSpan) (Scalar, error)

	// AggregateOver runs a server-side aggregate (avg, min, max, sum,
	// count, last) of the named observation over the span.
	AggregateOver(ctx context.Context, obs string, span lmt.TimeSpan, agg string) (Scalar, error)

	// DegreeDayIntegral computes Σ max(0, min(obs, limit) - base) ×
	// interval/1440 over the span in a single server-side query.
	// Base and limit are degrees Celsius; the result is °C·day.
	// A limit of +Inf disables the upper clamp. The bool is false
	// when the span holds no records.
	DegreeDayIntegral(ctx context.Context, obs string, span lmt.TimeSpan, baseC, limitC float64) (float64, bool, error)

	// EnergyIntegral computes Σ obs × interval_seconds / 3600 over
	// the span: the energy in Wh/m² for a W/m² observation.
	EnergyIntegral(ctx context.Context, obs string, span lmt.TimeSpan) (float64, bool, error)
}
