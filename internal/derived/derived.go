// Package derived defines the common surface of the derived-metric
// calculators: optional values, the error taxonomy, and the
// Calculator interface hosts dispatch on.
package derived

import (
	"context"
	"errors"
	"time"

	"github.com/florawx/agromet/pkg/lmt"
)

// Error kinds. "No value" is never an error; it is a Value with
// Valid set to false. Hard failures are one of these, possibly
// wrapped.
var (
	// ErrUnknownType is returned for an observation name the
	// calculator does not handle.
	ErrUnknownType = errors.New("unknown observation type")

	// ErrOutOfRange indicates the requested instant or span lies
	// outside computable history: before the first archive record or
	// in the future.
	ErrOutOfRange = errors.New("instant outside computable history")

	// ErrUnsupportedAggregation indicates an aggregation kind that is
	// not defined for the observation type.
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")

	// ErrInvalidArgument indicates a missing time span or malformed
	// configuration value.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Kind discriminates what a Value holds.
type Kind int

const (
	Number Kind = iota
	Timestamp
)

// Value is an optional calculator result: either a number (degree
// days, millimeters, hPa, ...) or an instant. An absent value
// (Valid == false) means "nothing to report", e.g. a data-gap day or
// a threshold not yet crossed.
type Value struct {
	Num   float64
	Time  time.Time
	Kind  Kind
	Valid bool
}

// NumberValue builds a present numeric value.
func NumberValue(v float64) Value {
	return Value{Num: v, Kind: Number, Valid: true}
}

// TimeValue builds a present timestamp value.
func TimeValue(t time.Time) Value {
	return Value{Time: t, Kind: Timestamp, Valid: true}
}

// NoValue is the absent result.
func NoValue(kind Kind) Value {
	return Value{Kind: kind}
}

// Calculator is the host-facing entry point of a pluggable
// derived-metric calculator.
type Calculator interface {
	// Scalar computes the observation's value for a single instant.
	Scalar(ctx context.Context, obsType string, at time.Time) (Value, error)

	// Aggregate computes an aggregation of the observation over a
	// time span.
	Aggregate(ctx context.Context, obsType string, span lmt.TimeSpan, aggregateType string) (Value, error)
}
