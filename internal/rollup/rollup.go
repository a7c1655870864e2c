// Package rollup computes archive roll-ups that complement the
// degree-day measures: evapotranspiration and rain depth totals,
// radiation energy integrals, and their theoretical clear-sky ceiling.
package rollup

import (
	"context"
	"fmt"
	"time"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/derived"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/solar"
	"github.com/florawx/agromet/pkg/units"
)

// clearSkyStep is the integration step for the clear-sky energy
// ceiling.
const clearSkyStep = 5 * time.Minute

// Calculator evaluates roll-ups for one station. It is stateless and
// safe for concurrent use.
type Calculator struct {
	backend   backend.TimeSeriesBackend
	loc       *time.Location
	latitude  float64
	longitude float64
	altitude  float64
}

// New returns a calculator for a station at the given coordinates and
// altitude in meters.
func New(b backend.TimeSeriesBackend, latitude, longitude, altitudeM float64) *Calculator {
	return &Calculator{
		backend:   b,
		loc:       lmt.Zone(longitude),
		latitude:  latitude,
		longitude: longitude,
		altitude:  altitudeM,
	}
}

// DepthSum totals a depth observation (rain, ET) over the span and
// returns millimeters regardless of the archive's unit system.
func (c *Calculator) DepthSum(ctx context.Context, obs string, span lmt.TimeSpan) (derived.Value, error) {
	if span.IsZero() || !span.Start.Before(span.Stop) {
		return derived.Value{}, fmt.Errorf("%w: missing or inverted time span", derived.ErrInvalidArgument)
	}
	if c.backend == nil {
		return derived.Value{}, backend.ErrUnavailable
	}
	s, err := c.backend.AggregateOver(ctx, obs, span, backend.AggSum)
	if err != nil {
		return derived.Value{}, err
	}
	if !s.Valid {
		return derived.NoValue(derived.Number), nil
	}
	mm, err := units.DepthToMM(s.Value, s.System)
	if err != nil {
		return derived.Value{}, err
	}
	return derived.NumberValue(mm), nil
}

// ETDay returns the evapotranspiration total in mm for the LMT day
// containing at.
func (c *Calculator) ETDay(ctx context.Context, at time.Time) (derived.Value, error) {
	return c.DepthSum(ctx, "ET", lmt.DaySpan(c.loc, at, 0))
}

// ET24 returns the evapotranspiration total in mm for the 24 hours
// ending at the given instant.
func (c *Calculator) ET24(ctx context.Context, at time.Time) (derived.Value, error) {
	return c.DepthSum(ctx, "ET", lmt.Span(at.Add(-24*time.Hour), at))
}

// RainDay returns the rain total in mm for the LMT day containing at.
func (c *Calculator) RainDay(ctx context.Context, at time.Time) (derived.Value, error) {
	return c.DepthSum(ctx, "rain", lmt.DaySpan(c.loc, at, 0))
}

// Rain24 returns the rain total in mm for the 24 hours ending at the
// given instant.
func (c *Calculator) Rain24(ctx context.Context, at time.Time) (derived.Value, error) {
	return c.DepthSum(ctx, "rain", lmt.Span(at.Add(-24*time.Hour), at))
}

// RadiationEnergy integrates measured solar radiation over the span
// and returns Wh/m².
func (c *Calculator) RadiationEnergy(ctx context.Context, span lmt.TimeSpan) (derived.Value, error) {
	if span.IsZero() || !span.Start.Before(span.Stop) {
		return derived.Value{}, fmt.Errorf("%w: missing or inverted time span", derived.ErrInvalidArgument)
	}
	if c.backend == nil {
		return derived.Value{}, backend.ErrUnavailable
	}
	wh, ok, err := c.backend.EnergyIntegral(ctx, "radiation", span)
	if err != nil {
		return derived.Value{}, err
	}
	if !ok {
		return derived.NoValue(derived.Number), nil
	}
	return derived.NumberValue(wh), nil
}

// EnergyDay returns the measured radiation energy in Wh/m² for the
// LMT day containing at.
func (c *Calculator) EnergyDay(ctx context.Context, at time.Time) (derived.Value, error) {
	return c.RadiationEnergy(ctx, lmt.DaySpan(c.loc, at, 0))
}

// ClearSkyEnergy integrates the ASCE clear-sky radiation model over
// the span at five-minute steps and returns Wh/m². The model's
// pressure and vapor terms use the span's mean temperature and
// humidity from the archive when available, otherwise a temperate
// default. The result is the theoretical ceiling the measured energy
// integral can be compared against.
func (c *Calculator) ClearSkyEnergy(ctx context.Context, span lmt.TimeSpan) (derived.Value, error) {
	if span.IsZero() || !span.Start.Before(span.Stop) {
		return derived.Value{}, fmt.Errorf("%w: missing or inverted time span", derived.ErrInvalidArgument)
	}

	tempC, humidity := 15.0, 50.0
	if c.backend != nil {
		if m, err := c.backend.MeanOver(ctx, "outTemp", span); err == nil && m.Valid {
			if v, cerr := units.TempToCelsius(m.Value, m.System); cerr == nil {
				tempC = v
			}
		}
		if m, err := c.backend.MeanOver(ctx, "outHumidity", span); err == nil && m.Valid {
			humidity = m.Value
		}
	}

	var wh float64
	for ts := span.Start; ts.Before(span.Stop); ts = ts.Add(clearSkyStep) {
		mid := ts.Add(clearSkyStep / 2)
		wh += solar.ClearSkyASCE(mid, c.latitude, c.longitude, c.altitude, tempC, humidity) * clearSkyStep.Hours()
	}
	return derived.NumberValue(wh), nil
}
