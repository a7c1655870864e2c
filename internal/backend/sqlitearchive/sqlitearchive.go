// Package sqlitearchive reads a weewx-style SQLite weather archive:
// an `archive` table keyed by Unix-second dateTime, with a per-row
// usUnits unit-system tag and an `interval` column in minutes.
package sqlitearchive

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// observation name -> archive column. The whitelist keeps caller
// strings out of SQL.
var columns = map[string]string{
	"outTemp":     "outTemp",
	"outHumidity": "outHumidity",
	"barometer":   "barometer",
	"pressure":    "pressure",
	"windSpeed":   "windSpeed",
	"rain":        "rain",
	"ET":          "ET",
	"radiation":   "radiation",
}

// Backend reads a weewx-style archive database.
type Backend struct {
	db *sql.DB
}

var _ backend.TimeSeriesBackend = (*Backend)(nil)

// Open opens the archive at the given path.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}
	return &Backend{db: db}, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

func column(obs string) (string, error) {
	col, ok := columns[obs]
	if !ok {
		return "", fmt.Errorf("unknown observation type %q", obs)
	}
	return col, nil
}

// FirstTimestamp returns the earliest record time, or the zero time
// for an empty archive.
func (b *Backend) FirstTimestamp(ctx context.Context) (time.Time, error) {
	return b.boundTimestamp(ctx, "MIN")
}

// LastTimestamp returns the latest record time, or the zero time for
// an empty archive.
func (b *Backend) LastTimestamp(ctx context.Context) (time.Time, error) {
	return b.boundTimestamp(ctx, "MAX")
}

func (b *Backend) boundTimestamp(ctx context.Context, fn string) (time.Time, error) {
	var ts sql.NullInt64
	err := b.db.QueryRowContext(ctx, "SELECT "+fn+"(dateTime) FROM archive").Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0), nil
}

// MeanOver returns the mean of the observation over the span.
func (b *Backend) MeanOver(ctx context.Context, obs string, span lmt.TimeSpan) (backend.Scalar, error) {
	return b.AggregateOver(ctx, obs, span, backend.AggAvg)
}

// AggregateOver runs a server-side aggregate over the span.
func (b *Backend) AggregateOver(ctx context.Context, obs string, span lmt.TimeSpan, agg string) (backend.Scalar, error) {
	col, err := column(obs)
	if err != nil {
		return backend.Scalar{}, err
	}

	switch agg {
	case backend.AggCount:
		var n int64
		err := b.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(%s) FROM archive WHERE dateTime > ? AND dateTime <= ?", col),
			span.Start.Unix(), span.Stop.Unix()).Scan(&n)
		if err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		return backend.Scalar{Value: float64(n), Valid: true}, nil

	case backend.AggLast:
		var v sql.NullFloat64
		var sys int
		err := b.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT %s, usUnits FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s IS NOT NULL ORDER BY dateTime DESC LIMIT 1", col, col),
			span.Start.Unix(), span.Stop.Unix()).Scan(&v, &sys)
		if err == sql.ErrNoRows {
			return backend.Scalar{}, nil
		}
		if err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		return backend.Scalar{Value: v.Float64, System: units.System(sys), Valid: v.Valid}, nil

	case backend.AggAvg, backend.AggMin, backend.AggMax, backend.AggSum:
		var v sql.NullFloat64
		var n, distinct int64
		var sys sql.NullInt64
		q := fmt.Sprintf(
			"SELECT %s(%s), COUNT(%s), COUNT(DISTINCT usUnits), MIN(usUnits) FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s IS NOT NULL",
			sqlFunc(agg), col, col, col)
		err := b.db.QueryRowContext(ctx, q, span.Start.Unix(), span.Stop.Unix()).Scan(&v, &n, &distinct, &sys)
		if err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		if n == 0 || !v.Valid {
			return backend.Scalar{}, nil
		}
		if distinct > 1 {
			return backend.Scalar{}, fmt.Errorf("%w: %s over %v..%v", backend.ErrInconsistentUnits, obs, span.Start.Unix(), span.Stop.Unix())
		}
		return backend.Scalar{Value: v.Float64, System: units.System(sys.Int64), Valid: true}, nil
	}
	return backend.Scalar{}, fmt.Errorf("unsupported archive aggregation %q", agg)
}

func sqlFunc(agg string) string {
	switch agg {
	case backend.AggAvg:
		return "AVG"
	case backend.AggMin:
		return "MIN"
	case backend.AggMax:
		return "MAX"
	default:
		return "SUM"
	}
}

// DegreeDayIntegral computes the degree-day integral server-side.
// Base and limit are Celsius; rows in US units are handled by
// converting the thresholds into Fahrenheit and scaling the resulting
// degree-day sum back.
func (b *Backend) DegreeDayIntegral(ctx context.Context, obs string, span lmt.TimeSpan, baseC, limitC float64) (float64, bool, error) {
	col, err := column(obs)
	if err != nil {
		return 0, false, err
	}

	sys, any, err := b.unitSystem(ctx, col, span)
	if err != nil {
		return 0, false, err
	}
	if !any {
		return 0, false, nil
	}

	base, limit, scale := baseC, limitC, 1.0
	if sys == units.US {
		base = units.CToF(baseC)
		scale = 5.0 / 9.0
		if !math.IsInf(limitC, 1) {
			limit = units.CToF(limitC)
		}
	}

	var q string
	args := []interface{}{}
	if math.IsInf(limitC, 1) {
		q = fmt.Sprintf(
			"SELECT SUM((%s - ?) * `interval`) FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s > ?", col, col)
		args = append(args, base, span.Start.Unix(), span.Stop.Unix(), base)
	} else {
		q = fmt.Sprintf(
			"SELECT SUM((MIN(%s, ?) - ?) * `interval`) FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s > ?", col, col)
		args = append(args, limit, base, span.Start.Unix(), span.Stop.Unix(), base)
	}

	var sum sql.NullFloat64
	if err := b.db.QueryRowContext(ctx, q, args...).Scan(&sum); err != nil {
		return 0, false, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !sum.Valid {
		// Records exist but none exceeded the base.
		return 0, true, nil
	}
	return sum.Float64 / 1440.0 * scale, true, nil
}

// EnergyIntegral computes Σ value × interval over the span, returning
// Wh/m² for a W/m² observation.
func (b *Backend) EnergyIntegral(ctx context.Context, obs string, span lmt.TimeSpan) (float64, bool, error) {
	col, err := column(obs)
	if err != nil {
		return 0, false, err
	}
	var sum sql.NullFloat64
	q := fmt.Sprintf(
		"SELECT SUM(%s * `interval` * 60.0 / 3600.0) FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s IS NOT NULL", col, col)
	err = b.db.QueryRowContext(ctx, q, span.Start.Unix(), span.Stop.Unix()).Scan(&sum)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !sum.Valid {
		return 0, false, nil
	}
	return sum.Float64, true, nil
}

// unitSystem returns the single unit system used by the span's rows.
func (b *Backend) unitSystem(ctx context.Context, col string, span lmt.TimeSpan) (units.System, bool, error) {
	var distinct int64
	var sys sql.NullInt64
	q := fmt.Sprintf(
		"SELECT COUNT(DISTINCT usUnits), MIN(usUnits) FROM archive WHERE dateTime > ? AND dateTime <= ? AND %s IS NOT NULL", col)
	err := b.db.QueryRowContext(ctx, q, span.Start.Unix(), span.Stop.Unix()).Scan(&distinct, &sys)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if distinct == 0 || !sys.Valid {
		return 0, false, nil
	}
	if distinct > 1 {
		return 0, false, fmt.Errorf("%w: %s over %v..%v", backend.ErrInconsistentUnits, col, span.Start.Unix(), span.Stop.Unix())
	}
	return units.System(sys.Int64), true, nil
}
