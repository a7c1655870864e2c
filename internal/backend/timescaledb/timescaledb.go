// Package timescaledb reads observations from a TimescaleDB
// hypertable. Unlike the weewx-style SQLite archive the hypertable
// carries no per-row unit tag or interval column, so both are fixed by
// configuration.
package timescaledb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/log"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// observation name -> hypertable column. The whitelist keeps caller
// strings out of SQL.
var columns = map[string]string{
	"outTemp":     "outtemp",
	"outHumidity": "outhumidity",
	"barometer":   "barometer",
	"pressure":    "pressure",
	"windSpeed":   "windspeed",
	"rain":        "rain",
	"ET":          "et",
	"radiation":   "radiation",
}

const table = "weather"

// Backend reads a TimescaleDB weather hypertable.
type Backend struct {
	db          *gorm.DB
	sys         units.System
	intervalMin int
}

var _ backend.TimeSeriesBackend = (*Backend)(nil)

// New connects to TimescaleDB and returns a backend whose rows are in
// the given unit system, recorded every intervalMinutes.
func New(connectionString string, sys units.System, intervalMinutes int) (*Backend, error) {
	if err := validate(sys, intervalMinutes); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	log.Info("TimescaleDB connection successful")

	return &Backend{db: db, sys: sys, intervalMin: intervalMinutes}, nil
}

// NewFromDB wraps an existing GORM handle.
func NewFromDB(db *gorm.DB, sys units.System, intervalMinutes int) (*Backend, error) {
	if err := validate(sys, intervalMinutes); err != nil {
		return nil, err
	}
	return &Backend{db: db, sys: sys, intervalMin: intervalMinutes}, nil
}

func validate(sys units.System, intervalMinutes int) error {
	if !sys.Valid() {
		return fmt.Errorf("unknown unit system %v", sys)
	}
	if intervalMinutes <= 0 {
		return fmt.Errorf("archive interval must be positive, got %d", intervalMinutes)
	}
	return nil
}

func column(obs string) (string, error) {
	col, ok := columns[obs]
	if !ok {
		return "", fmt.Errorf("unknown observation type %q", obs)
	}
	return col, nil
}

// FirstTimestamp returns the earliest record time, or the zero time
// for an empty hypertable.
func (b *Backend) FirstTimestamp(ctx context.Context) (time.Time, error) {
	return b.boundTimestamp(ctx, "MIN")
}

// LastTimestamp returns the latest record time, or the zero time for
// an empty hypertable.
func (b *Backend) LastTimestamp(ctx context.Context) (time.Time, error) {
	return b.boundTimestamp(ctx, "MAX")
}

func (b *Backend) boundTimestamp(ctx context.Context, fn string) (time.Time, error) {
	var ts sql.NullTime
	row := b.db.WithContext(ctx).Raw("SELECT " + fn + "(time) FROM " + table).Row()
	if err := row.Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
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
		row := b.db.WithContext(ctx).Raw(
			fmt.Sprintf("SELECT COUNT(%s) FROM %s WHERE time > ? AND time <= ?", col, table),
			span.Start, span.Stop).Row()
		if err := row.Scan(&n); err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		return backend.Scalar{Value: float64(n), Valid: true}, nil

	case backend.AggLast:
		var v sql.NullFloat64
		row := b.db.WithContext(ctx).Raw(
			fmt.Sprintf("SELECT %s FROM %s WHERE time > ? AND time <= ? AND %s IS NOT NULL ORDER BY time DESC LIMIT 1", col, table, col),
			span.Start, span.Stop).Row()
		err := row.Scan(&v)
		if err == sql.ErrNoRows {
			return backend.Scalar{}, nil
		}
		if err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		return backend.Scalar{Value: v.Float64, System: b.sys, Valid: v.Valid}, nil

	case backend.AggAvg, backend.AggMin, backend.AggMax, backend.AggSum:
		var v sql.NullFloat64
		row := b.db.WithContext(ctx).Raw(
			fmt.Sprintf("SELECT %s(%s) FROM %s WHERE time > ? AND time <= ?", sqlFunc(agg), col, table),
			span.Start, span.Stop).Row()
		if err := row.Scan(&v); err != nil {
			return backend.Scalar{}, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
		}
		if !v.Valid {
			return backend.Scalar{}, nil
		}
		return backend.Scalar{Value: v.Float64, System: b.sys, Valid: true}, nil
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
// Base and limit are Celsius; for a US-unit hypertable the thresholds
// are converted to Fahrenheit and the sum scaled back.
func (b *Backend) DegreeDayIntegral(ctx context.Context, obs string, span lmt.TimeSpan, baseC, limitC float64) (float64, bool, error) {
	col, err := column(obs)
	if err != nil {
		return 0, false, err
	}

	base, limit, scale := baseC, limitC, 1.0
	if b.sys == units.US {
		base = units.CToF(baseC)
		scale = 5.0 / 9.0
		if !math.IsInf(limitC, 1) {
			limit = units.CToF(limitC)
		}
	}

	var q string
	var args []interface{}
	if math.IsInf(limitC, 1) {
		q = fmt.Sprintf("SELECT SUM(%s - ?), COUNT(%s) FROM %s WHERE time > ? AND time <= ? AND %s > ?", col, col, table, col)
		args = []interface{}{base, span.Start, span.Stop, base}
	} else {
		q = fmt.Sprintf("SELECT SUM(LEAST(%s, ?) - ?), COUNT(%s) FROM %s WHERE time > ? AND time <= ? AND %s > ?", col, col, table, col)
		args = []interface{}{limit, base, span.Start, span.Stop, base}
	}

	var sum sql.NullFloat64
	var n int64
	row := b.db.WithContext(ctx).Raw(q, args...).Row()
	if err := row.Scan(&sum, &n); err != nil {
		return 0, false, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !sum.Valid {
		// Either no rows at all or none above the base; tell them
		// apart with a plain count.
		any, err := b.AggregateOver(ctx, obs, span, backend.AggCount)
		if err != nil {
			return 0, false, err
		}
		return 0, any.Value > 0, nil
	}
	return sum.Float64 * float64(b.intervalMin) / 1440.0 * scale, true, nil
}

// EnergyIntegral computes Σ value × interval over the span, returning
// Wh/m² for a W/m² observation.
func (b *Backend) EnergyIntegral(ctx context.Context, obs string, span lmt.TimeSpan) (float64, bool, error) {
	col, err := column(obs)
	if err != nil {
		return 0, false, err
	}
	var sum sql.NullFloat64
	row := b.db.WithContext(ctx).Raw(
		fmt.Sprintf("SELECT SUM(%s) FROM %s WHERE time > ? AND time <= ? AND %s IS NOT NULL", col, table, col),
		span.Start, span.Stop).Row()
	if err := row.Scan(&sum); err != nil {
		return 0, false, fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	if !sum.Valid {
		return 0, false, nil
	}
	return sum.Float64 * float64(b.intervalMin) * 60.0 / 3600.0, true, nil
}
