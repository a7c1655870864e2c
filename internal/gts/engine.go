// Package gts computes the Gruenlandtemperatursumme, a weighted
// running sum of positive daily mean temperatures used to estimate the
// start of the grassland growing season. Daily means in January count
// half, February three quarters, and from March on in full; the sum
// runs from local Jan 1 through the end of May on the station's local
// mean time calendar. The day the sum first reaches 200 is taken as
// the start of the growing season.
package gts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/log"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/units"
)

// Observation names served by the engine.
const (
	TypeSum       = "GTS"
	TypeDate      = "GTSdate"
	TypeLMTOffset = "utcoffsetLMT"
	TypeLMTTime   = "LMTtime"
)

// ThresholdSum is the cumulative sum that marks the start of the
// growing season.
const ThresholdSum = 200.0

// sourceObs is the archive observation the sum is built from.
const sourceObs = "outTemp"

// Engine lazily computes and memoizes per-season sums on demand. One
// mutex guards all accumulation state; a computation in progress
// blocks concurrent queries, which then find the result memoized.
type Engine struct {
	backend backend.TimeSeriesBackend
	loc     *time.Location
	offset  int

	now func() time.Time

	mu       sync.Mutex
	store    *store
	frontier time.Time
	total    float64

	scalarUnavailable sync.Once
	aggUnavailable    sync.Once
}

// New returns an engine for a station at the given longitude, reading
// from b. A nil backend is tolerated; queries then fail with
// backend.ErrUnavailable.
func New(b backend.TimeSeriesBackend, longitude float64) *Engine {
	return &Engine{
		backend: b,
		loc:     lmt.Zone(longitude),
		offset:  int(longitude * 240.0),
		now:     time.Now,
		store:   newStore(),
	}
}

// ensureComputed brings the season starting at soy up to date: for the
// season containing now, up to the start of today; for past seasons,
// through the end of May, after which the season is immutable.
func (e *Engine) ensureComputed(ctx context.Context, soy time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.computeLocked(ctx, soy)
}

func (e *Engine) computeLocked(ctx context.Context, soy time.Time) error {
	now := e.now()
	if soy.After(now) {
		return nil
	}
	first, err := e.backend.FirstTimestamp(ctx)
	if err != nil {
		return fmt.Errorf("computing growing-season sum for %d: %w", soy.Year(), err)
	}
	if first.IsZero() || first.After(soy) {
		// Nothing recorded that far back; leave the season uncomputed.
		return nil
	}

	key := soy.Unix()
	end := soy.Add(lmt.SeasonEnd * time.Second)
	current := soy.Equal(lmt.StartOfYear(now, e.loc))

	var season *seasonArray
	var ts time.Time
	var total float64

	if current {
		season = e.store.season(key)
		if season == nil {
			season = e.store.createSeason(key)
			e.frontier = soy
			e.total = 0
			log.Infof("initializing growing-season sums for %d", soy.Year())
		}
		ts, total = e.frontier, e.total
	} else {
		if e.store.season(key) != nil {
			// Finished seasons never change.
			return nil
		}
		season = e.store.createSeason(key)
		ts, total = soy, 0
	}

	target := end
	if current {
		target = lmt.StartOfDay(now, soy)
	}

	// Weight boundaries follow the season's own local calendar; only
	// the end-of-May cutoff is a fixed offset.
	feb := time.Date(soy.Year(), time.February, 1, 0, 0, 0, 0, e.loc)
	mar := time.Date(soy.Year(), time.March, 1, 0, 0, 0, 0, e.loc)

	days := 0
	for ts.Before(target) && ts.Before(end) {
		day := lmt.Span(ts, ts.Add(lmt.Day*time.Second))
		mean, err := e.backend.MeanOver(ctx, sourceObs, day)
		if err != nil {
			if !current {
				e.store.dropSeason(key)
			}
			return fmt.Errorf("computing growing-season sum for %d: %w", soy.Year(), err)
		}
		if mean.Valid {
			avgC, cerr := units.TempToCelsius(mean.Value, mean.System)
			if cerr != nil {
				if !current {
					e.store.dropSeason(key)
				}
				return fmt.Errorf("computing growing-season sum for %d: %w", soy.Year(), cerr)
			}
			if avgC > 0 {
				w := avgC
				switch {
				case ts.Before(feb):
					w *= 0.5
				case ts.Before(mar):
					w *= 0.75
				}
				total += w
				if total >= ThresholdSum {
					e.store.setThresholdIfAbsent(key, ts)
				}
			}
			season[lmt.DayIndex(ts, soy)] = slot{sum: total, set: true}
		}
		ts = ts.Add(lmt.Day * time.Second)
		days++
	}

	if days > 0 {
		log.Debugf("growing-season sum for %d now %.1f after %d day(s)", soy.Year(), total, days)
		if current {
			e.frontier = ts
			e.total = total
		}
	}
	return nil
}

// liveFrontier snapshots the current season's running state.
func (e *Engine) liveFrontier() (time.Time, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frontier, e.total
}

// slotAt reads one day's memoized sum.
func (e *Engine) slotAt(soy, sod time.Time) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	arr := e.store.season(soy.Unix())
	if arr == nil {
		return 0, false
	}
	s := arr[lmt.DayIndex(sod, soy)]
	return s.sum, s.set
}

// seasonCopy snapshots a whole season array for lock-free scanning.
func (e *Engine) seasonCopy(key int64) (seasonArray, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	arr := e.store.season(key)
	if arr == nil {
		return seasonArray{}, false
	}
	return *arr, true
}

// thresholdAt returns the memoized first-crossing date of a season.
func (e *Engine) thresholdAt(soy time.Time) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.threshold(soy.Unix())
}
