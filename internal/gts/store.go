package gts

import (
	"time"

	"github.com/florawx/agromet/pkg/lmt"
)

// slot is one day's entry in a season array: the cumulative sum as of
// that day's end, or nothing for a day without usable data.
type slot struct {
	sum float64
	set bool
}

// seasonArray holds the per-day cumulative sums of one season,
// indexed by lmt.DayIndex. Slots are write-once: a set slot keeps its
// value for the life of the process.
type seasonArray [lmt.SeasonSlots]slot

// store is the engine's accumulation state: one array per season ever
// queried plus the first-crossing dates. Seasons are never evicted;
// the key count is bounded by the station's lifetime in years.
type store struct {
	seasons    map[int64]*seasonArray
	thresholds map[int64]time.Time
}

func newStore() *store {
	return &store{
		seasons:    make(map[int64]*seasonArray),
		thresholds: make(map[int64]time.Time),
	}
}

// season returns the array for a season key, or nil.
func (s *store) season(key int64) *seasonArray {
	return s.seasons[key]
}

// createSeason allocates a fresh all-unset array for the key.
func (s *store) createSeason(key int64) *seasonArray {
	arr := &seasonArray{}
	s.seasons[key] = arr
	return arr
}

// dropSeason discards a partially computed array so a later call
// recomputes it from scratch.
func (s *store) dropSeason(key int64) {
	delete(s.seasons, key)
}

// threshold returns the day the cumulative sum first reached the
// threshold, if it did.
func (s *store) threshold(key int64) (time.Time, bool) {
	t, ok := s.thresholds[key]
	return t, ok
}

// setThresholdIfAbsent records the first crossing; later crossings of
// the same season are ignored.
func (s *store) setThresholdIfAbsent(key int64, t time.Time) {
	if _, ok := s.thresholds[key]; !ok {
		s.thresholds[key] = t
	}
}
