// Package lmt implements calendar arithmetic on local mean time (LMT),
// the fixed-offset solar clock used for growing-season day boundaries.
//
// LMT is derived from the station's longitude (4 minutes per degree)
// and never observes daylight saving time, so every local day is
// exactly 86400 seconds long. Growing-season timing tracks solar time,
// not civil clock changes.
package lmt

import "time"

const (
	// Day is the length of every LMT day in seconds.
	Day = 86400

	// SeasonEnd is the offset in seconds from local Jan 1 00:00:00 to
	// local Jun 1 00:00:00 (151 fixed-length days, Jan 1 through
	// May 31 inclusive). It is deliberately not leap-adjusted: season
	// starts are always exact local Jan-1 midnights and every
	// intervening day is a fixed 86400-second block, so Feb 29 shifts
	// which calendar date an index lands on, never the arithmetic.
	SeasonEnd = 13046400

	// SeasonSlots is the size of a season's value array: day indices
	// 0..149 plus the "Jun 1 or later" sentinel slot 150.
	SeasonSlots = 151

	// SentinelIndex is the array index shared by every instant on or
	// after local Jun 1.
	SentinelIndex = 150
)

// Zone returns the fixed-offset LMT location for a station at the
// given longitude in degrees (east positive).
func Zone(longitude float64) *time.Location {
	return time.FixedZone("LMT", int(longitude*240.0))
}

// TimeSpan is a half-open time interval (Start, Stop].
type TimeSpan struct {
	Start time.Time
	Stop  time.Time
}

// Span builds a TimeSpan from two instants.
func Span(start, stop time.Time) TimeSpan {
	return TimeSpan{Start: start, Stop: stop}
}

// Duration returns the span length.
func (s TimeSpan) Duration() time.Duration {
	return s.Stop.Sub(s.Start)
}

// Contains reports whether t lies within the span. Midnight belongs
// to the day it ends, matching the archive convention that a record
// timestamped at an interval boundary covers the interval before it.
func (s TimeSpan) Contains(t time.Time) bool {
	return t.After(s.Start) && !t.After(s.Stop)
}

// IsZero reports whether the span is unset.
func (s TimeSpan) IsZero() bool {
	return s.Start.IsZero() && s.Stop.IsZero()
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// StartOfDay returns the start of the LMT day containing t, given the
// start of the season year t belongs to. Because the year start is a
// local midnight and LMT has no DST, the day boundary is plain
// modular arithmetic on Unix seconds.
func StartOfDay(t, yearStart time.Time) time.Time {
	sec := t.Unix() - floorMod(t.Unix()-yearStart.Unix(), Day)
	return time.Unix(sec, 0).In(yearStart.Location())
}

// StartOfYear returns local Jan 1 00:00:00 of the year containing t
// in the given fixed-offset location.
func StartOfYear(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.In(loc).Year(), time.January, 1, 0, 0, 0, 0, loc)
}

// DayIndex maps an instant to its slot in a season's value array:
// 0 for Jan 1, counting up by whole 86400-second days, collapsing to
// the sentinel slot 150 for everything on or after local Jun 1.
// Instants before the year start clamp to 0; that should not occur
// but is checked for safety.
func DayIndex(t, yearStart time.Time) int {
	d := t.Unix() - yearStart.Unix()
	if d < 0 {
		return 0
	}
	if d >= SeasonEnd {
		return SentinelIndex
	}
	return int(d / Day)
}

// DaySpan returns the LMT day containing t, shifted back by daysAgo
// whole days. A one-second grace keeps an exact midnight timestamp on
// the day it terminates.
func DaySpan(loc *time.Location, t time.Time, daysAgo int) TimeSpan {
	t = t.Add(-time.Second)
	sod := StartOfDay(t, StartOfYear(t, loc)).Add(-time.Duration(daysAgo) * Day * time.Second)
	return Span(sod, sod.Add(Day*time.Second))
}

// MonthSpan returns the local calendar month containing t.
func MonthSpan(loc *time.Location, t time.Time) TimeSpan {
	lt := t.Add(-time.Second).In(loc)
	start := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
	return Span(start, start.AddDate(0, 1, 0))
}

// YearSpan returns the local calendar year containing t.
func YearSpan(loc *time.Location, t time.Time) TimeSpan {
	start := StartOfYear(t.Add(-time.Second), loc)
	return Span(start, time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, loc))
}

// DaySpans splits [start, stop) into consecutive exact-86400-second
// days. Unlike civil-time day iteration there are no 23- or 25-hour
// days here.
func DaySpans(start, stop time.Time) []TimeSpan {
	if !start.Before(stop) {
		return nil
	}
	spans := make([]TimeSpan, 0, (stop.Unix()-start.Unix()+Day-1)/Day)
	for ts := start; ts.Before(stop); ts = ts.Add(Day * time.Second) {
		spans = append(spans, Span(ts, ts.Add(Day*time.Second)))
	}
	return spans
}

// CivilDaySpans splits [start, stop) into civil-time calendar days in
// loc. Days around DST transitions are 23 or 25 hours long.
func CivilDaySpans(start, stop time.Time, loc *time.Location) []TimeSpan {
	if !start.Before(stop) {
		return nil
	}
	var spans []TimeSpan
	lt := start.In(loc)
	cur := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	for cur.Before(stop) {
		next := cur.AddDate(0, 0, 1)
		spans = append(spans, Span(cur, next))
		cur = next
	}
	return spans
}
