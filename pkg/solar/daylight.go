package solar

import (
	"math"
	"time"
)

// SunriseSunset returns the sunrise and sunset instants, in UTC, for
// the day containing t at the given coordinates. ok is false during
// polar day and polar night.
func SunriseSunset(t time.Time, latitude, longitude float64) (rise, set time.Time, ok bool) {
	utc := t.UTC()
	delta := degToRad(declinationDeg(float64(utc.YearDay())))
	lat := degToRad(latitude)

	cosH := -math.Tan(lat) * math.Tan(delta)
	if cosH < -1 || cosH > 1 {
		return time.Time{}, time.Time{}, false
	}
	// Half the day's length, in minutes either side of solar noon.
	halfDay := radToDeg(math.Acos(cosH)) * 4

	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	noon := 720 - 4*longitude - EquationOfTime(t)
	rise = midnight.Add(time.Duration((noon - halfDay) * float64(time.Minute)))
	set = midnight.Add(time.Duration((noon + halfDay) * float64(time.Minute)))
	return rise, set, true
}
