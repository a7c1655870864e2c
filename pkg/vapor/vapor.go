// Package vapor provides saturation and actual vapor pressure
// calculations over the algorithm family used by weather archive
// software, plus the humidity derivatives built on them.
//
// All temperatures are degrees Celsius, pressures are hPa and
// relative humidity is percent.
package vapor

import (
	"fmt"
	"math"
)

// Algorithm selects a saturation vapor pressure formula.
type Algorithm string

const (
	Bolton      Algorithm = "Bolton"
	Buck        Algorithm = "Buck"
	Buck81      Algorithm = "Buck81"
	Teten       Algorithm = "Teten"
	TetenNWS    Algorithm = "TetenNWS"
	TetenMurray Algorithm = "TetenMurray"
	DavisVP     Algorithm = "DavisVp"
	DWD         Algorithm = "DWD"
)

// SaturationPressure returns the saturation vapor pressure in hPa for
// the given air temperature.
func SaturationPressure(tempC float64, algorithm Algorithm) (float64, error) {
	switch algorithm {
	case DavisVP:
		return 6.112 * math.Exp((17.62*tempC)/(243.12+tempC)), nil
	case Buck:
		return 6.1121 * math.Exp((18.678-tempC/234.5)*tempC/(257.14+tempC)), nil
	case Buck81:
		return 6.1121 * math.Exp((17.502*tempC)/(240.97+tempC)), nil
	case Bolton:
		return 6.112 * math.Exp(17.67*tempC/(tempC+243.5)), nil
	case TetenNWS:
		return 6.112 * math.Pow(10, 7.5*tempC/(tempC+237.7)), nil
	case TetenMurray:
		return math.Pow(10, 7.5*tempC/(237.5+tempC)+0.7858), nil
	case Teten:
		return 6.1078 * math.Pow(10, 7.5*tempC/(tempC+237.3)), nil
	case DWD:
		// Formula of the German Weather Service (Richtlinie VuB 2).
		return 6.11213 * math.Exp(17.5043*tempC/(241.2+tempC)), nil
	}
	return 0, fmt.Errorf("unknown vapor pressure algorithm %q", algorithm)
}

// ActualPressure returns the actual vapor pressure in hPa given air
// temperature and relative humidity.
func ActualPressure(tempC, humidity float64, algorithm Algorithm) (float64, error) {
	svp, err := SaturationPressure(tempC, algorithm)
	if err != nil {
		return 0, err
	}
	return humidity * svp / 100.0, nil
}

// DewPoint returns the dew point temperature in °C by inverting the
// Magnus formula over the actual vapor pressure.
func DewPoint(tempC, humidity float64) (float64, error) {
	if humidity <= 0 {
		return 0, fmt.Errorf("dew point undefined for humidity %.1f%%", humidity)
	}
	avp, err := ActualPressure(tempC, humidity, DWD)
	if err != nil {
		return 0, err
	}
	x := math.Log(avp / 6.11213)
	return 241.2 * x / (17.5043 - x), nil
}

// AbsoluteHumidity returns the water vapor density in g/m³.
func AbsoluteHumidity(tempC, humidity float64) (float64, error) {
	avp, err := ActualPressure(tempC, humidity, DWD)
	if err != nil {
		return 0, err
	}
	// e/(Rw·T) with Rw = 461.5 J/(kg·K); hPa→Pa and kg→g fold into 1e5.
	return avp * 1e5 / (461.5 * (tempC + 273.15)), nil
}
