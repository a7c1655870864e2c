// Package barometer reduces station pressure to sea level using a
// selectable reduction algorithm, and computes altimeter pressure.
//
// Inputs are hPa, meters, degrees Celsius and percent relative
// humidity; results are hPa.
package barometer

import (
	"fmt"
	"math"

	"github.com/florawx/agromet/pkg/vapor"
)

// Algorithm selects a pressure reduction formula.
type Algorithm string

const (
	// WView is the plain international barometric formula without a
	// humidity term, the default of most station software.
	WView Algorithm = "WView"
	// Univie is the reduction published by the Institute of
	// Meteorology of the University of Vienna.
	Univie Algorithm = "Univie"
	// DavisVP is the formula Davis Instruments uses in the Vantage
	// Pro firmware.
	DavisVP Algorithm = "DavisVp"
	// DWD is the reduction of the German Weather Service
	// (Richtlinie VuB 2).
	DWD Algorithm = "DWD"
)

const (
	gravity           = 9.80665  // m/s²
	universalGas      = 8.31432  // J/(mol·K)
	moleAir           = 0.028967 // kg/mol, dry air
	gasConstantAir    = universalGas / moleAir
	standardLapseRate = 0.0065 // K/m
	earthRadius45     = 6356766.0 // m, at 45° latitude
)

// geopotentialAltitude converts a geometric elevation to the
// geopotential elevation used by the reduction formulas.
func geopotentialAltitude(elevationM float64) float64 {
	return (earthRadius45 * elevationM) / (earthRadius45 + elevationM)
}

// ReductionRatio returns the factor by which station pressure is
// multiplied to obtain sea-level pressure.
func ReductionRatio(pressureHPa, elevationM, currentTempC, meanTempC, humidity float64, algorithm Algorithm) (float64, error) {
	switch algorithm {
	case WView:
		// International barometric formula on the current virtual-free
		// column temperature; no humidity correction.
		tK := currentTempC + 273.15 + standardLapseRate*elevationM/2
		return math.Exp(gravity * elevationM / (gasConstantAir * tK)), nil

	case Univie:
		geopEl := geopotentialAltitude(elevationM)
		avp, err := vapor.ActualPressure(currentTempC, humidity, vapor.Bolton)
		if err != nil {
			return 0, err
		}
		tK := currentTempC + 273.15 + geopEl*standardLapseRate/2 + avp*0.12
		return math.Exp(geopEl * gravity / (gasConstantAir * tK)), nil

	case DavisVP:
		var hCorr float64
		if humidity > 0 {
			avp, err := vapor.ActualPressure(currentTempC, humidity, vapor.Bolton)
			if err != nil {
				return 0, err
			}
			hCorr = 9.0 / 5.0 * avp
		}
		// Davis takes these constants literally.
		return math.Pow(10, elevationM/(18429.1+67.53*currentTempC+0.003*elevationM-hCorr)), nil

	case DWD:
		avp, err := vapor.ActualPressure(currentTempC, humidity, vapor.DWD)
		if err != nil {
			return 0, err
		}
		tK := currentTempC + 273.15 + avp*0.12 + standardLapseRate*elevationM/2
		return math.Exp(gravity / gasConstantAir * elevationM / tK), nil
	}
	return 0, fmt.Errorf("unknown barometer algorithm %q", algorithm)
}

// SeaLevelPressure reduces a station pressure reading to sea level.
// meanTempC is the 12-hour mean outdoor temperature; algorithms that
// do not use it ignore it.
func SeaLevelPressure(pressureHPa, elevationM, currentTempC, meanTempC, humidity float64, algorithm Algorithm) (float64, error) {
	ratio, err := ReductionRatio(pressureHPa, elevationM, currentTempC, meanTempC, humidity, algorithm)
	if err != nil {
		return 0, err
	}
	return pressureHPa * ratio, nil
}

// AltimeterPressure computes the altimeter setting (ASOS formula)
// from station pressure and elevation.
func AltimeterPressure(pressureHPa, elevationM float64) float64 {
	const k1 = 0.190284
	p := pressureHPa - 0.3
	return p * math.Pow(1+math.Pow(1013.25, k1)*0.0065/288.15*elevationM/math.Pow(p, k1), 1/k1)
}
