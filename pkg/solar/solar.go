// Package solar provides clear-sky shortwave radiation models used as
// the theoretical ceiling for measured radiation-energy integrals.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/vapor"
)

const solarConstant = 1361.0 // W/m²

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// EquationOfTime returns the difference between apparent and mean
// solar time in minutes.
func EquationOfTime(t time.Time) float64 {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4
}

// declinationDeg returns the solar declination for a day of year.
func declinationDeg(dayOfYear float64) float64 {
	inner := degToRad(356.6 + 0.9856*dayOfYear)
	outer := degToRad(278.97 + 0.9856*dayOfYear + 1.9165*math.Sin(inner))
	return radToDeg(math.Asin(0.39785 * math.Sin(outer)))
}

// ClearSkyASCE computes clear-sky shortwave radiation in W/m² with
// the ASCE model, evaluated on the station's local-mean-time clock.
// On LMT the time meridian coincides with the station longitude, so
// solar noon differs from 12:00 only by the equation of time.
func ClearSkyASCE(t time.Time, latitude, longitude, altitudeM, airTempC, humidity float64) float64 {
	const Kt = 1.0 // clearness index

	local := t.In(lmt.Zone(longitude))
	dayOfYear := float64(local.YearDay())
	timeOfDay := float64(local.Hour()) + float64(local.Minute())/60.0 + float64(local.Second())/3600.0

	dR := 1 + 0.033*math.Cos((2*math.Pi/365)*dayOfYear)
	delta := declinationDeg(dayOfYear)
	eqtHours := EquationOfTime(t) / 60.0
	solarNoon := 12.0 - eqtHours

	zenith := radToDeg(math.Acos(
		math.Sin(degToRad(latitude))*math.Sin(degToRad(delta)) +
			math.Cos(degToRad(latitude))*math.Cos(degToRad(delta))*math.Cos((timeOfDay-solarNoon)*math.Pi/12)))

	// Extraterrestrial radiation on the horizontal.
	swA := solarConstant * dR * math.Cos(degToRad(zenith))
	if swA < 0 {
		return 0.0
	}

	// Atmospheric pressure (kPa) from elevation and air temperature.
	pB := 101.325 * math.Exp((altitudeM*-gravityOverGas)/(airTempC+273.15))

	// Actual vapor pressure (kPa), Buck formula.
	svp, err := vapor.SaturationPressure(airTempC, vapor.Buck)
	if err != nil {
		return 0.0
	}
	eA := svp / 10.0 * humidity / 100.0

	// Precipitable water (mm).
	w := 0.15*eA*pB + 0.6

	sinEl := math.Sin(degToRad(90 - zenith))
	kB := 0.98 * math.Exp((-0.00146*pB)/(Kt*sinEl)-0.075*math.Pow(w/sinEl, 0.4))

	var kD float64
	if kB > 0.15 {
		kD = 0.35 - 0.36*kB
	} else {
		kD = 0.18 + 0.82*kB
	}

	return (kB + kD) * swA
}

// gravityOverGas is g·M/R for dry air, the scale factor of the
// isothermal pressure-elevation relation in K/m.
const gravityOverGas = 9.80665 / (8.314472 / 0.028967)

// Bras computes solar radiation in W/m² with the Bras (1990) model.
// nfac is the atmospheric turbidity factor, 2 for clear skies up to
// 5 for smoggy air.
func Bras(t time.Time, latitude, longitude float64, nfac float64) float64 {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	C := math.Sin(degToRad(M))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*M))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*M))*0.000289
	sunLong := L0 + C
	omega := 125.04 - 1934.136*T
	lambda := sunLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	deltaRad := math.Asin(math.Sin(degToRad(eps0)) * math.Sin(degToRad(lambda)))

	utc := t.UTC()
	utcMin := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60.0
	tst := utcMin + 4*longitude + EquationOfTime(t)
	haRad := degToRad(tst/4 - 180)

	latRad := degToRad(latitude)
	cosZen := math.Sin(latRad)*math.Sin(deltaRad) + math.Cos(latRad)*math.Cos(deltaRad)*math.Cos(haRad)
	elDeg := 90 - radToDeg(math.Acos(cosZen)) + 0.5667
	if elDeg <= 0 {
		return 0.0
	}

	// Eccentricity correction for the Sun-Earth distance.
	e := 0.016708617 - T*(0.000042037+T*0.0000001236)
	mRad := degToRad(M)
	ecc := mRad + e*math.Sin(mRad)*(1+e*math.Cos(mRad))
	v := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(ecc/2))
	r := (1 - e*e) / (1 + e*math.Cos(v))

	io := cosZen * solarConstant / (r * r)
	m := 1.0 / (cosZen + 0.15*math.Pow(elDeg+3.885, -1.253))
	a1 := 0.128 - 0.054*math.Log(m)/math.Ln10
	sr := io * math.Exp(-nfac*a1*m)
	if sr < 0 {
		return 0.0
	}
	return sr
}
