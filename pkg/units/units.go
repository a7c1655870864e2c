// Package units defines the unit systems used by weather archives and
// the scalar conversions needed by the derived-metric calculators.
package units

import "fmt"

// System identifies the unit system a stored record uses. The values
// follow the archive convention (usUnits column).
type System int

const (
	US       System = 0x01
	Metric   System = 0x10
	MetricWX System = 0x11
)

func (s System) String() string {
	switch s {
	case US:
		return "US"
	case Metric:
		return "METRIC"
	case MetricWX:
		return "METRICWX"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// Valid reports whether s is one of the known unit systems.
func (s System) Valid() bool {
	return s == US || s == Metric || s == MetricWX
}

// TempUnit names a temperature unit for config values.
type TempUnit string

const (
	DegreeC TempUnit = "degree_C"
	DegreeF TempUnit = "degree_F"
	Kelvin  TempUnit = "degree_K"
)

// Temperature is a value/unit pair as it appears in configuration.
type Temperature struct {
	Value float64  `yaml:"value"`
	Unit  TempUnit `yaml:"unit"`
}

// Celsius converts the configured temperature to degrees Celsius.
func (t Temperature) Celsius() (float64, error) {
	switch t.Unit {
	case DegreeC, "":
		return t.Value, nil
	case DegreeF:
		return FToC(t.Value), nil
	case Kelvin:
		return t.Value - 273.15, nil
	}
	return 0, fmt.Errorf("unknown temperature unit %q", t.Unit)
}

func FToC(f float64) float64 { return (f - 32.0) * 5.0 / 9.0 }
func CToF(c float64) float64 { return c*9.0/5.0 + 32.0 }
func CToK(c float64) float64 { return c + 273.15 }

func InHgToHPa(in float64) float64 { return in * 33.863886666667 }
func HPaToInHg(p float64) float64  { return p / 33.863886666667 }

func InToMM(in float64) float64 { return in * 25.4 }
func MMToIn(mm float64) float64 { return mm / 25.4 }

func FtToM(ft float64) float64 { return ft * 0.3048 }
func MToFt(m float64) float64  { return m / 0.3048 }

// TempToCelsius converts a stored temperature to Celsius given the
// record's unit system. US archives store degrees Fahrenheit; both
// metric systems store Celsius.
func TempToCelsius(v float64, sys System) (float64, error) {
	switch sys {
	case US:
		return FToC(v), nil
	case Metric, MetricWX:
		return v, nil
	}
	return 0, fmt.Errorf("unknown unit system %v", sys)
}

// DepthToMM converts a stored rain/ET depth to millimeters. US
// archives store inches, METRIC stores centimeters and METRICWX
// stores millimeters.
func DepthToMM(v float64, sys System) (float64, error) {
	switch sys {
	case US:
		return InToMM(v), nil
	case Metric:
		return v * 10.0, nil
	case MetricWX:
		return v, nil
	}
	return 0, fmt.Errorf("unknown unit system %v", sys)
}
