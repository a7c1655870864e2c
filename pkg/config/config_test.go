package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/florawx/agromet/pkg/units"
)

const sampleYAML = `
station:
  name: potsdam
  latitude: 52.3813
  longitude: 13.0622
  altitude_m: 81
archive:
  backend: sqlite
  path: /var/lib/weewx/weewx.sdb
degree_days:
  gdd10:
    base:
      value: 10
      unit: degree_C
    limit:
      value: 30
      unit: degree_C
    method: integral
debug: true
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agromet.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := NewYAMLProvider(writeConfig(t, sampleYAML)).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Station.Name != "potsdam" || cfg.Station.Longitude != 13.0622 {
		t.Errorf("station = %+v", cfg.Station)
	}
	if cfg.Archive.Backend != BackendSQLite || cfg.Archive.Path == "" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	dd, ok := cfg.DegreeDays["gdd10"]
	if !ok {
		t.Fatal("gdd10 measure missing")
	}
	baseC, err := dd.Base.Celsius()
	if err != nil || baseC != 10 {
		t.Errorf("base = %.1f, %v; expected 10", baseC, err)
	}
	if !cfg.Debug {
		t.Error("debug flag not parsed")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"bad latitude", Config{
			Station: StationConfig{Latitude: 95},
			Archive: ArchiveConfig{Backend: BackendSQLite, Path: "x"},
		}, "latitude"},
		{"no backend", Config{}, "backend not configured"},
		{"sqlite without path", Config{
			Archive: ArchiveConfig{Backend: BackendSQLite},
		}, "requires a path"},
		{"timescaledb without dsn", Config{
			Archive: ArchiveConfig{Backend: BackendTimescaleDB},
		}, "connection string"},
		{"unknown backend", Config{
			Archive: ArchiveConfig{Backend: "carrierpigeon"},
		}, "unknown archive backend"},
		{"unknown unit system", Config{
			Archive: ArchiveConfig{Backend: BackendTimescaleDB, ConnectionString: "x", UnitSystem: "imperial"},
		}, "unknown unit system"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, expected to mention %q", err, tc.want)
			}
		})
	}
}

func TestTimescaleDefaults(t *testing.T) {
	cfg := Config{Archive: ArchiveConfig{Backend: BackendTimescaleDB, ConnectionString: "host=db"}}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Archive.IntervalMinutes != 5 {
		t.Errorf("interval default = %d, expected 5", cfg.Archive.IntervalMinutes)
	}
	sys, err := cfg.Archive.System()
	if err != nil || sys != units.Metric {
		t.Errorf("default system = %v, %v; expected METRIC", sys, err)
	}
}
