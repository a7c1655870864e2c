// Command agromet prints an agronomic report for one day: the
// grassland temperature sum and growing-season start, configured
// growing-degree-day measures, evapotranspiration and rain totals,
// and the measured solar energy against its clear-sky ceiling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/florawx/agromet/internal/backend"
	"github.com/florawx/agromet/internal/backend/sqlitearchive"
	"github.com/florawx/agromet/internal/backend/timescaledb"
	"github.com/florawx/agromet/internal/derived"
	"github.com/florawx/agromet/internal/gdd"
	"github.com/florawx/agromet/internal/gts"
	"github.com/florawx/agromet/internal/log"
	"github.com/florawx/agromet/internal/rollup"
	"github.com/florawx/agromet/pkg/barometer"
	"github.com/florawx/agromet/pkg/config"
	"github.com/florawx/agromet/pkg/lmt"
	"github.com/florawx/agromet/pkg/solar"
	"github.com/florawx/agromet/pkg/units"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "agromet.yaml", "Path to the YAML configuration file")
	date := flag.String("at", "", "Report instant as RFC3339 or YYYY-MM-DD (default: now)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("agromet %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.NewYAMLProvider(*cfgFile).Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Debug || *debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), cfg, *date); err != nil {
		log.Errorf("Report failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, date string) error {
	ts, closeFn, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	loc := lmt.Zone(cfg.Station.Longitude)
	at := time.Now()
	if date != "" {
		if parsed, err := time.Parse(time.RFC3339, date); err == nil {
			at = parsed
		} else if day, derr := time.ParseInLocation("2006-01-02", date, loc); derr == nil {
			at = day.Add(12 * time.Hour)
		} else {
			return fmt.Errorf("invalid -at %q: %w", date, err)
		}
	}

	fmt.Printf("%s, %s\n\n", cfg.Station.Name, at.In(loc).Format("2006-01-02"))

	reportSeason(ctx, ts, cfg, at)
	reportDegreeDays(ctx, ts, cfg, at)
	reportRollups(ctx, ts, cfg, at, loc)
	reportDaylight(cfg, at, loc)
	reportPressure(ctx, ts, cfg, at)
	return nil
}

func reportDaylight(cfg *config.Config, at time.Time, loc *time.Location) {
	rise, set, ok := solar.SunriseSunset(at, cfg.Station.Latitude, cfg.Station.Longitude)
	if !ok {
		return
	}
	fmt.Printf("  %-28s %s - %s LMT (%s)\n", "daylight",
		rise.In(loc).Format("15:04"), set.In(loc).Format("15:04"),
		set.Sub(rise).Round(time.Minute))
}

func openArchive(cfg *config.Config) (backend.TimeSeriesBackend, func(), error) {
	switch cfg.Archive.Backend {
	case config.BackendSQLite:
		b, err := sqlitearchive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	case config.BackendTimescaleDB:
		sys, err := cfg.Archive.System()
		if err != nil {
			return nil, nil, err
		}
		b, err := timescaledb.New(cfg.Archive.ConnectionString, sys, cfg.Archive.IntervalMinutes)
		if err != nil {
			return nil, nil, err
		}
		return b, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
}

func reportSeason(ctx context.Context, ts backend.TimeSeriesBackend, cfg *config.Config, at time.Time) {
	engine := gts.New(ts, cfg.Station.Longitude)

	v, err := engine.Scalar(ctx, gts.TypeSum, at)
	printValue("grassland temperature sum", v, err, "°C·day")

	d, err := engine.Scalar(ctx, gts.TypeDate, at)
	if err != nil {
		log.Warnf("growing-season start unavailable: %v", err)
	} else if d.Valid {
		fmt.Printf("  %-28s %s\n", "growing season start", d.Time.Format("2006-01-02"))
	} else {
		fmt.Printf("  %-28s not yet reached\n", "growing season start")
	}
}

func reportDegreeDays(ctx context.Context, ts backend.TimeSeriesBackend, cfg *config.Config, at time.Time) {
	var civil *time.Location
	if cfg.Station.Timezone != "" {
		var err error
		if civil, err = time.LoadLocation(cfg.Station.Timezone); err != nil {
			log.Warnf("invalid station timezone %q: %v", cfg.Station.Timezone, err)
		}
	}

	names := make([]string, 0, len(cfg.DegreeDays))
	for name := range cfg.DegreeDays {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		engine, err := gdd.New(ts, cfg.Station.Longitude, civil, cfg.DegreeDays[name])
		if err != nil {
			log.Warnf("degree-day measure %s misconfigured: %v", name, err)
			continue
		}
		v, err := engine.YearToDate(ctx, "outTemp", at)
		printValue(name+" (year to date)", v, err, "°C·day")
	}
}

func reportRollups(ctx context.Context, ts backend.TimeSeriesBackend, cfg *config.Config, at time.Time, loc *time.Location) {
	roll := rollup.New(ts, cfg.Station.Latitude, cfg.Station.Longitude, cfg.Station.AltitudeM)

	v, err := roll.ETDay(ctx, at)
	printValue("evapotranspiration today", v, err, "mm")

	v, err = roll.RainDay(ctx, at)
	printValue("rain today", v, err, "mm")

	v, err = roll.EnergyDay(ctx, at)
	printValue("solar energy today", v, err, "Wh/m²")

	v, err = roll.ClearSkyEnergy(ctx, lmt.DaySpan(loc, at, 0))
	printValue("clear-sky ceiling", v, err, "Wh/m²")
}

// reportPressure reduces the latest station pressure to sea level with
// the DWD formula, using the trailing 12-hour mean temperature.
func reportPressure(ctx context.Context, ts backend.TimeSeriesBackend, cfg *config.Config, at time.Time) {
	hour := lmt.Span(at.Add(-time.Hour), at)
	halfDay := lmt.Span(at.Add(-12*time.Hour), at)

	p, err := ts.AggregateOver(ctx, "pressure", hour, backend.AggLast)
	if err != nil || !p.Valid {
		return
	}
	cur, err := ts.AggregateOver(ctx, "outTemp", hour, backend.AggLast)
	if err != nil || !cur.Valid {
		return
	}
	mean, err := ts.MeanOver(ctx, "outTemp", halfDay)
	if err != nil || !mean.Valid {
		mean = cur
	}
	hum, err := ts.MeanOver(ctx, "outHumidity", hour)
	if err != nil || !hum.Valid {
		hum = backend.Scalar{Value: 50, Valid: true}
	}

	pHPa := p.Value
	if p.System == units.US {
		pHPa = units.InHgToHPa(p.Value)
	}
	curC, err := units.TempToCelsius(cur.Value, cur.System)
	if err != nil {
		return
	}
	meanC, err := units.TempToCelsius(mean.Value, mean.System)
	if err != nil {
		return
	}

	slp, err := barometer.SeaLevelPressure(pHPa, cfg.Station.AltitudeM, curC, meanC, hum.Value, barometer.DWD)
	if err != nil {
		log.Warnf("sea-level pressure reduction failed: %v", err)
		return
	}
	fmt.Printf("  %-28s %.1f hPa\n", "sea-level pressure", slp)
}

func printValue(label string, v derived.Value, err error, unit string) {
	switch {
	case err != nil:
		log.Warnf("%s unavailable: %v", label, err)
	case !v.Valid:
		fmt.Printf("  %-28s -\n", label)
	default:
		fmt.Printf("  %-28s %.1f %s\n", label, v.Num, unit)
	}
}
