/*
 * runner.go, part of mdrms
 *
 * Copyright 2026 Raul Mera <rauldotmeraatusachdotcl>
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rmera/mdrms/cache"
	"github.com/rmera/mdrms/rms"
	"github.com/rmera/mdrms/rmsplot"
	"github.com/rmera/mdrms/table"
)

// Outcome is the result of running one unit.
type Outcome struct {
	Unit     Unit
	Table    *table.Table
	Cached   bool
	Plot     string //file with the plot, if one was made
	Err      error
	Duration time.Duration
}

// Runner runs units through a cache.
type Runner struct {
	Cache *cache.Cache
	//nil means slog.Default().
	Logger *slog.Logger
	//Stop at the first unit that fails. Otherwise every unit is run and the
	//failures are reported together at the end.
	FailFast bool
	//Recompute units even if their tables are stored.
	Force bool
	//Draw a PNG plot for each table, in PlotDir.
	Plot    bool
	PlotDir string
	//If not nil, the metrics of the runner and the cache are registered here.
	Registry *prometheus.Registry
	//If not empty, the metrics are written here, in the Prometheus text format, after each Run.
	MetricsFile string

	units    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewRunner returns a runner on c, with its metrics registered in a new registry.
func NewRunner(c *cache.Cache) (*Runner, error) {
	R := &Runner{Cache: c, Registry: prometheus.NewRegistry()}
	R.units = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdrms",
		Subsystem: "batch",
		Name:      "units_total",
		Help:      "Units run, by result (computed, cached or failed).",
	}, []string{"result"})
	R.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mdrms",
		Subsystem: "batch",
		Name:      "unit_seconds",
		Help:      "Time taken by each unit, cache lookups included.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	})
	for _, col := range []prometheus.Collector{R.units, R.duration} {
		if err := R.Registry.Register(col); err != nil {
			return nil, err
		}
	}
	if err := c.Register(R.Registry); err != nil {
		return nil, err
	}
	return R, nil
}

func (R *Runner) logger() *slog.Logger {
	if R.Logger == nil {
		return slog.Default()
	}
	return R.Logger
}

func (R *Runner) count(result string) {
	if R.units != nil {
		R.units.WithLabelValues(result).Inc()
	}
}

// inputs returns the files a unit reads.
func inputs(u Unit) []string {
	ret := append([]string{u.Topology}, u.Trajectories...)
	if u.Reference != "" {
		ret = append(ret, u.Reference)
	}
	return ret
}

// Unit runs a single unit.
func (R *Runner) Unit(ctx context.Context, u Unit) Outcome {
	start := time.Now()
	o := Outcome{Unit: u}
	defer func() {
		o.Duration = time.Since(start)
		if R.duration != nil {
			R.duration.Observe(o.Duration.Seconds())
		}
	}()
	cfg, err := u.Config()
	if err != nil {
		o.Err = err
		return o
	}
	name := u.TableName()
	p := cache.Params{Values: cfg.Params(), Inputs: inputs(u)}
	if R.Force {
		if err := R.Cache.Invalidate(ctx, name, p); err != nil && !errors.Is(err, cache.ErrNotFound) {
			o.Err = fmt.Errorf("batch: %s: %w", name, err)
			return o
		}
	}
	o.Table, o.Cached, o.Err = R.Cache.GetOrCompute(ctx, name, p, func(ctx context.Context) (*table.Table, error) {
		R.logger().Debug("computing", "unit", u.Name, "params", cfg.String())
		return rms.NewEngine(cfg).Run(u.Topology, u.Trajectories)
	})
	if o.Err != nil {
		o.Err = fmt.Errorf("batch: %s: %w", u.Name, o.Err)
		return o
	}
	if R.Plot {
		o.Plot = filepath.Join(R.PlotDir, name+".png")
		o.Err = plot(o.Table, cfg.Metric, o.Plot, u.Title)
	}
	return o
}

func plot(t *table.Table, m rms.Metric, filename string, title string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	opts := &rmsplot.Options{Title: title}
	if m == rms.MetricRMSF {
		return rmsplot.RMSF(t, filename, opts)
	}
	return rmsplot.RMSD(t, filename, opts)
}

// Run runs the units in order. It returns one outcome per unit run, and
// an error joining those of all the units that failed.
func (R *Runner) Run(ctx context.Context, units []Unit) ([]Outcome, error) {
	log := R.logger()
	var ret []Outcome
	var errs []error
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		o := R.Unit(ctx, u)
		ret = append(ret, o)
		switch {
		case o.Err != nil:
			R.count("failed")
			log.Error("unit failed", "unit", u.Name, "error", o.Err)
			errs = append(errs, o.Err)
		case o.Cached:
			R.count("cached")
			log.Info("unit cached", "unit", u.Name, "rows", o.Table.Len())
		default:
			R.count("computed")
			log.Info("unit computed", "unit", u.Name, "rows", o.Table.Len(), "duration", o.Duration)
		}
		if o.Err != nil && R.FailFast {
			break
		}
	}
	if R.MetricsFile != "" && R.Registry != nil {
		if err := prometheus.WriteToTextfile(R.MetricsFile, R.Registry); err != nil {
			log.Warn("writing metrics", "file", R.MetricsFile, "error", err)
		}
	}
	return ret, errors.Join(errs...)
}

// RunPlan loads the plan in the file name, opens its cache and runs its units.
// The runner settings are taken from R, except that the plan can also turn plotting on.
func RunPlan(ctx context.Context, name string, R Runner) ([]Outcome, error) {
	P, err := LoadPlan(name)
	if err != nil {
		return nil, err
	}
	units, err := P.Expand()
	if err != nil {
		return nil, err
	}
	c, closer, err := P.Cache.Open(ctx, P.Base)
	if err != nil {
		return nil, err
	}
	defer closer()
	r, err := NewRunner(c)
	if err != nil {
		return nil, err
	}
	r.Logger, r.FailFast, r.Force, r.MetricsFile = R.Logger, R.FailFast, R.Force, R.MetricsFile
	r.Plot = R.Plot || P.Plot
	r.PlotDir = R.PlotDir
	if r.PlotDir == "" {
		r.PlotDir = filepath.Join(P.Base, "plots")
	}
	return r.Run(ctx, units)
}
