/*
 * calc.go, part of mdrms
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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmera/mdrms/align"
	"github.com/rmera/mdrms/cache"
	"github.com/rmera/mdrms/rms"
	"github.com/rmera/mdrms/rmsplot"
	"github.com/rmera/mdrms/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rmsdCmd = &cobra.Command{
	Use:   "rmsd TOPOLOGY TRAJECTORY...",
	Short: "RMSD of each frame from a reference structure",
	Long: `RMSD of each frame from a reference structure.

The reference is the first frame of the trajectory or, with --reference, the first
frame of a separate structure file. Frames are superposed on the reference using the
--align atoms (the --target atoms by default) and the RMSD is computed over the
--target atoms. The table has the columns time and rmsd.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return calc(cmd.Context(), cmd, rms.DefaultRMSDConfig(), args)
	},
}

var rmsfCmd = &cobra.Command{
	Use:   "rmsf TOPOLOGY TRAJECTORY...",
	Short: "RMSF of each atom, or residue, around a reference structure",
	Long: `RMSF of each atom, or residue, around a reference structure.

By default, frames are iteratively superposed on their mean structure and the
fluctuations are computed around it. With --residue, the fluctuations of the
atoms of each residue are averaged. The table has the columns resid, resname, name,
chain, segid and rmsf.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return calc(cmd.Context(), cmd, rms.DefaultRMSFConfig(), args)
	},
}

func init() {
	for _, c := range []struct {
		cmd *cobra.Command
		def rms.Config
	}{{rmsdCmd, rms.DefaultRMSDConfig()}, {rmsfCmd, rms.DefaultRMSFConfig()}} {
		f := c.cmd.Flags()
		f.StringP("target", "t", c.def.Target, "atoms compared with the reference")
		f.StringP("align", "a", "", "atoms used for the superposition (default: the target atoms)")
		f.Bool("no-align", false, "do not superpose the frames on the reference")
		f.StringP("reference", "r", "", "reference structure file")
		f.String("ref-target", "", "target atoms in the reference structure (default: --target)")
		f.String("ref-align", "", "superposition atoms in the reference structure (default: --align)")
		f.String("ref-strip", "", "atoms removed from the reference structure")
		f.String("mode", c.def.Mode.String(), "reference: auto, first, external or mean")
		f.Int("max-iter", c.def.MaxIter, "superposition passes for the mean reference")
		f.String("strip", c.def.Strip, "atoms removed from the trajectory when reading it")
		f.Int("skip", c.def.Skip, "read only every skip-th frame")
		f.Float64("timestep", c.def.Timestep, "time between frames in the trajectory files")
		f.Bool("pbc", false, "remove jumps of atoms across the periodic box between frames first")
		f.StringP("output", "o", "", "file for the table (default: standard output)")
		f.String("name", "", "store the table in the cache under this name, or read it from there")
		f.Bool("force", false, "recompute the table even if it is in the cache")
		f.String("plot", "", "PNG file for a plot of the table")
		f.String("title", "", "plot title")
		rootCmd.AddCommand(c.cmd)
	}
	rmsfCmd.Flags().Bool("residue", false, "average the fluctuations by residue")
}

// config returns the configuration for the command, from the defaults def and the settings.
func config(def rms.Config) (rms.Config, error) {
	c := def
	var err error
	if c.Mode, err = align.ParseMode(viper.GetString("mode")); err != nil {
		return c, err
	}
	c.Target = viper.GetString("target")
	c.Align = viper.GetString("align")
	c.NoAlign = viper.GetBool("no-align")
	c.RefFile = viper.GetString("reference")
	c.RefTarget = viper.GetString("ref-target")
	c.RefAlign = viper.GetString("ref-align")
	c.RefStrip = viper.GetString("ref-strip")
	c.MaxIter = viper.GetInt("max-iter")
	c.Strip = viper.GetString("strip")
	c.Skip = viper.GetInt("skip")
	c.Timestep = viper.GetFloat64("timestep")
	c.PBC = viper.GetBool("pbc")
	if c.Metric == rms.MetricRMSF {
		c.Residue = viper.GetBool("residue")
	}
	if c.Skip < 1 {
		return c, fmt.Errorf("skip must be at least 1, not %d", c.Skip)
	}
	return c, nil
}

func calc(ctx context.Context, cmd *cobra.Command, def rms.Config, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config(def)
	if err != nil {
		return err
	}
	top, trajs := args[0], args[1:]
	compute := func(ctx context.Context) (*table.Table, error) {
		slog.Debug("computing", "metric", cfg.Metric, "topology", top, "params", cfg.String())
		return rms.NewEngine(cfg).Run(top, trajs)
	}
	start := time.Now()
	var t *table.Table
	if name := viper.GetString("name"); name != "" {
		t, err = cached(ctx, name+"_"+cfg.Metric.String(), cfg, args, compute)
	} else {
		t, err = compute(ctx)
	}
	if err != nil {
		return err
	}
	slog.Info("done", "metric", cfg.Metric, "rows", t.Len(), "duration", time.Since(start))
	if out := viper.GetString("output"); out != "" {
		if err := t.WriteFile(out); err != nil {
			return err
		}
	} else if err := t.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	if p := viper.GetString("plot"); p != "" {
		opts := &rmsplot.Options{Title: viper.GetString("title")}
		if cfg.Metric == rms.MetricRMSF {
			return rmsplot.RMSF(t, p, opts)
		}
		return rmsplot.RMSD(t, p, opts)
	}
	return nil
}

// cached gets the table name from the configured cache, computing and storing it if needed.
func cached(ctx context.Context, name string, cfg rms.Config, files []string, compute cache.Compute) (*table.Table, error) {
	c, closer, err := openCache(ctx)
	if err != nil {
		return nil, err
	}
	defer closer()
	inputs := append([]string(nil), files...)
	if cfg.RefFile != "" {
		inputs = append(inputs, cfg.RefFile)
	}
	p := cache.Params{Values: cfg.Params(), Inputs: inputs}
	if viper.GetBool("force") {
		if err := c.Invalidate(ctx, name, p); err != nil {
			return nil, err
		}
	}
	t, hit, err := c.GetOrCompute(ctx, name, p, compute)
	if err != nil {
		return nil, err
	}
	slog.Info("cache", "name", name, "hit", hit, "store", viper.GetString("cache-store"))
	return t, nil
}
