/*
 * batch.go, part of mdrms
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

	"github.com/rmera/mdrms/batch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch PLAN.yaml",
	Short: "Run the calculations in a plan",
	Long: `Run the calculations in a plan.

The plan is a YAML file with a list of units (calculations) and the cache where
their tables are stored. Units already in the cache are not recomputed. A failed
unit doesn't stop the others unless --fail-fast is given; the command fails if
any unit failed. See the documentation of the batch package for the plan format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		R := batch.Runner{
			Logger:      slog.Default(),
			FailFast:    viper.GetBool("fail-fast"),
			Force:       viper.GetBool("force"),
			Plot:        viper.GetBool("plot"),
			PlotDir:     viper.GetString("plot-dir"),
			MetricsFile: viper.GetString("metrics-file"),
		}
		out, err := batch.RunPlan(ctx, args[0], R)
		var computed, cached, failed int
		for _, o := range out {
			switch {
			case o.Err != nil:
				failed++
			case o.Cached:
				cached++
			default:
				computed++
			}
		}
		slog.Info("batch finished", "computed", computed, "cached", cached, "failed", failed)
		if err != nil {
			return fmt.Errorf("%d units failed: %w", failed, err)
		}
		return nil
	},
}

func init() {
	f := batchCmd.Flags()
	f.Bool("fail-fast", false, "stop at the first unit that fails")
	f.Bool("force", false, "recompute every unit, even if its table is in the cache")
	f.Bool("plot", false, "draw a PNG plot of each table")
	f.String("plot-dir", "", "directory for the plots (default: plots, next to the plan)")
	f.String("metrics-file", "", "write Prometheus metrics of the run to this file")
	rootCmd.AddCommand(batchCmd)
}
