/*
 * residence.go, part of mdrms
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

	"github.com/rmera/mdrms/residence"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var residenceCmd = &cobra.Command{
	Use:   "residence",
	Short: "Residence times of ligands, from their RMSD tables in the cache",
	Long: `Residence times of ligands, from their RMSD tables in the cache.

The RMSD table of ligand copy L, in replica R of structure S, must be stored under
the name S_R_lig_L_rmsd. The residence time is the first time at which the RMSD
reaches the threshold. It is left empty for ligands that never reach it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if len(viper.GetStringSlice("structures")) == 0 {
			return fmt.Errorf("no structures given")
		}
		c, closer, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closer()
		t, err := residence.Summarize(ctx, c.Store, residence.Options{
			Structures: viper.GetStringSlice("structures"),
			Replicas:   viper.GetStringSlice("replicas"),
			Ligands:    viper.GetIntSlice("ligands"),
			Threshold:  viper.GetFloat64("threshold"),
		})
		if err != nil {
			return err
		}
		if out := viper.GetString("output"); out != "" {
			return t.WriteFile(out)
		}
		return t.Write(cmd.OutOrStdout())
	},
}

func init() {
	f := residenceCmd.Flags()
	f.StringSlice("structures", nil, "structures (comma separated)")
	f.StringSlice("replicas", []string{"1", "2", "3"}, "replicas of each structure")
	f.IntSlice("ligands", []int{1}, "ligand copies in each replica")
	f.Float64("threshold", residence.DefaultThreshold, "RMSD at which the ligand is considered gone")
	f.StringP("output", "o", "", "file for the table (default: standard output)")
	rootCmd.AddCommand(residenceCmd)
}
