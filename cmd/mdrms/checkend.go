/*
 * checkend.go, part of mdrms
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
	"fmt"

	"github.com/rmera/mdrms/joblog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var checkendCmd = &cobra.Command{
	Use:   "checkend [ROOT]",
	Short: "Check whether the simulations of each replica finished",
	Long: `Check whether the simulations of each replica finished.

For each replica folder in ROOT (default: the current directory), the slurm-JOBID.out
log with the highest job id, in the phase folder, is searched for "` + joblog.CompletionMark + `".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		st, err := joblog.Scan(root, viper.GetString("phase"))
		if err != nil {
			return err
		}
		var pending int
		for _, s := range st {
			fmt.Fprintln(cmd.OutOrStdout(), s)
			if !s.Completed {
				pending++
			}
		}
		if pending > 0 && viper.GetBool("strict") {
			return fmt.Errorf("%d of %d replicas did not finish", pending, len(st))
		}
		return nil
	},
}

func init() {
	checkendCmd.Flags().String("phase", "production", "simulation phase folder (such as equilibration or production)")
	checkendCmd.Flags().Bool("strict", false, "fail if any replica did not finish")
	rootCmd.AddCommand(checkendCmd)
}
