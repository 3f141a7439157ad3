/*
 * prep.go, part of mdrms
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

	"github.com/rmera/mdrms/prep"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var prepCmd = &cobra.Command{
	Use:   "prep [ROOT]",
	Short: "Subsample and strip the production trajectories of each replica",
	Long: `Subsample and strip the production trajectories of each replica.

For each replica folder REP in ROOT (default: the current directory), the topology
and trajectory in the phase folder are read, keeping only every skip-th frame and
removing the strip atoms, and REP_noh.psf and REP_noh_sSKIP.FORMAT are written in
REP. Replicas where both files exist are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		o := prep.DefaultOptions()
		o.Phase = viper.GetString("phase")
		o.Topology = viper.GetString("topology")
		o.Trajectories = viper.GetStringSlice("trajectories")
		o.Skip = viper.GetInt("skip")
		o.Strip = viper.GetString("strip")
		o.Format = viper.GetString("format")
		res, err := prep.Run(root, o)
		if err != nil {
			return err
		}
		var failed int
		for _, r := range res {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d replicas failed", failed, len(res))
		}
		return nil
	},
}

func init() {
	d := prep.DefaultOptions()
	f := prepCmd.Flags()
	f.String("phase", d.Phase, "folder with the production run, in each replica")
	f.String("topology", d.Topology, "topology file in the phase folder")
	f.StringSlice("trajectories", d.Trajectories, "candidate trajectory files in the phase folder; the first present is used")
	f.Int("skip", d.Skip, "keep every skip-th frame")
	f.String("strip", d.Strip, "atoms removed")
	f.String("format", d.Format, "output trajectory format: dcd, xtc, stf or stz")
	rootCmd.AddCommand(prepCmd)
}
