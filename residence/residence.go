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

// Package residence derives ligand residence times from ligand RMSD tables: the residence
// time is the first time at which the RMSD of the ligand reaches a threshold.
package residence

import (
	"context"
	"fmt"
	"math"

	"github.com/rmera/mdrms/cache"
	"github.com/rmera/mdrms/table"
)

// DefaultThreshold is the RMSD at which a ligand is considered to have left its site.
const DefaultThreshold = 5.0

// Columns of the summary table.
var Columns = []string{"structure", "replica", "ligand", "time"}

// FirstCrossing returns the time of the first row of the RMSD table t with rmsd >= threshold,
// or NaN if there is none. Rows with a missing RMSD are ignored.
func FirstCrossing(t *table.Table, threshold float64) (float64, error) {
	times, err := t.Floats("time")
	if err != nil {
		return math.NaN(), err
	}
	rmsd, err := t.Floats("rmsd")
	if err != nil {
		return math.NaN(), err
	}
	for i, v := range rmsd {
		if !math.IsNaN(v) && v >= threshold {
			return times[i], nil
		}
	}
	return math.NaN(), nil
}

// Name returns the name of the RMSD table for a ligand copy in a replica of a structure.
func Name(structure, replica string, ligand int) string {
	return fmt.Sprintf("%s_%s_lig_%d_rmsd", structure, replica, ligand)
}

// Options define the tables summarized.
type Options struct {
	Structures []string
	Replicas   []string
	Ligands    []int
	Threshold  float64
}

// Summarize reads from s the RMSD table of each ligand copy, in each replica of each
// structure, and returns a table with the residence time of each. Residence times of ligands
// that never reach the threshold are left empty.
func Summarize(ctx context.Context, s cache.Store, o Options) (*table.Table, error) {
	th := o.Threshold
	if th == 0 {
		th = DefaultThreshold
	}
	ret := table.New(Columns...)
	for _, st := range o.Structures {
		for _, r := range o.Replicas {
			for _, l := range o.Ligands {
				name := Name(st, r, l)
				t, err := s.Get(ctx, name)
				if err != nil {
					return nil, fmt.Errorf("residence: %s: %w", name, err)
				}
				time, err := FirstCrossing(t, th)
				if err != nil {
					return nil, fmt.Errorf("residence: %s: %w", name, err)
				}
				if err := ret.Append(st, r, l, time); err != nil {
					return nil, err
				}
			}
		}
	}
	return ret, nil
}
