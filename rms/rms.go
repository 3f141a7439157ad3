/*
 * rms.go, part of mdrms
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

// Package rms computes root mean square deviations (RMSD) of trajectory frames
// from a reference, and root mean square fluctuations (RMSF) of atoms along a trajectory.
//
// Both metrics are computed by an Engine, whose Config determines the atoms, the
// reference and the preprocessing of the trajectory.
package rms

import (
	"fmt"
	"math"

	chem "github.com/rmera/mdrms"
	v3 "github.com/rmera/mdrms/v3"
	"gonum.org/v1/gonum/stat"
)

// RMSD returns, for each frame of T, the RMSD between the atoms target and the
// atoms refIdx of ref, matched in order. A nil refIdx means all the atoms of ref.
// No superposition is performed.
func RMSD(T *chem.Trajectory, ref *v3.Matrix, target, refIdx []int) ([]float64, error) {
	if refIdx == nil && ref.NVecs() != len(target) {
		return nil, fmt.Errorf("rms: %d target atoms, but %d in the reference", len(target), ref.NVecs())
	}
	ret := make([]float64, T.NFrames())
	for i, f := range T.Frames {
		var err error
		ret[i], err = chem.RMSD(f, ref, target, refIdx)
		if err != nil {
			return nil, fmt.Errorf("rms: frame %d: %w", i, err)
		}
	}
	return ret, nil
}

// msf returns the mean square deviation along T of each atom in target from the
// corresponding vector in ref.
func msf(T *chem.Trajectory, ref *v3.Matrix, target []int) ([]float64, error) {
	if ref.NVecs() != len(target) {
		return nil, fmt.Errorf("rms: %d target atoms, but %d in the reference", len(target), ref.NVecs())
	}
	if T.NFrames() == 0 {
		return nil, fmt.Errorf("rms: no frames")
	}
	ret := make([]float64, len(target))
	for _, f := range T.Frames {
		for k, i := range target {
			ret[k] += f.SqDist(i, ref, k)
		}
	}
	n := float64(T.NFrames())
	for k := range ret {
		ret[k] /= n
	}
	return ret, nil
}

// RMSF returns, for each atom in target, the root of its mean square deviation along T
// from the corresponding vector (row) of ref.
func RMSF(T *chem.Trajectory, ref *v3.Matrix, target []int) ([]float64, error) {
	ret, err := msf(T, ref, target)
	if err != nil {
		return nil, err
	}
	for k, v := range ret {
		ret[k] = math.Sqrt(v)
	}
	return ret, nil
}

// ResidueRMSF is like RMSF, but the mean is taken over the atoms of each residue, as well as
// the frames. Residues are identified by residue id, chain and segment, and returned
// in order of first appearance in target.
func ResidueRMSF(T *chem.Trajectory, ref *v3.Matrix, target []int) ([]chem.ResKey, []float64, error) {
	m, err := msf(T, ref, target)
	if err != nil {
		return nil, nil, err
	}
	keys, groups := chem.GroupByResidue(T, target)
	ret := make([]float64, len(keys))
	sq := make([]float64, 0, 8)
	for i, g := range groups {
		sq = sq[:0]
		for _, k := range g {
			sq = append(sq, m[k])
		}
		ret[i] = math.Sqrt(stat.Mean(sq, nil))
	}
	return keys, ret, nil
}
