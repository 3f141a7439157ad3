/*
 * pbc.go, part of mdrms
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

package chem

import (
	"log"
	"math"

	v3 "github.com/rmera/mdrms/v3"
)

// Unwrap returns a trajectory where the atoms don't jump across the periodic boundaries
// between consecutive frames: each displacement is replaced by its minimum image. Only
// orthorhombic boxes are supported; for other boxes the diagonal is used and a
// warning is logged once.
func (T *Trajectory) Unwrap() (*Trajectory, error) {
	if T.Boxes == nil {
		return nil, CError{msg: "Trajectory has no box information", filename: firstOf(T.Source), deco: []string{"Unwrap"}, critical: true}
	}
	if len(T.Frames) == 0 {
		return T, nil
	}
	warned := false
	frames := make([]*v3.Matrix, len(T.Frames))
	frames[0] = T.Frames[0].Clone()
	for f := 1; f < len(T.Frames); f++ {
		box := T.Boxes[f]
		if len(box) < 9 {
			return nil, CError{msg: "Incomplete box information", filename: firstOf(T.Source), deco: []string{"Unwrap"}, critical: true}
		}
		if !warned && !orthorhombic(box) {
			log.Printf("Unwrap: non-orthorhombic box in %s, only the box lengths will be used", firstOf(T.Source))
			warned = true
		}
		L := [3]float64{box[0], box[4], box[8]}
		prev := frames[f-1]
		raw := T.Frames[f]
		prevraw := T.Frames[f-1]
		cur := v3.Zeros(raw.NVecs())
		for i := 0; i < raw.NVecs(); i++ {
			for j := 0; j < 3; j++ {
				d := raw.At(i, j) - prevraw.At(i, j)
				if L[j] > 0 {
					d -= L[j] * math.Round(d/L[j])
				}
				cur.Set(i, j, prev.At(i, j)+d)
			}
		}
		frames[f] = cur
	}
	return T.WithFrames(frames)
}

func orthorhombic(box []float64) bool {
	const tol = 1e-6
	for _, i := range []int{1, 2, 3, 5, 6, 7} {
		if math.Abs(box[i]) > tol {
			return false
		}
	}
	return true
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
