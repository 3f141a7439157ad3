/*
 * load.go, part of mdrms
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

// Package traj opens topologies and trajectories in any of the supported formats and
// loads them, filtered and subsampled, as in-memory chem.Trajectory values.
package traj

import (
	"fmt"
	"path/filepath"
	"strings"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/sel"
	"github.com/rmera/mdrms/traj/dcd"
	"github.com/rmera/mdrms/traj/stf"
	"github.com/rmera/mdrms/traj/xtc"
	v3 "github.com/rmera/mdrms/v3"
)

// LoadOptions controls how a trajectory is loaded.
type LoadOptions struct {
	//Keep every Skip-th frame, starting from the first. Skipped frames
	//are read but never stored.
	Skip int
	//Selection of the atoms to remove at read time. Empty means none.
	Strip string
	//Time between the frames in the files, before skipping.
	Timestep float64
}

// DefaultLoadOptions returns options that load every frame and all the atoms,
// with a timestep of 1, so times are frame indexes.
func DefaultLoadOptions() *LoadOptions {
	return &LoadOptions{Skip: 1, Timestep: 1}
}

// Writer is a trajectory opened for writing.
type Writer interface {
	WNext(coords *v3.Matrix, box ...[]float64) error
	Len() int
	Close() error
}

// ext returns the lowercase extension of name, ignoring a compression extension, if any.
func ext(name string) string {
	e := strings.ToLower(filepath.Ext(name))
	switch e {
	case ".gz", ".lzw", ".zst":
		return strings.ToLower(filepath.Ext(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	return e
}

func isSTF(e string) bool {
	switch e {
	case ".stf", ".stz", ".stl", ".str":
		return true
	}
	return false
}

// ReadTopology reads the topology in name. PDB and XYZ files also contain coordinates,
// which are returned as a trajectory. For PSF files the returned trajectory is nil.
func ReadTopology(name string) (*chem.Topology, *chem.Trajectory, error) {
	switch ext(name) {
	case ".pdb":
		T, err := chem.PDBFileRead(name)
		if err != nil {
			return nil, nil, err
		}
		return T.Topology, T, nil
	case ".xyz":
		T, err := chem.XYZFileRead(name)
		if err != nil {
			return nil, nil, err
		}
		return T.Topology, T, nil
	case ".psf":
		top, err := chem.PSFFileRead(name)
		return top, nil, err
	}
	return nil, nil, chem.FileError(name, "Unsupported topology format", nil, "ReadTopology")
}

// memCloser gives an in-memory trajectory a Close method.
type memCloser struct {
	*chem.Trajectory
}

func (m memCloser) Close() {}

// Open opens the coordinates file name for sequential reading. XTC files can only
// be read if the xtc package was built with its library.
func Open(name string) (chem.TrajCloser, error) {
	e := ext(name)
	switch {
	case e == ".dcd":
		d, err := dcd.New(name)
		if err != nil {
			return nil, err
		}
		return d, nil
	case isSTF(e):
		r, _, err := stf.New(name)
		if err != nil {
			return nil, err
		}
		return r, nil
	case e == ".xtc":
		x, err := xtc.New(name)
		if err != nil {
			return nil, err
		}
		return x, nil
	case e == ".pdb":
		T, err := chem.PDBFileRead(name)
		if err != nil {
			return nil, err
		}
		return memCloser{T}, nil
	case e == ".xyz":
		T, err := chem.XYZFileRead(name)
		if err != nil {
			return nil, err
		}
		return memCloser{T}, nil
	}
	return nil, chem.FileError(name, "Unsupported trajectory format", nil, "Open")
}

// Create creates the trajectory file name, for natoms atoms per frame. The format is
// DCD for .dcd names (optionally compressed), STF for .stf-like names and XTC for .xtc ones. The box is
// written with each frame when the format allows it.
func Create(name string, natoms int) (Writer, error) {
	e := ext(name)
	switch {
	case e == ".dcd":
		w, err := dcd.NewWriter(name, natoms, true)
		if err != nil {
			return nil, err
		}
		return w, nil
	case isSTF(e):
		w, err := stf.NewWriter(name, natoms, nil)
		if err != nil {
			return nil, err
		}
		return w, nil
	case e == ".xtc":
		w, err := xtc.NewWriter(name, natoms)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, chem.FileError(name, "Unsupported trajectory format for writing", nil, "Create")
}

// Load reads the topology top and the coordinates in trajs, concatenated in the given order.
// If trajs is empty, the coordinates in top itself are used. The atoms are kept in topology
// order. A nil o means DefaultLoadOptions.
func Load(top string, trajs []string, o *LoadOptions) (*chem.Trajectory, error) {
	if o == nil {
		o = DefaultLoadOptions()
	}
	if o.Skip < 1 {
		return nil, fmt.Errorf("load %s: invalid skip %d", top, o.Skip)
	}
	topology, own, err := ReadTopology(top)
	if err != nil {
		return nil, err
	}
	keep, err := keepList(topology, o.Strip)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", top, err)
	}
	if len(keep) == 0 {
		return nil, chem.FileError(top, fmt.Sprintf("No atoms left after stripping %q", o.Strip), nil, "Load")
	}
	stripped := topology
	if len(keep) != topology.Len() {
		if stripped, err = topology.SomeAtoms(keep); err != nil {
			return nil, err
		}
	}
	var sources []chem.TrajCloser
	if len(trajs) == 0 {
		if own == nil {
			return nil, chem.FileError(top, "Topology has no coordinates and no trajectory was given", nil, "Load")
		}
		sources = append(sources, memCloser{own})
		trajs = []string{top}
	} else {
		for _, name := range trajs {
			t, err := Open(name)
			if err != nil {
				closeAll(sources)
				return nil, err
			}
			sources = append(sources, t)
		}
	}
	defer closeAll(sources)
	var frames []*v3.Matrix
	var boxes [][]float64
	hasBox := true
	count := 0
	for k, t := range sources {
		if t.Len() != topology.Len() {
			return nil, chem.FileError(trajs[k], fmt.Sprintf("%d atoms per frame, but the topology %s has %d", t.Len(), top, topology.Len()), nil, "Load")
		}
		buf := v3.Zeros(t.Len())
		for ; ; count++ {
			if count%o.Skip != 0 {
				err = t.Next(nil)
				if err != nil {
					if chem.IsLastFrame(err) {
						break
					}
					return nil, err
				}
				continue
			}
			box := make([]float64, 9)
			err = t.Next(buf, box)
			if err != nil {
				if chem.IsLastFrame(err) {
					break
				}
				return nil, err
			}
			frame := buf
			if len(keep) != t.Len() {
				frame = v3.Zeros(len(keep))
				frame.SomeVecs(buf, keep)
			} else {
				buf = v3.Zeros(t.Len())
			}
			frames = append(frames, frame)
			if box[0] == 0 && box[4] == 0 && box[8] == 0 {
				hasBox = false
			}
			boxes = append(boxes, box)
		}
	}
	if len(frames) == 0 {
		return nil, chem.FileError(trajs[0], "No frames read", nil, "Load")
	}
	if !hasBox {
		boxes = nil
	}
	T, err := chem.NewTrajectory(stripped, frames, boxes)
	if err != nil {
		return nil, err
	}
	T.Timestep = o.Timestep * float64(o.Skip)
	T.Source = append([]string{top}, trajs...)
	return T, nil
}

// keepList returns the indexes of the atoms in top not matched by the selection strip.
func keepList(top chem.Atomer, strip string) ([]int, error) {
	var s *sel.Selection
	if strings.TrimSpace(strip) != "" {
		var err error
		if s, err = sel.Parse(strip); err != nil {
			return nil, err
		}
	}
	keep := make([]int, 0, top.Len())
	for i := 0; i < top.Len(); i++ {
		if s == nil || !s.Matches(top.Atom(i), i) {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

func closeAll(ts []chem.TrajCloser) {
	for _, t := range ts {
		t.Close()
	}
}
