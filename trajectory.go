/*
 * trajectory.go, part of mdrms
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
	"fmt"
	"sync/atomic"

	v3 "github.com/rmera/mdrms/v3"
)

// Selector is anything that can turn itself into a list of atom indexes
// for a given topology, like the selections of the sel package.
type Selector interface {
	Indexes(top Atomer) ([]int, error)
	String() string
}

// IndexSet is a list of atom indexes obtained from a selection on a given Trajectory.
// The indexes are only meaningful for the trajectory that produced them.
type IndexSet struct {
	List []int
	Text string //the selection that produced the set.
	gen  uint64
}

// Len returns the number of atoms in the set.
func (I IndexSet) Len() int { return len(I.List) }

var generations atomic.Uint64

func nextGeneration() uint64 {
	return generations.Add(1)
}

// Trajectory contains a topology and the coordinates of each frame, all in memory.
// The atom count and order are the same for all frames. Operations that change
// the atoms or frames return a new Trajectory, leaving the receiver untouched.
type Trajectory struct {
	*Topology
	Frames   []*v3.Matrix
	Boxes    [][]float64 //nil, or the 9 components of the box vectors for each frame.
	Timestep float64     //time between consecutive frames.
	Source   []string    //files the frames were read from.
	gen      uint64
	current  int //next frame to be returned by Next
}

// NewTrajectory returns a trajectory with the given topology and frames. boxes can be nil.
// It is an error for a frame to have a different number of atoms than the topology.
func NewTrajectory(top *Topology, frames []*v3.Matrix, boxes [][]float64) (*Trajectory, error) {
	if top == nil {
		return nil, CError{msg: string(ErrNilData), deco: []string{"NewTrajectory"}, critical: true}
	}
	for i, f := range frames {
		if f == nil {
			return nil, CError{msg: fmt.Sprintf("%s: frame %d", ErrNilFrames, i), deco: []string{"NewTrajectory"}, critical: true}
		}
		if f.NVecs() != top.Len() {
			return nil, CError{msg: fmt.Sprintf("Frame %d has %d atoms, the topology has %d", i, f.NVecs(), top.Len()), deco: []string{"NewTrajectory"}, critical: true}
		}
	}
	if boxes != nil && len(boxes) != len(frames) {
		return nil, CError{msg: fmt.Sprintf("%d boxes for %d frames", len(boxes), len(frames)), deco: []string{"NewTrajectory"}, critical: true}
	}
	return &Trajectory{Topology: top, Frames: frames, Boxes: boxes, Timestep: 1, gen: nextGeneration()}, nil
}

// NFrames returns the number of frames in the trajectory.
func (T *Trajectory) NFrames() int {
	return len(T.Frames)
}

// Coords returns the coordinates of the frame i. They are not copied.
func (T *Trajectory) Coords(i int) *v3.Matrix {
	return T.Frames[i]
}

// Box returns the box of the frame i, or nil if there are no boxes.
func (T *Trajectory) Box(i int) []float64 {
	if T.Boxes == nil {
		return nil
	}
	return T.Boxes[i]
}

// Time returns the time of the frame i.
func (T *Trajectory) Time(i int) float64 {
	return float64(i) * T.Timestep
}

// Select resolves s on the trajectory's topology.
func (T *Trajectory) Select(s Selector) (IndexSet, error) {
	l, err := s.Indexes(T)
	if err != nil {
		return IndexSet{}, errDecorate(err, "Select")
	}
	return IndexSet{List: l, Text: s.String(), gen: T.gen}, nil
}

// Owns returns true if the index set was obtained from this trajectory. Sets obtained
// before a Strip or Keep are not owned by the resulting trajectory.
func (T *Trajectory) Owns(I IndexSet) bool {
	return I.gen == T.gen
}

// derive returns a trajectory with the metadata of T and the given data, and a new generation.
func (T *Trajectory) derive(top *Topology, frames []*v3.Matrix, boxes [][]float64) *Trajectory {
	return &Trajectory{Topology: top, Frames: frames, Boxes: boxes, Timestep: T.Timestep, Source: T.Source, gen: nextGeneration()}
}

// Keep returns a new trajectory with only the atoms in list, in that order.
func (T *Trajectory) Keep(list []int) (*Trajectory, error) {
	if len(list) == 0 {
		return nil, CError{msg: "No atoms would be left in the trajectory", deco: []string{"Keep"}, critical: true}
	}
	top, err := T.Topology.SomeAtoms(list)
	if err != nil {
		return nil, errDecorate(err, "Keep")
	}
	frames := make([]*v3.Matrix, len(T.Frames))
	for i, f := range T.Frames {
		frames[i] = v3.Zeros(len(list))
		if err := frames[i].SomeVecsSafe(f, list); err != nil {
			return nil, CError{msg: err.Error(), deco: []string{"Keep"}, critical: true, err: err}
		}
	}
	return T.derive(top, frames, T.Boxes), nil
}

// Strip returns a new trajectory without the atoms matched by s. The atoms are renumbered, so
// index sets obtained from T can't be used with the result.
func (T *Trajectory) Strip(s Selector) (*Trajectory, error) {
	remove, err := s.Indexes(T)
	if err != nil {
		return nil, errDecorate(err, "Strip")
	}
	gone := make(map[int]bool, len(remove))
	for _, v := range remove {
		gone[v] = true
	}
	keep := make([]int, 0, T.Len()-len(gone))
	for i := 0; i < T.Len(); i++ {
		if !gone[i] {
			keep = append(keep, i)
		}
	}
	ret, err := T.Keep(keep)
	return ret, errDecorate(err, "Strip")
}

// Subsample returns a trajectory with every nth frame of T, starting from the first one.
// The frames are not copied.
func (T *Trajectory) Subsample(n int) (*Trajectory, error) {
	if n < 1 {
		return nil, CError{msg: fmt.Sprintf("Invalid subsampling factor %d", n), deco: []string{"Subsample"}, critical: true}
	}
	frames := make([]*v3.Matrix, 0, len(T.Frames)/n+1)
	var boxes [][]float64
	for i := 0; i < len(T.Frames); i += n {
		frames = append(frames, T.Frames[i])
		if T.Boxes != nil {
			boxes = append(boxes, T.Boxes[i])
		}
	}
	ret := T.derive(T.Topology, frames, boxes)
	ret.gen = T.gen //same atoms, so index sets are still valid.
	ret.Timestep = T.Timestep * float64(n)
	return ret, nil
}

// WithFrames returns a trajectory with the atoms of T and the given frames, which must have
// the same number of atoms. Index sets from T remain valid for the result.
func (T *Trajectory) WithFrames(frames []*v3.Matrix) (*Trajectory, error) {
	for i, f := range frames {
		if f.NVecs() != T.Len() {
			return nil, CError{msg: fmt.Sprintf("Frame %d has %d atoms, the topology has %d", i, f.NVecs(), T.Len()), deco: []string{"WithFrames"}, critical: true}
		}
	}
	ret := T.derive(T.Topology, frames, T.Boxes)
	ret.gen = T.gen
	return ret, nil
}

// Readable returns true if there are frames left to be returned by Next.
func (T *Trajectory) Readable() bool {
	return T.current < len(T.Frames)
}

// Next copies the next frame into output, and, if given, its box into box[0].
// It returns a LastFrameError after the last frame. If output is nil, the frame is skipped.
func (T *Trajectory) Next(output *v3.Matrix, box ...[]float64) error {
	if T.current >= len(T.Frames) {
		return lastFrameError{}
	}
	if output != nil {
		output.Copy(T.Frames[T.current])
	}
	if len(box) > 0 && T.Boxes != nil {
		copy(box[0], T.Boxes[T.current])
	}
	T.current++
	return nil
}

// Rewind makes the next call to Next return the first frame.
func (T *Trajectory) Rewind() {
	T.current = 0
}

// lastFrameError signals the end of an in-memory trajectory.
type lastFrameError struct{}

func (E lastFrameError) NormalLastFrameTermination() {}
func (E lastFrameError) FileName() string            { return "" }
func (E lastFrameError) Error() string               { return "EOF" }
func (E lastFrameError) Critical() bool              { return false }
func (E lastFrameError) Format() string              { return "memory" }
func (E lastFrameError) Decorate(string) []string    { return nil }
