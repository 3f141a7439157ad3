/*
 * align.go, part of mdrms
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

// Package align resolves the reference structure for RMSD and RMSF calculations, and
// superposes trajectory frames on it.
package align

import (
	"errors"
	"fmt"
	"log"
	"math"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/sel"
	"github.com/rmera/mdrms/traj"
	v3 "github.com/rmera/mdrms/v3"
)

// ErrEmptySelection is returned, wrapped, when a target or alignment selection
// matches no atoms.
var ErrEmptySelection = errors.New("selection matches no atoms")

// Reference is a resolved reference structure.
type Reference struct {
	Mode Mode
	//Indexes, in the trajectory, of the atoms compared to the reference, and of those used
	//for the superposition. Align is empty if no superposition is to be done.
	Target chem.IndexSet
	Align  chem.IndexSet
	//Coordinates of the reference for the atoms in Target and in Align, in the same order.
	Coords      *v3.Matrix
	AlignCoords *v3.Matrix
	//Selections used on the reference structure.
	RefTarget string
	RefAlign  string
	//Superposition passes performed to obtain the reference (Mean mode).
	Passes int

	source  *chem.Trajectory
	aligned *chem.Trajectory //frames of source superposed on the reference, if already computed.
}

// selectIn resolves text in T, failing if nothing is matched.
func selectIn(T *chem.Trajectory, text, what string) (chem.IndexSet, error) {
	s, err := sel.Parse(text)
	if err != nil {
		return chem.IndexSet{}, fmt.Errorf("align: %s selection: %w", what, err)
	}
	set, err := T.Select(s)
	if err != nil {
		return chem.IndexSet{}, fmt.Errorf("align: %s selection %q: %w", what, text, err)
	}
	if set.Len() == 0 {
		return chem.IndexSet{}, fmt.Errorf("align: %s selection %q: %w", what, text, ErrEmptySelection)
	}
	return set, nil
}

// Parse checks the syntax of all the selections in o, without resolving them.
func (O *Options) Parse() error {
	rt, ra := O.refTexts()
	texts := map[string]string{"target": O.Target, "alignment": O.alignText(), "reference target": rt, "reference alignment": ra}
	if O.RefStrip != "" {
		texts["reference strip"] = O.RefStrip
	}
	for what, text := range texts {
		if _, err := sel.Parse(text); err != nil {
			return fmt.Errorf("align: %s selection: %w", what, err)
		}
	}
	return nil
}

// Check resolves the target and alignment selections of o in the atoms of T, and
// fails if one of them is invalid or matches nothing. No coordinates are used.
func (O *Options) Check(T *chem.Trajectory) error {
	if _, err := selectIn(T, O.Target, "target"); err != nil {
		return err
	}
	if O.NoAlign {
		return nil
	}
	_, err := selectIn(T, O.alignText(), "alignment")
	return err
}

// Resolve obtains the reference for the trajectory T, according to the options o.
// A nil o means DefaultOptions. The selections are resolved before any coordinates
// are read or compared.
func Resolve(T *chem.Trajectory, o *Options) (*Reference, error) {
	if o == nil {
		o = DefaultOptions()
	}
	ref := &Reference{Mode: o.mode(), source: T}
	var err error
	if ref.Target, err = selectIn(T, o.Target, "target"); err != nil {
		return nil, err
	}
	if !o.NoAlign {
		if ref.Align, err = selectIn(T, o.alignText(), "alignment"); err != nil {
			return nil, err
		}
	}
	if T.NFrames() == 0 {
		return nil, fmt.Errorf("align: trajectory has no frames")
	}
	switch ref.Mode {
	case First:
		ref.RefTarget, ref.RefAlign = ref.Target.Text, ref.Align.Text
		ref.Coords, ref.AlignCoords = pick(T.Coords(0), ref.Target.List, ref.Align.List)
	case External:
		err = ref.external(T, o)
	case Mean:
		ref.RefTarget, ref.RefAlign = ref.Target.Text, ref.Align.Text
		err = ref.mean(T, o)
	default:
		err = fmt.Errorf("align: invalid reference mode %v", ref.Mode)
	}
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// pick returns the vectors of c in target and align. The second matrix is nil if align is empty.
func pick(c *v3.Matrix, target, align []int) (*v3.Matrix, *v3.Matrix) {
	t := v3.Zeros(len(target))
	t.SomeVecs(c, target)
	if len(align) == 0 {
		return t, nil
	}
	a := v3.Zeros(len(align))
	a.SomeVecs(c, align)
	return t, a
}

// external reads the reference from o.RefFile.
func (R *Reference) external(T *chem.Trajectory, o *Options) error {
	if o.RefFile == "" {
		return fmt.Errorf("align: external reference requested, but no reference file given")
	}
	lo := traj.DefaultLoadOptions()
	lo.Strip = o.RefStrip
	rt, err := traj.Load(o.RefFile, nil, lo)
	if err != nil {
		return fmt.Errorf("align: reference %s: %w", o.RefFile, err)
	}
	R.RefTarget, R.RefAlign = o.refTexts()
	rtarget, err := selectIn(rt, R.RefTarget, "reference target")
	if err != nil {
		return err
	}
	if err := matchCounts(T, R.Target, rt, rtarget); err != nil {
		return err
	}
	var ralign chem.IndexSet
	if !o.NoAlign {
		if ralign, err = selectIn(rt, R.RefAlign, "reference alignment"); err != nil {
			return err
		}
		if err := matchCounts(T, R.Align, rt, ralign); err != nil {
			return err
		}
	}
	R.Coords, R.AlignCoords = pick(rt.Coords(0), rtarget.List, ralign.List)
	return nil
}

// matchCounts returns an error if the two index sets have different sizes. Differences in
// atom names are only logged, as they are common between force fields.
func matchCounts(T *chem.Trajectory, tset chem.IndexSet, R *chem.Trajectory, rset chem.IndexSet) error {
	if tset.Len() != rset.Len() {
		return fmt.Errorf("align: trajectory selection %q has %d atoms, but reference selection %q has %d", tset.Text, tset.Len(), rset.Text, rset.Len())
	}
	for i, v := range tset.List {
		if a, b := T.Atom(v).Name, R.Atom(rset.List[i]).Name; a != b {
			log.Printf("align: atom %d of selection %q is %s in the trajectory and %s in the reference", i, tset.Text, a, b)
			break
		}
	}
	return nil
}

// mean obtains the mean structure of T. Each pass superposes every frame of T on the
// current estimate, starting from the first frame, and averages the result.
func (R *Reference) mean(T *chem.Trajectory, o *Options) error {
	if R.Align.Len() == 0 {
		avg, err := chem.MeanCoords(T.Frames)
		if err != nil {
			return fmt.Errorf("align: %w", err)
		}
		R.Coords, _ = pick(avg, R.Target.List, nil)
		R.aligned = T
		R.Passes = 0
		return nil
	}
	maxiter := o.MaxIter
	if maxiter < 1 {
		maxiter = 1
	}
	_, cur := pick(T.Coords(0), R.Target.List, R.Align.List)
	var avg *v3.Matrix
	for it := 0; it < maxiter; it++ {
		aligned, err := superposeOn(T, R.Align.List, cur)
		if err != nil {
			return err
		}
		if avg, err = chem.MeanCoords(aligned.Frames); err != nil {
			return fmt.Errorf("align: %w", err)
		}
		_, next := pick(avg, R.Target.List, R.Align.List)
		R.aligned = aligned
		R.Passes++
		moved, err := chem.RMSD(next, cur)
		if err != nil {
			return fmt.Errorf("align: %w", err)
		}
		cur = next
		if it > 0 && moved < o.Tolerance {
			break
		}
	}
	R.Coords, R.AlignCoords = pick(avg, R.Target.List, R.Align.List)
	return nil
}

// superposeOn superposes each frame of T, using the atoms in idx, on templa, and returns the
// resulting trajectory. T is not modified.
func superposeOn(T *chem.Trajectory, idx []int, templa *v3.Matrix) (*chem.Trajectory, error) {
	frames := make([]*v3.Matrix, T.NFrames())
	for i, f := range T.Frames {
		var err error
		frames[i], err = chem.Super(f, templa, idx, nil)
		if err != nil {
			return nil, fmt.Errorf("align: frame %d: %w", i, err)
		}
		if math.IsNaN(frames[i].At(0, 0)) {
			return nil, fmt.Errorf("align: frame %d: superposition gave NaN coordinates", i)
		}
	}
	return T.WithFrames(frames)
}

// Superpose returns a trajectory with the frames of T superposed on the reference, using its
// alignment atoms. If the reference has no alignment atoms, T itself is returned. T must be the
// trajectory the reference was resolved for, or one with the same atoms.
func Superpose(T *chem.Trajectory, R *Reference) (*chem.Trajectory, error) {
	if !T.Owns(R.Target) {
		return nil, fmt.Errorf("align: reference for %q was resolved on different atoms", R.Target.Text)
	}
	if R.Align.Len() == 0 {
		return T, nil
	}
	if R.aligned != nil && R.source == T {
		return R.aligned, nil
	}
	return superposeOn(T, R.Align.List, R.AlignCoords)
}
