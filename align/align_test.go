/*
 * align_test.go, part of mdrms
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

package align

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/mdrms"
	v3 "github.com/rmera/mdrms/v3"
)

var base = []float64{
	0, 0, 0,
	1.5, 0, 0,
	1.5, 1.4, 0,
	0.2, 1.9, 1.1,
	-1.0, 0.5, -0.7,
	4.0, 4.0, 4.0,
}

func testTop() *chem.Topology {
	var ats []*chem.Atom
	for i, r := range []string{"ALA", "GLY", "SER", "LYS", "ASP"} {
		ats = append(ats, &chem.Atom{Name: "CA", ID: i + 1, MolName: r, MolID: i + 1, Chain: "A", Symbol: "C"})
	}
	ats = append(ats, &chem.Atom{Name: "OH2", ID: 6, MolName: "TIP3", MolID: 6, Chain: "W", Symbol: "O"})
	return chem.NewTopology(ats)
}

// rigid returns base rotated by angle around the axis (x, y or z) and then translated by t.
func rigid(Te *testing.T, angle float64, axis int, t [3]float64) *v3.Matrix {
	orig, err := v3.NewMatrix(append([]float64(nil), base...))
	if err != nil {
		Te.Fatal(err)
	}
	c, s := math.Cos(angle), math.Sin(angle)
	var r []float64
	switch axis {
	case 0:
		r = []float64{1, 0, 0, 0, c, s, 0, -s, c}
	case 1:
		r = []float64{c, 0, -s, 0, 1, 0, s, 0, c}
	default:
		r = []float64{c, s, 0, -s, c, 0, 0, 0, 1}
	}
	rot, _ := v3.NewMatrix(r)
	ret := v3.Zeros(orig.NVecs())
	ret.Mul(orig, rot)
	tv, _ := v3.NewMatrix([]float64{t[0], t[1], t[2]})
	ret.AddVec(ret, tv)
	return ret
}

func rigidTraj(Te *testing.T, n int) *chem.Trajectory {
	frames := make([]*v3.Matrix, n)
	for i := range frames {
		frames[i] = rigid(Te, 0.3*float64(i), i%3, [3]float64{float64(i), -2 * float64(i), 0.5})
	}
	T, err := chem.NewTrajectory(testTop(), frames, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return T
}

func rmsd(Te *testing.T, a, b *v3.Matrix, idx ...[]int) float64 {
	r, err := chem.RMSD(a, b, idx...)
	if err != nil {
		Te.Fatal(err)
	}
	return r
}

func TestFirst(Te *testing.T) {
	T := rigidTraj(Te, 6)
	o := DefaultOptions()
	ref, err := Resolve(T, o)
	if err != nil {
		Te.Fatal(err)
	}
	if ref.Mode != First || ref.Target.Len() != 5 || ref.Align.Len() != 5 {
		Te.Fatalf("Wrong reference: mode %v, %d target atoms, %d alignment atoms", ref.Mode, ref.Target.Len(), ref.Align.Len())
	}
	A, err := Superpose(T, ref)
	if err != nil {
		Te.Fatal(err)
	}
	for i, f := range A.Frames {
		if r := rmsd(Te, f, T.Coords(0)); r > 1e-8 {
			Te.Errorf("Frame %d is %g away from the first frame after superposition", i, r)
		}
	}
	//The original is not modified.
	if r := rmsd(Te, T.Coords(3), T.Coords(0)); r < 1 {
		Te.Errorf("The input trajectory was modified")
	}
}

func TestNoAlign(Te *testing.T) {
	T := rigidTraj(Te, 3)
	o := DefaultOptions()
	o.NoAlign = true
	ref, err := Resolve(T, o)
	if err != nil {
		Te.Fatal(err)
	}
	A, err := Superpose(T, ref)
	if err != nil {
		Te.Fatal(err)
	}
	if A != T {
		Te.Error("Without alignment the trajectory should be returned as is")
	}
}

func TestEmptySelection(Te *testing.T) {
	//No frames at all: the selection must fail before any coordinates are needed.
	T, err := chem.NewTrajectory(testTop(), nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	o := DefaultOptions()
	o.Align = "resname HEM"
	_, err = Resolve(T, o)
	if !errors.Is(err, ErrEmptySelection) {
		Te.Fatalf("Expected an empty selection error, got %v", err)
	}
	if !strings.Contains(err.Error(), "resname HEM") {
		Te.Errorf("The error should name the selection: %v", err)
	}
	o = DefaultOptions()
	o.Target = "none"
	if _, err = Resolve(rigidTraj(Te, 2), o); !errors.Is(err, ErrEmptySelection) {
		Te.Errorf("Expected an empty selection error for the target, got %v", err)
	}
}

func TestExternal(Te *testing.T) {
	T := rigidTraj(Te, 4)
	dir := Te.TempDir()
	refname := filepath.Join(dir, "ref.pdb")
	refc := rigid(Te, 1.1, 1, [3]float64{10, 10, 10})
	if err := chem.PDBFileWrite(refname, testTop(), []*v3.Matrix{refc}); err != nil {
		Te.Fatal(err)
	}
	o := DefaultOptions()
	o.RefFile = refname
	o.RefStrip = "water"
	ref, err := Resolve(T, o)
	if err != nil {
		Te.Fatal(err)
	}
	if ref.Mode != External {
		Te.Fatalf("Expected an external reference, got %v", ref.Mode)
	}
	A, err := Superpose(T, ref)
	if err != nil {
		Te.Fatal(err)
	}
	for i, f := range A.Frames {
		//PDB coordinates have 3 decimals.
		if r := rmsd(Te, f, refc, ref.Target.List, []int{0, 1, 2, 3, 4}); r > 1e-2 {
			Te.Errorf("Frame %d is %g away from the reference", i, r)
		}
	}
	//A reference selection that doesn't match the trajectory's in size.
	o.RefTarget = "resname ALA GLY"
	_, err = Resolve(T, o)
	if err == nil {
		Te.Fatal("Mismatched selections should fail")
	}
	if !strings.Contains(err.Error(), "protein and name CA") || !strings.Contains(err.Error(), "resname ALA GLY") {
		Te.Errorf("The error should name both selections: %v", err)
	}
	o.RefTarget = ""
	o.RefFile = filepath.Join(dir, "nothere.pdb")
	if _, err = Resolve(T, o); err == nil {
		Te.Error("A missing reference file should fail")
	}
}

func TestMean(Te *testing.T) {
	T := rigidTraj(Te, 8)
	o := DefaultOptions()
	o.Mode = Mean
	ref, err := Resolve(T, o)
	if err != nil {
		Te.Fatal(err)
	}
	if ref.Passes < 1 || ref.Passes > o.MaxIter {
		Te.Errorf("%d passes, with a maximum of %d", ref.Passes, o.MaxIter)
	}
	//All frames are the same structure, so the mean is that structure.
	if r := rmsd(Te, ref.Coords, T.Coords(0), nil, ref.Target.List); r > 1e-8 {
		Te.Errorf("Mean structure is %g away from the first frame", r)
	}
	A, err := Superpose(T, ref)
	if err != nil {
		Te.Fatal(err)
	}
	if A.NFrames() != T.NFrames() || !A.Owns(ref.Target) {
		Te.Errorf("The superposed trajectory should keep the frames and atoms")
	}
	o.NoAlign = true
	ref, err = Resolve(T, o)
	if err != nil {
		Te.Fatal(err)
	}
	if ref.Passes != 0 || ref.Coords.NVecs() != 5 {
		Te.Errorf("Wrong unaligned mean: %d passes, %d atoms", ref.Passes, ref.Coords.NVecs())
	}
}

func TestSuperposeOtherAtoms(Te *testing.T) {
	T := rigidTraj(Te, 2)
	ref, err := Resolve(T, nil)
	if err != nil {
		Te.Fatal(err)
	}
	S, err := T.Keep([]int{0, 1, 2, 3, 4})
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := Superpose(S, ref); err == nil {
		Te.Error("Superposing a trajectory with different atoms should fail")
	}
}

func TestParseMode(Te *testing.T) {
	for s, m := range map[string]Mode{"": Auto, "First": First, "mean": Mean, " external ": External} {
		got, err := ParseMode(s)
		if err != nil || got != m {
			Te.Errorf("ParseMode(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseMode("median"); err == nil {
		Te.Error("Unknown modes should fail")
	}
}
