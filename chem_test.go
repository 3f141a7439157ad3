/*
 * chem_test.go, part of mdrms
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
	"math"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/rmera/mdrms/v3"
)

var testCoords = []float64{
	0, 0, 0,
	1.5, 0, 0,
	1.5, 1.4, 0,
	0.2, 1.9, 1.1,
	-1.0, 0.5, -0.7,
}

// resnameSel selects atoms by residue name.
type resnameSel string

func (r resnameSel) Indexes(top Atomer) ([]int, error) {
	var ret []int
	for i := 0; i < top.Len(); i++ {
		if top.Atom(i).MolName == string(r) {
			ret = append(ret, i)
		}
	}
	return ret, nil
}

func (r resnameSel) String() string { return "resname " + string(r) }

// rotZ returns a row-vector rotation matrix around the Z axis.
func rotZ(angle float64) *v3.Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	m, _ := v3.NewMatrix([]float64{c, s, 0, -s, c, 0, 0, 0, 1})
	return m
}

func moved(Te *testing.T, angle float64, t [3]float64) (*v3.Matrix, *v3.Matrix) {
	orig, err := v3.NewMatrix(append([]float64(nil), testCoords...))
	if err != nil {
		Te.Fatal(err)
	}
	m := v3.Zeros(orig.NVecs())
	m.Mul(orig, rotZ(angle))
	tv, _ := v3.NewMatrix([]float64{t[0], t[1], t[2]})
	m.AddVec(m, tv)
	return orig, m
}

func TestSuper(Te *testing.T) {
	orig, m := moved(Te, 0.7, [3]float64{3, -2, 10})
	rmsd, err := RMSD(m, orig)
	if err != nil {
		Te.Fatal(err)
	}
	if rmsd < 1 {
		Te.Fatalf("The test structure should start far from the template, RMSD: %f", rmsd)
	}
	sup, err := Super(m, orig, nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	rmsd, err = RMSD(sup, orig)
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("RMSD after superposition:", rmsd)
	if rmsd > 1e-8 {
		Te.Errorf("Superposition failed, RMSD: %f", rmsd)
	}
	//The original test matrix must not be modified.
	if m.At(0, 2) != 10 {
		Te.Errorf("Super modified its input: %v", m)
	}
	//superposition based on a subset, applied to all atoms.
	sup, err = Super(m, orig, []int{0, 1, 2}, []int{0, 1, 2})
	if err != nil {
		Te.Fatal(err)
	}
	if rmsd, _ := RMSD(sup, orig); rmsd > 1e-8 {
		Te.Errorf("Subset superposition failed, RMSD: %f", rmsd)
	}
	if _, err := Super(m, orig, []int{0, 1}, []int{0, 1, 2}); err == nil {
		Te.Error("Mismatched lists should give an error")
	}
}

func TestSuperNoReflection(Te *testing.T) {
	orig, _ := v3.NewMatrix(append([]float64(nil), testCoords...))
	mirror := orig.Clone()
	for i := 0; i < mirror.NVecs(); i++ {
		mirror.Set(i, 2, -mirror.At(i, 2))
	}
	_, rot, _, _, err := RotatorTranslatorToSuper(mirror, orig)
	if err != nil {
		Te.Fatal(err)
	}
	if d := rot.Det(); math.Abs(d-1) > 1e-8 {
		Te.Errorf("Rotation has determinant %f, a reflection was returned", d)
	}
}

func TestRMSD(Te *testing.T) {
	orig, _ := v3.NewMatrix(append([]float64(nil), testCoords...))
	if r, _ := RMSD(orig, orig); r != 0 {
		Te.Errorf("Self RMSD is %f", r)
	}
	other := orig.Clone()
	other.Set(4, 0, other.At(4, 0)+2)
	r, err := RMSD(other, orig)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(r-math.Sqrt(4.0/5.0)) > 1e-12 {
		Te.Errorf("Wrong RMSD %f", r)
	}
	r, _ = RMSD(other, orig, []int{4}, []int{4})
	if math.Abs(r-2) > 1e-12 {
		Te.Errorf("Wrong RMSD for a single atom %f", r)
	}
	if _, err := RMSD(other, orig, []int{}); err == nil {
		Te.Error("RMSD over zero atoms should fail")
	}
}

func testTraj(Te *testing.T) *Trajectory {
	ats := []*Atom{
		{Name: "CA", MolName: "ALA", MolID: 1, Chain: "A", Symbol: "C"},
		{Name: "CA", MolName: "GLY", MolID: 2, Chain: "A", Symbol: "C"},
		{Name: "OH2", MolName: "TIP3", MolID: 3, SegID: "WT1", Symbol: "O"},
		{Name: "CA", MolName: "ALA", MolID: 1, Chain: "B", Symbol: "C"},
	}
	var frames []*v3.Matrix
	for f := 0; f < 6; f++ {
		c := v3.Zeros(4)
		for i := 0; i < 4; i++ {
			c.Set(i, 0, float64(i))
			c.Set(i, 1, float64(f))
		}
		frames = append(frames, c)
	}
	T, err := NewTrajectory(NewTopology(ats), frames, nil)
	if err != nil {
		Te.Fatal(err)
	}
	return T
}

func TestStripSubsample(Te *testing.T) {
	T := testTraj(Te)
	set, err := T.Select(resnameSel("ALA"))
	if err != nil {
		Te.Fatal(err)
	}
	if set.Len() != 2 || !T.Owns(set) {
		Te.Fatalf("Wrong selection %v", set)
	}
	S, err := T.Strip(resnameSel("TIP3"))
	if err != nil {
		Te.Fatal(err)
	}
	if S.Len() != 3 || T.Len() != 4 {
		Te.Fatalf("Strip gave %d atoms, original has %d", S.Len(), T.Len())
	}
	if S.Owns(set) {
		Te.Error("Index sets must not survive a Strip")
	}
	if S.Atom(2).Chain != "B" || S.Coords(0).At(2, 0) != 3 {
		Te.Errorf("Atoms were not renumbered correctly: %v %v", S.Atom(2), S.Coords(0))
	}
	Sub, err := T.Subsample(2)
	if err != nil {
		Te.Fatal(err)
	}
	if Sub.NFrames() != 3 || Sub.Coords(2).At(0, 1) != 4 {
		Te.Errorf("Subsample gave %d frames, last: %v", Sub.NFrames(), Sub.Coords(2))
	}
	if !Sub.Owns(set) {
		Te.Error("Subsampling doesn't change the atoms, index sets should remain valid")
	}
	if Sub.Time(1) != 2 {
		Te.Errorf("Time of the second subsampled frame is %f", Sub.Time(1))
	}
	if _, err := T.Subsample(0); err == nil {
		Te.Error("Subsampling by 0 should fail")
	}
	if _, err := T.Keep(nil); err == nil {
		Te.Error("Keeping no atoms should fail")
	}
	//Next/Readable go over all frames
	n := 0
	c := v3.Zeros(4)
	for {
		err := T.Next(c)
		if IsLastFrame(err) {
			break
		}
		n++
	}
	if n != 6 {
		Te.Errorf("Next returned %d frames", n)
	}
	if T.Readable() {
		Te.Error("The trajectory should not be readable after the last frame")
	}
	T.Rewind()
	if err := T.Next(c); err != nil || c.At(0, 0) != T.Coords(0).At(0, 0) {
		Te.Errorf("Next after Rewind should return the first frame (%v)", err)
	}
}

func TestResKeys(Te *testing.T) {
	T := testTraj(Te)
	keys := ResKeys(T, nil)
	if len(keys) != 4 {
		Te.Fatalf("Expected 4 residues, got %v", keys)
	}
	//same residue number, different chains
	if keys[0] == keys[3] {
		Te.Errorf("Residues of different chains share a key: %v", keys)
	}
	fmt.Println(keys[0], keys[2], keys[3])
	if keys[3].String() != "1:B" {
		Te.Errorf("Wrong key string %s", keys[3])
	}
	got, groups := GroupByResidue(T, []int{0, 3, 1})
	if len(got) != 3 || groups[1][0] != 1 {
		Te.Errorf("Wrong grouping %v %v", got, groups)
	}
	if l := Residues2Atoms(T, []ResKey{{ResID: 1, Chain: "B"}}); len(l) != 1 || l[0] != 3 {
		Te.Errorf("Residues2Atoms gave %v", l)
	}
}

func TestPDBRoundTrip(Te *testing.T) {
	T := testTraj(Te)
	name := filepath.Join(Te.TempDir(), "test.pdb")
	if err := PDBFileWrite(name, T, T.Frames[:2]); err != nil {
		Te.Fatal(err)
	}
	R, err := PDBFileRead(name)
	if err != nil {
		Te.Fatal(err)
	}
	if R.NFrames() != 2 || R.Len() != 4 {
		Te.Fatalf("Read %d frames of %d atoms", R.NFrames(), R.Len())
	}
	at := R.Atom(2)
	if at.MolName != "TIP3" || at.SegID != "WT1" || at.Name != "OH2" || at.Symbol != "O" {
		Te.Errorf("Wrong atom read: %+v", at)
	}
	if R.Atom(3).Chain != "B" || R.Atom(3).MolID != 1 {
		Te.Errorf("Wrong chain read: %+v", R.Atom(3))
	}
	if R.Coords(1).At(3, 1) != 1 {
		Te.Errorf("Wrong coordinates in the second model: %v", R.Coords(1))
	}
	if _, err := PDBFileRead(filepath.Join(Te.TempDir(), "nothere.pdb")); err == nil {
		Te.Error("Reading a missing file should fail")
	} else if e, ok := err.(TrajError); !ok || e.FileName() == "" {
		Te.Errorf("Error doesn't carry the file name: %v", err)
	}
}

func TestPSFRoundTrip(Te *testing.T) {
	T := testTraj(Te)
	T.AssignMasses()
	name := filepath.Join(Te.TempDir(), "test.psf")
	if err := PSFFileWrite(name, T); err != nil {
		Te.Fatal(err)
	}
	top, err := PSFFileRead(name)
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 4 {
		Te.Fatalf("Read %d atoms", top.Len())
	}
	if top.Atom(2).SegID != "WT1" || top.Atom(2).MolName != "TIP3" || math.Abs(top.Atom(2).Mass-16) > 1e-3 {
		Te.Errorf("Wrong atom read: %+v", top.Atom(2))
	}
	m, err := top.Masses()
	if err != nil || len(m) != 4 {
		Te.Errorf("Masses: %v %v", m, err)
	}
}

func TestXYZRead(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "test.xyz")
	data := "2\nframe 1\nC 0 0 0\nO 1.2 0 0\n2\nframe 2\nC 0 0 1\nO 1.2 0 1\n"
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		Te.Fatal(err)
	}
	T, err := XYZFileRead(name)
	if err != nil {
		Te.Fatal(err)
	}
	if T.NFrames() != 2 || T.Atom(1).Symbol != "O" || T.Coords(1).At(1, 2) != 1 {
		Te.Errorf("Wrong trajectory read: %d frames, %v", T.NFrames(), T.Coords(1))
	}
}

func TestUnwrap(Te *testing.T) {
	top := NewTopology([]*Atom{{Name: "NA", MolName: "SOD", MolID: 1}})
	var frames []*v3.Matrix
	var boxes [][]float64
	//an atom moving +1 per frame in a box of 10, wrapped into [0,10)
	for f := 0; f < 15; f++ {
		x := math.Mod(8+float64(f), 10)
		c, _ := v3.NewMatrix([]float64{x, 0, 0})
		frames = append(frames, c)
		boxes = append(boxes, []float64{10, 0, 0, 0, 10, 0, 0, 0, 10})
	}
	T, err := NewTrajectory(top, frames, boxes)
	if err != nil {
		Te.Fatal(err)
	}
	U, err := T.Unwrap()
	if err != nil {
		Te.Fatal(err)
	}
	for f := 0; f < 15; f++ {
		if math.Abs(U.Coords(f).At(0, 0)-(8+float64(f))) > 1e-9 {
			Te.Errorf("Frame %d unwrapped to %f", f, U.Coords(f).At(0, 0))
		}
	}
	T.Boxes = nil
	if _, err := T.Unwrap(); err == nil {
		Te.Error("Unwrapping without boxes should fail")
	}
}
