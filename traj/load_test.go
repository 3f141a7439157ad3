/*
 * load_test.go, part of mdrms
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

package traj

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/traj/xtc"
	v3 "github.com/rmera/mdrms/v3"
)

func fixtureTop() *chem.Topology {
	return chem.NewTopology([]*chem.Atom{
		{Name: "CA", ID: 1, MolName: "ALA", MolID: 1, Chain: "A", Symbol: "C"},
		{Name: "CA", ID: 2, MolName: "GLY", MolID: 2, Chain: "A", Symbol: "C"},
		{Name: "OH2", ID: 3, MolName: "TIP3", MolID: 3, Chain: "W", Symbol: "O"},
		{Name: "CA", ID: 4, MolName: "LYS", MolID: 4, Chain: "A", Symbol: "C"},
	})
}

// frame returns coordinates where atom i of frame k is at (k, i, 1).
func frame(k, natoms int) *v3.Matrix {
	m := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		m.Set(i, 0, float64(k))
		m.Set(i, 1, float64(i))
		m.Set(i, 2, 1)
	}
	return m
}

// writeFixture writes a PDB topology and a trajectory called trajname, with nframes frames.
func writeFixture(Te *testing.T, trajname string, nframes int) (string, string) {
	dir := Te.TempDir()
	top := fixtureTop()
	pdb := filepath.Join(dir, "top.pdb")
	if err := chem.PDBFileWrite(pdb, top, []*v3.Matrix{frame(0, top.Len())}); err != nil {
		Te.Fatal(err)
	}
	tname := filepath.Join(dir, trajname)
	w, err := Create(tname, top.Len())
	if err != nil {
		Te.Fatal(err)
	}
	for k := 0; k < nframes; k++ {
		if err := w.WNext(frame(k, top.Len())); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	return pdb, tname
}

func TestLoad(Te *testing.T) {
	for _, name := range []string{"traj.dcd", "traj.dcd.gz", "traj.dcd.zst", "traj.stf", "traj.stz"} {
		pdb, tname := writeFixture(Te, name, 10)
		T, err := Load(pdb, []string{tname}, &LoadOptions{Skip: 3, Strip: "water", Timestep: 2})
		if err != nil {
			Te.Fatalf("%s: %v", name, err)
		}
		if T.NFrames() != 4 || T.Len() != 3 {
			Te.Fatalf("%s: got %d frames of %d atoms", name, T.NFrames(), T.Len())
		}
		if T.Atom(2).MolName != "LYS" {
			Te.Errorf("%s: stripping didn't keep the atom order: %+v", name, T.Atom(2))
		}
		//Frame 2 of the loaded trajectory is frame 6 of the file; the LYS CA was atom 3.
		if x, y := T.Coords(2).At(2, 0), T.Coords(2).At(2, 1); x != 6 || y != 3 {
			Te.Errorf("%s: wrong coordinates (%f, %f) for the LYS CA in frame 2", name, x, y)
		}
		if T.Time(1) != 6 {
			Te.Errorf("%s: time of frame 1 is %f, expected 6", name, T.Time(1))
		}
		if len(T.Source) != 2 || T.Source[1] != tname {
			Te.Errorf("%s: wrong sources %v", name, T.Source)
		}
	}
}

func TestLoadConcatenated(Te *testing.T) {
	pdb, t1 := writeFixture(Te, "a.dcd", 3)
	_, t2 := writeFixture(Te, "b.stf", 2)
	T, err := Load(pdb, []string{t1, t2}, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if T.NFrames() != 5 || T.Timestep != 1 {
		Te.Fatalf("Got %d frames and timestep %f", T.NFrames(), T.Timestep)
	}
	if T.Coords(4).At(0, 0) != 1 {
		Te.Errorf("The last frame should be the second frame of the second file: %v", T.Coords(4))
	}
}

func TestLoadTopologyOnly(Te *testing.T) {
	pdb, _ := writeFixture(Te, "x.dcd", 1)
	T, err := Load(pdb, nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if T.NFrames() != 1 || T.Len() != 4 {
		Te.Errorf("Got %d frames of %d atoms", T.NFrames(), T.Len())
	}
}

func TestLoadErrors(Te *testing.T) {
	pdb, tname := writeFixture(Te, "t.dcd", 2)
	if _, err := Load(pdb, []string{tname}, &LoadOptions{Skip: 0, Timestep: 1}); err == nil {
		Te.Error("A skip of 0 should fail")
	}
	if _, err := Load(pdb, []string{tname}, &LoadOptions{Skip: 1, Strip: "resname (", Timestep: 1}); err == nil {
		Te.Error("A bad strip selection should fail")
	}
	if _, err := Load(pdb, []string{tname}, &LoadOptions{Skip: 1, Strip: "all", Timestep: 1}); err == nil {
		Te.Error("Stripping every atom should fail")
	}
	if _, err := Load(pdb, []string{filepath.Join(Te.TempDir(), "t.trr")}, nil); err == nil {
		Te.Error("An unsupported format should fail")
	}
	//XTC files are handed to their reader, which either can't find the file or was not built.
	_, err := Open(filepath.Join(Te.TempDir(), "output.xtc"))
	if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, xtc.ErrNotBuilt) {
		Te.Errorf("Unexpected error opening an XTC file: %v", err)
	}
	_, err = Create(filepath.Join(Te.TempDir(), "nodir", "out.xtc"), 3)
	if err == nil {
		Te.Error("Creating an XTC file in a missing folder should fail")
	}
	//A trajectory with a different number of atoms than the topology.
	dir := Te.TempDir()
	other := filepath.Join(dir, "other.dcd")
	w, err := Create(other, 3)
	if err != nil {
		Te.Fatal(err)
	}
	w.WNext(frame(0, 3))
	w.Close()
	_, err = Load(pdb, []string{other}, nil)
	if err == nil {
		Te.Fatal("Loading a trajectory that doesn't match the topology should fail")
	}
	if e, ok := err.(chem.TrajError); !ok || e.FileName() != other {
		Te.Errorf("The error should name the trajectory file: %v", err)
	}
}
