/*
 * main_test.go, part of mdrms
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
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/table"
	"github.com/rmera/mdrms/traj"
	v3 "github.com/rmera/mdrms/v3"
	"github.com/spf13/viper"
)

// run executes the command line args and returns its standard output.
func run(Te *testing.T, args ...string) (string, error) {
	viper.Reset()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func fixture(Te *testing.T, dir string, nframes int) (string, string) {
	var ats []*chem.Atom
	for r := 1; r <= 5; r++ {
		for _, n := range []string{"N", "CA", "C"} {
			ats = append(ats, &chem.Atom{Name: n, MolName: "GLY", MolID: r, Chain: "A", Symbol: n[:1]})
		}
	}
	top := chem.NewTopology(ats)
	frames := make([]*v3.Matrix, nframes)
	for i := range frames {
		frames[i] = v3.Zeros(top.Len())
		for j := 0; j < top.Len(); j++ {
			frames[i].Set(j, 0, 1.4*float64(j)+0.1*math.Cos(float64(i*j)))
			frames[i].Set(j, 1, math.Sin(float64(j)))
			frames[i].Set(j, 2, 0.05*float64(i))
		}
	}
	pdb := filepath.Join(dir, "top.pdb")
	if err := chem.PDBFileWrite(pdb, top, frames[:1]); err != nil {
		Te.Fatal(err)
	}
	dcd := filepath.Join(dir, "traj.dcd")
	w, err := traj.Create(dcd, top.Len())
	if err != nil {
		Te.Fatal(err)
	}
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			Te.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		Te.Fatal(err)
	}
	return pdb, dcd
}

func TestRMSDCommand(Te *testing.T) {
	dir := Te.TempDir()
	pdb, dcd := fixture(Te, dir, 5)
	out, err := run(Te, "rmsd", pdb, dcd, "--target", "name CA")
	if err != nil {
		Te.Fatal(err)
	}
	t, err := table.Read(strings.NewReader(out))
	if err != nil {
		Te.Fatal(err)
	}
	if t.Len() != 5 {
		Te.Errorf("%d rows for 5 frames:\n%s", t.Len(), out)
	}
	csv := filepath.Join(dir, "rmsf.csv")
	cpath := filepath.Join(dir, "cache")
	args := []string{"rmsf", pdb, dcd, "--target", "name CA", "--residue", "-o", csv, "--name", "wt", "--cache-path", cpath}
	if _, err := run(Te, args...); err != nil {
		Te.Fatal(err)
	}
	t, err = table.ReadFile(csv)
	if err != nil {
		Te.Fatal(err)
	}
	if t.Len() != 5 {
		Te.Errorf("%d rows for 5 residues", t.Len())
	}
	if _, err := os.Stat(filepath.Join(cpath, "wt_rmsf.csv")); err != nil {
		Te.Error(err)
	}
	if _, err := run(Te, "rmsd", pdb, dcd, "--target", "name XX"); err == nil {
		Te.Error("An empty target selection should fail")
	}
}

func TestBatchCommand(Te *testing.T) {
	dir := Te.TempDir()
	fixture(Te, dir, 4)
	plan := filepath.Join(dir, "plan.yaml")
	text := `cache:
  path: results
units:
  - name: ok
    metric: rmsd
    topology: top.pdb
    trajectories: [traj.dcd]
    target: name CA
  - name: broken
    metric: rmsd
    topology: nothere.pdb
`
	if err := os.WriteFile(plan, []byte(text), 0o644); err != nil {
		Te.Fatal(err)
	}
	if _, err := run(Te, "batch", plan); err == nil {
		Te.Error("A failed unit should make the batch fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "ok_rmsd.csv")); err != nil {
		Te.Errorf("The good unit should be stored: %v", err)
	}
}

func TestCheckendCommand(Te *testing.T) {
	dir := Te.TempDir()
	for rep, text := range map[string]string{"rep1": "...\nSimulation completed!\n", "rep2": "...\n"} {
		d := filepath.Join(dir, rep, "production")
		if err := os.MkdirAll(d, 0o755); err != nil {
			Te.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(d, "slurm-10.out"), []byte(text), 0o644); err != nil {
			Te.Fatal(err)
		}
	}
	out, err := run(Te, "checkend", dir, "--strict=false")
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.Contains(out, "[rep1] production/slurm-10.out : Simulation completed! FOUND") {
		Te.Errorf("Unexpected output:\n%s", out)
	}
	if _, err := run(Te, "checkend", dir, "--strict"); err == nil {
		Te.Error("An unfinished replica should fail with --strict")
	}
}
