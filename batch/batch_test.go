/*
 * batch_test.go, part of mdrms
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

package batch

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/cache"
	"github.com/rmera/mdrms/rms"
	"github.com/rmera/mdrms/traj"
	v3 "github.com/rmera/mdrms/v3"
)

// writeReplica writes a small peptide topology and trajectory under dir/name, with the
// names used by the plans in these tests.
func writeReplica(Te *testing.T, dir, name string, nframes int) {
	var ats []*chem.Atom
	for r := 1; r <= 4; r++ {
		for _, n := range []string{"N", "CA", "C"} {
			ats = append(ats, &chem.Atom{Name: n, MolName: "ALA", MolID: r, Chain: "A", Symbol: n[:1]})
		}
	}
	top := chem.NewTopology(ats)
	frames := make([]*v3.Matrix, nframes)
	for i := range frames {
		frames[i] = v3.Zeros(top.Len())
		for j := 0; j < top.Len(); j++ {
			frames[i].Set(j, 0, 1.5*float64(j))
			frames[i].Set(j, 1, math.Sin(float64(j))+0.2*math.Sin(float64(i+j)))
			frames[i].Set(j, 2, 0.1*float64(i%3))
		}
	}
	d := filepath.Join(dir, name)
	if err := os.MkdirAll(d, 0o755); err != nil {
		Te.Fatal(err)
	}
	if err := chem.PDBFileWrite(filepath.Join(d, name+".pdb"), top, frames[:1]); err != nil {
		Te.Fatal(err)
	}
	w, err := traj.Create(filepath.Join(d, name+".dcd"), top.Len())
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
}

const testPlan = `
cache:
  store: dir
  path: results
matrix:
  r: ["1", "2"]
units:
  - name: "wt{{.r}}_CA"
    metric: rmsd
    topology: "wt_{{.r}}/wt_{{.r}}.pdb"
    trajectories: ["wt_{{.r}}/wt_{{.r}}.dcd"]
    target: name CA
  - name: "wt{{.r}}_CA"
    metric: rmsf
    topology: "wt_{{.r}}/wt_{{.r}}.pdb"
    trajectories: ["wt_{{.r}}/wt_{{.r}}.dcd"]
    target: name CA
    residue: true
  - name: wt1_again
    metric: rmsd
    topology: wt_1/wt_1.pdb
    trajectories: [wt_1/wt_1.dcd]
    strip: ""
    timestep: 0.1
  - name: wt1_CA
    metric: rmsd
    topology: wt_1/wt_1.pdb
`

func TestExpand(Te *testing.T) {
	P, err := ParsePlan([]byte(testPlan))
	if err != nil {
		Te.Fatal(err)
	}
	P.Base = "/data"
	units, err := P.Expand()
	if err != nil {
		Te.Fatal(err)
	}
	//The last unit has the same table name as the first one.
	if len(units) != 5 {
		Te.Fatalf("%d units, expected 5", len(units))
	}
	if units[1].Name != "wt2_CA" || units[1].Topology != "/data/wt_2/wt_2.pdb" || units[1].Trajectories[0] != "/data/wt_2/wt_2.dcd" {
		Te.Errorf("Wrong expansion: %+v", units[1])
	}
	c, err := units[4].Config()
	if err != nil {
		Te.Fatal(err)
	}
	if c.Metric != rms.MetricRMSD || c.Timestep != 0.1 || c.Strip != "" || c.Skip != 1 {
		Te.Errorf("Wrong configuration: %s", c)
	}
	if units[0].TableName() != "wt1_CA_rmsd" || units[2].TableName() != "wt1_CA_rmsf" {
		Te.Errorf("Table names %s %s", units[0].TableName(), units[2].TableName())
	}
	if c, _ := units[2].Config(); !c.Residue || c.Metric != rms.MetricRMSF {
		Te.Errorf("Wrong RMSF configuration: %s", c)
	}

	bad, err := ParsePlan([]byte("units:\n  - name: \"{{.nothere}}\"\n    metric: rmsd\n"))
	if err != nil {
		Te.Fatal(err)
	}
	if _, err := bad.Expand(); err == nil {
		Te.Error("An undefined template variable should fail")
	}
	if _, err := ParsePlan([]byte("units:\n  - nmae: x\n")); err == nil {
		Te.Error("Unknown fields should fail")
	}
	if _, err := (Unit{Name: "x", Metric: "rmsx"}).Config(); err == nil {
		Te.Error("An unknown metric should fail")
	}
}

func TestRunPlan(Te *testing.T) {
	dir := Te.TempDir()
	writeReplica(Te, dir, "wt_1", 6)
	writeReplica(Te, dir, "wt_2", 4)
	plan := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(plan, []byte(testPlan), 0o644); err != nil {
		Te.Fatal(err)
	}
	metrics := filepath.Join(dir, "mdrms.prom")
	ctx := context.Background()
	out, err := RunPlan(ctx, plan, Runner{MetricsFile: metrics, Plot: true})
	if err != nil {
		Te.Fatal(err)
	}
	if len(out) != 5 {
		Te.Fatalf("%d outcomes, expected 5", len(out))
	}
	for _, o := range out {
		if o.Cached {
			Te.Errorf("%s should have been computed", o.Unit.Name)
		}
		if _, err := os.Stat(o.Plot); err != nil {
			Te.Errorf("No plot for %s: %v", o.Unit.Name, err)
		}
	}
	if out[1].Table.Len() != 4 {
		Te.Errorf("%d RMSD rows for 4 frames", out[1].Table.Len())
	}
	if out[3].Table.Len() != 4 {
		Te.Errorf("%d RMSF rows for 4 residues", out[3].Table.Len())
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "wt1_CA_rmsd.csv")); err != nil {
		Te.Error(err)
	}
	out, err = RunPlan(ctx, plan, Runner{MetricsFile: metrics})
	if err != nil {
		Te.Fatal(err)
	}
	for _, o := range out {
		if !o.Cached {
			Te.Errorf("%s should have been read from the cache", o.Unit.Name)
		}
	}
	prom, err := os.ReadFile(metrics)
	if err != nil {
		Te.Fatal(err)
	}
	for _, want := range []string{`mdrms_batch_units_total{result="cached"} 5`, `mdrms_cache_requests_total{result="hit"} 5`} {
		if !strings.Contains(string(prom), want) {
			Te.Errorf("Metrics lack %q:\n%s", want, prom)
		}
	}
	out, err = RunPlan(ctx, plan, Runner{Force: true})
	if err != nil {
		Te.Fatal(err)
	}
	if out[0].Cached {
		Te.Error("Forced units should be recomputed")
	}
}

func TestFailures(Te *testing.T) {
	dir := Te.TempDir()
	writeReplica(Te, dir, "wt_1", 3)
	s, err := cache.NewDirStore(filepath.Join(dir, "results"), false)
	if err != nil {
		Te.Fatal(err)
	}
	R, err := NewRunner(cache.New(s, nil))
	if err != nil {
		Te.Fatal(err)
	}
	units := []Unit{
		{Name: "missing", Metric: "rmsd", Topology: filepath.Join(dir, "nothere.pdb")},
		{Name: "ok", Metric: "rmsd", Topology: filepath.Join(dir, "wt_1", "wt_1.pdb"), Trajectories: []string{filepath.Join(dir, "wt_1", "wt_1.dcd")}},
	}
	out, err := R.Run(context.Background(), units)
	if err == nil || !strings.Contains(err.Error(), "missing") {
		Te.Errorf("Expected an error naming the failed unit, got %v", err)
	}
	if len(out) != 2 || out[1].Err != nil || out[1].Table.Len() != 3 {
		Te.Errorf("The remaining units should run after a failure")
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "missing_rmsd.csv")); err == nil {
		Te.Error("Nothing should be stored for a failed unit")
	}
	R.FailFast = true
	out, err = R.Run(context.Background(), units)
	if err == nil || len(out) != 1 {
		Te.Errorf("Fail-fast should stop at the first failure (%d outcomes, %v)", len(out), err)
	}
}
