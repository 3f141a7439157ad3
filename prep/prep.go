/*
 * prep.go, part of mdrms
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

// Package prep reduces production trajectories of simulation replicas for analysis:
// frames are subsampled and solvent is removed, and the results are written next to each
// replica's folders.
package prep

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/traj"
)

// Options for Run.
type Options struct {
	//Folder, in each replica, with the production run.
	Phase string
	//Topology file in the phase folder.
	Topology string
	//Candidate trajectory files in the phase folder. The first one present is used.
	Trajectories []string
	//Keep every Skip-th frame.
	Skip int
	//Atoms removed.
	Strip string
	//Extension, and format, of the output trajectory (dcd, xtc, or stf and its variants).
	Format string
}

// DefaultOptions returns the options for GROMACS, NAMD or ACEMD-like replica folders: every 10th
// frame, without water.
func DefaultOptions() *Options {
	return &Options{
		Phase:        "production",
		Topology:     "structure.psf",
		Trajectories: []string{"output.xtc", "output.dcd", "output.stf", "output.stz"},
		Skip:         10,
		Strip:        "water",
		Format:       "dcd",
	}
}

// Result is the outcome for one replica.
type Result struct {
	Replica    string
	Topology   string //output files
	Trajectory string
	Frames     int
	Skipped    bool //the outputs were already present
	Err        error
}

func (R Result) String() string {
	switch {
	case R.Err != nil:
		return fmt.Sprintf("%s: failed: %v", R.Replica, R.Err)
	case R.Skipped:
		return fmt.Sprintf("%s: skipped, filtered files already exist", R.Replica)
	}
	return fmt.Sprintf("%s: %d frames written to %s", R.Replica, R.Frames, R.Trajectory)
}

// Outputs returns the names of the topology and trajectory files written for replica, in dir.
func (O *Options) Outputs(dir, replica string) (string, string) {
	ext := strings.ToLower(filepath.Ext(O.Topology))
	if ext != ".pdb" {
		ext = ".psf"
	}
	top := filepath.Join(dir, replica+"_noh"+ext)
	tr := filepath.Join(dir, fmt.Sprintf("%s_noh_s%d.%s", replica, O.Skip, strings.TrimPrefix(O.Format, ".")))
	return top, tr
}

// Run processes each replica folder in root. Failures are reported in the results, and
// don't stop the processing of other replicas. An error is returned only if root can't be read.
func Run(root string, o *Options) ([]Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	ents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("prep: %w", err)
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	ret := make([]Result, 0, len(names))
	for _, n := range names {
		r := Replica(filepath.Join(root, n), o)
		log.Println(r)
		ret = append(ret, r)
	}
	return ret, nil
}

// Replica processes the replica in the folder dir.
func Replica(dir string, o *Options) Result {
	name := filepath.Base(dir)
	R := Result{Replica: name}
	R.Topology, R.Trajectory = o.Outputs(dir, name)
	if exists(R.Topology) && exists(R.Trajectory) {
		R.Skipped = true
		return R
	}
	phase := filepath.Join(dir, o.Phase)
	if _, err := os.Stat(phase); err != nil {
		R.Err = fmt.Errorf("missing %s folder", o.Phase)
		return R
	}
	var in string
	for _, t := range o.Trajectories {
		if p := filepath.Join(phase, t); exists(p) {
			in = p
			break
		}
	}
	if in == "" {
		R.Err = fmt.Errorf("no trajectory among %v in %s", o.Trajectories, phase)
		return R
	}
	T, err := traj.Load(filepath.Join(phase, o.Topology), []string{in}, &traj.LoadOptions{Skip: o.Skip, Strip: o.Strip, Timestep: 1})
	if err != nil {
		R.Err = err
		return R
	}
	if err := write(T, R.Topology, R.Trajectory); err != nil {
		R.Err = err
		return R
	}
	R.Frames = T.NFrames()
	return R
}

func exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

// write writes the topology and frames of T. Each file is first written under a temporary
// name, so a failed run leaves no output behind.
func write(T *chem.Trajectory, top, tr string) (err error) {
	ttop := filepath.Join(filepath.Dir(top), ".part-"+filepath.Base(top))
	ttr := filepath.Join(filepath.Dir(tr), ".part-"+filepath.Base(tr))
	defer func() {
		if err != nil {
			os.Remove(ttop)
			os.Remove(ttr)
		}
	}()
	if filepath.Ext(top) == ".pdb" {
		err = chem.PDBFileWrite(ttop, T, T.Frames[:1])
	} else {
		err = chem.PSFFileWrite(ttop, T)
	}
	if err != nil {
		return err
	}
	w, err := traj.Create(ttr, T.Len())
	if err != nil {
		return err
	}
	for i, f := range T.Frames {
		if err = w.WNext(f, T.Box(i)); err != nil {
			w.Close()
			return err
		}
	}
	if err = w.Close(); err != nil {
		return err
	}
	if err = os.Rename(ttr, tr); err != nil {
		return err
	}
	return os.Rename(ttop, top)
}
