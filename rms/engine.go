/*
 * engine.go, part of mdrms
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

package rms

import (
	"fmt"
	"sort"
	"strconv"

	chem "github.com/rmera/mdrms"
	"github.com/rmera/mdrms/align"
	"github.com/rmera/mdrms/sel"
	"github.com/rmera/mdrms/table"
	"github.com/rmera/mdrms/traj"
)

// Metric is the quantity computed by an Engine.
type Metric int

const (
	MetricRMSD Metric = iota
	MetricRMSF
)

func (m Metric) String() string {
	if m == MetricRMSF {
		return "rmsf"
	}
	return "rmsd"
}

// ParseMetric returns the metric named s ("rmsd" or "rmsf").
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "rmsd", "RMSD":
		return MetricRMSD, nil
	case "rmsf", "RMSF":
		return MetricRMSF, nil
	}
	return MetricRMSD, fmt.Errorf("rms: unknown metric %q", s)
}

// Columns of the tables produced.
var (
	RMSDColumns = []string{"time", "rmsd"}
	RMSFColumns = []string{"resid", "resname", "name", "chain", "segid", "rmsf"}
)

// Config contains all the parameters of a calculation.
type Config struct {
	Metric Metric
	//Reference and selections.
	align.Options
	//Atoms removed from the trajectory when reading it.
	Strip string
	//Only every Skip-th frame is read.
	Skip int
	//Time between frames in the trajectory files.
	Timestep float64
	//Remove the jumps of atoms across the periodic box between frames, before anything else.
	PBC bool
	//RMSF by residue instead of by atom.
	Residue bool
}

// DefaultRMSDConfig returns the default parameters for RMSD calculations: reference in the
// first frame (or in a reference file, if one is set) and superposition on the alpha carbons.
func DefaultRMSDConfig() Config {
	return Config{
		Metric:   MetricRMSD,
		Options:  *align.DefaultOptions(),
		Skip:     1,
		Timestep: 1,
	}
}

// DefaultRMSFConfig returns the default parameters for RMSF calculations: fluctuations
// of the alpha carbons around the mean structure, after superposition, in a trajectory without water.
func DefaultRMSFConfig() Config {
	c := Config{
		Metric:   MetricRMSF,
		Options:  *align.DefaultOptions(),
		Strip:    "water",
		Skip:     1,
		Timestep: 1,
	}
	c.Mode = align.Mean
	return c
}

// Params returns the parameters of the calculation as text, with the input files excluded.
func (C Config) Params() map[string]string {
	return map[string]string{
		"metric":    C.Metric.String(),
		"mode":      C.Mode.String(),
		"reffile":   C.RefFile,
		"target":    C.Target,
		"align":     C.Align,
		"reftarget": C.RefTarget,
		"refalign":  C.RefAlign,
		"refstrip":  C.RefStrip,
		"noalign":   strconv.FormatBool(C.NoAlign),
		"maxiter":   strconv.Itoa(C.MaxIter),
		"tolerance": strconv.FormatFloat(C.Tolerance, 'g', -1, 64),
		"strip":     C.Strip,
		"skip":      strconv.Itoa(C.Skip),
		"timestep":  strconv.FormatFloat(C.Timestep, 'g', -1, 64),
		"pbc":       strconv.FormatBool(C.PBC),
		"residue":   strconv.FormatBool(C.Residue),
	}
}

// String returns the parameters as a single line, sorted by name.
func (C Config) String() string {
	p := C.Params()
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var ret string
	for i, k := range keys {
		if i > 0 {
			ret += " "
		}
		ret += fmt.Sprintf("%s=%q", k, p[k])
	}
	return ret
}

// Engine computes one metric with a given configuration.
type Engine struct {
	Config
}

// NewEngine returns an engine for the configuration c.
func NewEngine(c Config) *Engine {
	return &Engine{Config: c}
}

// Run loads the topology top and the trajectories trajs, and computes the metric on them.
func (E *Engine) Run(top string, trajs []string) (*table.Table, error) {
	lo := &traj.LoadOptions{Skip: E.Skip, Strip: E.Strip, Timestep: E.Timestep}
	if lo.Skip == 0 {
		lo.Skip = 1
	}
	if lo.Timestep == 0 {
		lo.Timestep = 1
	}
	//Selections are checked before the (possibly long) trajectory reading.
	if err := E.Options.Parse(); err != nil {
		return nil, err
	}
	if E.Strip != "" {
		if _, err := sel.Parse(E.Strip); err != nil {
			return nil, fmt.Errorf("rms: strip selection: %w", err)
		}
	}
	T, err := traj.Load(top, trajs, lo)
	if err != nil {
		return nil, err
	}
	return E.Compute(T)
}

// Compute computes the metric on the trajectory T, which is not modified.
func (E *Engine) Compute(T *chem.Trajectory) (*table.Table, error) {
	o := E.Options
	if E.Metric == MetricRMSD && o.Mode == align.Mean {
		return nil, fmt.Errorf("rms: the mean reference is only available for RMSF")
	}
	if E.Metric == MetricRMSF && o.Mode == align.Auto && o.RefFile == "" {
		o.Mode = align.Mean
	}
	//Unwrapping goes through every frame, so the selections are checked first.
	if err := o.Check(T); err != nil {
		return nil, err
	}
	var err error
	if E.PBC {
		if T, err = T.Unwrap(); err != nil {
			return nil, fmt.Errorf("rms: %w", err)
		}
	}
	ref, err := align.Resolve(T, &o)
	if err != nil {
		return nil, err
	}
	A, err := align.Superpose(T, ref)
	if err != nil {
		return nil, err
	}
	if E.Metric == MetricRMSF {
		return E.rmsfTable(A, ref)
	}
	return rmsdTable(A, ref)
}

func rmsdTable(A *chem.Trajectory, ref *align.Reference) (*table.Table, error) {
	vals, err := RMSD(A, ref.Coords, ref.Target.List, nil)
	if err != nil {
		return nil, err
	}
	t := table.New(RMSDColumns...)
	for i, v := range vals {
		if err := t.Append(A.Time(i), v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (E *Engine) rmsfTable(A *chem.Trajectory, ref *align.Reference) (*table.Table, error) {
	t := table.New(RMSFColumns...)
	if E.Residue {
		keys, vals, err := ResidueRMSF(A, ref.Coords, ref.Target.List)
		if err != nil {
			return nil, err
		}
		first := chem.Residues2Atoms(A, keys)
		names := make(map[chem.ResKey]string, len(keys))
		for _, i := range first {
			at := A.Atom(i)
			if _, ok := names[at.Res()]; !ok {
				names[at.Res()] = at.MolName
			}
		}
		for i, k := range keys {
			if err := t.Append(k.ResID, names[k], "", k.Chain, k.SegID, vals[i]); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
	vals, err := RMSF(A, ref.Coords, ref.Target.List)
	if err != nil {
		return nil, err
	}
	for k, i := range ref.Target.List {
		at := A.Atom(i)
		if err := t.Append(at.MolID, at.MolName, at.Name, at.Chain, at.SegID, vals[k]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
