/*
 * plan.go, part of mdrms
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

// Package batch runs sets of RMSD and RMSF calculations described in YAML plans, through
// a result cache, so that reruns only compute what is missing.
//
// Units in a plan can be templates: each unit is expanded over the cartesian product of
// the values in the plan's (or the unit's own) matrix, and its fields are rendered with
// text/template, with the matrix variables as data. For instance,
//
//	matrix:
//	  s: [DGJ, DGJ_N215S]
//	  r: ["1", "2", "3"]
//	units:
//	  - name: "{{.s}}{{.r}}_CA_P0"
//	    metric: rmsf
//	    topology: "{{.s}}_{{.r}}/{{.s}}_{{.r}}_noh.psf"
//	    trajectories: ["{{.s}}_{{.r}}/{{.s}}_{{.r}}_noh_s10.dcd"]
//	    target: segid P0 and name CA
//
// gives six units.
package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/rmera/mdrms/align"
	"github.com/rmera/mdrms/cache"
	"github.com/rmera/mdrms/rms"
	"gopkg.in/yaml.v3"
)

// Plan is a set of units, with the cache where their results are kept.
type Plan struct {
	Cache  CacheConfig         `yaml:"cache"`
	Plot   bool                `yaml:"plot"`
	Matrix map[string][]string `yaml:"matrix"`
	Units  []Unit              `yaml:"units"`
	//Directory relative paths in the plan are relative to. The plan file's directory for loaded plans.
	Base string `yaml:"-"`
}

// CacheConfig selects and configures the result store.
type CacheConfig struct {
	Store    string `yaml:"store"` // dir | sqlite | s3
	Path     string `yaml:"path"`  // directory, or database file
	Compress bool   `yaml:"compress"`
	Key      string `yaml:"key"` // name | hash
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	//Path-style addressing, for S3-compatible services.
	PathStyle bool `yaml:"path_style"`
}

// Unit is one calculation.
type Unit struct {
	Name         string   `yaml:"name"`
	Metric       string   `yaml:"metric"` // rmsd | rmsf
	Topology     string   `yaml:"topology"`
	Trajectories []string `yaml:"trajectories"`
	Target       string   `yaml:"target"`
	Align        string   `yaml:"align"`
	NoAlign      bool     `yaml:"no_align"`
	Mode         string   `yaml:"mode"` // auto | first | external | mean
	Reference    string   `yaml:"reference"`
	RefTarget    string   `yaml:"ref_target"`
	RefAlign     string   `yaml:"ref_align"`
	RefStrip     string   `yaml:"ref_strip"`
	//nil means the default of the metric.
	Strip    *string `yaml:"strip"`
	Skip     int     `yaml:"skip"`
	Timestep float64 `yaml:"timestep"`
	PBC      bool    `yaml:"pbc"`
	Residue  bool    `yaml:"residue"`
	MaxIter  int     `yaml:"max_iter"`
	Title    string  `yaml:"title"`
	//Overrides the plan's matrix for this unit.
	Matrix map[string][]string `yaml:"matrix"`
}

// LoadPlan reads the plan in the YAML file name.
func LoadPlan(name string) (*Plan, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	P, err := ParsePlan(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	P.Base = filepath.Dir(name)
	return P, nil
}

// ParsePlan parses a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	var P Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&P); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	P.applyDefaults()
	return &P, nil
}

func (P *Plan) applyDefaults() {
	if P.Cache.Store == "" {
		P.Cache.Store = "dir"
	}
	if P.Cache.Path == "" {
		P.Cache.Path = "results"
	}
	if P.Cache.Key == "" {
		P.Cache.Key = "name"
	}
}

// path resolves p relative to the plan's base directory.
func (P *Plan) path(p string) string {
	if p == "" || filepath.IsAbs(p) || P.Base == "" {
		return p
	}
	return filepath.Join(P.Base, p)
}

// combinations returns every assignment of one value to each variable in m.
func combinations(m map[string][]string) []map[string]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := []map[string]string{{}}
	for _, k := range keys {
		var next []map[string]string
		for _, c := range ret {
			for _, v := range m[k] {
				n := make(map[string]string, len(c)+1)
				for ck, cv := range c {
					n[ck] = cv
				}
				n[k] = v
				next = append(next, n)
			}
		}
		ret = next
	}
	return ret
}

func render(text string, data map[string]string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := template.New("").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// render returns u with all its text fields rendered with data.
func (u Unit) render(data map[string]string) (Unit, error) {
	r := u
	r.Matrix = nil
	fields := []*string{&r.Name, &r.Metric, &r.Topology, &r.Target, &r.Align, &r.Mode,
		&r.Reference, &r.RefTarget, &r.RefAlign, &r.RefStrip, &r.Title}
	if u.Strip != nil {
		s := *u.Strip
		r.Strip = &s
		fields = append(fields, r.Strip)
	}
	var err error
	for _, f := range fields {
		if *f, err = render(*f, data); err != nil {
			return Unit{}, fmt.Errorf("batch: unit %q: %w", u.Name, err)
		}
	}
	r.Trajectories = make([]string, len(u.Trajectories))
	for i, t := range u.Trajectories {
		if r.Trajectories[i], err = render(t, data); err != nil {
			return Unit{}, fmt.Errorf("batch: unit %q: %w", u.Name, err)
		}
	}
	return r, nil
}

// Expand returns the units of the plan, with the matrices expanded and the paths resolved.
// Units that render to the same table name as a previous one are left out.
func (P *Plan) Expand() ([]Unit, error) {
	var ret []Unit
	seen := make(map[string]bool)
	for _, u := range P.Units {
		m := u.Matrix
		if m == nil {
			m = P.Matrix
		}
		for _, c := range combinations(m) {
			r, err := u.render(c)
			if err != nil {
				return nil, err
			}
			if r.Name == "" {
				return nil, fmt.Errorf("batch: unit without name (topology %q)", r.Topology)
			}
			if seen[r.TableName()] {
				continue
			}
			seen[r.TableName()] = true
			r.Topology = P.path(r.Topology)
			r.Reference = P.path(r.Reference)
			for i, t := range r.Trajectories {
				r.Trajectories[i] = P.path(t)
			}
			ret = append(ret, r)
		}
	}
	return ret, nil
}

// Config returns the configuration of the calculation for the unit.
func (u Unit) Config() (rms.Config, error) {
	m, err := rms.ParseMetric(u.Metric)
	if err != nil {
		return rms.Config{}, fmt.Errorf("batch: unit %s: %w", u.Name, err)
	}
	c := rms.DefaultRMSDConfig()
	if m == rms.MetricRMSF {
		c = rms.DefaultRMSFConfig()
	}
	if u.Mode != "" {
		if c.Mode, err = align.ParseMode(u.Mode); err != nil {
			return rms.Config{}, fmt.Errorf("batch: unit %s: %w", u.Name, err)
		}
	}
	if u.Target != "" {
		c.Target = u.Target
	}
	c.Align = u.Align
	c.NoAlign = u.NoAlign
	c.RefFile = u.Reference
	c.RefTarget = u.RefTarget
	c.RefAlign = u.RefAlign
	c.RefStrip = u.RefStrip
	if u.Strip != nil {
		c.Strip = *u.Strip
	}
	if u.Skip > 0 {
		c.Skip = u.Skip
	}
	if u.Timestep > 0 {
		c.Timestep = u.Timestep
	}
	if u.MaxIter > 0 {
		c.MaxIter = u.MaxIter
	}
	c.PBC = u.PBC
	c.Residue = u.Residue
	return c, nil
}

// TableName returns the name under which the unit's table is cached.
func (u Unit) TableName() string {
	m := strings.ToLower(u.Metric)
	if m == "" {
		m = "rmsd"
	}
	return u.Name + "_" + m
}

// Open returns the cache described by C. Relative paths are taken from base.
// The returned function releases the store.
func (C CacheConfig) Open(ctx context.Context, base string) (*cache.Cache, func() error, error) {
	var keys cache.KeyStrategy
	switch C.Key {
	case "", "name":
		keys = cache.NameKey{}
	case "hash":
		keys = cache.HashKey{}
	default:
		return nil, nil, fmt.Errorf("batch: unknown cache key %q", C.Key)
	}
	p := C.Path
	if p != "" && !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	nop := func() error { return nil }
	switch C.Store {
	case "", "dir":
		s, err := cache.NewDirStore(p, C.Compress)
		if err != nil {
			return nil, nil, err
		}
		return cache.New(s, keys), nop, nil
	case "sqlite":
		s, err := cache.OpenSQLite(p)
		if err != nil {
			return nil, nil, err
		}
		return cache.New(s, keys), s.Close, nil
	case "s3":
		s, err := cache.NewS3Store(ctx, cache.S3Config{Bucket: C.Bucket, Prefix: C.Prefix, Region: C.Region, Endpoint: C.Endpoint, PathStyle: C.PathStyle})
		if err != nil {
			return nil, nil, err
		}
		return cache.New(s, keys), nop, nil
	}
	return nil, nil, fmt.Errorf("batch: unknown cache store %q", C.Store)
}
