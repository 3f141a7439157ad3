/*
 * rmsplot.go, part of mdrms
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

// Package rmsplot draws RMSD and RMSF tables.
package rmsplot

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rmera/mdrms/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Options for the plots.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

func (o *Options) withDefaults(x, y string) Options {
	r := Options{XLabel: x, YLabel: y, Width: 10 * vg.Inch, Height: 5 * vg.Inch}
	if o == nil {
		return r
	}
	r.Title = o.Title
	if o.XLabel != "" {
		r.XLabel = o.XLabel
	}
	if o.YLabel != "" {
		r.YLabel = o.YLabel
	}
	if o.Width > 0 {
		r.Width = o.Width
	}
	if o.Height > 0 {
		r.Height = o.Height
	}
	return r
}

func basicPlot(o Options) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = o.Title
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	p.Add(plotter.NewGrid())
	return p
}

// points returns the points (x[i], y[i]) for i in rows, leaving out missing values.
func points(x, y []float64, rows []int) plotter.XYs {
	ret := make(plotter.XYs, 0, len(rows))
	for _, i := range rows {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		ret = append(ret, plotter.XY{X: x[i], Y: y[i]})
	}
	return ret
}

// RMSD plots the rmsd column of t against its time column, and saves the plot in filename.
// The format is given by the extension of filename (normally .png).
func RMSD(t *table.Table, filename string, o *Options) error {
	opt := o.withDefaults("Time", "RMSD")
	x, err := t.Floats("time")
	if err != nil {
		return err
	}
	y, err := t.Floats("rmsd")
	if err != nil {
		return err
	}
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	p := basicPlot(opt)
	l, err := plotter.NewLine(points(x, y, rows))
	if err != nil {
		return fmt.Errorf("rmsplot: %w", err)
	}
	l.Color = plotutil.Color(0)
	p.Add(l)
	return p.Save(opt.Width, opt.Height, filename)
}

// RMSF plots the rmsf column of t against residue ids, and saves the plot in filename.
// Each chain/segment is drawn as a separate line, as residue ids repeat among them.
func RMSF(t *table.Table, filename string, o *Options) error {
	opt := o.withDefaults("Residue", "RMSF")
	x, err := t.Floats("resid")
	if err != nil {
		return err
	}
	y, err := t.Floats("rmsf")
	if err != nil {
		return err
	}
	chains, err := t.Strings("chain")
	if err != nil {
		return err
	}
	segs, err := t.Strings("segid")
	if err != nil {
		return err
	}
	var order []string
	groups := make(map[string][]int)
	for i := range chains {
		k := chains[i]
		if segs[i] != "" {
			k += ":" + segs[i]
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	p := basicPlot(opt)
	for n, k := range order {
		l, err := plotter.NewLine(points(x, y, groups[k]))
		if err != nil {
			return fmt.Errorf("rmsplot: %w", err)
		}
		l.Color = plotutil.Color(n)
		p.Add(l)
		if len(order) > 1 {
			name := k
			if name == "" {
				name = strconv.Itoa(n + 1)
			}
			p.Legend.Add(name, l)
		}
	}
	return p.Save(opt.Width, opt.Height, filename)
}
