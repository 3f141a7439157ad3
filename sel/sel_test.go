/*
 * sel_test.go, part of mdrms
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

package sel

import (
	"errors"
	"reflect"
	"testing"

	chem "github.com/rmera/mdrms"
)

func testTop() *chem.Topology {
	ats := []*chem.Atom{
		{Name: "N", MolName: "ALA", MolID: 1, Chain: "A", SegID: "P0", Symbol: "N"},
		{Name: "CA", MolName: "ALA", MolID: 1, Chain: "A", SegID: "P0", Symbol: "C"},
		{Name: "HA", MolName: "ALA", MolID: 1, Chain: "A", SegID: "P0", Symbol: "H"},
		{Name: "CA", MolName: "GLY", MolID: 2, Chain: "A", SegID: "P0", Symbol: "C"},
		{Name: "CA", MolName: "ALA", MolID: 1, Chain: "B", SegID: "P1", Symbol: "C"},
		{Name: "C1", MolName: "DGJ", MolID: 500, SegID: "L1", Symbol: "C", Het: true},
		{Name: "OH2", MolName: "TIP3", MolID: 600, SegID: "WT1", Symbol: "O"},
		{Name: "H1", MolName: "TIP3", MolID: 600, SegID: "WT1"},
	}
	return chem.NewTopology(ats)
}

func TestSelections(Te *testing.T) {
	top := testTop()
	cases := []struct {
		text string
		want []int
	}{
		{"all", []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{"none", []int{}},
		{"protein", []int{0, 1, 2, 3, 4}},
		{"water", []int{6, 7}},
		{"not resname TIP3", []int{0, 1, 2, 3, 4, 5}},
		{"protein and name CA", []int{1, 3, 4}},
		{"backbone", []int{0, 1, 3, 4}},
		{"noh and protein", []int{0, 1, 3, 4}},
		{"hydrogen", []int{2, 7}},
		{"segid P0 P1 and name CA", []int{1, 3, 4}},
		{"resid 1 and chain B", []int{4}},
		{"resid 2 to 600 and not water", []int{3, 5}},
		{"resid 1:2 and chain A and name CA", []int{1, 3}},
		{"name C* and not protein", []int{5}},
		{"(chain B or resname DGJ) and noh", []int{4, 5}},
		{"not (protein or water)", []int{5}},
		{"index 0 7", []int{0, 7}},
		{"element c", []int{1, 3, 4, 5}},
		{"hetero", []int{5}},
		{"RESNAME ALA AND NAME N", []int{0}},
	}
	for _, c := range cases {
		s, err := Parse(c.text)
		if err != nil {
			Te.Errorf("%q: %v", c.text, err)
			continue
		}
		got, err := s.Indexes(top)
		if err != nil {
			Te.Errorf("%q: %v", c.text, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			Te.Errorf("%q: got %v, want %v", c.text, got, c.want)
		}
		//Matches must agree with Indexes, atom by atom.
		n := 0
		for i := 0; i < top.Len(); i++ {
			if s.Matches(top.Atom(i), i) {
				if n >= len(c.want) || c.want[n] != i {
					Te.Errorf("%q: atom %d matched, but not in %v", c.text, i, c.want)
				}
				n++
			}
		}
		if n != len(c.want) {
			Te.Errorf("%q: %d atoms matched, want %d", c.text, n, len(c.want))
		}
	}
}

func TestSyntaxErrors(Te *testing.T) {
	for _, text := range []string{"", "resname", "protein and", "(protein", "protein)", "resid A", "resid 1 to", "frobnicate 3", "name [", "not"} {
		_, err := Parse(text)
		if err == nil {
			Te.Errorf("%q should not parse", text)
			continue
		}
		if !errors.Is(err, ErrSyntax) {
			Te.Errorf("%q: error %v is not a syntax error", text, err)
		}
	}
}

func TestSameTextDifferentTopologies(Te *testing.T) {
	s := MustParse("name CA")
	top := testTop()
	a, _ := s.Indexes(top)
	sub, err := top.SomeAtoms([]int{3, 4})
	if err != nil {
		Te.Fatal(err)
	}
	b, _ := s.Indexes(sub)
	if len(a) != 3 || len(b) != 2 || b[0] != 0 {
		Te.Errorf("Wrong resolution: %v %v", a, b)
	}
	if s.String() != "name CA" {
		Te.Errorf("Wrong text %q", s.String())
	}
}
