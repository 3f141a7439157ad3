/*
 * chem.go, part of mdrms
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
	"strings"
)

// Atom contains the information of a single atom.
type Atom struct {
	Name    string
	ID      int //serial number read from the file, not necessarily the index in the topology.
	MolName string
	MolID   int //residue number. It is not unique across chains or segments.
	Chain   string
	SegID   string
	Symbol  string
	Mass    float64
	Charge  float64
	Het     bool // is hetatm in the pdb file?
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic(ErrNilData)
	}
	ret := *A
	return &ret
}

// Res returns the compound key that identifies the residue the atom belongs to.
func (A *Atom) Res() ResKey {
	return ResKey{ResID: A.MolID, Chain: A.Chain, SegID: A.SegID}
}

// ResKey identifies a residue. Residue numbers repeat across the chains
// of an oligomer, so the chain and segment are part of the key.
type ResKey struct {
	ResID int
	Chain string
	SegID string
}

func (R ResKey) String() string {
	parts := []string{fmt.Sprintf("%d", R.ResID)}
	if R.Chain != "" {
		parts = append(parts, R.Chain)
	}
	if R.SegID != "" {
		parts = append(parts, R.SegID)
	}
	return strings.Join(parts, ":")
}

// Topology contains information about a molecular system but not its coordinates.
type Topology struct {
	Atoms []*Atom
}

// NewTopology returns a topology with the given atoms. The slice is not copied.
func NewTopology(ats []*Atom) *Topology {
	return &Topology{Atoms: ats}
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() {
		panic(fmt.Sprintf("mdrms: Topology.Atom: index %d out of range for %d atoms", i, T.Len()))
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Atoms)
}

// SomeAtoms returns a new topology with copies of the atoms
// whose indexes are in atomlist, in that order.
func (T *Topology) SomeAtoms(atomlist []int) (*Topology, error) {
	ats := make([]*Atom, len(atomlist))
	for k, v := range atomlist {
		if v < 0 || v >= T.Len() {
			return nil, CError{msg: fmt.Sprintf("Atom index %d out of range for %d atoms", v, T.Len()), deco: []string{"SomeAtoms"}, critical: true}
		}
		ats[k] = T.Atoms[v].Copy()
	}
	return NewTopology(ats), nil
}

// Masses returns a slice of float64 with the masses of the atoms in the topology, or nil and an error if they have not been calculated
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i, v := range T.Atoms {
		if v.Mass == 0 {
			return nil, CError{msg: fmt.Sprintf("Not all the masses have been obtained: atom %d (%s) has zero mass", i, v.Name), deco: []string{"Masses"}, critical: true}
		}
		mass[i] = v.Mass
	}
	return mass, nil
}

// AssignMasses fills the masses of the atoms that lack one, using their element symbols.
// Atoms without a symbol get one guessed from their names. Atoms whose element is
// unknown are left untouched.
func (T *Topology) AssignMasses() {
	for _, v := range T.Atoms {
		if v.Symbol == "" {
			v.Symbol = symbolFromName(v.Name)
		}
		if v.Mass == 0 {
			v.Mass = symbolMass[v.Symbol]
		}
	}
}

// ResKeys returns the residue keys in the order in which they first appear in the
// atoms with indexes in list. If list is nil, all the atoms are considered.
func ResKeys(T Atomer, list []int) []ResKey {
	if list == nil {
		list = make([]int, T.Len())
		for i := range list {
			list[i] = i
		}
	}
	seen := make(map[ResKey]bool)
	ret := make([]ResKey, 0, len(list)/8+1)
	for _, v := range list {
		k := T.Atom(v).Res()
		if seen[k] {
			continue
		}
		seen[k] = true
		ret = append(ret, k)
	}
	return ret
}
