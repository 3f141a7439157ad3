/*
 * handy.go, part of mdrms
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

// Residues2Atoms gets a selection list from a list of residue keys.
// It select all the atoms that form part of the residues in the list,
// in topology order. It doesnt return errors, if a residue is not present,
// no atom will be returned for it.
func Residues2Atoms(mol Atomer, residues []ResKey) []int {
	want := make(map[ResKey]bool, len(residues))
	for _, r := range residues {
		want[r] = true
	}
	atlist := make([]int, 0, len(residues)*8)
	for key := 0; key < mol.Len(); key++ {
		if want[mol.Atom(key).Res()] {
			atlist = append(atlist, key)
		}
	}
	return atlist
}

// GroupByResidue returns, for each residue present among the atoms in list, the positions
// (not the atom indexes) in list of its atoms. The residues are returned in order of first
// appearance, as in ResKeys.
func GroupByResidue(mol Atomer, list []int) ([]ResKey, [][]int) {
	keys := make([]ResKey, 0, len(list)/8+1)
	pos := make(map[ResKey]int)
	var groups [][]int
	for i, v := range list {
		k := mol.Atom(v).Res()
		p, ok := pos[k]
		if !ok {
			p = len(keys)
			pos[k] = p
			keys = append(keys, k)
			groups = append(groups, nil)
		}
		groups[p] = append(groups[p], i)
	}
	return keys, groups
}
