/*
 * atomicdata.go, part of mdrms
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

import "strings"

// A map for assigning mass to elements.
// Note that just common "bio-elements" are present
var symbolMass = map[string]float64{
	"H":  1.008,
	"C":  12.01,
	"O":  16.00,
	"N":  14.01,
	"P":  30.97,
	"S":  32.06,
	"Se": 78.96,
	"K":  39.1,
	"Ca": 40.08,
	"Mg": 24.30,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.55,
	"Zn": 65.38,
	"Co": 58.93,
	"Fe": 55.84,
	"Mn": 54.94,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
}

// A map between 3-letters name for aminoacidic residues to the corresponding 1-letter names.
// Force-field specific names (CHARMM and AMBER protonation states) are included.
var three2OneLetter = map[string]byte{
	"SER": 'S',
	"THR": 'T',
	"ASN": 'N',
	"GLN": 'Q',
	"SEC": 'U', //Selenocysteine!
	"CYS": 'C',
	"CYX": 'C',
	"GLY": 'G',
	"PRO": 'P',
	"ALA": 'A',
	"VAL": 'V',
	"ILE": 'I',
	"LEU": 'L',
	"MET": 'M',
	"PHE": 'F',
	"TYR": 'Y',
	"TRP": 'W',
	"ARG": 'R',
	"HIS": 'H',
	"HSD": 'H',
	"HSE": 'H',
	"HSP": 'H',
	"HID": 'H',
	"HIE": 'H',
	"HIP": 'H',
	"LYS": 'K',
	"ASP": 'D',
	"ASH": 'D',
	"GLU": 'E',
	"GLH": 'E',
}

var waterNames = map[string]bool{
	"HOH":  true,
	"WAT":  true,
	"TIP3": true,
	"TIP4": true,
	"TIP5": true,
	"T3P":  true,
	"T4P":  true,
	"SPC":  true,
	"SOL":  true,
	"H2O":  true,
}

var backboneNames = map[string]bool{
	"N":  true,
	"CA": true,
	"C":  true,
	"O":  true,
}

// IsProteinRes returns true if resname is the name of an amino acid residue.
func IsProteinRes(resname string) bool {
	_, ok := three2OneLetter[strings.ToUpper(resname)]
	return ok
}

// IsWaterRes returns true if resname is a common name for a water residue.
func IsWaterRes(resname string) bool {
	return waterNames[strings.ToUpper(resname)]
}

// IsBackbone returns true if at is a protein backbone atom.
func IsBackbone(at *Atom) bool {
	return IsProteinRes(at.MolName) && backboneNames[at.Name]
}

// IsHydrogen returns true if at is a hydrogen atom.
func IsHydrogen(at *Atom) bool {
	if at.Symbol != "" {
		return at.Symbol == "H"
	}
	return symbolFromName(at.Name) == "H"
}

// This tries to guess a chemical element symbol from a PDB atom name. Mostly based on AMBER
// and CHARMM names. It only deals with some common bio-elements, and returns an empty string
// if it can't guess.
func symbolFromName(name string) string {
	name = strings.ToUpper(strings.TrimLeft(name, "0123456789"))
	if name == "" {
		return ""
	}
	two := map[string]string{"CU": "Cu", "CO": "Co", "CL": "Cl", "NA": "Na", "SE": "Se", "ZN": "Zn", "MG": "Mg", "FE": "Fe", "MN": "Mn", "BR": "Br", "CAL": "Ca", "SOD": "Na", "POT": "K", "CLA": "Cl"}
	if s, ok := two[name]; ok {
		return s
	}
	if name[0] == 'H' {
		return "H"
	}
	switch name[0] {
	case 'C', 'N', 'O', 'P', 'S', 'F', 'I', 'K':
		return string(name[0])
	}
	return ""
}
