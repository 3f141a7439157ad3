/*
 * files.go, part of mdrms
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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	v3 "github.com/rmera/mdrms/v3"
)

// formatOf guesses the format of a file from its extension, ignoring compression extensions.
func formatOf(name string) string {
	if name == "" {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".gz", ".lzw", ".zst":
		return formatOf(strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return strings.TrimPrefix(ext, ".")
}

// pad returns line padded with spaces to at least 80 characters, so the fixed
// columns of PDB records can be sliced safely.
func pad(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 80 {
		line += strings.Repeat(" ", 80-len(line))
	}
	return line
}

// Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately as an array of 3 float64.
func readFullPDBLine(line string) (*Atom, [3]float64, error) {
	var coords [3]float64
	var err error
	line = pad(line)
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		return nil, coords, fmt.Errorf("bad atom serial %q", line[6:11])
	}
	atom.Name = strings.TrimSpace(line[12:16])
	//PDB says that pos. 21 is for the chain but 4-letter
	//residue names (TIP3, CHARMM-style) often use it.
	atom.MolName = strings.TrimSpace(line[17:21])
	atom.Chain = strings.TrimSpace(line[21:22])
	atom.MolID, err = strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return nil, coords, fmt.Errorf("bad residue number %q", line[22:26])
	}
	if coords, err = readPDBCoords(line); err != nil {
		return nil, coords, err
	}
	atom.SegID = strings.TrimSpace(line[72:76])
	atom.Symbol = strings.TrimSpace(line[76:78])
	if len(atom.Symbol) == 2 {
		atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
	}
	//This part tries to guess the symbol from the atom name, if it has not been read
	if atom.Symbol == "" {
		atom.Symbol = symbolFromName(atom.Name)
	}
	atom.Mass = symbolMass[atom.Symbol]
	return atom, coords, nil
}

func readPDBCoords(line string) ([3]float64, error) {
	var coords [3]float64
	var err error
	for i, r := range [][2]int{{30, 38}, {38, 46}, {46, 54}} {
		coords[i], err = strconv.ParseFloat(strings.TrimSpace(line[r[0]:r[1]]), 64)
		if err != nil {
			return coords, fmt.Errorf("bad coordinate %q", line[r[0]:r[1]])
		}
	}
	return coords, nil
}

// readCryst1 returns the box vectors for a CRYST1 record. Only the
// orthorhombic part is kept.
func readCryst1(line string) []float64 {
	f := strings.Fields(line)
	if len(f) < 4 {
		return nil
	}
	box := make([]float64, 9)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(f[i+1], 64)
		if err != nil {
			return nil
		}
		box[4*i] = v
	}
	return box
}

// PDBFileRead reads the PDB file pdbname and returns it as a Trajectory, with one
// frame per MODEL. The atom data is taken from the first model.
func PDBFileRead(pdbname string) (*Trajectory, error) {
	f, err := os.Open(pdbname)
	if err != nil {
		return nil, newErr(pdbname, "Unable to open file", err, "PDBFileRead")
	}
	defer f.Close()
	T, err := PDBRead(f)
	if err != nil {
		if e, ok := err.(CError); ok {
			e.filename = pdbname
			e.deco = append(e.deco, "PDBFileRead")
			return nil, e
		}
		return nil, newErr(pdbname, "Can't read PDB", err, "PDBFileRead")
	}
	T.Source = []string{pdbname}
	return T, nil
}

// PDBRead reads a PDB from r and returns it as a Trajectory, with one frame per MODEL.
func PDBRead(r io.Reader) (*Trajectory, error) {
	var ats []*Atom
	var coords [][]float64
	var boxes [][]float64
	var curbox []float64
	cur := make([]float64, 0, 300)
	firstModel := true
	sawAtoms := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024), 1024*1024)
	lineno := 0
	closeFrame := func() error {
		if len(cur) == 0 {
			return nil
		}
		if !firstModel && len(cur) != 3*len(ats) {
			return CError{msg: fmt.Sprintf("Model %d has %d atoms, the first one has %d", len(coords)+1, len(cur)/3, len(ats)), deco: []string{"PDBRead"}, critical: true}
		}
		coords = append(coords, cur)
		boxes = append(boxes, curbox)
		cur = make([]float64, 0, 3*len(ats))
		firstModel = false
		return nil
	}
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			sawAtoms = true
			if firstModel {
				at, c, err := readFullPDBLine(line)
				if err != nil {
					return nil, CError{msg: fmt.Sprintf("line %d: %s", lineno, err.Error()), deco: []string{"PDBRead"}, critical: true, err: err}
				}
				ats = append(ats, at)
				cur = append(cur, c[0], c[1], c[2])
				continue
			}
			c, err := readPDBCoords(pad(line))
			if err != nil {
				return nil, CError{msg: fmt.Sprintf("line %d: %s", lineno, err.Error()), deco: []string{"PDBRead"}, critical: true, err: err}
			}
			cur = append(cur, c[0], c[1], c[2])
		case strings.HasPrefix(line, "CRYST1"):
			curbox = readCryst1(line)
		case strings.HasPrefix(line, "ENDMDL"):
			if err := closeFrame(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, CError{msg: err.Error(), deco: []string{"PDBRead"}, critical: true, err: err}
	}
	if err := closeFrame(); err != nil {
		return nil, err
	}
	if !sawAtoms {
		return nil, CError{msg: "No atoms found in PDB", deco: []string{"PDBRead"}, critical: true}
	}
	frames := make([]*v3.Matrix, len(coords))
	for i, c := range coords {
		frames[i], _ = v3.NewMatrix(c)
	}
	hasBox := true
	for _, b := range boxes {
		if b == nil {
			hasBox = false
		}
	}
	if !hasBox {
		boxes = nil
	}
	return NewTrajectory(NewTopology(ats), frames, boxes)
}

// PDBFileWrite writes the frames in coords, with the atoms in top, as a PDB file called
// name. If there is more than one frame, each is written as a MODEL.
func PDBFileWrite(name string, top Atomer, coords []*v3.Matrix) error {
	f, err := os.Create(name)
	if err != nil {
		return newErr(name, "Unable to create file", err, "PDBFileWrite")
	}
	w := bufio.NewWriter(f)
	if err := PDBWrite(w, top, coords); err != nil {
		f.Close()
		return errDecorate(err, "PDBFileWrite")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return newErr(name, "Unable to write file", err, "PDBFileWrite")
	}
	if err := f.Close(); err != nil {
		return newErr(name, "Unable to close file", err, "PDBFileWrite")
	}
	return nil
}

// PDBWrite writes the frames in coords, with the atoms in top, in PDB format to out.
func PDBWrite(out io.Writer, top Atomer, coords []*v3.Matrix) error {
	models := len(coords) > 1
	for m, c := range coords {
		if c.NVecs() != top.Len() {
			return CError{msg: fmt.Sprintf("Frame %d has %d atoms, the topology has %d", m, c.NVecs(), top.Len()), deco: []string{"PDBWrite"}, critical: true}
		}
		if models {
			fmt.Fprintf(out, "MODEL     %4d\n", m+1)
		}
		for i := 0; i < top.Len(); i++ {
			if _, err := io.WriteString(out, pdbAtomLine(top.Atom(i), i, c)); err != nil {
				return CError{msg: err.Error(), deco: []string{"PDBWrite"}, critical: true, err: err}
			}
		}
		if models {
			fmt.Fprintf(out, "ENDMDL\n")
		}
	}
	_, err := fmt.Fprintf(out, "END\n")
	if err != nil {
		return CError{msg: err.Error(), deco: []string{"PDBWrite"}, critical: true, err: err}
	}
	return nil
}

func pdbAtomLine(at *Atom, i int, c *v3.Matrix) string {
	record := "ATOM"
	if at.Het {
		record = "HETATM"
	}
	name := at.Name
	if len(name) < 4 {
		name = " " + name
	}
	sym := strings.ToUpper(at.Symbol)
	return fmt.Sprintf("%-6s%5d %-4s %-4s%1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f      %-4s%2s\n",
		record, (i+1)%100000, name, at.MolName, at.Chain, at.MolID%10000,
		c.At(i, 0), c.At(i, 1), c.At(i, 2), 1.0, 0.0, at.SegID, sym)
}

// PSFFileRead reads the atoms section of a CHARMM/NAMD PSF file.
func PSFFileRead(name string) (*Topology, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, newErr(name, "Unable to open file", err, "PSFFileRead")
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	natoms := -1
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.Contains(line, "!NATOM") {
			natoms, err = strconv.Atoi(strings.Fields(line)[0])
			if err != nil {
				return nil, newErr(name, fmt.Sprintf("line %d: bad atom count", lineno), err, "PSFFileRead")
			}
			break
		}
	}
	if natoms < 0 {
		return nil, newErr(name, "No !NATOM section found", scanner.Err(), "PSFFileRead")
	}
	ats := make([]*Atom, 0, natoms)
	for len(ats) < natoms && scanner.Scan() {
		lineno++
		f := strings.Fields(scanner.Text())
		if len(f) < 8 {
			return nil, newErr(name, fmt.Sprintf("line %d: too few fields in atom record", lineno), nil, "PSFFileRead")
		}
		at := new(Atom)
		var errs [4]error
		at.ID, errs[0] = strconv.Atoi(f[0])
		at.SegID = f[1]
		at.MolID, errs[1] = strconv.Atoi(strings.TrimRight(f[2], "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		at.MolName = f[3]
		at.Name = f[4]
		at.Charge, errs[2] = strconv.ParseFloat(f[6], 64)
		at.Mass, errs[3] = strconv.ParseFloat(f[7], 64)
		for _, e := range errs {
			if e != nil {
				return nil, newErr(name, fmt.Sprintf("line %d: bad atom record", lineno), e, "PSFFileRead")
			}
		}
		at.Symbol = symbolFromName(at.Name)
		if at.Symbol == "" && at.Mass > 0 {
			at.Symbol = symbolFromMass(at.Mass)
		}
		ats = append(ats, at)
	}
	if err := scanner.Err(); err != nil {
		return nil, newErr(name, "Can't read file", err, "PSFFileRead")
	}
	if len(ats) != natoms {
		return nil, newErr(name, fmt.Sprintf("%d atoms declared, %d read", natoms, len(ats)), nil, "PSFFileRead")
	}
	return NewTopology(ats), nil
}

// symbolFromMass returns the element with the closest mass in the table, if
// it is closer than 0.5.
func symbolFromMass(mass float64) string {
	best := ""
	diff := 0.5
	for k, v := range symbolMass {
		d := v - mass
		if d < 0 {
			d = -d
		}
		if d < diff {
			best = k
			diff = d
		}
	}
	return best
}

// PSFFileWrite writes a minimal PSF file with the atoms section of top.
func PSFFileWrite(name string, top Atomer) error {
	f, err := os.Create(name)
	if err != nil {
		return newErr(name, "Unable to create file", err, "PSFFileWrite")
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "PSF EXT\n\n%10d !NTITLE\n* written by mdrms\n\n%10d !NATOM\n", 1, top.Len())
	for i := 0; i < top.Len(); i++ {
		at := top.Atom(i)
		segid := at.SegID
		if segid == "" {
			segid = at.Chain
		}
		if segid == "" {
			segid = "X"
		}
		fmt.Fprintf(w, "%10d %-8s %-8d %-8s %-8s %-6s %14.6f %14.4f %11d\n", i+1, segid, at.MolID, at.MolName, at.Name, at.Symbol, at.Charge, at.Mass, 0)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return newErr(name, "Unable to write file", err, "PSFFileWrite")
	}
	if err := f.Close(); err != nil {
		return newErr(name, "Unable to close file", err, "PSFFileWrite")
	}
	return nil
}

// XYZFileRead reads a (possibly multi-frame) XYZ file and returns it as a Trajectory.
// Residue information is not available in the format, so all atoms are put in residue 1.
func XYZFileRead(xyzname string) (*Trajectory, error) {
	f, err := os.Open(xyzname)
	if err != nil {
		return nil, newErr(xyzname, "Unable to open file", err, "XYZFileRead")
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var ats []*Atom
	var frames []*v3.Matrix
	lineno := 0
	for scanner.Scan() {
		lineno++
		first := strings.TrimSpace(scanner.Text())
		if first == "" {
			continue
		}
		natoms, err := strconv.Atoi(first)
		if err != nil {
			return nil, newErr(xyzname, fmt.Sprintf("line %d: bad atom count", lineno), err, "XYZFileRead")
		}
		if ats != nil && natoms != len(ats) {
			return nil, newErr(xyzname, fmt.Sprintf("frame %d has %d atoms, the first has %d", len(frames), natoms, len(ats)), nil, "XYZFileRead")
		}
		scanner.Scan() //comment line
		lineno++
		c := make([]float64, 0, 3*natoms)
		newats := ats == nil
		for i := 0; i < natoms; i++ {
			if !scanner.Scan() {
				return nil, newErr(xyzname, "Truncated frame", scanner.Err(), "XYZFileRead")
			}
			lineno++
			fields := strings.Fields(scanner.Text())
			if len(fields) < 4 {
				return nil, newErr(xyzname, fmt.Sprintf("line %d: too few fields", lineno), nil, "XYZFileRead")
			}
			for _, v := range fields[1:4] {
				x, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, newErr(xyzname, fmt.Sprintf("line %d: bad coordinate", lineno), err, "XYZFileRead")
				}
				c = append(c, x)
			}
			if newats {
				at := &Atom{Name: fields[0], ID: i + 1, Symbol: fields[0], MolName: "UNK", MolID: 1}
				at.Mass = symbolMass[at.Symbol]
				ats = append(ats, at)
			}
		}
		m, err := v3.NewMatrix(c)
		if err != nil {
			return nil, newErr(xyzname, "Empty frame", err, "XYZFileRead")
		}
		frames = append(frames, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, newErr(xyzname, "Can't read file", err, "XYZFileRead")
	}
	if len(frames) == 0 {
		return nil, newErr(xyzname, "No frames found", nil, "XYZFileRead")
	}
	T, err := NewTrajectory(NewTopology(ats), frames, nil)
	if err != nil {
		return nil, errDecorate(err, "XYZFileRead")
	}
	T.Source = []string{xyzname}
	return T, nil
}
