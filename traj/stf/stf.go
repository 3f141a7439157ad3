/*
 * stf.go, part of mdrms
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

package stf

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/mdrms/v3"
)

// StfR is an STF trajectory open for reading.
type StfR struct {
	f        *os.File
	z        io.ReadCloser
	r        *bufio.Reader
	natoms   int
	filename string
	scale    float64
	readable bool
}

// New opens the STF trajectory name and reads its header, which is returned as a map.
func New(name string) (*StfR, map[string]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, wrapErr(err, name, "New")
	}
	z, err := codecFor(name).reader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, nil, wrapErr(err, name, "New")
	}
	S := &StfR{f: f, z: z, r: bufio.NewReader(z), filename: name, readable: true}
	header, err := S.readHeader()
	if err != nil {
		S.Close()
		return nil, nil, err
	}
	prec, ok := parsePrec(header)
	if !ok {
		log.Printf("stf: invalid precision %q in %s, assuming %d", header["prec"], name, prec)
	}
	S.scale = pow10(prec)
	return S, header, nil
}

// readHeader reads the key=value lines up to the "** natoms" line.
func (S *StfR) readHeader() (map[string]string, error) {
	h := make(map[string]string)
	for {
		line, err := S.r.ReadString('\n')
		if err != nil {
			return nil, newErr(fmt.Sprintf("%s: header: %v", WrongFormat, err), S.filename, "New")
		}
		line = strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(line, "**") {
			f := strings.Fields(line)
			if len(f) < 2 {
				return nil, newErr(fmt.Sprintf("%s: no atom number in %q", WrongFormat, line), S.filename, "New")
			}
			if S.natoms, err = strconv.Atoi(f[1]); err != nil {
				return nil, newErr(fmt.Sprintf("%s: atom number %q", WrongFormat, f[1]), S.filename, "New")
			}
			return h, nil
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, newErr(fmt.Sprintf("%s: header line %q", WrongFormat, line), S.filename, "New")
		}
		h[k] = v
	}
}

// Readable returns true if frames can still be read.
func (S *StfR) Readable() bool {
	return S.readable
}

// Len returns the number of atoms per frame.
func (S *StfR) Len() int {
	return S.natoms
}

// Next reads the next frame into c. A nil c skips the frame, though it is still
// checked. If box is given and the frame has a unit cell, its 9 components are put in box[0].
// A chem.LastFrameError is returned after the last frame.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return newErr(TrajUnIniRead, S.filename, "Next")
	}
	var xyz [3]float64
	for i := 0; i < S.natoms; i++ {
		line, err := S.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && i == 0 && line == "" {
				S.Close()
				return &lastFrameError{filename: S.filename, deco: []string{"Next"}}
			}
			return wrapErr(fmt.Errorf("truncated frame: %w", err), S.filename, "Next")
		}
		if strings.HasPrefix(line, "*") {
			return newErr(fmt.Sprintf("%s: frame with %d atoms, %d expected", WrongFormat, i, S.natoms), S.filename, "Next")
		}
		if err := decodeLine(strings.TrimSuffix(line, "\n"), &xyz, S.scale); err != nil {
			return wrapErr(err, S.filename, "Next")
		}
		if c != nil {
			c.Set(i, 0, xyz[0])
			c.Set(i, 1, xyz[1])
			c.Set(i, 2, xyz[2])
		}
	}
	end, err := S.r.ReadString('\n')
	if err != nil && (err != io.EOF || end == "") {
		return newErr(fmt.Sprintf("%s: missing end of frame mark", WrongFormat), S.filename, "Next")
	}
	if end[0] != '*' {
		return newErr(fmt.Sprintf("%s: more than %d atoms in frame", WrongFormat, S.natoms), S.filename, "Next")
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		readBox(end, box[0], S.filename)
	}
	return nil
}

// readBox parses the box vectors in an end-of-frame line. An unreadable box is logged,
// and left as zeros.
func readBox(line string, box []float64, filename string) {
	f := strings.Fields(line)
	if len(f) < 10 {
		return
	}
	for j, v := range f[1:10] {
		var err error
		if box[j], err = strconv.ParseFloat(v, 64); err != nil {
			log.Printf("stf: unreadable box in a frame of %s", filename)
			for i := range box {
				box[i] = 0
			}
			return
		}
	}
}

// Close closes the file. The trajectory can't be read afterwards.
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.z.Close()
	S.f.Close()
	S.readable = false
}
