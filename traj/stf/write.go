/*
 * write.go, part of mdrms
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
	"compress/flate"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"

	v3 "github.com/rmera/mdrms/v3"
)

// StfW is an STF trajectory open for writing.
type StfW struct {
	f         *os.File
	z         io.WriteCloser
	b         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	scale     float64
}

// NewWriter creates the file name, for frames of natoms atoms, and writes the header. The
// "prec" key of header sets the precision. compressionLevel is used by the gzip and
// deflate variants.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	level := flate.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	h := make(map[string]string, len(header)+1)
	for k, v := range header {
		h[k] = v
	}
	prec, ok := parsePrec(h)
	if !ok {
		log.Printf("stf: invalid precision %q for %s, using %d", h["prec"], name, prec)
	}
	h["prec"] = strconv.Itoa(prec)
	f, err := os.Create(name)
	if err != nil {
		return nil, wrapErr(err, name, "NewWriter")
	}
	z, err := codecFor(name).writer(f, level)
	if err != nil {
		f.Close()
		return nil, wrapErr(err, name, "NewWriter")
	}
	S := &StfW{f: f, z: z, b: bufio.NewWriter(z), natoms: natoms, filename: name, writeable: true, scale: pow10(prec)}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(S.b, "%s=%s\n", k, h[k])
	}
	if _, err := fmt.Fprintf(S.b, "** %d\n", natoms); err != nil {
		S.Close()
		return nil, wrapErr(err, name, "NewWriter")
	}
	return S, nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes coord as the next frame. If box is given, box[0] must contain
// the 9 components of the box vectors.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return newErr(TrajUnIniWrite, S.filename, "WNext")
	}
	if coord == nil {
		return newErr(NilCoordinates, S.filename, "WNext")
	}
	if n := coord.NVecs(); n != S.natoms {
		return newErr(fmt.Sprintf("%d coordinates given, %d expected", n, S.natoms), S.filename, "WNext")
	}
	for i := 0; i < S.natoms; i++ {
		if _, err := S.b.WriteString(encodeLine(coord.At(i, 0), coord.At(i, 1), coord.At(i, 2), S.scale)); err != nil {
			return wrapErr(err, S.filename, "WNext")
		}
	}
	end := "*\n"
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		end = fmt.Sprintf("* %.4f %.4f %.4f %.4f %.4f %.4f %.4f %.4f %.4f\n", b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	}
	if _, err := S.b.WriteString(end); err != nil {
		return wrapErr(err, S.filename, "WNext")
	}
	return nil
}

// Close flushes the pending data and closes the file.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.b.Flush()
	for _, c := range []io.Closer{S.z, S.f} {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return wrapErr(err, S.filename, "Close")
	}
	return nil
}

func pow10(prec int) float64 {
	r := 1.0
	for i := 0; i < prec; i++ {
		r *= 10
	}
	return r
}
