//go:build cgo && xdrfile

/*
 * xtc.go, part of mdrms
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

package xtc

// #cgo LDFLAGS: -lxdrfile -lm
// #include <stdlib.h>
// #include <xdrfile.h>
// #include <xdrfile_xtc.h>
import "C"

import (
	"os"
	"runtime"
	"unsafe"

	v3 "github.com/rmera/mdrms/v3"
)

// exdrENDOFFILE
const endOfFile = 11

// XTCObj is a GROMACS XTC file opened for reading.
type XTCObj struct {
	readable bool
	natoms   int
	filename string
	fp       *C.XDRFILE
	coords   []C.float //natoms*3 floats, in nm
}

// New opens the XTC file filename for reading.
func New(filename string) (*XTCObj, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, &Error{msg: UnableToOpen, filename: filename, deco: []string{"New"}, critical: true, wrapped: err}
	}
	cname := C.CString(filename)
	defer C.free(unsafe.Pointer(cname))
	var natoms C.int
	if ret := C.read_xtc_natoms(cname, &natoms); ret != 0 || natoms <= 0 {
		return nil, newErr(UnableToOpen, filename, "New")
	}
	mode := C.CString("r")
	defer C.free(unsafe.Pointer(mode))
	X := &XTCObj{natoms: int(natoms), filename: filename}
	if X.fp = C.xdrfile_open(cname, mode); X.fp == nil {
		return nil, newErr(UnableToOpen, filename, "New")
	}
	X.coords = make([]C.float, 3*X.natoms)
	X.readable = true
	runtime.SetFinalizer(X, (*XTCObj).Close)
	return X, nil
}

// Readable returns true if the object is ready to be read from.
// It doesn't guarantee that there is something left to read.
func (X *XTCObj) Readable() bool {
	return X.readable
}

// Len returns the number of atoms per frame.
func (X *XTCObj) Len() int {
	return X.natoms
}

// Next reads the next frame. If output is not nil, the coordinates, in A, are put there,
// otherwise the frame is discarded. If box is given, the 9 components of the box vectors
// are put in box[0], unless the frame has no box.
func (X *XTCObj) Next(output *v3.Matrix, box ...[]float64) error {
	if !X.readable {
		return newErr(TrajUnIni, X.filename, "Next")
	}
	var step C.int
	var time, prec C.float
	var cbox C.matrix
	ret := C.read_xtc(X.fp, C.int(X.natoms), &step, &time, &cbox[0], (*C.rvec)(unsafe.Pointer(&X.coords[0])), &prec)
	if ret == endOfFile {
		X.readable = false
		return newlastFrameError(X.filename, "Next")
	}
	if ret != 0 {
		X.readable = false
		return newErr(ReadError, X.filename, "Next")
	}
	if len(box) > 0 && len(box[0]) >= 9 && cbox != (C.matrix{}) {
		for i := 0; i < 9; i++ {
			box[0][i] = nm2A * float64(cbox[i/3][i%3])
		}
	}
	if output == nil {
		return nil
	}
	if r, _ := output.Dims(); r < X.natoms {
		panic(NotEnoughSpace)
	}
	for j := 0; j < X.natoms; j++ {
		for k := 0; k < 3; k++ {
			output.Set(j, k, nm2A*float64(X.coords[3*j+k]))
		}
	}
	return nil
}

// Close closes the file. The object can't be read after this.
func (X *XTCObj) Close() {
	if X.fp != nil {
		C.xdrfile_close(X.fp)
		X.fp = nil
	}
	X.readable = false
	runtime.SetFinalizer(X, nil)
}

// XTCWObj is a GROMACS XTC file opened for writing.
type XTCWObj struct {
	natoms   int
	filename string
	fp       *C.XDRFILE
	coords   []C.float
	step     int
}

// NewWriter creates the XTC file filename for frames of natoms atoms.
func NewWriter(filename string, natoms int) (*XTCWObj, error) {
	if natoms <= 0 {
		return nil, newErr(WrongAtoms, filename, "NewWriter")
	}
	cname := C.CString(filename)
	defer C.free(unsafe.Pointer(cname))
	mode := C.CString("w")
	defer C.free(unsafe.Pointer(mode))
	X := &XTCWObj{natoms: natoms, filename: filename}
	if X.fp = C.xdrfile_open(cname, mode); X.fp == nil {
		return nil, newErr(UnableToOpen, filename, "NewWriter")
	}
	X.coords = make([]C.float, 3*natoms)
	return X, nil
}

// Len returns the number of atoms per frame.
func (X *XTCWObj) Len() int {
	return X.natoms
}

// WNext writes the coordinates, in A, as the next frame. The frame number is used as its time.
// If box is given, its first 9 elements are written as the box vectors.
func (X *XTCWObj) WNext(coords *v3.Matrix, box ...[]float64) error {
	if X.fp == nil {
		return newErr(TrajUnIni, X.filename, "WNext")
	}
	if coords == nil {
		return newErr(NilCoordinates, X.filename, "WNext")
	}
	if r, _ := coords.Dims(); r != X.natoms {
		return newErr(WrongAtoms, X.filename, "WNext")
	}
	for j := 0; j < X.natoms; j++ {
		for k := 0; k < 3; k++ {
			X.coords[3*j+k] = C.float(coords.At(j, k) / nm2A)
		}
	}
	var cbox C.matrix
	if len(box) > 0 && len(box[0]) >= 9 {
		for i := 0; i < 9; i++ {
			cbox[i/3][i%3] = C.float(box[0][i] / nm2A)
		}
	}
	ret := C.write_xtc(X.fp, C.int(X.natoms), C.int(X.step), C.float(X.step), &cbox[0], (*C.rvec)(unsafe.Pointer(&X.coords[0])), C.float(precision))
	if ret != 0 {
		return newErr(WriteError, X.filename, "WNext")
	}
	X.step++
	return nil
}

// Close flushes and closes the file.
func (X *XTCWObj) Close() error {
	if X.fp == nil {
		return nil
	}
	ret := C.xdrfile_close(X.fp)
	X.fp = nil
	if ret != 0 {
		return newErr(WriteError, X.filename, "Close")
	}
	return nil
}
