/*
 * dcd_write.go, part of mdrms
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

package dcd

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	v3 "github.com/rmera/mdrms/v3"
)

// DCDWObj is a container for an Charmm/NAMD binary trajectory file
// opened for writing
type DCDWObj struct {
	natoms     int32
	writable   bool //Is it ready to be written on
	filename   string
	unitcell   bool
	compressed bool
	frames     int32
	timestep   float32
	w          io.WriteCloser
	f          *os.File //The DCD file
	dcdFields  [][]float32
	endian     binary.ByteOrder
}

// NewWriter initializes a DCD trajectory for writing. If unitcell is given and true,
// a unit cell block is written with each frame, taken from the box passed to WNext.
func NewWriter(filename string, natoms int, unitcell ...bool) (*DCDWObj, error) {
	traj := new(DCDWObj)
	traj.natoms = int32(natoms)
	traj.timestep = 1
	traj.unitcell = len(unitcell) > 0 && unitcell[0]
	if err := traj.initWrite(filename); err != nil {
		return nil, errDecorate(err, "NewWriter")
	}
	return traj, nil

}

// Close flushes and closes the file. The object can't be written after this.
func (D *DCDWObj) Close() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	var err error
	if D.compressed {
		err = D.w.Close()
	}
	if err2 := D.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return wrapErr(err, D.filename, "Close")
	}
	return nil
}

// Len returns the number of atoms per frame.
func (D *DCDWObj) Len() int {
	return int(D.natoms)
}

// initWrite creates the file and writes the header.
func (D *DCDWObj) initWrite(name string) error {
	D.filename = name
	wrapbinerr := func(err error) error {
		return wrapErr(err, D.filename, "binary.Write", "initWrite")
	}
	if D.natoms == 0 {
		return newErr("Trajectory not initialized correctly, the number of atoms is set to zero!", D.filename, "initWrite")
	}
	D.endian = binary.LittleEndian
	var err error
	D.w, D.f, D.compressed, err = prepTarget(name)
	if err != nil {
		return errDecorate(err, "initWrite")
	}
	var cell int32
	if D.unitcell {
		cell = 1
	}
	//84, the magic number and then the 20 control integers.
	//the number of frames is updated after every write.
	icntrl := []int32{0, 0, 1, 0, 0, 0, 0, 0, 0}
	header := []interface{}{int32(84), []byte("CORD"), icntrl, D.timestep, cell, make([]int32, 8), int32(24), int32(84)}
	for _, v := range header {
		if err := binary.Write(D.w, D.endian, v); err != nil {
			return wrapbinerr(err)
		}
	}
	//The title block: its size, the number of 80-characters lines, and the lines.
	var ntitle int32 = 2
	title := make([]byte, ntitle*mAXTITLE)
	copy(title, []byte(fmt.Sprintf("REMARKS mdrms trajectory, %d atoms", D.natoms)))
	for i := range title {
		if title[i] == 0 {
			title[i] = ' '
		}
	}
	tsize := 4 + ntitle*mAXTITLE
	header = []interface{}{tsize, ntitle, title, tsize, int32(4), D.natoms, int32(4)}
	for _, v := range header {
		if err := binary.Write(D.w, D.endian, v); err != nil {
			return wrapbinerr(err)
		}
	}
	D.writable = true
	return nil
}

// WNext writes the next frame to the trajectory. If the writer was created with
// unit cell support, the box vectors in box[0] (9 components) are written as the
// unit cell. Otherwise box is ignored.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return newErr(TrajUnIni, D.filename, "WNext")
	}
	if towrite == nil {
		return newErr(NilCoordinates, D.filename, "WNext")

	}
	if int32(towrite.NVecs()) != D.natoms {
		return newErr(fmt.Sprintf("%d coordinates given, but %d expected", towrite.NVecs(), D.natoms), D.filename, "WNext")
	}
	if D.dcdFields == nil {
		D.dcdFields = make([][]float32, 3)
		D.dcdFields[0] = make([]float32, int(D.natoms))
		D.dcdFields[1] = make([]float32, int(D.natoms))
		D.dcdFields[2] = make([]float32, int(D.natoms))
	}
	for k := 0; k < int(D.natoms); k++ {
		D.dcdFields[0][k] = float32(towrite.At(k, 0))
		D.dcdFields[1][k] = float32(towrite.At(k, 1))
		D.dcdFields[2][k] = float32(towrite.At(k, 2))
	}
	if D.unitcell {
		var b []float64
		if len(box) > 0 {
			b = box[0]
		}
		if err := D.writeCell(b); err != nil {
			return errDecorate(err, "WNext")
		}
	}
	if err := D.wnextRaw(D.dcdFields); err != nil {
		return errDecorate(err, "WNext")
	}
	D.frames++
	if D.compressed {
		return nil
	}
	return D.updateFrames()
}

// writeCell writes the unit cell block corresponding to the box vectors box.
// A nil box gives a zero cell.
func (D *DCDWObj) writeCell(box []float64) error {
	var cell [6]float64
	if len(box) >= 9 {
		norm := func(v []float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }
		dot := func(v, w []float64) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }
		a, b, c := box[0:3], box[3:6], box[6:9]
		na, nb, nc := norm(a), norm(b), norm(c)
		cell[0], cell[2], cell[5] = na, nb, nc
		if na*nb*nc != 0 {
			//cosines of gamma, beta and alpha, NAMD-style
			cell[1] = dot(a, b) / (na * nb)
			cell[3] = dot(a, c) / (na * nc)
			cell[4] = dot(b, c) / (nb * nc)
		}
	}
	for _, v := range []interface{}{int32(48), cell, int32(48)} {
		if err := binary.Write(D.w, D.endian, v); err != nil {
			return wrapErr(err, D.filename, "binary.Write", "writeCell")
		}
	}
	return nil
}

// wnextRaw writes the three blocks of coordinates.
func (D *DCDWObj) wnextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return newErr(NotEnoughSpace, D.filename, "wnextRaw")
	}
	for _, b := range blocks {
		if err := D.writeFloat32Block(b); err != nil {
			return errDecorate(err, "wnextRaw")
		}
	}
	return nil
}

// Writes a block of float32s to the file, surrounded by its size
func (D *DCDWObj) writeFloat32Block(block []float32) error {
	var blocksize int32 = int32(len(block)) * 4 //the size is in bytes
	for _, v := range []interface{}{blocksize, block, blocksize} {
		if err := binary.Write(D.w, D.endian, v); err != nil {
			return wrapErr(err, D.filename, "binary.Write", "writeFloat32Block")
		}
	}
	return nil
}

// DCD requires the number of frames at the begining.
func (D *DCDWObj) updateFrames() error {
	//the frame count goes right after the first 84 and the magic number.
	buf := make([]byte, 4)
	D.endian.PutUint32(buf, uint32(D.frames))
	if _, err := D.f.WriteAt(buf, 8); err != nil {
		return wrapErr(err, D.filename, "WriteAt", "updateFrames")
	}
	return nil
}
