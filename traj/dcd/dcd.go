/*
 * dcd.go, part of mdrms
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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	v3 "github.com/rmera/mdrms/v3"
)

const mAXTITLE int32 = 80

// DCDObj is a container for an Charmm/NAMD binary trajectory file,
// plain or compressed.
type DCDObj struct {
	natoms     int32
	nframes    int32
	readLast   bool //Have we read the last frame?
	readable   bool //Is it ready to be read?
	filename   string
	charmm     bool //Charmm traj?
	extrablock bool //unit cell present?
	fourdim    bool
	fixed      int32 //Fixed atoms (not supported)
	delta      float32
	source     io.ReadCloser //the file, or the decompressor reading from it.
	fhandle    io.Closer     //the underlying file
	dcd        io.Reader
	dcdFields  [][]float32
	cell       [6]float64
	endian     binary.ByteOrder
}

// New opens the DCD file filename for reading. The file may be compressed
// with gzip (.gz), lzw (.lzw) or zstd (.zst); the format is deduced from the extension.
func New(filename string) (*DCDObj, error) {
	traj := new(DCDObj)
	if err := traj.initRead(filename); err != nil {
		traj.Close()
		return nil, errDecorate(err, "New")
	}
	traj.dcdFields = make([][]float32, 3)
	traj.dcdFields[0] = make([]float32, int(traj.natoms))
	traj.dcdFields[1] = make([]float32, int(traj.natoms))
	traj.dcdFields[2] = make([]float32, int(traj.natoms))
	return traj, nil

}

// Readable returns true if the object is ready to be read from
// false otherwise. It doesnt guarantee that there is something
// to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

// NFrames returns the number of frames declared in the header of the file. Writers that
// don't update the header may leave it as zero.
func (D *DCDObj) NFrames() int {
	return int(D.nframes)
}

// Timestep returns the time between frames declared in the header.
func (D *DCDObj) Timestep() float64 {
	return float64(D.delta)
}

// Close closes the file associated with the object. The object can't be read after this.
func (D *DCDObj) Close() {
	//for plain files both are the same file, and the second Close just fails silently.
	if D.source != nil {
		D.source.Close()
	}
	if D.fhandle != nil {
		D.fhandle.Close()
	}
	D.source = nil
	D.fhandle = nil
	D.readable = false
}

// initRead initializes a DCDObj for reading.
// It requires only the filename, which must be valid.
// It support big and little endianness, charmm or (namd>=2.1) and no
// fixed atoms.
func (D *DCDObj) initRead(name string) error {
	D.endian = binary.LittleEndian
	NB := bytes.NewBuffer //shortness sake
	var err error
	D.source, err = D.prepSource(name, "")
	if err != nil {
		return errDecorate(err, "initRead")
	}
	D.dcd = D.source
	wrap := func(err error) error {
		return wrapErr(err, D.filename, "binary.Read", "initRead")
	}
	var check int32
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrap(err)
	}
	//The first thing we should read is an 84.
	//If this fails it means that the file is big endian.
	if check != 84 {
		D.endian = binary.BigEndian
	}
	//Then the magic number "CORD"
	magic := make([]byte, 4)
	if err := binary.Read(D.dcd, D.endian, magic); err != nil {
		return wrap(err)
	}
	if string(magic) != "CORD" {
		return newErr(WrongFormat + ": wrong magic number", D.filename, "initRead")
	}

	//We first read a big chuck for random access.
	buf := make([]byte, 80)
	if err := binary.Read(D.dcd, D.endian, buf); err != nil {
		return wrap(err)
	}
	if err := binary.Read(NB(buf[0:]), D.endian, &D.nframes); err != nil {
		return wrap(err)
	}
	//X-plor sets this last int to zero, charmm sets it to its version number.
	//if we have a charmm file we get some additional flags.
	if err := binary.Read(NB(buf[76:]), D.endian, &check); err != nil {
		return wrap(err)
	}
	if check == 0 {
		return newErr("X-plor DCD not supported", D.filename, "initRead")
	}
	D.charmm = true
	if err := binary.Read(NB(buf[40:]), D.endian, &check); err != nil {
		return wrap(err)
	}
	if check != 0 {
		D.extrablock = true
	}
	if err := binary.Read(NB(buf[44:]), D.endian, &check); err != nil {
		return wrap(err)
	}
	if check == 1 {
		D.fourdim = true
	}
	if err := binary.Read(NB(buf[32:]), D.endian, &D.fixed); err != nil {
		return wrap(err)
	}
	if err := binary.Read(NB(buf[36:]), D.endian, &D.delta); err != nil {
		return wrap(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrap(err)
	}
	if check != 84 {
		return newErr(WrongFormat, D.filename, "initRead")
	}
	var input_int int32
	if err := binary.Read(D.dcd, D.endian, &input_int); err != nil {
		return wrap(err)
	}
	//how many units of MAXTITLE does the title have?
	var ntitle int32
	if err := binary.Read(D.dcd, D.endian, &ntitle); err != nil {
		return wrap(err)
	}
	if ntitle < 0 || ntitle > 1000 {
		return newErr(fmt.Sprintf("%s: unreasonable title length %d", WrongFormat, ntitle), D.filename, "initRead")
	}
	title := make([]byte, mAXTITLE*ntitle)
	if err := binary.Read(D.dcd, D.endian, title); err != nil {
		return wrap(err)
	}
	if err := binary.Read(D.dcd, D.endian, &input_int); err != nil {
		return wrap(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrap(err)
	}
	if check != 4 { //one must read a 4 before the natoms
		return newErr(WrongFormat, D.filename, "initRead")
	}
	if err := binary.Read(D.dcd, D.endian, &D.natoms); err != nil {
		return wrap(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return wrap(err)
	}
	if check != 4 { //and one more 4
		return newErr(WrongFormat, D.filename, "initRead")
	}
	if D.fixed != 0 {
		return newErr("Fixed atoms not supported", D.filename, "initRead")
	}
	D.readable = true
	return nil
}

// Next Reads the next frame in a DCDObj that has been initialized for read
// With initread. If keep is not nil, the coordinates are put there, otherwise
// the frame is discarded. If box is given, and the file contains a unit cell,
// the 9 components of the box vectors are put in box[0].
func (D *DCDObj) Next(keep *v3.Matrix, box ...[]float64) error {
	if !D.readable {
		return newErr(TrajUnIni, D.filename, "Next")
	}
	if err := D.nextRaw(D.dcdFields); err != nil {
		return D.eOF2LastFrame(err)
	}
	if len(box) > 0 && len(box[0]) >= 9 && D.extrablock {
		cellToVectors(D.cell, box[0])
	}
	if keep == nil {
		return nil
	}
	if r, _ := keep.Dims(); int32(r) < D.natoms {
		panic(NotEnoughSpace)
	}
	for k := 0; k < int(D.natoms); k++ {
		keep.Set(k, 0, float64(D.dcdFields[0][k]))
		keep.Set(k, 1, float64(D.dcdFields[1][k]))
		keep.Set(k, 2, float64(D.dcdFields[2][k]))
	}
	return nil
}

// nextRaw reads the next frame into the three blocks of float32 given,
// which must have the correct lenght.
func (D *DCDObj) nextRaw(blocks [][]float32) error {
	if len(blocks[0]) != int(D.natoms) || len(blocks[1]) != int(D.natoms) || len(blocks[2]) != int(D.natoms) {
		return newErr(NotEnoughSpace, D.filename, "nextRaw")
	}
	if D.readLast {
		D.readable = false
		return io.EOF
	}
	//Sadly, even when there is an extra block, it is not present in all
	//snapshots for some trajectories, so we must use the block size to see if
	//there is an extra block or if the X block starts inmediately
	var blocksize int32
	if D.extrablock {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return err
		}
		//If the blocksize is 4*natoms it means that the block is not an
		//extra block, but the X coordinates.
		if blocksize != D.natoms*4 {
			block, err := D.readByteBlock(blocksize)
			if err != nil {
				return err
			}
			if blocksize == 48 {
				if err := binary.Read(bytes.NewBuffer(block), D.endian, D.cell[:]); err != nil {
					return err
				}
			}
			blocksize = 0
		}
	}
	//X
	if blocksize == 0 {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			return err
		}
	}
	if err := D.readFloat32Block(blocksize, blocks[0]); err != nil {
		return err
	}
	//Y
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return D.truncated(err)
	}
	if err := D.readFloat32Block(blocksize, blocks[1]); err != nil {
		return err
	}
	//Z
	if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
		return D.truncated(err)
	}
	if err := D.readFloat32Block(blocksize, blocks[2]); err != nil {
		return err
	}
	//we skip the 4-D values if they exist. Apparently this is not present in the
	//last snapshot, so we use an EOF here to signal that we have read the last snapshot.
	if D.charmm && D.fourdim {
		if err := binary.Read(D.dcd, D.endian, &blocksize); err != nil {
			if err == io.EOF {
				D.readLast = true
			} else {
				return err
			}
		}
		if !D.readLast {
			if _, err := D.readByteBlock(blocksize); err != nil {
				return err
			}
		}
	}
	return nil

}

// truncated turns an EOF in the middle of a frame into a critical error.
func (D *DCDObj) truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newErr("Truncated frame", D.filename, "nextRaw")
	}
	return err
}

// Queries the size of a block, and reads its contents into block, which must have the
// appropiate size.
func (D *DCDObj) readFloat32Block(blocksize int32, block []float32) error {
	var check int32
	if blocksize != int32(len(block))*4 {
		return newErr(fmt.Sprintf("%s: block of %d bytes for %d atoms", WrongFormat, blocksize, len(block)), D.filename, "readFloat32Block")
	}
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return D.truncated(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return D.truncated(err)
	}
	if check != blocksize {
		return newErr(SecurityCheckFailed, D.filename, "readFloat32Block")
	}
	return nil
}

// Queries the size of a block, make a slice of that size
// and reads it. It is used for the blocks we don't really need.
func (D *DCDObj) readByteBlock(blocksize int32) ([]byte, error) {
	var check int32
	if blocksize < 0 {
		return nil, newErr(SecurityCheckFailed, D.filename, "readByteBlock")
	}
	block := make([]byte, blocksize)
	if err := binary.Read(D.dcd, D.endian, block); err != nil {
		return nil, D.truncated(err)
	}
	if err := binary.Read(D.dcd, D.endian, &check); err != nil {
		return nil, D.truncated(err)
	}
	if check != blocksize {
		return nil, newErr(SecurityCheckFailed, D.filename, "readByteBlock")
	}
	return block, nil
}

// Len returns the number of atoms per frame in the DCDObj.
// DCDObj must be initialized. 0 means an uninitialized object.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

// eOF2LastFrame turns a clean EOF into a lastFrameError, and
// decorates any other error.
func (D *DCDObj) eOF2LastFrame(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		D.readable = false
		return newlastFrameError(D.filename, "Next")
	}
	if _, ok := err.(*Error); ok {
		return errDecorate(err, "Next")
	}
	return wrapErr(err, D.filename, "Next")
}

// cellToVectors puts in box the 9 components of the box vectors corresponding to the
// unit cell cell, given as a, gamma, b, beta, alpha, c. NAMD stores the cosines of the angles
// instead of the angles, so values in [-1,1] are taken as cosines.
func cellToVectors(cell [6]float64, box []float64) {
	a, b, c := cell[0], cell[2], cell[5]
	cos := func(v float64) float64 {
		if v >= -1 && v <= 1 {
			return v
		}
		return math.Cos(v * math.Pi / 180)
	}
	cosg, cosb, cosa := cos(cell[1]), cos(cell[3]), cos(cell[4])
	sing := math.Sqrt(1 - cosg*cosg)
	for i := range box[:9] {
		box[i] = 0
	}
	box[0] = a
	box[3] = b * cosg
	box[4] = b * sing
	box[6] = c * cosb
	if sing != 0 {
		box[7] = c * (cosa - cosb*cosg) / sing
	}
	box[8] = math.Sqrt(math.Max(c*c-box[6]*box[6]-box[7]*box[7], 0))
}
