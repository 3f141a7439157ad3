/*
 * interfaces.go, part of mdrms
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

import v3 "github.com/rmera/mdrms/v3"

// Traj is a source of coordinate frames. File readers and in-memory
// trajectories implement it.
type Traj interface {
	//Readable reports whether frames can still be read.
	Readable() bool

	//Next reads the next frame into output. A nil output skips the frame.
	//If box is given and the frame has a unit cell, the 9 components of the
	//box vectors are copied to box[0].
	Next(output *v3.Matrix, box ...[]float64) error

	//Len is the number of atoms per frame.
	Len() int
}

// TrajCloser is a Traj backed by an open file.
type TrajCloser interface {
	Traj
	Close()
}

// Atomer gives access to the atoms of a topology.
type Atomer interface {
	//Atom returns atom i. It panics if i is out of range.
	Atom(i int) *Atom
	Len() int
}

// Masser is a topology that knows the masses of its atoms.
type Masser interface {
	Masses() ([]float64, error)
}

// Error is implemented by the errors of this module and its subpackages.
// Decorate adds an entry (normally "FunctionName" or "FunctionName: details")
// to the call trace kept in the error, and returns the trace. An empty
// string only returns it.
type Error interface {
	Error() string
	Decorate(string) []string
}

// TrajError is an error reading or writing a trajectory file.
type TrajError interface {
	Error
	Critical() bool
	FileName() string
	Format() string
}

// LastFrameError marks the normal end of a trajectory. It is not a failure, and
// readers return it when there are no frames left.
type LastFrameError interface {
	TrajError
	NormalLastFrameTermination()
}
