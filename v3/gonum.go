/*
 * gonum.go, part of mdrms
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

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space. Within the package it is understood
// that a "vector" is a row vector, i.e. the cartesian coordinates of a point.
type Matrix struct {
	*mat.Dense
}

// Dense2Matrix wraps a Dense with 3 columns in a Matrix. It panics if
// A doesn't have 3 columns.
func Dense2Matrix(A *mat.Dense) *Matrix {
	if _, c := A.Dims(); c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return &Matrix{A}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
// data is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

// VecView returns a view of the ith vector of the matrix.
// Changes in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

// View returns a view of r vectors of F, starting from the ith.
func (F *Matrix) View(i, r int) *Matrix {
	ret := F.Dense.Slice(i, i+r, 0, 3).(*mat.Dense)
	return &Matrix{ret}
}

// unwrap returns the Dense inside A if A is a Matrix, so gonum
// can detect when an argument is also the receiver.
func unwrap(A mat.Matrix) mat.Matrix {
	if a, ok := A.(*Matrix); ok {
		return a.Dense
	}
	return A
}

// Mul wraps mat.Dense.Mul to take care of the case when one of the
// arguments is also the receiver. Since the receiver is a Matrix,
// the gonum function could not know that internally F.Dense==A.
func (F *Matrix) Mul(A, B mat.Matrix) {
	F.Dense.Mul(unwrap(A), unwrap(B))
}

// Add wraps mat.Dense.Add, see Mul.
func (F *Matrix) Add(A, B mat.Matrix) {
	F.Dense.Add(unwrap(A), unwrap(B))
}

// Sub wraps mat.Dense.Sub, see Mul.
func (F *Matrix) Sub(A, B mat.Matrix) {
	F.Dense.Sub(unwrap(A), unwrap(B))
}

// MulElem wraps mat.Dense.MulElem, see Mul.
func (F *Matrix) MulElem(A, B mat.Matrix) {
	F.Dense.MulElem(unwrap(A), unwrap(B))
}

// Scale wraps mat.Dense.Scale, see Mul.
func (F *Matrix) Scale(f float64, A mat.Matrix) {
	F.Dense.Scale(f, unwrap(A))
}

// Copy wraps mat.Dense.Copy, see Mul.
func (F *Matrix) Copy(A mat.Matrix) (r, c int) {
	return F.Dense.Copy(unwrap(A))
}

// Stack puts A stacked over B in F.
func (F *Matrix) Stack(A, B *Matrix) {
	ar := A.NVecs()
	br := B.NVecs()
	if F.NVecs() < ar+br {
		panic(ErrShape)
	}
	F.View(0, ar).Copy(A.Dense)
	F.View(ar, br).Copy(B.Dense)
}

// Clone returns a copy of F that shares no data with it.
func (F *Matrix) Clone() *Matrix {
	ret := Zeros(F.NVecs())
	ret.Copy(F.Dense)
	return ret
}

// det returns the determinant of a 3x3 matrix. Panics if the matrix is not 3x3.
func det(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrDeterminant)
	}
	return mat.Det(A)
}

// Det returns the determinant of the 3x3 matrix F.
func (F *Matrix) Det() float64 {
	return det(F.Dense)
}

//Errors

// Error is the error type of the package. It implements chem.Error
// without importing it, to avoid a circular import.
type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("mdrms/v3: A Matrix should have 3 columns")
	ErrNoCrossProduct  = PanicMsg("mdrms/v3: Invalid matrix for cross product")
	ErrDeterminant     = PanicMsg("mdrms/v3: Determinants are only available for 3x3 matrices")
	ErrShape           = PanicMsg("mdrms/v3: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("mdrms/v3: index out of range")
)
