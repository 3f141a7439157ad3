/*
 * geometric.go, part of mdrms
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
	"fmt"
	"math"

	v3 "github.com/rmera/mdrms/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CenterOfMass returns the center of mass the atoms represented by the coordinates in geometry
// and the masses in mass, and an error. If mass is nil, it calculates the geometric center
func CenterOfMass(geometry *v3.Matrix, mass []float64) (*v3.Matrix, error) {
	if geometry == nil {
		return nil, CError{msg: string(ErrNilData), deco: []string{"CenterOfMass"}, critical: true}
	}
	gr := geometry.NVecs()
	if mass == nil { //just obtain the geometric center
		mass = make([]float64, gr)
		floats.AddConst(1.0, mass)
	}
	if len(mass) != gr {
		return nil, CError{msg: fmt.Sprintf("%d masses given for %d atoms", len(mass), gr), deco: []string{"CenterOfMass"}, critical: true}
	}
	total := floats.Sum(mass)
	if total == 0 {
		return nil, CError{msg: "Total mass is zero", deco: []string{"CenterOfMass"}, critical: true}
	}
	ret := v3.Zeros(1)
	w := mat.NewVecDense(gr, mass)
	ret.Mul(w.T(), geometry)
	ret.Scale(1.0/total, ret)
	return ret, nil
}

// MassCentrate centers in in the center of mass of oref. If mass is nil,
// the geometric center is used. Returns the centered matrix and the center.
func MassCentrate(in, oref *v3.Matrix, mass []float64) (*v3.Matrix, *v3.Matrix, error) {
	center, err := CenterOfMass(oref, mass)
	if err != nil {
		return nil, nil, errDecorate(err, "MassCentrate")
	}
	returned := v3.Zeros(in.NVecs())
	returned.SubVec(in, center)
	return returned, center, nil
}

// RotatorTranslatorToSuper superimposes the set of cartesian coordinates given as the rows of the matrix test on the
// rows of the matrix templa, with the Kabsch algorithm. Returns the transformed matrix, the rotation matrix, 2 translation row vectors
// For the superposition plus an error. In order to perform the superposition, without using the transformed
// the first translation vector has to be added first to the moving matrix, then the rotation must be performed
// and finally the second translation has to be added.
// Reflections are never returned: if the best orthogonal transformation is improper, the
// sign of the last singular vector is flipped, which gives the best proper rotation.
func RotatorTranslatorToSuper(test, templa *v3.Matrix) (*v3.Matrix, *v3.Matrix, *v3.Matrix, *v3.Matrix, error) {
	tmr := templa.NVecs()
	tsr := test.NVecs()
	if tmr != tsr || tmr == 0 {
		return nil, nil, nil, nil, CError{msg: fmt.Sprintf("Ill-formed matrices: %d test and %d template vectors", tsr, tmr), deco: []string{"RotatorTranslatorToSuper"}, critical: true}
	}
	ctest, distest, err := MassCentrate(test, test, nil)
	if err != nil {
		return nil, nil, nil, nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	ctempla, distempla, err := MassCentrate(templa, templa, nil)
	if err != nil {
		return nil, nil, nil, nil, errDecorate(err, "RotatorTranslatorToSuper")
	}
	H := mat.NewDense(3, 3, nil)
	H.Mul(ctest.T(), ctempla)
	var svd mat.SVD
	if ok := svd.Factorize(H, mat.SVDFull); !ok {
		return nil, nil, nil, nil, CError{msg: "SVD factorization failed", deco: []string{"RotatorTranslatorToSuper"}, critical: true}
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	D := mat.NewDiagDense(3, []float64{1, 1, 1})
	if mat.Det(&U)*mat.Det(&V) < 0 {
		D.SetDiag(2, -1)
	}
	//We work with row vectors, so the rotation is applied from the right.
	UD := mat.NewDense(3, 3, nil)
	UD.Mul(&U, D)
	Rotation := v3.Zeros(3)
	Rotation.Mul(UD, V.T())
	transformed := v3.Zeros(tsr)
	transformed.Mul(ctest, Rotation)
	transformed.AddVec(transformed, distempla)
	distest.Scale(-1, distest)
	return transformed, Rotation, distest, distempla, nil
}

// Transform applies to coords the first translation, the rotation and the second translation, as
// returned by RotatorTranslatorToSuper. The result is put in a new matrix.
func Transform(coords, rotation, trans1, trans2 *v3.Matrix) *v3.Matrix {
	moved := v3.Zeros(coords.NVecs())
	moved.AddVec(coords, trans1)
	ret := v3.Zeros(coords.NVecs())
	ret.Mul(moved, rotation)
	ret.AddVec(ret, trans2)
	return ret
}

// Super determines the best rotation and translations to superimpose the coords in test
// listed in testlst on the coords of templa listed in templalst. It returns a copy of the whole
// test, transformed accordingly. test is not modified.
// testlst and templalst must have the same number of elements. A nil list means all the vectors.
func Super(test, templa *v3.Matrix, testlst, templalst []int) (*v3.Matrix, error) {
	ctest := test
	if testlst != nil {
		ctest = v3.Zeros(len(testlst))
		if err := ctest.SomeVecsSafe(test, testlst); err != nil {
			return nil, CError{msg: err.Error(), deco: []string{"Super"}, critical: true, err: err}
		}
	}
	ctempla := templa
	if templalst != nil {
		ctempla = v3.Zeros(len(templalst))
		if err := ctempla.SomeVecsSafe(templa, templalst); err != nil {
			return nil, CError{msg: err.Error(), deco: []string{"Super"}, critical: true, err: err}
		}
	}
	if ctest.NVecs() != ctempla.NVecs() {
		return nil, CError{msg: fmt.Sprintf("Mismatched template and test atom numbers: %d, %d", ctempla.NVecs(), ctest.NVecs()), deco: []string{"Super"}, critical: true}
	}
	_, rotation, trans1, trans2, err := RotatorTranslatorToSuper(ctest, ctempla)
	if err != nil {
		return nil, errDecorate(err, "Super")
	}
	return Transform(test, rotation, trans1, trans2), nil
}

// RMSD returns the RSMD (root of the mean square deviation) for the sets of cartesian
// coordinates in test and template. If indexes are given, only the atoms in indexes[0] are
// considered in test, and those in indexes[1] (or, if absent, again indexes[0]) in template.
// No superposition is performed.
func RMSD(test, template *v3.Matrix, indexes ...[]int) (float64, error) {
	var ti, ri []int
	if len(indexes) > 0 {
		ti = indexes[0]
		ri = ti
	}
	if len(indexes) > 1 {
		ri = indexes[1]
	}
	if ti == nil {
		ti = identity(test.NVecs())
	}
	if ri == nil {
		ri = identity(template.NVecs())
	}
	if len(ti) != len(ri) || len(ti) == 0 {
		return 0, CError{msg: fmt.Sprintf("Ill formed matrices for RMSD calculation: %d and %d atoms", len(ti), len(ri)), deco: []string{"RMSD"}, critical: true}
	}
	var sum float64
	for k, i := range ti {
		sum += test.SqDist(i, template, ri[k])
	}
	return math.Sqrt(sum / float64(len(ti))), nil
}

// MeanCoords returns the per-atom mean of the given frames.
func MeanCoords(frames []*v3.Matrix) (*v3.Matrix, error) {
	if len(frames) == 0 {
		return nil, CError{msg: "No frames to average", deco: []string{"MeanCoords"}, critical: true}
	}
	n := frames[0].NVecs()
	mean := v3.Zeros(n)
	for i, f := range frames {
		if f.NVecs() != n {
			return nil, CError{msg: fmt.Sprintf("Frame %d has %d atoms, expected %d", i, f.NVecs(), n), deco: []string{"MeanCoords"}, critical: true}
		}
		mean.Add(mean, f)
	}
	mean.Scale(1/float64(len(frames)), mean)
	return mean, nil
}

func identity(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}
