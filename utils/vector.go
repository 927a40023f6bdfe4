package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var v *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	return Vector{v}
}

func NewVectorConst(n int, val float64) (R Vector) {
	data := make([]float64, n)
	for i := range data {
		data[i] = val
	}
	return NewVector(n, data)
}

func (v Vector) Len() int           { return v.V.Len() }
func (v Vector) At(i int) float64   { return v.V.AtVec(i) }
func (v Vector) RawVector() []float64 {
	return v.V.RawVector().Data
}

func (v Vector) Set(i int, val float64) Vector { // Changes receiver
	v.V.SetVec(i, val)
	return v
}

func (v Vector) Copy() (R Vector) { // Does not change receiver
	data := make([]float64, v.Len())
	copy(data, v.RawVector())
	return NewVector(v.Len(), data)
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	var (
		data = v.RawVector()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) Add(a Vector) Vector { // Changes receiver
	var (
		data  = v.RawVector()
		dataA = a.RawVector()
	)
	if len(data) != len(dataA) {
		err := fmt.Errorf("dimension mismatch in Add: %v vs %v", len(data), len(dataA))
		panic(err)
	}
	for i, val := range dataA {
		data[i] += val
	}
	return v
}

func (v Vector) Norm() (n float64) {
	for _, val := range v.RawVector() {
		n += val * val
	}
	return math.Sqrt(n)
}
