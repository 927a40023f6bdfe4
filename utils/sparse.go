package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK wraps a dictionary-of-keys sparse matrix for incremental assembly,
// typically of graph adjacency operators. Convert to CSR for multiplication.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m DOK) Accumulate(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only DOK matrix named: \"%v\"", m.name)
		panic(err)
	}
}

// CSR is the compressed, multiplication-ready form of an assembled DOK.
type CSR struct {
	M *sparse.CSR
}

func (m DOK) ToCSR() CSR {
	return CSR{m.M.ToCSR()}
}

func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }

// MulDense computes the sparse x dense product. Does not change receiver.
func (m CSR) MulDense(A Matrix) (R Matrix) {
	var (
		nr, nc   = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nc != nrA {
		err := fmt.Errorf("dimension mismatch in MulDense: (%v,%v) x (%v,%v)", nr, nc, nrA, ncA)
		panic(err)
	}
	var out mat.Dense
	out.Mul(m.M, A.M)
	R = Matrix{M: &out}
	return
}
