package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		mNr, mNc := M.Dims()
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, aNc, mNr)
		assert.Equal(t, aNr, mNc)
		assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, A.RawMatrix().Data)
	}
	// SliceRows
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		I := Index{1, 0}
		A := M.SliceRows(I)
		assert.Equal(t, NewMatrix(2, 3, []float64{
			4, 5, 6,
			1, 2, 3,
		}), A)
	}
	// Slice of a column range
	{
		M := NewMatrix(2, 4, []float64{
			1, 2, 3, 4,
			5, 6, 7, 8,
		})
		A := M.Slice(0, 2, 1, 3)
		assert.Equal(t, NewMatrix(2, 2, []float64{
			2, 3,
			6, 7,
		}), A)
	}
	// ConcatCols
	{
		A := NewMatrix(2, 2, []float64{
			1, 2,
			3, 4,
		})
		B := NewMatrix(2, 1, []float64{
			5,
			6,
		})
		C := ConcatCols(A, Matrix{}, B)
		assert.Equal(t, NewMatrix(2, 3, []float64{
			1, 2, 5,
			3, 4, 6,
		}), C)
	}
	// ConcatRows
	{
		A := NewMatrix(1, 3, []float64{1, 2, 3})
		B := NewMatrix(2, 3, []float64{
			4, 5, 6,
			7, 8, 9,
		})
		C := ConcatRows(A, B)
		nr, nc := C.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, C.RawMatrix().Data)
	}
	// Add / Scale are elementwise and chainable
	{
		A := NewMatrix(2, 2, []float64{1, 1, 1, 1})
		B := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		A.Add(B).Scale(2)
		assert.Equal(t, []float64{4, 6, 8, 10}, A.RawMatrix().Data)
	}
	// SliceCols
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.SliceCols(Index{2, 0})
		assert.Equal(t, NewMatrix(2, 2, []float64{
			3, 1,
			6, 4,
		}), A)
	}
	// Subtract / AddScalar / ElMul
	{
		A := NewMatrix(2, 2, []float64{5, 6, 7, 8})
		B := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		A.Subtract(B).AddScalar(1)
		assert.Equal(t, []float64{5, 5, 5, 5}, A.RawMatrix().Data)
		A.ElMul(B)
		assert.Equal(t, []float64{5, 10, 15, 20}, A.RawMatrix().Data)
	}
	// Inverse
	{
		A := NewMatrix(2, 2, []float64{
			4, 7,
			2, 6,
		})
		Ainv, err := A.Inverse()
		assert.NoError(t, err)
		assert.InDeltaSlice(t, []float64{
			1, 0,
			0, 1,
		}, A.Mul(Ainv).RawMatrix().Data, 1.e-12)

		S := NewMatrix(2, 2, []float64{
			1, 2,
			2, 4,
		})
		_, err = S.Inverse()
		assert.Error(t, err)
	}
	// Min / Max and Row / Col extraction
	{
		M := NewMatrix(2, 3, []float64{
			1, -2, 3,
			4, 5, 6,
		})
		assert.Equal(t, -2., M.Min())
		assert.Equal(t, 6., M.Max())
		assert.Equal(t, []float64{4, 5, 6}, M.Row(1).RawVector())
		assert.Equal(t, []float64{-2, 5}, M.Col(1).RawVector())
	}
	// Read only protection, reversible via SetWritable
	{
		A := NewMatrix(1, 1)
		A.SetReadOnly("A")
		assert.Panics(t, func() { A.Set(0, 0, 1) })
		A.SetWritable()
		A.Set(0, 0, 1)
		assert.Equal(t, 1., A.At(0, 0))
	}
}

func TestVector(t *testing.T) {
	{
		v := NewVectorConst(3, 2)
		assert.Equal(t, 3, v.Len())
		assert.Equal(t, []float64{2, 2, 2}, v.RawVector())
	}
	// Copy detaches storage, Add / Scale chain on the receiver
	{
		v := NewVector(3, []float64{3, 0, 4})
		w := v.Copy()
		w.Add(NewVectorConst(3, 1)).Scale(2)
		assert.Equal(t, []float64{8, 2, 10}, w.RawVector())
		assert.Equal(t, []float64{3, 0, 4}, v.RawVector())
		assert.Equal(t, 5., v.Norm())
		assert.Panics(t, func() { v.Add(NewVector(2)) })
	}
	{
		v := NewVector(2).Set(1, 7)
		assert.Equal(t, 7., v.At(1))
	}
}

func TestIndex(t *testing.T) {
	{
		I := NewIndex(3)
		assert.Equal(t, Index{0, 0, 0}, I)
	}
	// NewRange is inclusive on both ends
	{
		I := NewRange(2, 5)
		assert.Equal(t, Index{2, 3, 4, 5}, I)
		assert.Equal(t, Index{3, 4, 5, 6}, I.Add(1))
		assert.True(t, I.Contains(4))
		assert.False(t, I.Contains(6))
		assert.Equal(t, 5, I.Max())
		assert.Equal(t, 2, I.Min())
	}
}

func TestSparseAdjacency(t *testing.T) {
	// Row-normalized adjacency times features = neighbor average
	{
		// Path graph 0-1-2
		D := NewDOK(3, 3)
		D.Set(0, 1, 1)
		D.Set(1, 0, 0.5)
		D.Set(1, 2, 0.5)
		D.Set(2, 1, 1)
		F := NewMatrix(3, 1, []float64{1, 2, 3})
		R := D.ToCSR().MulDense(F)
		assert.InDeltaSlice(t, []float64{2, 2, 2}, R.RawMatrix().Data, 1.e-12)
	}
	// Accumulate sums repeated contributions to the same entry
	{
		D := NewDOK(2, 2)
		D.Accumulate(0, 1, 0.25)
		D.Accumulate(0, 1, 0.75)
		assert.Equal(t, 1., D.At(0, 1))
	}
	// Frozen DOK rejects further assembly
	{
		D := NewDOK(2, 2)
		D.Set(0, 1, 1)
		D.SetReadOnly("adjacency")
		assert.Panics(t, func() { D.Set(1, 0, 1) })
		assert.Panics(t, func() { D.Accumulate(0, 1, 1) })
	}
	// Shape mismatch panics
	{
		D := NewDOK(2, 2)
		F := NewMatrix(3, 1)
		assert.Panics(t, func() { D.ToCSR().MulDense(F) })
	}
}
