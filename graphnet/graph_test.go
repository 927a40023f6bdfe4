package graphnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govoxmesh/govoxmesh/utils"
)

func TestGraph(t *testing.T) {
	// Path graph 0-1-2 with coordinates on the x axis
	coords := utils.NewMatrix(3, 3, []float64{
		0, 0, 0,
		1, 0, 0,
		3, 0, 0,
	})
	edges := [][2]int{{0, 1}, {1, 2}}
	{ // Degrees and neighbor averaging
		g := NewGraph(3, edges, coords)
		assert.Equal(t, 1, g.Degree(0))
		assert.Equal(t, 2, g.Degree(1))
		assert.Equal(t, 1, g.Degree(2))

		F := utils.NewMatrix(3, 1, []float64{10, 20, 40})
		N := g.MeanAdjacency().MulDense(F)
		assert.Equal(t, []float64{20, 25, 20}, N.Data())

		S := g.SumAdjacency().MulDense(F)
		assert.Equal(t, []float64{20, 50, 20}, S.Data())
	}
	{ // Duplicate and reversed edges collapse to one neighbor relation
		g := NewGraph(3, [][2]int{{0, 1}, {1, 0}, {0, 1}, {1, 2}}, coords)
		assert.Equal(t, 1, g.Degree(0))
		assert.Equal(t, 2, g.Degree(1))
	}
	{ // Inverse-distance weighting favors the closer neighbor of vertex 1
		g := NewGraph(3, edges, coords)
		F := utils.NewMatrix(3, 1, []float64{10, 0, 40})
		W := g.WeightedMeanAdjacency().MulDense(F)
		// Vertex 1 sits at distance 1 from vertex 0 and 2 from vertex 2,
		// so weights are 2/3 and 1/3 up to distEps
		assert.InDelta(t, 10*2.0/3+40*1.0/3, W.At(1, 0), 1.e-6)
		// Rows of single-neighbor vertices pass the neighbor through
		assert.InDelta(t, 0, W.At(0, 0), 1.e-6)
		assert.InDelta(t, 0, W.At(2, 0), 1.e-6)
	}
	{ // Edges outside the vertex range are rejected
		assert.Panics(t, func() { NewGraph(3, [][2]int{{0, 3}}, coords) })
		assert.Panics(t, func() { NewGraph(3, [][2]int{{-1, 0}}, coords) })
	}
	{ // Weighted adjacency needs coordinates
		g := NewGraph(3, edges, utils.Matrix{})
		assert.Panics(t, func() { g.WeightedMeanAdjacency() })
	}
}

func TestConv(t *testing.T) {
	coords := utils.NewMatrix(3, 3, []float64{
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
	})
	g := NewGraph(3, [][2]int{{0, 1}, {1, 2}}, coords)
	F := utils.NewMatrix(3, 2, []float64{
		1, -1,
		2, -2,
		4, -4,
	})
	{ // Zero weights map everything to zero
		c := NewConv(2, 3, VariantConv, false, false)
		R := c.Apply(F, g)
		nr, nc := R.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 3, nc)
		assert.True(t, R.IsZero())
	}
	{ // Identity self weight passes features through, relu clamps
		c := NewConv(2, 2, VariantConv, false, true)
		c.WSelf.Set(0, 0, 1)
		c.WSelf.Set(1, 1, 1)
		R := c.Apply(F, g)
		assert.Equal(t, []float64{1, 0, 2, 0, 4, 0}, R.Data())
	}
	{ // Neighbor weight picks up the mean of the neighbors
		c := NewConv(2, 1, VariantConv, false, false)
		c.WNeigh.Set(0, 0, 1)
		R := c.Apply(F, g)
		assert.InDelta(t, 2, R.At(0, 0), 1.e-12)   // mean of {2}
		assert.InDelta(t, 2.5, R.At(1, 0), 1.e-12) // mean of {1, 4}
	}
	{ // The degree-normalized variant divides by deg+1
		c := NewConv(2, 1, VariantConvNorm, false, false)
		c.WSelf.Set(0, 0, 1)
		c.WNeigh.Set(0, 0, 1)
		R := c.Apply(F, g)
		assert.InDelta(t, (1+2)/2.0, R.At(0, 0), 1.e-12)
		assert.InDelta(t, (2+1+4)/3.0, R.At(1, 0), 1.e-12)
	}
	{ // Bias is added per output channel
		c := NewConv(2, 2, VariantConv, false, false)
		c.Bias.Set(1, 5)
		R := c.Apply(F, g)
		assert.Equal(t, []float64{0, 5, 0, 5, 0, 5}, R.Data())
	}
	{ // Shape violations panic
		c := NewConv(3, 2, VariantConv, false, false)
		assert.Panics(t, func() { c.Apply(F, g) })
		assert.Panics(t, func() { NewConv(0, 2, VariantConv, false, false) })
	}
	{ // The identity connector copies
		id := &IdentityConv{Width: 2}
		R := id.Apply(F, g)
		assert.Equal(t, F.Data(), R.Data())
		R.Set(0, 0, 99)
		assert.Equal(t, 1., F.At(0, 0))
	}
	{ // Variant parsing
		v, err := NewVariant("")
		assert.NoError(t, err)
		assert.Equal(t, VariantConv, v)
		v, err = NewVariant("convnorm")
		assert.NoError(t, err)
		assert.Equal(t, VariantConvNorm, v)
		_, err = NewVariant("gat")
		assert.Error(t, err)
	}
}

func TestResidualBlock(t *testing.T) {
	coords := utils.NewMatrix(2, 3, []float64{
		0, 0, 0,
		1, 0, 0,
	})
	g := NewGraph(2, [][2]int{{0, 1}}, coords)
	{ // Zero weights with matching widths reduce to relu of the skip path
		b := NewResidualBlock(2, 2, 1, VariantConv, false)
		assert.True(t, b.Proj.IsEmpty())
		F := utils.NewMatrix(2, 2, []float64{1, -1, 2, -2})
		R := b.Apply(F, g)
		assert.Equal(t, []float64{1, 0, 2, 0}, R.Data())
	}
	{ // Zero weights with differing widths go through the zero projection
		b := NewResidualBlock(2, 3, 1, VariantConv, false)
		assert.False(t, b.Proj.IsEmpty())
		F := utils.NewMatrix(2, 2, []float64{1, -1, 2, -2})
		R := b.Apply(F, g)
		assert.True(t, R.IsZero())
	}
	{ // One leading plus the requested hidden convolutions
		b := NewResidualBlock(4, 4, 2, VariantConv, false)
		assert.Equal(t, 3, len(b.Convs))
	}
}
