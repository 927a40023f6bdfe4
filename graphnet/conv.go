package graphnet

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/govoxmesh/govoxmesh/utils"
)

// GraphConv is the message-passing capability the decoder composes: a
// single operator mapping a packed per-vertex feature matrix to a new one
// of fixed output width over a given graph. Concrete variants are strategy
// objects selected by configuration.
type GraphConv interface {
	Apply(F utils.Matrix, g *Graph) utils.Matrix
	InWidth() int
	OutWidth() int
}

// Variant selects the concrete convolution formula.
type Variant uint8

const (
	// VariantConv: h_i = W_self f_i + W_neigh mean_j f_j + b
	VariantConv Variant = iota
	// VariantConvNorm: h_i = (W_self f_i + W_neigh sum_j f_j) / (deg_i + 1) + b
	VariantConvNorm
)

func (v Variant) String() string {
	switch v {
	case VariantConv:
		return "conv"
	case VariantConvNorm:
		return "convnorm"
	}
	return "unknown"
}

func NewVariant(label string) (v Variant, err error) {
	switch label {
	case "conv", "":
		v = VariantConv
	case "convnorm":
		v = VariantConvNorm
	default:
		err = fmt.Errorf("unknown graph convolution variant %q", label)
	}
	return
}

// Conv is one graph convolution layer. Weights start at zero; call
// InitXavier for trainable layers, or leave zeroed to get the identity
// displacement behavior.
type Conv struct {
	WSelf, WNeigh utils.Matrix // in x out
	Bias          utils.Vector // out

	variant  Variant
	weighted bool // inverse-distance neighbor weighting
	relu     bool
	in, out  int
}

func NewConv(in, out int, variant Variant, weighted, relu bool) (c *Conv) {
	if in < 1 || out < 1 {
		err := fmt.Errorf("conv widths must be positive: %d -> %d", in, out)
		panic(err)
	}
	c = &Conv{
		WSelf:    utils.NewMatrix(in, out),
		WNeigh:   utils.NewMatrix(in, out),
		Bias:     utils.NewVector(out),
		variant:  variant,
		weighted: weighted,
		relu:     relu,
		in:       in,
		out:      out,
	}
	return
}

func (c *Conv) InWidth() int  { return c.in }
func (c *Conv) OutWidth() int { return c.out }

func (c *Conv) Apply(F utils.Matrix, g *Graph) (R utils.Matrix) {
	var (
		nr, nc = F.Dims()
	)
	if nc != c.in {
		err := fmt.Errorf("conv expects %d input channels, features have %d", c.in, nc)
		panic(err)
	}
	if nr != g.NVerts {
		err := fmt.Errorf("feature rows %d disagree with graph vertex count %d", nr, g.NVerts)
		panic(err)
	}
	var N utils.Matrix
	switch {
	case c.weighted:
		N = g.WeightedMeanAdjacency().MulDense(F)
	case c.variant == VariantConvNorm:
		N = g.SumAdjacency().MulDense(F)
	default:
		N = g.MeanAdjacency().MulDense(F)
	}
	R = F.Mul(c.WSelf)
	R.Add(N.Mul(c.WNeigh))
	if c.variant == VariantConvNorm && !c.weighted {
		var (
			data = R.Data()
		)
		for i := 0; i < nr; i++ {
			s := 1 / float64(g.Degree(i)+1)
			for j := 0; j < c.out; j++ {
				data[i*c.out+j] *= s
			}
		}
	}
	var (
		data = R.Data()
		bias = c.Bias.RawVector()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < c.out; j++ {
			data[i*c.out+j] += bias[j]
		}
	}
	if c.relu {
		R.Apply(relu)
	}
	return
}

// InitXavier draws all weights uniformly from [-a, a] with
// a = sqrt(6/(in+out)). The bias stays zero.
func (c *Conv) InitXavier(rnd *rand.Rand) {
	a := xavierBound(c.in, c.out)
	for _, W := range []utils.Matrix{c.WSelf, c.WNeigh} {
		data := W.Data()
		for i := range data {
			data[i] = a * (2*rnd.Float64() - 1)
		}
	}
}

// IdentityConv passes features through unchanged. It terminates the
// connector chain at the final decoder step.
type IdentityConv struct {
	Width int
}

func (c *IdentityConv) Apply(F utils.Matrix, g *Graph) utils.Matrix { return F.Copy() }
func (c *IdentityConv) InWidth() int                                { return c.Width }
func (c *IdentityConv) OutWidth() int                               { return c.Width }

func xavierBound(in, out int) float64 {
	return math.Sqrt(6 / float64(in+out))
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}
