package graphnet

import (
	"math/rand"

	"github.com/govoxmesh/govoxmesh/utils"
)

// ResidualBlock stacks graph convolutions with a skip connection: the input
// is added back to the chain output (through a zero-initialized linear
// projection when widths differ) before the final activation. Only the
// first convolution may use edge weighting.
type ResidualBlock struct {
	Convs []*Conv
	Proj  utils.Matrix // in x out projection for the skip path, empty when in == out

	in, out int
}

// NewResidualBlock builds a block of 1+hiddenLayers convolutions,
// in -> out then out -> out.
func NewResidualBlock(in, out, hiddenLayers int, variant Variant, weighted bool) (b *ResidualBlock) {
	b = &ResidualBlock{in: in, out: out}
	b.Convs = append(b.Convs, NewConv(in, out, variant, weighted, true))
	for l := 0; l < hiddenLayers; l++ {
		b.Convs = append(b.Convs, NewConv(out, out, variant, false, true))
	}
	if in != out {
		b.Proj = utils.NewMatrix(in, out)
	}
	return
}

func (b *ResidualBlock) InWidth() int  { return b.in }
func (b *ResidualBlock) OutWidth() int { return b.out }

func (b *ResidualBlock) Apply(F utils.Matrix, g *Graph) (R utils.Matrix) {
	R = F
	for _, c := range b.Convs {
		R = c.Apply(R, g)
	}
	if b.Proj.IsEmpty() {
		R.Add(F)
	} else {
		R.Add(F.Mul(b.Proj))
	}
	R.Apply(relu)
	return
}

func (b *ResidualBlock) InitXavier(rnd *rand.Rand) {
	for _, c := range b.Convs {
		c.InitXavier(rnd)
	}
	if !b.Proj.IsEmpty() {
		// Xavier for the projection too, so the skip path carries signal
		// from the start
		in, out := b.Proj.Dims()
		a := xavierBound(in, out)
		data := b.Proj.Data()
		for i := range data {
			data[i] = a * (2*rnd.Float64() - 1)
		}
	}
}
