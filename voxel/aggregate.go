package voxel

import (
	"fmt"

	"github.com/govoxmesh/govoxmesh/utils"
)

// AggregationMode selects how vertex positions sample the voxel grids.
type AggregationMode uint8

const (
	Trilinear AggregationMode = iota
	Nearest
)

func (am AggregationMode) String() string {
	switch am {
	case Trilinear:
		return "trilinear"
	case Nearest:
		return "nearest"
	}
	return "unknown"
}

func NewAggregationMode(label string) (am AggregationMode, err error) {
	switch label {
	case "trilinear", "":
		am = Trilinear
	case "nearest":
		am = Nearest
	default:
		err = fmt.Errorf("unknown aggregation mode %q", label)
	}
	return
}

// ChannelSum is the output width of aggregating from the selected maps.
func ChannelSum(maps []*FeatureMap, indices []int) (sum int, err error) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(maps) {
			err = fmt.Errorf("aggregation index %d outside the %d supplied feature maps", idx, len(maps))
			return
		}
		sum += maps[idx].Channels
	}
	return
}

// Aggregate samples every selected feature map at each vertex position
// (rows of positions, normalized [-1,1] coordinates) and concatenates the
// per-map feature vectors. The result is positions-rows x ChannelSum wide.
// Out-of-range positions clamp to the grid boundary; sampling never
// produces invalid values.
func Aggregate(maps []*FeatureMap, indices []int, positions utils.Matrix, mode AggregationMode) (R utils.Matrix, err error) {
	var (
		nr, nc = positions.Dims()
		sum    int
	)
	if nc != 3 {
		err = fmt.Errorf("positions must be Nx3, got %dx%d", nr, nc)
		return
	}
	if sum, err = ChannelSum(maps, indices); err != nil {
		return
	}
	R = utils.NewMatrix(nr, sum)
	var (
		pos   = positions.Data()
		dataR = R.Data()
	)
	for i := 0; i < nr; i++ {
		var (
			p   = [3]float64{pos[i*3], pos[i*3+1], pos[i*3+2]}
			off = i * sum
		)
		for _, idx := range indices {
			fm := maps[idx]
			out := dataR[off : off+fm.Channels]
			switch mode {
			case Nearest:
				fm.SampleNearest(p, out)
			default:
				fm.SampleTrilinear(p, out)
			}
			off += fm.Channels
		}
	}
	return
}
