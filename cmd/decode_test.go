package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/govoxmesh/govoxmesh/InputParameters"
)

func TestDecodeInput(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
IcoLevel: 1
BatchSize: 2
Structures: 2
GraphChannels: [32, 32, 32]
SkipChannels: [8, 8]
UnpoolIndices: [0, 1]
AggregateIndices: [[0], [0, 1]]
PropagateCoords: true
WeightedEdges: true
Aggregation: trilinear # Can be nearest
Seed: 42
`)
	var input InputParameters.DecoderParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.GraphChannels, []int{32, 32, 32})
	assert.Equal(t, input.UnpoolIndices, []int{0, 1})
	assert.Equal(t, input.AggregateIndices, [][]int{{0}, {0, 1}})
	assert.Equal(t, input.WeightedEdges, true)
	input.Print()
	assert.Equal(t, input.Seed, int64(42))
}
