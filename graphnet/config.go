package graphnet

import (
	"fmt"

	"github.com/govoxmesh/govoxmesh/voxel"
)

// Config declares the decoder shape. It is validated once, at decoder
// construction; a decoder never re-checks these invariants per step.
//
// GraphChannels has one entry more than the number of refinement steps: the
// leading entry is the width of the initial latent features created from
// the template coordinates. UnpoolIndices and AggregateIndices have exactly
// one entry per step.
type Config struct {
	GraphChannels    []int   // K+1 latent widths
	SkipChannels     []int   // channel count of each volumetric feature map
	UnpoolIndices    []int   // 0/1 per step
	AggregateIndices [][]int // feature-map selection per step

	PropagateCoords bool
	WeightedEdges   bool
	AdaptiveUnpool  bool

	NResidualBlocks int // 0 selects the default of 3
	NHiddenLayers   int // hidden convolutions per residual block; 0 selects the default of 1

	Aggregation string // "trilinear" (default) or "nearest"
	Variant     string // "conv" (default) or "convnorm"
}

func (cfg *Config) NumSteps() int { return len(cfg.GraphChannels) - 1 }

func (cfg *Config) residualBlocks() int {
	if cfg.NResidualBlocks == 0 {
		return 3
	}
	return cfg.NResidualBlocks
}

func (cfg *Config) hiddenLayers() int {
	if cfg.NHiddenLayers == 0 {
		return 1
	}
	return cfg.NHiddenLayers
}

// Validate checks every construction-time invariant. All violations are
// configuration defects, reported immediately and never recovered from.
func (cfg *Config) Validate() (err error) {
	if len(cfg.GraphChannels) < 2 {
		return fmt.Errorf("need at least one decoder step: GraphChannels has %d entries", len(cfg.GraphChannels))
	}
	numSteps := cfg.NumSteps()
	if len(cfg.UnpoolIndices) != numSteps || len(cfg.AggregateIndices) != numSteps {
		return fmt.Errorf("graph channels, aggregation indices, and unpool indices must match the "+
			"number of decoder steps: %d channels (=%d steps), %d unpool flags, %d aggregation sets",
			len(cfg.GraphChannels), numSteps, len(cfg.UnpoolIndices), len(cfg.AggregateIndices))
	}
	for i, c := range cfg.GraphChannels {
		if c < 1 {
			return fmt.Errorf("GraphChannels[%d] = %d, widths must be positive", i, c)
		}
	}
	for i, c := range cfg.SkipChannels {
		if c < 1 {
			return fmt.Errorf("SkipChannels[%d] = %d, channel counts must be positive", i, c)
		}
	}
	for i, u := range cfg.UnpoolIndices {
		if u != 0 && u != 1 {
			return fmt.Errorf("UnpoolIndices[%d] = %d, must be 0 or 1", i, u)
		}
	}
	for i, set := range cfg.AggregateIndices {
		if len(set) == 0 {
			return fmt.Errorf("AggregateIndices[%d] selects no feature maps", i)
		}
		for _, idx := range set {
			if idx < 0 || idx >= len(cfg.SkipChannels) {
				return fmt.Errorf("AggregateIndices[%d] references map %d outside the %d declared skip channels",
					i, idx, len(cfg.SkipChannels))
			}
		}
	}
	if cfg.WeightedEdges && !cfg.PropagateCoords {
		return fmt.Errorf("edge weighting requires propagation of vertex coordinates to the graph convolutions")
	}
	if cfg.AdaptiveUnpool {
		return fmt.Errorf("adaptive unpooling changes the number of vertices per mesh and is not supported")
	}
	if cfg.NResidualBlocks < 0 || cfg.NHiddenLayers < 0 {
		return fmt.Errorf("residual block and hidden layer counts must be non-negative")
	}
	if _, err = voxel.NewAggregationMode(cfg.Aggregation); err != nil {
		return err
	}
	if _, err = NewVariant(cfg.Variant); err != nil {
		return err
	}
	return nil
}

// skipSum is the aggregated feature width feeding step i.
func (cfg *Config) skipSum(i int) (sum int) {
	for _, idx := range cfg.AggregateIndices[i] {
		sum += cfg.SkipChannels[idx]
	}
	return
}
