package graphnet

import (
	"fmt"
	"math/rand"

	"github.com/govoxmesh/govoxmesh/mesh"
	"github.com/govoxmesh/govoxmesh/utils"
	"github.com/govoxmesh/govoxmesh/voxel"
)

// Decoder deforms a fixed-topology template into a sequence of
// progressively refined surfaces, guided by volumetric feature maps. One
// template per structure is held for the decoder's lifetime and never
// mutated; every Decode call replicates it into a fresh batch.
//
// A decode run walks Init -> Step[0] -> ... -> Step[K-1] -> Done strictly
// forward; each step consumes the previous step's mesh and features.
type Decoder struct {
	cfg       Config
	templates []*mesh.Mesh

	gcFirst *Conv
	res     [][]*ResidualBlock
	f2v     []*Conv
	connect []GraphConv

	aggMode voxel.AggregationMode
}

// Result is the decode output: the template initialization followed by one
// mesh per step, and the per-step displacement fields. DeltaV is aligned
// with Meshes; DeltaV[0] is empty because the initialization predicts no
// displacement.
type Result struct {
	Meshes []*mesh.MeshBatch
	DeltaV []utils.Matrix
}

// NumSteps is the number of refinement steps, excluding the template
// initialization.
func (r *Result) NumSteps() int { return len(r.Meshes) - 1 }

// FinalMesh is the last refined batch.
func (r *Result) FinalMesh() *mesh.MeshBatch { return r.Meshes[len(r.Meshes)-1] }

// NewDecoder validates the configuration, checks the structure templates
// for batch compatibility (identical vertex and face counts), and builds
// all layers with zero weights. Call InitXavier for a trainable start.
func NewDecoder(cfg Config, templates []*mesh.Mesh) (d *Decoder, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if len(templates) == 0 {
		err = fmt.Errorf("need at least one structure template")
		return
	}
	// ReplicateMesh performs the uniformity check; a single-sample dry run
	// surfaces template defects at construction instead of at decode time.
	if _, err = mesh.ReplicateMesh(templates, 1); err != nil {
		return
	}
	d = &Decoder{
		cfg:       cfg,
		templates: make([]*mesh.Mesh, len(templates)),
	}
	for s, tmpl := range templates {
		d.templates[s] = tmpl.Copy()
	}
	d.aggMode, _ = voxel.NewAggregationMode(cfg.Aggregation)
	variant, _ := NewVariant(cfg.Variant)

	addN := 0
	if cfg.PropagateCoords {
		addN = 3
	}

	// Initial creation of latent features from template coordinates
	d.gcFirst = NewConv(3, cfg.GraphChannels[0], variant, cfg.WeightedEdges, false)

	numSteps := cfg.NumSteps()
	d.res = make([][]*ResidualBlock, numSteps)
	d.f2v = make([]*Conv, numSteps)
	d.connect = make([]GraphConv, numSteps)
	for i := 0; i < numSteps; i++ {
		var (
			cIn  = cfg.GraphChannels[i]
			cOut = cfg.GraphChannels[i+1]
		)
		blocks := []*ResidualBlock{
			NewResidualBlock(cfg.skipSum(i)+cIn+addN, cOut, cfg.hiddenLayers(), variant, cfg.WeightedEdges),
		}
		for b := 1; b < cfg.residualBlocks(); b++ {
			// No edge weighting on inner blocks
			blocks = append(blocks, NewResidualBlock(cOut, cOut, cfg.hiddenLayers(), variant, false))
		}
		d.res[i] = blocks

		// Feature to vertex layer, edge weighting never used
		d.f2v[i] = NewConv(cOut, 3, variant, false, false)

		// Connector feeding the next step; the last step ends the chain
		if i < numSteps-1 {
			d.connect[i] = NewConv(cOut+addN, cOut, variant, cfg.WeightedEdges, true)
		} else {
			d.connect[i] = &IdentityConv{Width: cOut + addN}
		}
	}
	return
}

// InitXavier seeds every layer's weights from a deterministic source.
func (d *Decoder) InitXavier(seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	d.gcFirst.InitXavier(rnd)
	for i := range d.res {
		for _, b := range d.res[i] {
			b.InitXavier(rnd)
		}
		d.f2v[i].InitXavier(rnd)
		if c, ok := d.connect[i].(*Conv); ok {
			c.InitXavier(rnd)
		}
	}
}

// Decode runs the full refinement sequence for one batch. The supplied
// feature maps must agree with the configured skip channels; they are
// sampled at the current vertex positions of every step.
func (d *Decoder) Decode(maps []*voxel.FeatureMap, nBatch int) (result *Result, err error) {
	if nBatch < 1 {
		err = fmt.Errorf("batch size must be positive, got %d", nBatch)
		return
	}
	if len(maps) != len(d.cfg.SkipChannels) {
		err = fmt.Errorf("got %d feature maps, configuration declares %d", len(maps), len(d.cfg.SkipChannels))
		return
	}
	for i, fm := range maps {
		if fm.Channels != d.cfg.SkipChannels[i] {
			err = fmt.Errorf("feature map %d has %d channels, configuration declares %d", i, fm.Channels, d.cfg.SkipChannels[i])
			return
		}
	}

	// Init: replicate the template and create the initial latent features
	// from the template coordinates, coordinates attached as the trailing
	// channels.
	mb, err := mesh.ReplicateMesh(d.templates, nBatch)
	if err != nil {
		return
	}
	var (
		coords = mb.VertsPacked()
		g      = NewGraph(nBatch*mb.NStruct*mb.NVerts, mb.EdgesPacked(), coords)
		latent = d.gcFirst.Apply(coords, g)
	)
	mb.UpdateFeatures(utils.ConcatCols(latent, coords))

	result = &Result{
		Meshes: []*mesh.MeshBatch{mb},
		DeltaV: []utils.Matrix{{}},
	}

	for i := 0; i < d.cfg.NumSteps(); i++ {
		prev := result.Meshes[i]

		cur := prev.Copy()
		if d.cfg.UnpoolIndices[i] == 1 {
			cur = prev.UniformUnpool()
		}

		var (
			feats  = cur.FeaturesPacked()
			nr, nc = feats.Dims()
			latent = feats.Slice(0, nr, 0, nc-3)
			coords = cur.VertsPacked()
			stepG  = NewGraph(nr, cur.EdgesPacked(), coords)
		)
		skipped, err := voxel.Aggregate(maps, d.cfg.AggregateIndices[i], coords, d.aggMode)
		if err != nil {
			return nil, err
		}

		h := utils.ConcatCols(latent, skipped)
		if d.cfg.PropagateCoords {
			h = utils.ConcatCols(latent, skipped, coords)
		}
		for _, block := range d.res[i] {
			h = block.Apply(h, stepG)
		}

		// Move vertices by the predicted displacement
		deltaV := d.f2v[i].Apply(h, stepG)
		cur.MoveVerts(deltaV)
		moved := cur.VertsPacked()

		if d.cfg.PropagateCoords {
			h = utils.ConcatCols(h, moved)
		}
		h = d.connect[i].Apply(h, stepG)

		cur.UpdateFeatures(utils.ConcatCols(h, moved))
		result.Meshes = append(result.Meshes, cur)
		result.DeltaV = append(result.DeltaV, deltaV)
	}
	return
}
