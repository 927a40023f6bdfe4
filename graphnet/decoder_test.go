package graphnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govoxmesh/govoxmesh/mesh"
	"github.com/govoxmesh/govoxmesh/voxel"
)

func constantMap(nx, ny, nz, channels int, val float64) (fm *voxel.FeatureMap) {
	fm = voxel.NewFeatureMap(nx, ny, nz, channels)
	vals := make([]float64, channels)
	for c := range vals {
		vals[c] = val
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				fm.Set(x, y, z, vals)
			}
		}
	}
	return
}

func twoStepConfig() Config {
	return Config{
		GraphChannels:    []int{8, 8, 8},
		SkipChannels:     []int{4, 2},
		UnpoolIndices:    []int{0, 1},
		AggregateIndices: [][]int{{0}, {0, 1}},
		PropagateCoords:  true,
		NResidualBlocks:  2,
	}
}

func TestConfigValidate(t *testing.T) {
	{ // The baseline configuration is accepted
		cfg := twoStepConfig()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, 2, cfg.NumSteps())
	}
	{ // Fewer than two channel entries means no step at all
		cfg := twoStepConfig()
		cfg.GraphChannels = []int{8}
		assert.Error(t, cfg.Validate())
	}
	{ // Per-step slices must match the number of steps
		cfg := twoStepConfig()
		cfg.UnpoolIndices = []int{0}
		assert.Error(t, cfg.Validate())
		cfg = twoStepConfig()
		cfg.AggregateIndices = [][]int{{0}}
		assert.Error(t, cfg.Validate())
	}
	{ // Widths and channel counts must be positive
		cfg := twoStepConfig()
		cfg.GraphChannels = []int{8, 0, 8}
		assert.Error(t, cfg.Validate())
		cfg = twoStepConfig()
		cfg.SkipChannels = []int{4, -1}
		assert.Error(t, cfg.Validate())
	}
	{ // Unpool flags are strictly 0 or 1
		cfg := twoStepConfig()
		cfg.UnpoolIndices = []int{0, 2}
		assert.Error(t, cfg.Validate())
	}
	{ // Every step aggregates from at least one valid feature map
		cfg := twoStepConfig()
		cfg.AggregateIndices = [][]int{{}, {0}}
		assert.Error(t, cfg.Validate())
		cfg = twoStepConfig()
		cfg.AggregateIndices = [][]int{{0}, {2}}
		assert.Error(t, cfg.Validate())
	}
	{ // Edge weighting depends on coordinates reaching the convolutions
		cfg := twoStepConfig()
		cfg.WeightedEdges = true
		cfg.PropagateCoords = false
		assert.Error(t, cfg.Validate())
		cfg.PropagateCoords = true
		assert.NoError(t, cfg.Validate())
	}
	{ // Adaptive unpooling is rejected outright
		cfg := twoStepConfig()
		cfg.AdaptiveUnpool = true
		assert.Error(t, cfg.Validate())
	}
	{ // Unknown mode and variant labels
		cfg := twoStepConfig()
		cfg.Aggregation = "cubic"
		assert.Error(t, cfg.Validate())
		cfg = twoStepConfig()
		cfg.Variant = "gat"
		assert.Error(t, cfg.Validate())
	}
}

func TestNewDecoder(t *testing.T) {
	tmpl := mesh.IcoSphere(0)
	{ // An invalid configuration never yields a decoder
		cfg := twoStepConfig()
		cfg.UnpoolIndices = []int{0}
		_, err := NewDecoder(cfg, []*mesh.Mesh{tmpl})
		assert.Error(t, err)
	}
	{ // At least one structure template is required
		_, err := NewDecoder(twoStepConfig(), nil)
		assert.Error(t, err)
	}
	{ // Structure templates must share vertex and face counts
		_, err := NewDecoder(twoStepConfig(), []*mesh.Mesh{mesh.IcoSphere(0), mesh.IcoSphere(1)})
		assert.Error(t, err)
	}
	{ // Layer shapes follow the configured channel plan
		cfg := twoStepConfig()
		d, err := NewDecoder(cfg, []*mesh.Mesh{tmpl})
		assert.NoError(t, err)
		assert.Equal(t, 3, d.gcFirst.InWidth())
		assert.Equal(t, 8, d.gcFirst.OutWidth())
		assert.Equal(t, 2, len(d.res))
		assert.Equal(t, 2, len(d.res[0]))
		// skip(4) + latent(8) + coords(3) into the first block of step 0
		assert.Equal(t, 15, d.res[0][0].InWidth())
		assert.Equal(t, 8, d.res[0][0].OutWidth())
		// skip(4+2) + latent(8) + coords(3) into step 1
		assert.Equal(t, 17, d.res[1][0].InWidth())
		assert.Equal(t, 8, d.res[1][1].InWidth())
		assert.Equal(t, 3, d.f2v[0].OutWidth())
		// The last connector is the identity, earlier ones are convolutions
		_, ok := d.connect[0].(*Conv)
		assert.True(t, ok)
		_, ok = d.connect[1].(*IdentityConv)
		assert.True(t, ok)
	}
}

func TestDecodeZeroWeights(t *testing.T) {
	var (
		tmpl = mesh.IcoSphere(0)
		cfg  = twoStepConfig()
		maps = []*voxel.FeatureMap{
			constantMap(4, 4, 4, 4, 1.5),
			constantMap(2, 2, 2, 2, -0.5),
		}
	)
	d, err := NewDecoder(cfg, []*mesh.Mesh{tmpl})
	assert.NoError(t, err)
	result, err := d.Decode(maps, 2)
	assert.NoError(t, err)

	{ // Initialization plus one batch per step, displacements aligned
		assert.Equal(t, 2, result.NumSteps())
		assert.Equal(t, 3, len(result.Meshes))
		assert.Equal(t, 3, len(result.DeltaV))
		assert.True(t, result.DeltaV[0].IsEmpty())
	}
	{ // Step 0 keeps the template resolution, step 1 unpools 12/20 -> 42/80
		assert.Equal(t, 12, result.Meshes[1].NVerts)
		assert.Equal(t, 20, result.Meshes[1].NFaces)
		assert.Equal(t, 42, result.Meshes[2].NVerts)
		assert.Equal(t, 80, result.Meshes[2].NFaces)
		assert.Equal(t, 42, result.FinalMesh().NVerts)
	}
	{ // Batch and structure counts never change across steps
		for _, mb := range result.Meshes {
			assert.Equal(t, 2, mb.NBatch)
			assert.Equal(t, 1, mb.NStruct)
		}
	}
	{ // Zero weights predict zero displacement, vertices stay put
		assert.True(t, result.DeltaV[1].IsZero())
		assert.True(t, result.DeltaV[2].IsZero())
		want, err := mesh.ReplicateMesh([]*mesh.Mesh{tmpl}, 2)
		assert.NoError(t, err)
		assert.Equal(t, want.VertsPacked().Data(), result.Meshes[1].VertsPacked().Data())
		assert.Equal(t, want.UniformUnpool().VertsPacked().Data(), result.Meshes[2].VertsPacked().Data())
	}
	{ // Mid-sequence features carry the latent width plus coordinates; the
		// final step's identity connector keeps the propagated coordinates
		_, nc := result.Meshes[1].FeaturesPacked().Dims()
		assert.Equal(t, cfg.GraphChannels[1]+3, nc)
		_, nc = result.FinalMesh().FeaturesPacked().Dims()
		assert.Equal(t, cfg.GraphChannels[2]+3+3, nc)
	}
}

func TestDecodeXavier(t *testing.T) {
	var (
		tmpl = mesh.IcoSphere(0)
		cfg  = twoStepConfig()
		maps = []*voxel.FeatureMap{
			constantMap(4, 4, 4, 4, 1.5),
			constantMap(2, 2, 2, 2, -0.5),
		}
	)
	decode := func(seed int64) *Result {
		d, err := NewDecoder(cfg, []*mesh.Mesh{tmpl})
		assert.NoError(t, err)
		d.InitXavier(seed)
		result, err := d.Decode(maps, 1)
		assert.NoError(t, err)
		return result
	}
	{ // Initialized weights move vertices, same seed reproduces the run
		r1 := decode(42)
		r2 := decode(42)
		assert.False(t, r1.DeltaV[1].IsZero())
		assert.Equal(t, r1.FinalMesh().VertsPacked().Data(), r2.FinalMesh().VertsPacked().Data())
	}
	{ // A different seed yields a different surface
		r1 := decode(42)
		r3 := decode(43)
		assert.NotEqual(t, r1.FinalMesh().VertsPacked().Data(), r3.FinalMesh().VertsPacked().Data())
	}
}

func TestDecodeValidation(t *testing.T) {
	tmpl := mesh.IcoSphere(0)
	d, err := NewDecoder(twoStepConfig(), []*mesh.Mesh{tmpl})
	assert.NoError(t, err)
	{ // Map count must match the declared skip channels
		_, err := d.Decode([]*voxel.FeatureMap{constantMap(4, 4, 4, 4, 1)}, 1)
		assert.Error(t, err)
	}
	{ // Per-map channel counts are checked too
		maps := []*voxel.FeatureMap{
			constantMap(4, 4, 4, 4, 1),
			constantMap(2, 2, 2, 3, 1),
		}
		_, err := d.Decode(maps, 1)
		assert.Error(t, err)
	}
	{ // Batch size must be positive
		maps := []*voxel.FeatureMap{
			constantMap(4, 4, 4, 4, 1),
			constantMap(2, 2, 2, 2, 1),
		}
		_, err := d.Decode(maps, 0)
		assert.Error(t, err)
	}
}

func TestDecodeMultiStructure(t *testing.T) {
	templates, err := mesh.SphereTemplate(
		[][3]float64{{-0.4, 0, 0}, {0.4, 0, 0}},
		[]float64{0.3, 0.3}, 0)
	assert.NoError(t, err)
	d, err := NewDecoder(twoStepConfig(), templates)
	assert.NoError(t, err)
	maps := []*voxel.FeatureMap{
		constantMap(4, 4, 4, 4, 1),
		constantMap(2, 2, 2, 2, 1),
	}
	result, err := d.Decode(maps, 3)
	assert.NoError(t, err)
	for _, mb := range result.Meshes {
		assert.Equal(t, 3, mb.NBatch)
		assert.Equal(t, 2, mb.NStruct)
	}
	// 6 units of 12 then 42 vertices run through the packed representation
	nr, _ := result.Meshes[1].VertsPacked().Dims()
	assert.Equal(t, 6*12, nr)
	nr, _ = result.FinalMesh().VertsPacked().Dims()
	assert.Equal(t, 6*42, nr)
}
