package mesh

import (
	"fmt"

	"github.com/govoxmesh/govoxmesh/utils"
)

// UniformUnpool refines every unit of the batch by edge-midpoint
// subdivision: one new vertex per unique undirected edge, every triangle
// replaced by four. Latent features, when attached, are interpolated to the
// midpoints along with positions. The input batch is left untouched.
//
// New vertices are appended after the existing ones in first-occurrence
// edge order, which is identical across units sharing the template
// topology, so the batch-uniform vertex count invariant is preserved. A
// batch whose units would disagree on the refined vertex count (divergent
// or non-manifold topology) is a precondition violation and panics.
func (mb *MeshBatch) UniformUnpool() (R *MeshBatch) {
	var (
		nUnits   = mb.NumUnits()
		newVerts = make([]utils.Matrix, nUnits)
		newFeats []utils.Matrix
		newFaces = make([][]Face, nUnits)
		featDim  = mb.FeatureDim()
		vSplit   = mb.VertsPadded()
		fSplit   = mb.FeaturesPadded()
		nEdges   = -1
	)
	if featDim > 0 {
		newFeats = make([]utils.Matrix, nUnits)
	}
	for u := 0; u < nUnits; u++ {
		edges := UniqueEdges(mb.faces[u])
		if nEdges < 0 {
			nEdges = len(edges)
		} else if len(edges) != nEdges {
			err := fmt.Errorf("unpool would diverge: unit %d has %d unique edges, unit 0 has %d", u, len(edges), nEdges)
			panic(err)
		}
		newVerts[u] = midpointAppend(vSplit[u], edges)
		if featDim > 0 {
			newFeats[u] = midpointAppend(fSplit[u], edges)
		}
		newFaces[u] = subdivideFaces(mb.faces[u], edges, mb.NVerts)
	}
	R, err := NewMeshBatch(mb.NBatch, mb.NStruct, newVerts, newFeats, newFaces)
	if err != nil {
		panic(err)
	}
	return
}

// midpointAppend stacks rows for the edge midpoints under the original
// rows: row NVerts+k is the mean of edge k's endpoint rows.
func midpointAppend(M utils.Matrix, edges [][2]int) (R utils.Matrix) {
	var (
		nr, nc = M.Dims()
		data   = M.Data()
	)
	R = utils.NewMatrix(nr+len(edges), nc)
	dataR := R.Data()
	copy(dataR[:nr*nc], data)
	for k, e := range edges {
		var (
			a = e[0] * nc
			b = e[1] * nc
			o = (nr + k) * nc
		)
		for j := 0; j < nc; j++ {
			dataR[o+j] = 0.5 * (data[a+j] + data[b+j])
		}
	}
	return
}

// subdivideFaces replaces each triangle (v0,v1,v2) with three corner
// triangles and the center triangle of its midpoints. Padded slots expand
// to four padded slots so the face count stays exactly 4x.
func subdivideFaces(faces []Face, edges [][2]int, nVerts int) (R []Face) {
	midpoint := make(map[[2]int]int, len(edges))
	for k, e := range edges {
		midpoint[e] = nVerts + k
	}
	mid := func(a, b int) int {
		key := [2]int{a, b}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		m, ok := midpoint[key]
		if !ok {
			err := fmt.Errorf("no midpoint for edge (%d,%d)", a, b)
			panic(err)
		}
		return m
	}
	pad := Face{PadIndex, PadIndex, PadIndex}
	R = make([]Face, 0, 4*len(faces))
	for _, f := range faces {
		if f.IsPad() {
			R = append(R, pad, pad, pad, pad)
			continue
		}
		if f.IsEdge() {
			err := fmt.Errorf("cannot subdivide degenerate edge-face %v", f)
			panic(err)
		}
		var (
			m01 = mid(f[0], f[1])
			m12 = mid(f[1], f[2])
			m20 = mid(f[2], f[0])
		)
		R = append(R,
			Face{f[0], m01, m20},
			Face{f[1], m12, m01},
			Face{f[2], m20, m12},
			Face{m01, m12, m20})
	}
	return
}

// UniformUnpoolMesh subdivides a stand-alone surface once, returning the
// refined mesh. Used for template generation.
func UniformUnpoolMesh(m *Mesh) (R *Mesh) {
	edges := UniqueEdges(m.F)
	V := midpointAppend(m.V, edges)
	F := subdivideFaces(m.F, edges, m.NumVerts())
	R = &Mesh{V: V, F: F}
	return
}
