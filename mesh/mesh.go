package mesh

import (
	"fmt"

	"github.com/govoxmesh/govoxmesh/utils"
)

// PadIndex marks unused face slots in padded tensors. It is never a valid
// vertex index.
const PadIndex = -1

// Face holds three local vertex indices. A face with the last slot set to
// PadIndex degenerates to an edge, a fully padded face is an unused slot.
type Face [3]int

func (f Face) IsPad() bool {
	return f[0] == PadIndex && f[1] == PadIndex && f[2] == PadIndex
}

func (f Face) IsEdge() bool {
	return f[0] != PadIndex && f[1] != PadIndex && f[2] == PadIndex
}

// Mesh is a single triangulated surface: vertex positions V (NVerts x 3)
// and faces indexing into V. Used for templates and exported step surfaces.
type Mesh struct {
	V utils.Matrix
	F []Face
}

func NewMesh(V utils.Matrix, F []Face) (m *Mesh, err error) {
	var (
		nr, nc = V.Dims()
	)
	if nc != 3 {
		err = fmt.Errorf("vertex matrix must have 3 columns, has %d", nc)
		return
	}
	for i, f := range F {
		if err = checkFace(f, nr); err != nil {
			err = fmt.Errorf("face %d: %v", i, err)
			return
		}
	}
	m = &Mesh{V: V, F: F}
	return
}

func (m *Mesh) NumVerts() int { return rows(m.V) }
func (m *Mesh) NumFaces() int { return len(m.F) }

func (m *Mesh) Copy() *Mesh {
	F := make([]Face, len(m.F))
	copy(F, m.F)
	return &Mesh{V: m.V.Copy(), F: F}
}

// Edges lists the directed edges contributed by each face, three per
// triangle, one per degenerate edge-face. Duplicates are not removed.
func (m *Mesh) Edges() [][2]int {
	return faceEdges(m.F, 0)
}

// UniqueEdges lists undirected edges deduplicated in order of first
// occurrence when scanning faces canonically. This order is the re-indexing
// contract for unpooling: batch members with identical topology produce
// identical edge orderings.
func UniqueEdges(faces []Face) (edges [][2]int) {
	seen := make(map[[2]int]int)
	for _, e := range faceEdges(faces, 0) {
		key := [2]int{e[0], e[1]}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if _, ok := seen[key]; !ok {
			seen[key] = len(edges)
			edges = append(edges, key)
		}
	}
	return
}

func faceEdges(faces []Face, offset int) (edges [][2]int) {
	for _, f := range faces {
		switch {
		case f.IsPad():
			continue
		case f.IsEdge():
			edges = append(edges, [2]int{f[0] + offset, f[1] + offset})
		default:
			edges = append(edges,
				[2]int{f[0] + offset, f[1] + offset},
				[2]int{f[1] + offset, f[2] + offset},
				[2]int{f[2] + offset, f[0] + offset})
		}
	}
	return
}

// checkFace enforces the index contract: a face is fully padded, a
// triangle, or an edge with exactly the last slot set to the sentinel.
// Every non-sentinel slot must index into [0, nVerts).
func checkFace(f Face, nVerts int) error {
	if f.IsPad() {
		return nil
	}
	if f[0] == PadIndex || f[1] == PadIndex {
		return fmt.Errorf("malformed face %v: padding sentinel in a leading slot", f)
	}
	for _, v := range f {
		if v == PadIndex {
			continue
		}
		if v < 0 || v >= nVerts {
			return fmt.Errorf("vertex index %d outside [0, %d) and not the padding sentinel", v, nVerts)
		}
	}
	return nil
}

func rows(m utils.Matrix) int {
	nr, _ := m.Dims()
	return nr
}
