package mesh

import (
	"fmt"

	"github.com/govoxmesh/govoxmesh/utils"
)

// MeshBatch is a batched, multi-structure triangle mesh: NBatch samples by
// NStruct anatomical structures, each with the same NVerts vertices and
// NFaces face slots. Vertex positions and latent features are stored packed
// (unit-major, unit = b*NStruct + s); padded views are derived on demand,
// never stored, so the two views cannot diverge.
//
// All mutation goes through MoveVerts and UpdateFeatures. Everything else
// returns fresh tensors.
type MeshBatch struct {
	NBatch, NStruct int
	NVerts, NFaces  int
	verts           utils.Matrix // (NBatch*NStruct*NVerts) x 3
	feats           utils.Matrix // (NBatch*NStruct*NVerts) x C, empty if C == 0
	faces           [][]Face     // per unit, local vertex indices
}

// NewMeshBatch constructs a batch from padded per-unit tensors laid out
// unit-major. feats may be nil when no latent features are attached yet.
func NewMeshBatch(nBatch, nStruct int, verts, feats []utils.Matrix, faces [][]Face) (mb *MeshBatch, err error) {
	var (
		nUnits = nBatch * nStruct
	)
	if nBatch < 1 || nStruct < 1 {
		err = fmt.Errorf("batch and structure counts must be positive, got %d, %d", nBatch, nStruct)
		return
	}
	if len(verts) != nUnits || len(faces) != nUnits {
		err = fmt.Errorf("padded tensor unit counts disagree: %d vertex units, %d face units, want %d",
			len(verts), len(faces), nUnits)
		return
	}
	if feats != nil && len(feats) != nUnits {
		err = fmt.Errorf("feature tensor has %d units, want %d", len(feats), nUnits)
		return
	}
	var (
		nVerts, nc = verts[0].Dims()
		nFaces     = len(faces[0])
		featDim    int
	)
	if nc != 3 {
		err = fmt.Errorf("vertex tensors must have 3 columns, have %d", nc)
		return
	}
	if feats != nil {
		_, featDim = feats[0].Dims()
	}
	for u := 0; u < nUnits; u++ {
		vnr, vnc := verts[u].Dims()
		if vnr != nVerts || vnc != 3 {
			err = fmt.Errorf("unit %d vertex tensor is %dx%d, want %dx3", u, vnr, vnc, nVerts)
			return
		}
		if feats != nil {
			fnr, fnc := feats[u].Dims()
			if fnr != nVerts || fnc != featDim {
				err = fmt.Errorf("unit %d feature tensor is %dx%d, want %dx%d", u, fnr, fnc, nVerts, featDim)
				return
			}
		}
		if len(faces[u]) != nFaces {
			err = fmt.Errorf("unit %d has %d face slots, want %d", u, len(faces[u]), nFaces)
			return
		}
		for i, f := range faces[u] {
			if ferr := checkFace(f, nVerts); ferr != nil {
				err = fmt.Errorf("unit %d face %d: %v", u, i, ferr)
				return
			}
		}
	}
	mb = &MeshBatch{
		NBatch:  nBatch,
		NStruct: nStruct,
		NVerts:  nVerts,
		NFaces:  nFaces,
	}
	mb.verts = utils.ConcatRows(verts...)
	if feats != nil && featDim > 0 {
		mb.feats = utils.ConcatRows(feats...)
	}
	mb.faces = make([][]Face, nUnits)
	for u := range faces {
		mb.faces[u] = make([]Face, nFaces)
		copy(mb.faces[u], faces[u])
	}
	return
}

// ReplicateMesh seeds a batch by copying one template mesh per structure
// across the batch dimension. The templates are copied, never aliased, so
// the stored template stays immutable across invocations.
func ReplicateMesh(templates []*Mesh, nBatch int) (mb *MeshBatch, err error) {
	var (
		nStruct = len(templates)
	)
	if nStruct == 0 {
		err = fmt.Errorf("need at least one structure template")
		return
	}
	nVerts := templates[0].NumVerts()
	nFaces := templates[0].NumFaces()
	for s, tmpl := range templates {
		if tmpl.NumVerts() != nVerts || tmpl.NumFaces() != nFaces {
			err = fmt.Errorf("structure template %d is %dv/%df, want %dv/%df: structures must share vertex and face counts",
				s, tmpl.NumVerts(), tmpl.NumFaces(), nVerts, nFaces)
			return
		}
	}
	var (
		verts = make([]utils.Matrix, 0, nBatch*nStruct)
		faces = make([][]Face, 0, nBatch*nStruct)
	)
	for b := 0; b < nBatch; b++ {
		for _, tmpl := range templates {
			verts = append(verts, tmpl.V.Copy())
			F := make([]Face, nFaces)
			copy(F, tmpl.F)
			faces = append(faces, F)
		}
	}
	return NewMeshBatch(nBatch, nStruct, verts, nil, faces)
}

func (mb *MeshBatch) NumUnits() int { return mb.NBatch * mb.NStruct }

func (mb *MeshBatch) FeatureDim() int {
	if mb.feats.IsEmpty() {
		return 0
	}
	_, c := mb.feats.Dims()
	return c
}

// VertsPadded returns per-unit NVerts x 3 position tensors, derived from
// the packed store.
func (mb *MeshBatch) VertsPadded() (R []utils.Matrix) {
	return mb.splitUnits(mb.verts)
}

// FeaturesPadded returns per-unit NVerts x C feature tensors, or nil when
// no features are attached.
func (mb *MeshBatch) FeaturesPadded() (R []utils.Matrix) {
	if mb.feats.IsEmpty() {
		return nil
	}
	return mb.splitUnits(mb.feats)
}

// FacesPadded returns per-unit face slot lists, padding sentinels included.
func (mb *MeshBatch) FacesPadded() (R [][]Face) {
	R = make([][]Face, mb.NumUnits())
	for u := range mb.faces {
		R[u] = make([]Face, mb.NFaces)
		copy(R[u], mb.faces[u])
	}
	return
}

// VertsPacked returns the flattened (NBatch*NStruct*NVerts) x 3 position
// tensor.
func (mb *MeshBatch) VertsPacked() utils.Matrix {
	return mb.verts.Copy()
}

// FeaturesPacked returns the flattened feature tensor, empty if none.
func (mb *MeshBatch) FeaturesPacked() utils.Matrix {
	if mb.feats.IsEmpty() {
		return utils.Matrix{}
	}
	return mb.feats.Copy()
}

// FacesPacked returns all non-padded faces with vertex indices offset by
// unit*NVerts, so they index the packed vertex tensor directly.
func (mb *MeshBatch) FacesPacked() (R []Face) {
	for u, unitFaces := range mb.faces {
		offset := u * mb.NVerts
		for _, f := range unitFaces {
			if f.IsPad() {
				continue
			}
			g := f
			for k := range g {
				if g[k] != PadIndex {
					g[k] += offset
				}
			}
			R = append(R, g)
		}
	}
	return
}

// EdgesPacked derives directed edges from the packed faces, three per
// triangle, one per degenerate edge-face. Duplicates are allowed; consumers
// deduplicate when needed. Must be re-derived after any topology change.
func (mb *MeshBatch) EdgesPacked() [][2]int {
	return faceEdges(mb.FacesPacked(), 0)
}

// MoveVerts adds a per-vertex displacement to the packed positions. The
// offset must match the packed position tensor exactly.
func (mb *MeshBatch) MoveVerts(offset utils.Matrix) {
	var (
		nr, nc   = mb.verts.Dims()
		onr, onc = offset.Dims()
	)
	if onr != nr || onc != nc {
		err := fmt.Errorf("displacement shape %dx%d does not match vertex tensor %dx%d", onr, onc, nr, nc)
		panic(err)
	}
	mb.verts.Add(offset)
}

// UpdateFeatures replaces the latent feature tensor. The row count must
// match the packed vertex count; the channel width may change.
func (mb *MeshBatch) UpdateFeatures(feats utils.Matrix) {
	var (
		nr, _  = mb.verts.Dims()
		fnr, _ = feats.Dims()
	)
	if fnr != nr {
		err := fmt.Errorf("feature tensor has %d rows, vertex tensor has %d", fnr, nr)
		panic(err)
	}
	mb.feats = feats.Copy()
}

func (mb *MeshBatch) Copy() (R *MeshBatch) {
	R = &MeshBatch{
		NBatch:  mb.NBatch,
		NStruct: mb.NStruct,
		NVerts:  mb.NVerts,
		NFaces:  mb.NFaces,
		verts:   mb.verts.Copy(),
		faces:   mb.FacesPadded(),
	}
	if !mb.feats.IsEmpty() {
		R.feats = mb.feats.Copy()
	}
	return
}

// UnitMesh exports one (batch, structure) surface as a stand-alone Mesh,
// padding slots dropped.
func (mb *MeshBatch) UnitMesh(b, s int) (m *Mesh, err error) {
	if b < 0 || b >= mb.NBatch || s < 0 || s >= mb.NStruct {
		err = fmt.Errorf("unit (%d,%d) outside batch %dx%d", b, s, mb.NBatch, mb.NStruct)
		return
	}
	var (
		u = b*mb.NStruct + s
		F []Face
	)
	for _, f := range mb.faces[u] {
		if f.IsPad() {
			continue
		}
		F = append(F, f)
	}
	V := mb.verts.Slice(u*mb.NVerts, (u+1)*mb.NVerts, 0, 3)
	return NewMesh(V, F)
}

func (mb *MeshBatch) splitUnits(packed utils.Matrix) (R []utils.Matrix) {
	var (
		_, nc = packed.Dims()
	)
	R = make([]utils.Matrix, mb.NumUnits())
	for u := range R {
		R[u] = packed.Slice(u*mb.NVerts, (u+1)*mb.NVerts, 0, nc)
	}
	return
}
