package mesh

import (
	"fmt"
	"math"

	"github.com/govoxmesh/govoxmesh/utils"
)

// IcoSphere generates the canonical subdivided icosahedron template with
// unit radius. Level 0 is the icosahedron itself (12 vertices, 20 faces),
// each level quadruples the face count (level 1: 42/80, level 2: 162/320).
func IcoSphere(level int) (m *Mesh) {
	if level < 0 {
		err := fmt.Errorf("icosphere level must be non-negative, got %d", level)
		panic(err)
	}
	m = icosahedron()
	for l := 0; l < level; l++ {
		m = UniformUnpoolMesh(m)
		normalizeRadius(m.V, 1)
	}
	return
}

// SphereTemplate builds one sphere surface per structure, centered and
// scaled per structure. All spheres share the same level, hence identical
// vertex and face counts, as the batched decoder requires.
func SphereTemplate(centers [][3]float64, radii []float64, level int) (templates []*Mesh, err error) {
	if len(centers) != len(radii) {
		err = fmt.Errorf("number of centers and radii must be equal: %d vs %d", len(centers), len(radii))
		return
	}
	for s := range centers {
		sph := IcoSphere(level)
		var (
			data = sph.V.Data()
			nr   = sph.NumVerts()
		)
		for i := 0; i < nr; i++ {
			for j := 0; j < 3; j++ {
				data[i*3+j] = data[i*3+j]*radii[s] + centers[s][j]
			}
		}
		templates = append(templates, sph)
	}
	return
}

// normalizeRadius projects every vertex onto the sphere of radius r.
func normalizeRadius(V utils.Matrix, r float64) {
	var (
		nr, _ = V.Dims()
	)
	for i := 0; i < nr; i++ {
		var (
			v = V.Row(i)
			n = v.Norm()
		)
		if n == 0 {
			continue
		}
		V.SetRow(i, v.Scale(r/n).RawVector())
	}
}

func icosahedron() *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	V := utils.NewMatrix(12, 3, []float64{
		-1, t, 0,
		1, t, 0,
		-1, -t, 0,
		1, -t, 0,
		0, -1, t,
		0, 1, t,
		0, -1, -t,
		0, 1, -t,
		t, 0, -1,
		t, 0, 1,
		-t, 0, -1,
		-t, 0, 1,
	})
	normalizeRadius(V, 1)
	F := []Face{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	return &Mesh{V: V, F: F}
}
