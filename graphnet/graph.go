package graphnet

import (
	"fmt"
	"math"

	"github.com/govoxmesh/govoxmesh/utils"
)

// distEps keeps inverse-distance edge weights finite for coincident
// vertices.
const distEps = 1.e-8

// Graph is the per-step message-passing topology: the packed edge list of a
// MeshBatch together with the current packed vertex coordinates. Adjacency
// operators are assembled lazily and cached, which is safe because a Graph
// is built fresh after every topology or coordinate change.
type Graph struct {
	NVerts int
	Coords utils.Matrix // NVerts x 3, required for weighted operators

	neighbors [][]int
	deg       []int

	mean     *utils.CSR
	sum      *utils.CSR
	weighted *utils.CSR
}

// NewGraph assembles the neighbor structure from a directed edge list.
// Duplicate and reversed edges collapse to a single undirected neighbor
// relation.
func NewGraph(nVerts int, edges [][2]int, coords utils.Matrix) (g *Graph) {
	g = &Graph{
		NVerts: nVerts,
		Coords: coords,
	}
	seen := make(map[[2]int]struct{}, 2*len(edges))
	g.neighbors = make([][]int, nVerts)
	add := func(s, t int) {
		if s < 0 || s >= nVerts || t < 0 || t >= nVerts {
			err := fmt.Errorf("edge (%d,%d) outside vertex range [0,%d)", s, t, nVerts)
			panic(err)
		}
		if _, ok := seen[[2]int{s, t}]; ok {
			return
		}
		seen[[2]int{s, t}] = struct{}{}
		g.neighbors[s] = append(g.neighbors[s], t)
	}
	for _, e := range edges {
		add(e[0], e[1])
		add(e[1], e[0])
	}
	g.deg = make([]int, nVerts)
	for i, nbrs := range g.neighbors {
		g.deg[i] = len(nbrs)
	}
	return
}

func (g *Graph) Degree(i int) int { return g.deg[i] }

// MeanAdjacency is the row-normalized neighbor operator: multiplying it
// with a feature matrix yields the per-vertex neighbor average. Isolated
// vertices average to zero.
func (g *Graph) MeanAdjacency() utils.CSR {
	if g.mean == nil {
		D := utils.NewDOK(g.NVerts, g.NVerts)
		for i, nbrs := range g.neighbors {
			if len(nbrs) == 0 {
				continue
			}
			w := 1 / float64(len(nbrs))
			for _, j := range nbrs {
				D.Set(i, j, w)
			}
		}
		csr := D.ToCSR()
		g.mean = &csr
	}
	return *g.mean
}

// SumAdjacency is the unnormalized 0/1 neighbor operator used by the
// degree-normalized convolution variant.
func (g *Graph) SumAdjacency() utils.CSR {
	if g.sum == nil {
		D := utils.NewDOK(g.NVerts, g.NVerts)
		for i, nbrs := range g.neighbors {
			for _, j := range nbrs {
				D.Set(i, j, 1)
			}
		}
		csr := D.ToCSR()
		g.sum = &csr
	}
	return *g.sum
}

// WeightedMeanAdjacency weights each neighbor by the inverse euclidean
// distance between the incident vertex positions, normalized per row.
// Close vertices dominate the message, which is the edge-weighted variant
// of the message-passing capability.
func (g *Graph) WeightedMeanAdjacency() utils.CSR {
	if g.weighted == nil {
		if g.Coords.IsEmpty() {
			err := fmt.Errorf("weighted adjacency requires vertex coordinates")
			panic(err)
		}
		var (
			D  = utils.NewDOK(g.NVerts, g.NVerts)
			xy = g.Coords.Data()
		)
		for i, nbrs := range g.neighbors {
			if len(nbrs) == 0 {
				continue
			}
			var (
				ws    = make([]float64, len(nbrs))
				total float64
			)
			for k, j := range nbrs {
				var d2 float64
				for c := 0; c < 3; c++ {
					diff := xy[i*3+c] - xy[j*3+c]
					d2 += diff * diff
				}
				w := 1 / (math.Sqrt(d2) + distEps)
				ws[k] = w
				total += w
			}
			for k, j := range nbrs {
				D.Set(i, j, ws[k]/total)
			}
		}
		csr := D.ToCSR()
		g.weighted = &csr
	}
	return *g.weighted
}
