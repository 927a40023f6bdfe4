package voxel

import (
	"fmt"
	"math"
)

// FeatureMap is a dense 3D grid of feature vectors, one per voxel, as
// produced by a convolutional encoder/decoder at some resolution. The grid
// covers the normalized coordinate frame [-1, 1] per axis: voxel (0,0,0)
// sits at (-1,-1,-1) and voxel (NX-1, NY-1, NZ-1) at (1,1,1), regardless
// of resolution. Storage is channel-fastest, x, then y, then z.
type FeatureMap struct {
	NX, NY, NZ int
	Channels   int
	data       []float64
}

func NewFeatureMap(nx, ny, nz, channels int, dataO ...[]float64) (fm *FeatureMap) {
	if nx < 1 || ny < 1 || nz < 1 || channels < 1 {
		err := fmt.Errorf("feature map dimensions must be positive: %dx%dx%dx%d", nx, ny, nz, channels)
		panic(err)
	}
	size := nx * ny * nz * channels
	var data []float64
	if len(dataO) != 0 {
		if len(dataO[0]) != size {
			err := fmt.Errorf("mismatch in allocation: NewFeatureMap %dx%dx%dx%d, len(data[0]) = %d",
				nx, ny, nz, channels, len(dataO[0]))
			panic(err)
		}
		data = dataO[0]
	} else {
		data = make([]float64, size)
	}
	fm = &FeatureMap{NX: nx, NY: ny, NZ: nz, Channels: channels, data: data}
	return
}

func (fm *FeatureMap) index(x, y, z int) int {
	return ((z*fm.NY+y)*fm.NX + x) * fm.Channels
}

// At returns the feature vector stored at voxel (x,y,z). The returned slice
// aliases the map's storage.
func (fm *FeatureMap) At(x, y, z int) []float64 {
	i := fm.index(x, y, z)
	return fm.data[i : i+fm.Channels]
}

func (fm *FeatureMap) Set(x, y, z int, vals []float64) {
	if len(vals) != fm.Channels {
		err := fmt.Errorf("feature vector has %d channels, map has %d", len(vals), fm.Channels)
		panic(err)
	}
	copy(fm.At(x, y, z), vals)
}

// voxelCoord maps one normalized coordinate in [-1,1] to the continuous
// voxel coordinate in [0, n-1], clamped at the grid boundary. The mapping
// places grid points exactly at voxel centers, so sampling at a center
// reproduces the stored value.
func voxelCoord(p float64, n int) float64 {
	c := (p + 1) / 2 * float64(n-1)
	if c < 0 {
		return 0
	}
	if max := float64(n - 1); c > max {
		return max
	}
	return c
}

// SampleTrilinear blends the 8 voxels surrounding the normalized position p
// by distance and accumulates the result into out (len Channels).
func (fm *FeatureMap) SampleTrilinear(p [3]float64, out []float64) {
	var (
		cx = voxelCoord(p[0], fm.NX)
		cy = voxelCoord(p[1], fm.NY)
		cz = voxelCoord(p[2], fm.NZ)

		x0, y0, z0 = int(math.Floor(cx)), int(math.Floor(cy)), int(math.Floor(cz))
		x1, y1, z1 = clampIdx(x0+1, fm.NX), clampIdx(y0+1, fm.NY), clampIdx(z0+1, fm.NZ)

		fx = cx - float64(x0)
		fy = cy - float64(y0)
		fz = cz - float64(z0)
	)
	for c := 0; c < fm.Channels; c++ {
		out[c] = 0
	}
	accum := func(x, y, z int, w float64) {
		if w == 0 {
			return
		}
		vals := fm.At(x, y, z)
		for c, v := range vals {
			out[c] += w * v
		}
	}
	accum(x0, y0, z0, (1-fx)*(1-fy)*(1-fz))
	accum(x1, y0, z0, fx*(1-fy)*(1-fz))
	accum(x0, y1, z0, (1-fx)*fy*(1-fz))
	accum(x1, y1, z0, fx*fy*(1-fz))
	accum(x0, y0, z1, (1-fx)*(1-fy)*fz)
	accum(x1, y0, z1, fx*(1-fy)*fz)
	accum(x0, y1, z1, (1-fx)*fy*fz)
	accum(x1, y1, z1, fx*fy*fz)
}

// SampleNearest copies the feature vector of the voxel whose center is
// closest to the normalized position p into out.
func (fm *FeatureMap) SampleNearest(p [3]float64, out []float64) {
	var (
		x = clampIdx(int(math.Round(voxelCoord(p[0], fm.NX))), fm.NX)
		y = clampIdx(int(math.Round(voxelCoord(p[1], fm.NY))), fm.NY)
		z = clampIdx(int(math.Round(voxelCoord(p[2], fm.NZ))), fm.NZ)
	)
	copy(out, fm.At(x, y, z))
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
