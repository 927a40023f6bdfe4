package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/govoxmesh/govoxmesh/utils"
)

// ReadOBJ loads a template surface from a Wavefront OBJ file. Only vertex
// (v) and triangular face (f) records are consumed; face indices may carry
// texture/normal suffixes (a/b/c) and are converted from 1-based to
// 0-based.
func ReadOBJ(path string) (m *Mesh, err error) {
	var (
		file  *os.File
		verts []float64
		faces []Face
	)
	if file, err = os.Open(path); err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				err = fmt.Errorf("line %d: vertex record needs 3 coordinates", lineNo)
				return
			}
			for _, fs := range fields[1:4] {
				var val float64
				if val, err = strconv.ParseFloat(fs, 64); err != nil {
					err = fmt.Errorf("line %d: bad coordinate %q: %v", lineNo, fs, err)
					return
				}
				verts = append(verts, val)
			}
		case "f":
			if len(fields) != 4 {
				err = fmt.Errorf("line %d: only triangular faces are supported, got %d indices", lineNo, len(fields)-1)
				return
			}
			var f Face
			for k, fs := range fields[1:4] {
				idx := fs
				if slash := strings.IndexByte(fs, '/'); slash >= 0 {
					idx = fs[:slash]
				}
				var v int
				if v, err = strconv.Atoi(idx); err != nil {
					err = fmt.Errorf("line %d: bad face index %q: %v", lineNo, fs, err)
					return
				}
				f[k] = v - 1
			}
			faces = append(faces, f)
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	if len(verts) == 0 {
		err = fmt.Errorf("%s: no vertices found", path)
		return
	}
	V := utils.NewMatrix(len(verts)/3, 3, verts)
	return NewMesh(V, faces)
}

// WriteOBJ exports a surface in Wavefront OBJ format, faces 1-based.
func WriteOBJ(path string, m *Mesh) (err error) {
	var (
		file *os.File
	)
	if file, err = os.Create(path); err != nil {
		return
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	var (
		nr   = m.NumVerts()
		data = m.V.Data()
	)
	for i := 0; i < nr; i++ {
		if _, err = fmt.Fprintf(w, "v %.8f %.8f %.8f\n", data[i*3], data[i*3+1], data[i*3+2]); err != nil {
			return
		}
	}
	for _, f := range m.F {
		if f.IsPad() {
			continue
		}
		if _, err = fmt.Fprintf(w, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1); err != nil {
			return
		}
	}
	return w.Flush()
}

// NormalizeRadius projects the mesh vertices onto the sphere of radius r,
// matching the sphere-template convention for decoder seeding.
func (m *Mesh) NormalizeRadius(r float64) {
	normalizeRadius(m.V, r)
}
