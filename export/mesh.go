// Package export turns a voxel store into a surface mesh and writes it as
// GLB.
package export

import (
	"github.com/voxelsplace/gridmap3d/grid3d"
	"gonum.org/v1/gonum/spatial/r3"
)

type Vertex struct {
	Position [3]float32
	Color    [4]float32
}

// Mesh is an indexed triangle list. Positions are metric, Z up.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Normals  [][3]float32
	Faces    int
}

type dirSpec struct {
	normal [3]int
	u, v   int
}

var directions = []dirSpec{
	{[3]int{1, 0, 0}, 1, 2},
	{[3]int{-1, 0, 0}, 1, 2},
	{[3]int{0, 1, 0}, 0, 2},
	{[3]int{0, -1, 0}, 0, 2},
	{[3]int{0, 0, 1}, 0, 1},
	{[3]int{0, 0, -1}, 0, 1},
}

// BuildMesh emits one quad for every face of a solid voxel whose neighbour
// across that face is not solid. solid selects the voxels to mesh; nil meshes
// every stored voxel. Voxels are visited in Morton order so the output is the
// same for equal contents.
func BuildMesh[N grid3d.Node[N]](s *grid3d.Store[N], solid func(N) bool, palette Palette) *Mesh {
	keys := make([]grid3d.Key, 0, s.Size())
	set := make(map[grid3d.Key]struct{}, s.Size())
	s.Range(func(k grid3d.Key, n N) bool {
		if solid == nil || solid(n) {
			keys = append(keys, k)
			set[k] = struct{}{}
		}
		return true
	})
	grid3d.SortMorton(keys)

	mesh := &Mesh{}
	if len(keys) == 0 {
		return mesh
	}

	codec := s.Codec()
	res := codec.Resolution()
	lo, hi := zRange(codec, keys)

	for _, k := range keys {
		center := codec.KeyToCoord3(k)
		color := palette.HeightColor(center.Z, lo, hi)
		corner := r3.Sub(center, r3.Vec{X: res / 2, Y: res / 2, Z: res / 2})

		for _, dir := range directions {
			adj, ok := neighbour(k, dir.normal)
			if ok {
				if _, filled := set[adj]; filled {
					continue
				}
			}
			addQuad(mesh, dir, corner, res, color)
		}
	}
	return mesh
}

// neighbour steps one voxel along normal. Keys at the edge of the key space
// have no neighbour on their outer side.
func neighbour(k grid3d.Key, normal [3]int) (grid3d.Key, bool) {
	for i, d := range normal {
		switch {
		case d > 0 && k[i] == 0xFFFF:
			return k, false
		case d < 0 && k[i] == 0:
			return k, false
		}
		k[i] = uint16(int(k[i]) + d)
	}
	return k, true
}

func zRange(codec grid3d.Codec, keys []grid3d.Key) (float64, float64) {
	lo, hi := keys[0][2], keys[0][2]
	for _, k := range keys[1:] {
		if k[2] < lo {
			lo = k[2]
		}
		if k[2] > hi {
			hi = k[2]
		}
	}
	return codec.KeyToCoord(lo), codec.KeyToCoord(hi)
}

func addQuad(mesh *Mesh, dir dirSpec, corner r3.Vec, res float64, color [4]float32) {
	perp := 3 - dir.u - dir.v
	origin := [3]float64{corner.X, corner.Y, corner.Z}

	base := origin
	if dir.normal[perp] > 0 {
		base[perp] += res
	}
	du, dv := base, base
	du[dir.u] += res
	dv[dir.v] += res
	duv := du
	duv[dir.v] += res

	verts := [4][3]float64{base, du, duv, dv}
	// Counter-clockwise seen from outside the voxel.
	if (dir.normal[perp] < 0) != (perp == 1) {
		verts[1], verts[3] = verts[3], verts[1]
	}

	var normal [3]float32
	normal[perp] = float32(dir.normal[perp])

	baseIdx := uint32(len(mesh.Vertices))
	for _, p := range verts {
		mesh.Vertices = append(mesh.Vertices, Vertex{
			Position: [3]float32{float32(p[0]), float32(p[1]), float32(p[2])},
			Color:    color,
		})
		mesh.Normals = append(mesh.Normals, normal)
	}
	mesh.Indices = append(mesh.Indices, baseIdx, baseIdx+1, baseIdx+2, baseIdx, baseIdx+2, baseIdx+3)
	mesh.Faces++
}
