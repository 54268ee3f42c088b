package export

import (
	"bytes"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Generator is written to the asset metadata of every document.
const Generator = "gridmap3d -> GLB"

// Document builds a glTF document holding the mesh as a single node. glTF is
// Y up, so map coordinates (x, y, z) are written as (x, z, -y).
func Document(mesh *Mesh, name string) (*gltf.Document, error) {
	if len(mesh.Vertices) == 0 {
		return nil, errors.New("mesh has no faces")
	}

	positions := make([][3]float32, len(mesh.Vertices))
	colors := make([][4]float32, len(mesh.Vertices))
	normals := make([][3]float32, len(mesh.Vertices))
	hasAlpha := false
	for i, v := range mesh.Vertices {
		positions[i] = yUp(v.Position)
		colors[i] = v.Color
		if v.Color[3] < 1.0 {
			hasAlpha = true
		}
		if i < len(mesh.Normals) {
			normals[i] = yUp(mesh.Normals[i])
		}
	}
	indices := make([]uint32, len(mesh.Indices))
	copy(indices, mesh.Indices)

	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	colorAccessor := modeler.WriteColor(doc, colors)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}
	setAttribute(&prim.Attributes, gltf.POSITION, posAccessor)
	setAttribute(&prim.Attributes, gltf.NORMAL, normalAccessor)
	setAttribute(&prim.Attributes, gltf.COLOR_0, colorAccessor)

	// Colours come from COLOR_0.
	material := &gltf.Material{Name: "voxel", AlphaMode: gltf.AlphaOpaque}
	if hasAlpha {
		material.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = []*gltf.Material{material}

	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// setAttribute adds an accessor to a primitive attribute map.
func setAttribute[M ~map[string]V, V any](m *M, name string, accessor V) {
	if *m == nil {
		*m = make(M)
	}
	(*m)[name] = accessor
}

func yUp(p [3]float32) [3]float32 {
	return [3]float32{p[0], p[2], -p[1]}
}

// GLB encodes the mesh as a binary glTF file.
func GLB(mesh *Mesh, name string) ([]byte, error) {
	doc, err := Document(mesh, name)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// SaveGLB writes the mesh as a binary glTF file at path.
func SaveGLB(mesh *Mesh, name, path string) error {
	b, err := GLB(mesh, name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
