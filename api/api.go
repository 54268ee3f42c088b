// Package api works on grid files held in memory, for the CLI and the wasm
// build.
package api

import (
	"math/rand"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/gridmap3d/export"
	"github.com/voxelsplace/gridmap3d/grid3d"
	"github.com/voxelsplace/gridmap3d/gridfile"
	"github.com/voxelsplace/gridmap3d/occupancy"
	"gonum.org/v1/gonum/spatial/r3"
)

// Info describes a grid file.
type Info struct {
	NodeType     string     `json:"node_type"`
	Version      uint8      `json:"version"`
	Resolution   float64    `json:"resolution"`
	MaxVal       uint32     `json:"max_val"`
	Extent       float64    `json:"extent"`
	Compression  string     `json:"compression"`
	PayloadBytes uint64     `json:"payload_bytes"`
	Voxels       int        `json:"voxels"`
	Occupied     int        `json:"occupied"`
	MemoryBytes  int        `json:"memory_bytes"`
	Min          [3]float64 `json:"min"`
	Max          [3]float64 `json:"max"`
	Volume       float64    `json:"volume"`
}

// LoadGrid decodes an occupancy grid file.
func LoadGrid(data []byte, opts ...grid3d.Option) (*occupancy.Grid, gridfile.Header, error) {
	s, h, err := gridfile.Unmarshal(data, occupancy.NodeType, occupancy.NewNode, opts...)
	if err != nil {
		return nil, h, err
	}
	return occupancy.Wrap(s), h, nil
}

// GridInfo decodes a grid file and summarizes it.
func GridInfo(data []byte) (Info, error) {
	g, h, err := LoadGrid(data)
	if err != nil {
		return Info{}, err
	}

	occupied := 0
	g.Range(func(_ grid3d.Key, n *occupancy.Node) bool {
		if n.Occupied() {
			occupied++
		}
		return true
	})
	box := g.Bounds()

	return Info{
		NodeType:     h.NodeType,
		Version:      h.Version,
		Resolution:   h.Resolution,
		MaxVal:       h.MaxVal,
		Extent:       g.Codec().Extent(),
		Compression:  h.Compression.String(),
		PayloadBytes: h.PayloadLen,
		Voxels:       g.Size(),
		Occupied:     occupied,
		MemoryBytes:  g.MemoryUsage(),
		Min:          vec(box.Min),
		Max:          vec(box.Max),
		Volume:       g.Volume(),
	}, nil
}

func vec(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// GridToGLB meshes the occupied voxels of a grid file as GLB.
func GridToGLB(data []byte, name string) ([]byte, error) {
	g, _, err := LoadGrid(data)
	if err != nil {
		return nil, err
	}
	mesh := export.BuildMesh(g.Store, (*occupancy.Node).Occupied, export.DefaultPalette)
	if mesh.Faces == 0 {
		return nil, errors.New("grid has no occupied voxels")
	}
	return export.GLB(mesh, name)
}

// Recompress re-encodes a grid file with another payload codec.
func Recompress(data []byte, compression string) ([]byte, error) {
	comp, err := gridfile.ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	g, _, err := LoadGrid(data)
	if err != nil {
		return nil, err
	}
	return gridfile.Marshal(g.Store, occupancy.NodeType, gridfile.Options{Compression: comp})
}

// MaxNoiseSize bounds NoiseOptions.Size.
const MaxNoiseSize = 1024

// NoiseOptions configures GenerateNoise.
type NoiseOptions struct {
	Resolution float64
	Size       int     // edge of the filled cube, in voxels
	Percentage float64 // share of the cube that is occupied, 0 to 100
	Free       bool    // store the remaining voxels as free space
}

// GenerateNoise fills a cube of Size³ voxels centered on the origin with
// randomly placed occupied voxels.
func GenerateNoise(opts NoiseOptions, r *rand.Rand) (*occupancy.Grid, error) {
	if opts.Size <= 0 || opts.Size > MaxNoiseSize {
		return nil, errors.New("noise cube size out of bounds").
			WithType(grid3d.ErrTypeInvalidConfig).
			WithTag("size", opts.Size).
			WithTag("max_size", MaxNoiseSize)
	}
	g, err := occupancy.New(opts.Resolution)
	if err != nil {
		return nil, err
	}

	perc := opts.Percentage
	if perc < 0 {
		perc = 0
	}
	if perc > 100 {
		perc = 100
	}
	total := opts.Size * opts.Size * opts.Size
	want := int(float64(total)*(perc/100.0) + 0.5)
	if want > total {
		want = total
	}

	// Shuffle only the first want positions. Untouched positions hold their
	// own index, so only swapped ones are stored.
	swapped := make(map[int]int)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	for i := 0; i < want; i++ {
		j := i + r.Intn(total-i)
		swapped[i], swapped[j] = at(j), at(i)
	}

	first := g.Codec().MaxVal() - opts.Size/2
	key := func(i int) grid3d.Key {
		z := i / (opts.Size * opts.Size)
		rem := i % (opts.Size * opts.Size)
		y := rem / opts.Size
		x := rem % opts.Size
		return grid3d.Key{uint16(first + x), uint16(first + y), uint16(first + z)}
	}

	hit := occupancy.LogOdds(0.7)
	miss := occupancy.LogOdds(0.4)
	for k := 0; k < total; k++ {
		switch {
		case k < want:
			g.SetNodeValueKey(key(at(k)), hit+float32(r.Float64()*2))
		case opts.Free:
			g.SetNodeValueKey(key(at(k)), miss)
		default:
			return g, nil
		}
	}
	return g, nil
}
