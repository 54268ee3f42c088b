package api

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/gridmap3d/grid3d"
	"github.com/voxelsplace/gridmap3d/gridfile"
	"github.com/voxelsplace/gridmap3d/occupancy"
)

func noiseFile(t *testing.T, opts NoiseOptions, comp gridfile.Compression) []byte {
	t.Helper()
	g, err := GenerateNoise(opts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	data, err := gridfile.Marshal(g.Store, occupancy.NodeType, gridfile.Options{Compression: comp})
	require.NoError(t, err)
	return data
}

func countOccupied(g *occupancy.Grid) int {
	n := 0
	g.Range(func(_ grid3d.Key, node *occupancy.Node) bool {
		if node.Occupied() {
			n++
		}
		return true
	})
	return n
}

func TestGenerateNoise(t *testing.T) {
	g, err := GenerateNoise(NoiseOptions{Resolution: 0.1, Size: 4, Percentage: 50}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 32, g.Size())
	require.Equal(t, 32, countOccupied(g))

	// The cube is centered on the origin.
	g.Range(func(k grid3d.Key, _ *occupancy.Node) bool {
		for i := 0; i < 3; i++ {
			require.GreaterOrEqual(t, int(k[i]), grid3d.DefaultMaxVal-2)
			require.Less(t, int(k[i]), grid3d.DefaultMaxVal+2)
		}
		return true
	})

	g, err = GenerateNoise(NoiseOptions{Resolution: 0.1, Size: 4, Percentage: 25, Free: true}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 64, g.Size())
	require.Equal(t, 16, countOccupied(g))

	g, err = GenerateNoise(NoiseOptions{Resolution: 0.1, Size: 3, Percentage: 150}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, 27, countOccupied(g))
}

func TestGenerateNoiseDeterministic(t *testing.T) {
	opts := NoiseOptions{Resolution: 0.2, Size: 6, Percentage: 30}
	a, err := GenerateNoise(opts, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := GenerateNoise(opts, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	a.Range(func(k grid3d.Key, n *occupancy.Node) bool {
		m, ok := b.SearchKey(k)
		require.True(t, ok)
		require.Equal(t, n.LogOdds, m.LogOdds)
		return true
	})
}

func TestGenerateNoiseErrors(t *testing.T) {
	_, err := GenerateNoise(NoiseOptions{Resolution: 0.1}, rand.New(rand.NewSource(1)))
	require.True(t, errors.IsType(err, grid3d.ErrTypeInvalidConfig))

	_, err = GenerateNoise(NoiseOptions{Resolution: -1, Size: 2}, rand.New(rand.NewSource(1)))
	require.True(t, errors.IsType(err, grid3d.ErrTypeInvalidConfig))

	_, err = GenerateNoise(NoiseOptions{Resolution: 0.1, Size: MaxNoiseSize + 1, Percentage: 1}, rand.New(rand.NewSource(1)))
	require.True(t, errors.IsType(err, grid3d.ErrTypeInvalidConfig))
}

func TestGenerateNoiseLargeSparse(t *testing.T) {
	g, err := GenerateNoise(NoiseOptions{Resolution: 0.1, Size: MaxNoiseSize, Percentage: 0.0001}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	require.Equal(t, 1074, g.Size())

	lo := uint16(g.Codec().MaxVal() - MaxNoiseSize/2)
	g.Range(func(k grid3d.Key, _ *occupancy.Node) bool {
		for _, v := range k {
			require.GreaterOrEqual(t, v, lo)
			require.Less(t, v, lo+MaxNoiseSize)
		}
		return true
	})
}

func TestGridInfo(t *testing.T) {
	data := noiseFile(t, NoiseOptions{Resolution: 0.5, Size: 4, Percentage: 100}, gridfile.CompressionZstd)

	info, err := GridInfo(data)
	require.NoError(t, err)
	require.Equal(t, occupancy.NodeType, info.NodeType)
	require.Equal(t, "zstd", info.Compression)
	require.Equal(t, 0.5, info.Resolution)
	require.Equal(t, 64, info.Voxels)
	require.Equal(t, 64, info.Occupied)
	require.Equal(t, [3]float64{-1, -1, -1}, info.Min)
	require.Equal(t, [3]float64{1, 1, 1}, info.Max)
	require.Equal(t, 8.0, info.Volume)

	_, err = GridInfo([]byte("nope"))
	require.True(t, errors.IsType(err, gridfile.ErrTypeInvalidHeader))
}

func TestGridToGLB(t *testing.T) {
	data := noiseFile(t, NoiseOptions{Resolution: 0.5, Size: 2, Percentage: 100}, gridfile.CompressionNone)
	b, err := GridToGLB(data, "noise")
	require.NoError(t, err)
	require.Equal(t, []byte("glTF"), b[:4])

	empty := noiseFile(t, NoiseOptions{Resolution: 0.5, Size: 2, Percentage: 0, Free: true}, gridfile.CompressionNone)
	_, err = GridToGLB(empty, "free")
	require.Error(t, err)
}

func TestRecompress(t *testing.T) {
	data := noiseFile(t, NoiseOptions{Resolution: 0.1, Size: 8, Percentage: 40}, gridfile.CompressionNone)

	out, err := Recompress(data, "zlib")
	require.NoError(t, err)
	h, _, err := gridfile.ReadHeader(out)
	require.NoError(t, err)
	require.Equal(t, gridfile.CompressionZlib, h.Compression)

	before, err := GridInfo(data)
	require.NoError(t, err)
	after, err := GridInfo(out)
	require.NoError(t, err)
	require.Equal(t, before.Voxels, after.Voxels)
	require.Equal(t, before.Min, after.Min)
	require.Equal(t, before.Max, after.Max)

	_, err = Recompress(data, "brotli")
	require.Error(t, err)
}
