package occupancy

import (
	"bytes"
	"context"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/gridmap3d/grid3d"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestGrid(t *testing.T, opts ...grid3d.Option) *Grid {
	t.Helper()
	g, err := New(1, append([]grid3d.Option{grid3d.WithMaxVal(100)}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestNodeEncoding(t *testing.T) {
	n := &Node{LogOdds: -1.5}
	var buf bytes.Buffer
	require.NoError(t, n.WriteBinary(&buf))
	require.Equal(t, []byte{0x00, 0x00, 0xc0, 0xbf}, buf.Bytes())

	var got Node
	require.NoError(t, got.ReadBinary(&buf))
	require.Equal(t, *n, got)

	require.Error(t, got.ReadBinary(bytes.NewReader([]byte{1, 2})))
}

func TestProbability(t *testing.T) {
	assert.Equal(t, float32(0), LogOdds(0.5))
	assert.InDelta(t, 0.7, Probability(LogOdds(0.7)), 1e-6)
	assert.InDelta(t, 0.5, (&Node{}).Probability(), 1e-12)
	assert.True(t, (&Node{}).Occupied())
	assert.False(t, (&Node{LogOdds: -0.1}).Occupied())
}

func TestSetNodeValue(t *testing.T) {
	g := newTestGrid(t)

	key, err := g.SetNodeValue(r3.Vec{X: 1.5, Y: 2.5, Z: -0.5}, 2)
	require.NoError(t, err)
	require.Equal(t, grid3d.Key{101, 102, 99}, key)
	require.True(t, g.IsOccupied(r3.Vec{X: 1.9, Y: 2.1, Z: -0.1}))

	_, err = g.SetNodeValue(r3.Vec{X: 1.5, Y: 2.5, Z: -0.5}, -2)
	require.NoError(t, err)
	require.Equal(t, 1, g.Size())
	require.False(t, g.IsOccupied(r3.Vec{X: 1.5, Y: 2.5, Z: -0.5}))

	_, err = g.SetNodeValue(r3.Vec{X: 1000}, 1)
	require.True(t, errors.IsType(err, grid3d.ErrTypeOutOfRange))
	require.Equal(t, 1, g.Size())

	require.False(t, g.IsOccupied(r3.Vec{X: 5}))
}

func TestCastRay(t *testing.T) {
	g := newTestGrid(t)
	ray := grid3d.NewKeyRay(0)
	origin := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}

	g.SetNodeValueKey(grid3d.Key{103, 100, 100}, -1)
	g.SetNodeValueKey(grid3d.Key{105, 100, 100}, 1)
	g.SetNodeValueKey(grid3d.Key{107, 100, 100}, 1)

	key, hit, err := g.CastRay(origin, r3.Vec{X: 9.5, Y: 0.5, Z: 0.5}, ray)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, grid3d.Key{105, 100, 100}, key)

	_, hit, err = g.CastRay(origin, r3.Vec{X: 4.5, Y: 0.5, Z: 0.5}, ray)
	require.NoError(t, err)
	require.False(t, hit)

	t.Run("end voxel is checked", func(t *testing.T) {
		key, hit, err := g.CastRay(origin, r3.Vec{X: 5.2, Y: 0.5, Z: 0.5}, ray)
		require.NoError(t, err)
		require.True(t, hit)
		require.Equal(t, grid3d.Key{105, 100, 100}, key)
	})

	t.Run("other directions are free", func(t *testing.T) {
		visible, err := g.Visible(origin, r3.Vec{X: -8.5, Y: 3.5, Z: 2.5}, ray)
		require.NoError(t, err)
		require.True(t, visible)
	})

	t.Run("out of range", func(t *testing.T) {
		_, _, err := g.CastRay(origin, r3.Vec{X: 200}, ray)
		require.True(t, errors.IsType(err, grid3d.ErrTypeOutOfRange))
	})
}

func TestVisibleBatch(t *testing.T) {
	g := newTestGrid(t, grid3d.WithRayWorkers(3))
	// A wall at x in [4, 5).
	for y := uint16(90); y < 110; y++ {
		for z := uint16(90); z < 110; z++ {
			g.SetNodeValueKey(grid3d.Key{104, y, z}, 1)
		}
	}

	origin := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
	var segments []Segment
	var want []bool
	for i := 0; i < 20; i++ {
		off := float64(i%7) - 3
		segments = append(segments,
			Segment{Origin: origin, End: r3.Vec{X: 8.5, Y: off, Z: off / 2}},
			Segment{Origin: origin, End: r3.Vec{X: 3.5, Y: off, Z: -off}},
		)
		want = append(want, false, true)
	}

	for _, workers := range []int{0, 1, 2, 3, 8} {
		got, err := g.VisibleBatch(context.Background(), segments, workers)
		require.NoError(t, err, "workers %d", workers)
		require.Equal(t, want, got, "workers %d", workers)
	}

	t.Run("errors are returned", func(t *testing.T) {
		bad := append([]Segment{}, segments...)
		bad[5].End = r3.Vec{X: 1e6}
		_, err := g.VisibleBatch(context.Background(), bad, 2)
		require.True(t, errors.IsType(err, grid3d.ErrTypeOutOfRange))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.VisibleBatch(ctx, segments, 2)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty batch", func(t *testing.T) {
		got, err := g.VisibleBatch(context.Background(), nil, 2)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestGridDataRoundTrip(t *testing.T) {
	g := newTestGrid(t)
	g.SetNodeValueKey(grid3d.Key{1, 2, 3}, 0.25)
	g.SetNodeValueKey(grid3d.Key{4, 5, 6}, -3)

	var buf bytes.Buffer
	require.NoError(t, g.WriteData(&buf))

	r := newTestGrid(t)
	require.NoError(t, r.ReadData(&buf))
	n, ok := r.SearchKey(grid3d.Key{4, 5, 6})
	require.True(t, ok)
	require.Equal(t, float32(-3), n.LogOdds)
	require.Equal(t, 2, r.Size())
}
