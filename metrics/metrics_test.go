package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/gridmap3d/grid3d"
	"github.com/voxelsplace/gridmap3d/occupancy"
)

type fakeSource struct {
	size       int
	memory     int
	volume     float64
	resolution float64
}

func (s fakeSource) Size() int           { return s.size }
func (s fakeSource) MemoryUsage() int    { return s.memory }
func (s fakeSource) Volume() float64     { return s.volume }
func (s fakeSource) Resolution() float64 { return s.resolution }

func TestCollectorGauges(t *testing.T) {
	c := NewCollector("grid", "test", fakeSource{size: 3, memory: 120, volume: 0.125, resolution: 0.5})

	expected := `
# HELP grid_voxels The number of stored voxels.
# TYPE grid_voxels gauge
grid_voxels{source="test"} 3
# HELP grid_memory_bytes The estimated memory held by the store.
# TYPE grid_memory_bytes gauge
grid_memory_bytes{source="test"} 120
# HELP grid_volume_cubic_meters The volume of the bounding box of all voxels.
# TYPE grid_volume_cubic_meters gauge
grid_volume_cubic_meters{source="test"} 0.125
# HELP grid_resolution_meters The voxel edge length.
# TYPE grid_resolution_meters gauge
grid_resolution_meters{source="test"} 0.5
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"grid_voxels",
		"grid_memory_bytes",
		"grid_volume_cubic_meters",
		"grid_resolution_meters",
	)
	require.NoError(t, err)
}

func TestCollectorRays(t *testing.T) {
	c := NewCollector("grid", "test", fakeSource{})
	require.Equal(t, 4, testutil.CollectAndCount(c))

	c.ObserveRay(time.Now(), nil)
	c.ObserveRay(time.Now(), errors.New("out").WithType(grid3d.ErrTypeOutOfRange))

	require.Equal(t, 2.0, testutil.ToFloat64(c.rays.With(prometheus.Labels{sourceLabel: "test"})))
	require.Equal(t, 1.0, testutil.ToFloat64(c.rayErrors.With(prometheus.Labels{
		sourceLabel:  "test",
		errTypeLabel: grid3d.ErrTypeOutOfRange,
	})))
	require.Equal(t, 7, testutil.CollectAndCount(c))
}

func TestCollectorFollowsStore(t *testing.T) {
	g, err := occupancy.New(0.5)
	require.NoError(t, err)

	c := NewCollector("grid", "map", g)
	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(c)

	g.SetNodeValueKey(grid3d.Key{1, 1, 1}, 1)
	g.SetNodeValueKey(grid3d.Key{2, 1, 1}, 1)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if m.GetGauge() != nil {
				values[f.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	require.Equal(t, 2.0, values["grid_voxels"])
	require.Equal(t, float64(g.MemoryUsage()), values["grid_memory_bytes"])
	require.Equal(t, 0.25, values["grid_volume_cubic_meters"])
	require.Equal(t, 0.5, values["grid_resolution_meters"])
}

func TestCollectorConcurrentScrapes(t *testing.T) {
	g, err := occupancy.New(0.5)
	require.NoError(t, err)
	for i := uint16(0); i < 50; i++ {
		g.SetNodeValueKey(grid3d.Key{i, 2 * i, 3}, 1)
	}
	require.True(t, g.BoundsStale())

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector("grid", "map", g))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reg.Gather()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.False(t, g.BoundsStale())
	require.Equal(t, 25*49.5*0.5, g.Volume())
}
