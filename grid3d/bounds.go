package grid3d

import "gonum.org/v1/gonum/spatial/r3"

// bounds caches the metric box covering every stored voxel. It is stale while
// sizeChanged is set and rebuilt by the first query that needs it.
type bounds struct {
	min, max    r3.Vec
	sizeChanged bool
}

// calcMinMax rescans every key when the extent may have changed. The box
// spans whole voxels: from the lower face of the lowest key to the upper face
// of the highest key on each axis. An empty store has a zero box.
func (s *Store[N]) calcMinMax() {
	if !s.bounds.sizeChanged {
		return
	}
	s.bounds.sizeChanged = false
	if len(s.nodes) == 0 {
		s.bounds.min, s.bounds.max = r3.Vec{}, r3.Vec{}
		return
	}

	lo := Key{0xFFFF, 0xFFFF, 0xFFFF}
	var hi Key
	for k := range s.nodes {
		for i := 0; i < 3; i++ {
			if k[i] < lo[i] {
				lo[i] = k[i]
			}
			if k[i] > hi[i] {
				hi[i] = k[i]
			}
		}
	}
	half := s.codec.resolution / 2
	h := r3.Vec{X: half, Y: half, Z: half}
	s.bounds.min = r3.Sub(s.codec.KeyToCoord3(lo), h)
	s.bounds.max = r3.Add(s.codec.KeyToCoord3(hi), h)
}

// MetricMin is the lower corner of the bounding box of all stored voxels. The
// box is measured at voxel faces, half a resolution beyond the extreme centers.
func (s *Store[N]) MetricMin() r3.Vec {
	s.calcMinMax()
	return s.bounds.min
}

// MetricMax is the upper corner of the bounding box of all stored voxels.
func (s *Store[N]) MetricMax() r3.Vec {
	s.calcMinMax()
	return s.bounds.max
}

// MetricSize is the edge length of the bounding box on each axis.
func (s *Store[N]) MetricSize() r3.Vec {
	s.calcMinMax()
	return r3.Sub(s.bounds.max, s.bounds.min)
}

// Bounds returns the bounding box of all stored voxels.
func (s *Store[N]) Bounds() r3.Box {
	s.calcMinMax()
	return r3.Box{Min: s.bounds.min, Max: s.bounds.max}
}

// CachedMetricMin, CachedMetricMax and CachedMetricSize return the last
// computed bounds without recomputing. They never write to the store and may
// be stale after a mutation.
func (s *Store[N]) CachedMetricMin() r3.Vec { return s.bounds.min }

func (s *Store[N]) CachedMetricMax() r3.Vec { return s.bounds.max }

func (s *Store[N]) CachedMetricSize() r3.Vec { return r3.Sub(s.bounds.max, s.bounds.min) }

// BoundsStale reports whether the cached bounds predate a mutation.
func (s *Store[N]) BoundsStale() bool { return s.bounds.sizeChanged }

// Volume is the metric volume of the bounding box, zero for an empty store.
func (s *Store[N]) Volume() float64 {
	size := s.MetricSize()
	return size.X * size.Y * size.Z
}
