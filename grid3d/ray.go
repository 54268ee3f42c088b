package grid3d

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// KeyRay is a reusable buffer of the keys visited by one traversal. Its
// backing array survives Reset, so a KeyRay used for many rays stops
// allocating once it has grown to the longest ray.
//
// A KeyRay must not be shared between goroutines.
type KeyRay struct {
	keys     []Key
	capacity int
}

// NewKeyRay returns an empty KeyRay holding at most capacity keys.
func NewKeyRay(capacity int) *KeyRay {
	if capacity <= 0 {
		capacity = DefaultRayCapacity
	}
	return &KeyRay{capacity: capacity}
}

func (r *KeyRay) Reset() { r.keys = r.keys[:0] }

// Keys returns the keys of the last traversal, in traversal order. The slice
// is only valid until the KeyRay is reused.
func (r *KeyRay) Keys() []Key { return r.keys }

func (r *KeyRay) Len() int { return len(r.keys) }

func (r *KeyRay) Capacity() int { return r.capacity }

// Release drops the backing array.
func (r *KeyRay) Release() { r.keys = nil }

func (r *KeyRay) add(k Key) bool {
	if len(r.keys) >= r.capacity {
		return false
	}
	r.keys = append(r.keys, k)
	return true
}

// RayPool holds one KeyRay per worker. Worker i only ever touches Ray(i), so
// workers can traverse rays concurrently without sharing a buffer.
type RayPool struct {
	rays     []*KeyRay
	capacity int
}

func NewRayPool(workers, capacity int) *RayPool {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = DefaultRayCapacity
	}
	p := &RayPool{rays: make([]*KeyRay, workers), capacity: capacity}
	for i := range p.rays {
		p.rays[i] = NewKeyRay(capacity)
	}
	return p
}

// Ray returns the buffer of the given worker, 0 <= worker < Workers().
func (p *RayPool) Ray(worker int) *KeyRay { return p.rays[worker] }

func (p *RayPool) Workers() int { return len(p.rays) }

func (p *RayPool) Capacity() int { return p.capacity }

// Clear releases the backing arrays of every buffer.
func (p *RayPool) Clear() {
	for _, r := range p.rays {
		r.Release()
	}
}

// ComputeRayKeys writes into ray the keys of every voxel the segment from
// origin to end passes through, in order. The voxel containing origin comes
// first; the voxel containing end is never included. When both points fall in
// the same voxel the ray is empty.
//
// The walk steps one voxel at a time along the axis whose next voxel boundary
// is nearest along the segment. On ties the lowest axis wins: x, then y,
// then z.
func (c Codec) ComputeRayKeys(origin, end r3.Vec, ray *KeyRay) error {
	ray.Reset()

	keyOrigin, err := c.CoordToKeyChecked3(origin)
	if err != nil {
		return errors.New("ray origin out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("origin", origin).
			Wrap(err)
	}
	keyEnd, err := c.CoordToKeyChecked3(end)
	if err != nil {
		return errors.New("ray end out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("end", end).
			Wrap(err)
	}
	if keyOrigin == keyEnd {
		return nil
	}
	if !ray.add(keyOrigin) {
		return rayOverflow(ray)
	}

	dir := r3.Sub(end, origin)
	length := r3.Norm(dir)
	dir = r3.Scale(1/length, dir)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}

	var (
		step   [3]int
		tMax   [3]float64
		tDelta [3]float64
	)
	current := keyOrigin
	for i := 0; i < 3; i++ {
		switch {
		case d[i] > 0:
			step[i] = 1
		case d[i] < 0:
			step[i] = -1
		}
		if step[i] == 0 {
			tMax[i] = math.MaxFloat64
			tDelta[i] = math.MaxFloat64
			continue
		}
		border := c.KeyToCoord(current[i]) + float64(step[i])*c.resolution*0.5
		tMax[i] = (border - o[i]) / d[i]
		tDelta[i] = c.resolution / math.Abs(d[i])
	}

	for {
		dim := 0
		if tMax[1] < tMax[dim] {
			dim = 1
		}
		if tMax[2] < tMax[dim] {
			dim = 2
		}

		current[dim] = uint16(int(current[dim]) + step[dim])
		tMax[dim] += tDelta[dim]

		if current == keyEnd {
			return nil
		}
		if math.Min(tMax[0], math.Min(tMax[1], tMax[2])) > length {
			// Rounding left the walk next to the end voxel instead of on it.
			return nil
		}
		if !ray.add(current) {
			return rayOverflow(ray)
		}
	}
}

func rayOverflow(ray *KeyRay) error {
	return errors.New("ray exceeds key buffer capacity").
		WithType(ErrTypeRayOverflow).
		WithTag("capacity", ray.capacity)
}

// ComputeRay is ComputeRayKeys followed by converting every key to its voxel
// center. Prefer ComputeRayKeys on hot paths.
func (c Codec) ComputeRay(origin, end r3.Vec, ray *KeyRay) ([]r3.Vec, error) {
	if err := c.ComputeRayKeys(origin, end, ray); err != nil {
		return nil, err
	}
	points := make([]r3.Vec, len(ray.keys))
	for i, k := range ray.keys {
		points[i] = c.KeyToCoord3(k)
	}
	return points, nil
}

// ComputeRayKeys traverses with the store's current resolution. See
// Codec.ComputeRayKeys.
func (s *Store[N]) ComputeRayKeys(origin, end r3.Vec, ray *KeyRay) error {
	return s.codec.ComputeRayKeys(origin, end, ray)
}

func (s *Store[N]) ComputeRay(origin, end r3.Vec, ray *KeyRay) ([]r3.Vec, error) {
	return s.codec.ComputeRay(origin, end, ray)
}
