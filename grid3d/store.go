// Package grid3d is a bounded-extent voxel store: nodes are indexed by
// quantized keys in a hash map, with lazily maintained bounds, voxel ray
// traversal and a raw stream encoding of the stored entries.
//
// Coordinates are limited to ±maxVal*resolution on each axis (±327.68 at a
// resolution of 0.01 with the default 16 bit keys).
//
// A Store is not safe for concurrent mutation. Read-only queries may run
// concurrently as long as no mutation is in flight and every goroutine
// traverses rays with its own KeyRay.
package grid3d

import (
	"unsafe"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// indexEntrySize estimates the map overhead of one entry: the key plus the
// node reference.
const indexEntrySize = int(unsafe.Sizeof(Key{}) + unsafe.Sizeof(uintptr(0)))

// Store owns one node per key.
type Store[N Node[N]] struct {
	codec   Codec
	nodes   map[Key]N
	alloc   func() N
	bounds  bounds
	keyRays *RayPool
}

// New creates an empty store. alloc returns a fresh zero node; ReadData uses
// it to decode entries and MemoryUsage to size them.
func New[N Node[N]](resolution float64, alloc func() N, opts ...Option) (*Store[N], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if alloc == nil {
		return nil, errors.New("node allocator is required").
			WithType(ErrTypeInvalidConfig)
	}
	codec, err := NewCodec(resolution, o.maxVal)
	if err != nil {
		return nil, err
	}
	return &Store[N]{
		codec:   codec,
		nodes:   make(map[Key]N),
		alloc:   alloc,
		keyRays: NewRayPool(o.rayWorkers, o.rayCapacity),
	}, nil
}

// Clone deep-copies the store. Every node is copied with Node.Clone, so the
// two stores share no node afterwards.
func (s *Store[N]) Clone() *Store[N] {
	c := &Store[N]{
		codec:   s.codec,
		nodes:   make(map[Key]N, len(s.nodes)),
		alloc:   s.alloc,
		bounds:  s.bounds,
		keyRays: NewRayPool(s.keyRays.Workers(), s.keyRays.Capacity()),
	}
	for k, n := range s.nodes {
		c.nodes[k] = n.Clone()
	}
	return c
}

// SwapContent exchanges the indexes of s and other in O(1). Resolution and
// other metadata are not swapped or checked: the caller must make sure they
// match. No node is copied or dropped.
func (s *Store[N]) SwapContent(other *Store[N]) {
	s.nodes, other.nodes = other.nodes, s.nodes
	s.bounds.sizeChanged = true
	other.bounds.sizeChanged = true
}

func (s *Store[N]) Codec() Codec { return s.codec }

func (s *Store[N]) Resolution() float64 { return s.codec.resolution }

// SetResolution rescales the grid in O(1). Keys are kept as they are, so every
// stored voxel now denotes a different metric position: metric scale is not
// preserved.
func (s *Store[N]) SetResolution(r float64) error {
	if err := checkResolution(r); err != nil {
		return err
	}
	s.codec.setResolution(r)
	s.bounds.sizeChanged = true
	return nil
}

// Size is the number of stored nodes.
func (s *Store[N]) Size() int { return len(s.nodes) }

// MemoryUsageNode is the size of one node.
func (s *Store[N]) MemoryUsageNode() int { return s.alloc().ByteSize() }

// MemoryUsage estimates the bytes held by the store. It is not allocator
// accounting.
func (s *Store[N]) MemoryUsage() int {
	return s.Size() * (indexEntrySize + s.MemoryUsageNode())
}

// Search returns the node of the voxel containing p. Coordinates outside the
// grid are never found.
func (s *Store[N]) Search(p r3.Vec) (N, bool) {
	key, err := s.codec.CoordToKeyChecked3(p)
	if err != nil {
		var zero N
		return zero, false
	}
	return s.SearchKey(key)
}

func (s *Store[N]) SearchKey(key Key) (N, bool) {
	n, ok := s.nodes[key]
	return n, ok
}

// SetNode stores n under key and takes ownership of it. A node already stored
// under key is dropped. This is the insertion site for derived stores.
func (s *Store[N]) SetNode(key Key, n N) {
	if _, ok := s.nodes[key]; !ok {
		s.bounds.sizeChanged = true
	}
	s.nodes[key] = n
}

// DeleteNode removes the node of the voxel containing p and reports whether
// there was one.
func (s *Store[N]) DeleteNode(p r3.Vec) bool {
	key, err := s.codec.CoordToKeyChecked3(p)
	if err != nil {
		return false
	}
	return s.DeleteNodeKey(key)
}

func (s *Store[N]) DeleteNodeKey(key Key) bool {
	if _, ok := s.nodes[key]; !ok {
		return false
	}
	delete(s.nodes, key)
	s.bounds.sizeChanged = true
	return true
}

// Clear drops every node. The bounds become the empty box.
func (s *Store[N]) Clear() {
	s.nodes = make(map[Key]N)
	s.bounds = bounds{}
}

// Range calls fn for every entry until fn returns false. The order is
// unspecified and fn must not mutate the store.
func (s *Store[N]) Range(fn func(Key, N) bool) {
	for k, n := range s.nodes {
		if !fn(k, n) {
			return
		}
	}
}

// KeyRays is the store's pool of per-worker traversal buffers.
func (s *Store[N]) KeyRays() *RayPool { return s.keyRays }

// ClearKeyRays releases the memory held by the traversal buffers.
func (s *Store[N]) ClearKeyRays() { s.keyRays.Clear() }
