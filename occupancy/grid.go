// Package occupancy is an occupancy map built on grid3d: voxels carry
// log-odds, and rays report the first occupied voxel they hit.
package occupancy

import (
	"context"

	"github.com/voxelsplace/gridmap3d/grid3d"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodeType identifies occupancy nodes in grid files.
const NodeType = "occupancy.logodds.f32"

// Grid is a grid3d.Store of occupancy nodes.
type Grid struct {
	*grid3d.Store[*Node]
}

func New(resolution float64, opts ...grid3d.Option) (*Grid, error) {
	s, err := grid3d.New(resolution, NewNode, opts...)
	if err != nil {
		return nil, err
	}
	return &Grid{Store: s}, nil
}

// Wrap returns a Grid over an existing store.
func Wrap(s *grid3d.Store[*Node]) *Grid {
	return &Grid{Store: s}
}

// SetNodeValue sets the log-odds of the voxel containing p, creating the
// voxel when needed. The value replaces the previous one.
func (g *Grid) SetNodeValue(p r3.Vec, logOdds float32) (grid3d.Key, error) {
	key, err := g.Codec().CoordToKeyChecked3(p)
	if err != nil {
		return key, err
	}
	g.SetNodeValueKey(key, logOdds)
	return key, nil
}

func (g *Grid) SetNodeValueKey(key grid3d.Key, logOdds float32) {
	if n, ok := g.SearchKey(key); ok {
		n.LogOdds = logOdds
		return
	}
	g.SetNode(key, &Node{LogOdds: logOdds})
}

// IsOccupied reports whether the voxel containing p is stored and occupied.
// Unknown voxels are not occupied.
func (g *Grid) IsOccupied(p r3.Vec) bool {
	n, ok := g.Search(p)
	return ok && n.Occupied()
}

func (g *Grid) isOccupiedKey(key grid3d.Key) bool {
	n, ok := g.SearchKey(key)
	return ok && n.Occupied()
}

// CastRay walks the segment from origin to end and returns the key of the
// first occupied voxel, including the voxel containing end. The voxel
// containing origin is checked too.
func (g *Grid) CastRay(origin, end r3.Vec, ray *grid3d.KeyRay) (grid3d.Key, bool, error) {
	if err := g.ComputeRayKeys(origin, end, ray); err != nil {
		return grid3d.Key{}, false, err
	}
	for _, k := range ray.Keys() {
		if g.isOccupiedKey(k) {
			return k, true, nil
		}
	}
	endKey := g.Codec().CoordToKey3(end)
	if g.isOccupiedKey(endKey) {
		return endKey, true, nil
	}
	return grid3d.Key{}, false, nil
}

// Visible reports whether no occupied voxel lies between origin and end.
func (g *Grid) Visible(origin, end r3.Vec, ray *grid3d.KeyRay) (bool, error) {
	_, hit, err := g.CastRay(origin, end, ray)
	return !hit, err
}

// Segment is a line of sight query.
type Segment struct {
	Origin r3.Vec
	End    r3.Vec
}

// VisibleBatch runs Visible for every segment on up to workers goroutines,
// each with its own buffer from the grid's ray pool. A workers value outside
// [1, KeyRays().Workers()] uses the whole pool. The grid must not be mutated
// while the batch runs.
func (g *Grid) VisibleBatch(ctx context.Context, segments []Segment, workers int) ([]bool, error) {
	pool := g.KeyRays()
	if workers <= 0 || workers > pool.Workers() {
		workers = pool.Workers()
	}
	if workers > len(segments) {
		workers = len(segments)
	}

	visible := make([]bool, len(segments))
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			ray := pool.Ray(w)
			for i := w; i < len(segments); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				v, err := g.Visible(segments[i].Origin, segments[i].End, ray)
				if err != nil {
					return err
				}
				visible[i] = v
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return visible, nil
}
