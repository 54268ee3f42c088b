package utils

import (
	"context"
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/gridmap3d/api"
	"github.com/voxelsplace/gridmap3d/grid3d"
	"github.com/voxelsplace/gridmap3d/occupancy"
	"gonum.org/v1/gonum/spatial/r3"
)

// RayResult is the outcome of casting one ray.
type RayResult struct {
	Origin  [3]float64  `json:"origin"`
	End     [3]float64  `json:"end"`
	Visited int         `json:"visited"`
	Hit     bool        `json:"hit"`
	Key     *[3]uint16  `json:"key,omitempty"`
	Center  *[3]float64 `json:"center,omitempty"`
}

// SightResult is the outcome of one line of sight query.
type SightResult struct {
	End     [3]float64 `json:"end"`
	Visible bool       `json:"visible"`
}

func loadGrid(conf Config, path string) (*occupancy.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts []grid3d.Option
	if conf.RayWorkers > 0 {
		opts = append(opts, grid3d.WithRayWorkers(conf.RayWorkers))
	}
	g, _, err := api.LoadGrid(data, opts...)
	if err != nil {
		return nil, err
	}
	logs.WithTag("path", path).
		WithTag("voxels", g.Size()).
		WithTag("resolution", g.Resolution()).
		Debug("grid loaded")
	return g, nil
}

// CastRays casts a ray from origin to every end, in order.
func CastRays(g *occupancy.Grid, origin r3.Vec, ends []r3.Vec) ([]RayResult, error) {
	ray := g.KeyRays().Ray(0)
	results := make([]RayResult, 0, len(ends))
	for _, end := range ends {
		key, hit, err := g.CastRay(origin, end, ray)
		if err != nil {
			return nil, err
		}
		res := RayResult{
			Origin:  vec3(origin),
			End:     vec3(end),
			Visited: ray.Len(),
			Hit:     hit,
		}
		if hit {
			k := [3]uint16(key)
			c := vec3(g.Codec().KeyToCoord3(key))
			res.Key, res.Center = &k, &c
		}
		results = append(results, res)
	}
	return results, nil
}

// RunRay casts rays through the grid at path and prints one JSON line per
// ray.
func RunRay(conf Config, path, origin string, ends []string, w io.Writer) error {
	g, err := loadGrid(conf, path)
	if err != nil {
		return err
	}
	o, targets, err := parseSegments(origin, ends)
	if err != nil {
		return err
	}
	results, err := CastRays(g, o, targets)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// RunLineOfSight checks visibility from origin to every end using the grid's
// ray workers and prints one JSON line per end.
func RunLineOfSight(ctx context.Context, conf Config, path, origin string, ends []string, w io.Writer) error {
	g, err := loadGrid(conf, path)
	if err != nil {
		return err
	}
	o, targets, err := parseSegments(origin, ends)
	if err != nil {
		return err
	}
	segments := make([]occupancy.Segment, len(targets))
	for i, end := range targets {
		segments[i] = occupancy.Segment{Origin: o, End: end}
	}
	visible, err := g.VisibleBatch(ctx, segments, 0)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i, v := range visible {
		if err := enc.Encode(SightResult{End: vec3(targets[i]), Visible: v}); err != nil {
			return err
		}
	}
	return nil
}

func parseSegments(origin string, ends []string) (r3.Vec, []r3.Vec, error) {
	o, err := ParseVec(origin)
	if err != nil {
		return o, nil, err
	}
	targets := make([]r3.Vec, len(ends))
	for i, e := range ends {
		if targets[i], err = ParseVec(e); err != nil {
			return o, nil, err
		}
	}
	return o, targets, nil
}

func vec3(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
