package utils

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/gridmap3d/api"
	"github.com/voxelsplace/gridmap3d/gridfile"
	"github.com/voxelsplace/gridmap3d/occupancy"
)

// NoiseParams configures RunGenerateNoise.
type NoiseParams struct {
	Resolution    float64
	Size          int
	PercentageMin float64
	PercentageMax float64
	Amount        int
	OutDir        string
	Seed          int64 // 0 seeds from the clock
}

// RunGenerateNoise writes Amount grid files named 0.g3d..(Amount-1).g3d into
// OutDir. Each holds a cube of random occupied voxels whose fill percentage
// is drawn uniformly from [PercentageMin, PercentageMax].
func RunGenerateNoise(conf Config, p NoiseParams) error {
	if p.Amount < 0 {
		p.Amount = 0
	}
	if p.OutDir == "" {
		p.OutDir = "."
	}
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return err
	}
	if p.PercentageMin < 0 {
		p.PercentageMin = 0
	}
	if p.PercentageMax > 100 {
		p.PercentageMax = 100
	}
	if p.PercentageMax < p.PercentageMin {
		p.PercentageMin, p.PercentageMax = p.PercentageMax, p.PercentageMin
	}

	baseSeed := uint64(p.Seed)
	if baseSeed == 0 {
		baseSeed = uint64(time.Now().UnixNano())
	}
	for i := 0; i < p.Amount; i++ {
		// Weyl sequence so every file gets its own stream.
		const weyl = uint64(0x9e3779b97f4a7c15)
		seed := baseSeed ^ (uint64(i)+1)*weyl
		r := rand.New(rand.NewSource(int64(seed & 0x7fffffffffffffff)))

		perc := p.PercentageMin
		if p.PercentageMax > p.PercentageMin {
			perc = p.PercentageMin + r.Float64()*(p.PercentageMax-p.PercentageMin)
		}

		g, err := api.GenerateNoise(api.NoiseOptions{
			Resolution: p.Resolution,
			Size:       p.Size,
			Percentage: perc,
		}, r)
		if err != nil {
			return err
		}

		path := filepath.Join(p.OutDir, fmt.Sprintf("%d.g3d", i))
		if err := gridfile.Save(path, g.Store, occupancy.NodeType, gridfile.Options{Compression: conf.Compression}); err != nil {
			return errors.New("saving noise grid failed").
				WithTag("path", path).
				Wrap(err)
		}
		logs.WithTag("path", path).
			WithTag("percentage", perc).
			WithTag("voxels", g.Size()).
			Debug("noise grid written")
	}
	return nil
}
