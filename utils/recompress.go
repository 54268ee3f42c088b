package utils

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/gridmap3d/api"
	"github.com/voxelsplace/gridmap3d/gridfile"
)

// RunRecompress re-encodes a grid file with the given codec. An empty codec
// uses conf.Compression.
func RunRecompress(conf Config, inPath, outPath, codec string) error {
	if codec == "" {
		codec = conf.Compression.String()
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	out, err := api.Recompress(data, codec)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return err
	}

	h, _, err := gridfile.ReadHeader(out)
	if err != nil {
		return err
	}
	logs.WithTag("in", inPath).
		WithTag("out", outPath).
		WithTag("compression", h.Compression.String()).
		WithTag("bytes_before", len(data)).
		WithTag("bytes_after", len(out)).
		Info("grid recompressed")
	return nil
}
