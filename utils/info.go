package utils

import (
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/gridmap3d/api"
)

// RunInfo prints a JSON summary of the grid file at path.
func RunInfo(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := api.GridInfo(data)
	if err != nil {
		return err
	}
	logs.WithTag("path", path).
		WithTag("voxels", info.Voxels).
		Debug("grid loaded")

	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
