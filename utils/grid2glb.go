package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/gridmap3d/api"
)

// RunGrid2GLB meshes the occupied voxels of a grid file into a .glb file.
func RunGrid2GLB(inPath, outPath string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	glb, err := api.GridToGLB(data, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, glb, 0644); err != nil {
		return err
	}
	logs.WithTag("in", inPath).
		WithTag("out", outPath).
		WithTag("bytes", len(glb)).
		Info("glb written")
	return nil
}
