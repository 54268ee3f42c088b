//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/gridmap3d/utils"
)

func usage() {
	fmt.Println("Usage: gridtool <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  info input.g3d                                   (print a JSON summary of a grid file)")
	fmt.Println("  ray input.g3d x,y,z x,y,z [x,y,z ...]            (cast rays from the first point, report the first occupied voxel)")
	fmt.Println("  los input.g3d x,y,z x,y,z [x,y,z ...]            (line of sight from the first point, in parallel)")
	fmt.Println("  glb input.g3d output.glb                         (mesh occupied voxels into a .glb)")
	fmt.Println("  recompress input.g3d output.g3d [none|zlib|zstd|auto]   (re-encode the payload)")
	fmt.Println("  serve input.g3d addr                             (serve /metrics and /ray?origin=x,y,z&end=x,y,z)")
	fmt.Println("  gennoise <resolution> <size> <percentage> <amount> <output_dir>                (generate N random grids with fixed fill %)")
	fmt.Println("  gennoise <resolution> <size> <percentageMin> <percentageMax> <amount> <output_dir>   (per-file random fill in [min,max])")
	fmt.Println("Environment:")
	fmt.Printf("  %s (debug|info|warning|error), %s, %s (none|zlib|zstd|auto), %s\n",
		utils.EnvLogLevel, utils.EnvLogIndent, utils.EnvCompression, utils.EnvRayWorkers)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	conf, err := utils.LoadConfig()
	if err != nil {
		logs.Fatal(err)
	}
	utils.SetupLogs(conf)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	switch os.Args[1] {
	case "info":
		if len(os.Args) != 3 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunInfo(os.Args[2], os.Stdout); err != nil {
			logs.Fatal(err)
		}
		return
	case "ray":
		if len(os.Args) < 5 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunRay(conf, os.Args[2], os.Args[3], os.Args[4:], os.Stdout); err != nil {
			logs.Fatal(err)
		}
		return
	case "los":
		if len(os.Args) < 5 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunLineOfSight(ctx, conf, os.Args[2], os.Args[3], os.Args[4:], os.Stdout); err != nil {
			logs.Fatal(err)
		}
		return
	case "glb":
		if len(os.Args) != 4 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunGrid2GLB(os.Args[2], os.Args[3]); err != nil {
			logs.Fatal(err)
		}
	case "recompress":
		if len(os.Args) != 4 && len(os.Args) != 5 {
			usage()
			os.Exit(1)
		}
		codec := ""
		if len(os.Args) == 5 {
			codec = os.Args[4]
		}
		if err := utils.RunRecompress(conf, os.Args[2], os.Args[3], codec); err != nil {
			logs.Fatal(err)
		}
	case "serve":
		if len(os.Args) != 4 {
			usage()
			os.Exit(1)
		}
		if err := utils.RunServe(ctx, conf, os.Args[2], os.Args[3]); err != nil {
			logs.Fatal(err)
		}
	case "gennoise":
		// Two forms:
		// 1) gennoise <resolution> <size> <percentage> <amount> <output_dir>
		// 2) gennoise <resolution> <size> <percentageMin> <percentageMax> <amount> <output_dir>
		var p utils.NoiseParams
		switch len(os.Args) {
		case 7:
			if err := scan(os.Args[2:6], &p.Resolution, &p.Size, &p.PercentageMin, &p.Amount); err != nil {
				logs.Fatal(err)
			}
			p.PercentageMax = p.PercentageMin
			p.OutDir = os.Args[6]
		case 8:
			if err := scan(os.Args[2:7], &p.Resolution, &p.Size, &p.PercentageMin, &p.PercentageMax, &p.Amount); err != nil {
				logs.Fatal(err)
			}
			p.OutDir = os.Args[7]
		default:
			usage()
			os.Exit(1)
		}
		if err := utils.RunGenerateNoise(conf, p); err != nil {
			logs.Fatal(err)
		}
	default:
		usage()
		os.Exit(1)
	}

	logs.WithTag("command", os.Args[1]).Info("operation completed")
}

func scan(args []string, dst ...any) error {
	for i, a := range args {
		if _, err := fmt.Sscan(a, dst[i]); err != nil {
			return errors.New("invalid argument").
				WithTag("position", i+2).
				WithTag("value", a).
				Wrap(err)
		}
	}
	return nil
}
