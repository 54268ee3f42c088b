//go:build js && wasm

package main

import (
	"math/rand"
	"syscall/js"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/gridmap3d/api"
	"github.com/voxelsplace/gridmap3d/gridfile"
	"github.com/voxelsplace/gridmap3d/occupancy"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

func gridInfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing grid bytes")
	}
	info, err := api.GridInfo(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	b, err := json.Marshal(info)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return js.ValueOf(string(b))
}

func grid2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing grid bytes")
	}
	name := "grid"
	if len(args) > 1 {
		name = args[1].String()
	}
	out, err := api.GridToGLB(bytesFromJS(args[0]), name)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func recompressGrid(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("missing grid bytes or compression")
	}
	out, err := api.Recompress(bytesFromJS(args[0]), args[1].String())
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

// noiseGrid(resolution, size, percentage) returns a zstd grid file.
func noiseGrid(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return js.ValueOf("missing resolution, size or percentage")
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, err := api.GenerateNoise(api.NoiseOptions{
		Resolution: args[0].Float(),
		Size:       args[1].Int(),
		Percentage: args[2].Float(),
	}, r)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	out, err := gridfile.Marshal(g.Store, occupancy.NodeType, gridfile.Options{Compression: gridfile.CompressionZstd})
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func main() {
	js.Global().Set("gridInfo", js.FuncOf(gridInfo))
	js.Global().Set("grid2glb", js.FuncOf(grid2glb))
	js.Global().Set("recompressGrid", js.FuncOf(recompressGrid))
	js.Global().Set("noiseGrid", js.FuncOf(noiseGrid))
	select {}
}
