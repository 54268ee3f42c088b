package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Palette is a list of colours assigned to height bands, lowest band first.
type Palette [][4]float32

// DefaultPalette runs from deep blue at the bottom of the map to white at the
// top.
var DefaultPalette = MustParsePalette(
	"#1d3557", "#2a6f97", "#2c9c8f", "#5fb560", "#a7c957",
	"#e9c46a", "#f4a261", "#d1603d", "#9c6644", "#f1faee",
)

// ParseHexColor parses #RRGGBB or #RRGGBBAA into RGBA components in
// [0, 1].
func ParseHexColor(s string) ([4]float32, error) {
	var rgba [4]float32
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return rgba, errors.New("invalid hex colour").WithTag("colour", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return rgba, errors.New("invalid hex colour").
				WithTag("colour", s).
				Wrap(err)
		}
		rgba[i] = float32(v) / 255
	}
	return rgba, nil
}

// ParsePalette parses a list of hex colours.
func ParsePalette(colours ...string) (Palette, error) {
	p := make(Palette, 0, len(colours))
	for _, c := range colours {
		rgba, err := ParseHexColor(c)
		if err != nil {
			return nil, err
		}
		p = append(p, rgba)
	}
	return p, nil
}

func MustParsePalette(colours ...string) Palette {
	p, err := ParsePalette(colours...)
	if err != nil {
		panic(err)
	}
	return p
}

// HeightColor picks the band of z within [lo, hi]. An empty palette yields
// opaque white.
func (p Palette) HeightColor(z, lo, hi float64) [4]float32 {
	if len(p) == 0 {
		return [4]float32{1, 1, 1, 1}
	}
	if hi <= lo {
		return p[0]
	}
	band := int(math.Floor((z - lo) / (hi - lo) * float64(len(p))))
	if band < 0 {
		band = 0
	}
	if band >= len(p) {
		band = len(p) - 1
	}
	return p[band]
}
