package grid3d

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxVal is half the key range of one axis for 16 bit keys. At a
// resolution of 0.01 it allows coordinates within ±327.68.
const DefaultMaxVal = 1 << (KeyBits - 1)

// Codec converts between metric coordinates and keys at one resolution.
//
// A coordinate c maps to floor(c/resolution) + maxVal, and a key k maps back
// to the center of its voxel, (k - maxVal + 0.5) * resolution.
type Codec struct {
	resolution float64
	factor     float64 // 1 / resolution
	maxVal     int
}

// NewCodec validates resolution and maxVal. maxVal must fit twice into the
// key range: 0 < maxVal <= 1<<(KeyBits-1).
func NewCodec(resolution float64, maxVal int) (Codec, error) {
	if err := checkResolution(resolution); err != nil {
		return Codec{}, err
	}
	if maxVal <= 0 || maxVal > DefaultMaxVal {
		return Codec{}, errors.New("grid max value does not fit the key range").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_val", maxVal).
			WithTag("key_bits", KeyBits)
	}
	return Codec{
		resolution: resolution,
		factor:     1 / resolution,
		maxVal:     maxVal,
	}, nil
}

func checkResolution(r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return errors.New("resolution must be a positive finite number").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", r)
	}
	return nil
}

func (c Codec) Resolution() float64 { return c.resolution }

func (c Codec) MaxVal() int { return c.maxVal }

// Extent is the metric half-width of the representable range on each axis.
func (c Codec) Extent() float64 { return float64(c.maxVal) * c.resolution }

// Center is the metric offset of the key lattice origin.
func (c Codec) Center() r3.Vec {
	e := c.Extent()
	return r3.Vec{X: e, Y: e, Z: e}
}

// CoordToKey quantizes a single coordinate. It does not check the range: a
// coordinate outside ±Extent wraps around.
func (c Codec) CoordToKey(coord float64) uint16 {
	return uint16(int(math.Floor(c.factor*coord)) + c.maxVal)
}

// CoordToKeyChecked quantizes a single coordinate and fails with
// ErrTypeOutOfRange when the key falls outside [0, 2*maxVal).
func (c Codec) CoordToKeyChecked(coord float64) (uint16, error) {
	scaled := math.Floor(c.factor*coord) + float64(c.maxVal)
	if !(scaled >= 0 && scaled < float64(2*c.maxVal)) {
		return 0, errors.New("coordinate out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("coordinate", coord).
			WithTag("resolution", c.resolution)
	}
	return uint16(scaled), nil
}

// KeyToCoord returns the center of the voxel addressed by key.
func (c Codec) KeyToCoord(key uint16) float64 {
	return (float64(int(key)-c.maxVal) + 0.5) * c.resolution
}

func (c Codec) CoordToKey3(p r3.Vec) Key {
	return Key{c.CoordToKey(p.X), c.CoordToKey(p.Y), c.CoordToKey(p.Z)}
}

func (c Codec) CoordToKeyChecked3(p r3.Vec) (Key, error) {
	var k Key
	for i, v := range [3]float64{p.X, p.Y, p.Z} {
		kv, err := c.CoordToKeyChecked(v)
		if err != nil {
			return Key{}, err
		}
		k[i] = kv
	}
	return k, nil
}

func (c Codec) KeyToCoord3(k Key) r3.Vec {
	return r3.Vec{X: c.KeyToCoord(k[0]), Y: c.KeyToCoord(k[1]), Z: c.KeyToCoord(k[2])}
}

// validKey reports whether every component of k lies in [0, 2*maxVal).
func (c Codec) validKey(k Key) bool {
	for _, v := range k {
		if int(v) >= 2*c.maxVal {
			return false
		}
	}
	return true
}

// setResolution changes what every key denotes; keys are not remapped.
func (c *Codec) setResolution(r float64) {
	c.resolution = r
	c.factor = 1 / r
}
