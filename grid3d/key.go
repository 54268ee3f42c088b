package grid3d

import (
	"fmt"
	"sort"
)

// KeyBits is the width of one key axis.
const KeyBits = 16

// Key addresses one voxel of a grid at the grid's resolution.
// Components are produced by a Codec and lie in [0, 2*maxVal).
type Key [3]uint16

// Hash mixes the three components the same way on every platform.
func (k Key) Hash() uint32 {
	return uint32(k[0]) + 1447*uint32(k[1]) + 345637*uint32(k[2])
}

// Morton interleaves the components (x lowest) into a 48 bit Z-order code.
func (k Key) Morton() uint64 {
	return part1By2(uint64(k[0])) |
		(part1By2(uint64(k[1])) << 1) |
		(part1By2(uint64(k[2])) << 2)
}

// KeyFromMorton is the inverse of Key.Morton.
func KeyFromMorton(code uint64) Key {
	return Key{
		uint16(compact1By2(code)),
		uint16(compact1By2(code >> 1)),
		uint16(compact1By2(code >> 2)),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("(%d,%d,%d)", k[0], k[1], k[2])
}

// SortMorton orders keys along the Z-order curve, in place.
func SortMorton(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Morton() < keys[j].Morton()
	})
}

func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}
