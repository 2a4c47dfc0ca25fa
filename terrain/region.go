package terrain

import (
	"cmp"
	"fmt"
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// RegionKey addresses one cached terrain shape: chunk x, vertical slice y, chunk z.
type RegionKey struct {
	X int32 `msgpack:"x"`
	Y int32 `msgpack:"y"`
	Z int32 `msgpack:"z"`
}

func (k RegionKey) String() string {
	return fmt.Sprintf("(%d, %d, %d)", k.X, k.Y, k.Z)
}

// Compare orders keys by x, then z, then y.
func (k RegionKey) Compare(other RegionKey) int {
	if c := cmp.Compare(k.X, other.X); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Z, other.Z); c != 0 {
		return c
	}
	return cmp.Compare(k.Y, other.Y)
}

const (
	DefaultRegionSize  = 16.0
	DefaultSliceHeight = 16.0
)

// Grid maps world positions to regions.
type Grid struct {
	RegionSize  float64
	SliceHeight float64
}

func DefaultGrid() Grid {
	return Grid{RegionSize: DefaultRegionSize, SliceHeight: DefaultSliceHeight}
}

// RegionOf converts a world position into region coordinates
func (g Grid) RegionOf(pos mgl64.Vec3) RegionKey {
	return RegionKey{
		X: int32(math.Floor(pos.X() / g.RegionSize)),
		Y: int32(math.Floor(pos.Y() / g.SliceHeight)),
		Z: int32(math.Floor(pos.Z() / g.RegionSize)),
	}
}

// Origin is the minimum corner of the region in world space
func (g Grid) Origin(key RegionKey) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(key.X) * g.RegionSize,
		float64(key.Y) * g.SliceHeight,
		float64(key.Z) * g.RegionSize,
	}
}

// RegionsAround lists every region touched by the box grown by margin.
func (g Grid) RegionsAround(aabb actor.AABB, margin float64) []RegionKey {
	grown := aabb.Expand(margin)
	minKey := g.RegionOf(grown.Min)
	maxKey := g.RegionOf(grown.Max)

	keys := make([]RegionKey, 0, int(maxKey.X-minKey.X+1)*int(maxKey.Y-minKey.Y+1)*int(maxKey.Z-minKey.Z+1))
	for x := minKey.X; x <= maxKey.X; x++ {
		for y := minKey.Y; y <= maxKey.Y; y++ {
			for z := minKey.Z; z <= maxKey.Z; z++ {
				keys = append(keys, RegionKey{x, y, z})
			}
		}
	}

	return keys
}

// hashRegion spreads keys over a power of two table
func hashRegion(key RegionKey, mask int) int {
	h := (int(key.X) * 73856093) ^ (int(key.Y) * 19349663) ^ (int(key.Z) * 83492791)
	return h & mask
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
