package terrain

import (
	"slices"
	"testing"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestGrid_RegionOf(t *testing.T) {
	grid := DefaultGrid()

	tests := []struct {
		name string
		pos  mgl64.Vec3
		want RegionKey
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, RegionKey{0, 0, 0}},
		{"inside first region", mgl64.Vec3{15.9, 15.9, 15.9}, RegionKey{0, 0, 0}},
		{"on the boundary", mgl64.Vec3{16, 16, 16}, RegionKey{1, 1, 1}},
		{"negative coordinates floor", mgl64.Vec3{-0.5, -0.5, 17}, RegionKey{-1, -1, 1}},
		{"far away", mgl64.Vec3{-1000, 64, 1000}, RegionKey{-63, 4, 62}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.RegionOf(tt.pos); got != tt.want {
				t.Errorf("RegionOf(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestGrid_Origin(t *testing.T) {
	grid := Grid{RegionSize: 16, SliceHeight: 8}
	got := grid.Origin(RegionKey{-1, 2, 3})
	want := mgl64.Vec3{-16, 16, 48}
	if got != want {
		t.Errorf("Origin() = %v, want %v", got, want)
	}
	if back := grid.RegionOf(got); back != (RegionKey{-1, 2, 3}) {
		t.Errorf("RegionOf(Origin()) = %v", back)
	}
}

func TestGrid_RegionsAround(t *testing.T) {
	grid := DefaultGrid()
	aabb := actor.AABB{Min: mgl64.Vec3{-1, 4, -1}, Max: mgl64.Vec3{1, 6, 1}}

	keys := grid.RegionsAround(aabb, 0)
	if len(keys) != 4 {
		t.Fatalf("len = %d, want 4: %v", len(keys), keys)
	}
	for _, want := range []RegionKey{{-1, 0, -1}, {-1, 0, 0}, {0, 0, -1}, {0, 0, 0}} {
		if !slices.Contains(keys, want) {
			t.Errorf("missing region %v", want)
		}
	}

	// margin reaches the slice below
	keys = grid.RegionsAround(aabb, 8)
	if len(keys) != 8 {
		t.Errorf("len with margin = %d, want 8", len(keys))
	}
}

func TestRegionKey_Compare(t *testing.T) {
	keys := []RegionKey{{1, 0, 0}, {0, 5, 1}, {0, -1, 1}, {-3, 9, 9}}
	slices.SortFunc(keys, RegionKey.Compare)

	want := []RegionKey{{-3, 9, 9}, {0, -1, 1}, {0, 5, 1}, {1, 0, 0}}
	if !slices.Equal(keys, want) {
		t.Errorf("sorted = %v, want %v", keys, want)
	}
}

func TestHashRegion_InRange(t *testing.T) {
	mask := nextPowerOfTwo(50) - 1
	if mask != 63 {
		t.Fatalf("mask = %d, want 63", mask)
	}

	for x := int32(-20); x <= 20; x += 3 {
		for y := int32(-4); y <= 4; y++ {
			h := hashRegion(RegionKey{x, y, -x}, mask)
			if h < 0 || h > mask {
				t.Fatalf("hashRegion(%d, %d, %d) = %d out of [0, %d]", x, y, -x, h, mask)
			}
		}
	}
}
