package segment

import "testing"

type rectMask struct{ rects []Region }

func (m rectMask) Rectangles() []Region { return m.rects }

type pixelMask struct {
	bounds   Region
	channels int
	opaque   map[[2]int]bool // local coordinates inside bounds
}

func (m pixelMask) BoundingRect() Region { return m.bounds }

func (m pixelMask) AlphaData(x, y, w, h int) ([]byte, error) {
	data := make([]byte, w*h*m.channels)
	for p := range m.opaque {
		base := (p[1]*w + p[0]) * m.channels
		if m.channels >= 4 {
			data[base+3] = 255
		} else {
			data[base] = 255
		}
	}
	return data, nil
}

type geoMask struct{ x, y, w, h int }

func (m geoMask) X() int      { return m.x }
func (m geoMask) Y() int      { return m.y }
func (m geoMask) Width() int  { return m.w }
func (m geoMask) Height() int { return m.h }

func opaqueRect(px map[[2]int]bool, x0, y0, w, h int) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			px[[2]int{x, y}] = true
		}
	}
}

func TestRegionsExplicitRectangles(t *testing.T) {
	s := &Segmenter{}
	mask := rectMask{rects: []Region{
		{X: 50, Y: 0, Width: 10, Height: 10},
		{X: 5, Y: 20, Width: 8, Height: 8},
		{Width: 0, Height: 0},
	}}

	got := s.Regions(mask)
	want := []Region{
		{X: 5, Y: 20, Width: 8, Height: 8},
		{X: 50, Y: 0, Width: 10, Height: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("Regions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("region %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRegionsSingleComponent(t *testing.T) {
	px := map[[2]int]bool{}
	opaqueRect(px, 2, 3, 4, 5)
	mask := pixelMask{bounds: Region{X: 10, Y: 20, Width: 16, Height: 16}, channels: 4, opaque: px}

	got := (&Segmenter{}).Regions(mask)
	if len(got) != 1 {
		t.Fatalf("got %d regions, want 1", len(got))
	}
	want := Region{X: 12, Y: 23, Width: 4, Height: 5}
	if got[0] != want {
		t.Errorf("region = %v, want %v", got[0], want)
	}
}

func TestRegionsTwoComponentsSortedByX(t *testing.T) {
	px := map[[2]int]bool{}
	opaqueRect(px, 10, 0, 3, 3) // rightmost blob first in scan order
	opaqueRect(px, 0, 5, 2, 2)
	mask := pixelMask{bounds: Region{Width: 16, Height: 16}, channels: 1, opaque: px}

	got := (&Segmenter{}).Regions(mask)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2", len(got))
	}
	if got[0].X != 0 || got[1].X != 10 {
		t.Errorf("regions not sorted by x: %v", got)
	}
}

func TestRegionsDiagonalBlobsAreSeparate(t *testing.T) {
	// Two pixels touching only at a corner are distinct under
	// 4-connectivity.
	px := map[[2]int]bool{{0, 0}: true, {1, 1}: true}
	mask := pixelMask{bounds: Region{Width: 4, Height: 4}, channels: 4, opaque: px}

	got := (&Segmenter{}).Regions(mask)
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2: %v", len(got), got)
	}
}

func TestRegionsComponentCap(t *testing.T) {
	px := map[[2]int]bool{}
	for i := 0; i < 10; i++ {
		px[[2]int{i * 2, 0}] = true
	}
	mask := pixelMask{bounds: Region{Width: 32, Height: 4}, channels: 1, opaque: px}

	got := (&Segmenter{MaxComponents: 4}).Regions(mask)
	if len(got) != 4 {
		t.Fatalf("got %d regions, want cap of 4", len(got))
	}
}

func TestRegionsEmptyMaskFallsBackToBounds(t *testing.T) {
	mask := pixelMask{bounds: Region{X: 3, Y: 4, Width: 8, Height: 6}, channels: 4, opaque: nil}

	got := (&Segmenter{}).Regions(mask)
	if len(got) != 1 || got[0] != mask.bounds {
		t.Fatalf("Regions() = %v, want bounding rect %v", got, mask.bounds)
	}
}

func TestRegionsGeometryTier(t *testing.T) {
	got := (&Segmenter{}).Regions(geoMask{x: 1, y: 2, w: 3, h: 4})
	want := Region{X: 1, Y: 2, Width: 3, Height: 4}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("Regions() = %v, want %v", got, want)
	}
}

func TestRegionsUnknownMaskYieldsNone(t *testing.T) {
	// A value with no mask capabilities must not produce work regions.
	if got := (&Segmenter{}).Regions(struct{}{}); len(got) != 0 {
		t.Fatalf("Regions() = %v, want none", got)
	}
	if got := (&Segmenter{}).Regions(nil); len(got) != 0 {
		t.Fatalf("Regions(nil) = %v, want none", got)
	}
}

func TestRegionsEmptyGeometryYieldsNone(t *testing.T) {
	if got := (&Segmenter{}).Regions(geoMask{x: 1, y: 2, w: 0, h: 4}); len(got) != 0 {
		t.Fatalf("Regions() = %v, want none", got)
	}
}
