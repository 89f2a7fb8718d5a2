package composite

import (
	"image"
	"image/color"
	"testing"

	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/segment"
)

func opaqueBuffer(w, h int) []byte {
	px := make([]byte, w*h*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = 128, 128, 128, 255
	}
	return px
}

func alphaAt(px []byte, w, x, y int) byte { return px[(y*w+x)*4+3] }

func TestEdgeFadeRings(t *testing.T) {
	// 10x10 at ratio 0.2 gives a 2 pixel band: edge ring transparent,
	// next ring half, interior untouched.
	px := opaqueBuffer(10, 10)
	EdgeFade(px, 10, 10, 0.2)

	if a := alphaAt(px, 10, 0, 5); a != 0 {
		t.Errorf("edge ring alpha = %d, want 0", a)
	}
	if a := alphaAt(px, 10, 1, 5); a != 127 {
		t.Errorf("second ring alpha = %d, want 127", a)
	}
	if a := alphaAt(px, 10, 5, 5); a != 255 {
		t.Errorf("interior alpha = %d, want 255", a)
	}
	// Color channels stay put.
	if px[(5*10+5)*4] != 128 {
		t.Error("fade touched a color channel")
	}
}

func TestEdgeFadeCompounds(t *testing.T) {
	px := opaqueBuffer(10, 10)
	EdgeFade(px, 10, 10, 0.2)
	EdgeFade(px, 10, 10, 0.2)

	if a := alphaAt(px, 10, 1, 5); a != 63 {
		t.Errorf("double-faded ring alpha = %d, want 63", a)
	}
}

func TestEdgeFadeTinyWindow(t *testing.T) {
	// A 2x2 window still gets a one pixel band rather than none.
	px := opaqueBuffer(2, 2)
	EdgeFade(px, 2, 2, 0.1)
	if a := alphaAt(px, 2, 0, 0); a != 0 {
		t.Errorf("tiny window edge alpha = %d, want 0", a)
	}
}

func TestPunchHoleClearsInterior(t *testing.T) {
	px := opaqueBuffer(10, 10)
	PunchHole(px, 10, 10, 0.2)

	if a := alphaAt(px, 10, 5, 5); a != 0 {
		t.Errorf("interior alpha = %d, want 0", a)
	}
	if a := alphaAt(px, 10, 0, 5); a != 255 {
		t.Errorf("rim alpha = %d, want 255", a)
	}
	if a := alphaAt(px, 10, 1, 5); a != 127 {
		t.Errorf("feather ring alpha = %d, want 127", a)
	}
}

func TestCompositorInsertImage(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	doc := editor.NewMemDocument(base)
	c := &Compositor{Doc: doc}

	patch := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			patch.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}

	layer, err := c.InsertImage(patch, "enhanced", 4, 6, 204, 0.2)
	if err != nil {
		t.Fatalf("InsertImage() error: %v", err)
	}
	ml := layer.(*editor.MemLayer)
	if ml.OffsetX() != 4 || ml.OffsetY() != 6 {
		t.Errorf("offset = %d,%d, want 4,6", ml.OffsetX(), ml.OffsetY())
	}
	// Channel-scaled opacity (out of 255) converts to a fraction.
	if op := ml.Opacity(); op < 0.79 || op > 0.81 {
		t.Errorf("opacity = %v, want 0.8", op)
	}

	px, err := layer.ReadPixels(0, 0, 10, 10)
	if err != nil {
		t.Fatalf("ReadPixels() error: %v", err)
	}
	if a := alphaAt(px, 10, 0, 5); a != 0 {
		t.Errorf("inserted patch edge alpha = %d, want faded to 0", a)
	}
	if a := alphaAt(px, 10, 5, 5); a != 255 {
		t.Errorf("inserted patch interior alpha = %d, want 255", a)
	}
}

func TestCompositorPunchHoleClips(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	doc := editor.NewMemDocument(base)
	c := &Compositor{Doc: doc}

	layer, err := doc.CreateLayer("global", 20, 20)
	if err != nil {
		t.Fatalf("CreateLayer() error: %v", err)
	}
	if err := layer.WritePixels(0, 0, 20, 20, opaqueBuffer(20, 20)); err != nil {
		t.Fatalf("WritePixels() error: %v", err)
	}

	// Window sticking out past the layer edge clips instead of failing.
	if err := c.PunchHole(layer, segment.Region{X: 10, Y: 10, Width: 20, Height: 20}, 0.2); err != nil {
		t.Fatalf("PunchHole() error: %v", err)
	}

	px, _ := layer.ReadPixels(0, 0, 20, 20)
	if a := alphaAt(px, 20, 15, 15); a != 0 {
		t.Errorf("hole interior alpha = %d, want 0", a)
	}
	if a := alphaAt(px, 20, 5, 5); a != 255 {
		t.Errorf("outside hole alpha = %d, want 255", a)
	}

	// A window entirely off the layer is a no-op.
	if err := c.PunchHole(layer, segment.Region{X: 30, Y: 30, Width: 5, Height: 5}, 0.2); err != nil {
		t.Fatalf("PunchHole() off-layer error: %v", err)
	}
}
