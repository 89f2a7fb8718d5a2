package composite

import (
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/segment"
)

// Compositor inserts generated images into a document as new layers and
// punches feathered holes into existing ones.
type Compositor struct {
	Doc    editor.Document
	Logger *log.Logger
}

func (c *Compositor) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// InsertImage adds img as a new layer named name, positioned at x, y.
// Opacity above 1 is read as an alpha channel value out of 255. A
// positive fadeRatio feathers the patch border before insertion.
func (c *Compositor) InsertImage(img image.Image, name string, x, y int, opacity, fadeRatio float64) (editor.Layer, error) {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("insert %q: image is empty", name)
	}

	px := make([]byte, len(nrgba.Pix))
	copy(px, nrgba.Pix)
	if fadeRatio > 0 {
		EdgeFade(px, w, h, fadeRatio)
	}

	layer, err := c.Doc.CreateLayer(name, w, h)
	if err != nil {
		return nil, fmt.Errorf("insert %q: %w", name, err)
	}
	if err := layer.WritePixels(0, 0, w, h, px); err != nil {
		return nil, fmt.Errorf("insert %q: %w", name, err)
	}
	layer.SetOffset(x, y)

	if opacity > 1 {
		opacity /= 255
	}
	layer.SetOpacity(max(0, min(1, opacity)))

	c.logger().Debug("inserted layer", "name", name, "x", x, "y", y, "size", fmt.Sprintf("%dx%d", w, h))
	return layer, nil
}

// PunchHole clears the given window of a layer, leaving a feathered rim.
// The region is in layer coordinates and is clipped to the layer bounds;
// a window that misses the layer entirely is a no-op.
func (c *Compositor) PunchHole(layer editor.Layer, r segment.Region, fadeRatio float64) error {
	x0 := max(0, r.X)
	y0 := max(0, r.Y)
	x1 := min(layer.Width(), r.X+r.Width)
	y1 := min(layer.Height(), r.Y+r.Height)
	if x0 >= x1 || y0 >= y1 {
		c.logger().Debug("punch window misses layer", "layer", layer.Name())
		return nil
	}
	w, h := x1-x0, y1-y0

	px, err := layer.ReadPixels(x0, y0, w, h)
	if err != nil {
		return fmt.Errorf("punch hole in %q: %w", layer.Name(), err)
	}
	PunchHole(px, w, h, fadeRatio)
	if err := layer.WritePixels(x0, y0, w, h, px); err != nil {
		return fmt.Errorf("punch hole in %q: %w", layer.Name(), err)
	}
	c.logger().Debug("punched hole", "layer", layer.Name(), "x", x0, "y", y0, "size", fmt.Sprintf("%dx%d", w, h))
	return nil
}
