package editor

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fkoller/seamweave/pkg/segment"
)

// ErrOutOfBounds is returned when a pixel window falls outside a layer.
var ErrOutOfBounds = errors.New("pixel window out of bounds")

// Layer is one writable layer of a document. Pixel windows are in layer
// coordinates; the offset places the layer on the document canvas.
type Layer interface {
	Name() string
	Width() int
	Height() int

	// SetOffset positions the layer's top-left corner on the canvas.
	SetOffset(x, y int)

	// SetOpacity sets the layer's blend opacity in [0, 1].
	SetOpacity(opacity float64)

	// ReadPixels returns the RGBA bytes of a window, 4 bytes per pixel.
	ReadPixels(x, y, w, h int) ([]byte, error)

	// WritePixels replaces the RGBA bytes of a window.
	WritePixels(x, y, w, h int, px []byte) error
}

// Document is the host image an enhancement run operates on.
type Document interface {
	Width() int
	Height() int

	// ExportRegion flattens the named rectangle of the document into an
	// image, compositing all layers.
	ExportRegion(r segment.Region) (image.Image, error)

	// CreateLayer adds an empty transparent layer of the given size on
	// top of the stack.
	CreateLayer(name string, w, h int) (Layer, error)

	// Layers returns the stack, bottom first.
	Layers() []Layer
}

// MemDocument is an in-memory [Document]: a base image plus a stack of
// RGBA layers composited with the source-over operator.
type MemDocument struct {
	base   *image.NRGBA
	layers []*MemLayer
}

// MemLayer is the [Layer] implementation backing [MemDocument].
type MemLayer struct {
	name    string
	buf     *image.NRGBA
	offX    int
	offY    int
	opacity float64
}

// NewMemDocument creates a document from a base image, converted to NRGBA.
func NewMemDocument(base image.Image) *MemDocument {
	b := base.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			nrgba.Set(x, y, base.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return &MemDocument{base: nrgba}
}

func (d *MemDocument) Width() int  { return d.base.Rect.Dx() }
func (d *MemDocument) Height() int { return d.base.Rect.Dy() }

func (d *MemDocument) CreateLayer(name string, w, h int) (Layer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("create layer %q: invalid size %dx%d", name, w, h)
	}
	l := &MemLayer{
		name:    name,
		buf:     image.NewNRGBA(image.Rect(0, 0, w, h)),
		opacity: 1,
	}
	d.layers = append(d.layers, l)
	return l, nil
}

func (d *MemDocument) Layers() []Layer {
	out := make([]Layer, len(d.layers))
	for i, l := range d.layers {
		out[i] = l
	}
	return out
}

// ExportRegion composites the base and every layer over the requested
// window. Layer opacity scales the source alpha.
func (d *MemDocument) ExportRegion(r segment.Region) (image.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("export region: empty rectangle")
	}
	out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			dx, dy := r.X+x, r.Y+y
			if image.Pt(dx, dy).In(d.base.Rect) {
				out.SetNRGBA(x, y, d.base.NRGBAAt(dx, dy))
			}
		}
	}
	for _, l := range d.layers {
		l.compositeOnto(out, r)
	}
	return out, nil
}

func (l *MemLayer) compositeOnto(dst *image.NRGBA, r segment.Region) {
	lb := l.buf.Rect
	for ly := 0; ly < lb.Dy(); ly++ {
		for lx := 0; lx < lb.Dx(); lx++ {
			// Document coordinates of this layer pixel.
			dx := l.offX + lx - r.X
			dy := l.offY + ly - r.Y
			if dx < 0 || dy < 0 || dx >= r.Width || dy >= r.Height {
				continue
			}
			src := l.buf.NRGBAAt(lx, ly)
			a := float64(src.A) / 255 * l.opacity
			if a <= 0 {
				continue
			}
			bg := dst.NRGBAAt(dx, dy)
			blend := func(s, b uint8) uint8 {
				return uint8(float64(s)*a + float64(b)*(1-a) + 0.5)
			}
			dst.SetNRGBA(dx, dy, nrgba(
				blend(src.R, bg.R),
				blend(src.G, bg.G),
				blend(src.B, bg.B),
				uint8(min(255, int(a*255)+int(float64(bg.A)*(1-a)+0.5))),
			))
		}
	}
}

func (l *MemLayer) Name() string   { return l.name }
func (l *MemLayer) Width() int     { return l.buf.Rect.Dx() }
func (l *MemLayer) Height() int    { return l.buf.Rect.Dy() }
func (l *MemLayer) OffsetX() int   { return l.offX }
func (l *MemLayer) OffsetY() int   { return l.offY }
func (l *MemLayer) Opacity() float64 { return l.opacity }

func (l *MemLayer) SetOffset(x, y int) { l.offX, l.offY = x, y }

func (l *MemLayer) SetOpacity(opacity float64) {
	l.opacity = max(0, min(1, opacity))
}

func (l *MemLayer) checkWindow(x, y, w, h int) error {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > l.Width() || y+h > l.Height() {
		return fmt.Errorf("layer %q window %d,%d %dx%d: %w", l.name, x, y, w, h, ErrOutOfBounds)
	}
	return nil
}

func (l *MemLayer) ReadPixels(x, y, w, h int) ([]byte, error) {
	if err := l.checkWindow(x, y, w, h); err != nil {
		return nil, err
	}
	out := make([]byte, w*h*4)
	for row := 0; row < h; row++ {
		src := l.buf.PixOffset(x, y+row)
		copy(out[row*w*4:(row+1)*w*4], l.buf.Pix[src:src+w*4])
	}
	return out, nil
}

func (l *MemLayer) WritePixels(x, y, w, h int, px []byte) error {
	if err := l.checkWindow(x, y, w, h); err != nil {
		return err
	}
	if len(px) != w*h*4 {
		return fmt.Errorf("layer %q: pixel buffer is %d bytes, want %d", l.name, len(px), w*h*4)
	}
	for row := 0; row < h; row++ {
		dst := l.buf.PixOffset(x, y+row)
		copy(l.buf.Pix[dst:dst+w*4], px[row*w*4:(row+1)*w*4])
	}
	return nil
}

func nrgba(r, g, b, a uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
