package cli

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/fkoller/seamweave/pkg/segment"
)

// imageMask adapts a mask image file for the segmenter. Selection comes
// from the alpha channel when the image carries transparency, otherwise
// from luminance, with bright pixels selected. Coverage is binarized so
// anti-aliased mask edges do not spawn sliver components.
type imageMask struct {
	w, h     int
	coverage []byte
	bounds   segment.Region
}

func loadMask(path string) (*imageMask, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load mask: %w", err)
	}
	return newImageMask(img), nil
}

func newImageMask(img image.Image) *imageMask {
	nrgba := imaging.Clone(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()

	hasAlpha := false
	for i := 3; i < len(nrgba.Pix); i += 4 {
		if nrgba.Pix[i] < 255 {
			hasAlpha = true
			break
		}
	}

	m := &imageMask{w: w, h: h, coverage: make([]byte, w*h)}
	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * 4
			var v byte
			if hasAlpha {
				v = nrgba.Pix[base+3]
			} else {
				// Rec. 601 luma, integer approximation.
				r, g, b := int(nrgba.Pix[base]), int(nrgba.Pix[base+1]), int(nrgba.Pix[base+2])
				v = byte((299*r + 587*g + 114*b) / 1000)
			}
			if v > 127 {
				m.coverage[y*w+x] = 255
				minX, minY = min(minX, x), min(minY, y)
				maxX, maxY = max(maxX, x), max(maxY, y)
			}
		}
	}
	if maxX >= 0 {
		m.bounds = segment.Region{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
	}
	return m
}

func (m *imageMask) BoundingRect() segment.Region { return m.bounds }

func (m *imageMask) AlphaData(x, y, w, h int) ([]byte, error) {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > m.w || y+h > m.h {
		return nil, fmt.Errorf("mask window %d,%d %dx%d out of bounds", x, y, w, h)
	}
	out := make([]byte, w*h)
	for row := 0; row < h; row++ {
		copy(out[row*w:(row+1)*w], m.coverage[(y+row)*m.w+x:(y+row)*m.w+x+w])
	}
	return out, nil
}
