package segment

import (
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// DefaultMaxComponents caps how many disjoint mask blobs become regions.
const DefaultMaxComponents = 32

// Region is an axis-aligned rectangle in document coordinates.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// RectangleLister is a mask that can enumerate its selection rectangles
// directly, bypassing pixel analysis.
type RectangleLister interface {
	Rectangles() []Region
}

// AlphaSource is a mask whose pixels can be read back. AlphaData returns
// raw interleaved channel data for the requested window; the channel
// count is inferred from the buffer length.
type AlphaSource interface {
	AlphaData(x, y, w, h int) ([]byte, error)
}

// Bounded is a mask that knows the bounding rectangle of its selection.
type Bounded interface {
	BoundingRect() Region
}

// Geometry describes a mask by plain position and size accessors.
type Geometry interface {
	X() int
	Y() int
	Width() int
	Height() int
}

// Segmenter resolves masks into work regions.
type Segmenter struct {
	// MaxComponents bounds the number of regions produced by pixel
	// analysis. Zero means DefaultMaxComponents.
	MaxComponents int

	Logger *log.Logger
}

func (s *Segmenter) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

func (s *Segmenter) maxComponents() int {
	if s.MaxComponents > 0 {
		return s.MaxComponents
	}
	return DefaultMaxComponents
}

// Regions resolves mask into zero or more work regions, ordered by
// ascending X. A mask that implements none of the capability interfaces,
// or describes only empty shapes, yields no regions.
func (s *Segmenter) Regions(mask any) []Region {
	logger := s.logger()

	if lister, ok := mask.(RectangleLister); ok {
		if rects := nonEmpty(lister.Rectangles()); len(rects) > 0 {
			logger.Debug("mask provided explicit rectangles", "count", len(rects))
			return sortByX(rects)
		}
	}

	src, hasAlpha := mask.(AlphaSource)
	bounded, hasBounds := mask.(Bounded)
	if hasAlpha && hasBounds {
		bounds := bounded.BoundingRect()
		if !bounds.Empty() {
			if comps := s.components(src, bounds); len(comps) > 0 {
				logger.Debug("mask split into components", "count", len(comps))
				return sortByX(comps)
			}
			logger.Debug("mask has no opaque pixels, using bounding rect")
			return []Region{bounds}
		}
	}
	if hasBounds {
		if bounds := bounded.BoundingRect(); !bounds.Empty() {
			return []Region{bounds}
		}
	}

	if geo, ok := mask.(Geometry); ok {
		r := Region{X: geo.X(), Y: geo.Y(), Width: geo.Width(), Height: geo.Height()}
		if !r.Empty() {
			return []Region{r}
		}
	}

	logger.Debug("mask exposes no usable shape, no regions")
	return nil
}

// components labels 4-connected blobs of opaque pixels inside bounds and
// returns their bounding rectangles in document coordinates.
func (s *Segmenter) components(src AlphaSource, bounds Region) []Region {
	data, err := src.AlphaData(bounds.X, bounds.Y, bounds.Width, bounds.Height)
	if err != nil {
		s.logger().Warn("reading mask pixels failed", "err", err)
		return nil
	}

	w, h := bounds.Width, bounds.Height
	npix := w * h
	if npix == 0 || len(data) < npix {
		return nil
	}
	channels := len(data) / npix
	// For multi-channel data the alpha plane sits at channel 3; single
	// and dual channel buffers carry coverage in channel 0.
	alphaAt := func(i int) byte {
		base := i * channels
		if channels >= 4 {
			return data[base+3]
		}
		return data[base]
	}

	visited := make([]bool, npix)
	stack := make([]int, 0, 256)
	var regions []Region
	limit := s.maxComponents()

	for start := 0; start < npix && len(regions) < limit; start++ {
		if visited[start] || alphaAt(start) == 0 {
			continue
		}

		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		visited[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w

			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4]int{i - w, i + w, i - 1, i + 1} {
				if n < 0 || n >= npix || visited[n] {
					continue
				}
				// Left/right neighbors must stay on the same row.
				if (n == i-1 || n == i+1) && n/w != y {
					continue
				}
				if alphaAt(n) == 0 {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}

		regions = append(regions, Region{
			X:      bounds.X + minX,
			Y:      bounds.Y + minY,
			Width:  maxX - minX + 1,
			Height: maxY - minY + 1,
		})
	}
	return regions
}

func nonEmpty(rects []Region) []Region {
	out := rects[:0:0]
	for _, r := range rects {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

func sortByX(rects []Region) []Region {
	slices.SortStableFunc(rects, func(a, b Region) int { return a.X - b.X })
	return rects
}
