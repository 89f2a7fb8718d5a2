package composite

// fadeWidth converts a relative fade ratio into a pixel band width for a
// window of the given size. At least one pixel, so a tiny window still
// gets a soft border.
func fadeWidth(w, h int, ratio float64) int {
	side := min(w, h)
	return max(1, int(float64(side)*ratio))
}

// edgeDistance is the Chebyshev distance from a pixel to the nearest
// window edge.
func edgeDistance(x, y, w, h int) int {
	return min(min(x, y), min(w-1-x, h-1-y))
}

// EdgeFade feathers the border of an RGBA buffer: alpha ramps linearly
// from zero at the window edge to full at the fade band's inner boundary.
// The buffer is modified in place. The ramp multiplies the existing
// alpha, so a faded buffer fades further when applied again.
func EdgeFade(px []byte, w, h int, ratio float64) {
	if w <= 0 || h <= 0 || ratio <= 0 || len(px) < w*h*4 {
		return
	}
	fade := fadeWidth(w, h, ratio)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := edgeDistance(x, y, w, h)
			if d >= fade {
				continue
			}
			i := (y*w+x)*4 + 3
			px[i] = uint8(float64(px[i]) * float64(d) / float64(fade))
		}
	}
}

// PunchHole clears the interior of an RGBA buffer, leaving a feathered
// rim: alpha stays full at the window edge and ramps to zero at the fade
// band's inner boundary, beyond which the buffer is fully transparent.
// The buffer is modified in place.
func PunchHole(px []byte, w, h int, ratio float64) {
	if w <= 0 || h <= 0 || len(px) < w*h*4 {
		return
	}
	fade := fadeWidth(w, h, ratio)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w+x)*4 + 3
			d := edgeDistance(x, y, w, h)
			if d >= fade {
				px[i] = 0
				continue
			}
			px[i] = uint8(float64(px[i]) * (1 - float64(d)/float64(fade)))
		}
	}
}
