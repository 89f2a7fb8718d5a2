// Package composite blends generated patches back into a document.
//
// Two alpha ramps do the seam hiding. EdgeFade feathers a patch's border
// toward transparency so it melts into whatever sits below. PunchHole is
// its inverse: it clears a window in an existing layer, keeping a feathered
// rim, so a sharper patch can show through from above without a visible
// cut line. Both operate in place on interleaved RGBA buffers and scale
// the alpha channel only.
package composite
