// Package segment derives the rectangular work regions for an enhancement
// run from a selection mask.
//
// Masks are accepted through small capability interfaces rather than one
// concrete type, so any host document object can participate. Resolution
// walks a fixed ladder: explicit rectangle lists win, then pixel-level
// connected-component analysis over the mask's alpha channel, then the
// mask's own bounding geometry. A mask exposing none of these yields no
// regions.
package segment
