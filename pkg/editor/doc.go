// Package editor abstracts the host image document that enhancement runs
// read from and write back into.
//
// The pipeline only ever touches a document through the [Document] and
// [Layer] interfaces, so it runs the same against a real editor bridge or
// against [MemDocument], the in-memory implementation used for headless
// command-line runs and tests. Pixel buffers are interleaved 8-bit RGBA.
package editor
