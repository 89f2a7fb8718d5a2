// Package pipeline orchestrates a full enhancement run against a
// document: segment the selection mask into regions, export the source
// pixels, drive the remote workflow for the whole image and for each
// region, and composite the results back as feathered layers.
//
// A run has two phases. The global pass regenerates the entire canvas at
// reduced detail and inserts it as a base enhancement layer. The region
// passes then re-render each masked region at full detail; before each
// one, a feathered hole is punched into the global layer so the sharper
// region result shows through without a seam. Region jobs are best
// effort, a failed region is logged and skipped, while a failed global
// pass aborts the run.
//
// The Runner is stateless between runs apart from its client, segmenter,
// and logger; cancellation is cooperative through the caller's stop flag
// and the run context.
package pipeline
