// Package workflow parses ComfyUI-style node-graph documents and compiles
// them into flat, link-resolved prompt payloads ready for submission.
//
// A workflow document stores its nodes either as an id-keyed JSON object or
// as an ordered sequence, and each node carries its literal parameters either
// as a keyed input mapping, a positional input port list, or a widget value
// list. This package normalizes all of those shapes behind one [Document]
// type and provides the operations the enhancement pipeline needs:
//
//   - [Parse] / [Load]: decode a document, preserving node insertion order
//   - [Document.Normalize]: rewrite sequence-form nodes into keyed form
//   - [Document.Find]: resolve a node by id, name/title, or class
//   - [Document.InjectImage] / [Document.InjectPrompt]: bind the exported
//     input image and the prompt text to their conventional nodes
//   - [Document.ApplyOverrides]: apply dotted-path parameter overrides
//   - [Document.Compile]: produce the executable [Prompt]
//
// Override and injection misses are never fatal: they are reported through
// the caller's log function and the remaining work continues.
package workflow
