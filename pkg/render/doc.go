// Package render draws workflow graphs as node-link diagrams.
//
// ToDOT converts a parsed workflow document to Graphviz DOT, with edges
// taken from the document's link table and from inline node references.
// RenderSVG rasterizes the DOT through Graphviz so a workflow can be
// inspected before it is submitted.
package render
