package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/fkoller/seamweave/pkg/workflow"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes widget values in node labels. When false, only
	// the display name and class are shown.
	Detailed bool
}

// ToDOT converts a workflow document to Graphviz DOT format. The
// resulting string can be rendered with [RenderSVG].
func ToDOT(d *workflow.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Key, fmtLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range edges(d) {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.from, e.to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *workflow.Node, detailed bool) string {
	label := n.DisplayName()
	if label == n.Key && n.Class != "" {
		label = n.Class
	} else if n.Class != "" && n.Class != label {
		label += "\n" + n.Class
	}
	if detailed && len(n.Widgets) > 0 {
		parts := make([]string, 0, len(n.Widgets))
		for _, w := range n.Widgets {
			parts = append(parts, fmt.Sprintf("%v", w))
		}
		label += "\n" + strings.Join(parts, ", ")
	}
	return label
}

type edge struct{ from, to string }

// edges collects connections from both wire forms: the document link
// table, and keyed inputs holding inline [node, slot] references.
func edges(d *workflow.Document) []edge {
	var out []edge
	seen := map[edge]bool{}
	add := func(e edge) {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}

	for _, l := range d.Links {
		add(edge{from: l.FromNode, to: l.ToNode})
	}
	for _, n := range d.Nodes {
		if n.Inputs.Kind != workflow.InputsKeyed {
			continue
		}
		for _, v := range n.Inputs.Keyed {
			ref, ok := v.([]any)
			if !ok || len(ref) != 2 {
				continue
			}
			from := fmt.Sprintf("%v", ref[0])
			if d.Find(from) != nil {
				add(edge{from: from, to: n.Key})
			}
		}
	}
	return out
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
