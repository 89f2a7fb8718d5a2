package workflow

import "maps"

// JobNode is a node's executable form inside a compiled prompt payload.
type JobNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// Prompt is the flat, link-resolved job payload keyed by node id.
type Prompt map[string]JobNode

// Compile flattens the document into a [Prompt]. For sequence-form inputs,
// link references resolve against the link table into [fromNode, fromSlot]
// pairs; literal ports prefer the class widget table, then positional
// widget consumption, then an explicit port value. Mapping-form inputs are
// copied through unchanged.
func (d *Document) Compile() Prompt {
	if d.byKey == nil {
		d.Normalize()
	}

	linkByID := make(map[int]Link, len(d.Links))
	for _, l := range d.Links {
		linkByID[l.ID] = l
	}

	prompt := make(Prompt, len(d.Nodes))
	for _, n := range d.Nodes {
		inputs := map[string]any{}

		switch n.Inputs.Kind {
		case InputsPositional:
			wm := widgetMap(n.Class, n.Widgets)
			maps.Copy(inputs, wm)
			widgetIdx := 0
			for _, p := range n.Inputs.Ports {
				if p.Link != nil {
					if src, ok := linkByID[*p.Link]; ok {
						inputs[p.Name] = []any{src.FromNode, src.FromSlot}
						if p.Widget {
							widgetIdx++
						}
						continue
					}
				}
				switch {
				case hasKey(wm, p.Name):
					// Already carried over from the widget table.
				case p.Widget && widgetIdx < len(n.Widgets):
					inputs[p.Name] = n.Widgets[widgetIdx]
				case p.HasValue:
					inputs[p.Name] = p.Value
				}
				if p.Widget {
					widgetIdx++
				}
			}
		case InputsKeyed:
			maps.Copy(inputs, n.Inputs.Keyed)
		case InputsNone:
			// A node with no declared ports still carries its widget
			// values; the class table names them.
			maps.Copy(inputs, widgetMap(n.Class, n.Widgets))
		}

		prompt[n.Key] = JobNode{ClassType: n.Class, Inputs: inputs}
	}
	return prompt
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
