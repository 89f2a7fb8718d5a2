package workflow

import (
	"strconv"
	"strings"
)

// Override rewrites one value of the document, addressed by a dotted path.
// The first path segment identifies a node (by key, name/title, or class);
// remaining segments descend through nested containers to the leaf to
// overwrite. A single-segment target addresses an input name anywhere in
// the document, falling back to a node's first widget value.
type Override struct {
	Target string `json:"target" toml:"target"`
	Value  any    `json:"value" toml:"value"`
}

// ApplyOverrides applies each override in turn. Failures are isolated:
// an unresolvable target or path segment is logged and that single
// override skipped, never aborting the batch.
func (d *Document) ApplyOverrides(overrides []Override, logf Logf) {
	if d.byKey == nil {
		d.Normalize()
	}
	for _, ov := range overrides {
		if ov.Target == "" {
			continue
		}
		d.applyOverride(ov.Target, ov.Value, logf)
	}
}

func (d *Document) applyOverride(target string, value any, logf Logf) {
	segments := strings.Split(target, ".")

	if len(segments) == 1 {
		d.applyFlatOverride(target, value, logf)
		return
	}

	node := d.Find(segments[0])
	if node == nil {
		logf.printf("override target not found: node %q", segments[0])
		return
	}

	cur := any(node)
	for _, seg := range segments[1 : len(segments)-1] {
		next, ok := step(cur, seg)
		if !ok {
			logf.printf("override path missing segment %q for target %q", seg, target)
			return
		}
		cur = next
	}

	leaf := segments[len(segments)-1]
	if setLeaf(cur, leaf, ConvertValue(value)) {
		logf.printf("set %s to %v", target, ConvertValue(value))
	} else {
		logf.printf("override leaf %q not settable for target %q", leaf, target)
	}
}

// applyFlatOverride handles single-segment targets: first an input with
// that name anywhere in the document, then the target as a node identifier
// whose first widget value is written.
func (d *Document) applyFlatOverride(target string, value any, logf Logf) {
	for _, n := range d.Nodes {
		switch n.Inputs.Kind {
		case InputsKeyed:
			if _, ok := n.Inputs.Keyed[target]; ok {
				n.Inputs.Keyed[target] = ConvertValue(value)
				logf.printf("set input %q on node %q", target, n.DisplayName())
				return
			}
		case InputsPositional:
			for _, p := range n.Inputs.Ports {
				if p.Name == target {
					p.Value = ConvertValue(value)
					p.HasValue = true
					logf.printf("set port %q on node %q", target, n.DisplayName())
					return
				}
			}
		}
	}

	if n := d.Find(target); n != nil {
		if len(n.Widgets) > 0 {
			n.Widgets[0] = ConvertValue(value)
			logf.printf("set widget value for %q on node %q", target, n.DisplayName())
			return
		}
		for _, p := range n.Inputs.Ports {
			if p.Name == target {
				p.Value = ConvertValue(value)
				p.HasValue = true
				logf.printf("set port value for %q on node %q", target, n.DisplayName())
				return
			}
		}
	}
	logf.printf("override target not found: input/widget %q", target)
}

// step descends one path segment through a container. Mappings descend by
// key (the key must exist for intermediate segments), sequences by numeric
// index.
func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case *Node:
		switch seg {
		case "inputs":
			return &c.Inputs, true
		case "widgets_values":
			return c.Widgets, true
		}
		v, ok := c.Extra[seg]
		return v, ok && v != nil
	case *Inputs:
		switch c.Kind {
		case InputsKeyed:
			v, ok := c.Keyed[seg]
			return v, ok && v != nil
		case InputsPositional:
			if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(c.Ports) {
				return c.Ports[idx], true
			}
		}
		return nil, false
	case *Port:
		if seg == "value" {
			return c.Value, c.HasValue
		}
		return nil, false
	case map[string]any:
		v, ok := c[seg]
		return v, ok && v != nil
	case []any:
		if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 && idx < len(c) {
			return c[idx], true
		}
		return nil, false
	}
	return nil, false
}

// setLeaf overwrites the leaf addressed by key on the container cur. A
// numeric key on a sequence is an index (bounds-checked); on a mapping it
// is a plain key, created if absent to accommodate flexible downstream
// schemas.
func setLeaf(cur any, key string, v any) bool {
	switch c := cur.(type) {
	case *Node:
		switch key {
		case "inputs", "widgets_values":
			return false
		}
		c.Extra[key] = v
		return true
	case *Inputs:
		switch c.Kind {
		case InputsKeyed:
			c.Keyed[key] = v
			return true
		case InputsPositional:
			if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(c.Ports) {
				c.Ports[idx].Value = v
				c.Ports[idx].HasValue = true
				return true
			}
		}
		return false
	case *Port:
		if key == "value" {
			c.Value = v
			c.HasValue = true
			return true
		}
		return false
	case map[string]any:
		c[key] = v
		return true
	case []any:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(c) {
			c[idx] = v
			return true
		}
		return false
	}
	return false
}
