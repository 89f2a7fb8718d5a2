package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Logf receives human-readable progress and diagnostic lines.
// A nil Logf silently discards them.
type Logf func(format string, args ...any)

func (f Logf) printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// InputsKind discriminates the three shapes node inputs arrive in.
type InputsKind int

const (
	// InputsNone marks a node without an inputs field.
	InputsNone InputsKind = iota
	// InputsKeyed marks mapping-form inputs (name → literal or link pair).
	InputsKeyed
	// InputsPositional marks sequence-form inputs (ordered port records).
	InputsPositional
)

// Inputs is the tagged variant holding a node's input parameters.
// Exactly one of Keyed or Ports is populated, according to Kind.
type Inputs struct {
	Kind  InputsKind
	Keyed map[string]any
	Ports []*Port
}

// Port is one entry of a sequence-form input list.
type Port struct {
	Name string
	// Link references a row of the document link table; nil when the port
	// carries a literal instead of a connection.
	Link *int
	// Widget is set when the port declared a widget marker, meaning the
	// port consumes one slot of the node's widget value list.
	Widget   bool
	Value    any
	HasValue bool
}

// Node is a single operation of the graph document.
type Node struct {
	// Key is the node's mapping key after normalization. Empty until
	// [Document.Normalize] has run on a sequence-form document.
	Key string
	// ID is the node's declared id, stringified; may be empty.
	ID      string
	Class   string
	Title   string
	Name    string
	Inputs  Inputs
	Widgets []any
	// Extra keeps unrecognized node fields addressable by override paths.
	Extra map[string]any
}

// DisplayName returns the most human-friendly identifier available,
// matching the precedence used in log lines: name, title, key, class.
func (n *Node) DisplayName() string {
	switch {
	case n.Name != "":
		return n.Name
	case n.Title != "":
		return n.Title
	case n.Key != "":
		return n.Key
	}
	return n.Class
}

// Link is one row of the document link table, decoded from the wire form
// [id, from_node, from_slot, to_node, to_slot].
type Link struct {
	ID       int
	FromNode string
	FromSlot int
	ToNode   string
	ToSlot   int
}

// Document is a parsed node-graph workflow.
type Document struct {
	// Nodes in insertion order. Order is significant: lookup falls back to
	// the first match in this order.
	Nodes []*Node
	Links []Link

	byKey map[string]*Node
}

// Load reads and parses a workflow document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a workflow document. Nodes may arrive as a JSON object
// (insertion order is preserved) or as a sequence (keys are assigned from
// each node's declared id, else its position). The returned document is
// already normalized.
func Parse(data []byte) (*Document, error) {
	var raw struct {
		Nodes json.RawMessage `json:"nodes"`
		Links json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	if len(raw.Nodes) > 0 {
		nodes, err := parseNodes(raw.Nodes)
		if err != nil {
			return nil, fmt.Errorf("nodes: %w", err)
		}
		doc.Nodes = nodes
	}
	if len(raw.Links) > 0 {
		links, err := parseLinks(raw.Links)
		if err != nil {
			return nil, fmt.Errorf("links: %w", err)
		}
		doc.Links = links
	}
	doc.Normalize()
	return doc, nil
}

// Normalize assigns mapping keys to nodes that lack one (sequence-form
// documents) and rebuilds the key index. The key is the node's declared id
// when present, else its position, both stringified. Normalize is
// idempotent: keys assigned once are never reassigned.
func (d *Document) Normalize() {
	for i, n := range d.Nodes {
		if n.Key != "" {
			continue
		}
		if n.ID != "" {
			n.Key = n.ID
		} else {
			n.Key = strconv.Itoa(i)
		}
	}
	d.byKey = make(map[string]*Node, len(d.Nodes))
	for _, n := range d.Nodes {
		d.byKey[n.Key] = n
	}
}

// Find resolves identifier against the document: direct key match first,
// then node name/title equality, then declared id, then class equality.
// Each criterion scans nodes in insertion order. Returns nil when nothing
// matches; callers treat that as "skip with a log", not an error.
func (d *Document) Find(identifier string) *Node {
	if d.byKey == nil {
		d.Normalize()
	}
	if n, ok := d.byKey[identifier]; ok {
		return n
	}
	for _, n := range d.Nodes {
		if n.Name == identifier || n.Title == identifier {
			return n
		}
	}
	for _, n := range d.Nodes {
		if n.ID == identifier {
			return n
		}
	}
	for _, n := range d.Nodes {
		if n.Class == identifier {
			return n
		}
	}
	return nil
}

func parseNodes(raw json.RawMessage) ([]*Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var entries []map[string]any
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		nodes := make([]*Node, 0, len(entries))
		for _, m := range entries {
			if m == nil {
				continue
			}
			nodes = append(nodes, nodeFromRaw(m))
		}
		return nodes, nil

	case '{':
		// Token-level decoding keeps the object's key order, which lookup
		// and injection depend on.
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil { // consume '{'
			return nil, err
		}
		var nodes []*Node
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected node key token %v", keyTok)
			}
			var m map[string]any
			if err := dec.Decode(&m); err != nil {
				return nil, fmt.Errorf("node %q: %w", key, err)
			}
			if m == nil {
				continue
			}
			n := nodeFromRaw(m)
			n.Key = key
			nodes = append(nodes, n)
		}
		return nodes, nil
	}
	return nil, fmt.Errorf("nodes must be an object or array")
}

func nodeFromRaw(m map[string]any) *Node {
	n := &Node{Extra: map[string]any{}}
	n.ID = formatScalar(m["id"])
	if s, ok := m["type"].(string); ok && s != "" {
		n.Class = s
	} else if s, ok := m["class_type"].(string); ok {
		n.Class = s
	}
	n.Title, _ = m["title"].(string)
	n.Name, _ = m["name"].(string)
	if ws, ok := m["widgets_values"].([]any); ok {
		n.Widgets = ws
	}

	switch iv := m["inputs"].(type) {
	case map[string]any:
		n.Inputs = Inputs{Kind: InputsKeyed, Keyed: iv}
	case []any:
		ports := make([]*Port, 0, len(iv))
		for _, entry := range iv {
			pm, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			ports = append(ports, portFromRaw(pm))
		}
		n.Inputs = Inputs{Kind: InputsPositional, Ports: ports}
	}

	for k, v := range m {
		switch k {
		case "id", "type", "class_type", "title", "name", "inputs", "widgets_values":
		default:
			n.Extra[k] = v
		}
	}
	return n
}

func portFromRaw(m map[string]any) *Port {
	p := &Port{}
	p.Name, _ = m["name"].(string)
	if lv, ok := m["link"].(float64); ok {
		id := int(lv)
		p.Link = &id
	}
	if _, ok := m["widget"].(map[string]any); ok {
		p.Widget = true
	}
	if v, ok := m["value"]; ok {
		p.Value = v
		p.HasValue = true
	}
	return p
}

func parseLinks(raw json.RawMessage) ([]Link, error) {
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		id, ok := asInt(row[0])
		if !ok {
			continue
		}
		links = append(links, Link{
			ID:       id,
			FromNode: formatScalar(row[1]),
			FromSlot: intOrZero(row[2]),
			ToNode:   formatScalar(row[3]),
			ToSlot:   intOrZero(row[4]),
		})
	}
	return links, nil
}

// formatScalar stringifies a JSON scalar the way node ids are keyed:
// integral numbers lose their fraction dot, everything else is printed
// as-is. Returns "" for nil.
func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func intOrZero(v any) int {
	n, _ := asInt(v)
	return n
}
