package workflow

import (
	"testing"
)

const sequenceDoc = `{
  "nodes": [
    {"id": 4, "type": "CheckpointLoaderSimple", "widgets_values": ["sd15.safetensors"]},
    {"id": 9, "type": "CLIPTextEncode", "title": "Prompt",
     "inputs": [
       {"name": "clip", "link": 5},
       {"name": "text", "widget": {"name": "text"}}
     ],
     "widgets_values": ["a castle on a hill"]},
    {"type": "SaveImage", "widgets_values": ["seamweave"]}
  ],
  "links": [
    [5, 4, 1, 9, 0]
  ]
}`

func TestParseSequenceForm(t *testing.T) {
	doc, err := Parse([]byte(sequenceDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(doc.Nodes))
	}

	// Keys come from declared ids, stringified; the id-less node falls
	// back to its position.
	wantKeys := []string{"4", "9", "2"}
	for i, want := range wantKeys {
		if doc.Nodes[i].Key != want {
			t.Errorf("node %d key = %q, want %q", i, doc.Nodes[i].Key, want)
		}
	}

	prompt := doc.Nodes[1]
	if prompt.Inputs.Kind != InputsPositional || len(prompt.Inputs.Ports) != 2 {
		t.Fatalf("prompt node inputs not parsed as ports: %+v", prompt.Inputs)
	}
	if prompt.Inputs.Ports[0].Link == nil || *prompt.Inputs.Ports[0].Link != 5 {
		t.Errorf("clip port link not parsed: %+v", prompt.Inputs.Ports[0])
	}
	if !prompt.Inputs.Ports[1].Widget {
		t.Errorf("text port widget marker not parsed: %+v", prompt.Inputs.Ports[1])
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	doc, err := Parse([]byte(sequenceDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	first := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		first[i] = n.Key
	}

	doc.Normalize()
	doc.Normalize()

	for i, n := range doc.Nodes {
		if n.Key != first[i] {
			t.Errorf("node %d key changed across Normalize: %q != %q", i, n.Key, first[i])
		}
	}
}

func TestParseObjectFormPreservesOrder(t *testing.T) {
	data := `{
	  "nodes": {
	    "9": {"class_type": "KSampler", "inputs": {"seed": 1}},
	    "3": {"class_type": "KSampler", "inputs": {"seed": 2}},
	    "7": {"class_type": "LoadImage", "inputs": {"image": "x.png"}}
	  }
	}`
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := []string{"9", "3", "7"}
	for i, key := range want {
		if doc.Nodes[i].Key != key {
			t.Errorf("node %d key = %q, want %q", i, doc.Nodes[i].Key, key)
		}
	}

	// Class equality must return the first node in insertion order.
	if n := doc.Find("KSampler"); n == nil || n.Key != "9" {
		t.Errorf("Find(KSampler) returned %+v, want node 9", n)
	}
}

func TestFindResolutionOrder(t *testing.T) {
	data := `{
	  "nodes": [
	    {"id": 1, "type": "CLIPTextEncode", "title": "Prompt"},
	    {"id": 2, "type": "Prompt"}
	  ]
	}`
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	// Title equality outranks class equality.
	if n := doc.Find("Prompt"); n == nil || n.Key != "1" {
		t.Errorf("Find(Prompt) = %+v, want node 1 (title match)", n)
	}
	// Direct key match outranks everything.
	if n := doc.Find("2"); n == nil || n.Class != "Prompt" {
		t.Errorf("Find(2) = %+v, want node 2", n)
	}
	if n := doc.Find("missing"); n != nil {
		t.Errorf("Find(missing) = %+v, want nil", n)
	}
}

func TestParseLinks(t *testing.T) {
	doc, err := Parse([]byte(sequenceDoc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(doc.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(doc.Links))
	}
	l := doc.Links[0]
	if l.ID != 5 || l.FromNode != "4" || l.FromSlot != 1 || l.ToNode != "9" || l.ToSlot != 0 {
		t.Errorf("unexpected link: %+v", l)
	}
}
