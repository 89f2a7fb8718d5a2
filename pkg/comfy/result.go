package comfy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State classifies a job's observed status.
type State int

const (
	// StatePending means the job is queued or running, or not yet known
	// to the server at all.
	StatePending State = iota
	// StateDone means the job completed and outputs are available.
	StateDone
	// StateError means the server explicitly failed the job.
	StateError
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return "pending"
}

// ImageRef locates one generated image on the server's output store.
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
}

// Output is one node's output record inside a job result.
type Output struct {
	Images []ImageRef `json:"images"`
}

// OutputList holds a result's outputs, which arrive either as a sequence
// or as an object keyed by node id. Object form keeps its key order.
type OutputList struct {
	entries []Output
}

// Entries returns the outputs in wire order.
func (o OutputList) Entries() []Output { return o.entries }

// Len reports the number of output records.
func (o OutputList) Len() int { return len(o.entries) }

func (o *OutputList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		o.entries = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		return json.Unmarshal(trimmed, &o.entries)
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return err
		}
		o.entries = nil
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return err
			}
			var out Output
			if err := dec.Decode(&out); err != nil {
				return err
			}
			o.entries = append(o.entries, out)
		}
		return nil
	}
	return fmt.Errorf("outputs must be an object or array")
}

type StatusInfo struct {
	Status string `json:"status"`
}

// Result is one job's history record as reported by the server.
type Result struct {
	PromptID string     `json:"prompt_id"`
	Status   StatusInfo `json:"status"`
	Outputs  OutputList `json:"outputs"`
}

// State classifies the record. An explicit status marker always wins;
// with no marker at all, a non-empty outputs collection is taken as an
// implicit success signal, and an empty record is pending.
func (r *Result) State() State {
	switch r.Status.Status {
	case "success", "ok", "completed":
		return StateDone
	case "error", "failed":
		return StateError
	}
	if r.Outputs.Len() > 0 {
		return StateDone
	}
	return StatePending
}
