package paramset

import (
	"encoding/json"
	"fmt"

	"github.com/fkoller/seamweave/pkg/workflow"
)

// Modes a set can be authored in. Simple mode drives everything from one
// enhancement strength value; advanced mode carries explicit override
// lists.
const (
	ModeSimple   = "simple"
	ModeAdvanced = "advanced"
)

// OverrideList decodes workflow overrides from either the current object
// form {"target": ..., "value": ...} or the legacy pair form
// [target, value].
type OverrideList []workflow.Override

func (l *OverrideList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]workflow.Override, 0, len(raw))
	for i, entry := range raw {
		var o workflow.Override
		if err := json.Unmarshal(entry, &o); err == nil && o.Target != "" {
			out = append(out, o)
			continue
		}
		var pair []any
		if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("override %d: not an object or [target, value] pair", i)
		}
		target, ok := pair[0].(string)
		if !ok {
			return fmt.Errorf("override %d: target is not a string", i)
		}
		out = append(out, workflow.Override{Target: target, Value: pair[1]})
	}
	*l = out
	return nil
}

// Set is one named parameter preset.
type Set struct {
	Name string `json:"name"`

	// Mode is ModeSimple or ModeAdvanced.
	Mode string `json:"mode"`

	// PromptGlobal and PromptRegions are the prompt texts captured with
	// the set.
	PromptGlobal  string   `json:"prompt_global"`
	PromptRegions []string `json:"prompt_regions"`

	// GlobalParams and RegionParams are the explicit overrides used in
	// advanced mode.
	GlobalParams OverrideList `json:"global_params"`
	RegionParams OverrideList `json:"region_params"`

	// EnhanceValue is the single strength knob used in simple mode.
	EnhanceValue float64 `json:"enhance_value"`

	// RandomSeed requests a fresh seed per run instead of the stored one.
	RandomSeed bool `json:"random_seed"`
}

// Validate checks the fields a store will not accept a set without.
func (s *Set) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("parameter set has no name")
	}
	switch s.Mode {
	case "", ModeSimple, ModeAdvanced:
	default:
		return fmt.Errorf("parameter set %q: unknown mode %q", s.Name, s.Mode)
	}
	return nil
}
