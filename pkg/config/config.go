package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fkoller/seamweave/pkg/workflow"
)

// RegionPromptSlots is the number of distinct region prompt texts.
// Regions beyond the last slot reuse it.
const RegionPromptSlots = 4

// Timing groups the client's timeout and polling parameters, stored in
// seconds.
type Timing struct {
	TimeoutSeconds      int `toml:"timeout_seconds"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxPollTimeSeconds  int `toml:"max_poll_time_seconds"`
}

// Timeout returns the HTTP timeout as a duration.
func (t Timing) Timeout() time.Duration { return time.Duration(t.TimeoutSeconds) * time.Second }

// PollInterval returns the poll delay as a duration.
func (t Timing) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

// MaxPollTime returns the per-job polling limit as a duration.
func (t Timing) MaxPollTime() time.Duration {
	return time.Duration(t.MaxPollTimeSeconds) * time.Second
}

// Prompts holds the stored prompt texts: one for the global pass and one
// per region slot.
type Prompts struct {
	Global  string   `toml:"global"`
	Regions []string `toml:"regions"`
}

// Region returns the prompt for region index i. Indexes past the last
// slot clamp to it, so runs with many regions reuse the final prompt.
func (p Prompts) Region(i int) string {
	if len(p.Regions) == 0 {
		return ""
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.Regions) {
		i = len(p.Regions) - 1
	}
	return p.Regions[i]
}

// Config is the full persistent configuration.
type Config struct {
	ServerURL    string `toml:"server_url"`
	WorkflowsDir string `toml:"workflows_dir"`
	OutputDir    string `toml:"output_dir"`

	// WorkflowGlobal and WorkflowRegion name the workflow files for the
	// whole-image pass and the per-region passes. Relative names resolve
	// against WorkflowsDir.
	WorkflowGlobal string `toml:"workflow_global"`
	WorkflowRegion string `toml:"workflow_region"`

	// Opacity is the blend opacity for inserted result layers, 0 to 1.
	Opacity float64 `toml:"opacity"`

	// FadeRatio is the feather band width relative to the patch's short
	// side.
	FadeRatio float64 `toml:"fade_ratio"`

	Timing  Timing  `toml:"timing"`
	Prompts Prompts `toml:"prompts"`

	// GlobalParams and RegionParams are the default parameter overrides
	// applied to the global and region workflows before submission.
	GlobalParams []workflow.Override `toml:"global_params"`
	RegionParams []workflow.Override `toml:"region_params"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:      "http://127.0.0.1:8188",
		WorkflowGlobal: "Universal.json",
		WorkflowRegion: "Universal.json",
		Opacity:        0.8,
		FadeRatio:      0.1,
		Timing: Timing{
			TimeoutSeconds:      30,
			PollIntervalSeconds: 1,
			MaxPollTimeSeconds:  180,
		},
		Prompts: Prompts{
			Regions: make([]string, RegionPromptSlots),
		},
		GlobalParams: []workflow.Override{
			{Target: "Img2img", Value: int64(1)},
			{Target: "Reduce input", Value: int64(1)},
			{Target: "Reduce input amount", Value: 0.5},
			{Target: "Keep original size output", Value: int64(1)},
			{Target: "Refine stage 1", Value: int64(1)},
			{Target: "Refine stage 2", Value: int64(0)},
			{Target: "Seed", Value: int64(0)},
			{Target: "Denoise", Value: 0.2},
			{Target: "Steps", Value: int64(7)},
			{Target: "CFG", Value: 1.0},
		},
		RegionParams: []workflow.Override{
			{Target: "Img2img", Value: int64(1)},
			{Target: "Reduce input", Value: int64(1)},
			{Target: "Reduce input amount", Value: "{best-scale}"},
			{Target: "Keep original size output", Value: int64(1)},
			{Target: "Refine stage 1", Value: int64(1)},
			{Target: "Refine stage 2", Value: int64(0)},
			{Target: "Seed", Value: int64(0)},
			{Target: "Denoise", Value: 0.2},
			{Target: "Steps", Value: int64(7)},
			{Target: "CFG", Value: 1.0},
		},
	}
}

// DefaultPath returns the standard config file location,
// ~/.config/seamweave/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "seamweave", "config.toml"), nil
}

// Load reads the config file at path, layering it over the defaults. A
// missing file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolveWorkflow turns a workflow name into a file path. Absolute paths
// pass through; relative names resolve against WorkflowsDir and gain a
// .json suffix when they have no extension.
func (c Config) ResolveWorkflow(name string) string {
	if name == "" {
		return ""
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	if filepath.IsAbs(name) {
		return name
	}
	if strings.ContainsAny(name, "/\\") || c.WorkflowsDir == "" {
		return name
	}
	return filepath.Join(c.WorkflowsDir, name)
}
