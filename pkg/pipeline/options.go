package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/segment"
	"github.com/fkoller/seamweave/pkg/workflow"
)

// Status classifies how a run ended.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// Options configures one enhancement run.
type Options struct {
	// Doc is the document to enhance. Required.
	Doc editor.Document

	// Mask selects the regions to enhance. Resolved through the
	// segmenter's capability ladder; nil enhances the full canvas as a
	// single region.
	Mask any

	// RegionsOnly skips the global pass and only re-renders the masked
	// regions.
	RegionsOnly bool

	// PromptGlobal overrides the configured global prompt when non-empty.
	PromptGlobal string

	// PromptRegion supplies the prompt for region index i. Nil falls back
	// to the configured region prompt slots.
	PromptRegion func(i int) string

	// GlobalParams and RegionParams replace the configured override lists
	// when non-nil.
	GlobalParams []workflow.Override
	RegionParams []workflow.Override

	// Opacity and FadeRatio override the configured blend parameters when
	// positive.
	Opacity   float64
	FadeRatio float64

	// RandomizeSeed replaces the Seed override with a fresh value per job.
	RandomizeSeed bool

	// Stop is polled between stages and during waits; returning true
	// cancels the run. May be nil.
	Stop func() bool

	// Tick is a cooperative yield callback forwarded to the poll loop.
	// May be nil.
	Tick func() error
}

// Result reports what a run produced.
type Result struct {
	Status  Status
	Regions []segment.Region

	// GlobalLayer is the inserted whole-canvas layer, nil when the global
	// pass was skipped.
	GlobalLayer editor.Layer

	// RegionLayers holds one layer per successfully enhanced region.
	RegionLayers []editor.Layer

	// SkippedRegions counts regions whose jobs failed and were passed
	// over.
	SkippedRegions int
}

// valueContext builds the placeholder values available to overrides and
// prompts for one job: the job image size and the scale that brings its
// longer side near the model's native resolution.
func valueContext(r segment.Region) map[string]string {
	best := 1.0
	if side := max(r.Width, r.Height); side > 0 {
		best = math.Min(1.0, math.Max(0.2, 640.0/float64(side)))
		best = math.Round(best*10000) / 10000
	}
	return map[string]string{
		"width":      strconv.Itoa(r.Width),
		"height":     strconv.Itoa(r.Height),
		"best-scale": strconv.FormatFloat(best, 'f', -1, 64),
	}
}

// expand substitutes {key} placeholders from vals into s.
func expand(s string, vals map[string]string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	for k, v := range vals {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

// resolveOverrides expands placeholders in string override values and
// converts the results to their natural types.
func resolveOverrides(overrides []workflow.Override, vals map[string]string) []workflow.Override {
	out := make([]workflow.Override, len(overrides))
	for i, o := range overrides {
		if s, ok := o.Value.(string); ok {
			o.Value = workflow.ConvertValue(expand(s, vals))
		}
		out[i] = o
	}
	return out
}

func (o *Options) validate() error {
	if o.Doc == nil {
		return fmt.Errorf("no document to enhance")
	}
	return nil
}
