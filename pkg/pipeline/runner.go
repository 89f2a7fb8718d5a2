package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/fkoller/seamweave/pkg/comfy"
	"github.com/fkoller/seamweave/pkg/composite"
	"github.com/fkoller/seamweave/pkg/config"
	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/segment"
	"github.com/fkoller/seamweave/pkg/workflow"
)

// ErrStopped is returned when the caller's stop flag or context ended a
// run before it completed.
var ErrStopped = errors.New("run stopped")

// Runner executes enhancement runs. It is stateless between runs, so one
// Runner can serve successive invocations with different options.
type Runner struct {
	Client    *comfy.Client
	Segmenter *segment.Segmenter
	Config    config.Config
	Logger    *log.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(client *comfy.Client, cfg config.Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Client:    client,
		Segmenter: &segment.Segmenter{Logger: logger},
		Config:    cfg,
		Logger:    logger,
	}
}

// job carries everything one workflow submission needs.
type job struct {
	name         string
	workflowPath string
	imagePath    string
	prompt       string
	params       []workflow.Override
	region       segment.Region
}

// Run performs a full enhancement run. Temporary exports are always
// cleaned up, whichever way the run ends.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return &Result{Status: StatusFailed}, err
	}
	start := time.Now()

	opacity := opts.Opacity
	if opacity <= 0 {
		opacity = r.Config.Opacity
	}
	fade := opts.FadeRatio
	if fade <= 0 {
		fade = r.Config.FadeRatio
	}

	full := segment.Region{Width: opts.Doc.Width(), Height: opts.Doc.Height()}
	var regions []segment.Region
	if opts.Mask == nil {
		// No selection enhances the whole canvas as one region.
		regions = []segment.Region{full}
	} else {
		regions = r.Segmenter.Regions(opts.Mask)
	}
	r.Logger.Info("starting enhancement run",
		"regions", len(regions), "regions_only", opts.RegionsOnly)

	result := &Result{Status: StatusRunning, Regions: regions}

	tmpDir, err := os.MkdirTemp("", "seamweave-")
	if err != nil {
		result.Status = StatusFailed
		return result, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// Export all source pixels up front, before any layer mutates the
	// document.
	var fullPath string
	if !opts.RegionsOnly {
		fullPath, err = r.exportRegion(opts.Doc, full, tmpDir, "full")
		if err != nil {
			result.Status = StatusFailed
			return result, err
		}
	}
	regionPaths := make([]string, len(regions))
	for i, reg := range regions {
		regionPaths[i], err = r.exportRegion(opts.Doc, reg, tmpDir, fmt.Sprintf("region%d", i))
		if err != nil {
			result.Status = StatusFailed
			return result, err
		}
	}

	comp := &composite.Compositor{Doc: opts.Doc, Logger: r.Logger}

	if !opts.RegionsOnly {
		if r.stopped(ctx, opts) {
			return r.cancel(ctx, result)
		}
		img, err := r.runJob(ctx, opts, job{
			name:         "global",
			workflowPath: r.Config.ResolveWorkflow(r.Config.WorkflowGlobal),
			imagePath:    fullPath,
			prompt:       r.globalPrompt(opts),
			params:       r.globalParams(opts),
			region:       full,
		})
		if err != nil {
			return r.finishError(ctx, result, fmt.Errorf("global pass: %w", err))
		}
		layer, err := comp.InsertImage(img, "Enhanced (global)", 0, 0, opacity, 0)
		if err != nil {
			result.Status = StatusFailed
			return result, fmt.Errorf("global pass: %w", err)
		}
		result.GlobalLayer = layer
	}

	for i, reg := range regions {
		if r.stopped(ctx, opts) {
			return r.cancel(ctx, result)
		}
		if result.GlobalLayer != nil {
			if err := comp.PunchHole(result.GlobalLayer, reg, fade); err != nil {
				r.Logger.Warn("punching hole failed", "region", i+1, "err", err)
			}
		}

		img, err := r.runJob(ctx, opts, job{
			name:         fmt.Sprintf("region %d", i+1),
			workflowPath: r.Config.ResolveWorkflow(r.Config.WorkflowRegion),
			imagePath:    regionPaths[i],
			prompt:       r.regionPrompt(opts, i),
			params:       r.regionParams(opts),
			region:       reg,
		})
		if err != nil {
			if isStop(err) {
				return r.cancel(ctx, result)
			}
			r.Logger.Warn("region failed, skipping", "region", i+1, "err", err)
			result.SkippedRegions++
			continue
		}

		layer, err := comp.InsertImage(img, fmt.Sprintf("Enhanced region %d", i+1), reg.X, reg.Y, opacity, fade)
		if err != nil {
			r.Logger.Warn("inserting region failed, skipping", "region", i+1, "err", err)
			result.SkippedRegions++
			continue
		}
		result.RegionLayers = append(result.RegionLayers, layer)
	}

	result.Status = StatusDone
	r.Logger.Info("enhancement run finished",
		"layers", len(result.RegionLayers), "skipped", result.SkippedRegions,
		"duration", time.Since(start))
	return result, nil
}

// runJob drives one workflow submission end to end: load, inject, apply
// overrides, compile, submit, poll, and load the produced image.
func (r *Runner) runJob(ctx context.Context, opts Options, j job) (image.Image, error) {
	doc, err := workflow.Load(j.workflowPath)
	if err != nil {
		return nil, fmt.Errorf("load workflow: %w", err)
	}
	doc.Normalize()

	logf := r.logf()
	vals := valueContext(j.region)

	doc.InjectImage(j.imagePath, logf)
	if prompt := expand(j.prompt, vals); prompt != "" {
		doc.InjectPrompt(prompt, logf)
	}

	params := resolveOverrides(j.params, vals)
	if opts.RandomizeSeed {
		params = append(params, workflow.Override{Target: "Seed", Value: int64(rand.Int32())})
	}
	doc.ApplyOverrides(params, logf)

	r.Logger.Info("submitting job", "job", j.name,
		"width", j.region.Width, "height", j.region.Height)
	promptID, err := r.Client.Submit(ctx, doc.Compile())
	if err != nil {
		return nil, err
	}

	res, err := r.Client.Poll(ctx, promptID, opts.Stop, opts.Tick)
	if err != nil {
		return nil, err
	}

	path, err := r.locateOutput(res)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open result image: %w", err)
	}
	return img, nil
}

// locateOutput finds the first generated image in a job result and maps
// it to a local file path via the configured output directory. Absolute
// filenames are taken as-is.
func (r *Runner) locateOutput(res *comfy.Result) (string, error) {
	for _, out := range res.Outputs.Entries() {
		for _, ref := range out.Images {
			if ref.Filename == "" {
				continue
			}
			if filepath.IsAbs(ref.Filename) {
				return ref.Filename, nil
			}
			return filepath.Join(r.Config.OutputDir, ref.Subfolder, ref.Filename), nil
		}
	}
	return "", fmt.Errorf("result %s contains no images", res.PromptID)
}

// exportRegion flattens one rectangle of the document to a temp JPEG for
// use as workflow input.
func (r *Runner) exportRegion(doc editor.Document, reg segment.Region, dir, stem string) (string, error) {
	img, err := doc.ExportRegion(reg)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", stem, err)
	}
	path := filepath.Join(dir, stem+".jpg")
	if err := imaging.Save(img, path, imaging.JPEGQuality(92)); err != nil {
		return "", fmt.Errorf("export %s: %w", stem, err)
	}
	return path, nil
}

func (r *Runner) globalPrompt(opts Options) string {
	if opts.PromptGlobal != "" {
		return opts.PromptGlobal
	}
	return r.Config.Prompts.Global
}

func (r *Runner) regionPrompt(opts Options, i int) string {
	if opts.PromptRegion != nil {
		return opts.PromptRegion(i)
	}
	return r.Config.Prompts.Region(i)
}

func (r *Runner) globalParams(opts Options) []workflow.Override {
	if opts.GlobalParams != nil {
		return opts.GlobalParams
	}
	return r.Config.GlobalParams
}

func (r *Runner) regionParams(opts Options) []workflow.Override {
	if opts.RegionParams != nil {
		return opts.RegionParams
	}
	return r.Config.RegionParams
}

func (r *Runner) logf() workflow.Logf {
	return func(format string, args ...any) {
		r.Logger.Debug(fmt.Sprintf(format, args...))
	}
}

func (r *Runner) stopped(ctx context.Context, opts Options) bool {
	if ctx.Err() != nil {
		return true
	}
	return opts.Stop != nil && opts.Stop()
}

// cancel marks the run cancelled and sends a best-effort interrupt so the
// server stops work nobody will collect.
func (r *Runner) cancel(ctx context.Context, result *Result) (*Result, error) {
	result.Status = StatusCancelled
	r.Client.Interrupt(context.WithoutCancel(ctx))
	r.Logger.Info("enhancement run cancelled")
	return result, ErrStopped
}

// finishError classifies a fatal error: stop conditions become a
// cancellation, everything else fails the run.
func (r *Runner) finishError(ctx context.Context, result *Result, err error) (*Result, error) {
	if isStop(err) {
		return r.cancel(ctx, result)
	}
	result.Status = StatusFailed
	return result, err
}

func isStop(err error) bool {
	return errors.Is(err, comfy.ErrCancelled) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
