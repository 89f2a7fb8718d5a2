package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/fkoller/seamweave/pkg/config"
	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/paramset"
	"github.com/fkoller/seamweave/pkg/pipeline"
	"github.com/fkoller/seamweave/pkg/segment"
	"github.com/fkoller/seamweave/pkg/workflow"
)

type enhanceOpts struct {
	mask          string   // mask image path; empty enhances the full canvas
	output        string   // flattened result path
	server        string   // server URL override
	prompt        string   // global prompt override
	regionPrompts []string // per-region prompt overrides
	set           string   // parameter set name to apply
	regionsOnly   bool
	randomSeed    bool
	opacity       float64
	fade          float64
}

func newEnhanceCmd(configPath *string) *cobra.Command {
	var opts enhanceOpts

	cmd := &cobra.Command{
		Use:   "enhance [image]",
		Short: "Run a full enhancement pass over an image",
		Long: `Enhance loads an image, resolves the mask into regions, runs the global
and per-region workflows against the server, and writes the flattened
composite to the output file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnhance(cmd, args[0], configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mask, "mask", "m", "", "mask image selecting the regions to enhance")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <image>-enhanced.png)")
	cmd.Flags().StringVar(&opts.server, "server", "", "workflow server URL (overrides config)")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "global prompt (overrides config)")
	cmd.Flags().StringArrayVar(&opts.regionPrompts, "region-prompt", nil, "per-region prompt, repeatable")
	cmd.Flags().StringVar(&opts.set, "paramset", "", "apply a saved parameter set")
	cmd.Flags().BoolVar(&opts.regionsOnly, "regions-only", false, "skip the global pass")
	cmd.Flags().BoolVar(&opts.randomSeed, "random-seed", false, "use a fresh seed per job")
	cmd.Flags().Float64Var(&opts.opacity, "opacity", 0, "result layer opacity (overrides config)")
	cmd.Flags().Float64Var(&opts.fade, "fade", 0, "edge fade ratio (overrides config)")

	return cmd
}

func runEnhance(cmd *cobra.Command, imagePath string, configPath *string, opts enhanceOpts) error {
	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	src, err := imaging.Open(imagePath)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	doc := editor.NewMemDocument(src)

	var mask any
	if opts.mask != "" {
		m, err := loadMask(opts.mask)
		if err != nil {
			return err
		}
		mask = m
	}

	runOpts := pipeline.Options{
		Doc:           doc,
		Mask:          mask,
		RegionsOnly:   opts.regionsOnly,
		PromptGlobal:  opts.prompt,
		Opacity:       opts.opacity,
		FadeRatio:     opts.fade,
		RandomizeSeed: opts.randomSeed,
	}
	if len(opts.regionPrompts) > 0 {
		prompts := opts.regionPrompts
		runOpts.PromptRegion = func(i int) string {
			if i >= len(prompts) {
				i = len(prompts) - 1
			}
			return prompts[i]
		}
	}

	if opts.set != "" {
		if err := applyParamSet(&cfg, &runOpts, opts.set); err != nil {
			return err
		}
	}

	client := newClient(cfg, opts.server, logger)
	runner := pipeline.NewRunner(client, cfg, logger)

	res, err := runner.Run(cmd.Context(), runOpts)
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "-enhanced.png"
	}
	full := segment.Region{Width: doc.Width(), Height: doc.Height()}
	flat, err := doc.ExportRegion(full)
	if err != nil {
		return fmt.Errorf("flatten result: %w", err)
	}
	if err := imaging.Save(flat, out); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	prog.done(fmt.Sprintf("Enhanced %d region(s), %d skipped", len(res.RegionLayers), res.SkippedRegions))
	successLine("wrote " + StyleHighlight.Render(out))
	return nil
}

// applyParamSet folds a stored preset into the config and run options.
// Simple-mode sets drive denoise strength from the single enhance value;
// advanced sets carry explicit override lists.
func applyParamSet(cfg *config.Config, runOpts *pipeline.Options, name string) error {
	store, err := paramset.NewFileStore("")
	if err != nil {
		return err
	}
	set, err := store.Get(name)
	if err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("parameter set %q not found", name)
	}

	if runOpts.PromptGlobal == "" {
		runOpts.PromptGlobal = set.PromptGlobal
	}
	if runOpts.PromptRegion == nil && len(set.PromptRegions) > 0 {
		cfg.Prompts.Regions = set.PromptRegions
	}
	runOpts.RandomizeSeed = runOpts.RandomizeSeed || set.RandomSeed

	switch set.Mode {
	case paramset.ModeAdvanced:
		if len(set.GlobalParams) > 0 {
			runOpts.GlobalParams = set.GlobalParams
		}
		if len(set.RegionParams) > 0 {
			runOpts.RegionParams = set.RegionParams
		}
	default:
		// Simple mode keeps the configured lists but replaces the
		// denoise strength with the set's single knob.
		if set.EnhanceValue > 0 {
			denoise := workflow.Override{Target: "Denoise", Value: set.EnhanceValue}
			runOpts.GlobalParams = append(append([]workflow.Override{}, cfg.GlobalParams...), denoise)
			runOpts.RegionParams = append(append([]workflow.Override{}, cfg.RegionParams...), denoise)
		}
	}
	return nil
}
