package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fkoller/seamweave/pkg/workflow"
)

type compileOpts struct {
	output string   // output file; empty writes to stdout
	image  string   // image path to inject
	prompt string   // prompt text to inject
	sets   []string // target=value overrides
}

// newCompileCmd creates the compile command, which turns a workflow file
// into the flat job payload the server would receive.
func newCompileCmd(configPath *string) *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile [workflow]",
		Short: "Compile a workflow into its submission payload",
		Long: `Compile parses a workflow file, optionally injects an input image and
prompt, applies overrides, and prints the flat payload that would be
submitted. Useful for checking what a run will actually send.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			doc, err := workflow.Load(cfg.ResolveWorkflow(args[0]))
			if err != nil {
				return err
			}
			doc.Normalize()

			logf := func(format string, a ...any) { logger.Debug(fmt.Sprintf(format, a...)) }
			if opts.image != "" {
				doc.InjectImage(opts.image, logf)
			}
			if opts.prompt != "" {
				doc.InjectPrompt(opts.prompt, logf)
			}

			overrides, err := parseOverrides(opts.sets)
			if err != nil {
				return err
			}
			doc.ApplyOverrides(overrides, logf)

			data, err := json.MarshalIndent(doc.Compile(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode payload: %w", err)
			}
			data = append(data, '\n')

			if opts.output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(opts.output, data, 0o644); err != nil {
				return fmt.Errorf("write payload: %w", err)
			}
			successLine("wrote " + StyleHighlight.Render(opts.output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.image, "image", "", "inject an input image path")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "inject a prompt text")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override as target=value, repeatable")
	return cmd
}

// parseOverrides turns repeated target=value flags into typed overrides.
func parseOverrides(sets []string) ([]workflow.Override, error) {
	overrides := make([]workflow.Override, 0, len(sets))
	for _, s := range sets {
		target, value, ok := strings.Cut(s, "=")
		if !ok || target == "" {
			return nil, fmt.Errorf("override %q: want target=value", s)
		}
		overrides = append(overrides, workflow.Override{
			Target: target,
			Value:  workflow.ConvertValue(value),
		})
	}
	return overrides, nil
}
