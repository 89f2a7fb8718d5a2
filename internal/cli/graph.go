package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fkoller/seamweave/pkg/render"
	"github.com/fkoller/seamweave/pkg/workflow"
)

// newGraphCmd creates the graph command, which draws a workflow as a
// node-link diagram.
func newGraphCmd(configPath *string) *cobra.Command {
	var output string
	var dotOnly, detailed bool

	cmd := &cobra.Command{
		Use:   "graph [workflow]",
		Short: "Render a workflow as a node-link diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			doc, err := workflow.Load(cfg.ResolveWorkflow(args[0]))
			if err != nil {
				return err
			}
			doc.Normalize()

			dot := render.ToDOT(doc, render.Options{Detailed: detailed})
			if dotOnly {
				if output == "" {
					fmt.Print(dot)
					return nil
				}
				return os.WriteFile(output, []byte(dot), 0o644)
			}

			svg, err := render.RenderSVG(dot)
			if err != nil {
				return err
			}
			if output == "" {
				output = "workflow.svg"
			}
			if err := os.WriteFile(output, svg, 0o644); err != nil {
				return fmt.Errorf("write diagram: %w", err)
			}
			successLine("wrote " + StyleHighlight.Render(output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default workflow.svg)")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "emit DOT instead of SVG")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include widget values in node labels")
	return cmd
}
