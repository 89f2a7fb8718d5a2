package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fkoller/seamweave/pkg/segment"
)

// newRegionsCmd creates the regions command, which shows how a mask
// image splits into work regions without contacting any server.
func newRegionsCmd() *cobra.Command {
	var maxComponents int

	cmd := &cobra.Command{
		Use:   "regions [mask]",
		Short: "Show the work regions a mask resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			mask, err := loadMask(args[0])
			if err != nil {
				return err
			}

			seg := &segment.Segmenter{MaxComponents: maxComponents, Logger: logger}
			regions := seg.Regions(mask)

			fmt.Println(StyleTitle.Render(fmt.Sprintf("%d region(s)", len(regions))))
			for i, r := range regions {
				fmt.Printf("  %s %s\n",
					StyleDim.Render(fmt.Sprintf("%d:", i+1)),
					StyleValue.Render(fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxComponents, "max", 0, "maximum number of regions (default 32)")
	return cmd
}
