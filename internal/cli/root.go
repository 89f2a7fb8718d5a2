package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the seamweave CLI. The logger is attached to the command
// context and accessible to all commands via loggerFromContext; --verbose
// raises it to debug level.
func Execute(ctx context.Context) error {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          "seamweave",
		Short:        "Seamweave enhances image regions through remote diffusion workflows",
		Long:         `Seamweave segments a selection mask into regions, runs each region and the whole image through a ComfyUI-compatible workflow server, and composites the results back as feathered layers without visible seams.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("seamweave %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/seamweave/config.toml)")

	root.AddCommand(newEnhanceCmd(&configPath))
	root.AddCommand(newRegionsCmd())
	root.AddCommand(newCompileCmd(&configPath))
	root.AddCommand(newGraphCmd(&configPath))
	root.AddCommand(newInterruptCmd(&configPath))
	root.AddCommand(newParamsetCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))

	return root.ExecuteContext(ctx)
}
