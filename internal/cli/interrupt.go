package cli

import (
	"github.com/spf13/cobra"
)

// newInterruptCmd creates the interrupt command, which asks the server to
// abort whatever it is currently executing.
func newInterruptCmd(configPath *string) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "interrupt",
		Short: "Ask the workflow server to abort in-flight work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			client := newClient(cfg, server, logger)
			client.Interrupt(cmd.Context())
			successLine("interrupt sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "workflow server URL (overrides config)")
	return cmd
}
