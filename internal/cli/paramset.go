package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fkoller/seamweave/pkg/paramset"
)

// newParamsetCmd creates the paramset command group for managing saved
// parameter presets.
func newParamsetCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paramset",
		Short: "Manage saved parameter sets",
	}

	cmd.AddCommand(newParamsetListCmd())
	cmd.AddCommand(newParamsetShowCmd())
	cmd.AddCommand(newParamsetSaveCmd(configPath))
	cmd.AddCommand(newParamsetDeleteCmd())
	return cmd
}

func newParamsetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored parameter sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := paramset.NewFileStore("")
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println(StyleDim.Render("no parameter sets saved"))
				return nil
			}
			for _, name := range names {
				fmt.Println(StyleValue.Render(name))
			}
			return nil
		},
	}
}

func newParamsetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print one parameter set as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := paramset.NewFileStore("")
			if err != nil {
				return err
			}
			set, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if set == nil {
				return fmt.Errorf("parameter set %q not found", args[0])
			}
			data, err := json.MarshalIndent(set, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}

func newParamsetSaveCmd(configPath *string) *cobra.Command {
	var mode string
	var enhance float64
	var randomSeed bool

	cmd := &cobra.Command{
		Use:   "save [name]",
		Short: "Save the current configuration as a named set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			store, err := paramset.NewFileStore("")
			if err != nil {
				return err
			}

			set := &paramset.Set{
				Name:          args[0],
				Mode:          mode,
				PromptGlobal:  cfg.Prompts.Global,
				PromptRegions: cfg.Prompts.Regions,
				GlobalParams:  paramset.OverrideList(cfg.GlobalParams),
				RegionParams:  paramset.OverrideList(cfg.RegionParams),
				EnhanceValue:  enhance,
				RandomSeed:    randomSeed,
			}
			if err := store.Save(set); err != nil {
				return err
			}
			successLine("saved parameter set " + StyleHighlight.Render(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", paramset.ModeAdvanced, "set mode: simple or advanced")
	cmd.Flags().Float64Var(&enhance, "enhance", 0, "enhance strength for simple mode")
	cmd.Flags().BoolVar(&randomSeed, "random-seed", false, "store the random seed preference")
	return cmd
}

func newParamsetDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a parameter set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := paramset.NewFileStore("")
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			successLine("deleted " + StyleHighlight.Render(args[0]))
			return nil
		},
	}
}
