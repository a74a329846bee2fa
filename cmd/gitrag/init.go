package main

import (
	"fmt"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(uc *internal.InitUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a gitrag workspace",
		Long:  `Create a .gitrag directory with a default config in dir, or the current directory.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeInitRunner(uc),
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config with defaults")
	return cmd
}

func makeInitRunner(uc *internal.InitUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}

		out, err := uc.Execute(internal.InitInput{Dir: dir, Force: force})
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}

		if wantJSON(cmd) {
			return outputJSON(cmd, map[string]string{
				"data_path":   out.DataPath,
				"config_path": out.ConfigPath,
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized gitrag workspace at %s\n", out.DataPath)
		return nil
	}
}
