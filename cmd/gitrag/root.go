package main

import (
	"fmt"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitrag",
		Short: "Ask questions about a git history",
		Long: `gitrag exports a repository's commits to a plain-text log, embeds them,
and answers questions using only the most relevant commits as context.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if a == nil {
				return
			}
			level, _ := cmd.Flags().GetString("log-level")
			a.logLevel.Set(internal.LevelFromString(level))
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	setHelpWithExternals(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a, version)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("scope", "", "Target scope (global|project)")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("log-level", "warn", "Log level (debug|info|warn|error)")
}

func addSubcommands(root *cobra.Command, a *app, version string) {
	root.AddCommand(
		NewInitCmd(a.initUC),
		NewExportCmd(a.exportUC),
		NewCommitsCmd(a.commitsUC),
		NewSearchCmd(a.searchUC),
		NewAskCmd(a.ws, a.askUC),
		NewIndexCmd(a.rebuildUC, a.statusUC),
		NewProviderCmd(a.provListUC, a.provAddUC, a.provRmUC, a.provDefUC, a.provTestUC),
		NewHookCmd(),
		NewServeCmd(a.ws, version),
	)
}

func setHelpWithExternals(cmd *cobra.Command) {
	defaultHelp := cmd.HelpFunc()

	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		defaultHelp(c, args)
		printExternalCommands(c)
	})
}

func printExternalCommands(cmd *cobra.Command) {
	externals := listExternalCommands()
	if len(externals) == 0 {
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nExternal commands (gitrag-*):")
	for _, name := range externals {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
}
