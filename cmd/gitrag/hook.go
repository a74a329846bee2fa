package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewHookCmd() *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Keep the commit log fresh with a post-commit hook",
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install a post-commit hook that re-exports the log",
		Args:  cobra.NoArgs,
		RunE:  runHookInstall,
	}
	installCmd.Flags().Bool("force", false, "Overwrite an existing hook (backs up the original)")

	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the gitrag post-commit hook",
		Args:  cobra.NoArgs,
		RunE:  runHookUninstall,
	}

	hookCmd.AddCommand(installCmd, uninstallCmd)
	return hookCmd
}

func runHookInstall(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	gitDir, err := currentGitDir()
	if err != nil {
		return err
	}

	path, err := internal.InstallHook(gitDir, force)
	if err != nil {
		return fmt.Errorf("install hook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed post-commit hook at %s\n", path)
	return nil
}

func runHookUninstall(cmd *cobra.Command, _ []string) error {
	gitDir, err := currentGitDir()
	if err != nil {
		return err
	}

	if err := internal.UninstallHook(gitDir); err != nil {
		return fmt.Errorf("uninstall hook: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Removed post-commit hook")
	return nil
}

func currentGitDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return internal.FindGitDir(cwd)
}
