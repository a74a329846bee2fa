package main

import (
	"fmt"
	"time"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewExportCmd(uc *internal.ExportUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the commit log",
		Long: `Export recent commits with their diffs to the workspace log file.
Root commits are skipped. With --url the repository is cloned, or pulled
when a clone already exists.`,
		Args: cobra.NoArgs,
		RunE: makeExportRunner(uc),
	}

	cmd.Flags().String("repo", "", "Repository path (default: workspace root)")
	cmd.Flags().String("url", "", "Remote repository to clone or pull")
	cmd.Flags().String("branch", "", "Branch to export (default: master, then main, then HEAD)")
	cmd.Flags().IntP("number", "n", 0, "Maximum commits to export")
	cmd.Flags().StringP("output", "o", "", "Log file path")
	cmd.Flags().BoolP("quiet", "q", false, "Print nothing on success")
	cmd.Flags().Bool("watch", false, "Re-export whenever a branch moves")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching ref changes")
	return cmd
}

func makeExportRunner(uc *internal.ExportUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		input := exportInputFromFlags(cmd)

		out, err := uc.Execute(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := printExport(cmd, out); err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return nil
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		return watchAndExport(cmd, uc, input, out.GitDir, debounce)
	}
}

func exportInputFromFlags(cmd *cobra.Command) internal.ExportInput {
	scopeHint, _ := cmd.Flags().GetString("scope")
	repo, _ := cmd.Flags().GetString("repo")
	url, _ := cmd.Flags().GetString("url")
	branch, _ := cmd.Flags().GetString("branch")
	number, _ := cmd.Flags().GetInt("number")
	output, _ := cmd.Flags().GetString("output")

	return internal.ExportInput{
		Scope:      scopeHint,
		RepoPath:   repo,
		URL:        url,
		Branch:     branch,
		MaxCommits: number,
		Output:     output,
	}
}

func printExport(cmd *cobra.Command, out *internal.ExportOutput) error {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return nil
	}
	if wantJSON(cmd) {
		return outputJSON(cmd, map[string]any{
			"path":  out.Path,
			"stats": out.Stats,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d commits to %s", out.Stats.Written, out.Path)
	if out.Stats.SkippedRoot > 0 || out.Stats.Failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d root skipped, %d failed)", out.Stats.SkippedRoot, out.Stats.Failed)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
