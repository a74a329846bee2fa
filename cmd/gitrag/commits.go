package main

import (
	"fmt"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewCommitsCmd(uc *internal.ListCommitsUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commits",
		Aliases: []string{"ls"},
		Short:   "List commits parsed from the log",
		Args:    cobra.NoArgs,
		RunE:    makeCommitsRunner(uc),
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum commits to list")
	return cmd
}

func makeCommitsRunner(uc *internal.ListCommitsUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		limit, _ := cmd.Flags().GetInt("number")

		out, err := uc.Execute(cmd.Context(), internal.ListCommitsInput{Scope: scopeHint, Limit: limit})
		if err != nil {
			return fmt.Errorf("list commits: %w", err)
		}

		if wantJSON(cmd) {
			commits := make([]internal.CommitRecord, len(out.Commits))
			for i, c := range out.Commits {
				c.Diff = ""
				commits[i] = c
			}
			return outputJSON(cmd, map[string]any{
				"commits": commits,
				"skipped": out.Skipped,
			})
		}

		if len(out.Commits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No commits in log.")
		}
		for _, c := range out.Commits {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", c.ShortHash(), c.Day(), c.Subject())
		}
		if out.Skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed blocks skipped\n", out.Skipped)
		}
		return nil
	}
}
