package main

import (
	"fmt"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewIndexCmd(rebuildUC *internal.RebuildIndexUseCase, statusUC *internal.IndexStatusUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the embedding cache",
	}

	cmd.AddCommand(
		newIndexRebuildCmd(rebuildUC),
		newIndexStatusCmd(statusUC),
	)
	return cmd
}

func newIndexRebuildCmd(uc *internal.RebuildIndexUseCase) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Embed every commit and overwrite the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			out, err := uc.Execute(cmd.Context(), internal.IndexInput{Scope: scopeHint})
			if err != nil {
				return fmt.Errorf("rebuild index: %w", err)
			}

			if wantJSON(cmd) {
				return outputJSON(cmd, out.Status)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d commits (dimension %d)\n", out.Status.Commits, out.Status.Dimension)
			return nil
		},
	}
}

func newIndexStatusCmd(uc *internal.IndexStatusUseCase) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Compare the cache with the current log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			out, err := uc.Execute(cmd.Context(), internal.IndexInput{Scope: scopeHint})
			if err != nil {
				return fmt.Errorf("index status: %w", err)
			}

			s := out.Status
			if wantJSON(cmd) {
				return outputJSON(cmd, s)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "commits:   %d\n", s.Commits)
			fmt.Fprintf(cmd.OutOrStdout(), "cached:    %d\n", s.Cached)
			fmt.Fprintf(cmd.OutOrStdout(), "dimension: %d\n", s.Dimension)
			if s.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "status:    valid")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "status:    stale (%s)\n", s.Reason)
			}
			return nil
		},
	}
}
