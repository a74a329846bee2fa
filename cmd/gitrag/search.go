package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(uc *internal.SearchUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the commits most similar to a query",
		Long:  `Rank commits by cosine similarity to the query without calling a language model.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeSearchRunner(uc),
	}

	cmd.Flags().IntP("number", "n", 0, "Number of results (default: retrieval.top_k)")
	return cmd
}

func makeSearchRunner(uc *internal.SearchUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		k, _ := cmd.Flags().GetInt("number")
		if cmd.Flags().Changed("number") && k < 1 {
			return fmt.Errorf("search: %w", internal.ErrInvalidK)
		}

		out, err := uc.Execute(cmd.Context(), internal.SearchInput{
			Query: strings.Join(args, " "),
			K:     k,
			Scope: scopeHint,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if wantJSON(cmd) {
			return outputSearchResultsJSON(cmd, out.Results)
		}

		for i, r := range out.Results {
			fmt.Fprintln(cmd.OutOrStdout(), internal.FormatResultLine(i+1, r))
		}
		return nil
	}
}

func outputSearchResultsJSON(cmd *cobra.Command, results []internal.RetrievalResult) error {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"score":    r.Score,
			"position": r.Position,
			"hash":     r.Record.Hash,
			"author":   r.Record.Author,
			"date":     r.Record.Date,
			"message":  r.Record.Message,
		})
	}
	return outputJSON(cmd, out)
}
