package main

import (
	"fmt"
	"strings"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewAskCmd(ws *internal.Workspace, uc *internal.AskUseCase) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer questions from the commit log",
		Long: `With a question, answer it once and exit. Without one, load the log and
index once and answer questions read from standard input until 'quit',
'exit' or end of input.`,
		RunE: makeAskRunner(ws, uc),
	}

	cmd.Flags().IntP("number", "n", 0, "Commits used as context (default: retrieval.top_k)")
	cmd.Flags().StringP("provider", "p", "", "Generation provider (default: default_provider)")
	cmd.Flags().Bool("rebuild", false, "Ignore the embedding cache")
	return cmd
}

func makeAskRunner(ws *internal.Workspace, uc *internal.AskUseCase) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		k, _ := cmd.Flags().GetInt("number")
		provider, _ := cmd.Flags().GetString("provider")
		if cmd.Flags().Changed("number") && k < 1 {
			return fmt.Errorf("ask: %w", internal.ErrInvalidK)
		}

		if len(args) > 0 {
			answer, err := uc.Execute(cmd.Context(), internal.AskInput{
				Query:    strings.Join(args, " "),
				K:        k,
				Scope:    scopeHint,
				Provider: provider,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printAnswer(cmd, answer)
		}

		rebuild, _ := cmd.Flags().GetBool("rebuild")
		pipeline, cfg, err := ws.Open(cmd.Context(), scopeHint, internal.OpenOptions{
			Provider:     provider,
			NeedProvider: true,
			Rebuild:      rebuild,
		})
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}
		defer pipeline.Close()

		if skipped := pipeline.Skipped(); skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed log blocks skipped\n", skipped)
		}
		if k < 1 {
			k = cfg.Retrieval.TopK
		}

		session := internal.NewSession(pipeline, k, cmd.InOrStdin(), cmd.OutOrStdout())
		return session.Run(cmd.Context(), len(pipeline.Records()))
	}
}

func printAnswer(cmd *cobra.Command, answer *internal.Answer) error {
	if wantJSON(cmd) {
		return outputJSON(cmd, answer)
	}

	for i, r := range answer.Results {
		fmt.Fprintln(cmd.ErrOrStderr(), internal.FormatResultLine(i+1, r))
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer.Text)
	return nil
}
