package main

import (
	"errors"
	"fmt"

	"github.com/4thel00z/gitrag/internal"
	"github.com/spf13/cobra"
)

func NewServeCmd(ws *internal.Workspace, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search and ask tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the
search_commits and ask_commits tools. The log and index are loaded once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scopeHint, _ := cmd.Flags().GetString("scope")
			provider, _ := cmd.Flags().GetString("provider")
			logger := ws.Logger()

			pipeline, cfg, err := ws.Open(cmd.Context(), scopeHint, internal.OpenOptions{
				Provider:     provider,
				NeedProvider: true,
			})
			if errors.Is(err, internal.ErrMissingCredential) {
				logger.Warn("no provider credential, ask_commits will report errors", "err", err)
				pipeline, cfg, err = ws.Open(cmd.Context(), scopeHint, internal.OpenOptions{})
			}
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer pipeline.Close()

			logger.Info("serving MCP on stdio", "commits", len(pipeline.Records()))
			return internal.ServeMCP(pipeline, version, cfg.Retrieval.TopK)
		},
	}

	cmd.Flags().StringP("provider", "p", "", "Generation provider (default: default_provider)")
	return cmd
}
