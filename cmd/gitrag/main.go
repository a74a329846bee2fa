package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/4thel00z/gitrag/internal"
	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	if tryExternalCommand(ctx) {
		return
	}

	level := new(slog.LevelVar)
	logger := internal.NewLogger(os.Stderr, level)
	a := newApp(internal.NewWorkspace(internal.NewScopeResolver(), logger), level)

	rootCmd := NewRootCmd(version, a)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		stop()
		os.Exit(1)
	}
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "gitrag %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	ws       *internal.Workspace
	logLevel *slog.LevelVar

	initUC     *internal.InitUseCase
	exportUC   *internal.ExportUseCase
	commitsUC  *internal.ListCommitsUseCase
	searchUC   *internal.SearchUseCase
	askUC      *internal.AskUseCase
	rebuildUC  *internal.RebuildIndexUseCase
	statusUC   *internal.IndexStatusUseCase
	provListUC *internal.ProviderListUseCase
	provAddUC  *internal.ProviderAddUseCase
	provRmUC   *internal.ProviderRemoveUseCase
	provDefUC  *internal.ProviderSetDefaultUseCase
	provTestUC *internal.ProviderTestUseCase
}

func newApp(ws *internal.Workspace, level *slog.LevelVar) *app {
	if level == nil {
		level = new(slog.LevelVar)
	}
	resolver := ws.Resolver()
	return &app{
		ws:         ws,
		logLevel:   level,
		initUC:     internal.NewInitUseCase(resolver),
		exportUC:   internal.NewExportUseCase(ws),
		commitsUC:  internal.NewListCommitsUseCase(ws),
		searchUC:   internal.NewSearchUseCase(ws),
		askUC:      internal.NewAskUseCase(ws),
		rebuildUC:  internal.NewRebuildIndexUseCase(ws),
		statusUC:   internal.NewIndexStatusUseCase(ws),
		provListUC: internal.NewProviderListUseCase(resolver),
		provAddUC:  internal.NewProviderAddUseCase(resolver),
		provRmUC:   internal.NewProviderRemoveUseCase(resolver),
		provDefUC:  internal.NewProviderSetDefaultUseCase(resolver),
		provTestUC: internal.NewProviderTestUseCase(ws),
	}
}
