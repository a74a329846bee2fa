package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Use case input/output DTOs

type InitInput struct {
	Dir   string
	Force bool
}

type InitOutput struct {
	DataPath   string
	ConfigPath string
}

type ExportInput struct {
	Scope      string
	RepoPath   string
	URL        string
	Branch     string
	MaxCommits int
	Output     string
}

type ExportOutput struct {
	Path   string
	GitDir string
	Stats  ExportStats
}

type ListCommitsInput struct {
	Scope string
	Limit int
}

type ListCommitsOutput struct {
	Commits []CommitRecord
	Skipped int
}

type SearchInput struct {
	Query string
	K     int
	Scope string
}

type SearchOutput struct {
	Results []RetrievalResult
}

type AskInput struct {
	Query    string
	K        int
	Scope    string
	Provider string
}

type IndexInput struct {
	Scope string
}

type IndexOutput struct {
	Status    IndexStatus
	FromCache bool
}

type ProviderInput struct {
	Name   string
	Scope  string
	Config ProviderConfig
}

// Use cases

type InitUseCase struct {
	resolver *ScopeResolver
}

func NewInitUseCase(resolver *ScopeResolver) *InitUseCase {
	return &InitUseCase{resolver: resolver}
}

// Execute creates the data directory and a default config. An existing
// config is kept unless Force is set.
func (uc *InitUseCase) Execute(input InitInput) (*InitOutput, error) {
	dir := input.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}

	scope := uc.resolver.ProjectAt(dir)
	if err := os.MkdirAll(scope.DataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	out := &InitOutput{DataPath: scope.DataPath, ConfigPath: scope.ConfigPath()}
	if _, err := os.Stat(scope.ConfigPath()); err == nil && !input.Force {
		return out, nil
	}
	if err := SaveConfig(scope, DefaultConfig()); err != nil {
		return nil, err
	}
	return out, nil
}

type ExportUseCase struct {
	ws *Workspace
}

func NewExportUseCase(ws *Workspace) *ExportUseCase {
	return &ExportUseCase{ws: ws}
}

// Execute writes the commit log. Flags in input override the export
// section of the config.
func (uc *ExportUseCase) Execute(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	scope, cfg, err := uc.ws.Load(input.Scope)
	if err != nil {
		return nil, err
	}

	url := firstNonEmpty(input.URL, cfg.Export.URL)
	defaultRepo := scope.Path
	if url != "" {
		defaultRepo = scope.ResolveData("repo")
	}

	opts := ExportOptions{
		RepoPath:   firstNonEmpty(input.RepoPath, scope.Resolve(cfg.Export.Repo), defaultRepo),
		URL:        url,
		Branch:     firstNonEmpty(input.Branch, cfg.Export.Branch),
		MaxCommits: cfg.Export.MaxCommits,
		Logger:     uc.ws.Logger(),
	}
	if input.MaxCommits > 0 {
		opts.MaxCommits = input.MaxCommits
	}

	exporter, err := OpenExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	path := firstNonEmpty(input.Output, cfg.LogPath(scope))
	stats, err := exporter.ExportFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return &ExportOutput{Path: path, GitDir: exporter.GitDir(), Stats: stats}, nil
}

type ListCommitsUseCase struct {
	ws *Workspace
}

func NewListCommitsUseCase(ws *Workspace) *ListCommitsUseCase {
	return &ListCommitsUseCase{ws: ws}
}

// Execute parses the log without touching the index.
func (uc *ListCommitsUseCase) Execute(_ context.Context, input ListCommitsInput) (*ListCommitsOutput, error) {
	scope, cfg, err := uc.ws.Load(input.Scope)
	if err != nil {
		return nil, err
	}

	parsed, err := NewLogParser(uc.ws.Logger()).ParseFile(cfg.LogPath(scope))
	if err != nil && !errors.Is(err, ErrNoCommits) {
		return nil, err
	}

	commits := parsed.Records
	if input.Limit > 0 && len(commits) > input.Limit {
		commits = commits[:input.Limit]
	}
	return &ListCommitsOutput{Commits: commits, Skipped: parsed.Skipped}, nil
}

type SearchUseCase struct {
	ws *Workspace
}

func NewSearchUseCase(ws *Workspace) *SearchUseCase {
	return &SearchUseCase{ws: ws}
}

func (uc *SearchUseCase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ErrEmptyQuery
	}
	pipeline, cfg, err := uc.ws.Open(ctx, input.Scope, OpenOptions{})
	if err != nil {
		return nil, err
	}
	defer pipeline.Close()

	results, err := pipeline.Search(ctx, input.Query, topK(input.K, cfg))
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Results: results}, nil
}

type AskUseCase struct {
	ws *Workspace
}

func NewAskUseCase(ws *Workspace) *AskUseCase {
	return &AskUseCase{ws: ws}
}

// Execute checks the query before the provider and the index are built.
func (uc *AskUseCase) Execute(ctx context.Context, input AskInput) (*Answer, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, ErrEmptyQuery
	}
	pipeline, cfg, err := uc.ws.Open(ctx, input.Scope, OpenOptions{
		Provider:     input.Provider,
		NeedProvider: true,
	})
	if err != nil {
		return nil, err
	}
	defer pipeline.Close()

	return pipeline.Ask(ctx, input.Query, topK(input.K, cfg))
}

type RebuildIndexUseCase struct {
	ws *Workspace
}

func NewRebuildIndexUseCase(ws *Workspace) *RebuildIndexUseCase {
	return &RebuildIndexUseCase{ws: ws}
}

func (uc *RebuildIndexUseCase) Execute(ctx context.Context, input IndexInput) (*IndexOutput, error) {
	pipeline, _, err := uc.ws.Open(ctx, input.Scope, OpenOptions{Rebuild: true})
	if err != nil {
		return nil, err
	}
	defer pipeline.Close()

	index := pipeline.Index()
	return &IndexOutput{
		Status: IndexStatus{
			Commits:   index.Len(),
			Cached:    index.Len(),
			Dimension: index.Dimension(),
			Valid:     true,
		},
		FromCache: index.FromCache(),
	}, nil
}

type IndexStatusUseCase struct {
	ws *Workspace
}

func NewIndexStatusUseCase(ws *Workspace) *IndexStatusUseCase {
	return &IndexStatusUseCase{ws: ws}
}

// Execute compares the stored cache with the current log without
// embedding anything.
func (uc *IndexStatusUseCase) Execute(ctx context.Context, input IndexInput) (*IndexOutput, error) {
	scope, cfg, err := uc.ws.Load(input.Scope)
	if err != nil {
		return nil, err
	}

	parsed, err := NewLogParser(uc.ws.Logger()).ParseFile(cfg.LogPath(scope))
	if err != nil {
		return nil, err
	}

	store, err := OpenCacheStore(scope, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return &IndexOutput{Status: InspectCache(ctx, BuildCorpus(parsed.Records), store)}, nil
}

type ProviderListUseCase struct {
	resolver *ScopeResolver
}

func NewProviderListUseCase(resolver *ScopeResolver) *ProviderListUseCase {
	return &ProviderListUseCase{resolver: resolver}
}

// Execute returns provider names sorted, and the default provider.
func (uc *ProviderListUseCase) Execute(input ProviderInput) ([]string, string, error) {
	cfg, err := LoadConfig(uc.resolver.Resolve(input.Scope))
	if err != nil {
		return nil, "", err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, cfg.DefaultProvider, nil
}

type ProviderAddUseCase struct {
	resolver *ScopeResolver
}

func NewProviderAddUseCase(resolver *ScopeResolver) *ProviderAddUseCase {
	return &ProviderAddUseCase{resolver: resolver}
}

func (uc *ProviderAddUseCase) Execute(input ProviderInput) error {
	return updateConfig(uc.resolver, input.Scope, func(cfg *Config) error {
		cfg.Providers[input.Name] = input.Config
		if cfg.DefaultProvider == "" {
			cfg.DefaultProvider = input.Name
		}
		return nil
	})
}

type ProviderRemoveUseCase struct {
	resolver *ScopeResolver
}

func NewProviderRemoveUseCase(resolver *ScopeResolver) *ProviderRemoveUseCase {
	return &ProviderRemoveUseCase{resolver: resolver}
}

func (uc *ProviderRemoveUseCase) Execute(input ProviderInput) error {
	return updateConfig(uc.resolver, input.Scope, func(cfg *Config) error {
		if _, ok := cfg.Providers[input.Name]; !ok {
			return fmt.Errorf("provider %q not configured", input.Name)
		}
		delete(cfg.Providers, input.Name)
		if cfg.DefaultProvider == input.Name {
			cfg.DefaultProvider = ""
		}
		return nil
	})
}

type ProviderSetDefaultUseCase struct {
	resolver *ScopeResolver
}

func NewProviderSetDefaultUseCase(resolver *ScopeResolver) *ProviderSetDefaultUseCase {
	return &ProviderSetDefaultUseCase{resolver: resolver}
}

func (uc *ProviderSetDefaultUseCase) Execute(input ProviderInput) error {
	return updateConfig(uc.resolver, input.Scope, func(cfg *Config) error {
		if _, ok := cfg.Providers[input.Name]; !ok {
			return fmt.Errorf("provider %q not configured", input.Name)
		}
		cfg.DefaultProvider = input.Name
		return nil
	})
}

type ProviderTestUseCase struct {
	ws *Workspace
}

func NewProviderTestUseCase(ws *Workspace) *ProviderTestUseCase {
	return &ProviderTestUseCase{ws: ws}
}

// Execute sends a trivial prompt through the named provider.
func (uc *ProviderTestUseCase) Execute(ctx context.Context, input ProviderInput) (string, error) {
	_, cfg, err := uc.ws.Load(input.Scope)
	if err != nil {
		return "", err
	}

	settings, err := cfg.ProviderSettings(input.Name)
	if err != nil {
		return "", err
	}
	provider, err := uc.ws.providerFor(ctx, settings)
	if err != nil {
		return "", fmt.Errorf("create provider: %w", err)
	}

	return provider.Complete(ctx, "Reply with the single word OK.")
}

func updateConfig(resolver *ScopeResolver, scopeHint string, mutate func(*Config) error) error {
	scope := resolver.Resolve(scopeHint)
	if !scope.Initialized() {
		return fmt.Errorf("%w: %s", ErrNotInitialized, scope.DataPath)
	}

	cfg, err := LoadConfig(scope)
	if err != nil {
		return err
	}
	if err := mutate(cfg); err != nil {
		return err
	}
	return SaveConfig(scope, cfg)
}

func topK(k int, cfg *Config) int {
	if k > 0 {
		return k
	}
	return cfg.Retrieval.TopK
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
