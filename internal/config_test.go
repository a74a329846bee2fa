package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testScope(t *testing.T) Scope {
	t.Helper()
	tmpDir := t.TempDir()
	dataPath := filepath.Join(tmpDir, DataDirName)
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return Scope{Type: ScopeProject, Path: tmpDir, DataPath: dataPath}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Embeddings.Backend != EmbeddingsTFIDF {
		t.Errorf("expected backend %q, got %q", EmbeddingsTFIDF, cfg.Embeddings.Backend)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected top_k 3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Log.Path != "diffs.log" {
		t.Errorf("expected log path diffs.log, got %q", cfg.Log.Path)
	}
	if cfg.DefaultProvider != DefaultProviderName {
		t.Errorf("expected default provider %q, got %q", DefaultProviderName, cfg.DefaultProvider)
	}
	if p := cfg.Providers[DefaultProviderName]; p.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("expected key env GEMINI_API_KEY, got %q", p.APIKeyEnv)
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	scope := testScope(t)

	cfg := DefaultConfig()
	cfg.DefaultProvider = "myp"
	cfg.Providers["myp"] = ProviderConfig{
		Kind:   "openai",
		APIKey: "sk-test",
		Model:  "gpt-4o-mini",
	}
	cfg.Cache.Backend = CacheBackendSQLite
	cfg.Embeddings.Timeout = 30 * time.Second

	if err := SaveConfig(scope, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(scope)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.DefaultProvider != "myp" {
		t.Errorf("default provider = %q, want %q", loaded.DefaultProvider, "myp")
	}
	if p, ok := loaded.Providers["myp"]; !ok {
		t.Error("expected provider 'myp' to exist")
	} else if p.APIKey != "sk-test" || p.Kind != "openai" {
		t.Errorf("provider = %+v", p)
	}
	if loaded.Cache.Backend != CacheBackendSQLite {
		t.Errorf("cache backend = %q", loaded.Cache.Backend)
	}
	if loaded.Embeddings.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", loaded.Embeddings.Timeout)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(testScope(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Should return default config when file doesn't exist
	if cfg.Embeddings.Backend != EmbeddingsTFIDF {
		t.Errorf("expected default backend, got %q", cfg.Embeddings.Backend)
	}
}

func TestLoadConfigFillsDefaults(t *testing.T) {
	scope := testScope(t)
	if err := os.WriteFile(scope.ConfigPath(), []byte("log:\n  path: other.log\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(scope)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Path != "other.log" {
		t.Errorf("log path = %q", cfg.Log.Path)
	}
	if cfg.Retrieval.TopK != DefaultTopK || cfg.Embeddings.BatchSize != DefaultBatchSize {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Providers == nil {
		t.Error("expected providers map to be initialized")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	scope := testScope(t)
	if err := os.WriteFile(scope.ConfigPath(), []byte("{{invalid yaml:::"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadConfig(scope); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestConfigPaths(t *testing.T) {
	scope := Scope{Path: "/repo", DataPath: "/repo/.gitrag"}
	cfg := DefaultConfig()

	if got := cfg.LogPath(scope); got != "/repo/diffs.log" {
		t.Errorf("log path = %q", got)
	}
	if got := cfg.CachePath(scope); got != "/repo/.gitrag/embeddings.zst" {
		t.Errorf("cache path = %q", got)
	}

	cfg.Cache.Backend = CacheBackendSQLite
	if got := cfg.CachePath(scope); got != "/repo/.gitrag/embeddings.db" {
		t.Errorf("sqlite path = %q", got)
	}

	cfg.Log.Path = "/abs/log.txt"
	cfg.Cache.Path = "custom.db"
	if got := cfg.LogPath(scope); got != "/abs/log.txt" {
		t.Errorf("absolute log path = %q", got)
	}
	if got := cfg.CachePath(scope); got != "/repo/.gitrag/custom.db" {
		t.Errorf("custom cache path = %q", got)
	}
}

func TestProviderSettings(t *testing.T) {
	t.Setenv("GITRAG_TEST_KEY", "from-env")

	cfg := DefaultConfig()
	cfg.Providers["envkey"] = ProviderConfig{Kind: "openai", APIKeyEnv: "GITRAG_TEST_KEY", Model: "m"}
	cfg.Providers["local"] = ProviderConfig{Kind: "openaicompat", BaseURL: "http://localhost:11434/v1", Model: "llama3"}
	cfg.Providers["nokey"] = ProviderConfig{Kind: "anthropic", APIKeyEnv: "GITRAG_TEST_UNSET", Model: "m"}

	got, err := cfg.ProviderSettings("envkey")
	if err != nil {
		t.Fatalf("envkey: %v", err)
	}
	if got.APIKey != "from-env" || got.Provider != "openai" {
		t.Errorf("envkey settings = %+v", got)
	}

	if _, err := cfg.ProviderSettings("local"); err != nil {
		t.Errorf("local provider should not need a key: %v", err)
	}

	_, err = cfg.ProviderSettings("nokey")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}

	if _, err := cfg.ProviderSettings("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderSettingsDefault(t *testing.T) {
	t.Setenv(DefaultGeminiKeyEnv, "gemini-key")

	got, err := DefaultConfig().ProviderSettings("")
	if err != nil {
		t.Fatalf("default provider: %v", err)
	}
	if got.Provider != DefaultProviderName || got.Model != DefaultGeminiModel {
		t.Errorf("settings = %+v", got)
	}
}
