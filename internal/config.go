package internal

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogFile      = "diffs.log"
	DefaultCacheFile    = "embeddings.zst"
	DefaultSQLiteFile   = "embeddings.db"
	DefaultTopK         = 3
	DefaultMaxCommits   = 100
	DefaultEmbedTimeout = 2 * time.Minute
	DefaultProviderName = "google"
	DefaultGeminiModel  = "gemini-2.5-flash"
	DefaultGeminiKeyEnv = "GEMINI_API_KEY"
	DefaultOpenAIKeyEnv = "OPENAI_API_KEY"
	CacheBackendFile    = "file"
	CacheBackendSQLite  = "sqlite"
	EmbeddingsTFIDF     = "tfidf"
	EmbeddingsOpenAI    = "openai"
	EmbeddingsOllama    = "ollama"
)

type LogConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

type EmbeddingsConfig struct {
	Backend   string        `yaml:"backend"`
	Model     string        `yaml:"model,omitempty"`
	BaseURL   string        `yaml:"base_url,omitempty"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"`
	Dimension int           `yaml:"dimension,omitempty"`
	BatchSize int           `yaml:"batch_size,omitempty"`
	MaxTerms  int           `yaml:"max_terms,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

type ProviderConfig struct {
	// Kind selects the backend; it defaults to the provider's name.
	Kind      string `yaml:"kind,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type PromptConfig struct {
	MaxChars int `yaml:"max_chars"`
}

type ExportConfig struct {
	Repo       string `yaml:"repo,omitempty"`
	URL        string `yaml:"url,omitempty"`
	Branch     string `yaml:"branch,omitempty"`
	MaxCommits int    `yaml:"max_commits,omitempty"`
}

type Config struct {
	Log             LogConfig                 `yaml:"log"`
	Cache           CacheConfig               `yaml:"cache"`
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Retrieval       RetrievalConfig           `yaml:"retrieval"`
	Prompt          PromptConfig              `yaml:"prompt"`
	Export          ExportConfig              `yaml:"export,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Log:   LogConfig{Path: DefaultLogFile},
		Cache: CacheConfig{Backend: CacheBackendFile},
		Embeddings: EmbeddingsConfig{
			Backend:   EmbeddingsTFIDF,
			BatchSize: DefaultBatchSize,
			Timeout:   DefaultEmbedTimeout,
		},
		Providers: map[string]ProviderConfig{
			DefaultProviderName: {
				APIKeyEnv: DefaultGeminiKeyEnv,
				Model:     DefaultGeminiModel,
			},
		},
		DefaultProvider: DefaultProviderName,
		Retrieval:       RetrievalConfig{TopK: DefaultTopK},
		Prompt:          PromptConfig{MaxChars: DefaultMaxPromptChars},
		Export:          ExportConfig{MaxCommits: DefaultMaxCommits},
	}
}

func LoadConfig(scope Scope) (*Config, error) {
	path := scope.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func SaveConfig(scope Scope, cfg *Config) error {
	path := scope.ConfigPath()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(scope.DataPath, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func applyConfigDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.Log.Path == "" {
		cfg.Log.Path = def.Log.Path
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = def.Cache.Backend
	}
	if cfg.Embeddings.Backend == "" {
		cfg.Embeddings.Backend = def.Embeddings.Backend
	}
	if cfg.Embeddings.BatchSize <= 0 {
		cfg.Embeddings.BatchSize = def.Embeddings.BatchSize
	}
	if cfg.Embeddings.Timeout <= 0 {
		cfg.Embeddings.Timeout = def.Embeddings.Timeout
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Prompt.MaxChars == 0 {
		cfg.Prompt.MaxChars = def.Prompt.MaxChars
	}
	if cfg.Export.MaxCommits <= 0 {
		cfg.Export.MaxCommits = def.Export.MaxCommits
	}
}

// CachePath returns the absolute cache location for the configured backend.
func (c *Config) CachePath(scope Scope) string {
	if c.Cache.Path != "" {
		return scope.ResolveData(c.Cache.Path)
	}
	if c.Cache.Backend == CacheBackendSQLite {
		return scope.ResolveData(DefaultSQLiteFile)
	}
	return scope.ResolveData(DefaultCacheFile)
}

// LogPath returns the absolute path of the commit log.
func (c *Config) LogPath(scope Scope) string {
	return scope.Resolve(c.Log.Path)
}

// ProviderSettings resolves the named provider, or the default one when
// name is empty, into settings for NewFantasyProvider. A missing key is
// reported as ErrMissingCredential.
func (c *Config) ProviderSettings(name string) (FantasyConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	if name == "" {
		return FantasyConfig{}, fmt.Errorf("no default provider configured")
	}

	p, ok := c.Providers[name]
	if !ok {
		return FantasyConfig{}, fmt.Errorf("provider %q not configured", name)
	}

	kind := p.Kind
	if kind == "" {
		kind = name
	}

	key := p.APIKey
	if key == "" && p.APIKeyEnv != "" {
		key = os.Getenv(p.APIKeyEnv)
	}
	if key == "" && kind != "openaicompat" {
		env := p.APIKeyEnv
		if env == "" {
			env = "api_key"
		}
		return FantasyConfig{}, fmt.Errorf("%w: provider %q (set %s)", ErrMissingCredential, name, env)
	}

	return FantasyConfig{
		Provider: kind,
		APIKey:   key,
		BaseURL:  p.BaseURL,
		Model:    p.Model,
	}, nil
}
