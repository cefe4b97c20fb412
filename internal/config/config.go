// Package config loads multiret configuration: built-in defaults, merged
// with an optional .multiret.yaml project file, with MULTIRET_* environment
// variables taking highest precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hayatlabs/multiret/internal/embed"
	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/index"
	"github.com/hayatlabs/multiret/internal/search"
)

// File names probed in the project directory, in precedence order.
var configFileNames = []string{".multiret.yaml", ".multiret.yml"}

// Config is the complete multiret configuration.
type Config struct {
	Version    int              `yaml:"version"`
	DataDir    string           `yaml:"data_dir"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SearchConfig configures the hybrid retrieval engine.
type SearchConfig struct {
	// Mode is hybrid, lexical or semantic.
	Mode string `yaml:"mode"`

	// Alpha is the semantic weight in [0, 1]. Only hybrid mode reads it.
	Alpha float64 `yaml:"alpha"`

	// TopK is the number of results per query.
	TopK int `yaml:"top_k"`

	// K1 and B are the BM25 free parameters.
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`

	// SemanticTimeout bounds the semantic stream per query, e.g. "10s".
	SemanticTimeout string `yaml:"semantic_timeout"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	OllamaHost string `yaml:"ollama_host"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
	Timeout    string `yaml:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: ".multiret",
		Search: SearchConfig{
			Mode:            string(search.ModeHybrid),
			Alpha:           search.DefaultAlpha,
			TopK:            search.DefaultTopK,
			K1:              index.DefaultK1,
			B:               index.DefaultB,
			SemanticTimeout: search.DefaultSemanticTimeout.String(),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  embed.ProviderOllama,
			Model:     embed.DefaultOllamaModel,
			BatchSize: embed.DefaultBatchSize,
			CacheSize: embed.DefaultEmbeddingCacheSize,
			Timeout:   embed.DefaultTimeout.String(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration for a project directory:
// defaults, then the project file if present, then environment overrides.
// The result is validated before it is returned.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile merges the first config file found in dir. A missing file
// is not an error.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return apperrors.New(apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("cannot read config file %s", path), err)
		}

		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return apperrors.ConfigError(
				fmt.Sprintf("cannot parse config file %s", path), err)
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}

	if other.Search.Mode != "" {
		c.Search.Mode = other.Search.Mode
	}
	if other.Search.Alpha != 0 {
		c.Search.Alpha = other.Search.Alpha
	}
	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.K1 != 0 {
		c.Search.K1 = other.Search.K1
	}
	if other.Search.B != 0 {
		c.Search.B = other.Search.B
	}
	if other.Search.SemanticTimeout != "" {
		c.Search.SemanticTimeout = other.Search.SemanticTimeout
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.Timeout != "" {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies MULTIRET_* environment variables. Values that
// fail to parse are ignored; Validate catches anything out of range.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MULTIRET_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("MULTIRET_MODE"); v != "" {
		c.Search.Mode = v
	}
	if v := os.Getenv("MULTIRET_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.Alpha = f
		}
	}
	if v := os.Getenv("MULTIRET_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("MULTIRET_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("MULTIRET_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("MULTIRET_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("MULTIRET_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	switch search.Mode(c.Search.Mode) {
	case search.ModeHybrid, search.ModeLexical, search.ModeSemantic:
	default:
		return apperrors.ConfigError(
			fmt.Sprintf("search.mode must be hybrid, lexical or semantic, got %q", c.Search.Mode), nil)
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return apperrors.ConfigError(
			fmt.Sprintf("search.alpha must be in [0, 1], got %g", c.Search.Alpha), nil)
	}
	if c.Search.TopK < 1 {
		return apperrors.ConfigError(
			fmt.Sprintf("search.top_k must be >= 1, got %d", c.Search.TopK), nil)
	}
	if c.Search.K1 <= 0 {
		return apperrors.ConfigError(
			fmt.Sprintf("search.k1 must be > 0, got %g", c.Search.K1), nil)
	}
	if c.Search.B < 0 || c.Search.B > 1 {
		return apperrors.ConfigError(
			fmt.Sprintf("search.b must be in [0, 1], got %g", c.Search.B), nil)
	}
	if _, err := time.ParseDuration(c.Search.SemanticTimeout); err != nil {
		return apperrors.ConfigError(
			fmt.Sprintf("search.semantic_timeout %q is not a duration", c.Search.SemanticTimeout), err)
	}

	switch c.Embeddings.Provider {
	case embed.ProviderOllama, embed.ProviderStatic:
	default:
		return apperrors.ConfigError(
			fmt.Sprintf("embeddings.provider must be ollama or static, got %q", c.Embeddings.Provider), nil)
	}
	if c.Embeddings.BatchSize < embed.MinBatchSize || c.Embeddings.BatchSize > embed.MaxBatchSize {
		return apperrors.ConfigError(
			fmt.Sprintf("embeddings.batch_size must be in [%d, %d], got %d",
				embed.MinBatchSize, embed.MaxBatchSize, c.Embeddings.BatchSize), nil)
	}
	if _, err := time.ParseDuration(c.Embeddings.Timeout); err != nil {
		return apperrors.ConfigError(
			fmt.Sprintf("embeddings.timeout %q is not a duration", c.Embeddings.Timeout), err)
	}

	return nil
}

// SemanticTimeoutDuration returns the parsed semantic timeout. Call
// Validate first; an unparsable value falls back to the default.
func (c *Config) SemanticTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Search.SemanticTimeout)
	if err != nil {
		return search.DefaultSemanticTimeout
	}
	return d
}

// EmbedTimeoutDuration returns the parsed embedding timeout.
func (c *Config) EmbedTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Embeddings.Timeout)
	if err != nil {
		return embed.DefaultTimeout
	}
	return d
}

// CorpusPath is the SQLite corpus database location under DataDir.
func (c *Config) CorpusPath() string {
	return filepath.Join(c.DataDir, "corpus.db")
}

// VectorIndexPath is the HNSW index location under DataDir.
func (c *Config) VectorIndexPath() string {
	return filepath.Join(c.DataDir, "vectors.hnsw")
}

// EngineConfig maps the search section onto the engine configuration.
func (c *Config) EngineConfig() search.EngineConfig {
	return search.EngineConfig{
		Mode:            search.Mode(c.Search.Mode),
		TopK:            c.Search.TopK,
		Alpha:           c.Search.Alpha,
		SemanticTimeout: c.SemanticTimeoutDuration(),
	}
}

// IndexConfig maps the search section onto the BM25 configuration.
func (c *Config) IndexConfig() index.Config {
	return index.Config{K1: c.Search.K1, B: c.Search.B}
}

// EmbedOptions maps the embeddings section onto the embedder factory.
func (c *Config) EmbedOptions() embed.Options {
	return embed.Options{
		Provider:   c.Embeddings.Provider,
		Model:      c.Embeddings.Model,
		Host:       c.Embeddings.OllamaHost,
		Dimensions: c.Embeddings.Dimensions,
		BatchSize:  c.Embeddings.BatchSize,
		CacheSize:  c.Embeddings.CacheSize,
		Timeout:    c.EmbedTimeoutDuration(),
	}
}
