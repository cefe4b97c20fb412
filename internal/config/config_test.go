package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/search"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "hybrid", cfg.Search.Mode)
	assert.Equal(t, 0.5, cfg.Search.Alpha)
	assert.Equal(t, search.DefaultTopK, cfg.Search.TopK)
	assert.Equal(t, 1.5, cfg.Search.K1)
	assert.Equal(t, 0.75, cfg.Search.B)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "snowflake-arctic-embed2", cfg.Embeddings.Model)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadProjectFileOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
search:
  mode: lexical
  top_k: 20
  alpha: 0.8
embeddings:
  provider: static
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".multiret.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "lexical", cfg.Search.Mode)
	assert.Equal(t, 20, cfg.Search.TopK)
	assert.Equal(t, 0.8, cfg.Search.Alpha)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, 1.5, cfg.Search.K1)
}

func TestLoadYmlFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".multiret.yml"),
		[]byte("search:\n  top_k: 3\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.TopK)
}

func TestLoadEnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".multiret.yaml"),
		[]byte("search:\n  mode: lexical\n  alpha: 0.3\n"), 0o644))

	t.Setenv("MULTIRET_MODE", "semantic")
	t.Setenv("MULTIRET_ALPHA", "0.9")
	t.Setenv("MULTIRET_TOP_K", "7")
	t.Setenv("MULTIRET_OLLAMA_HOST", "http://embedhost:11434")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "semantic", cfg.Search.Mode)
	assert.Equal(t, 0.9, cfg.Search.Alpha)
	assert.Equal(t, 7, cfg.Search.TopK)
	assert.Equal(t, "http://embedhost:11434", cfg.Embeddings.OllamaHost)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".multiret.yaml"),
		[]byte("search: [not, a, map"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Search.Mode = "fuzzy" }},
		{"alpha too low", func(c *Config) { c.Search.Alpha = -0.5 }},
		{"alpha too high", func(c *Config) { c.Search.Alpha = 1.5 }},
		{"zero top_k", func(c *Config) { c.Search.TopK = 0 }},
		{"negative k1", func(c *Config) { c.Search.K1 = -1 }},
		{"b out of range", func(c *Config) { c.Search.B = 1.2 }},
		{"bad timeout", func(c *Config) { c.Search.SemanticTimeout = "soon" }},
		{"bad provider", func(c *Config) { c.Embeddings.Provider = "openai" }},
		{"batch size too large", func(c *Config) { c.Embeddings.BatchSize = 10000 }},
		{"bad embed timeout", func(c *Config) { c.Embeddings.Timeout = "whenever" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.CategoryConfig, apperrors.GetCategory(err))
		})
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := NewConfig()
	cfg.DataDir = "/var/lib/multiret"

	assert.Equal(t, filepath.Join("/var/lib/multiret", "corpus.db"), cfg.CorpusPath())
	assert.Equal(t, filepath.Join("/var/lib/multiret", "vectors.hnsw"), cfg.VectorIndexPath())
	assert.Equal(t, 10*time.Second, cfg.SemanticTimeoutDuration())

	ec := cfg.EngineConfig()
	assert.Equal(t, search.ModeHybrid, ec.Mode)
	assert.Equal(t, cfg.Search.TopK, ec.TopK)

	ic := cfg.IndexConfig()
	assert.Equal(t, 1.5, ic.K1)
	assert.Equal(t, 0.75, ic.B)
}
