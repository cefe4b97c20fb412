package embed

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
)

// Provider identifiers accepted by NewEmbedder.
const (
	ProviderOllama = "ollama"
	ProviderStatic = "static"
)

// Options selects and configures an embedding backend.
type Options struct {
	Provider   string
	Model      string
	Host       string
	Dimensions int
	BatchSize  int
	CacheSize  int
	Timeout    time.Duration
}

// NewEmbedder constructs the configured embedder wrapped in an LRU cache.
// An unknown provider is a configuration error.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)

	switch opts.Provider {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOllama, "":
		inner, err = NewOllamaEmbedder(ctx, OllamaConfig{
			Host:       opts.Host,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			BatchSize:  opts.BatchSize,
			Timeout:    opts.Timeout,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.ConfigError(
			fmt.Sprintf("unknown embedding provider %q", opts.Provider), nil)
	}

	return NewCachedEmbedder(inner, opts.CacheSize), nil
}
