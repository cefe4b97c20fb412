package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/index"
	"github.com/hayatlabs/multiret/internal/store"
)

// Engine runs hybrid retrieval over a rebuildable BM25 index and a
// semantic searcher. The BM25 index is swapped atomically on rebuild, so
// queries never block behind indexing and never see a half-built index.
type Engine struct {
	bm25     atomic.Pointer[index.BM25]
	semantic SemanticSearcher
	docs     store.DocumentLookup
	config   EngineConfig
	logger   *slog.Logger
}

// NewEngine creates a hybrid engine. The semantic searcher is required
// unless the mode is lexical-only; the document lookup is optional and only
// used to attach translations to results. Configuration is validated here
// so a bad alpha or top_k fails at startup, not per query.
func NewEngine(semantic SemanticSearcher, docs store.DocumentLookup, cfg EngineConfig, logger *slog.Logger) (*Engine, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeHybrid
	}
	if cfg.TopK == 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SemanticTimeout <= 0 {
		cfg.SemanticTimeout = DefaultSemanticTimeout
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if semantic == nil && cfg.Mode != ModeLexical {
		return nil, apperrors.ConfigError(
			fmt.Sprintf("mode %q requires a semantic searcher", cfg.Mode), nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		semantic: semantic,
		docs:     docs,
		config:   cfg,
		logger:   logger,
	}, nil
}

func validateConfig(cfg EngineConfig) error {
	switch cfg.Mode {
	case ModeHybrid, ModeLexical, ModeSemantic:
	default:
		return apperrors.ConfigError(fmt.Sprintf("unknown mode %q", cfg.Mode), nil)
	}
	if cfg.TopK < 1 {
		return apperrors.ConfigError(fmt.Sprintf("top_k must be >= 1, got %d", cfg.TopK), nil)
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		return apperrors.ConfigError(fmt.Sprintf("alpha must be in [0, 1], got %g", cfg.Alpha), nil)
	}
	return nil
}

// Rebuild replaces the lexical index with one built from the given corpus.
// In-flight queries keep the snapshot they loaded; new queries see the new
// index. Rebuild is also the readiness gate: queries fail with a not-ready
// error until the first successful rebuild.
func (e *Engine) Rebuild(corpus []store.Document, cfg index.Config) error {
	idx, err := index.New(corpus, cfg)
	if err != nil {
		return err
	}
	e.bm25.Store(idx)

	stats := idx.Stats()
	e.logger.Info("lexical index rebuilt",
		slog.Int("documents", stats.DocumentCount),
		slog.Int("terms", stats.TermCount))
	return nil
}

// Ready reports whether the engine has an index to query.
func (e *Engine) Ready() bool {
	return e.bm25.Load() != nil
}

// Stats returns statistics of the current lexical index, or zero values
// before the first rebuild.
func (e *Engine) Stats() index.Stats {
	idx := e.bm25.Load()
	if idx == nil {
		return index.Stats{}
	}
	return idx.Stats()
}

// effectiveAlpha maps the mode onto the semantic weight: lexical and
// semantic modes are the alpha extremes of the same fusion path.
func (e *Engine) effectiveAlpha() float64 {
	switch e.config.Mode {
	case ModeLexical:
		return 0
	case ModeSemantic:
		return 1
	default:
		return e.config.Alpha
	}
}

// Search runs the configured retrieval streams for the query and fuses
// them into at most TopK ranked results. Both streams are asked for
// TopK*CandidateMultiplier candidates so the join has headroom.
//
// In hybrid mode a backend failure on the semantic stream degrades the
// response to lexical-only with a warning instead of failing the query.
// In semantic-only mode there is nothing to degrade to, so the error
// propagates.
func (e *Engine) Search(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ValidationError("query must not be blank", nil)
	}

	idx := e.bm25.Load()
	if idx == nil {
		return nil, apperrors.NotReadyError("no index built yet, run rebuild first")
	}

	limit := e.config.TopK * CandidateMultiplier
	alpha := e.effectiveAlpha()

	var (
		lexical  []store.CandidateResult
		semantic []store.CandidateResult
		degraded bool
		warning  string
	)

	switch e.config.Mode {
	case ModeLexical:
		lexical = idx.SearchTopN(query, limit)

	case ModeSemantic:
		results, err := e.semanticSearch(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		semantic = results

	default:
		g, gctx := errgroup.WithContext(ctx)
		var semErr error
		g.Go(func() error {
			lexical = idx.SearchTopN(query, limit)
			return nil
		})
		g.Go(func() error {
			results, err := e.semanticSearch(gctx, query, limit)
			if err != nil {
				// Absorbed below so the lexical stream still completes.
				semErr = err
				return nil
			}
			semantic = results
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if semErr != nil {
			if !apperrors.IsRetryable(semErr) {
				return nil, semErr
			}
			e.logger.Warn("semantic stream failed, degrading to lexical-only",
				slog.String("query", query),
				slog.String("error", semErr.Error()))
			degraded = true
			warning = "semantic retrieval unavailable, results are lexical-only"
			semantic = nil
			alpha = 0
		}
	}

	results := NewFuser(alpha).Fuse(lexical, semantic, e.config.TopK)
	e.attachTranslations(ctx, results)

	return &Response{Results: results, Degraded: degraded, Warning: warning}, nil
}

// semanticSearch bounds the semantic stream with the configured timeout
// and maps deadline expiry onto a backend timeout error.
func (e *Engine) semanticSearch(ctx context.Context, query string, limit int) ([]store.CandidateResult, error) {
	searchCtx, cancel := context.WithTimeout(ctx, e.config.SemanticTimeout)
	defer cancel()

	results, err := e.semantic.Search(searchCtx, query, limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.TimeoutError("semantic search timed out", err)
		}
		return nil, err
	}
	return results, nil
}

// attachTranslations fills in the Translation field from the document
// lookup. Lookup failures only cost the translations, never the results.
func (e *Engine) attachTranslations(ctx context.Context, results []ScoredResult) {
	if e.docs == nil || len(results) == 0 {
		return
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.DocID
	}

	docs, err := e.docs.GetDocuments(ctx, ids)
	if err != nil {
		e.logger.Warn("translation lookup failed", slog.String("error", err.Error()))
		return
	}

	translations := make(map[string]string, len(docs))
	for _, d := range docs {
		translations[d.DocID] = d.Translation
	}
	for i := range results {
		results[i].Translation = translations[results[i].DocID]
	}
}
