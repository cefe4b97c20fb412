// Package search implements hybrid retrieval: a BM25 lexical stream and an
// embedding-distance semantic stream, normalized per stream and fused by a
// weighted outer join over document IDs.
package search

import (
	"context"
	"time"

	"github.com/hayatlabs/multiret/internal/store"
)

// Mode selects which retrieval streams feed fusion.
type Mode string

const (
	// ModeHybrid runs both streams and blends them by Alpha.
	ModeHybrid Mode = "hybrid"

	// ModeLexical runs BM25 only (Alpha forced to 0).
	ModeLexical Mode = "lexical"

	// ModeSemantic runs vector search only (Alpha forced to 1).
	ModeSemantic Mode = "semantic"
)

// Fusion defaults.
const (
	// DefaultTopK is the default result count.
	DefaultTopK = 5

	// DefaultAlpha is the default semantic weight.
	DefaultAlpha = 0.5

	// CandidateMultiplier oversizes both candidate streams relative to
	// TopK so the outer join has headroom before truncation.
	CandidateMultiplier = 2

	// DefaultSemanticTimeout bounds the semantic stream per query.
	DefaultSemanticTimeout = 10 * time.Second
)

// ScoredResult is one fused result. Scores are in [0, 1].
type ScoredResult struct {
	// Rank is the 1-indexed position after fusion and truncation.
	Rank int

	// Score is the blended hybrid score.
	Score float64

	// LexScore and SemScore are the per-stream normalized scores that
	// produced Score. A stream that never saw the document contributes 0.
	LexScore float64
	SemScore float64

	DocID       string
	Lang        string
	Text        string
	Translation string
}

// Response carries fused results plus degradation state: when the semantic
// stream fails mid-query the engine falls back to lexical-only scoring and
// says so instead of erroring.
type Response struct {
	Results  []ScoredResult
	Degraded bool
	Warning  string
}

// SemanticSearcher produces distance-scored candidates for a query.
// RawScore on returned candidates is a distance (lower is better).
type SemanticSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]store.CandidateResult, error)
}

// EngineConfig configures the hybrid engine.
type EngineConfig struct {
	// Mode selects hybrid, lexical or semantic retrieval.
	Mode Mode

	// TopK is the number of results to return (>= 1).
	TopK int

	// Alpha is the semantic weight in [0, 1]. Ignored outside hybrid mode.
	Alpha float64

	// SemanticTimeout bounds the semantic stream per query.
	SemanticTimeout time.Duration
}

// DefaultEngineConfig returns the standard engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mode:            ModeHybrid,
		TopK:            DefaultTopK,
		Alpha:           DefaultAlpha,
		SemanticTimeout: DefaultSemanticTimeout,
	}
}
