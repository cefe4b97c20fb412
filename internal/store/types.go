// Package store provides the document corpus persistence (SQLite) and the
// vector store (HNSW) backing semantic search, plus the data types shared
// by the rankers.
package store

import (
	"context"
	"fmt"
)

// Document is a single corpus entry. Immutable once indexed.
type Document struct {
	// DocID uniquely identifies the document within the corpus.
	DocID string

	// Lang is the document's language tag (free-form, e.g. "ur", "es").
	Lang string

	// Text is the document body, whitespace-normalized at ingestion.
	Text string

	// Translation is an optional English translation carried through for
	// display. The rankers ignore it.
	Translation string
}

// CandidateResult is the output unit of either ranker: one entry per
// matched document. The meaning of RawScore depends on the producer:
// BM25 scores are "higher is better", semantic scores are distances
// ("lower is better"). Producers are not required to sort.
type CandidateResult struct {
	DocID    string
	Lang     string
	Text     string
	RawScore float64
}

// VectorHit is a raw nearest-neighbor match: a document ID and its
// distance to the query vector (lower = more similar, non-negative).
type VectorHit struct {
	DocID    string
	Distance float32
}

// VectorStore provides nearest-neighbor search over document embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if an ID exists.
	Contains(id string) bool

	// Count returns the number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// DocumentLookup resolves document IDs to full documents. Implemented by
// CorpusStore and by in-memory corpus snapshots.
type DocumentLookup interface {
	GetDocuments(ctx context.Context, ids []string) ([]Document, error)
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension. 0 is resolved on first Add.
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   32,
	}
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reindex with the current embedder)", e.Expected, e.Got)
}
