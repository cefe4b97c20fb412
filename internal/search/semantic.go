package search

import (
	"context"

	"github.com/hayatlabs/multiret/internal/embed"
	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/store"
	"github.com/hayatlabs/multiret/internal/textnorm"
)

// VectorAdapter implements SemanticSearcher over an embedder, a vector
// store and a document lookup: embed the query, find nearest neighbors,
// resolve hits back to documents.
type VectorAdapter struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	docs     store.DocumentLookup
}

// Verify interface implementation at compile time
var _ SemanticSearcher = (*VectorAdapter)(nil)

// NewVectorAdapter creates a semantic searcher. All dependencies are
// required.
func NewVectorAdapter(embedder embed.Embedder, vectors store.VectorStore, docs store.DocumentLookup) (*VectorAdapter, error) {
	if embedder == nil {
		return nil, apperrors.ConfigError("semantic search requires an embedder", nil)
	}
	if vectors == nil {
		return nil, apperrors.ConfigError("semantic search requires a vector store", nil)
	}
	if docs == nil {
		return nil, apperrors.ConfigError("semantic search requires a document lookup", nil)
	}
	return &VectorAdapter{embedder: embedder, vectors: vectors, docs: docs}, nil
}

// Search embeds the query and returns up to limit candidates with their
// vector distance as RawScore (lower is better). Hits whose document no
// longer resolves are dropped.
func (a *VectorAdapter) Search(ctx context.Context, query string, limit int) ([]store.CandidateResult, error) {
	vec, err := a.embedder.Embed(ctx, textnorm.Normalize(query))
	if err != nil {
		return nil, err
	}

	hits, err := a.vectors.Search(ctx, vec, limit)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return []store.CandidateResult{}, nil
	}

	ids := make([]string, len(hits))
	distances := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.DocID
		distances[h.DocID] = float64(h.Distance)
	}

	docs, err := a.docs.GetDocuments(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCorpusStore, err)
	}

	results := make([]store.CandidateResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, store.CandidateResult{
			DocID:    doc.DocID,
			Lang:     doc.Lang,
			Text:     doc.Text,
			RawScore: distances[doc.DocID],
		})
	}
	return results, nil
}
