package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/index"
	"github.com/hayatlabs/multiret/internal/store"
)

// fakeSemantic is a scripted SemanticSearcher.
type fakeSemantic struct {
	mu       sync.Mutex
	results  []store.CandidateResult
	err      error
	delay    time.Duration
	gotQuery string
	gotLimit int
	calls    int
}

func (f *fakeSemantic) Search(ctx context.Context, query string, limit int) ([]store.CandidateResult, error) {
	f.mu.Lock()
	f.gotQuery = query
	f.gotLimit = limit
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeLookup resolves documents from a fixed map.
type fakeLookup struct {
	docs map[string]store.Document
	err  error
}

func (f *fakeLookup) GetDocuments(_ context.Context, ids []string) ([]store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func engineCorpus() []store.Document {
	return []store.Document{
		{DocID: "d1", Lang: "en", Text: "the quick brown fox", Translation: "the quick brown fox"},
		{DocID: "d2", Lang: "es", Text: "el zorro rapido", Translation: "the fast fox"},
		{DocID: "d3", Lang: "en", Text: "unrelated database text"},
	}
}

func readyEngine(t *testing.T, semantic SemanticSearcher, docs store.DocumentLookup, cfg EngineConfig) *Engine {
	t.Helper()
	e, err := NewEngine(semantic, docs, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, e.Rebuild(engineCorpus(), index.DefaultConfig()))
	return e
}

func TestNewEngineValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  EngineConfig
	}{
		{"alpha below range", EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: -0.1}},
		{"alpha above range", EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: 1.1}},
		{"negative top_k", EngineConfig{Mode: ModeHybrid, TopK: -3, Alpha: 0.5}},
		{"unknown mode", EngineConfig{Mode: "fuzzy", TopK: 5, Alpha: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(&fakeSemantic{}, nil, tt.cfg, nil)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

func TestNewEngineRequiresSemanticSearcher(t *testing.T) {
	_, err := NewEngine(nil, nil, EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: 0.5}, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))

	// Lexical mode works without one.
	_, err = NewEngine(nil, nil, EngineConfig{Mode: ModeLexical, TopK: 5}, nil)
	assert.NoError(t, err)
}

func TestSearchNotReadyBeforeRebuild(t *testing.T) {
	e, err := NewEngine(&fakeSemantic{}, nil, DefaultEngineConfig(), nil)
	require.NoError(t, err)
	assert.False(t, e.Ready())

	_, err = e.Search(context.Background(), "fox")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotReady, apperrors.GetCode(err))
}

func TestSearchBlankQuery(t *testing.T) {
	e := readyEngine(t, &fakeSemantic{}, nil, DefaultEngineConfig())

	for _, q := range []string{"", "   ", "\t"} {
		_, err := e.Search(context.Background(), q)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	}
}

func TestSearchHybridMergesStreams(t *testing.T) {
	sem := &fakeSemantic{results: []store.CandidateResult{
		{DocID: "d2", Lang: "es", Text: "el zorro rapido", RawScore: 0.1},
		{DocID: "d3", Lang: "en", Text: "unrelated database text", RawScore: 0.8},
	}}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: 0.5})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.Warning)
	require.NotEmpty(t, resp.Results)

	ids := make(map[string]bool)
	for _, r := range resp.Results {
		ids[r.DocID] = true
	}
	// Lexical match and semantic hits all present after the outer join.
	assert.True(t, ids["d1"])
	assert.True(t, ids["d2"])
	assert.True(t, ids["d3"])
}

func TestSearchCandidateHeadroom(t *testing.T) {
	sem := &fakeSemantic{}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeHybrid, TopK: 7, Alpha: 0.5})

	_, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	assert.Equal(t, 7*CandidateMultiplier, sem.gotLimit)
}

func TestSearchLexicalModeSkipsSemantic(t *testing.T) {
	sem := &fakeSemantic{}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeLexical, TopK: 5})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	assert.Zero(t, sem.calls)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "d1", resp.Results[0].DocID)
}

func TestSearchSemanticMode(t *testing.T) {
	sem := &fakeSemantic{results: []store.CandidateResult{
		{DocID: "d2", Lang: "es", Text: "el zorro rapido", RawScore: 0.1},
		{DocID: "d1", Lang: "en", Text: "the quick brown fox", RawScore: 0.4},
	}}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeSemantic, TopK: 5})

	resp, err := e.Search(context.Background(), "zorro")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "d2", resp.Results[0].DocID, "closest vector ranks first")
	assert.Equal(t, 1, resp.Results[0].Rank)
}

func TestSearchSemanticModeErrorPropagates(t *testing.T) {
	sem := &fakeSemantic{err: apperrors.BackendError("backend down", nil)}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeSemantic, TopK: 5})

	_, err := e.Search(context.Background(), "zorro")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeBackendUnavailable, apperrors.GetCode(err))
}

func TestSearchHybridDegradesOnBackendFailure(t *testing.T) {
	sem := &fakeSemantic{err: apperrors.BackendError("backend down", nil)}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: 0.5})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.NotEmpty(t, resp.Warning)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "d1", resp.Results[0].DocID)

	// Degraded results are full-scale lexical scores, not half-weighted.
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-12)
}

func TestSearchHybridDegradesOnTimeout(t *testing.T) {
	sem := &fakeSemantic{delay: time.Second}
	e := readyEngine(t, sem, nil, EngineConfig{
		Mode: ModeHybrid, TopK: 5, Alpha: 0.5,
		SemanticTimeout: 20 * time.Millisecond,
	})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)
}

func TestSearchHybridNonRetryableErrorFails(t *testing.T) {
	sem := &fakeSemantic{err: apperrors.ValidationError("bad query vector", nil)}
	e := readyEngine(t, sem, nil, EngineConfig{Mode: ModeHybrid, TopK: 5, Alpha: 0.5})

	_, err := e.Search(context.Background(), "fox")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestSearchCallerCancellation(t *testing.T) {
	sem := &fakeSemantic{delay: time.Second}
	e := readyEngine(t, sem, nil, DefaultEngineConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled caller context is not a backend failure to absorb: the
	// semantic stream reports context.Canceled which is not retryable.
	_, err := e.Search(ctx, "fox")
	require.Error(t, err)
}

func TestSearchAttachesTranslations(t *testing.T) {
	docs := &fakeLookup{docs: map[string]store.Document{
		"d1": {DocID: "d1", Translation: "the quick brown fox"},
		"d2": {DocID: "d2", Translation: "the fast fox"},
	}}
	e := readyEngine(t, &fakeSemantic{}, docs, EngineConfig{Mode: ModeLexical, TopK: 5})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "the quick brown fox", resp.Results[0].Translation)
}

func TestSearchTranslationLookupFailureIsNonFatal(t *testing.T) {
	docs := &fakeLookup{err: apperrors.New(apperrors.ErrCodeCorpusStore, "db gone", nil)}
	e := readyEngine(t, &fakeSemantic{}, docs, EngineConfig{Mode: ModeLexical, TopK: 5})

	resp, err := e.Search(context.Background(), "fox")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Empty(t, resp.Results[0].Translation)
}

func TestRebuildSwapsIndex(t *testing.T) {
	e := readyEngine(t, &fakeSemantic{}, nil, EngineConfig{Mode: ModeLexical, TopK: 5})
	assert.Equal(t, 3, e.Stats().DocumentCount)

	newCorpus := []store.Document{
		{DocID: "n1", Lang: "en", Text: "completely new corpus"},
	}
	require.NoError(t, e.Rebuild(newCorpus, index.DefaultConfig()))
	assert.Equal(t, 1, e.Stats().DocumentCount)

	resp, err := e.Search(context.Background(), "corpus")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "n1", resp.Results[0].DocID)
}

func TestRebuildRejectsDuplicateIDs(t *testing.T) {
	e, err := NewEngine(&fakeSemantic{}, nil, DefaultEngineConfig(), nil)
	require.NoError(t, err)

	dup := []store.Document{
		{DocID: "x", Text: "one"},
		{DocID: "x", Text: "two"},
	}
	err = e.Rebuild(dup, index.DefaultConfig())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDuplicateDocID, apperrors.GetCode(err))
	assert.False(t, e.Ready(), "failed rebuild must not install an index")
}

func TestSearchTopKTruncation(t *testing.T) {
	corpus := make([]store.Document, 10)
	for i := range corpus {
		corpus[i] = store.Document{DocID: string(rune('a' + i)), Lang: "en", Text: "shared term filler"}
	}
	e, err := NewEngine(nil, nil, EngineConfig{Mode: ModeLexical, TopK: 3}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Rebuild(corpus, index.DefaultConfig()))

	resp, err := e.Search(context.Background(), "shared")
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
	}
}
