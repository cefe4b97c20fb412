// Package index provides the in-memory BM25 lexical index. An index is
// built once from a corpus snapshot and is read-only afterwards: the query
// path is safe for unbounded concurrent readers, and a rebuild installs a
// fresh instance instead of mutating the old one.
package index

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/store"
	"github.com/hayatlabs/multiret/internal/textnorm"
)

// Default BM25 free parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Config holds the BM25 free parameters.
type Config struct {
	// K1 is the term frequency saturation parameter.
	K1 float64

	// B is the document length normalization parameter.
	B float64
}

// DefaultConfig returns the standard BM25 parameters.
func DefaultConfig() Config {
	return Config{K1: DefaultK1, B: DefaultB}
}

// docEntry caches the tokenized form of one document.
type docEntry struct {
	id       string
	lang     string
	text     string
	termFreq map[string]int
	length   int
}

// BM25 is an immutable term-frequency ranker over a corpus snapshot.
type BM25 struct {
	cfg   Config
	docs  []docEntry
	df    map[string]int // term -> number of documents containing it
	avgdl float64
}

// New builds a BM25 index from a corpus. Documents are tokenized once at
// build time; the corpus may be empty (every query then yields an empty
// candidate set). A duplicate doc_id fails the build with a validation
// error.
func New(corpus []store.Document, cfg Config) (*BM25, error) {
	if cfg.K1 <= 0 {
		cfg.K1 = DefaultK1
	}
	if cfg.B < 0 || cfg.B > 1 {
		cfg.B = DefaultB
	}

	idx := &BM25{
		cfg:  cfg,
		docs: make([]docEntry, 0, len(corpus)),
		df:   make(map[string]int),
	}

	seen := make(map[string]struct{}, len(corpus))
	totalLength := 0

	for _, doc := range corpus {
		if _, dup := seen[doc.DocID]; dup {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateDocID,
				fmt.Sprintf("duplicate doc_id %q in corpus", doc.DocID), nil).
				WithDetail("doc_id", doc.DocID)
		}
		seen[doc.DocID] = struct{}{}

		tokens := textnorm.Tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			idx.df[term]++
		}

		idx.docs = append(idx.docs, docEntry{
			id:       doc.DocID,
			lang:     doc.Lang,
			text:     doc.Text,
			termFreq: tf,
			length:   len(tokens),
		})
		totalLength += len(tokens)
	}

	if len(idx.docs) > 0 {
		idx.avgdl = float64(totalLength) / float64(len(idx.docs))
	}

	return idx, nil
}

// Score computes the BM25 score of every corpus document for the query and
// returns one CandidateResult per document in corpus order, zero scores
// included. The caller selects top candidates; Score never truncates.
func (b *BM25) Score(query string) []store.CandidateResult {
	terms := textnorm.Tokenize(query)

	// IDF per query term, shared across documents.
	idf := make(map[string]float64, len(terms))
	n := float64(len(b.docs))
	for _, t := range terms {
		if _, done := idf[t]; done {
			continue
		}
		nt := float64(b.df[t])
		idf[t] = math.Log(1 + (n-nt+0.5)/(nt+0.5))
	}

	results := make([]store.CandidateResult, len(b.docs))
	for i, doc := range b.docs {
		var score float64
		if doc.length > 0 {
			norm := b.cfg.K1 * (1 - b.cfg.B + b.cfg.B*float64(doc.length)/b.avgdl)
			for _, t := range terms {
				f := float64(doc.termFreq[t])
				if f == 0 {
					continue
				}
				score += idf[t] * (f * (b.cfg.K1 + 1)) / (f + norm)
			}
		}
		results[i] = store.CandidateResult{
			DocID:    doc.id,
			Lang:     doc.lang,
			Text:     doc.text,
			RawScore: score,
		}
	}

	return results
}

// SearchTopN scores the query and returns the first n candidates sorted by
// score descending, ties broken by ascending doc_id for determinism.
func (b *BM25) SearchTopN(query string, n int) []store.CandidateResult {
	results := b.Score(query)

	sort.Slice(results, func(i, j int) bool {
		if results[i].RawScore != results[j].RawScore {
			return results[i].RawScore > results[j].RawScore
		}
		return results[i].DocID < results[j].DocID
	})

	if n >= 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

// Stats describes a built index.
type Stats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// Stats returns index statistics.
func (b *BM25) Stats() Stats {
	return Stats{
		DocumentCount: len(b.docs),
		TermCount:     len(b.df),
		AvgDocLength:  b.avgdl,
	}
}
