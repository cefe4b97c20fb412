package search

import (
	"sort"

	"github.com/hayatlabs/multiret/internal/store"
)

// Fuser combines lexical and semantic candidate streams into a single
// ranked list.
//
// Each stream is normalized against its own maximum:
//
//	lex_norm = score / max(scores)        (BM25, higher is better)
//	sem_norm = 1 - distance / max(dists)  (distance, lower is better)
//
// An empty stream, or one whose maximum is zero, normalizes to all zeros
// rather than erroring. Division is always by the maximum so a stream with
// uniform raw scores keeps its candidates instead of degenerating.
//
// The streams are outer-joined on doc_id:
//
//	hybrid = alpha*sem_norm + (1-alpha)*lex_norm
//
// with 0 for the side that did not return the document.
type Fuser struct {
	// Alpha is the semantic weight in [0, 1].
	Alpha float64
}

// NewFuser creates a fuser with the given semantic weight.
func NewFuser(alpha float64) *Fuser {
	return &Fuser{Alpha: alpha}
}

// fusedEntry accumulates one document's contributions during the join.
type fusedEntry struct {
	doc      store.CandidateResult
	lexScore float64
	semScore float64
}

// Fuse joins the two candidate streams and returns the top k fused results
// sorted by hybrid score descending, ties broken by ascending doc_id.
// Ranks are assigned after truncation, starting at 1.
func (f *Fuser) Fuse(lexical, semantic []store.CandidateResult, topK int) []ScoredResult {
	lexNorm := normalizeLexical(lexical)
	semNorm := normalizeSemantic(semantic)

	entries := make(map[string]*fusedEntry, len(lexical)+len(semantic))

	for i, c := range lexical {
		entries[c.DocID] = &fusedEntry{doc: c, lexScore: lexNorm[i]}
	}
	for i, c := range semantic {
		e, ok := entries[c.DocID]
		if !ok {
			e = &fusedEntry{}
			entries[c.DocID] = e
		}
		// The semantic copy wins for display fields when both streams
		// carry the document.
		e.doc = c
		e.semScore = semNorm[i]
	}

	results := make([]ScoredResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, ScoredResult{
			Score:    f.Alpha*e.semScore + (1-f.Alpha)*e.lexScore,
			LexScore: e.lexScore,
			SemScore: e.semScore,
			DocID:    e.doc.DocID,
			Lang:     e.doc.Lang,
			Text:     e.doc.Text,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	return results
}

// normalizeLexical maps BM25 scores into [0, 1] by dividing by the
// maximum. All-zero (or empty) input yields all zeros.
func normalizeLexical(candidates []store.CandidateResult) []float64 {
	norm := make([]float64, len(candidates))
	var max float64
	for _, c := range candidates {
		if c.RawScore > max {
			max = c.RawScore
		}
	}
	if max <= 0 {
		return norm
	}
	for i, c := range candidates {
		norm[i] = c.RawScore / max
	}
	return norm
}

// normalizeSemantic maps distances into [0, 1] similarity by inverting
// against the maximum distance: the farthest candidate scores 0, identical
// vectors score 1. All-zero (or empty) input yields all zeros.
func normalizeSemantic(candidates []store.CandidateResult) []float64 {
	norm := make([]float64, len(candidates))
	var max float64
	for _, c := range candidates {
		if c.RawScore > max {
			max = c.RawScore
		}
	}
	if max <= 0 {
		return norm
	}
	for i, c := range candidates {
		norm[i] = 1 - c.RawScore/max
	}
	return norm
}
