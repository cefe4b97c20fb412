package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hayatlabs/multiret/internal/search"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("word ", 100)
	got := Preview(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), PreviewLength+1)

	// Rune-aware: multibyte text is not cut mid-character.
	arabic := strings.Repeat("مرحبا ", 60)
	assert.True(t, strings.HasSuffix(Preview(arabic), "…"))
}

func TestResultsTable(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Results([]search.ScoredResult{
		{Rank: 1, Score: 0.9123, DocID: "d2", Lang: "ur", Text: "پہلی دستاویز", Translation: "the first document"},
		{Rank: 2, Score: 0.5, DocID: "d1", Lang: "en", Text: "second best"},
	})

	out := buf.String()
	assert.Contains(t, out, "0.9123")
	assert.Contains(t, out, "d2 (ur)")
	assert.Contains(t, out, "the first document")
	assert.Contains(t, out, "top result (d2)")
}

func TestResultsEmpty(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Results(nil)
	assert.Contains(t, buf.String(), "no results")
}

func TestStatusMessages(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("indexed")
	w.Warning("degraded")
	w.Errorf("failed: %s", "boom")

	out := buf.String()
	assert.Contains(t, out, "indexed")
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "failed: boom")
}
