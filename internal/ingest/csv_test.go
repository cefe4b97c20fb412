package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
)

func TestReadCSVBasic(t *testing.T) {
	input := `doc_id,lang,text,en_translation
d1,en,The quick brown fox,The quick brown fox
d2,ur,تیز بھورا لومڑی,The swift brown fox
d3,es,El zorro marrón,`

	docs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "d1", docs[0].DocID)
	assert.Equal(t, "en", docs[0].Lang)
	assert.Equal(t, "The quick brown fox", docs[0].Text)
	assert.Equal(t, "The swift brown fox", docs[1].Translation)
	assert.Empty(t, docs[2].Translation)
}

func TestReadCSVColumnOrderFree(t *testing.T) {
	input := `text,doc_id,extra,lang
some document body,d1,ignored,en`

	docs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].DocID)
	assert.Equal(t, "some document body", docs[0].Text)
}

func TestReadCSVTranslationOptional(t *testing.T) {
	input := `doc_id,lang,text
d1,en,hello world`

	docs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Translation)
}

func TestReadCSVNormalizesWhitespace(t *testing.T) {
	input := "doc_id,lang,text\nd1,en,\"  multiple   spaces\t and\ntabs  \""

	docs, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "multiple spaces and tabs", docs[0].Text)
}

func TestReadCSVMissingColumn(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no doc_id", "lang,text\nen,body"},
		{"no lang", "doc_id,text\nd1,body"},
		{"no text", "doc_id,lang\nd1,en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.header))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetCode(err))
		})
	}
}

func TestReadCSVEmptyFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"blank doc_id", "doc_id,lang,text\n,en,body"},
		{"blank lang", "doc_id,lang,text\nd1,,body"},
		{"blank text", "doc_id,lang,text\nd1,en,"},
		{"whitespace-only text", "doc_id,lang,text\nd1,en,   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeMissingField, apperrors.GetCode(err))

			var re *apperrors.RetrievalError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "2", re.Details["row"])
		})
	}
}

func TestReadCSVDuplicateDocID(t *testing.T) {
	input := `doc_id,lang,text
d1,en,first body
d1,en,second body`

	_, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDuplicateDocID, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))

	// Header only, no rows.
	_, err = ReadCSV(strings.NewReader("doc_id,lang,text\n"))
	require.Error(t, err)
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	content := "doc_id,lang,text\nd1,en,from a file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	docs, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "from a file", docs[0].Text)
}

func TestReadCSVFileNotFound(t *testing.T) {
	_, err := ReadCSVFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, apperrors.GetCode(err))
}
