// Package ingest loads corpus documents from CSV files. The expected
// columns are doc_id, lang and text, with an optional en_translation
// column; column order is free and extra columns are ignored.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/hayatlabs/multiret/internal/errors"
	"github.com/hayatlabs/multiret/internal/store"
	"github.com/hayatlabs/multiret/internal/textnorm"
)

// CSV column names.
const (
	ColumnDocID       = "doc_id"
	ColumnLang        = "lang"
	ColumnText        = "text"
	ColumnTranslation = "en_translation"
)

// ReadCSVFile opens path and reads it as a corpus CSV.
func ReadCSVFile(path string) ([]store.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFileNotFound,
			fmt.Sprintf("cannot open corpus file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	docs, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// ReadCSV parses corpus documents from r. Text and translation fields are
// whitespace-normalized; a blank doc_id, lang or text fails the whole read
// with the offending row number, as does a doc_id seen twice.
func ReadCSV(r io.Reader) ([]store.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // validated against the header below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.ValidationError("corpus file is empty", nil)
	}
	if err != nil {
		return nil, apperrors.ValidationError("cannot parse corpus header", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var docs []store.Document
	seen := make(map[string]int)
	row := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, apperrors.ValidationError(
				fmt.Sprintf("cannot parse row %d", row), err)
		}
		if len(record) <= cols.maxIndex() {
			return nil, apperrors.ValidationError(
				fmt.Sprintf("row %d has %d columns, expected at least %d",
					row, len(record), cols.maxIndex()+1), nil)
		}

		doc := store.Document{
			DocID: strings.TrimSpace(record[cols.docID]),
			Lang:  strings.TrimSpace(record[cols.lang]),
			Text:  textnorm.Normalize(record[cols.text]),
		}
		if cols.translation >= 0 {
			doc.Translation = textnorm.Normalize(record[cols.translation])
		}

		if doc.DocID == "" {
			return nil, missingField(ColumnDocID, row)
		}
		if doc.Lang == "" {
			return nil, missingField(ColumnLang, row)
		}
		if doc.Text == "" {
			return nil, missingField(ColumnText, row)
		}
		if firstRow, dup := seen[doc.DocID]; dup {
			return nil, apperrors.New(apperrors.ErrCodeDuplicateDocID,
				fmt.Sprintf("doc_id %q on row %d already used on row %d",
					doc.DocID, row, firstRow), nil).
				WithDetail("doc_id", doc.DocID)
		}
		seen[doc.DocID] = row

		docs = append(docs, doc)
	}

	if len(docs) == 0 {
		return nil, apperrors.ValidationError("corpus file has no documents", nil)
	}
	return docs, nil
}

// columnMap holds resolved header indices. translation is -1 when absent.
type columnMap struct {
	docID       int
	lang        int
	text        int
	translation int
}

func (c columnMap) maxIndex() int {
	max := c.docID
	for _, i := range []int{c.lang, c.text, c.translation} {
		if i > max {
			max = i
		}
	}
	return max
}

func resolveColumns(header []string) (columnMap, error) {
	cols := columnMap{docID: -1, lang: -1, text: -1, translation: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnDocID:
			cols.docID = i
		case ColumnLang:
			cols.lang = i
		case ColumnText:
			cols.text = i
		case ColumnTranslation:
			cols.translation = i
		}
	}

	for _, required := range []struct {
		name  string
		index int
	}{
		{ColumnDocID, cols.docID},
		{ColumnLang, cols.lang},
		{ColumnText, cols.text},
	} {
		if required.index < 0 {
			return cols, apperrors.New(apperrors.ErrCodeMissingField,
				fmt.Sprintf("corpus file is missing required column %q", required.name), nil)
		}
	}
	return cols, nil
}

func missingField(column string, row int) error {
	return apperrors.New(apperrors.ErrCodeMissingField,
		fmt.Sprintf("row %d has an empty %s", row, column), nil).
		WithDetail("row", strconv.Itoa(row))
}
