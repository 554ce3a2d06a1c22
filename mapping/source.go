package mapping

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/preprocess"
	"github.com/teranos/ontomap/termutil"
)

// TableOptions selects columns from a CSV or TSV source file
type TableOptions struct {
	TermColumn string // Header of the term column; empty uses the first column
	IDColumn   string // Header of the id column; empty generates ids
	Separator  rune   // Zero picks ',' or '\t' from the file extension
}

// SourceFromList builds source terms from strings. ids may be nil; when given
// it must have one entry per term. Blank ids are generated.
func SourceFromList(terms, ids []string) ([]mapper.SourceTerm, error) {
	if ids != nil && len(ids) != len(terms) {
		return nil, errors.NewInvalidRequestError("got %d ids for %d terms", len(ids), len(terms))
	}
	out := make([]mapper.SourceTerm, len(terms))
	for i, term := range terms {
		out[i].Term = term
		if ids != nil {
			out[i].ID = strings.TrimSpace(ids[i])
		}
	}
	return EnsureIDs(out), nil
}

// SplitList splits a comma-separated list, dropping blank entries
func SplitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SourceFromTagged converts preprocessed tagged terms
func SourceFromTagged(tagged []preprocess.TaggedTerm) []mapper.SourceTerm {
	out := make([]mapper.SourceTerm, len(tagged))
	for i, tt := range tagged {
		out[i] = mapper.SourceTerm{Term: tt.Term, Tags: tt.Tags}
	}
	return EnsureIDs(out)
}

// EnsureIDs fills blank ids with generated IRIs
func EnsureIDs(terms []mapper.SourceTerm) []mapper.SourceTerm {
	for i := range terms {
		if terms[i].ID == "" {
			terms[i].ID = termutil.GenerateIRI()
		}
	}
	return terms
}

// ReadSource reads a source file: .csv and .tsv as tables, anything else as one term per line
func ReadSource(path string, table TableOptions) ([]mapper.SourceTerm, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return ReadSourceTable(path, table)
	}
	return ReadSourceList(path)
}

// ReadSourceList reads one term per line
func ReadSourceList(path string) ([]mapper.SourceTerm, error) {
	lines, err := preprocess.ReadLines(path)
	if err != nil {
		return nil, err
	}
	return SourceFromList(lines, nil)
}

// ReadSourceTable reads terms, and optionally ids, from a delimited file with a header row
func ReadSourceTable(path string, opts TableOptions) ([]mapper.SourceTerm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sep := opts.Separator
	if sep == 0 {
		sep = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			sep = '\t'
		}
	}
	reader := csv.NewReader(f)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewInvalidRequestError("%s is empty", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	termCol := 0
	if opts.TermColumn != "" {
		if termCol = columnIndex(header, opts.TermColumn); termCol < 0 {
			return nil, errors.NewInvalidRequestError("%s has no column %q", path, opts.TermColumn)
		}
	}
	idCol := -1
	if opts.IDColumn != "" {
		// ids are optional, so a missing id column falls back to generated ones
		if idCol = columnIndex(header, opts.IDColumn); idCol < 0 {
			logger.Warnw("Id column not found, generating source term ids",
				logger.FieldPath, path,
				"column", opts.IDColumn,
			)
		}
	}

	var terms []mapper.SourceTerm
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		term := cell(record, termCol)
		if term == "" {
			continue
		}
		terms = append(terms, mapper.SourceTerm{ID: cell(record, idCol), Term: term})
	}
	return EnsureIDs(terms), nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
