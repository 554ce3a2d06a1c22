package mapping

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/ontology"
)

// UnmappedTag marks rows for source terms that received no mapping
const UnmappedTag = "unmapped"

// Columns is the header of mapping tables, in output order
var Columns = []string{
	"Source Term ID",
	"Source Term",
	"Mapped Term Label",
	"Mapped Term CURIE",
	"Mapped Term IRI",
	"Mapping Score",
	"Tags",
}

// Mapping is one row of a mapping result
type Mapping struct {
	SourceTermID    string   `json:"source_term_id"`
	SourceTerm      string   `json:"source_term"`
	MappedTermLabel string   `json:"mapped_term_label,omitempty"`
	MappedTermCURIE string   `json:"mapped_term_curie,omitempty"`
	MappedTermIRI   string   `json:"mapped_term_iri,omitempty"`
	MappingScore    float64  `json:"mapping_score"`
	Tags            []string `json:"tags,omitempty"`
}

// Unmapped reports whether the row carries no target term
func (m Mapping) Unmapped() bool {
	return m.MappedTermIRI == ""
}

// Record renders the row in Columns order
func (m Mapping) Record(tagSep string) []string {
	score := ""
	if !m.Unmapped() {
		score = strconv.FormatFloat(m.MappingScore, 'f', -1, 64)
	}
	return []string{
		m.SourceTermID,
		m.SourceTerm,
		m.MappedTermLabel,
		m.MappedTermCURIE,
		m.MappedTermIRI,
		score,
		strings.Join(m.Tags, tagSep),
	}
}

// Result is the outcome of a mapping run
type Result struct {
	RunID    string                `json:"run_id"`
	Mapper   mapper.Kind           `json:"mapper"`
	Target   string                `json:"target"`
	Mappings []Mapping             `json:"mappings"`
	Graphs   []*ontology.TermGraph `json:"-"`
}

// MappedCount returns how many distinct source terms have a mapping
func (r *Result) MappedCount() int {
	seen := make(map[string]bool)
	for _, m := range r.Mappings {
		if !m.Unmapped() {
			seen[m.SourceTermID] = true
		}
	}
	return len(seen)
}

// Rows renders every mapping in Columns order, tags joined with ","
func (r *Result) Rows() [][]string {
	rows := make([][]string, len(r.Mappings))
	for i, m := range r.Mappings {
		rows[i] = m.Record(",")
	}
	return rows
}

// WriteCSV writes a header row and one row per mapping, fields separated by sep.
// Tags are joined with ",".
func (r *Result) WriteCSV(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, m := range r.Mappings {
		if err := cw.Write(m.Record(",")); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the mappings as an indented JSON array
func (r *Result) WriteJSON(w io.Writer) error {
	mappings := r.Mappings
	if mappings == nil {
		mappings = []Mapping{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(mappings)
}

// WriteGraphs writes term graphs as an indented JSON array
func WriteGraphs(w io.Writer, graphs []*ontology.TermGraph) error {
	if graphs == nil {
		graphs = []*ontology.TermGraph{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(graphs)
}
