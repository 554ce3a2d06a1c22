// Package ontology parses ontology sources and collects their terms into
// filtered, IRI-deduplicated collections for mapping.
package ontology

import (
	"strings"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/termutil"
)

// TermType is the kind of ontology entity a term represents
type TermType string

const (
	TermClass      TermType = "class"
	TermProperty   TermType = "property"
	TermIndividual TermType = "individual"
	// TermAny is a filter value only; no term carries it
	TermAny TermType = "any"
)

// ParseTermType converts a user-supplied type name. Empty means TermAny.
func ParseTermType(s string) (TermType, error) {
	switch TermType(strings.ToLower(strings.TrimSpace(s))) {
	case TermClass:
		return TermClass, nil
	case TermProperty:
		return TermProperty, nil
	case TermIndividual:
		return TermIndividual, nil
	case TermAny, "":
		return TermAny, nil
	}
	return "", errors.NewInvalidRequestError("unknown term type %q (want class, property, individual or any)", s)
}

// Term is one ontology entity with the text used for matching and its named neighbours.
// Neighbour maps go from IRI to label.
type Term struct {
	IRI          string              `json:"iri"`
	Labels       []string            `json:"labels"`
	Synonyms     []string            `json:"synonyms,omitempty"`
	Definitions  []string            `json:"definitions,omitempty"`
	Parents      map[string]string   `json:"parents,omitempty"`
	Children     map[string]string   `json:"children,omitempty"`
	Instances    map[string]string   `json:"instances,omitempty"`
	Restrictions map[string][]string `json:"restrictions,omitempty"`
	Type         TermType            `json:"type"`
	Deprecated   bool                `json:"deprecated,omitempty"`
}

// Label returns the preferred label, falling back to the IRI local name
func (t *Term) Label() string {
	if len(t.Labels) > 0 {
		return t.Labels[0]
	}
	return termutil.LabelFromIRI(t.IRI)
}

// CURIE returns the compact identifier for the term, or "" when none can be derived
func (t *Term) CURIE() string {
	return termutil.CurieFromIRI(t.IRI)
}

// MatchTexts returns labels followed by synonyms, the strings a mapper compares against
func (t *Term) MatchTexts() []string {
	texts := make([]string, 0, len(t.Labels)+len(t.Synonyms))
	texts = append(texts, t.Labels...)
	texts = append(texts, t.Synonyms...)
	return texts
}

// Format identifies an ontology serialization
type Format string

const (
	FormatRDFXML   Format = "rdfxml"
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatOBO      Format = "obo"
)

// Ontology is a parsed ontology source with its terms in document order
type Ontology struct {
	IRI        string   `json:"iri,omitempty"`
	VersionIRI string   `json:"version_iri,omitempty"`
	Version    string   `json:"version,omitempty"`
	Format     Format   `json:"format"`
	Terms      []*Term  `json:"terms"`
	Imports    []string `json:"imports,omitempty"`
}

// Well-known vocabulary IRIs
const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
	owlNS  = "http://www.w3.org/2002/07/owl#"
	skosNS = "http://www.w3.org/2004/02/skos/core#"
	oboNS  = "http://www.geneontology.org/formats/oboInOwl#"

	owlThing   = owlNS + "Thing"
	owlNothing = owlNS + "Nothing"
)

func isTopOrBottom(iri string) bool {
	return iri == owlThing || iri == owlNothing
}
