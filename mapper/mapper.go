// Package mapper ranks ontology terms against free-text source terms.
//
// Every strategy implements Mapper: syntactic string metrics and TF-IDF score
// a local term collection, while zooma and bioportal delegate to remote
// annotation services.
package mapper

import (
	"context"
	"sort"
	"strings"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/internal/util"
	"github.com/teranos/ontomap/ontology"
)

// Kind names a mapping strategy
type Kind string

const (
	Levenshtein Kind = "levenshtein"
	Jaro        Kind = "jaro"
	JaroWinkler Kind = "jarowinkler"
	Jaccard     Kind = "jaccard"
	Indel       Kind = "indel"
	Fuzzy       Kind = "fuzzy"
	Soundex     Kind = "soundex"
	TFIDF       Kind = "tfidf"
	Zooma       Kind = "zooma"
	BioPortal   Kind = "bioportal"
)

// Kinds lists every supported strategy
var Kinds = []Kind{Levenshtein, Jaro, JaroWinkler, Jaccard, Indel, Fuzzy, Soundex, TFIDF, Zooma, BioPortal}

// ParseKind converts a user-supplied mapper name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.WithHint(
		errors.NewInvalidRequestError("unknown mapper %q", s),
		"use one of levenshtein, jaro, jarowinkler, jaccard, indel, fuzzy, soundex, tfidf, zooma, bioportal",
	)
}

// Remote reports whether the strategy queries a web service instead of a local collection
func (k Kind) Remote() bool {
	return k == Zooma || k == BioPortal
}

// SourceTerm is one input string to be mapped
type SourceTerm struct {
	ID   string   `json:"id"`
	Term string   `json:"term"`
	Tags []string `json:"tags,omitempty"`
}

// Candidate is one ranked target term for a source term
type Candidate struct {
	SourceID string  `json:"source_id"`
	IRI      string  `json:"iri"`
	Label    string  `json:"label"`
	CURIE    string  `json:"curie"`
	Score    float64 `json:"score"`
}

// Mapper ranks target terms for each source term.
// Candidates come back grouped in source term order, each group sorted by
// descending score and truncated to maxMappings (0 keeps all).
type Mapper interface {
	Kind() Kind
	Map(ctx context.Context, terms []SourceTerm, maxMappings int) ([]Candidate, error)
}

// Deps carries what the strategies need. Local strategies use Collection;
// remote ones use Requester and the target ontology acronyms.
type Deps struct {
	Collection      *ontology.Collection
	Requester       *httpclient.Requester
	Ontologies      []string
	ZoomaURL        string
	BioPortalURL    string
	BioPortalAPIKey string
}

// New builds the mapper for kind
func New(kind Kind, deps Deps) (Mapper, error) {
	if kind.Remote() {
		if deps.Requester == nil {
			return nil, errors.NewInvalidRequestError("%s mapper needs an HTTP requester", kind)
		}
		if kind == Zooma {
			return newZoomaMapper(deps), nil
		}
		return newBioPortalMapper(deps), nil
	}

	if deps.Collection == nil {
		return nil, errors.NewInvalidRequestError("%s mapper needs a term collection", kind)
	}
	switch kind {
	case TFIDF:
		return newTFIDFMapper(deps.Collection), nil
	case Levenshtein, Jaro, JaroWinkler, Jaccard, Indel, Fuzzy, Soundex:
		return newSyntacticMapper(kind, deps.Collection), nil
	}
	_, err := ParseKind(string(kind))
	return nil, err
}

// rank rounds scores to three decimals, drops non-positive ones, sorts by
// descending score then ascending IRI, and keeps the best max.
func rank(candidates []Candidate, max int) []Candidate {
	kept := candidates[:0]
	for _, c := range candidates {
		c.Score = util.Round(util.Clamp01(c.Score), 3)
		if c.Score > 0 {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].IRI < kept[j].IRI
	})
	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

// bestByIRI keeps the highest score seen per IRI, preserving first-seen order
func bestByIRI(candidates []Candidate) []Candidate {
	index := make(map[string]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if i, ok := index[c.IRI]; ok {
			if c.Score > out[i].Score {
				out[i] = c
			}
			continue
		}
		index[c.IRI] = len(out)
		out = append(out, c)
	}
	return out
}
