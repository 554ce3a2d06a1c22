package mapper

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/termutil"
)

// DefaultBioPortalOntologies are searched when no target acronyms are given
var DefaultBioPortalOntologies = []string{"EFO", "NCIT"}

// ErrMissingAPIKey is logged when the BioPortal mapper runs without a key
var ErrMissingAPIKey = errors.WithHint(
	errors.New("BioPortal API key is not set"),
	"pass --bioportal-apikey or set ONTOMAP_BIOPORTAL_API_KEY",
)

// matchTypeWeights scales a BioPortal annotation by how it matched
var matchTypeWeights = map[string]float64{
	"PREF": 1.0,
	"SYN":  0.9,
}

const otherMatchWeight = 0.7

// bioPortalAnnotation is one element of the /annotator response
type bioPortalAnnotation struct {
	AnnotatedClass struct {
		ID        string `json:"@id"`
		PrefLabel string `json:"prefLabel"`
	} `json:"annotatedClass"`
	Annotations []struct {
		From      int    `json:"from"`
		To        int    `json:"to"`
		MatchType string `json:"matchType"`
		Text      string `json:"text"`
	} `json:"annotations"`
}

type bioPortalMapper struct {
	baseURL    string
	apiKey     string
	ontologies []string
	requester  *httpclient.Requester
	logger     *zap.SugaredLogger
}

func newBioPortalMapper(deps Deps) *bioPortalMapper {
	ontologies := make([]string, 0, len(deps.Ontologies))
	for _, o := range lowerAll(deps.Ontologies) {
		ontologies = append(ontologies, strings.ToUpper(o))
	}
	if len(ontologies) == 0 {
		ontologies = DefaultBioPortalOntologies
	}
	return &bioPortalMapper{
		baseURL:    strings.TrimRight(deps.BioPortalURL, "/"),
		apiKey:     deps.BioPortalAPIKey,
		ontologies: ontologies,
		requester:  deps.Requester,
		logger:     logger.ComponentLogger("bioportal"),
	}
}

func (m *bioPortalMapper) Kind() Kind { return BioPortal }

func (m *bioPortalMapper) Map(ctx context.Context, terms []SourceTerm, maxMappings int) ([]Candidate, error) {
	if m.apiKey == "" {
		m.logger.Errorw("Cannot map without an API key",
			logger.FieldError, ErrMissingAPIKey,
			"hint", errors.FlattenHints(ErrMissingAPIKey),
		)
		return nil, nil
	}

	var out []Candidate
	for _, src := range terms {
		text := strings.TrimSpace(src.Term)
		if text == "" {
			continue
		}
		var annotations []bioPortalAnnotation
		query := url.Values{
			"text":            {text},
			"ontologies":      {strings.Join(m.ontologies, ",")},
			"longest_only":    {"true"},
			"whole_word_only": {"true"},
			"include":         {"prefLabel"},
			"apikey":          {m.apiKey},
		}
		if err := m.requester.GetJSON(ctx, m.baseURL+"/annotator", query, &annotations); err != nil {
			return nil, errors.Wrapf(err, "bioportal annotate %q", text)
		}

		textLen := utf8.RuneCountInString(text)
		var scored []Candidate
		for _, a := range annotations {
			best := 0.0
			for _, span := range a.Annotations {
				if s := spanScore(span.MatchType, span.From, span.To, textLen); s > best {
					best = s
				}
			}
			iri := a.AnnotatedClass.ID
			label := a.AnnotatedClass.PrefLabel
			if label == "" {
				label = termutil.LabelFromIRI(iri)
			}
			scored = append(scored, Candidate{
				SourceID: src.ID,
				IRI:      iri,
				Label:    label,
				CURIE:    termutil.CurieFromIRI(iri),
				Score:    best,
			})
		}
		ranked := rank(bestByIRI(scored), maxMappings)
		m.logger.Debugw("Annotated term",
			logger.FieldQuery, text,
			"annotations", len(annotations),
			logger.FieldCount, len(ranked),
		)
		out = append(out, ranked...)
	}
	return out, nil
}

// spanScore weighs a 1-based inclusive [from,to] span by match type and the
// share of the source text it covers.
func spanScore(matchType string, from, to, textLen int) float64 {
	if textLen == 0 || to < from {
		return 0
	}
	weight, ok := matchTypeWeights[strings.ToUpper(matchType)]
	if !ok {
		weight = otherMatchWeight
	}
	coverage := float64(to-from+1) / float64(textLen)
	if coverage > 1 {
		coverage = 1
	}
	return weight * coverage
}
