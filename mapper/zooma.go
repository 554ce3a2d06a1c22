package mapper

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/termutil"
)

// DefaultZoomaOntologies are searched when no target acronyms are given
var DefaultZoomaOntologies = []string{"efo", "ncit"}

// zoomaConfidence converts Zooma confidence levels to scores
var zoomaConfidence = map[string]float64{
	"HIGH":   1.0,
	"GOOD":   0.75,
	"MEDIUM": 0.5,
	"LOW":    0.25,
}

// zoomaAnnotation is one element of the /services/annotate response
type zoomaAnnotation struct {
	SemanticTags      []string `json:"semanticTags"`
	Confidence        string   `json:"confidence"`
	AnnotatedProperty struct {
		PropertyType  string `json:"propertyType"`
		PropertyValue string `json:"propertyValue"`
	} `json:"annotatedProperty"`
}

type zoomaMapper struct {
	baseURL    string
	ontologies []string
	requester  *httpclient.Requester
	logger     *zap.SugaredLogger
}

func newZoomaMapper(deps Deps) *zoomaMapper {
	ontologies := lowerAll(deps.Ontologies)
	if len(ontologies) == 0 {
		ontologies = DefaultZoomaOntologies
	}
	return &zoomaMapper{
		baseURL:    strings.TrimRight(deps.ZoomaURL, "/"),
		ontologies: ontologies,
		requester:  deps.Requester,
		logger:     logger.ComponentLogger("zooma"),
	}
}

func (m *zoomaMapper) Kind() Kind { return Zooma }

func (m *zoomaMapper) Map(ctx context.Context, terms []SourceTerm, maxMappings int) ([]Candidate, error) {
	filter := "required:[none],ontologies:[" + strings.Join(m.ontologies, ",") + "]"
	var out []Candidate
	for _, src := range terms {
		if strings.TrimSpace(src.Term) == "" {
			continue
		}
		var annotations []zoomaAnnotation
		query := url.Values{
			"propertyValue": {src.Term},
			"filter":        {filter},
		}
		if err := m.requester.GetJSON(ctx, m.baseURL+"/services/annotate", query, &annotations); err != nil {
			return nil, errors.Wrapf(err, "zooma annotate %q", src.Term)
		}

		var scored []Candidate
		for _, a := range annotations {
			score := zoomaConfidence[strings.ToUpper(a.Confidence)]
			for _, iri := range a.SemanticTags {
				scored = append(scored, Candidate{
					SourceID: src.ID,
					IRI:      iri,
					Label:    a.AnnotatedProperty.PropertyValue,
					CURIE:    termutil.CurieFromIRI(iri),
					Score:    score,
				})
			}
		}
		ranked := rank(bestByIRI(scored), maxMappings)
		m.logger.Debugw("Annotated term",
			logger.FieldQuery, src.Term,
			"annotations", len(annotations),
			logger.FieldCount, len(ranked),
		)
		out = append(out, ranked...)
	}
	return out, nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
