package ontology

import (
	"strings"

	"github.com/teranos/ontomap/termutil"
)

// FromLabels builds an ad-hoc ontology with one class per non-blank label,
// each under a freshly generated IRI. Mapping against it ranks free text
// against an arbitrary word list.
func FromLabels(labels []string) *Ontology {
	ont := &Ontology{
		IRI:    termutil.BaseIRI + "Ontology-" + termutil.ShortID(),
		Format: FormatRDFXML,
	}
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		ont.Terms = append(ont.Terms, &Term{
			IRI:    termutil.GenerateIRI(),
			Labels: []string{label},
			Type:   TermClass,
		})
	}
	return ont
}
