package termutil

import (
	"regexp"
	"strings"
)

// Base IRIs of well-known ontology namespaces
const (
	OBOBaseIRI       = "http://purl.obolibrary.org/obo/"
	BioPortalBaseIRI = "http://purl.bioontology.org/ontology/"
	OrphanetBaseIRI  = "http://www.orpha.net/ORDO/"
	EFOBaseIRI       = "http://www.ebi.ac.uk/efo/"
	SNOMEDBaseIRI    = "http://snomed.info/id/"
	IdentifiersIRI   = "http://identifiers.org/"
)

// OntologyIRIs maps ontology acronyms to the base IRI their own terms live under.
// Mapping against one of these restricts candidates to that namespace by default.
var OntologyIRIs = map[string]string{
	"EFO":      EFOBaseIRI,
	"Orphanet": OrphanetBaseIRI,
	"ORPHA":    OrphanetBaseIRI,
	"MONDO":    OBOBaseIRI,
	"HP":       OBOBaseIRI,
	"UBERON":   OBOBaseIRI,
	"GO":       OBOBaseIRI,
	"DOID":     OBOBaseIRI,
	"CHEBI":    OBOBaseIRI,
	"OMIT":     OBOBaseIRI,
	"NCIT":     OBOBaseIRI,
	"MAXO":     OBOBaseIRI,
	"DRON":     OBOBaseIRI,
	"OAE":      OBOBaseIRI,
	"CIDO":     OBOBaseIRI,
	"OMIM":     BioPortalBaseIRI + "OMIM/",
	"PATO":     OBOBaseIRI,
	"SNOMED":   SNOMEDBaseIRI,
}

// BaseIRIFor returns the default base IRI for acronym, matching case-insensitively
func BaseIRIFor(acronym string) (string, bool) {
	if iri, ok := OntologyIRIs[acronym]; ok {
		return iri, true
	}
	for k, iri := range OntologyIRIs {
		if strings.EqualFold(k, acronym) {
			return iri, true
		}
	}
	return "", false
}

// LabelFromIRI returns the fragment after '#', else the last path segment
func LabelFromIRI(iri string) string {
	if i := strings.Index(iri, "#"); i >= 0 {
		return iri[i+1:]
	}
	trimmed := strings.TrimRight(iri, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// oboStyleID matches local names such as MONDO_0004979 or NCBITaxon_9606
var oboStyleID = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9.]*)_([A-Za-z0-9][A-Za-z0-9_.\-]*)$`)

// CurieFromIRI derives a compact identifier such as EFO:0000270 from iri.
// Returns "" when iri is not in a recognised namespace and its local name
// does not follow the PREFIX_ID pattern.
func CurieFromIRI(iri string) string {
	switch {
	case strings.HasPrefix(iri, SNOMEDBaseIRI):
		return curie("SNOMEDCT", strings.TrimPrefix(iri, SNOMEDBaseIRI))
	case strings.HasPrefix(iri, BioPortalBaseIRI):
		// http://purl.bioontology.org/ontology/OMIM/612555
		rest := strings.TrimPrefix(iri, BioPortalBaseIRI)
		if prefix, id, ok := strings.Cut(rest, "/"); ok {
			return curie(prefix, id)
		}
		return ""
	case strings.HasPrefix(iri, IdentifiersIRI):
		// http://identifiers.org/taxonomy/9606 or http://identifiers.org/CHEBI:15377
		rest := strings.TrimPrefix(iri, IdentifiersIRI)
		if prefix, id, ok := strings.Cut(rest, "/"); ok {
			return curie(strings.ToUpper(prefix), id)
		}
		if prefix, id, ok := strings.Cut(rest, ":"); ok {
			return curie(prefix, id)
		}
		return ""
	}

	local := LabelFromIRI(iri)
	if m := oboStyleID.FindStringSubmatch(local); m != nil {
		return curie(m[1], m[2])
	}
	return ""
}

func curie(prefix, id string) string {
	if prefix == "" || id == "" || strings.ContainsAny(id, "/#") {
		return ""
	}
	return prefix + ":" + id
}
