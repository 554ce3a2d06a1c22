package ontology

import (
	"io"
	"sort"
	"strings"

	"github.com/knakk/rdf"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/termutil"
)

// rdfFormats are the serializations read with the knakk/rdf decoders.
// RDF/XML goes through decodeRDFXML, which handles nested node elements.
var rdfFormats = map[Format]rdf.Format{
	FormatTurtle:   rdf.Turtle,
	FormatNTriples: rdf.NTriples,
}

// Predicates whose literal objects become labels, synonyms and definitions
var (
	labelPredicates = map[string]bool{
		rdfsNS + "label":     true,
		skosNS + "prefLabel": true,
	}
	synonymPredicates = map[string]bool{
		oboNS + "hasExactSynonym":                true,
		oboNS + "hasRelatedSynonym":              true,
		oboNS + "hasNarrowSynonym":               true,
		oboNS + "hasBroadSynonym":                true,
		termutil.OBOBaseIRI + "IAO_0000118":      true, // alternative term
		termutil.EFOBaseIRI + "alternative_term": true,
		skosNS + "altLabel":                      true,
	}
	definitionPredicates = map[string]bool{
		termutil.OBOBaseIRI + "IAO_0000115": true,
		skosNS + "definition":               true,
	}
)

// Declared rdf:type values mapped to the term type they introduce
var declaredTypes = map[string]TermType{
	owlNS + "Class":              TermClass,
	rdfsNS + "Class":             TermClass,
	owlNS + "ObjectProperty":     TermProperty,
	owlNS + "DatatypeProperty":   TermProperty,
	owlNS + "AnnotationProperty": TermProperty,
	rdfNS + "Property":           TermProperty,
	owlNS + "NamedIndividual":    TermIndividual,
}

// subjectRecord accumulates everything said about one named subject
type subjectRecord struct {
	types        []string
	labels       []string
	synonyms     []string
	definitions  []string
	parents      []string
	restrictions []string // blank node ids of anonymous superclasses
	deprecated   bool
	versionIRI   string
	versionInfo  string
	imports      []string
}

// rdfBuilder turns a triple stream into terms
type rdfBuilder struct {
	order    []string
	subjects map[string]*subjectRecord
	blanks   map[string]map[string][]rdf.Term
	ontology string
}

func newRDFBuilder() *rdfBuilder {
	return &rdfBuilder{
		subjects: make(map[string]*subjectRecord),
		blanks:   make(map[string]map[string][]rdf.Term),
	}
}

func (b *rdfBuilder) record(iri string) *subjectRecord {
	rec, ok := b.subjects[iri]
	if !ok {
		rec = &subjectRecord{}
		b.subjects[iri] = rec
		b.order = append(b.order, iri)
	}
	return rec
}

func parseRDF(r io.Reader, format Format) (*Ontology, error) {
	b := newRDFBuilder()
	if format == FormatRDFXML {
		triples, err := decodeRDFXML(r)
		if err != nil {
			return nil, err
		}
		for _, t := range triples {
			b.add(t)
		}
		return b.build(), nil
	}

	rdfFormat, ok := rdfFormats[format]
	if !ok {
		return nil, errors.NewInvalidRequestError("not an RDF format: %s", format)
	}
	dec := rdf.NewTripleDecoder(r, rdfFormat)
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "decode triple")
		}
		b.add(triple)
	}

	return b.build(), nil
}

func (b *rdfBuilder) add(t rdf.Triple) {
	subj := t.Subj.String()
	pred := t.Pred.String()

	if t.Subj.Type() == rdf.TermBlank {
		props, ok := b.blanks[subj]
		if !ok {
			props = make(map[string][]rdf.Term)
			b.blanks[subj] = props
		}
		props[pred] = append(props[pred], t.Obj)
		return
	}

	rec := b.record(subj)
	obj := t.Obj

	switch {
	case pred == rdfNS+"type":
		if obj.Type() != rdf.TermIRI {
			return
		}
		if obj.String() == owlNS+"Ontology" {
			b.ontology = subj
			return
		}
		rec.types = append(rec.types, obj.String())

	case labelPredicates[pred]:
		if text, ok := englishLiteral(obj); ok {
			rec.labels = appendUnique(rec.labels, text)
		}

	case synonymPredicates[pred]:
		if text, ok := englishLiteral(obj); ok {
			rec.synonyms = appendUnique(rec.synonyms, text)
		}

	case definitionPredicates[pred]:
		if text, ok := englishLiteral(obj); ok {
			rec.definitions = appendUnique(rec.definitions, text)
		}

	case pred == rdfsNS+"subClassOf", pred == rdfsNS+"subPropertyOf":
		switch obj.Type() {
		case rdf.TermIRI:
			if !isTopOrBottom(obj.String()) {
				rec.parents = appendUnique(rec.parents, obj.String())
			}
		case rdf.TermBlank:
			rec.restrictions = append(rec.restrictions, obj.String())
		}

	case pred == owlNS+"deprecated":
		if obj.Type() == rdf.TermLiteral {
			v := strings.ToLower(strings.TrimSpace(obj.String()))
			rec.deprecated = v == "true" || v == "1"
		}

	case pred == owlNS+"versionIRI":
		rec.versionIRI = obj.String()

	case pred == owlNS+"versionInfo":
		rec.versionInfo = obj.String()

	case pred == owlNS+"imports":
		rec.imports = append(rec.imports, obj.String())
	}
}

// englishLiteral accepts untagged and English-tagged literals
func englishLiteral(obj rdf.Term) (string, bool) {
	lit, ok := obj.(rdf.Literal)
	if !ok {
		return "", false
	}
	lang := strings.ToLower(lit.Lang())
	if lang != "" && lang != "en" && !strings.HasPrefix(lang, "en-") {
		return "", false
	}
	text := strings.TrimSpace(lit.String())
	return text, text != ""
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// termType classifies a subject from its rdf:type declarations.
// A subject typed with a declared class is an individual of that class.
func (b *rdfBuilder) termType(rec *subjectRecord) (TermType, bool) {
	for _, typ := range rec.types {
		if tt, ok := declaredTypes[typ]; ok {
			return tt, true
		}
	}
	for _, typ := range rec.types {
		if other, ok := b.subjects[typ]; ok && other != rec {
			for _, t := range other.types {
				if declaredTypes[t] == TermClass {
					return TermIndividual, true
				}
			}
		}
	}
	return "", false
}

func (b *rdfBuilder) build() *Ontology {
	ont := &Ontology{IRI: b.ontology}
	if rec, ok := b.subjects[b.ontology]; ok && b.ontology != "" {
		ont.VersionIRI = rec.versionIRI
		ont.Version = rec.versionInfo
		ont.Imports = rec.imports
	}

	byIRI := make(map[string]*Term)
	for _, iri := range b.order {
		if iri == b.ontology || isTopOrBottom(iri) {
			continue
		}
		rec := b.subjects[iri]
		tt, ok := b.termType(rec)
		if !ok {
			continue
		}

		term := &Term{
			IRI:         iri,
			Labels:      rec.labels,
			Synonyms:    rec.synonyms,
			Definitions: rec.definitions,
			Type:        tt,
			Deprecated:  rec.deprecated,
		}
		if len(term.Labels) == 0 {
			term.Labels = []string{termutil.LabelFromIRI(iri)}
		}
		for _, blank := range rec.restrictions {
			b.addRestriction(term, blank)
		}
		ont.Terms = append(ont.Terms, term)
		byIRI[iri] = term
	}

	for _, term := range ont.Terms {
		rec := b.subjects[term.IRI]
		parents := rec.parents
		if term.Type == TermIndividual {
			// Classes an individual instantiates act as its parents
			for _, typ := range rec.types {
				if _, declared := declaredTypes[typ]; !declared && !isTopOrBottom(typ) {
					parents = appendUnique(parents, typ)
				}
			}
		}
		for _, parentIRI := range parents {
			linkParent(term, parentIRI, byIRI)
		}
	}

	return ont
}

func (b *rdfBuilder) addRestriction(term *Term, blank string) {
	props := b.blanks[blank]
	if props == nil {
		return
	}
	onProperty := firstIRI(props[owlNS+"onProperty"])
	filler := firstIRI(props[owlNS+"someValuesFrom"])
	if onProperty == "" || filler == "" {
		return
	}
	if term.Restrictions == nil {
		term.Restrictions = make(map[string][]string)
	}
	term.Restrictions[onProperty] = appendUnique(term.Restrictions[onProperty], filler)
}

func firstIRI(terms []rdf.Term) string {
	for _, t := range terms {
		if t.Type() == rdf.TermIRI {
			return t.String()
		}
	}
	return ""
}

// linkParent records parentIRI as a parent of term and term as a child (or
// instance) of the parent when the parent is part of the ontology.
func linkParent(term *Term, parentIRI string, byIRI map[string]*Term) {
	parent, known := byIRI[parentIRI]
	label := termutil.LabelFromIRI(parentIRI)
	if known {
		label = parent.Label()
	}

	if term.Parents == nil {
		term.Parents = make(map[string]string)
	}
	term.Parents[parentIRI] = label

	if !known {
		return
	}
	if term.Type == TermIndividual && parent.Type == TermClass {
		if parent.Instances == nil {
			parent.Instances = make(map[string]string)
		}
		parent.Instances[term.IRI] = term.Label()
		return
	}
	if parent.Children == nil {
		parent.Children = make(map[string]string)
	}
	parent.Children[term.IRI] = term.Label()
}

// sortedKeys returns map keys in ascending order
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
