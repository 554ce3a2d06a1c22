package ontology

import (
	"bufio"
	"io"
	"strings"

	"github.com/teranos/ontomap/termutil"
)

// scannerBufferSize fits the longest definition lines in ChEBI and NCIT
const scannerBufferSize = 1 << 20

// oboStanza is one [Term], [Typedef] or [Instance] block before IRIs are resolved
type oboStanza struct {
	kind          TermType
	id            string
	name          string
	synonyms      []string
	definitions   []string
	isA           []string
	relationships [][2]string // relation id, target id
	obsolete      bool
}

// parseOBO reads the OBO 1.4 flat file format
func parseOBO(r io.Reader) (*Ontology, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	ont := &Ontology{}
	var (
		ontologyName string
		stanzas      []*oboStanza
		current      *oboStanza
		inHeader     = true
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inHeader = false
			current = nil
			switch line {
			case "[Term]":
				current = &oboStanza{kind: TermClass}
			case "[Typedef]":
				current = &oboStanza{kind: TermProperty}
			case "[Instance]":
				current = &oboStanza{kind: TermIndividual}
			}
			if current != nil {
				stanzas = append(stanzas, current)
			}
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = stripTrailingModifiers(strings.TrimSpace(val))

		if inHeader {
			switch key {
			case "ontology":
				ontologyName = val
			case "data-version":
				ont.Version = val
			case "import":
				ont.Imports = append(ont.Imports, val)
			}
			continue
		}
		if current == nil {
			continue
		}

		switch key {
		case "id":
			current.id = val
		case "name":
			current.name = val
		case "synonym":
			if text := parseQuoted(val); text != "" {
				current.synonyms = appendUnique(current.synonyms, text)
			}
		case "def":
			if text := parseQuoted(val); text != "" {
				current.definitions = append(current.definitions, text)
			}
		case "is_a", "instance_of":
			current.isA = append(current.isA, stripComment(val))
		case "relationship":
			fields := strings.Fields(stripComment(val))
			if len(fields) >= 2 {
				current.relationships = append(current.relationships, [2]string{fields[0], fields[1]})
			}
		case "is_obsolete":
			current.obsolete = val == "true"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if ontologyName != "" {
		ont.IRI = termutil.OBOBaseIRI + ontologyName + ".owl"
	}

	// Typedef ids are resolved against the ontology namespace
	typedefs := make(map[string]string)
	for _, st := range stanzas {
		if st.kind == TermProperty && st.id != "" {
			typedefs[st.id] = oboIDToIRI(st.id, ontologyName)
		}
	}
	resolve := func(id string) string {
		if iri, ok := typedefs[id]; ok {
			return iri
		}
		return oboIDToIRI(id, ontologyName)
	}

	byIRI := make(map[string]*Term)
	for _, st := range stanzas {
		if st.id == "" {
			continue
		}
		iri := resolve(st.id)
		if _, dup := byIRI[iri]; dup {
			continue
		}
		term := &Term{
			IRI:         iri,
			Synonyms:    st.synonyms,
			Definitions: st.definitions,
			Type:        st.kind,
			Deprecated:  st.obsolete,
		}
		if st.name != "" {
			term.Labels = []string{st.name}
		} else {
			term.Labels = []string{termutil.LabelFromIRI(iri)}
		}
		for _, rel := range st.relationships {
			if term.Restrictions == nil {
				term.Restrictions = make(map[string][]string)
			}
			prop := resolve(rel[0])
			term.Restrictions[prop] = appendUnique(term.Restrictions[prop], resolve(rel[1]))
		}
		ont.Terms = append(ont.Terms, term)
		byIRI[iri] = term
	}

	for _, st := range stanzas {
		term, ok := byIRI[resolve(st.id)]
		if !ok || term.Parents != nil {
			continue
		}
		for _, parentID := range st.isA {
			linkParent(term, resolve(parentID), byIRI)
		}
	}

	return ont, nil
}

// oboIDToIRI expands an OBO identifier to the IRI used by the OWL release
//
//	MONDO:0004979 -> http://purl.obolibrary.org/obo/MONDO_0004979
//	EFO:0000270   -> http://www.ebi.ac.uk/efo/EFO_0000270
//	part_of       -> http://purl.obolibrary.org/obo/mondo#part_of
func oboIDToIRI(id, ontologyName string) string {
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		return id
	}
	prefix, local, ok := strings.Cut(id, ":")
	if !ok {
		return termutil.OBOBaseIRI + ontologyName + "#" + id
	}

	base, known := termutil.OntologyIRIs[prefix]
	switch {
	case !known || base == termutil.OBOBaseIRI:
		return termutil.OBOBaseIRI + prefix + "_" + local
	case prefix == "ORPHA" || prefix == "Orphanet":
		return base + "Orphanet_" + local
	case prefix == "EFO":
		return base + prefix + "_" + local
	default:
		// OMIM and SNOMED use bare numeric local names
		return base + local
	}
}

// stripComment drops the "! label" suffix of a reference
func stripComment(s string) string {
	if i := strings.Index(s, " !"); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// stripTrailingModifiers removes a trailing {source="..."} block
func stripTrailingModifiers(s string) string {
	if strings.HasSuffix(s, "}") {
		if i := strings.LastIndex(s, " {"); i >= 0 {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}

// parseQuoted extracts text between the first pair of unescaped double quotes.
func parseQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	var b strings.Builder
	escaped := false
	for _, r := range s[start+1:] {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			return b.String()
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
