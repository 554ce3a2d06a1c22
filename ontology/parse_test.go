package ontology

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ontomap/errors"
)

const (
	asthmaIRI    = "http://purl.obolibrary.org/obo/MONDO_0004979"
	childIRI     = "http://purl.obolibrary.org/obo/MONDO_0004977"
	diseaseIRI   = "http://www.ebi.ac.uk/efo/EFO_0000408"
	lungIRI      = "http://purl.obolibrary.org/obo/UBERON_0002048"
	partOfIRI    = "http://purl.obolibrary.org/obo/BFO_0000050"
	obsoleteIRI  = "http://purl.obolibrary.org/obo/MONDO_0000001"
	unlabeledIRI = "http://purl.obolibrary.org/obo/MONDO_0005011"
	patientIRI   = "http://purl.obolibrary.org/obo/mini.owl#patient_1"
)

func loadMini(t *testing.T) *Ontology {
	t.Helper()
	ont, err := ParseFile(filepath.Join("testdata", "mini.owl"))
	require.NoError(t, err)
	return ont
}

func termByIRI(t *testing.T, ont *Ontology, iri string) *Term {
	t.Helper()
	for _, term := range ont.Terms {
		if term.IRI == iri {
			return term
		}
	}
	t.Fatalf("term %s not found", iri)
	return nil
}

func TestParseRDFXML(t *testing.T) {
	ont := loadMini(t)

	assert.Equal(t, FormatRDFXML, ont.Format)
	assert.Equal(t, "http://purl.obolibrary.org/obo/mini.owl", ont.IRI)
	assert.Equal(t, "http://purl.obolibrary.org/obo/mini/releases/2024-01-01/mini.owl", ont.VersionIRI)
	assert.Equal(t, "2024-01-01", ont.Version)

	iris := make([]string, len(ont.Terms))
	for i, term := range ont.Terms {
		iris[i] = term.IRI
	}
	assert.Equal(t, []string{
		partOfIRI, diseaseIRI, lungIRI, asthmaIRI, childIRI, obsoleteIRI, unlabeledIRI, patientIRI,
	}, iris)

	t.Run("labels and synonyms", func(t *testing.T) {
		asthma := termByIRI(t, ont, asthmaIRI)
		assert.Equal(t, []string{"asthma"}, asthma.Labels, "non-English labels are dropped")
		assert.Equal(t, "asthma", asthma.Label())
		assert.ElementsMatch(t, []string{"bronchial asthma", "asthmatic"}, asthma.Synonyms)
		assert.Equal(t, "MONDO:0004979", asthma.CURIE())
		assert.Equal(t, TermClass, asthma.Type)
	})

	t.Run("definitions", func(t *testing.T) {
		disease := termByIRI(t, ont, diseaseIRI)
		assert.Equal(t, []string{"A disposition to undergo pathological processes."}, disease.Definitions)
	})

	t.Run("hierarchy", func(t *testing.T) {
		asthma := termByIRI(t, ont, asthmaIRI)
		assert.Equal(t, map[string]string{diseaseIRI: "disease"}, asthma.Parents)
		assert.Equal(t, map[string]string{childIRI: "childhood onset asthma"}, asthma.Children)
		assert.Equal(t, map[string]string{patientIRI: "patient one"}, asthma.Instances)

		disease := termByIRI(t, ont, diseaseIRI)
		assert.Contains(t, disease.Children, asthmaIRI)
	})

	t.Run("restrictions", func(t *testing.T) {
		asthma := termByIRI(t, ont, asthmaIRI)
		assert.Equal(t, map[string][]string{partOfIRI: {lungIRI}}, asthma.Restrictions)
	})

	t.Run("types and deprecation", func(t *testing.T) {
		assert.Equal(t, TermProperty, termByIRI(t, ont, partOfIRI).Type)
		assert.Equal(t, TermIndividual, termByIRI(t, ont, patientIRI).Type)
		assert.True(t, termByIRI(t, ont, obsoleteIRI).Deprecated)
		assert.False(t, termByIRI(t, ont, asthmaIRI).Deprecated)
	})

	t.Run("label falls back to local name", func(t *testing.T) {
		unlabeled := termByIRI(t, ont, unlabeledIRI)
		assert.Equal(t, "MONDO_0005011", unlabeled.Label())
		assert.Empty(t, unlabeled.Parents, "owl:Thing is not recorded as a parent")
	})
}

func TestParseRDFXML_NestedAxioms(t *testing.T) {
	ont, err := ParseFile(filepath.Join("testdata", "axioms.owl"))
	require.NoError(t, err)

	const (
		obo        = "http://purl.obolibrary.org/obo/"
		fever      = obo + "AX_0000001"
		bodyTemp   = obo + "AX_0000002"
		hypothal   = obo + "AX_0000003"
		chills     = obo + "AX_0000004"
		symptom    = obo + "AX_0000005"
		shivering  = "http://example.org/axioms.owl#shivering"
		brainIRI   = obo + "UBERON_0000955"
		hasPartIRI = obo + "RO_0000052"
	)

	assert.Equal(t, "http://example.org/axioms.owl", ont.IRI)
	assert.Equal(t, "v2", ont.Version)

	iris := make([]string, len(ont.Terms))
	for i, term := range ont.Terms {
		iris[i] = term.IRI
	}
	assert.Equal(t, []string{partOfIRI, bodyTemp, hypothal, fever, chills, symptom, shivering}, iris,
		"blank nodes and referenced-only IRIs are not terms")

	t.Run("entities and property attributes", func(t *testing.T) {
		partOf := termByIRI(t, ont, partOfIRI)
		assert.Equal(t, TermProperty, partOf.Type)
		assert.Equal(t, []string{"part of"}, partOf.Labels)
		assert.Equal(t, []string{"body temperature"}, termByIRI(t, ont, bodyTemp).Labels)
	})

	t.Run("axiom annotations stay off the term", func(t *testing.T) {
		term := termByIRI(t, ont, fever)
		assert.Equal(t, []string{"fever"}, term.Labels)
		assert.Equal(t, []string{"pyrexia"}, term.Synonyms)
		assert.Equal(t, []string{"Raised body temperature."}, term.Definitions)
		assert.Empty(t, term.Parents)
	})

	t.Run("restrictions", func(t *testing.T) {
		assert.Equal(t, map[string][]string{partOfIRI: {hypothal}}, termByIRI(t, ont, fever).Restrictions)
		assert.Equal(t, map[string][]string{partOfIRI: {brainIRI}}, termByIRI(t, ont, hypothal).Restrictions,
			"restriction referenced by node id")
		assert.NotContains(t, termByIRI(t, ont, fever).Restrictions, hasPartIRI)
	})

	t.Run("nested named class", func(t *testing.T) {
		assert.Equal(t, TermClass, termByIRI(t, ont, chills).Type)
		assert.Equal(t, map[string]string{symptom: "symptom"}, termByIRI(t, ont, chills).Parents)
		assert.Equal(t, map[string]string{chills: "chills"}, termByIRI(t, ont, symptom).Children)
	})

	t.Run("rdf:ID and typed literals", func(t *testing.T) {
		term := termByIRI(t, ont, shivering)
		assert.True(t, term.Deprecated)
		assert.Equal(t, "shivering", term.Label())
	})
}

func TestParseRDFXML_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<?xml version="1.0"?><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"><rdf:Description>`), FormatRDFXML)
	assert.Error(t, err)
}

func TestParseTurtle(t *testing.T) {
	ont, err := ParseFile(filepath.Join("testdata", "mini.ttl"))
	require.NoError(t, err)
	assert.Equal(t, FormatTurtle, ont.Format)
	require.Len(t, ont.Terms, 3)

	fever := termByIRI(t, ont, "http://purl.obolibrary.org/obo/HP_0001945")
	assert.Equal(t, []string{"Fever"}, fever.Labels)
	assert.ElementsMatch(t, []string{"Pyrexia", "Hyperthermia"}, fever.Synonyms)
	assert.Equal(t, []string{"Elevated body temperature."}, fever.Definitions)
	assert.Equal(t, "Phenotypic abnormality", fever.Parents["http://purl.obolibrary.org/obo/HP_0000118"])
}

func TestParseOBO(t *testing.T) {
	ont, err := ParseFile(filepath.Join("testdata", "mini.obo"))
	require.NoError(t, err)

	assert.Equal(t, FormatOBO, ont.Format)
	assert.Equal(t, "http://purl.obolibrary.org/obo/mini.owl", ont.IRI)
	assert.Equal(t, "releases/2024-02-01", ont.Version)
	require.Len(t, ont.Terms, 7)

	asthma := termByIRI(t, ont, asthmaIRI)
	assert.Equal(t, "asthma", asthma.Label())
	assert.Equal(t, []string{"bronchial asthma", "asthmatic"}, asthma.Synonyms)
	assert.Equal(t, []string{`A bronchial disease characterized by "wheezing".`}, asthma.Definitions)
	assert.Equal(t, map[string]string{
		"http://purl.obolibrary.org/obo/MONDO_0005087": "respiratory system disease",
	}, asthma.Parents)
	assert.Equal(t, map[string][]string{
		"http://purl.obolibrary.org/obo/mini#part_of": {lungIRI},
	}, asthma.Restrictions)
	assert.Equal(t, map[string]string{"http://www.ebi.ac.uk/efo/EFO_0000270": "asthma (EFO)"}, asthma.Children)
	assert.Equal(t, map[string]string{"http://purl.obolibrary.org/obo/mini_patient_1": "patient one"}, asthma.Instances)

	efo := termByIRI(t, ont, "http://www.ebi.ac.uk/efo/EFO_0000270")
	assert.Equal(t, "EFO:0000270", efo.CURIE())

	assert.True(t, termByIRI(t, ont, "http://purl.obolibrary.org/obo/MONDO_0000002").Deprecated)
	assert.Equal(t, TermProperty, termByIRI(t, ont, "http://purl.obolibrary.org/obo/mini#part_of").Type)
	assert.Equal(t, TermIndividual, termByIRI(t, ont, "http://purl.obolibrary.org/obo/mini_patient_1").Type)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		head string
		want Format
		err  bool
	}{
		{name: "rdf/xml", head: `<?xml version="1.0"?><rdf:RDF>`, want: FormatRDFXML},
		{name: "rdf/xml with bom", head: "\xef\xbb\xbf<rdf:RDF xmlns:rdf=\"x\">", want: FormatRDFXML},
		{name: "obo", head: "format-version: 1.2\nontology: go\n", want: FormatOBO},
		{name: "turtle", head: "@prefix owl: <http://www.w3.org/2002/07/owl#> .", want: FormatTurtle},
		{name: "sparql style prefix", head: "PREFIX owl: <http://www.w3.org/2002/07/owl#>", want: FormatTurtle},
		{name: "ntriples", head: "<http://a> <http://b> <http://c> .", want: FormatTurtle},
		{name: "owl/xml", head: `<?xml version="1.0"?><Ontology xmlns="http://www.w3.org/2002/07/owl#">`, err: true},
		{name: "lowercase prefix", head: "prefix owl: <http://www.w3.org/2002/07/owl#>", want: FormatTurtle},
		{name: "functional", head: "Prefix(:=<http://example.org/>)", err: true},
		{name: "functional ontology", head: "Ontology(<http://example.org/o>)", err: true},
		{name: "garbage", head: "hello world", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat([]byte(tt.head))
			if tt.err {
				require.Error(t, err)
				if strings.HasPrefix(tt.head, "Prefix(") {
					assert.True(t, errors.Is(err, ErrUnsupportedSyntax))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFile_MisnamedOBO(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "mini.obo"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mini.owl")
	require.NoError(t, os.WriteFile(path, data, 0644))

	ont, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatOBO, ont.Format)
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.owl"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "onto.ofn")
	require.NoError(t, os.WriteFile(path, []byte("Ontology(<http://example.org/o>)"), 0644))
	_, err = ParseFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSyntax))
}

func TestParseTermType(t *testing.T) {
	for in, want := range map[string]TermType{
		"class": TermClass, "Property": TermProperty, "individual": TermIndividual, "any": TermAny, "": TermAny,
	} {
		got, err := ParseTermType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseTermType("axiom")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}
