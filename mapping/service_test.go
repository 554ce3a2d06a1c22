package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/fetch"
	"github.com/teranos/ontomap/internal/httpclient"
	ontomaptest "github.com/teranos/ontomap/internal/testing"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/ontology"
)

const (
	miniOWL    = "../ontology/testdata/mini.owl"
	asthmaIRI  = "http://purl.obolibrary.org/obo/MONDO_0004979"
	lungIRI    = "http://purl.obolibrary.org/obo/UBERON_0002048"
	diseaseIRI = "http://www.ebi.ac.uk/efo/EFO_0000408"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(Deps{
		Cache:  cache.NewManager(t.TempDir(), ontomaptest.CreateTestDB(t)),
		Loader: fetch.NewLoader(nil, nil),
	})
}

func testSource() []mapper.SourceTerm {
	return []mapper.SourceTerm{
		{ID: "s1", Term: "Asthma", Tags: []string{"disease"}},
		{ID: "s2", Term: "lung"},
		{ID: "s3", Term: "the"},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.MaxMappings = 2
	opts.ExcludeDeprecated = true
	opts.IncludeUnmapped = true
	return opts
}

func rowsFor(mappings []Mapping, id string) []Mapping {
	var out []Mapping
	for _, m := range mappings {
		if m.SourceTermID == id {
			out = append(out, m)
		}
	}
	return out
}

func TestMapTerms_LocalSource(t *testing.T) {
	svc := newTestService(t)
	opts := testOptions()

	result, err := svc.MapTerms(context.Background(), testSource(), miniOWL, opts)
	require.NoError(t, err)
	assert.Equal(t, mapper.TFIDF, result.Mapper)
	assert.NotEmpty(t, result.RunID)

	for _, m := range result.Mappings {
		if m.Unmapped() {
			continue
		}
		assert.GreaterOrEqual(t, m.MappingScore, opts.MinScore)
		assert.LessOrEqual(t, m.MappingScore, 1.0)
	}

	asthma := rowsFor(result.Mappings, "s1")
	require.NotEmpty(t, asthma)
	assert.LessOrEqual(t, len(asthma), 2)
	assert.Equal(t, Mapping{
		SourceTermID:    "s1",
		SourceTerm:      "Asthma",
		MappedTermLabel: "asthma",
		MappedTermCURIE: "MONDO:0004979",
		MappedTermIRI:   asthmaIRI,
		MappingScore:    1,
		Tags:            []string{"disease"},
	}, asthma[0])

	lung := rowsFor(result.Mappings, "s2")
	require.NotEmpty(t, lung)
	assert.Equal(t, lungIRI, lung[0].MappedTermIRI)

	unmapped := rowsFor(result.Mappings, "s3")
	require.Len(t, unmapped, 1)
	assert.True(t, unmapped[0].Unmapped())
	assert.Equal(t, []string{UnmappedTag}, unmapped[0].Tags)

	// Grouped in source order
	assert.Equal(t, "s1", result.Mappings[0].SourceTermID)
	assert.Equal(t, "s3", result.Mappings[len(result.Mappings)-1].SourceTermID)

	assert.Equal(t, 2, result.MappedCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(svc.Metrics().TermsMapped.WithLabelValues("tfidf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics().TermsUnmapped.WithLabelValues("tfidf")))
}

func TestMapTerms_CachedMatchesFresh(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, kind := range []mapper.Kind{mapper.TFIDF, mapper.JaroWinkler, mapper.Fuzzy} {
		t.Run(string(kind), func(t *testing.T) {
			opts := testOptions()
			opts.Mapper = kind

			fresh, err := svc.MapTerms(ctx, testSource(), miniOWL, opts)
			require.NoError(t, err)

			handle, err := svc.CacheOntology(ctx, miniOWL, "mini", nil)
			require.NoError(t, err)
			assert.Equal(t, "MINI", handle.Acronym())
			assert.True(t, handle.Exists())

			cached, err := handle.MapTerms(ctx, testSource(), opts)
			require.NoError(t, err)
			assert.Equal(t, fresh.Mappings, cached.Mappings)
		})
	}
}

func TestMapTerms_Filters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	source := []mapper.SourceTerm{{ID: "s1", Term: "obsolete asthmatic attack"}}

	opts := testOptions()
	opts.MinScore = 0.9
	opts.ExcludeDeprecated = false
	result, err := svc.MapTerms(ctx, source, miniOWL, opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.Mappings)
	assert.Equal(t, "http://purl.obolibrary.org/obo/MONDO_0000001", result.Mappings[0].MappedTermIRI)
	for _, m := range result.Mappings {
		assert.GreaterOrEqual(t, m.MappingScore, 0.9)
	}

	opts.ExcludeDeprecated = true
	opts.IncludeUnmapped = false
	result, err = svc.MapTerms(ctx, source, miniOWL, opts)
	require.NoError(t, err)
	for _, m := range result.Mappings {
		assert.NotEqual(t, "http://purl.obolibrary.org/obo/MONDO_0000001", m.MappedTermIRI)
	}

	opts = testOptions()
	opts.BaseIRIs = []string{"http://www.ebi.ac.uk/efo/"}
	result, err = svc.MapTerms(ctx, []mapper.SourceTerm{{ID: "s1", Term: "disease"}}, miniOWL, opts)
	require.NoError(t, err)
	require.Len(t, result.Mappings, 1)
	assert.Equal(t, diseaseIRI, result.Mappings[0].MappedTermIRI)

	opts.BaseIRIs = []string{"http://nowhere.example/"}
	_, err = svc.MapTerms(ctx, source, miniOWL, opts)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestMapTerms_RepeatedSourceIDs(t *testing.T) {
	svc := newTestService(t)
	opts := testOptions()
	opts.Mapper = mapper.JaroWinkler
	opts.MaxMappings = 3
	source := []mapper.SourceTerm{{ID: "x", Term: "asthma"}, {ID: "x", Term: "lung"}}

	result, err := svc.MapTerms(context.Background(), source, miniOWL, opts)
	require.NoError(t, err)

	rows := rowsFor(result.Mappings, "x")
	require.Len(t, rows, len(result.Mappings))
	lungStart := -1
	for i, m := range rows {
		if m.SourceTerm == "lung" && lungStart < 0 {
			lungStart = i
		}
	}
	require.Greater(t, lungStart, 0, "both terms keep their own rows")
	assert.LessOrEqual(t, lungStart, 3)
	assert.LessOrEqual(t, len(rows)-lungStart, 3)

	for _, m := range rows[:lungStart] {
		assert.Equal(t, "asthma", m.SourceTerm)
	}
	for _, m := range rows[lungStart:] {
		assert.Equal(t, "lung", m.SourceTerm)
	}
	assert.Equal(t, asthmaIRI, rows[0].MappedTermIRI)
	assert.Equal(t, lungIRI, rows[lungStart].MappedTermIRI)
}

func TestMapTerms_TargetLabels(t *testing.T) {
	svc := NewService(Deps{})
	ctx := context.Background()
	opts := testOptions()
	opts.Mapper = mapper.JaroWinkler
	opts.TargetLabels = true

	result, err := svc.MapTerms(ctx, testSource(), "asthma, lung ,", opts)
	require.NoError(t, err)
	require.NotEmpty(t, rowsFor(result.Mappings, "s1"))
	require.NotEmpty(t, rowsFor(result.Mappings, "s2"))
	assert.Equal(t, "asthma", rowsFor(result.Mappings, "s1")[0].MappedTermLabel)
	assert.Equal(t, "lung", rowsFor(result.Mappings, "s2")[0].MappedTermLabel)

	_, err = svc.MapTerms(ctx, testSource(), " , ", opts)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestMapTerms_Errors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	opts := testOptions()
	opts.Mapper = "word2vec"
	_, err := svc.MapTerms(ctx, testSource(), miniOWL, opts)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = svc.MapTerms(ctx, nil, miniOWL, testOptions())
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = svc.MapTerms(ctx, testSource(), " ", testOptions())
	assert.True(t, errors.IsInvalidRequestError(err))

	opts = testOptions()
	opts.UseCache = true
	_, err = svc.MapTerms(ctx, testSource(), "EFO", opts)
	require.Error(t, err)
	assert.True(t, errors.IsCacheMiss(err))
	assert.Contains(t, errors.FlattenHints(err), "ontomap cache add")

	opts = testOptions()
	opts.Mapper = mapper.Zooma
	_, err = svc.MapTerms(ctx, testSource(), "efo", opts)
	assert.True(t, errors.IsInvalidRequestError(err), "remote mapper without requester")
}

func TestMapTerms_Zooma(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "required:[none],ontologies:[efo,ncit]", r.URL.Query().Get("filter"))
		if r.URL.Query().Get("propertyValue") != "Asthma" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"semanticTags":["http://www.ebi.ac.uk/efo/EFO_0000270"],"confidence":"MEDIUM",
			"annotatedProperty":{"propertyValue":"asthma"}}]`))
	}))
	defer server.Close()

	svc := NewService(Deps{
		Requester: httpclient.NewRequester(httpclient.WrapClient(server.Client()), httpclient.RequesterOptions{
			RequestsPerSecond: 1000,
			InitialInterval:   time.Millisecond,
		}),
		ZoomaURL: server.URL,
	})

	opts := testOptions()
	opts.Mapper = mapper.Zooma
	result, err := svc.MapTerms(context.Background(), testSource(), "efo,ncit", opts)
	require.NoError(t, err)

	require.Len(t, result.Mappings, 3)
	assert.Equal(t, "EFO:0000270", result.Mappings[0].MappedTermCURIE)
	assert.Equal(t, 0.5, result.Mappings[0].MappingScore)
	assert.True(t, result.Mappings[1].Unmapped())
	assert.True(t, result.Mappings[2].Unmapped())
}

func TestMapTerms_SaveOutputs(t *testing.T) {
	svc := newTestService(t)
	dir := t.TempDir()

	opts := testOptions()
	opts.SaveMappings = true
	opts.SaveGraphs = true
	opts.Separator = ";"
	opts.OutputFile = filepath.Join(dir, "out", "mappings.csv")

	result, err := svc.MapTerms(context.Background(), testSource(), miniOWL, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, strings.Join(Columns, ";"), lines[0])
	assert.Len(t, lines, len(result.Mappings)+1)
	assert.Contains(t, string(data), "s1;Asthma;asthma;MONDO:0004979;"+asthmaIRI+";1;disease")
	assert.Contains(t, string(data), "s3;the;;;;;unmapped")

	graphData, err := os.ReadFile(filepath.Join(dir, "out", "mappings-term-graphs.json"))
	require.NoError(t, err)
	var graphs []ontology.TermGraph
	require.NoError(t, json.Unmarshal(graphData, &graphs))

	var asthmaGraph *ontology.TermGraph
	for i := range graphs {
		if graphs[i].Root == asthmaIRI {
			asthmaGraph = &graphs[i]
		}
	}
	require.NotNil(t, asthmaGraph)
	assert.Contains(t, asthmaGraph.Edges, ontology.GraphEdge{From: asthmaIRI, To: diseaseIRI, Relation: ontology.RelationIsA})
}

func TestMapTerms_SaveJSON(t *testing.T) {
	svc := newTestService(t)
	opts := testOptions()
	opts.SaveMappings = true
	opts.OutputFile = filepath.Join(t.TempDir(), "mappings.json")

	result, err := svc.MapTerms(context.Background(), testSource(), miniOWL, opts)
	require.NoError(t, err)

	data, err := os.ReadFile(opts.OutputFile)
	require.NoError(t, err)
	var got []Mapping
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, result.Mappings, got)
}

func TestCacheOntology(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	handle, err := svc.CacheOntology(ctx, miniOWL, "mini", nil)
	require.NoError(t, err)

	meta, err := svc.Cache().Metadata(ctx, "MINI")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", meta.Version)
	assert.Equal(t, miniOWL, meta.Source)
	assert.Empty(t, meta.BaseIRIs)

	entry, err := svc.Cache().Load(ctx, "MINI")
	require.NoError(t, err)
	_, hasProperty := entry.Collection.Get("http://purl.obolibrary.org/obo/BFO_0000050")
	assert.True(t, hasProperty, "cache keeps every term type")

	require.NoError(t, handle.Clear(ctx))
	assert.False(t, handle.Exists())

	_, err = svc.CacheOntology(ctx, miniOWL, "../bad", nil)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = svc.CacheOntology(ctx, miniOWL, "mini", []string{"http://nowhere.example/"})
	assert.True(t, errors.IsNotFoundError(err))

	_, err = NewService(Deps{Loader: fetch.NewLoader(nil, nil)}).CacheOntology(ctx, miniOWL, "mini", nil)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCacheOntology_AcronymKeepsAllTerms(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	opts := testOptions()

	fresh, err := svc.MapTerms(ctx, testSource(), miniOWL, opts)
	require.NoError(t, err)

	// A well-known acronym must not narrow the cached terms on its own
	handle, err := svc.CacheOntology(ctx, miniOWL, "EFO", nil)
	require.NoError(t, err)

	entry, err := svc.Cache().Load(ctx, "EFO")
	require.NoError(t, err)
	assert.Empty(t, entry.BaseIRIs)
	assert.Contains(t, entry.Collection.IRIs(), asthmaIRI)

	cached, err := handle.MapTerms(ctx, testSource(), opts)
	require.NoError(t, err)
	assert.Equal(t, fresh.Mappings, cached.Mappings)
}

func TestCacheOntologySet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	dir := t.TempDir()

	owl, err := os.ReadFile(miniOWL)
	require.NoError(t, err)
	source := filepath.Join(dir, "mini.owl")
	require.NoError(t, os.WriteFile(source, owl, 0o644))

	setFile := filepath.Join(dir, "ontologies.csv")
	require.NoError(t, os.WriteFile(setFile, []byte(
		"acronym,version,url\n"+
			"mini,2024-01-01,"+source+"\n"+
			"broken,,"+filepath.Join(dir, "absent.owl")+"\n"), 0o644))

	handles, err := svc.CacheOntologySet(ctx, setFile, false)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.True(t, handles["MINI"].Exists())

	// Cached at the wanted version, so the missing source is never read
	require.NoError(t, os.Remove(source))
	handles, err = svc.CacheOntologySet(ctx, setFile, false)
	require.NoError(t, err)
	assert.Contains(t, handles, "MINI")

	handles, err = svc.CacheOntologySet(ctx, setFile, true)
	require.NoError(t, err)
	assert.Empty(t, handles)

	_, err = svc.CacheOntologySet(ctx, filepath.Join(dir, "absent.csv"), false)
	assert.Error(t, err)
}

func TestAssemble(t *testing.T) {
	source := []mapper.SourceTerm{
		{ID: "a", Term: "first", Tags: []string{"x"}},
		{ID: "b", Term: "second", Tags: []string{"y"}},
	}
	candidates := []mapper.Candidate{
		{SourceID: "1", IRI: "iri:1", Score: 0.9},
		{SourceID: "0", IRI: "iri:2", Score: 0.8},
		{SourceID: "0", IRI: "iri:3", Score: 0.5},
		{SourceID: "0", IRI: "iri:4", Score: 0.2},
		{SourceID: "1", IRI: "iri:5", Score: 0.6},
	}

	opts := Options{MaxMappings: 1, MinScore: 0.3}
	got := assemble(source, candidates, opts)
	require.Len(t, got, 2)
	assert.Equal(t, "iri:2", got[0].MappedTermIRI)
	assert.Equal(t, "iri:1", got[1].MappedTermIRI)

	opts = Options{MaxMappings: 3, MinScore: 0.95, IncludeUnmapped: true}
	got = assemble(source, candidates, opts)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"x", UnmappedTag}, got[0].Tags)
	assert.Equal(t, []string{"x"}, source[0].Tags, "source tags must not change")
}

func TestResultWriters(t *testing.T) {
	result := &Result{Mappings: []Mapping{
		{SourceTermID: "s1", SourceTerm: "heart, attack", MappedTermLabel: "myocardial infarction",
			MappedTermCURIE: "EFO:0000612", MappedTermIRI: "http://www.ebi.ac.uk/efo/EFO_0000612",
			MappingScore: 0.812, Tags: []string{"a", "b"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, result.WriteCSV(&buf, ','))
	assert.Equal(t,
		"Source Term ID,Source Term,Mapped Term Label,Mapped Term CURIE,Mapped Term IRI,Mapping Score,Tags\n"+
			"s1,\"heart, attack\",myocardial infarction,EFO:0000612,http://www.ebi.ac.uk/efo/EFO_0000612,0.812,\"a,b\"\n",
		buf.String())

	buf.Reset()
	require.NoError(t, result.WriteCSV(&buf, '\t'))
	assert.Contains(t, buf.String(), "s1\theart, attack\t")

	buf.Reset()
	require.NoError(t, (&Result{}).WriteJSON(&buf))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteGraphs(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())

	assert.Equal(t, [][]string{{"s1", "heart, attack", "myocardial infarction", "EFO:0000612",
		"http://www.ebi.ac.uk/efo/EFO_0000612", "0.812", "a,b"}}, result.Rows())
}
