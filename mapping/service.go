// Package mapping runs source terms through a mapper against a target
// ontology, applies score thresholds and writes the results.
package mapping

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/fetch"
	"github.com/teranos/ontomap/internal/httpclient"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/metrics"
	"github.com/teranos/ontomap/ontology"
	"github.com/teranos/ontomap/termutil"
)

// Deps wires a Service. Cache may be nil when caching is not used; Requester
// may be nil when only local mappers run.
type Deps struct {
	Cache        *cache.Manager
	Loader       *fetch.Loader
	Requester    *httpclient.Requester
	Metrics      *metrics.Recorder
	ZoomaURL     string
	BioPortalURL string
}

// Service maps source terms to ontology terms
type Service struct {
	cache        *cache.Manager
	loader       *fetch.Loader
	requester    *httpclient.Requester
	metrics      *metrics.Recorder
	zoomaURL     string
	bioPortalURL string
	logger       *zap.SugaredLogger
}

// NewService creates a Service from its collaborators
func NewService(deps Deps) *Service {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.New()
	}
	zoomaURL := deps.ZoomaURL
	if zoomaURL == "" {
		zoomaURL = config.DefaultZoomaURL
	}
	bioPortalURL := deps.BioPortalURL
	if bioPortalURL == "" {
		bioPortalURL = config.DefaultBioPortalURL
	}
	return &Service{
		cache:        deps.Cache,
		loader:       deps.Loader,
		requester:    deps.Requester,
		metrics:      rec,
		zoomaURL:     zoomaURL,
		bioPortalURL: bioPortalURL,
		logger:       logger.ComponentLogger("mapping"),
	}
}

// Metrics returns the recorder the service reports to
func (s *Service) Metrics() *metrics.Recorder { return s.metrics }

// Cache returns the cache manager, or nil when the service has none
func (s *Service) Cache() *cache.Manager { return s.cache }

// MapTerms maps source to the ontology named by target. For local mappers
// target is a file, URL or acronym, or a cache acronym with opts.UseCache;
// for remote mappers it is a comma-separated list of ontology acronyms.
func (s *Service) MapTerms(ctx context.Context, source []mapper.SourceTerm, target string, opts Options) (*Result, error) {
	started := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return nil, errors.NewInvalidRequestError("no source terms to map")
	}
	source = EnsureIDs(append([]mapper.SourceTerm(nil), source...))

	runID := termutil.ShortID()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.LoggerFromContext(ctx, s.logger)

	m, coll, err := s.buildMapper(ctx, target, opts)
	if err != nil {
		return nil, err
	}

	// Mappers see positional keys so repeated source ids stay separate
	mappable := make([]mapper.SourceTerm, 0, len(source))
	for i, st := range source {
		if termutil.Normalize(st.Term) != "" {
			mappable = append(mappable, mapper.SourceTerm{ID: positionKey(i), Term: st.Term, Tags: st.Tags})
		}
	}
	log.Infow("Mapping terms",
		logger.FieldMapper, opts.Mapper,
		logger.FieldOntology, target,
		logger.FieldCount, len(mappable),
		logger.FieldTotalCount, len(source),
	)

	candidates, err := m.Map(ctx, mappable, opts.MaxMappings)
	if err != nil {
		return nil, errors.Wrapf(err, "map terms with %s", opts.Mapper)
	}

	result := &Result{
		RunID:    runID,
		Mapper:   opts.Mapper,
		Target:   target,
		Mappings: assemble(source, candidates, opts),
	}
	if opts.SaveGraphs && coll != nil {
		result.Graphs = buildGraphs(coll, result.Mappings)
	}

	mapped := result.MappedCount()
	elapsed := time.Since(started)
	s.metrics.RecordMapping(string(opts.Mapper), mapped, len(source)-mapped, elapsed)
	log.Infow("Mapped terms",
		logger.FieldMapper, opts.Mapper,
		"mapped", mapped,
		"unmapped", len(source)-mapped,
		logger.FieldDurationMS, elapsed.Milliseconds(),
	)

	if opts.SaveMappings {
		if err := saveResult(result, opts); err != nil {
			return result, err
		}
	}
	return result, nil
}

// buildMapper returns the mapper for opts and, for local mappers, the
// collection it scores.
func (s *Service) buildMapper(ctx context.Context, target string, opts Options) (mapper.Mapper, *ontology.Collection, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, errors.NewInvalidRequestError("no target ontology given")
	}

	if opts.Mapper.Remote() {
		if s.requester == nil {
			return nil, nil, errors.NewInvalidRequestError("%s mapper needs network access", opts.Mapper)
		}
		m, err := mapper.New(opts.Mapper, mapper.Deps{
			Requester:       s.requester,
			Ontologies:      strings.Split(target, ","),
			ZoomaURL:        s.zoomaURL,
			BioPortalURL:    s.bioPortalURL,
			BioPortalAPIKey: opts.BioPortalAPIKey,
		})
		return m, nil, err
	}

	coll, err := s.targetCollection(ctx, target, opts)
	if err != nil {
		return nil, nil, err
	}
	m, err := mapper.New(opts.Mapper, mapper.Deps{Collection: coll})
	return m, coll, err
}

// targetCollection loads the filtered target terms from the cache or the source
func (s *Service) targetCollection(ctx context.Context, target string, opts Options) (*ontology.Collection, error) {
	filter := ontology.CollectOptions{
		BaseIRIs:          opts.BaseIRIs,
		TermType:          opts.TermType,
		ExcludeDeprecated: opts.ExcludeDeprecated,
	}

	var (
		coll   *ontology.Collection
		origin string
	)
	switch {
	case opts.TargetLabels:
		labels := SplitList(target)
		if len(labels) == 0 {
			return nil, errors.NewInvalidRequestError("no labels in target %q", target)
		}
		coll = ontology.Collect(ontology.FromLabels(labels), filter)
		origin = "labels"
	case opts.UseCache:
		if s.cache == nil {
			return nil, errors.NewInvalidRequestError("no cache configured")
		}
		entry, err := s.cache.Load(ctx, target)
		s.metrics.RecordCacheOperation("load", err)
		if err != nil {
			return nil, errors.WithHint(err, "run 'ontomap cache add <source> "+target+"' first")
		}
		coll = entry.Collection.Filter(filter)
		origin = "cache"
	default:
		if s.loader == nil {
			return nil, errors.NewInvalidRequestError("no ontology loader configured")
		}
		src, err := s.loader.Load(ctx, target)
		if err != nil {
			return nil, err
		}
		coll = ontology.Collect(src.Ontology, filter)
		origin = "load"
	}

	s.metrics.RecordOntologyTerms(target, origin, coll.Len())
	if coll.Len() == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("no %s terms in %s after filtering", opts.TermType, target),
			"check --base-iris and --term-type",
		)
	}
	return coll, nil
}

// assemble groups candidates by source term position, drops those below the
// minimum score and adds unmapped rows when requested. Candidate SourceIDs
// are position keys from positionKey.
func assemble(source []mapper.SourceTerm, candidates []mapper.Candidate, opts Options) []Mapping {
	byPosition := make(map[string][]mapper.Candidate, len(source))
	for _, c := range candidates {
		if c.Score < opts.MinScore {
			continue
		}
		if len(byPosition[c.SourceID]) >= opts.MaxMappings {
			continue
		}
		byPosition[c.SourceID] = append(byPosition[c.SourceID], c)
	}

	var out []Mapping
	for i, st := range source {
		cands := byPosition[positionKey(i)]
		if len(cands) == 0 {
			if opts.IncludeUnmapped {
				out = append(out, Mapping{
					SourceTermID: st.ID,
					SourceTerm:   st.Term,
					Tags:         append(append([]string(nil), st.Tags...), UnmappedTag),
				})
			}
			continue
		}
		for _, c := range cands {
			out = append(out, Mapping{
				SourceTermID:    st.ID,
				SourceTerm:      st.Term,
				MappedTermLabel: c.Label,
				MappedTermCURIE: c.CURIE,
				MappedTermIRI:   c.IRI,
				MappingScore:    c.Score,
				Tags:            st.Tags,
			})
		}
	}
	return out
}

func positionKey(i int) string { return strconv.Itoa(i) }

func buildGraphs(coll *ontology.Collection, mappings []Mapping) []*ontology.TermGraph {
	seen := make(map[string]bool)
	var graphs []*ontology.TermGraph
	for _, m := range mappings {
		if m.Unmapped() || seen[m.MappedTermIRI] {
			continue
		}
		seen[m.MappedTermIRI] = true
		if g, ok := ontology.BuildGraph(coll, m.MappedTermIRI); ok {
			graphs = append(graphs, g)
		}
	}
	return graphs
}

// GraphsFile names the term graph file written next to a mappings file
func GraphsFile(outputFile string) string {
	return strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "-term-graphs.json"
}

func saveResult(result *Result, opts Options) error {
	if err := writeFile(opts.OutputFile, func(f *os.File) error {
		if strings.EqualFold(filepath.Ext(opts.OutputFile), ".json") {
			return result.WriteJSON(f)
		}
		return result.WriteCSV(f, opts.separatorRune())
	}); err != nil {
		return errors.Wrapf(err, "save mappings to %s", opts.OutputFile)
	}

	if opts.SaveGraphs {
		path := GraphsFile(opts.OutputFile)
		if err := writeFile(path, func(f *os.File) error {
			return WriteGraphs(f, result.Graphs)
		}); err != nil {
			return errors.Wrapf(err, "save term graphs to %s", path)
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.DefaultFilePermissions)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
