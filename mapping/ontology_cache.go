package mapping

import (
	"context"
	"strings"

	"github.com/teranos/ontomap/cache"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/ontology"
)

// OntologyCache is a handle on one cached ontology
type OntologyCache struct {
	svc     *Service
	acronym string
}

// Acronym returns the cache key
func (c *OntologyCache) Acronym() string { return c.acronym }

// Exists reports whether the cached terms are still present
func (c *OntologyCache) Exists() bool {
	return c.svc.cache.Exists(c.acronym)
}

// Clear removes the cached ontology
func (c *OntologyCache) Clear(ctx context.Context) error {
	err := c.svc.cache.Clear(ctx, c.acronym)
	c.svc.metrics.RecordCacheOperation("clear", err)
	return err
}

// MapTerms maps source against the cached ontology
func (c *OntologyCache) MapTerms(ctx context.Context, source []mapper.SourceTerm, opts Options) (*Result, error) {
	opts.UseCache = true
	return c.svc.MapTerms(ctx, source, c.acronym, opts)
}

// Handle returns a handle for an acronym that is already cached
func (s *Service) Handle(acronym string) (*OntologyCache, error) {
	if s.cache == nil {
		return nil, errors.NewInvalidRequestError("no cache configured")
	}
	normalized, err := cache.NormalizeAcronym(acronym)
	if err != nil {
		return nil, err
	}
	return &OntologyCache{svc: s, acronym: normalized}, nil
}

// CacheOntology loads source and caches its terms under acronym, keeping
// only terms under baseIRIs when any are given.
func (s *Service) CacheOntology(ctx context.Context, source, acronym string, baseIRIs []string) (*OntologyCache, error) {
	handle, err := s.Handle(acronym)
	if err != nil {
		return nil, err
	}
	if s.loader == nil {
		return nil, errors.NewInvalidRequestError("no ontology loader configured")
	}
	src, err := s.loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	coll := ontology.Collect(src.Ontology, ontology.CollectOptions{BaseIRIs: baseIRIs, TermType: ontology.TermAny})
	if coll.Len() == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("no terms in %s under %v", source, baseIRIs),
			"pass --base-iris matching the ontology's term IRIs",
		)
	}

	version := src.Ontology.Version
	if version == "" {
		version = src.Ontology.VersionIRI
	}
	err = s.cache.Save(ctx, &cache.Entry{
		Metadata: cache.Metadata{
			Acronym:  handle.acronym,
			Source:   src.Location,
			Version:  version,
			BaseIRIs: baseIRIs,
		},
		Collection: coll,
	})
	s.metrics.RecordCacheOperation("save", err)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordOntologyTerms(handle.acronym, "load", coll.Len())
	return handle, nil
}

// CacheOntologySet caches every ontology listed in an ontology set file.
// Entries already cached at a satisfying version are kept unless refresh is
// set. Ontologies that fail to load are logged and skipped.
func (s *Service) CacheOntologySet(ctx context.Context, registryPath string, refresh bool) (map[string]*OntologyCache, error) {
	if s.cache == nil {
		return nil, errors.NewInvalidRequestError("no cache configured")
	}
	entries, err := cache.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	handles := make(map[string]*OntologyCache, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return handles, err
		}
		acronym := strings.ToUpper(e.Acronym)

		if !refresh && s.cache.Exists(acronym) {
			cachedVersion := ""
			if meta, err := s.cache.Metadata(ctx, acronym); err == nil {
				cachedVersion = meta.Version
			}
			if !cache.NeedsRefresh(cachedVersion, e.Version) {
				s.logger.Infow("Ontology already cached",
					logger.FieldAcronym, acronym,
					"version", cachedVersion,
				)
				if h, err := s.Handle(acronym); err == nil {
					handles[acronym] = h
				}
				continue
			}
		}

		h, err := s.CacheOntology(ctx, e.URL, acronym, nil)
		if err != nil {
			s.logger.Warnw("Skipping ontology",
				logger.FieldAcronym, acronym,
				logger.FieldURL, e.URL,
				logger.FieldError, err,
			)
			continue
		}
		handles[acronym] = h
	}
	return handles, nil
}
