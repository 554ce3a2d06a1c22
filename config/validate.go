package config

import "github.com/teranos/ontomap/errors"

// knownMappers mirrors the mapper kinds accepted by the mapper package
var knownMappers = map[string]bool{
	"levenshtein": true,
	"jaro":        true,
	"jarowinkler": true,
	"jaccard":     true,
	"indel":       true,
	"fuzzy":       true,
	"soundex":     true,
	"tfidf":       true,
	"zooma":       true,
	"bioportal":   true,
}

var knownTermTypes = map[string]bool{
	"class":      true,
	"property":   true,
	"individual": true,
	"any":        true,
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Cache.Dir == "" {
		return errors.New("cache.dir cannot be empty")
	}

	if !knownMappers[c.Mapping.Mapper] {
		return errors.WithHint(
			errors.Newf("mapping.mapper %q is not a known mapper", c.Mapping.Mapper),
			"use one of levenshtein, jaro, jarowinkler, jaccard, indel, fuzzy, soundex, tfidf, zooma, bioportal",
		)
	}
	if c.Mapping.MaxMappings < 1 {
		return errors.Newf("mapping.max_mappings must be >= 1, got %d", c.Mapping.MaxMappings)
	}
	if c.Mapping.MinScore < 0 || c.Mapping.MinScore > 1 {
		return errors.Newf("mapping.min_score must be within [0,1], got %f", c.Mapping.MinScore)
	}
	if !knownTermTypes[c.Mapping.TermType] {
		return errors.Newf("mapping.term_type must be class, property, individual or any, got %q", c.Mapping.TermType)
	}
	if len([]rune(c.Mapping.Separator)) != 1 {
		return errors.Newf("mapping.separator must be a single character, got %q", c.Mapping.Separator)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.Newf("http.timeout_seconds must be > 0, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.RequestsPerSecond <= 0 {
		return errors.Newf("http.requests_per_second must be > 0, got %f", c.HTTP.RequestsPerSecond)
	}
	// 0 = single attempt
	if c.HTTP.MaxRetries < 0 {
		return errors.Newf("http.max_retries must be >= 0, got %d", c.HTTP.MaxRetries)
	}

	if c.Zooma.BaseURL == "" {
		return errors.New("zooma.base_url cannot be empty")
	}
	if c.BioPortal.BaseURL == "" {
		return errors.New("bioportal.base_url cannot be empty")
	}
	if c.Bioregistry.BaseURL == "" {
		return errors.New("bioregistry.base_url cannot be empty")
	}

	return nil
}
