package mapping

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/mapper"
	"github.com/teranos/ontomap/ontology"
)

// Options controls one mapping run
type Options struct {
	Mapper            mapper.Kind
	MaxMappings       int
	MinScore          float64
	BaseIRIs          []string // Keep only target terms under these IRIs
	ExcludeDeprecated bool
	TermType          ontology.TermType
	UseCache          bool // Target is a cache acronym instead of a source
	TargetLabels      bool // Target is a comma-separated list of labels to map onto
	IncludeUnmapped   bool // Emit a row tagged unmapped for terms without mappings
	SaveMappings      bool
	OutputFile        string // .json writes JSON, anything else CSV
	Separator         string // CSV field separator
	SaveGraphs        bool   // Write the hierarchy around each mapped term next to OutputFile
	BioPortalAPIKey   string
}

// DefaultOptions returns the built-in defaults
func DefaultOptions() Options {
	return Options{
		Mapper:      mapper.Kind(config.DefaultMapper),
		MaxMappings: config.DefaultMaxMappings,
		MinScore:    config.DefaultMinScore,
		TermType:    ontology.TermType(config.DefaultTermType),
		Separator:   config.DefaultSeparator,
	}
}

// OptionsFromConfig seeds options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	m := cfg.Mapping
	if m.Mapper != "" {
		opts.Mapper = mapper.Kind(m.Mapper)
	}
	if m.MaxMappings > 0 {
		opts.MaxMappings = m.MaxMappings
	}
	opts.MinScore = m.MinScore
	if m.TermType != "" {
		opts.TermType = ontology.TermType(m.TermType)
	}
	opts.ExcludeDeprecated = m.ExcludeDeprecated
	opts.IncludeUnmapped = m.IncludeUnmapped
	if m.Separator != "" {
		opts.Separator = m.Separator
	}
	opts.BioPortalAPIKey = cfg.BioPortal.APIKey
	return opts
}

// Validate checks and normalizes opts in place
func (o *Options) Validate() error {
	kind, err := mapper.ParseKind(string(o.Mapper))
	if err != nil {
		return err
	}
	o.Mapper = kind

	if o.MaxMappings < 1 {
		return errors.NewInvalidRequestError("max mappings must be at least 1, got %d", o.MaxMappings)
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		return errors.NewInvalidRequestError("min score must be between 0 and 1, got %g", o.MinScore)
	}

	termType, err := ontology.ParseTermType(string(o.TermType))
	if err != nil {
		return err
	}
	o.TermType = termType

	if o.Separator == "" {
		o.Separator = config.DefaultSeparator
	}
	if utf8.RuneCountInString(o.Separator) != 1 {
		return errors.NewInvalidRequestError("separator must be a single character, got %q", o.Separator)
	}

	if o.SaveMappings && o.OutputFile == "" {
		o.OutputFile = DefaultOutputFile(time.Now())
	}
	if o.TargetLabels && (o.UseCache || o.Mapper.Remote()) {
		return errors.WithHint(
			errors.NewInvalidRequestError("a label list target needs a local mapper and no cache"),
			"drop --use-cache and use a syntactic or tfidf mapper",
		)
	}
	if o.SaveGraphs && o.Mapper.Remote() {
		return errors.WithHint(
			errors.NewInvalidRequestError("term graphs need a local mapper, not %s", o.Mapper),
			"drop --save-graphs or use a syntactic or tfidf mapper",
		)
	}
	return nil
}

// DefaultOutputFile names the mappings file written when none is given
func DefaultOutputFile(now time.Time) string {
	return fmt.Sprintf("ontomap-mappings-%s.csv", now.Format("20060102-150405"))
}

func (o *Options) separatorRune() rune {
	r, _ := utf8.DecodeRuneInString(o.Separator)
	return r
}
