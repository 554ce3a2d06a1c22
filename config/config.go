// Package config loads ontomap settings from TOML files and ONTOMAP_* environment variables.
package config

// Config represents the ontomap configuration
type Config struct {
	Cache       CacheConfig       `mapstructure:"cache" toml:"cache"`
	Mapping     MappingConfig     `mapstructure:"mapping" toml:"mapping"`
	HTTP        HTTPConfig        `mapstructure:"http" toml:"http"`
	Zooma       ZoomaConfig       `mapstructure:"zooma" toml:"zooma"`
	BioPortal   BioPortalConfig   `mapstructure:"bioportal" toml:"bioportal"`
	Bioregistry BioregistryConfig `mapstructure:"bioregistry" toml:"bioregistry"`
	Metrics     MetricsConfig     `mapstructure:"metrics" toml:"metrics"`
	Log         LogConfig         `mapstructure:"log" toml:"log"`
}

// CacheConfig configures the on-disk ontology cache
type CacheConfig struct {
	Dir string `mapstructure:"dir" toml:"dir"` // Cache root (default: ~/.ontomap/cache)
}

// MappingConfig holds the defaults for a mapping run
type MappingConfig struct {
	Mapper            string  `mapstructure:"mapper" toml:"mapper"`                         // Mapper kind (default: tfidf)
	MaxMappings       int     `mapstructure:"max_mappings" toml:"max_mappings"`             // Candidates kept per source term
	MinScore          float64 `mapstructure:"min_score" toml:"min_score"`                   // Scores below this are dropped
	TermType          string  `mapstructure:"term_type" toml:"term_type"`                   // class, property, individual or any
	ExcludeDeprecated bool    `mapstructure:"exclude_deprecated" toml:"exclude_deprecated"` // Skip owl:deprecated terms
	IncludeUnmapped   bool    `mapstructure:"include_unmapped" toml:"include_unmapped"`     // Emit rows for unmapped terms
	Separator         string  `mapstructure:"separator" toml:"separator"`                   // Output CSV separator
}

// HTTPConfig configures remote calls (Zooma, BioPortal, bioregistry, downloads)
type HTTPConfig struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second"`
	MaxRetries        int     `mapstructure:"max_retries" toml:"max_retries"`
	AllowPrivate      bool    `mapstructure:"allow_private" toml:"allow_private"` // Permit private/loopback hosts
}

// ZoomaConfig configures the EBI Zooma annotation service
type ZoomaConfig struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
}

// BioPortalConfig configures the BioPortal Annotator
type BioPortalConfig struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
	APIKey  string `mapstructure:"api_key" toml:"api_key"`
}

// BioregistryConfig configures acronym resolution
type BioregistryConfig struct {
	BaseURL string `mapstructure:"base_url" toml:"base_url"`
}

// MetricsConfig configures the node exporter textfile
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" toml:"textfile"` // Empty disables the textfile
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// Mapping defaults
const (
	DefaultMapper      = "tfidf"
	DefaultMaxMappings = 3
	DefaultMinScore    = 0.3
	DefaultTermType    = "class"
	DefaultSeparator   = ","
)

// Remote service defaults
const (
	DefaultZoomaURL       = "https://www.ebi.ac.uk/spot/zooma/v2/api"
	DefaultBioPortalURL   = "https://data.bioontology.org"
	DefaultBioregistryURL = "https://bioregistry.io/api"
)
