package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.dir", DefaultCacheDir())

	v.SetDefault("mapping.mapper", DefaultMapper)
	v.SetDefault("mapping.max_mappings", DefaultMaxMappings)
	v.SetDefault("mapping.min_score", DefaultMinScore)
	v.SetDefault("mapping.term_type", DefaultTermType)
	v.SetDefault("mapping.exclude_deprecated", false)
	v.SetDefault("mapping.include_unmapped", false)
	v.SetDefault("mapping.separator", DefaultSeparator)

	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.requests_per_second", 5.0) // Zooma and BioPortal throttle bursts
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.allow_private", false)

	v.SetDefault("zooma.base_url", DefaultZoomaURL)
	v.SetDefault("bioportal.base_url", DefaultBioPortalURL)
	v.SetDefault("bioregistry.base_url", DefaultBioregistryURL)

	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.json", false)
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("bioportal.api_key", "ONTOMAP_BIOPORTAL_API_KEY", "BIOPORTAL_API_KEY")
	v.BindEnv("cache.dir", "ONTOMAP_CACHE_DIR")
}

// DefaultCacheDir returns ~/.ontomap/cache, or .ontomap-cache when no home directory exists
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ontomap-cache"
	}
	return filepath.Join(home, ".ontomap", "cache")
}

// Default returns a Config populated only from defaults
func Default() *Config {
	return &Config{
		Cache: CacheConfig{Dir: DefaultCacheDir()},
		Mapping: MappingConfig{
			Mapper:      DefaultMapper,
			MaxMappings: DefaultMaxMappings,
			MinScore:    DefaultMinScore,
			TermType:    DefaultTermType,
			Separator:   DefaultSeparator,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:    60,
			RequestsPerSecond: 5.0,
			MaxRetries:        3,
		},
		Zooma:       ZoomaConfig{BaseURL: DefaultZoomaURL},
		BioPortal:   BioPortalConfig{BaseURL: DefaultBioPortalURL},
		Bioregistry: BioregistryConfig{BaseURL: DefaultBioregistryURL},
	}
}
