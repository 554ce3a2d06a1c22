package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/ontomap/errors"
)

// ProjectConfigName is the per-project config file searched upward from the working directory
const ProjectConfigName = "ontomap.toml"

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the ontomap configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only, no environment binding for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("ONTOMAP")
	v.SetEnvKeyReplacer(replacer())
	v.AutomaticEnv()

	BindSensitiveEnvVars(v)
	SetDefaults(v)

	// system -> user -> project, env vars stay on top
	mergeConfigFiles(v, configPaths())

	viperInstance = v
	return v
}

// replacer maps dotted keys to ONTOMAP_SECTION_KEY variables
func replacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// UserConfigPath returns ~/.ontomap/config.toml
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ontomap", "config.toml")
}

// configPaths lists candidate config files from lowest to highest precedence
func configPaths() []string {
	paths := []string{"/etc/ontomap/config.toml"}
	if user := UserConfigPath(); user != "" {
		paths = append(paths, user)
	}
	if wd, err := os.Getwd(); err == nil {
		if project := findProjectConfig(wd); project != "" {
			paths = append(paths, project)
		}
	}
	return paths
}

// findProjectConfig walks up from dir looking for ontomap.toml.
// Returns the path to the first file found, or empty string if none found
func findProjectConfig(dir string) string {
	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// mergeConfigFiles merges existing config files into v in the given order.
// Unreadable files are skipped.
func mergeConfigFiles(v *viper.Viper, paths []string) {
	for _, configPath := range paths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(configPath)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// MergeConfigMap keeps environment variables above file values
		_ = v.MergeConfigMap(tempViper.AllSettings())
	}
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}

// GetFloat64 returns a configuration value as float64 using dot notation
func GetFloat64(key string) float64 {
	return initViper().GetFloat64(key)
}
