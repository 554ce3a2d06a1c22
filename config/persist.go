package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/ontomap/errors"
)

// WriteFile writes cfg as TOML to path, creating parent directories.
// An existing file is left untouched unless overwrite is set.
func WriteFile(cfg *Config, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.WithHint(
				errors.Newf("config file %s already exists", path),
				"pass --force to overwrite it",
			)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	return nil
}

// Init writes the default configuration to path
func Init(path string, overwrite bool) error {
	return WriteFile(Default(), path, overwrite)
}
