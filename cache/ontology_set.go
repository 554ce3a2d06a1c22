package cache

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/teranos/ontomap/errors"
)

// SetEntry is one ontology listed in an ontology set file
type SetEntry struct {
	Acronym string `yaml:"acronym" toml:"acronym" json:"acronym"`
	Version string `yaml:"version" toml:"version" json:"version,omitempty"`
	URL     string `yaml:"url" toml:"url" json:"url"`
}

// ontologySet is the document shape of YAML and TOML set files
type ontologySet struct {
	Ontologies []SetEntry `yaml:"ontologies" toml:"ontologies"`
}

// LoadRegistry reads an ontology set file. The format follows the extension:
//
//	.csv          header row with acronym,version,url (version optional)
//	.yaml, .yml   ontologies: [{acronym, version, url}]
//	.toml         [[ontologies]] tables
func LoadRegistry(path string) ([]SetEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ontology set %s", path)
	}
	defer f.Close()

	var entries []SetEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		entries, err = readSetCSV(f)
	case ".yaml", ".yml":
		var doc ontologySet
		err = yaml.NewDecoder(f).Decode(&doc)
		if err == io.EOF {
			err = nil
		}
		entries = doc.Ontologies
	case ".toml":
		var doc ontologySet
		_, err = toml.NewDecoder(f).Decode(&doc)
		entries = doc.Ontologies
	default:
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("unsupported ontology set format %q", ext),
			"use a .csv, .yaml or .toml file",
		)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse ontology set %s", path)
	}
	return validateSet(entries)
}

func readSetCSV(r io.Reader) ([]SetEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := map[string]int{"acronym": -1, "version": -1, "url": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	if cols["acronym"] < 0 || cols["url"] < 0 {
		return nil, errors.NewInvalidRequestError("ontology set header must name acronym and url columns, got %v", header)
	}

	field := func(record []string, col string) string {
		i := cols[col]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entries []SetEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, SetEntry{
			Acronym: field(record, "acronym"),
			Version: field(record, "version"),
			URL:     field(record, "url"),
		})
	}
	return entries, nil
}

func validateSet(entries []SetEntry) ([]SetEntry, error) {
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		e := &entries[i]
		e.Acronym = strings.TrimSpace(e.Acronym)
		e.URL = strings.TrimSpace(e.URL)
		e.Version = strings.TrimSpace(e.Version)
		if e.Acronym == "" || e.URL == "" {
			return nil, errors.NewInvalidRequestError("ontology set entry %d needs an acronym and a url", i+1)
		}
		key := strings.ToUpper(e.Acronym)
		if seen[key] {
			return nil, errors.NewInvalidRequestError("ontology %s is listed twice", e.Acronym)
		}
		seen[key] = true
	}
	return entries, nil
}
