// Package cache stores collected ontology terms on disk so later mapping
// runs can skip downloading and parsing the ontology.
//
// Layout under the cache directory:
//
//	cache.db                      metadata registry (SQLite)
//	<ACRONYM>/terms.json.zst      zstd-compressed term collection
//
// An entry exists when its terms file exists; the registry is only consulted
// for listing and refresh decisions.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/teranos/ontomap/config"
	"github.com/teranos/ontomap/db"
	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
	"github.com/teranos/ontomap/ontology"
)

const (
	// DBFileName is the metadata registry inside the cache directory
	DBFileName = "cache.db"
	// TermsFileName is the collection file inside each entry directory
	TermsFileName = "terms.json.zst"
)

var acronymPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Entry is a cached term collection with its metadata
type Entry struct {
	Metadata
	Collection *ontology.Collection `json:"-"`
}

// Manager reads and writes cache entries
type Manager struct {
	dir    string
	db     *sql.DB
	store  *MetadataStore
	logger *zap.SugaredLogger
}

// Open creates dir if needed and opens its metadata registry
func Open(dir string) (*Manager, error) {
	if dir == "" {
		return nil, errors.NewInvalidRequestError("cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "create cache directory %s", dir)
	}
	log := logger.ComponentLogger("cache")
	conn, err := db.OpenWithMigrations(filepath.Join(dir, DBFileName), log)
	if err != nil {
		return nil, err
	}
	return NewManager(dir, conn), nil
}

// NewManager wraps an already migrated database. Used by Open and tests.
func NewManager(dir string, conn *sql.DB) *Manager {
	return &Manager{
		dir:    dir,
		db:     conn,
		store:  NewMetadataStore(conn),
		logger: logger.ComponentLogger("cache"),
	}
}

// Dir returns the cache directory
func (m *Manager) Dir() string { return m.dir }

// Close releases the registry connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// NormalizeAcronym upper-cases acronym and rejects names unsafe as directory names
func NormalizeAcronym(acronym string) (string, error) {
	acronym = strings.TrimSpace(acronym)
	if !acronymPattern.MatchString(acronym) {
		return "", errors.NewInvalidRequestError("invalid cache acronym %q", acronym)
	}
	return strings.ToUpper(acronym), nil
}

func (m *Manager) termsPath(acronym string) string {
	return filepath.Join(m.dir, acronym, TermsFileName)
}

// Exists reports whether a terms file is present for acronym
func (m *Manager) Exists(acronym string) bool {
	acronym, err := NormalizeAcronym(acronym)
	if err != nil {
		return false
	}
	info, err := os.Stat(m.termsPath(acronym))
	return err == nil && !info.IsDir()
}

// Save writes the collection then upserts its metadata.
// The terms file is replaced atomically.
func (m *Manager) Save(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Collection == nil {
		return errors.NewInvalidRequestError("nothing to cache")
	}
	acronym, err := NormalizeAcronym(entry.Acronym)
	if err != nil {
		return err
	}
	entry.Acronym = acronym
	entry.TermCount = entry.Collection.Len()
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	entryDir := filepath.Join(m.dir, acronym)
	if err := os.MkdirAll(entryDir, config.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "create cache entry %s", acronym)
	}

	tmp, err := os.CreateTemp(entryDir, TermsFileName+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", acronym)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeCollection(tmp, entry.Collection); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write cache %s", acronym)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close cache %s", acronym)
	}
	if err := os.Chmod(tmpPath, config.DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "chmod cache %s", acronym)
	}
	if err := os.Rename(tmpPath, m.termsPath(acronym)); err != nil {
		return errors.Wrapf(err, "install cache %s", acronym)
	}

	if err := m.store.Upsert(ctx, &entry.Metadata); err != nil {
		return m.registryErr(err)
	}

	m.logger.Infow("Cached ontology",
		logger.FieldAcronym, acronym,
		logger.FieldCount, entry.TermCount,
		logger.FieldPath, m.termsPath(acronym),
	)
	return nil
}

// Load reads the entry for acronym. Any failure to read the terms file is a
// cache miss; registry metadata is attached when available.
func (m *Manager) Load(ctx context.Context, acronym string) (*Entry, error) {
	normalized, err := NormalizeAcronym(acronym)
	if err != nil {
		return nil, errors.WrapCacheMiss(err, acronym)
	}

	f, err := os.Open(m.termsPath(normalized))
	if err != nil {
		return nil, errors.WrapCacheMiss(err, normalized)
	}
	defer f.Close()

	coll, err := readCollection(f)
	if err != nil {
		return nil, errors.WrapCacheMiss(err, normalized)
	}

	entry := &Entry{Collection: coll}
	meta, err := m.store.Get(ctx, normalized)
	switch {
	case err == nil:
		entry.Metadata = *meta
	case errors.IsNotFoundError(err):
		entry.Acronym = normalized
	default:
		m.logger.Warnw("Cache metadata unavailable",
			logger.FieldAcronym, normalized,
			logger.FieldError, err,
		)
		entry.Acronym = normalized
	}
	entry.TermCount = coll.Len()

	m.logger.Debugw("Loaded cached ontology",
		logger.FieldAcronym, normalized,
		logger.FieldCount, entry.TermCount,
	)
	return entry, nil
}

// Metadata returns the registry row for acronym, or ErrNotFound
func (m *Manager) Metadata(ctx context.Context, acronym string) (*Metadata, error) {
	normalized, err := NormalizeAcronym(acronym)
	if err != nil {
		return nil, err
	}
	meta, err := m.store.Get(ctx, normalized)
	if err != nil && !errors.IsNotFoundError(err) {
		return nil, m.registryErr(err)
	}
	return meta, err
}

// List returns the metadata of every registered entry, ordered by acronym
func (m *Manager) List(ctx context.Context) ([]*Metadata, error) {
	list, err := m.store.List(ctx)
	if err != nil {
		return nil, m.registryErr(err)
	}
	return list, nil
}

// Clear removes the entry for acronym, or every entry when acronym is empty
func (m *Manager) Clear(ctx context.Context, acronym string) error {
	if acronym == "" {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			return errors.Wrapf(err, "read cache directory %s", m.dir)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if err := os.RemoveAll(filepath.Join(m.dir, e.Name())); err != nil {
				return errors.Wrapf(err, "remove cache %s", e.Name())
			}
		}
		if err := m.store.Delete(ctx, ""); err != nil {
			return m.registryErr(err)
		}
		m.logger.Infow("Cleared cache", logger.FieldPath, m.dir)
		return nil
	}

	normalized, err := NormalizeAcronym(acronym)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(m.dir, normalized)); err != nil {
		return errors.Wrapf(err, "remove cache %s", normalized)
	}
	if err := m.store.Delete(ctx, normalized); err != nil {
		return m.registryErr(err)
	}
	m.logger.Infow("Cleared cache", logger.FieldAcronym, normalized)
	return nil
}

func (m *Manager) registryErr(err error) error {
	if m.db == nil || db.IsDatabaseClosed(err) {
		return errors.WithHint(errors.Mark(err, db.ErrDatabaseClosed), "the cache manager was closed")
	}
	return err
}

// writeCollection encodes coll as zstd-compressed JSON
func writeCollection(w io.Writer, coll *ontology.Collection) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(coll); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// readCollection decodes a collection written by writeCollection
func readCollection(r io.Reader) (*ontology.Collection, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var coll ontology.Collection
	if err := json.NewDecoder(dec).Decode(&coll); err != nil {
		return nil, errors.Wrap(err, "decode terms")
	}
	return &coll, nil
}
