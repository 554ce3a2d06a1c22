package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/teranos/ontomap/errors"
)

// Metadata describes one cached ontology
type Metadata struct {
	Acronym   string    `json:"acronym"`
	Source    string    `json:"source"`
	Version   string    `json:"version,omitempty"`
	BaseIRIs  []string  `json:"base_iris,omitempty"`
	TermCount int       `json:"term_count"`
	CachedAt  time.Time `json:"cached_at"`
}

// MetadataStore persists cache metadata in the ontology_cache table
type MetadataStore struct {
	db *sql.DB
}

// NewMetadataStore creates a store over an already migrated database
func NewMetadataStore(db *sql.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Upsert inserts or replaces the row for m.Acronym
func (s *MetadataStore) Upsert(ctx context.Context, m *Metadata) error {
	if m.Acronym == "" {
		return errors.New("acronym cannot be empty")
	}
	baseIRIs := m.BaseIRIs
	if baseIRIs == nil {
		baseIRIs = []string{}
	}
	baseJSON, err := json.Marshal(baseIRIs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal base IRIs")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ontology_cache (acronym, source, version, base_iris, term_count, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(acronym) DO UPDATE SET
			source = excluded.source,
			version = excluded.version,
			base_iris = excluded.base_iris,
			term_count = excluded.term_count,
			cached_at = excluded.cached_at`,
		m.Acronym, m.Source, m.Version, string(baseJSON), m.TermCount, m.CachedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to save metadata for %s", m.Acronym)
	}
	return nil
}

// Get returns the row for acronym, or ErrNotFound
func (s *MetadataStore) Get(ctx context.Context, acronym string) (*Metadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT acronym, source, version, base_iris, term_count, cached_at
		FROM ontology_cache WHERE acronym = ?`, acronym)

	m, err := scanMetadata(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("no metadata for %s", acronym)
	}
	return m, err
}

// List returns every row ordered by acronym
func (s *MetadataStore) List(ctx context.Context) ([]*Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acronym, source, version, base_iris, term_count, cached_at
		FROM ontology_cache ORDER BY acronym`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cached ontologies")
	}
	defer rows.Close()

	var out []*Metadata
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes the row for acronym; all rows when acronym is empty
func (s *MetadataStore) Delete(ctx context.Context, acronym string) error {
	var err error
	if acronym == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM ontology_cache`)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM ontology_cache WHERE acronym = ?`, acronym)
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete metadata")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetadata(row rowScanner) (*Metadata, error) {
	var (
		m        Metadata
		baseJSON string
		cachedAt string
	)
	if err := row.Scan(&m.Acronym, &m.Source, &m.Version, &baseJSON, &m.TermCount, &cachedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan metadata")
	}
	if err := json.Unmarshal([]byte(baseJSON), &m.BaseIRIs); err != nil {
		return nil, errors.Wrapf(err, "invalid base IRIs for %s", m.Acronym)
	}
	if len(m.BaseIRIs) == 0 {
		m.BaseIRIs = nil
	}
	t, err := time.Parse(time.RFC3339Nano, cachedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cached_at for %s", m.Acronym)
	}
	m.CachedAt = t
	return &m, nil
}
