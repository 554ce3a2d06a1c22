package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema file, versioned by its numeric prefix
type migration struct {
	file    string
	version string
}

func embeddedMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, _, _ := strings.Cut(entry.Name(), "_")
		out = append(out, migration{file: entry.Name(), version: version})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].file < out[j].file })
	return out, nil
}

// Migrate brings the cache schema up to date. Migration 000 creates
// schema_migrations, so only it may run before that table exists.
// A nil log runs silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	all, err := embeddedMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range all {
		done, err := isApplied(db, m)
		if err != nil {
			return err
		}
		if done {
			log.Debugw("Cache schema migration already applied", logger.FieldFile, m.file)
			continue
		}

		log.Infow("Applying cache schema migration",
			logger.FieldFile, m.file,
			"version", m.version,
		)
		if err := applyMigration(db, m); err != nil {
			return err
		}
		applied++
	}

	log.Debugw("Cache schema up to date",
		logger.FieldCount, applied,
		logger.FieldTotalCount, len(all),
	)
	return nil
}

func isApplied(db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	switch {
	case err == nil:
		return exists, nil
	case m.version == "000":
		return false, nil
	}
	return false, errors.Wrapf(err, "schema_migrations missing before %s", m.file)
}

// applyMigration runs m and records it in one transaction
func applyMigration(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", m.file)
}
