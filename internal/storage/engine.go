// Package storage is the record store: one SQLite table per entity kind,
// holding each record as a JSON payload beside an optional embedding
// vector. It never computes embeddings and never checks cross-table
// references.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
	"github.com/lhl/realitycheck/internal/model"
)

// FileName is the database file inside a data directory
const FileName = "registry.db"

//go:embed migrations/*.sql
var migrations embed.FS

// Options configures an Engine
type Options struct {
	Dim    int // Required vector length; 0 accepts any
	Logger *zap.Logger
}

// Engine owns the database handle shared by all tables
type Engine struct {
	db     *sql.DB
	path   string
	dim    int
	logger *zap.Logger
}

// Open opens (creating if needed) the database in dir and applies pending
// migrations
func Open(dir string, opts Options) (*Engine, error) {
	log := logger.OrNop(opts.Logger)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create data directory %s", dir)
	}
	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// Pragmas are per connection; keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "apply %q", pragma)
		}
	}

	if err := migrate(db, log); err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("Database opened", zap.String("path", path), zap.Int("dim", opts.Dim))
	return &Engine{db: db, path: path, dim: opts.Dim, logger: log}, nil
}

// Path returns the database file path
func (e *Engine) Path() string { return e.path }

// Dim returns the enforced vector length (0 = any)
func (e *Engine) Dim() int { return e.dim }

// Close releases the database handle
func (e *Engine) Close() error {
	return e.db.Close()
}

// Reset empties a table and restarts its insertion sequence. Destructive:
// callers must obtain confirmation first.
func (e *Engine) Reset(ctx context.Context, kind model.Kind) error {
	name, err := tableName(kind)
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reset")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "clear %s", name)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", name); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "reset sequence of %s", name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit reset of %s", name)
	}

	e.logger.Warn("Table reset", zap.String("table", name))
	return nil
}

func tableName(kind model.Kind) (string, error) {
	for _, k := range model.Kinds {
		if k == kind {
			return string(k), nil
		}
	}
	return "", errors.Wrapf(errors.ErrUnknownTable, "%q", kind)
}

// migrate applies embedded migrations in filename order, recording each
// version in schema_migrations
func migrate(db *sql.DB, log *zap.Logger) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, filename := range files {
		version := strings.SplitN(filename, "_", 2)[0]

		var exists bool
		err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version).Scan(&exists)
		if err != nil {
			// schema_migrations is created by 000
			if version != "000" {
				return errors.Newf("schema_migrations table missing, but migration is not 000: %s", filename)
			}
		} else if exists {
			continue
		}

		body, err := migrations.ReadFile("migrations/" + filename)
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", filename)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "execute %s", filename)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", filename)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", filename)
		}
		log.Debug("Applied migration", zap.String("migration", filename))
	}
	return nil
}
