// Package sqlite is a reference backing-store sink: it persists a
// recordset.Set into a local SQLite database, standing in for the
// concrete key/blob store the core hands its output to. The real
// backing store is an external collaborator out of scope for this
// module.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/recordset"
)

// Sink writes record sets into one SQLite database, one table per
// fragment run to avoid collisions across concurrent jobs sharing a
// database file.
type Sink struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ophierr.Wrap(err, ophierr.SourceError, "open sqlite sink failed")
	}
	return &Sink{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Sink) Close() error { return s.db.Close() }

// WriteFragment persists set into a freshly named table frag_<id>,
// where <id> is the first 8 hex digits of a random uuid, returning the
// table name so the caller can record where the fragment landed.
func (s *Sink) WriteFragment(ctx context.Context, set *recordset.Set) (string, error) {
	table := "frag_" + shortID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", ophierr.Wrap(err, ophierr.SourceError, "begin sink transaction failed")
	}
	defer tx.Rollback()

	createStmt := fmt.Sprintf(`CREATE TABLE %s (id INTEGER PRIMARY KEY, payload BLOB NOT NULL)`, table)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return "", ophierr.Wrap(err, ophierr.SourceError, "create sink table failed")
	}

	insertStmt := fmt.Sprintf(`INSERT INTO %s (id, payload) VALUES (?, ?)`, table)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return "", ophierr.Wrap(err, ophierr.SourceError, "prepare sink insert failed")
	}
	defer stmt.Close()

	for _, row := range set.Rows {
		if _, err := stmt.ExecContext(ctx, int64(row.ID), row.Payload); err != nil {
			return "", ophierr.Wrap(err, ophierr.SourceError, "sink insert failed").WithDetail("id", row.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", ophierr.Wrap(err, ophierr.SourceError, "commit sink transaction failed")
	}
	return table, nil
}

func shortID() string {
	id := uuid.New()
	return id.String()[:8]
}
