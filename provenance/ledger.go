// Package provenance persists an audit trail of engine runs alongside the
// NetCDF output: which files were processed, how many samples each
// contributed, and what (if anything) went wrong. Grounded on the
// teacher's rtkrcv sqlx+clickhouse run-log wiring (app/rtkrcv/go.mod),
// swapped to modernc.org/sqlite for a dependency-free local ledger rather
// than a server database this batch engine has no standing connection to.
package provenance

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS run_ledger (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	file        TEXT NOT NULL,
	samples     INTEGER NOT NULL,
	masked      INTEGER NOT NULL,
	error       TEXT
);`

// Ledger records one row per processed obs file. A nil *Ledger is valid and
// every method on it is a no-op, so callers can construct one unconditionally
// from a possibly-empty configured path.
type Ledger struct {
	db *sqlx.DB
}

// Open opens (creating if absent) a sqlite-backed ledger at path. An empty
// path disables the ledger: Open returns (nil, nil).
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, nil
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// RecordRun appends one row describing the outcome of co-locating file.
// runErr's message (if any) is stored verbatim; a nil runErr leaves the
// error column null.
func (l *Ledger) RecordRun(file string, samples, masked int, runErr error) error {
	if l == nil {
		return nil
	}
	var errMsg interface{}
	if runErr != nil {
		errMsg = runErr.Error()
	}
	_, err := l.db.Exec(
		`INSERT INTO run_ledger (recorded_at, file, samples, masked, error) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), file, samples, masked, errMsg,
	)
	return err
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}
