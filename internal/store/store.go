package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions, stored in PRAGMA user_version:
//
//	0 - empty file
//	1 - sequences, steps and facts
const currentSchemaVersion = 1

// ErrNotFound is returned by single-row reads when no row matches.
var ErrNotFound = errors.New("not found")

// pragma is a connection setting and the value SQLite reports once it holds.
type pragma struct {
	name   string
	set    string
	expect string
}

// runLogPragmas are applied on every Open. The journal check is skipped for
// in-memory databases, which report "memory".
var runLogPragmas = []pragma{
	{name: "journal_mode", set: "WAL", expect: "wal"},
	{name: "synchronous", set: "NORMAL", expect: "1"},
	{name: "busy_timeout", set: "5000", expect: "5000"},
	{name: "foreign_keys", set: "ON", expect: "1"},
}

// Store is the run log: one row per sequence, one per attempted step and one
// per recorded fact.
type Store struct {
	db       *sql.DB
	inMemory bool
}

// Open opens the run log at path, creating it when missing. ":memory:" opens
// a private database that disappears on Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: a single writer, and an in-memory database lives on
	// exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, inMemory: strings.Contains(path, ":memory:")}
	for _, p := range runLogPragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.set)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s: %w", p.name, err)
		}
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate creates the schema and stamps user_version. A log written by a
// newer schema is refused rather than read with the wrong column layout.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("run log schema %d is newer than supported schema %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if version == currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("write user_version: %w", err)
	}
	return nil
}

// checkPragmas reports the first setting that did not take effect.
func (s *Store) checkPragmas() error {
	for _, p := range runLogPragmas {
		if s.inMemory && p.name == "journal_mode" {
			continue
		}
		var got string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			return fmt.Errorf("read %s: %w", p.name, err)
		}
		if !strings.EqualFold(got, p.expect) {
			return fmt.Errorf("%s = %q, want %q", p.name, got, p.expect)
		}
	}
	return nil
}
