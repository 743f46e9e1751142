// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using the standard database/sql package.
//
// SQLite keeps the whole registry in a single file on disk: no network,
// no separate server process, nothing to install beyond the driver.
//
// The blank import below registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/personas-team/personas-api/internal/storage"
	"github.com/personas-team/personas-api/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// The *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// selectColumns is shared by every read so Scan order stays in one place.
const selectColumns = "SELECT id, name, age, role FROM personas"

// New opens (or creates) the SQLite database at path, applies pragmas and
// the schema migrations, and returns a ready-to-use *SQLite.
//
// Calling New repeatedly against the same file is safe; the schema step is
// a no-op once the table exists.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	// SQLite allows a single writer. One connection keeps the pragmas below
	// in effect for every query and avoids SQLITE_BUSY between our own
	// connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: pragmas: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	if s.Db == nil {
		return nil
	}
	return s.Db.Close()
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx, so lookups can run
// inside or outside a transaction.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getPerson fetches one row by primary key. sql.ErrNoRows is translated to
// storage.ErrNotFound so callers never see the driver's sentinel.
func getPerson(ctx context.Context, q rowQuerier, id int64) (types.Person, error) {
	var p types.Person

	err := q.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", id).
		Scan(&p.ID, &p.Name, &p.Age, &p.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Person{}, storage.ErrNotFound
		}
		return types.Person{}, fmt.Errorf("getPerson: scan: %w", err)
	}

	return p, nil
}

// CreatePerson inserts a new row. Values travel as ? placeholders, never
// as part of the SQL text.
func (s *SQLite) CreatePerson(ctx context.Context, in types.PersonCreate) (types.Person, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO personas (name, age, role) VALUES (?, ?, ?)",
	)
	if err != nil {
		return types.Person{}, fmt.Errorf("CreatePerson: prepare: %w", err)
	}
	defer stmt.Close()

	age := 0
	if in.Age != nil {
		age = *in.Age
	}

	result, err := stmt.ExecContext(ctx, in.Name, age, in.Role)
	if err != nil {
		return types.Person{}, fmt.Errorf("CreatePerson: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return types.Person{}, fmt.Errorf("CreatePerson: last insert id: %w", err)
	}

	return types.Person{ID: lastID, Name: in.Name, Age: age, Role: in.Role}, nil
}

// GetPersonByID fetches exactly one person by primary key.
func (s *SQLite) GetPersonByID(ctx context.Context, id int64) (types.Person, error) {
	return getPerson(ctx, s.Db, id)
}

// ListPersons returns a window of persons in id order.
func (s *SQLite) ListPersons(ctx context.Context, p types.ListParams) ([]types.Person, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		selectColumns+" ORDER BY id LIMIT ? OFFSET ?",
	)
	if err != nil {
		return nil, fmt.Errorf("ListPersons: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, p.Limit, p.Skip)
	if err != nil {
		return nil, fmt.Errorf("ListPersons: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty table encodes as [] rather than null.
	persons := make([]types.Person, 0)

	for rows.Next() {
		var person types.Person
		if err := rows.Scan(&person.ID, &person.Name, &person.Age, &person.Role); err != nil {
			return nil, fmt.Errorf("ListPersons: scan row: %w", err)
		}
		persons = append(persons, person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPersons: rows iteration: %w", err)
	}

	return persons, nil
}

// UpdatePersonByID writes only the columns present in u.
//
// The existence check, the UPDATE and the re-read share one transaction so
// the returned record is exactly what was committed.
func (s *SQLite) UpdatePersonByID(ctx context.Context, id int64, u types.PersonUpdate) (types.Person, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Person{}, fmt.Errorf("UpdatePersonByID: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	current, err := getPerson(ctx, tx, id)
	if err != nil {
		return types.Person{}, err
	}

	if u.IsEmpty() {
		return current, nil
	}

	query, args := updateQuery(id, u)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return types.Person{}, fmt.Errorf("UpdatePersonByID: exec: %w", err)
	}

	updated, err := getPerson(ctx, tx, id)
	if err != nil {
		return types.Person{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Person{}, fmt.Errorf("UpdatePersonByID: commit: %w", err)
	}

	return updated, nil
}

// updateQuery builds "UPDATE personas SET ... WHERE id = ?" from the
// non-nil fields of u. Column names come from this fixed list, only the
// values are user input.
func updateQuery(id int64, u types.PersonUpdate) (string, []any) {
	var (
		sets []string
		args []any
	)

	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Age != nil {
		sets = append(sets, "age = ?")
		args = append(args, *u.Age)
	}
	if u.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *u.Role)
	}

	args = append(args, id)
	return "UPDATE personas SET " + strings.Join(sets, ", ") + " WHERE id = ?", args
}

// DeletePersonByID removes a person and returns the row as it was just
// before removal.
func (s *SQLite) DeletePersonByID(ctx context.Context, id int64) (types.Person, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Person{}, fmt.Errorf("DeletePersonByID: begin: %w", err)
	}
	defer tx.Rollback()

	snapshot, err := getPerson(ctx, tx, id)
	if err != nil {
		return types.Person{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM personas WHERE id = ?", id); err != nil {
		return types.Person{}, fmt.Errorf("DeletePersonByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Person{}, fmt.Errorf("DeletePersonByID: commit: %w", err)
	}

	return snapshot, nil
}
