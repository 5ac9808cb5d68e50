// Package manifest keeps a sqlite record of every chart a batch run touched.
package manifest

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Status of one encode attempt
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// ErrNotFound is returned by Get for an unknown source
var ErrNotFound = errors.New("manifest entry not found")

// Entry describes the outcome for one source chart
type Entry struct {
	Source    string
	Name      string
	Status    Status
	ErrorKind string
	Message   string
	Rows      int
	Events    int
	Sliders   int
	Dropped   int
	Output    string
	Bytes     int64
	UpdatedAt time.Time
}

// Store is a manifest backed by a sqlite file
type Store struct {
	db *sql.DB
}

const schema = `
create table if not exists entries
  (
	  source text not null primary key,
	  name text not null,
	  status text not null,
	  error_kind text not null default '',
	  message text not null default '',
	  grid_rows integer not null default 0,
	  events integer not null default 0,
	  sliders integer not null default 0,
	  dropped integer not null default 0,
	  output text not null default '',
	  bytes integer not null default 0,
	  updated_at integer not null
  );
`

const columns = `source, name, status, error_kind, message, grid_rows, events, sliders, dropped, output, bytes, updated_at`

// Open opens or creates the manifest at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init manifest %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts or replaces the entry for e.Source
func (s *Store) Record(e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
	insert into entries (`+columns+`)
	values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	on conflict(source) do update set
	  name = excluded.name,
	  status = excluded.status,
	  error_kind = excluded.error_kind,
	  message = excluded.message,
	  grid_rows = excluded.grid_rows,
	  events = excluded.events,
	  sliders = excluded.sliders,
	  dropped = excluded.dropped,
	  output = excluded.output,
	  bytes = excluded.bytes,
	  updated_at = excluded.updated_at
	`, e.Source, e.Name, string(e.Status), e.ErrorKind, e.Message, e.Rows, e.Events,
		e.Sliders, e.Dropped, e.Output, e.Bytes, e.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", e.Source, err)
	}
	return nil
}

// Get returns the entry for source
func (s *Store) Get(source string) (Entry, error) {
	row := s.db.QueryRow(`select `+columns+` from entries where source = ?`, source)
	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w: %s", ErrNotFound, source)
	}
	return e, err
}

// List returns every entry ordered by source
func (s *Store) List() ([]Entry, error) {
	return s.query(`select ` + columns + ` from entries order by source`)
}

// Failures returns the failed entries ordered by source
func (s *Store) Failures() ([]Entry, error) {
	return s.query(`select `+columns+` from entries where status = ? order by source`, string(StatusFailed))
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Entry, error) {
	var e Entry
	var status string
	var updated int64
	err := r.Scan(&e.Source, &e.Name, &status, &e.ErrorKind, &e.Message, &e.Rows, &e.Events,
		&e.Sliders, &e.Dropped, &e.Output, &e.Bytes, &updated)
	if err != nil {
		return e, err
	}
	e.Status = Status(status)
	e.UpdatedAt = time.UnixMilli(updated)
	return e, nil
}
