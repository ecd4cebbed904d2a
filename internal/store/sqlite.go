package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"github.com/partsbin/partsbin/internal/component"
)

// SQLiteStore implements Store on one SQLite table. Each row holds the
// encoded record with id, file and hash promoted to indexed columns.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLiteStore creates or opens the SQLite store at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Debug("Opened SQLite store", "path", dbPath)

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HasFile reports whether a record originated from path.
func (s *SQLiteStore) HasFile(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists("file", path)
}

// HasHash reports whether a record carries hash.
func (s *SQLiteStore) HasHash(hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists("hash", hash)
}

// exists checks a unique column for value. column is never user input.
func (s *SQLiteStore) exists(column, value string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM components WHERE "+column+" = ? LIMIT 1", value).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", column, err)
	}
	return true, nil
}

// Add inserts c unless its file, hash or id already exists.
func (s *SQLiteStore) Add(c component.Component, file, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, check := range []struct{ column, value string }{
		{"file", file},
		{"hash", hash},
		{"id", c.ID()},
	} {
		if check.column == "id" && check.value == "" {
			continue
		}
		found, err := s.exists(check.column, check.value)
		if err != nil {
			return false, err
		}
		if found {
			return false, nil
		}
	}

	rec := prepare(c, file, hash)
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode component: %w", err)
	}

	_, err = s.db.Exec("INSERT INTO components (id, file, hash, data) VALUES (?, ?, ?, ?)",
		rec.ID(), file, hash, string(data))
	if err != nil {
		if isConstraint(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert component: %w", err)
	}

	stamp(c, rec)
	log.Debug("Added component", "id", rec.ID(), "file", file)
	return true, nil
}

// ListAll returns records in insertion order.
func (s *SQLiteStore) ListAll(opts *ListOptions) ([]component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit, offset := -1, 0
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		if opts.Offset > 0 {
			offset = opts.Offset
		}
	}

	return s.query("SELECT data FROM components ORDER BY rowid LIMIT ? OFFSET ?", limit, offset)
}

// Search scans every row and matches in process, since the payload is
// opaque to the query planner.
func (s *SQLiteStore) Search(query, field string) ([]component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.query("SELECT data FROM components ORDER BY rowid")
	if err != nil {
		return nil, err
	}

	results := []component.Component{}
	for _, c := range all {
		if matches(c, query, field) {
			results = append(results, c)
		}
	}
	return results, nil
}

// GetByID returns the record with id, or nil if there is none.
func (s *SQLiteStore) GetByID(id string) (component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *SQLiteStore) get(id string) (component.Component, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM components WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return decodeComponent(data)
}

// Update merges fields into the record with id.
func (s *SQLiteStore) Update(id string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.get(id)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}

	merge(c, fields)
	data, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("failed to encode component: %w", err)
	}

	result, err := s.db.Exec("UPDATE components SET data = ? WHERE id = ?", string(data), id)
	if err != nil {
		return false, fmt.Errorf("failed to update component: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update component: %w", err)
	}
	return n > 0, nil
}

// Delete removes the record with id.
func (s *SQLiteStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM components WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete component: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete component: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of records.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM components").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count components: %w", err)
	}
	return n, nil
}

// GetStats aggregates the record set.
func (s *SQLiteStore) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.query("SELECT data FROM components ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	return computeStats(all, s.path), nil
}

// ImportDB imports the document at path. Each record commits on its own.
func (s *SQLiteStore) ImportDB(path string) (*ImportSummary, error) {
	return importInto(s, path)
}

// query runs a statement selecting the data column and decodes every row.
func (s *SQLiteStore) query(q string, args ...any) ([]component.Component, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	results := []component.Component{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		c, err := decodeComponent(data)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	return results, rows.Err()
}

// isConstraint reports whether err is a UNIQUE or PRIMARY KEY violation.
func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
