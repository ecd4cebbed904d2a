package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/partsbin/partsbin/internal/component"
)

// JSONStore implements Store on a single JSON document holding an array of
// records. The whole set lives in memory and every mutation rewrites the
// file. It is safe for concurrent use within one process only.
type JSONStore struct {
	path    string
	records []component.Component
	mu      sync.RWMutex
}

// NewJSONStore opens the document store at path. A missing or empty file
// starts an empty store; the file is created on the first mutation.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("failed to decode store file %s: %w", path, err)
		}
	}

	log.Debug("Opened JSON store", "path", path, "records", len(s.records))

	return s, nil
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

// Close releases the store. The document has no open handle.
func (s *JSONStore) Close() error {
	return nil
}

// HasFile reports whether a record originated from path.
func (s *JSONStore) HasFile(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexBy(component.FieldFile, path) >= 0, nil
}

// HasHash reports whether a record carries hash.
func (s *JSONStore) HasHash(hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexBy(component.FieldHash, hash) >= 0, nil
}

// Add inserts c unless its file, hash or id already exists.
func (s *JSONStore) Add(c component.Component, file, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexBy(component.FieldFile, file) >= 0 || s.indexBy(component.FieldHash, hash) >= 0 {
		return false, nil
	}
	if id := c.ID(); id != "" && s.indexBy(component.FieldID, id) >= 0 {
		return false, nil
	}

	rec, err := canonical(prepare(c, file, hash))
	if err != nil {
		return false, err
	}
	s.records = append(s.records, rec)
	if err := s.save(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return false, err
	}

	stamp(c, rec)
	log.Debug("Added component", "id", rec.ID(), "file", file)
	return true, nil
}

// ListAll returns records in insertion order.
func (s *JSONStore) ListAll(opts *ListOptions) ([]component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(paginate(s.records, opts)), nil
}

// Search returns every record matching query, in store order.
func (s *JSONStore) Search(query, field string) ([]component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []component.Component{}
	for _, c := range s.records {
		if matches(c, query, field) {
			results = append(results, deepCopy(c))
		}
	}
	return results, nil
}

// GetByID returns the record with id, or nil if there is none.
func (s *JSONStore) GetByID(id string) (component.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexBy(component.FieldID, id)
	if i < 0 {
		return nil, nil
	}
	return deepCopy(s.records[i]), nil
}

// Update merges fields into the record with id.
func (s *JSONStore) Update(id string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexBy(component.FieldID, id)
	if i < 0 {
		return false, nil
	}

	prev := s.records[i]
	next := prev.Clone()
	merge(next, fields)
	next, err := canonical(next)
	if err != nil {
		return false, err
	}
	s.records[i] = next
	if err := s.save(); err != nil {
		s.records[i] = prev
		return false, err
	}
	return true, nil
}

// Delete removes the record with id.
func (s *JSONStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexBy(component.FieldID, id)
	if i < 0 {
		return false, nil
	}

	prev := s.records
	next := make([]component.Component, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	s.records = next
	if err := s.save(); err != nil {
		s.records = prev
		return false, err
	}
	return true, nil
}

// Count returns the number of records.
func (s *JSONStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// GetStats aggregates the record set.
func (s *JSONStore) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return computeStats(s.records, s.path), nil
}

// ImportDB imports the document at path.
func (s *JSONStore) ImportDB(path string) (*ImportSummary, error) {
	return importInto(s, path)
}

// indexBy returns the position of the first record whose key equals
// value, or -1. Callers hold the lock.
func (s *JSONStore) indexBy(key, value string) int {
	for i, c := range s.records {
		if _, ok := c[key]; ok && c.String(key) == value {
			return i
		}
	}
	return -1
}

// save rewrites the whole document through a temp file in the same
// directory so readers never see a partial write.
func (s *JSONStore) save() error {
	records := s.records
	if records == nil {
		records = []component.Component{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	return nil
}

func cloneAll(records []component.Component) []component.Component {
	out := make([]component.Component, len(records))
	for i, c := range records {
		out[i] = deepCopy(c)
	}
	return out
}

// deepCopy copies a stored record so callers cannot reach into the
// in-memory set. Stored records hold only JSON-decoded values.
func deepCopy(c component.Component) component.Component {
	out := make(component.Component, len(c))
	for k, v := range c {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = copyValue(e)
		}
		return m
	case []any:
		l := make([]any, len(val))
		for i, e := range val {
			l[i] = copyValue(e)
		}
		return l
	default:
		return v
	}
}
