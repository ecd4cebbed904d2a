package store

import (
	"errors"
	"strings"
)

// ErrNoLocation is returned by Open when neither location is set.
var ErrNoLocation = errors.New("no store location resolved")

// Open binds a store to the resolved locations. The SQLite location wins
// whenever it is set; the JSON document is used otherwise.
func Open(sqlitePath, jsonPath string) (Store, error) {
	switch {
	case strings.TrimSpace(sqlitePath) != "":
		s, err := NewSQLiteStore(sqlitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.TrimSpace(jsonPath) != "":
		s, err := NewJSONStore(jsonPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ErrNoLocation
	}
}

// BackendOf names the backend type of st.
func BackendOf(st Store) string {
	switch st.(type) {
	case *SQLiteStore:
		return BackendSQLite
	case *JSONStore:
		return BackendJSON
	default:
		return ""
	}
}
