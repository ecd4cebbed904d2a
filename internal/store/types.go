// Package store persists component records in a JSON document file or an
// SQLite database behind one interface.
package store

import "encoding/json"

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// ListOptions contains options for listing components.
type ListOptions struct {
	// Limit caps the number of records returned. Zero or less means no cap.
	Limit  int
	Offset int
}

// Stats contains aggregate statistics about a store.
type Stats struct {
	TotalComponents int            `json:"total_components"`
	TotalQuantity   int            `json:"total_quantity"`
	Types           map[string]int `json:"types"`
	// MostCommonType is empty for an empty store and encodes as null.
	MostCommonType string `json:"most_common_type"`
	DatabasePath   string `json:"database_path"`
}

// MarshalJSON encodes an empty MostCommonType as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats
	out := struct {
		alias
		MostCommonType *string `json:"most_common_type"`
	}{alias: alias(s)}
	if s.MostCommonType != "" {
		out.MostCommonType = &s.MostCommonType
	}
	return json.Marshal(out)
}

// ImportSummary reports what an import did.
type ImportSummary struct {
	Source string `json:"source"`
	Format string `json:"format"`
	// Total is the number of records the document normalized into.
	Total int `json:"total"`
	Added int `json:"added"`
	// Skipped counts records rejected by the dedup invariants.
	Skipped int `json:"skipped"`
	// Invalid counts entries that could not be normalized at all.
	Invalid int `json:"invalid"`
}
