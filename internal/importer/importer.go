// Package importer normalizes externally supplied inventory documents into
// canonical component records ready for insertion into a store.
//
// Two document shapes are recognized. A flat list is a JSON array of records
// that already follow the canonical schema. A nested graph is an object whose
// "@graph" (or "collections") array holds collection objects, each carrying
// typed sub-collections such as "resistors" or "capacitors". Anything else
// yields zero records.
package importer

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/fs"
)

// Document formats reported in Result.Format.
const (
	FormatFlat    = "flat"
	FormatNested  = "nested"
	FormatUnknown = "unknown"
	FormatMissing = "missing"
)

// Record is a normalized component together with the provenance that
// should be stamped on it at insertion.
type Record struct {
	Component component.Component
	File      string
	Hash      string
}

// Result is the outcome of normalizing one document.
type Result struct {
	Format  string
	Records []Record
	// Invalid counts entries that could not be turned into a record.
	Invalid int
	// Collisions counts records whose provenance file repeats that of an
	// earlier, different record. The store keeps only the first of them.
	Collisions int
}

// Normalize converts a decoded document into canonical records. source is
// the path the document came from and is used only for provenance. Shapes
// that are not recognized produce an empty result, never an error.
func Normalize(doc any, source string) Result {
	base := filepath.Base(source)

	switch v := doc.(type) {
	case []any:
		return normalizeFlat(v, base)
	case map[string]any:
		if graph, ok := graphItems(v); ok {
			return normalizeNested(graph, base)
		}
	}

	return Result{Format: FormatUnknown}
}

// graphItems returns the collection array of a nested document.
func graphItems(doc map[string]any) ([]any, bool) {
	for _, key := range []string{"@graph", "collections"} {
		if items, ok := doc[key].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

// provenanceFile builds the synthetic file path for an imported record.
func provenanceFile(base, id string) string {
	return "imported_from_" + base + "_" + id
}

// contentHash hashes the sorted-key JSON serialization of v.
// encoding/json writes map keys in sorted order, which makes the
// serialization stable.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(fmt.Sprint(v))
	}
	return fs.HashContent(b)
}
