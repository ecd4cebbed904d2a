package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/importer"
)

// searchFields are concatenated for searches without a field.
var searchFields = []string{
	component.FieldDescription,
	component.FieldType,
	component.FieldValue,
	component.FieldPartNumber,
}

// protectedFields survive every Update unchanged.
var protectedFields = map[string]bool{
	component.FieldID:   true,
	component.FieldFile: true,
	component.FieldHash: true,
}

// NewID returns a random identifier for records added without one.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// prepare builds the record that Add persists: a copy of c with
// provenance stamped, a missing id filled in and the type normalized.
func prepare(c component.Component, file, hash string) component.Component {
	rec := c.Clone()
	if rec.ID() == "" {
		rec[component.FieldID] = NewID()
	}
	rec[component.FieldFile] = file
	rec[component.FieldHash] = hash
	rec.Normalize()
	return rec
}

// canonical returns c as it reads back from storage: JSON-decoded, so
// numbers are float64, and sharing no maps or slices with the caller.
func canonical(c component.Component) (component.Component, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode component: %w", err)
	}
	return decodeComponent(string(data))
}

func decodeComponent(data string) (component.Component, error) {
	var c component.Component
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode component: %w", err)
	}
	return c, nil
}

// stamp copies the fields Add assigned back onto the caller's record.
func stamp(c, rec component.Component) {
	if c == nil {
		return
	}
	for _, k := range []string{component.FieldID, component.FieldFile, component.FieldHash, component.FieldType} {
		if v, ok := rec[k]; ok {
			c[k] = v
		}
	}
}

// merge applies an update field map to a stored record.
func merge(c component.Component, fields map[string]any) {
	for k, v := range fields {
		if protectedFields[k] {
			continue
		}
		c[k] = v
	}
	c.Normalize()
}

// matches reports whether c matches a case-insensitive substring query.
func matches(c component.Component, query, field string) bool {
	q := strings.ToLower(query)
	if field != "" {
		return strings.Contains(strings.ToLower(c.String(field)), q)
	}

	parts := make([]string, 0, len(searchFields))
	for _, f := range searchFields {
		parts = append(parts, c.String(f))
	}
	return strings.Contains(strings.ToLower(strings.Join(parts, " ")), q)
}

// computeStats aggregates records given in store order.
func computeStats(records []component.Component, path string) *Stats {
	stats := &Stats{
		TotalComponents: len(records),
		Types:           make(map[string]int),
		DatabasePath:    path,
	}

	var order []string
	for _, c := range records {
		if qty, ok := c.Quantity(); ok {
			stats.TotalQuantity += qty
		}

		t := c.Type()
		if t == "" {
			t = component.UnknownType
		}
		if _, seen := stats.Types[t]; !seen {
			order = append(order, t)
		}
		stats.Types[t]++
	}

	best := 0
	for _, t := range order {
		if stats.Types[t] > best {
			best = stats.Types[t]
			stats.MostCommonType = t
		}
	}

	return stats
}

// paginate applies ListOptions to records in store order.
func paginate(records []component.Component, opts *ListOptions) []component.Component {
	if opts == nil {
		return records
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []component.Component{}
	}
	records = records[offset:]
	if opts.Limit > 0 && opts.Limit < len(records) {
		records = records[:opts.Limit]
	}
	return records
}

// importInto loads path and adds every normalized record to st. Each Add
// commits independently, so a failure part-way leaves earlier records in
// place.
func importInto(st Store, path string) (*ImportSummary, error) {
	res, err := importer.LoadFile(path)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Source:  path,
		Format:  res.Format,
		Total:   len(res.Records),
		Invalid: res.Invalid,
	}

	for _, rec := range res.Records {
		added, err := st.Add(rec.Component, rec.File, rec.Hash)
		if err != nil {
			return summary, err
		}
		if added {
			summary.Added++
		} else {
			summary.Skipped++
		}
	}

	log.Debug("Imported document", "source", path, "format", res.Format,
		"added", summary.Added, "skipped", summary.Skipped, "invalid", summary.Invalid,
		"collisions", res.Collisions)

	return summary, nil
}
