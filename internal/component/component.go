// Package component defines the open-schema component record shared by the
// store backends, the importer and the processing pipeline.
package component

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reserved field names.
const (
	FieldID           = "id"
	FieldType         = "type"
	FieldFile         = "file"
	FieldHash         = "hash"
	FieldValue        = "value"
	FieldDescription  = "description"
	FieldQty          = "qty"
	FieldQuantity     = "quantity"
	FieldPartNumber   = "partNumber"
	FieldPackage      = "package"
	FieldManufacturer = "manufacturer"
	FieldNotes        = "notes"
	FieldPrice        = "price"
	FieldSource       = "source"
	FieldTimestamp    = "timestamp"
)

// UnknownType is reported in statistics for records that carry no type.
const UnknownType = "unknown"

// Component is a single inventory record. The schema is open: fields the
// package knows nothing about are kept as-is.
type Component map[string]any

// ID returns the record id, or "" if it has none.
func (c Component) ID() string { return c.String(FieldID) }

// Type returns the record type, or "" if it has none.
func (c Component) Type() string { return c.String(FieldType) }

// File returns the provenance path stamped at insertion.
func (c Component) File() string { return c.String(FieldFile) }

// Hash returns the content fingerprint stamped at insertion.
func (c Component) Hash() string { return c.String(FieldHash) }

// String returns the value of key rendered as a string. Missing keys and
// nil values yield "".
func (c Component) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Clone returns a shallow copy of the record.
func (c Component) Clone() Component {
	out := make(Component, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Normalize applies write-time normalization in place: the type, when
// present, is lower-cased and trimmed.
func (c Component) Normalize() {
	if t, ok := c[FieldType]; ok && t != nil {
		c[FieldType] = NormalizeType(c.String(FieldType))
	}
}

// Quantity returns the piece count of the record. It reads "qty" first and
// falls back to "quantity". String values contribute their leading integer
// ("12 pcs" is 12); anything unparsable reports ok=false.
func (c Component) Quantity() (int, bool) {
	for _, key := range []string{FieldQty, FieldQuantity} {
		v, present := c[key]
		if !present || v == nil {
			continue
		}
		return parseQuantity(v)
	}
	return 0, false
}

func parseQuantity(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case string:
		return LeadingInt(val)
	default:
		return 0, false
	}
}

// LeadingInt parses the run of ASCII digits at the start of s (after
// leading whitespace).
func LeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NormalizeType lower-cases and trims a component type.
func NormalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
