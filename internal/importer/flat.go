package importer

import (
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/partsbin/partsbin/internal/component"
)

// entrySchemaJSON is the minimal shape a flat-list entry must have.
const entrySchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "id":   {"type": ["string", "number"]},
    "type": {"type": "string"},
    "file": {"type": "string"},
    "hash": {"type": "string"}
  }
}`

var entrySchema = jsonschema.MustCompileString("component.schema.json", entrySchemaJSON)

// normalizeFlat passes canonical records through. Entries keep their own
// provenance when they carry one; otherwise it is synthesized from the
// source name and the entry id (or its index).
func normalizeFlat(items []any, base string) Result {
	res := Result{Format: FormatFlat}

	for i, item := range items {
		if err := entrySchema.Validate(item); err != nil {
			res.Invalid++
			continue
		}
		entry := item.(map[string]any)

		c := make(component.Component, len(entry))
		for k, v := range entry {
			c[k] = v
		}
		file := c.File()
		hash := c.Hash()
		delete(c, component.FieldFile)
		delete(c, component.FieldHash)

		if file == "" {
			key := c.ID()
			if key == "" {
				key = strconv.Itoa(i)
			}
			file = provenanceFile(base, key)
		}
		if hash == "" {
			hash = contentHash(c)
		}

		res.Records = append(res.Records, Record{Component: c, File: file, Hash: hash})
	}

	return res
}
