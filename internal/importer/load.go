package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and normalizes the document at path. JSON and JSON-LD
// documents are decoded as JSON; .yaml and .yml as YAML. A missing path
// yields an empty result and no error. Content that cannot be decoded
// yields FormatUnknown with zero records.
func LoadFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("Import source does not exist", "path", path)
			return Result{Format: FormatMissing}, nil
		}
		return Result{}, fmt.Errorf("failed to read import file: %w", err)
	}

	doc, err := decode(data, filepath.Ext(path))
	if err != nil {
		log.Warn("Unrecognized import document", "path", path, "error", err)
		return Result{Format: FormatUnknown}, nil
	}

	return Normalize(doc, path), nil
}

func decode(data []byte, ext string) (any, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		// Re-encode through JSON so numbers and maps have the same Go
		// types as a JSON source.
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	default:
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
}
