// Package ocr turns scanned documents into text through pluggable
// recognition services.
package ocr

import (
	"context"
	"fmt"

	"github.com/partsbin/partsbin/internal/config"
)

// Service names.
const (
	ServiceOpenAI = "openai"
	ServicePDF    = "pdf"
	ServiceText   = "text"
)

// Recognizer produces text for a document. Implementations must be safe
// for concurrent use.
type Recognizer interface {
	// Recognize returns the text recognized in file.
	Recognize(ctx context.Context, file string) (string, error)

	// Service returns the service name, recorded as a component's source.
	Service() string
}

// New creates a recognizer for the named service.
func New(service string, cfg config.OCRConfig) (Recognizer, error) {
	switch service {
	case ServiceOpenAI:
		return NewOpenAIRecognizer(cfg)
	case ServicePDF:
		return NewPDFRecognizer(), nil
	case ServiceText:
		return NewTextRecognizer(), nil
	default:
		return nil, fmt.Errorf("unknown recognition service: %q", service)
	}
}
