package ocr

import (
	"context"
	"fmt"
	"os"
)

// TextRecognizer reads documents that already are plain text, such as
// transcriptions or output of an external OCR tool.
type TextRecognizer struct{}

// NewTextRecognizer creates a plain text recognizer.
func NewTextRecognizer() *TextRecognizer {
	return &TextRecognizer{}
}

// Recognize returns the file content.
func (r *TextRecognizer) Recognize(ctx context.Context, file string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read text document: %w", err)
	}
	return string(data), nil
}

// Service returns the service name.
func (r *TextRecognizer) Service() string {
	return ServiceText
}
