package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFRecognizer extracts the embedded text layer of PDF documents such as
// distributor packing slips and invoices.
type PDFRecognizer struct{}

// NewPDFRecognizer creates a PDF text layer recognizer.
func NewPDFRecognizer() *PDFRecognizer {
	return &PDFRecognizer{}
}

// Recognize returns the text of every page, separated by newlines.
func (r *PDFRecognizer) Recognize(ctx context.Context, file string) (string, error) {
	return extractPDFText(ctx, file)
}

// Service returns the service name.
func (r *PDFRecognizer) Service() string {
	return ServicePDF
}

func extractPDFText(ctx context.Context, file string) (string, error) {
	f, rd, err := pdf.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= rd.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	return b.String(), nil
}
