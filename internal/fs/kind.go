package fs

import (
	"path/filepath"
	"sort"
	"strings"
)

// Document kinds.
const (
	KindImage   = "image"
	KindPDF     = "pdf"
	KindText    = "text"
	KindUnknown = ""
)

var extToKind = map[string]string{
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,

	".pdf": KindPDF,

	".txt":  KindText,
	".text": KindText,
	".md":   KindText,
}

// DetectKind returns the document kind of path based on its extension.
func DetectKind(path string) string {
	return extToKind[strings.ToLower(filepath.Ext(path))]
}

// IsDocument reports whether path has a known document kind.
func IsDocument(path string) bool {
	return DetectKind(path) != KindUnknown
}

// DocumentExtensions returns every extension DetectKind recognizes.
func DocumentExtensions() []string {
	exts := make([]string, 0, len(extToKind))
	for ext := range extToKind {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// MIMEType returns the MIME type for an image path, defaulting to JPEG.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
