package constants

import (
	"path/filepath"
	"strings"
)

// SourceType is the detected format of an ingested document.
type SourceType string

// Stable values (these exact strings appear in persisted records).
const (
	SourcePDF     SourceType = "pdf"
	SourceDOCX    SourceType = "docx"
	SourceHTML    SourceType = "html"
	SourceText    SourceType = "text"
	SourceUnknown SourceType = "unknown"
)

// AllowedExtensions holds the default allowed file extensions for ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"html": {},
	"htm":  {},
	"txt":  {},
	"text": {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// DetectSourceType maps a file path to a SourceType by extension.
// Unrecognized extensions yield SourceUnknown, never an error.
func DetectSourceType(path string) SourceType {
	switch NormalizeExt(filepath.Ext(path)) {
	case "pdf":
		return SourcePDF
	case "docx":
		return SourceDOCX
	case "html", "htm":
		return SourceHTML
	case "txt", "text", "md":
		return SourceText
	default:
		return SourceUnknown
	}
}
