package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for invoice text
// ingestion. Binary formats (PDF, images) must be converted to text by an
// upstream collaborator before they reach this service.
var AllowedExtensions = map[string]struct{}{
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
