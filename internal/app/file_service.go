package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// allowedExtensions is the ingestion allow-list. Anything else is rejected
// before it touches the object store.
var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".html": "text/html",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".ppt":  "application/vnd.ms-powerpoint",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".rtf":  "application/rtf",
}

// MaxUploadSize bounds a single document upload.
const MaxUploadSize = 50 << 20

// ValidateFilename checks the extension allow-list and returns the MIME
// type to record for the file.
func ValidateFilename(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", ErrUnsupportedFile
	}
	mime, ok := allowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedFile
	}
	return mime, nil
}

// SupportedFile reports whether a connector should ingest the given key.
func SupportedFile(key string) bool {
	_, err := ValidateFilename(key)
	return err == nil
}

// ObjectKey builds the storage key for a document the platform owns. Every
// ingestion path writes under this layout so deleting a document never
// touches anything outside it.
func ObjectKey(tenantID, collectionID, filename string) string {
	return fmt.Sprintf("%s/%s/%d_%s", tenantID, collectionID, time.Now().UnixNano(), filename)
}

// SanitizeFilename strips path components and characters that do not
// survive object store keys.
func SanitizeFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.ReplaceAll(base, " ", "_")
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
