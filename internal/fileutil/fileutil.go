// Package fileutil provides file naming, sizing and type helpers shared by
// the wizard and report layers.
package fileutil

import (
	"fmt"
	"math"
	"strings"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatFileSize renders a byte count as a human-readable string,
// e.g. 0 → "0 Bytes", 1536 → "1.5 KB", 2516582 → "2.4 MB".
func FormatFileSize(bytes int64) string {
	return FormatFileSizeDecimals(bytes, 2)
}

// FormatFileSizeDecimals is FormatFileSize with a caller-chosen precision.
// Trailing zeros are trimmed, so 1024 renders as "1 KB" rather than "1.00 KB".
func FormatFileSizeDecimals(bytes int64, decimals int) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}

	const k = 1024
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	v := float64(bytes) / math.Pow(k, float64(i))
	s := fmt.Sprintf("%.*f", decimals, v)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s + " " + sizeUnits[i]
}

// Extension returns the lowercase file extension without the dot, or ""
// when the name has none. A leading dot (dotfile) does not count.
func Extension(name string) string {
	lastDot := strings.LastIndex(name, ".")
	if lastDot <= 0 {
		return ""
	}
	return strings.ToLower(name[lastDot+1:])
}

// IsPDF reports whether a file is a PDF by MIME type or extension.
// An empty contentType falls back to the extension alone.
func IsPDF(name, contentType string) bool {
	if contentType == "application/pdf" {
		return true
	}
	return Extension(name) == "pdf"
}

// MimeTypeLabel returns a display label for common MIME types.
func MimeTypeLabel(mimeType string) string {
	labels := map[string]string{
		"application/pdf":  "PDF Document",
		"application/json": "JSON Data",
		"image/png":        "PNG Image",
		"image/jpeg":       "JPEG Image",
		"text/plain":       "Text File",
		"application/msword": "Word Document",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "Word Document",
	}
	if label, ok := labels[mimeType]; ok {
		return label
	}
	return "Unknown File"
}
