package fileutil

import "testing"

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 Bytes"},
		{"bytes", 512, "512 Bytes"},
		{"one kilobyte", 1024, "1 KB"},
		{"fractional kilobytes", 1536, "1.5 KB"},
		{"megabytes", 2516582, "2.4 MB"},
		{"gigabytes", 5368709120, "5 GB"},
		{"just under a kilobyte", 1023, "1023 Bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFileSize(tt.bytes); got != tt.want {
				t.Errorf("FormatFileSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatFileSizeDecimals(t *testing.T) {
	if got := FormatFileSizeDecimals(1536, 0); got != "2 KB" {
		t.Errorf("expected 2 KB, got %q", got)
	}
	if got := FormatFileSizeDecimals(1536, -1); got != "2 KB" {
		t.Errorf("negative decimals should clamp to 0, got %q", got)
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"simple pdf", "report.pdf", "pdf"},
		{"uppercase", "REPORT.PDF", "pdf"},
		{"multiple dots", "scan.v2.pdf", "pdf"},
		{"no extension", "README", ""},
		{"dotfile", ".gitignore", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extension(tt.file); got != tt.want {
				t.Errorf("Extension(%q) = %q, want %q", tt.file, got, tt.want)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF("doc.pdf", "") {
		t.Error("extension alone should identify a PDF")
	}
	if !IsPDF("doc.bin", "application/pdf") {
		t.Error("MIME type alone should identify a PDF")
	}
	if IsPDF("doc.txt", "text/plain") {
		t.Error("text file should not be a PDF")
	}
}

func TestMimeTypeLabel(t *testing.T) {
	if got := MimeTypeLabel("application/pdf"); got != "PDF Document" {
		t.Errorf("expected PDF Document, got %q", got)
	}
	if got := MimeTypeLabel("application/x-unknown"); got != "Unknown File" {
		t.Errorf("expected Unknown File, got %q", got)
	}
}
