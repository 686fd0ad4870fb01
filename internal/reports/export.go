package reports

import (
	"fmt"
	"strings"

	"github.com/valuation-console/backend/internal/models"
)

// ExportFormat names a supported report export format.
type ExportFormat string

const (
	ExportPDF  ExportFormat = "pdf"
	ExportDOCX ExportFormat = "docx"
)

// ContentType returns the MIME type for the export download.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportPDF:
		return "application/pdf"
	case ExportDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Valid reports whether f is a supported format.
func (f ExportFormat) Valid() bool {
	return f == ExportPDF || f == ExportDOCX
}

// Render produces the export document body for a report. Real typesetting
// belongs to the processing backend; this renders the report content as a
// plain document so the download always works.
func Render(report *models.ValuationReport) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "VALUATION REPORT\n")
	fmt.Fprintf(&b, "================\n\n")
	fmt.Fprintf(&b, "Customer:      %s\n", report.CustomerName)
	fmt.Fprintf(&b, "Bank:          %s\n", report.BankName)
	fmt.Fprintf(&b, "Property Type: %s\n", report.PropertyType)
	fmt.Fprintf(&b, "Location:      %s\n", report.Location)
	fmt.Fprintf(&b, "Period:        %s %s\n", report.Month, report.Year)
	fmt.Fprintf(&b, "Status:        %s\n\n", report.Status)

	section(&b, "Summary", report.Content.Summary)
	section(&b, "Property Details", report.Content.PropertyDetails)
	section(&b, "Valuation Method", report.Content.ValuationMethod)
	section(&b, "Final Valuation", report.Content.FinalValuation)

	if len(report.Files) > 0 {
		fmt.Fprintf(&b, "Attached Files\n--------------\n")
		for _, f := range report.Files {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", f.Name, f.Type, f.Size)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Generated %s\n", report.UpdatedAt.Format("2006-01-02 15:04:05"))
	return []byte(b.String())
}

// ExportFilename builds the attachment filename for a report download.
func ExportFilename(report *models.ValuationReport, format ExportFormat) string {
	name := strings.ReplaceAll(report.CustomerName, " ", "_")
	if name == "" {
		name = report.ID
	}
	return fmt.Sprintf("valuation_%s.%s", name, format)
}

func section(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "%s\n%s\n%s\n\n", title, strings.Repeat("-", len(title)), body)
}
