package models

import "time"

// ReportStatus represents the workflow state of a valuation report.
type ReportStatus string

const (
	ReportStatusDraft    ReportStatus = "draft"
	ReportStatusReview   ReportStatus = "review"
	ReportStatusApproved ReportStatus = "approved"
)

// Valid reports whether s is one of the known workflow states.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusDraft, ReportStatusReview, ReportStatusApproved:
		return true
	}
	return false
}

// PropertyType classifies the property being valued.
type PropertyType string

const (
	PropertyResidential PropertyType = "Residential"
	PropertyCommercial  PropertyType = "Commercial"
	PropertyIndustrial  PropertyType = "Industrial"
	PropertyLand        PropertyType = "Land"
	PropertyMixedUse    PropertyType = "Mixed Use"
)

// FileType classifies a file attached to a report.
type FileType string

const (
	FileTypeOriginal  FileType = "original"
	FileTypeExtracted FileType = "extracted"
	FileTypeDraft     FileType = "draft"
	FileTypeFinal     FileType = "final"
)

// Confidence is the AI extraction confidence for a metadata field.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MetadataField is one AI-extracted metadata value with its review state.
type MetadataField struct {
	Value        string     `json:"value"`
	AIConfidence Confidence `json:"aiConfidence"`
	NeedsReview  bool       `json:"needsReview"`
}

// ReportMetadata holds the extracted grouping and identity fields.
type ReportMetadata struct {
	Year         MetadataField `json:"year"`
	BankName     MetadataField `json:"bankName"`
	Month        MetadataField `json:"month"`
	CustomerName MetadataField `json:"customerName"`
	PropertyType MetadataField `json:"propertyType"`
	Location     MetadataField `json:"location"`
}

// ReportFile is a file attached to a report. Immutable once attached.
type ReportFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type"`
	Size       string    `json:"size"` // human readable, e.g. "2.4 MB"
	UploadedAt time.Time `json:"uploadedAt"`
	URL        string    `json:"url"`
}

// ReportContent holds the editable text blocks of a report.
type ReportContent struct {
	Summary         string `json:"summary"`
	PropertyDetails string `json:"propertyDetails"`
	ValuationMethod string `json:"valuationMethod"`
	FinalValuation  string `json:"finalValuation"`
}

// Comment is a reviewer comment on a report.
type Comment struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// AuditEntry records one action taken on a report.
type AuditEntry struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// ValuationReport is the domain record for one property valuation case.
type ValuationReport struct {
	ID           string         `json:"id"`
	CustomerName string         `json:"customerName"`
	BankName     string         `json:"bankName"`
	PropertyType PropertyType   `json:"propertyType"`
	Location     string         `json:"location"`
	Status       ReportStatus   `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Year         string         `json:"year"`
	Month        string         `json:"month"`
	Files        []ReportFile   `json:"files"`
	Metadata     ReportMetadata `json:"metadata"`
	Content      ReportContent  `json:"content"`
	Comments     []Comment      `json:"comments"`
	AuditTrail   []AuditEntry   `json:"auditTrail"`
}

// FileNode is one node of the derived file tree
// (year → bank → month → customer → files).
type FileNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     string     `json:"type"` // "folder" or "file"
	Children []FileNode `json:"children,omitempty"`
	ReportID string     `json:"reportId,omitempty"`
	FileType FileType   `json:"fileType,omitempty"`
}

// DashboardStats are the derived counts shown on the dashboard.
type DashboardStats struct {
	TotalReports    int `json:"totalReports"`
	DraftReports    int `json:"draftReports"`
	ReviewReports   int `json:"reviewReports"`
	ApprovedReports int `json:"approvedReports"`
	RecentUploads   int `json:"recentUploads"`
}
