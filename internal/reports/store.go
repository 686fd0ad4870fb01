// Package reports holds the in-memory valuation report store and the
// views derived from it.
package reports

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valuation-console/backend/internal/models"
)

// ErrNotFound means no report exists with the given id.
var ErrNotFound = errors.New("report not found")

// Store keeps valuation reports in memory, newest first.
// It does not de-duplicate ids; ids come from uuid so the caller owns
// uniqueness.
type Store struct {
	reports []*models.ValuationReport
	mu      sync.RWMutex
}

// NewStore creates an empty report store.
func NewStore() *Store {
	return &Store{}
}

// Add prepends a report so the newest entry lists first.
func (s *Store) Add(report *models.ValuationReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append([]*models.ValuationReport{report}, s.reports...)
}

// Create builds a new draft report from the identity fields and stores it.
func (s *Store) Create(customerName, bankName string, propertyType models.PropertyType, location string) *models.ValuationReport {
	now := time.Now()
	report := &models.ValuationReport{
		ID:           uuid.New().String(),
		CustomerName: customerName,
		BankName:     bankName,
		PropertyType: propertyType,
		Location:     location,
		Status:       models.ReportStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
		Year:         now.Format("2006"),
		Month:        now.Format("January"),
		Files:        []models.ReportFile{},
		Comments:     []models.Comment{},
		AuditTrail:   []models.AuditEntry{},
	}
	s.Add(report)
	return copyReport(report)
}

// Get returns a report by id.
func (s *Store) Get(id string) (*models.ValuationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := s.find(id)
	if report == nil {
		return nil, ErrNotFound
	}
	return copyReport(report), nil
}

// List returns one page of reports in stored order (newest first) plus the
// total count. Page numbering starts at 1.
func (s *Store) List(page, perPage int) ([]*models.ValuationReport, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.reports)
	start := (page - 1) * perPage
	if start >= total {
		return []*models.ValuationReport{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]*models.ValuationReport, 0, end-start)
	for _, r := range s.reports[start:end] {
		out = append(out, copyReport(r))
	}
	return out, total
}

// All returns every report in stored order.
func (s *Store) All() []*models.ValuationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ValuationReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, copyReport(r))
	}
	return out
}

// UpdateContent replaces the report's content block and bumps UpdatedAt.
func (s *Store) UpdateContent(id string, content models.ReportContent) (*models.ValuationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.find(id)
	if report == nil {
		return nil, ErrNotFound
	}

	report.Content = content
	report.UpdatedAt = time.Now()
	return copyReport(report), nil
}

// UpdateStatus sets the workflow status and bumps UpdatedAt. Any
// transition is allowed, including backwards (approved → draft).
func (s *Store) UpdateStatus(id string, status models.ReportStatus) (*models.ValuationReport, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.find(id)
	if report == nil {
		return nil, ErrNotFound
	}

	report.Status = status
	report.UpdatedAt = time.Now()
	return copyReport(report), nil
}

// UpdateMetadata replaces the extracted metadata block and bumps UpdatedAt.
func (s *Store) UpdateMetadata(id string, metadata models.ReportMetadata) (*models.ValuationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.find(id)
	if report == nil {
		return nil, ErrNotFound
	}

	report.Metadata = metadata
	report.UpdatedAt = time.Now()
	return copyReport(report), nil
}

// AddComment appends a reviewer comment and bumps UpdatedAt.
func (s *Store) AddComment(id, user, text string) (*models.ValuationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.find(id)
	if report == nil {
		return nil, ErrNotFound
	}

	report.Comments = append(report.Comments, models.Comment{
		ID:        uuid.New().String(),
		User:      user,
		Text:      text,
		Timestamp: time.Now(),
	})
	report.UpdatedAt = time.Now()
	return copyReport(report), nil
}

// AddAuditEntry appends an audit record. Audit entries never mutate
// UpdatedAt; they describe changes, they are not changes.
func (s *Store) AddAuditEntry(id, user, action, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.find(id)
	if report == nil {
		return ErrNotFound
	}

	report.AuditTrail = append(report.AuditTrail, models.AuditEntry{
		ID:        uuid.New().String(),
		User:      user,
		Action:    action,
		Timestamp: time.Now(),
		Details:   details,
	})
	return nil
}

// Delete removes a report.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Stats derives the dashboard counts. RecentUploads counts reports created
// within the last 7 days.
func (s *Store) Stats() models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.DashboardStats{TotalReports: len(s.reports)}
	recentCutoff := time.Now().AddDate(0, 0, -7)

	for _, r := range s.reports {
		switch r.Status {
		case models.ReportStatusDraft:
			stats.DraftReports++
		case models.ReportStatusReview:
			stats.ReviewReports++
		case models.ReportStatusApproved:
			stats.ApprovedReports++
		}
		if r.CreatedAt.After(recentCutoff) {
			stats.RecentUploads++
		}
	}
	return stats
}

// find returns the stored report or nil. Caller holds the lock.
func (s *Store) find(id string) *models.ValuationReport {
	for _, r := range s.reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func copyReport(r *models.ValuationReport) *models.ValuationReport {
	c := *r
	c.Files = append([]models.ReportFile(nil), r.Files...)
	c.Comments = append([]models.Comment(nil), r.Comments...)
	c.AuditTrail = append([]models.AuditEntry(nil), r.AuditTrail...)
	return &c
}
