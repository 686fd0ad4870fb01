package reports

import (
	"testing"
	"time"

	"github.com/valuation-console/backend/internal/models"
)

func TestStoreAddPrepends(t *testing.T) {
	s := NewStore()

	first := s.Create("Customer A", "HDFC Bank", models.PropertyResidential, "Chennai")
	second := s.Create("Customer B", "SBI", models.PropertyCommercial, "Mumbai")

	list, total := s.List(1, 10)
	if total != 2 {
		t.Fatalf("expected 2 reports, got %d", total)
	}
	if list[0].ID != second.ID {
		t.Errorf("newest report should list first, got %s", list[0].CustomerName)
	}
	if list[1].ID != first.ID {
		t.Errorf("oldest report should list last, got %s", list[1].CustomerName)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateContent(t *testing.T) {
	s := NewStore()
	r := s.Create("Customer", "Bank", models.PropertyLand, "Delhi")
	before := r.UpdatedAt

	time.Sleep(time.Millisecond)

	content := models.ReportContent{
		Summary:         "Updated summary",
		PropertyDetails: "Plot of 2400 sqft",
		ValuationMethod: "Comparable Sales",
		FinalValuation:  "₹1.2 Cr",
	}
	updated, err := s.UpdateContent(r.ID, content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Content.Summary != "Updated summary" {
		t.Errorf("content not replaced: %q", updated.Content.Summary)
	}
	if !updated.UpdatedAt.After(before) {
		t.Error("UpdatedAt should advance on content update")
	}

	if _, err := s.UpdateContent("missing", content); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

// Status transitions are deliberately permissive: the store accepts any
// valid status in any order, including approved back to draft. Anyone
// adding strict transition rules must update this test.
func TestStoreStatusTransitionsArePermissive(t *testing.T) {
	s := NewStore()
	r := s.Create("Customer", "Bank", models.PropertyResidential, "Chennai")

	steps := []models.ReportStatus{
		models.ReportStatusReview,
		models.ReportStatusApproved,
		models.ReportStatusDraft, // backward transition stays legal
	}
	for _, status := range steps {
		updated, err := s.UpdateStatus(r.ID, status)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("expected status %s, got %s", status, updated.Status)
		}
	}

	if _, err := s.UpdateStatus(r.ID, "published"); err == nil {
		t.Error("unknown status value should be rejected")
	}
}

func TestStoreComments(t *testing.T) {
	s := NewStore()
	r := s.Create("Customer", "Bank", models.PropertyResidential, "Chennai")

	updated, err := s.AddComment(r.ID, "reviewer-1", "Check the valuation method")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(updated.Comments))
	}
	if updated.Comments[0].Text != "Check the valuation method" {
		t.Errorf("wrong comment text: %q", updated.Comments[0].Text)
	}
	if updated.Comments[0].ID == "" {
		t.Error("comment should get an id")
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	r := s.Create("Customer", "Bank", models.PropertyResidential, "Chennai")

	if err := s.Delete(r.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, total := s.List(1, 10); total != 0 {
		t.Errorf("expected empty store, got %d", total)
	}
	if err := s.Delete(r.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestStoreListPagination(t *testing.T) {
	s := NewStore()
	for i := 0; i < 25; i++ {
		s.Create("Customer", "Bank", models.PropertyResidential, "Chennai")
	}

	page1, total := s.List(1, 10)
	if total != 25 || len(page1) != 10 {
		t.Fatalf("page 1: got %d items of %d total", len(page1), total)
	}
	page3, _ := s.List(3, 10)
	if len(page3) != 5 {
		t.Errorf("page 3: expected 5 items, got %d", len(page3))
	}
	page4, _ := s.List(4, 10)
	if len(page4) != 0 {
		t.Errorf("page beyond end should be empty, got %d", len(page4))
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore()
	a := s.Create("A", "Bank", models.PropertyResidential, "Chennai")
	b := s.Create("B", "Bank", models.PropertyResidential, "Chennai")
	s.Create("C", "Bank", models.PropertyResidential, "Chennai")

	s.UpdateStatus(a.ID, models.ReportStatusReview)
	s.UpdateStatus(b.ID, models.ReportStatusApproved)

	stats := s.Stats()
	if stats.TotalReports != 3 {
		t.Errorf("expected 3 total, got %d", stats.TotalReports)
	}
	if stats.DraftReports != 1 || stats.ReviewReports != 1 || stats.ApprovedReports != 1 {
		t.Errorf("wrong breakdown: %+v", stats)
	}
	if stats.RecentUploads != 3 {
		t.Errorf("all reports are recent, got %d", stats.RecentUploads)
	}
}

func TestStoreCopiesAreIsolated(t *testing.T) {
	s := NewStore()
	r := s.Create("Customer", "Bank", models.PropertyResidential, "Chennai")

	got, _ := s.Get(r.ID)
	got.CustomerName = "Mutated"
	got.Comments = append(got.Comments, models.Comment{ID: "x"})

	fresh, _ := s.Get(r.ID)
	if fresh.CustomerName != "Customer" {
		t.Error("mutating a returned report should not affect the store")
	}
	if len(fresh.Comments) != 0 {
		t.Error("appending to a returned slice should not affect the store")
	}
}
