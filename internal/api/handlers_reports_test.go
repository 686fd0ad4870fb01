package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/reports"
)

func newReportsTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleCreateReport(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)

	c, rec := newReportsTestContext(t, http.MethodPost, "/api/v1/reports",
		`{"customer_name":"Kumar","bank_name":"SBI","property_type":"commercial","location":"Mumbai"}`)

	if err := h.HandleCreateReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var report models.ValuationReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.CustomerName != "Kumar" || report.BankName != "SBI" {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Status != models.ReportStatusDraft {
		t.Errorf("new report should be draft, got %s", report.Status)
	}
}

func TestHandleCreateReportValidation(t *testing.T) {
	h := NewReportsHandler(reports.NewStore())

	c, _ := newReportsTestContext(t, http.MethodPost, "/api/v1/reports",
		`{"customer_name":"   "}`)

	err := h.HandleCreateReport(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestHandleGetReportNotFound(t *testing.T) {
	h := NewReportsHandler(reports.NewStore())

	c, _ := newReportsTestContext(t, http.MethodGet, "/api/v1/reports/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.HandleGetReport(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
}

func TestHandleUpdateReportPartial(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	r := store.Create("Kumar", "HDFC Bank", models.PropertyResidential, "Chennai")

	// Status-only update leaves content untouched
	c, rec := newReportsTestContext(t, http.MethodPatch, "/api/v1/reports/"+r.ID,
		`{"status":"review"}`)
	c.SetParamNames("id")
	c.SetParamValues(r.ID)

	if err := h.HandleUpdateReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var updated models.ValuationReport
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != models.ReportStatusReview {
		t.Errorf("status not applied: %s", updated.Status)
	}

	// Content-only update leaves status alone
	c, rec = newReportsTestContext(t, http.MethodPatch, "/api/v1/reports/"+r.ID,
		`{"content":{"summary":"New summary","propertyDetails":"","valuationMethod":"","finalValuation":""}}`)
	c.SetParamNames("id")
	c.SetParamValues(r.ID)

	if err := h.HandleUpdateReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Content.Summary != "New summary" {
		t.Errorf("content not applied: %q", updated.Content.Summary)
	}
	if updated.Status != models.ReportStatusReview {
		t.Errorf("status should survive a content update, got %s", updated.Status)
	}
}

func TestHandleUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	r := store.Create("Kumar", "HDFC Bank", models.PropertyResidential, "Chennai")

	c, _ := newReportsTestContext(t, http.MethodPatch, "/api/v1/reports/"+r.ID+"/status",
		`{"status":"published"}`)
	c.SetParamNames("id")
	c.SetParamValues(r.ID)

	err := h.HandleUpdateStatus(c)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", apiErr.Status)
	}
}

func TestHandleListReportsPagination(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	for i := 0; i < 15; i++ {
		store.Create("Customer", "Bank", models.PropertyResidential, "Chennai")
	}

	c, rec := newReportsTestContext(t, http.MethodGet, "/api/v1/reports?page=2&per_page=10", "")

	if err := h.HandleListReports(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp reportListResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 15 || len(resp.Reports) != 5 {
		t.Errorf("page 2: got %d of %d", len(resp.Reports), resp.Total)
	}
	if resp.Page != 2 || resp.PerPage != 10 {
		t.Errorf("paging echo wrong: page=%d per_page=%d", resp.Page, resp.PerPage)
	}
}

// The msgpack endpoint carries the same reports as the JSON list.
func TestHandleListReportsMsgpack(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	store.Create("Kumar", "HDFC Bank", models.PropertyResidential, "Chennai")
	store.Create("Priya", "SBI", models.PropertyCommercial, "Mumbai")

	c, rec := newReportsTestContext(t, http.MethodGet, "/api/v1/reports/msgpack", "")

	if err := h.HandleListReportsMsgpack(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/msgpack" {
		t.Errorf("unexpected content type %q", ct)
	}

	var decoded struct {
		Reports []*models.ValuationReport `msgpack:"reports"`
		Total   int                       `msgpack:"total"`
	}
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode msgpack: %v", err)
	}
	if decoded.Total != 2 || len(decoded.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d (total %d)", len(decoded.Reports), decoded.Total)
	}
	if decoded.Reports[0].CustomerName != "Priya" {
		t.Errorf("newest report should come first, got %q", decoded.Reports[0].CustomerName)
	}
}

func TestHandleAddComment(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	r := store.Create("Kumar", "HDFC Bank", models.PropertyResidential, "Chennai")

	c, rec := newReportsTestContext(t, http.MethodPost, "/api/v1/reports/"+r.ID+"/comments",
		`{"text":"Verify the land area"}`)
	c.SetParamNames("id")
	c.SetParamValues(r.ID)

	if err := h.HandleAddComment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var updated models.ValuationReport
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if len(updated.Comments) != 1 || updated.Comments[0].Text != "Verify the land area" {
		t.Errorf("comment not recorded: %+v", updated.Comments)
	}
}

func TestHandleExport(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	r := store.Create("Kumar Singh", "HDFC Bank", models.PropertyResidential, "Chennai")

	c, rec := newReportsTestContext(t, http.MethodGet, "/api/v1/reports/"+r.ID+"/export/pdf", "")
	c.SetParamNames("id", "format")
	c.SetParamValues(r.ID, "pdf")

	if err := h.HandleExport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	disposition := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "Kumar_Singh") {
		t.Errorf("unexpected disposition %q", disposition)
	}

	// Unknown format is rejected before the lookup
	c, _ = newReportsTestContext(t, http.MethodGet, "/api/v1/reports/"+r.ID+"/export/xlsx", "")
	c.SetParamNames("id", "format")
	c.SetParamValues(r.ID, "xlsx")

	err := h.HandleExport(c)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandleDashboardStats(t *testing.T) {
	store := reports.NewStore()
	h := NewReportsHandler(store)
	r := store.Create("Kumar", "HDFC Bank", models.PropertyResidential, "Chennai")
	store.Create("Priya", "SBI", models.PropertyCommercial, "Mumbai")
	store.UpdateStatus(r.ID, models.ReportStatusApproved)

	c, rec := newReportsTestContext(t, http.MethodGet, "/api/v1/reports/stats", "")

	if err := h.HandleDashboardStats(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stats models.DashboardStats
	json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalReports != 2 || stats.ApprovedReports != 1 || stats.DraftReports != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
