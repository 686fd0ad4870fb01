// handlers_reports.go - Valuation report handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/valuation-console/backend/internal/auth"
	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/reports"
	"github.com/valuation-console/backend/internal/validate"
)

// ReportsHandler serves the report workflow endpoints
type ReportsHandler struct {
	reports *reports.Store
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(store *reports.Store) *ReportsHandler {
	return &ReportsHandler{reports: store}
}

type createReportRequest struct {
	CustomerName string `json:"customer_name"`
	BankName     string `json:"bank_name"`
	PropertyType string `json:"property_type"`
	Location     string `json:"location"`
}

type updateReportRequest struct {
	Content  *models.ReportContent  `json:"content"`
	Status   *models.ReportStatus   `json:"status"`
	Metadata *models.ReportMetadata `json:"metadata"`
}

type statusRequest struct {
	Status models.ReportStatus `json:"status"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type reportListResponse struct {
	Reports []*models.ValuationReport `json:"reports"`
	Total   int                       `json:"total"`
	Page    int                       `json:"page"`
	PerPage int                       `json:"per_page"`
}

// HandleListReports returns a paginated report list, newest first
func (h *ReportsHandler) HandleListReports(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	list, total := h.reports.List(page, perPage)
	return c.JSON(http.StatusOK, reportListResponse{
		Reports: list,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// HandleListReportsMsgpack returns the same list in MessagePack for the
// file-tree view, which pulls every report at once.
func (h *ReportsHandler) HandleListReportsMsgpack(c echo.Context) error {
	all := h.reports.All()

	data, err := msgpack.Marshal(map[string]interface{}{
		"reports": all,
		"total":   len(all),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleCreateReport creates an empty draft report
func (h *ReportsHandler) HandleCreateReport(c echo.Context) error {
	var req createReportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !validate.IsNotEmpty(req.CustomerName) {
		return NewValidationError("customer_name")
	}

	report := h.reports.Create(req.CustomerName, req.BankName, models.PropertyType(req.PropertyType), req.Location)
	h.audit(report.ID, c, "created", "Report created")
	return c.JSON(http.StatusCreated, report)
}

// HandleGetReport returns one report
func (h *ReportsHandler) HandleGetReport(c echo.Context) error {
	id := c.Param("id")
	report, err := h.reports.Get(id)
	if err != nil {
		return NewNotFoundError("report", id)
	}
	return c.JSON(http.StatusOK, report)
}

// HandleUpdateReport applies a partial update: content, status, metadata
// or any combination
func (h *ReportsHandler) HandleUpdateReport(c echo.Context) error {
	id := c.Param("id")

	var req updateReportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	var report *models.ValuationReport
	var err error

	if req.Content != nil {
		report, err = h.reports.UpdateContent(id, *req.Content)
		if err != nil {
			return NewNotFoundError("report", id)
		}
		h.audit(id, c, "content_updated", "Report content edited")
	}
	if req.Metadata != nil {
		report, err = h.reports.UpdateMetadata(id, *req.Metadata)
		if err != nil {
			return NewNotFoundError("report", id)
		}
		h.audit(id, c, "metadata_updated", "Report metadata edited")
	}
	if req.Status != nil {
		report, err = h.reports.UpdateStatus(id, *req.Status)
		if err != nil {
			if err == reports.ErrNotFound {
				return NewNotFoundError("report", id)
			}
			return NewBadRequestError("invalid status", err)
		}
		h.audit(id, c, "status_changed", fmt.Sprintf("Status set to %s", *req.Status))
	}

	if report == nil {
		report, err = h.reports.Get(id)
		if err != nil {
			return NewNotFoundError("report", id)
		}
	}
	return c.JSON(http.StatusOK, report)
}

// HandleUpdateStatus sets the workflow status
func (h *ReportsHandler) HandleUpdateStatus(c echo.Context) error {
	id := c.Param("id")

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	report, err := h.reports.UpdateStatus(id, req.Status)
	if err != nil {
		if err == reports.ErrNotFound {
			return NewNotFoundError("report", id)
		}
		return NewBadRequestError("invalid status", err)
	}
	h.audit(id, c, "status_changed", fmt.Sprintf("Status set to %s", req.Status))
	return c.JSON(http.StatusOK, report)
}

// HandleDeleteReport removes a report
func (h *ReportsHandler) HandleDeleteReport(c echo.Context) error {
	id := c.Param("id")
	if err := h.reports.Delete(id); err != nil {
		return NewNotFoundError("report", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddComment appends a reviewer comment
func (h *ReportsHandler) HandleAddComment(c echo.Context) error {
	id := c.Param("id")

	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !validate.IsNotEmpty(req.Text) {
		return NewValidationError("text")
	}

	report, err := h.reports.AddComment(id, auth.UserID(c), req.Text)
	if err != nil {
		return NewNotFoundError("report", id)
	}
	return c.JSON(http.StatusOK, report)
}

// HandleExport streams the report as a downloadable document
func (h *ReportsHandler) HandleExport(c echo.Context) error {
	id := c.Param("id")
	format := reports.ExportFormat(c.Param("format"))
	if !format.Valid() {
		return NewValidationError("format")
	}

	report, err := h.reports.Get(id)
	if err != nil {
		return NewNotFoundError("report", id)
	}

	body := reports.Render(report)
	filename := reports.ExportFilename(report, format)

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	h.audit(id, c, "exported", fmt.Sprintf("Exported as %s", format))
	return c.Blob(http.StatusOK, format.ContentType(), body)
}

// HandleFileTree returns the year/bank/month/customer folder tree
func (h *ReportsHandler) HandleFileTree(c echo.Context) error {
	tree := reports.BuildFileTree(h.reports.All())
	return c.JSON(http.StatusOK, map[string]interface{}{"tree": tree})
}

// HandleDashboardStats returns the derived dashboard counts
func (h *ReportsHandler) HandleDashboardStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.reports.Stats())
}

// audit records an audit entry; failures are logged, not surfaced
func (h *ReportsHandler) audit(reportID string, c echo.Context, action, details string) {
	if err := h.reports.AddAuditEntry(reportID, auth.UserID(c), action, details); err != nil {
		fmt.Printf("[Reports] Failed to record audit entry for %s: %v\n", reportID, err)
	}
}
