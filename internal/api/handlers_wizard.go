// handlers_wizard.go - Upload wizard session handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/valuation-console/backend/internal/auth"
	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/reports"
	"github.com/valuation-console/backend/internal/wizard"
)

// WizardHandler serves the five-step upload flow
type WizardHandler struct {
	wizard  *wizard.Manager
	reports *reports.Store
}

// NewWizardHandler creates a new wizard handler
func NewWizardHandler(mgr *wizard.Manager, reportStore *reports.Store) *WizardHandler {
	return &WizardHandler{
		wizard:  mgr,
		reports: reportStore,
	}
}

type projectNameRequest struct {
	Name string `json:"name"`
}

type selectionRequest struct {
	FileIDs []string `json:"fileIds"`
}

type uploadResponse struct {
	State    *models.WizardState `json:"state"`
	Accepted int                 `json:"accepted"`
	Received int                 `json:"received"`
}

// HandleCreateSession starts a new wizard session
func (h *WizardHandler) HandleCreateSession(c echo.Context) error {
	state, err := h.wizard.Create()
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSON(http.StatusCreated, state)
}

// HandleGetSession returns the session state
func (h *WizardHandler) HandleGetSession(c echo.Context) error {
	state, err := h.wizard.Get(c.Param("id"))
	if err != nil {
		return NewNotFoundError("wizard session", c.Param("id"))
	}
	h.wizard.Touch(c.Param("id"))
	return c.JSON(http.StatusOK, state)
}

// HandleSetProjectName stores the project name
func (h *WizardHandler) HandleSetProjectName(c echo.Context) error {
	var req projectNameRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	state, err := h.wizard.SetProjectName(c.Param("id"), req.Name)
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleUploadFiles stages multipart files. Non-PDF files are skipped;
// the response reports how many were accepted.
func (h *WizardHandler) HandleUploadFiles(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return NewValidationError("files")
	}

	var incoming []wizard.IncomingFile
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			return NewInternalError("failed to read uploaded file", err)
		}
		opened = append(opened, src)
		incoming = append(incoming, wizard.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     src,
		})
	}

	state, accepted, err := h.wizard.AddFiles(c.Param("id"), incoming)
	if err != nil {
		return wizardError(c.Param("id"), err)
	}

	return c.JSON(http.StatusOK, uploadResponse{
		State:    state,
		Accepted: accepted,
		Received: len(fileHeaders),
	})
}

// HandleRemoveFile drops a staged file
func (h *WizardHandler) HandleRemoveFile(c echo.Context) error {
	state, err := h.wizard.RemoveFile(c.Param("id"), c.Param("fileId"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleSetSelection replaces the selected file set
func (h *WizardHandler) HandleSetSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	state, err := h.wizard.SetSelection(c.Param("id"), req.FileIDs)
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleNext advances the wizard one step
func (h *WizardHandler) HandleNext(c echo.Context) error {
	state, err := h.wizard.Next(c.Param("id"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleBack returns to the previous step
func (h *WizardHandler) HandleBack(c echo.Context) error {
	state, err := h.wizard.Back(c.Param("id"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleStartProcessing submits the selection to the processing backend
func (h *WizardHandler) HandleStartProcessing(c echo.Context) error {
	state, err := h.wizard.StartProcessing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleSaveProject materializes the report and stores it
func (h *WizardHandler) HandleSaveProject(c echo.Context) error {
	report, err := h.wizard.SaveProject(c.Param("id"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}

	h.reports.Add(report)
	if err := h.reports.AddAuditEntry(report.ID, auth.UserID(c), "created", "Report created from upload wizard"); err != nil {
		fmt.Printf("[Wizard] Failed to record audit entry for %s: %v\n", report.ID, err)
	}
	return c.JSON(http.StatusCreated, report)
}

// HandleRestart resets the session to step one
func (h *WizardHandler) HandleRestart(c echo.Context) error {
	state, err := h.wizard.Restart(c.Param("id"))
	if err != nil {
		return wizardError(c.Param("id"), err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleProgressStream streams wizard state via SSE while processing runs
func (h *WizardHandler) HandleProgressStream(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	state, err := h.wizard.Get(id)
	if err != nil {
		h.sendSSEError(c, "session not found")
		return nil
	}

	// Send initial state
	h.sendSSEData(c, state)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(10 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			state, err := h.wizard.Get(id)
			if err != nil {
				h.sendSSEError(c, "session not found")
				return nil
			}
			h.wizard.Touch(id)
			h.sendSSEData(c, state)

			// Stop once the wizard left the processing step
			if state.CurrentStep != models.StepProcessing {
				return nil
			}

		case <-c.Request().Context().Done():
			return nil

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil
		}
	}
}

func (h *WizardHandler) sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func (h *WizardHandler) sendSSEError(c echo.Context, message string) {
	h.sendSSEData(c, map[string]string{"error": message})
}

// wizardError maps wizard package errors onto API errors
func wizardError(id string, err error) error {
	switch err {
	case wizard.ErrNotFound:
		return NewNotFoundError("wizard session", id)
	case wizard.ErrFileNotFound:
		return NewNotFoundError("staged file", id)
	case wizard.ErrNameRequired, wizard.ErrNoFiles, wizard.ErrNoSelection:
		return NewBadRequestError(err.Error(), nil)
	case wizard.ErrBadStep:
		return NewConflictError(err.Error())
	}
	return NewInternalError("wizard operation failed", err)
}
