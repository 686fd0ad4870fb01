// handlers_documents.go - Passthrough to the document processing backend
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/valuation-console/backend/internal/processing"
	"github.com/valuation-console/backend/internal/storage"
)

// DocumentsHandler proxies document operations to the processing backend
// and serves locally stored files.
type DocumentsHandler struct {
	proc  *processing.Client
	store storage.Store
}

// NewDocumentsHandler creates a new documents handler
func NewDocumentsHandler(proc *processing.Client, store storage.Store) *DocumentsHandler {
	return &DocumentsHandler{
		proc:  proc,
		store: store,
	}
}

type combineRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// HandleStoredDocuments lists documents the backend already processed
func (h *DocumentsHandler) HandleStoredDocuments(c echo.Context) error {
	resp, err := h.proc.StoredDocuments(c.Request().Context())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleCombineDocuments asks the backend to merge processed documents
func (h *DocumentsHandler) HandleCombineDocuments(c echo.Context) error {
	var req combineRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if len(req.DocumentIDs) == 0 {
		return NewValidationError("document_ids")
	}

	resp, err := h.proc.CombineDocuments(c.Request().Context(), req.DocumentIDs)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleDownloadPDF streams a combined PDF through to the client
func (h *DocumentsHandler) HandleDownloadPDF(c echo.Context) error {
	combinationID := c.Param("combinationId")
	if combinationID == "" {
		return NewValidationError("combinationId")
	}

	body, err := h.proc.DownloadPDF(c.Request().Context(), combinationID)
	if err != nil {
		return upstreamError(err)
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="combined_`+combinationID+`.pdf"`)
	return c.Stream(http.StatusOK, "application/pdf", body)
}

// HandleDocumentStatus returns the processing state of one document
func (h *DocumentsHandler) HandleDocumentStatus(c echo.Context) error {
	documentID := c.Param("documentId")
	if documentID == "" {
		return NewValidationError("documentId")
	}

	status, err := h.proc.Status(c.Request().Context(), documentID)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, status)
}

// HandleProcessingHealth checks whether the processing backend is up
func (h *DocumentsHandler) HandleProcessingHealth(c echo.Context) error {
	if err := h.proc.Health(c.Request().Context()); err != nil {
		return NewServiceUnavailableError("processing backend unreachable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// HandleGetFile serves a locally stored upload by storage id
func (h *DocumentsHandler) HandleGetFile(c echo.Context) error {
	id := c.Param("id")

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	path, err := h.store.GetFilePath(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		`inline; filename="`+info.Name+`"`)
	return c.File(path)
}

// upstreamError maps processing client failures onto API errors
func upstreamError(err error) error {
	var apiErr *processing.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return NewBadGatewayError(apiErr.Message, nil)
		}
		return &APIError{
			Status:  apiErr.Status,
			Code:    "UPSTREAM_ERROR",
			Message: apiErr.Message,
		}
	}
	return NewBadGatewayError("processing backend request failed", err)
}
