// Package processing is a thin client over the external document
// processing API: uploads, status polling, stored documents, combination
// and PDF download.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MaxBatchSize is the upstream limit on files per multi-file request.
const MaxBatchSize = 5

// APIError is the normalized shape of any upstream failure.
// Status 0 means the request never completed (cancellation or transport).
type APIError struct {
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processing API error (status %d): %s", e.Status, e.Message)
}

// UploadFile is one file in a processing request.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// ProcessResponse is the upstream reply to a single-file process request.
type ProcessResponse struct {
	Success     bool    `json:"success"`
	DocumentID  string  `json:"document_id"`
	Message     string  `json:"message"`
	SSEEndpoint string  `json:"sse_endpoint"`
	FileName    string  `json:"file_name"`
	FileSizeMB  float64 `json:"file_size_mb"`
}

// ProcessMultipleResponse is the upstream reply to a batch request.
type ProcessMultipleResponse struct {
	Success     bool     `json:"success"`
	DocumentIDs []string `json:"document_ids"`
	Message     string   `json:"message"`
}

// DocumentStatus is the upstream processing state for one document.
type DocumentStatus struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	PagesExtracted int    `json:"pages_extracted,omitempty"`
	TotalPages     int    `json:"total_pages,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

// StoredDocument is one previously processed document.
type StoredDocument struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	TotalPages int    `json:"total_pages"`
}

// StoredDocumentsResponse lists previously processed documents.
type StoredDocumentsResponse struct {
	Success   bool             `json:"success"`
	Documents []StoredDocument `json:"documents"`
	Total     int              `json:"total"`
}

// CombineResponse is the upstream reply to a combine request.
type CombineResponse struct {
	Success       bool   `json:"success"`
	CombinationID string `json:"combination_id"`
	Message       string `json:"message"`
	SSEEndpoint   string `json:"sse_endpoint"`
	PDFEndpoint   string `json:"pdf_endpoint"`
}

// Client talks to the document processing backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a processing client. Timeout bounds every request
// except downloads; zero means 120 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Process submits a single file for extraction.
func (c *Client) Process(ctx context.Context, file UploadFile) (*ProcessResponse, error) {
	body, contentType, err := buildMultipart([]UploadFile{file}, "file", nil)
	if err != nil {
		return nil, err
	}

	var out ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/process", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessMultiple submits up to MaxBatchSize files in one batch request.
func (c *Client) ProcessMultiple(ctx context.Context, files []UploadFile, clientName, reportID string) (*ProcessMultipleResponse, error) {
	if len(files) == 0 {
		return nil, &APIError{Message: "no files to process", Status: 0}
	}
	if len(files) > MaxBatchSize {
		return nil, &APIError{
			Message: fmt.Sprintf("too many files: %d (max %d)", len(files), MaxBatchSize),
			Status:  0,
		}
	}

	fields := map[string]string{
		"client_name": clientName,
		"report_id":   reportID,
	}
	body, contentType, err := buildMultipart(files, "files", fields)
	if err != nil {
		return nil, err
	}

	var out ProcessMultipleResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/documents/process-multiple", body, contentType, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the current processing state of a document.
func (c *Client) Status(ctx context.Context, documentID string) (*DocumentStatus, error) {
	var out DocumentStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/status/"+documentID, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StoredDocuments lists the documents the backend has already processed.
func (c *Client) StoredDocuments(ctx context.Context) (*StoredDocumentsResponse, error) {
	var out StoredDocumentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents/stored", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CombineDocuments asks the backend to merge processed documents into one PDF.
func (c *Client) CombineDocuments(ctx context.Context, documentIDs []string) (*CombineResponse, error) {
	payload, err := json.Marshal(map[string][]string{"document_ids": documentIDs})
	if err != nil {
		return nil, err
	}

	var out CombineResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/documents/combine", bytes.NewReader(payload), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadPDF streams a combined PDF. The caller must close the reader.
func (c *Client) DownloadPDF(ctx context.Context, combinationID string) (io.ReadCloser, error) {
	url := c.baseURL + "/api/v1/documents/download-pdf/" + combinationID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, normalizeTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp.Body, nil
}

// Health checks whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, "", &out)
}

// do runs one request and decodes the JSON reply into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// normalizeTransportError maps cancellation to the stable "request was
// cancelled" shape and wraps everything else.
func normalizeTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return &APIError{Message: "request was cancelled", Status: 0}
	}
	return &APIError{Message: err.Error(), Status: 0}
}

// readAPIError normalizes a non-2xx reply. The upstream error body may
// carry the message under "detail" or "message".
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{
		Message: fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
		Status:  resp.StatusCode,
	}

	var errBody map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil {
		if detail, ok := errBody["detail"].(string); ok && detail != "" {
			apiErr.Message = detail
		} else if msg, ok := errBody["message"].(string); ok && msg != "" {
			apiErr.Message = msg
		}
		apiErr.Details = errBody
	}
	return apiErr
}

// buildMultipart assembles a multipart body with files under fieldName
// plus optional plain form fields.
func buildMultipart(files []UploadFile, fieldName string, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreateFormFile(fieldName, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("writing form file: %w", err)
		}
	}

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("writing form field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
