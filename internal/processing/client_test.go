package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func uploads(names ...string) []UploadFile {
	var out []UploadFile
	for _, n := range names {
		out = append(out, UploadFile{Name: n, Content: strings.NewReader("content of " + n)})
	}
	return out
}

func TestProcessMultipleSendsMultipartForm(t *testing.T) {
	var gotClientName, gotReportID string
	var gotFiles []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/process-multiple" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotClientName = r.FormValue("client_name")
		gotReportID = r.FormValue("report_id")
		for _, fh := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, fh.Filename)
		}
		fmt.Fprint(w, `{"success":true,"document_ids":["d1","d2"],"message":"ok"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0)
	resp, err := c.ProcessMultiple(context.Background(), uploads("deed.pdf", "survey.pdf"), "Kumar", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotClientName != "Kumar" || gotReportID != "session-1" {
		t.Errorf("form fields: client_name=%q report_id=%q", gotClientName, gotReportID)
	}
	if len(gotFiles) != 2 || gotFiles[0] != "deed.pdf" || gotFiles[1] != "survey.pdf" {
		t.Errorf("wrong file parts: %v", gotFiles)
	}
	if !resp.Success || len(resp.DocumentIDs) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestProcessMultipleBatchLimits(t *testing.T) {
	c := NewClient("http://unused.invalid", 0)

	_, err := c.ProcessMultiple(context.Background(), nil, "x", "y")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 0 {
		t.Errorf("empty batch: expected status-0 APIError, got %v", err)
	}

	_, err = c.ProcessMultiple(context.Background(),
		uploads("1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf", "6.pdf"), "x", "y")
	if !errors.As(err, &apiErr) || apiErr.Status != 0 {
		t.Fatalf("oversized batch: expected status-0 APIError, got %v", err)
	}
	if !strings.Contains(apiErr.Message, "too many files") {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

// Upstream errors prefer "detail", fall back to "message", and keep the
// whole body in Details.
func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"detail field", 422, `{"detail":"unsupported file type"}`, "unsupported file type"},
		{"message field", 500, `{"message":"worker crashed"}`, "worker crashed"},
		{"detail wins over message", 400, `{"detail":"bad input","message":"ignored"}`, "bad input"},
		{"unparsable body", 502, `<html>gateway</html>`, "HTTP error! status: 502"},
		{"empty detail", 503, `{"detail":""}`, "HTTP error! status: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, 0).Status(context.Background(), "doc-1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestCancelledRequestHasStableShape(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(srv.URL, 0).StoredDocuments(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "request was cancelled" || apiErr.Status != 0 {
		t.Errorf("cancellation not normalized: %+v", apiErr)
	}
}

func TestStatusDecodesDocumentState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/status/doc-42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status":"processing","message":"page 3 of 7","pages_extracted":3,"total_pages":7}`)
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL, 0).Status(context.Background(), "doc-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != "processing" || status.PagesExtracted != 3 || status.TotalPages != 7 {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestCombineDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/combine" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"document_ids":["d1","d2"]`) {
			t.Errorf("unexpected body %s", body)
		}
		fmt.Fprint(w, `{"success":true,"combination_id":"c1","pdf_endpoint":"/api/v1/documents/download-pdf/c1"}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 0).CombineDocuments(context.Background(), []string{"d1", "d2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CombinationID != "c1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDownloadPDFStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/documents/download-pdf/c1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 combined")
	}))
	defer srv.Close()

	body, err := NewClient(srv.URL, 0).DownloadPDF(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, 0).Health(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
