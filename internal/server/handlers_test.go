package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/session"
)

// ---------------------------------------------------------------------------
// Fake pipeline flows for handler tests
// ---------------------------------------------------------------------------

// fakeIngestor implements the ingestor interface for tests.
type fakeIngestor struct {
	result      pipeline.IngestResult
	err         error
	gotData     []byte
	gotFilename string
}

func (f *fakeIngestor) Ingest(_ context.Context, data []byte, filename string) (pipeline.IngestResult, error) {
	f.gotData = data
	f.gotFilename = filename
	if f.err != nil {
		return pipeline.IngestResult{}, f.err
	}
	return f.result, nil
}

// fakeAnswerer implements the answerer interface for tests.
type fakeAnswerer struct {
	answer      string
	err         error
	gotSession  string
	gotQuestion string
}

func (f *fakeAnswerer) Answer(_ context.Context, sessionID, question string) (string, error) {
	f.gotSession = sessionID
	f.gotQuestion = question
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// fakeDeleter implements the deleter interface for tests.
type fakeDeleter struct {
	err        error
	gotSession string
}

func (f *fakeDeleter) Delete(_ context.Context, sessionID string) error {
	f.gotSession = sessionID
	return f.err
}

// newTestServer builds a *Server wired with the given fakes and a private
// metrics registry.
func newTestServer(ing ingestor, ans answerer, del deleter) *Server {
	return &Server{
		ingest:  ing,
		answer:  ans,
		remove:  del,
		cfg:     &Config{Port: 8000, MaxUploadBytes: defaultMaxUploadBytes},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
}

// multipartUpload builds a multipart/form-data request body with one "file"
// part named filename and carrying content.
func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// decodeBody decodes the recorder's JSON body into dst.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

// ---------------------------------------------------------------------------
// POST /upload
// ---------------------------------------------------------------------------

func TestHandleUpload_Success(t *testing.T) {
	t.Parallel()

	ing := &fakeIngestor{result: pipeline.IngestResult{
		SessionID: "3f2b8c1a-0000-0000-0000-000000000001",
		Filename:  "report.pdf",
		Chunks:    12,
	}}
	s := newTestServer(ing, nil, nil)

	body, contentType := multipartUpload(t, "file", "report.pdf", "%PDF-1.4 content")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp uploadResponse
	decodeBody(t, w, &resp)
	if resp.Message != "PDF uploaded successfully!" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.SessionID != ing.result.SessionID {
		t.Errorf("session_id = %q, want %q", resp.SessionID, ing.result.SessionID)
	}
	if resp.Filename != "report.pdf" {
		t.Errorf("filename = %q", resp.Filename)
	}
	if string(ing.gotData) != "%PDF-1.4 content" {
		t.Errorf("ingestor received data %q", ing.gotData)
	}
}

func TestHandleUpload_MissingFilePart(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeIngestor{}, nil, nil)

	body, contentType := multipartUpload(t, "document", "report.pdf", "content")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if resp.Detail != "No file provided." {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestHandleUpload_NoReadableText(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeIngestor{err: pipeline.ErrNoReadableText}, nil, nil)

	body, contentType := multipartUpload(t, "file", "scan.pdf", "%PDF-1.4 image-only")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if resp.Detail != "No readable text found in PDF." {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestHandleUpload_IngestFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeIngestor{err: fmt.Errorf("qdrant unreachable")}, nil, nil)

	body, contentType := multipartUpload(t, "file", "doc.pdf", "content")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	// Internal details must not leak to the client.
	if strings.Contains(w.Body.String(), "qdrant") {
		t.Errorf("response leaks internal error: %s", w.Body.String())
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	t.Parallel()

	ing := &fakeIngestor{}
	s := newTestServer(ing, nil, nil)
	s.cfg.MaxUploadBytes = 64

	body, contentType := multipartUpload(t, "file", "big.pdf", strings.Repeat("x", 4096))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	s.handleUpload(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if ing.gotData != nil {
		t.Error("oversized upload reached the ingestor")
	}
}

// ---------------------------------------------------------------------------
// GET /ask
// ---------------------------------------------------------------------------

func TestHandleAsk_Success(t *testing.T) {
	t.Parallel()

	ans := &fakeAnswerer{answer: "The population is 4521."}
	s := newTestServer(nil, ans, nil)

	req := httptest.NewRequest(http.MethodGet, "/ask?session_id=abc&question=What+is+the+population%3F", nil)
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp askResponse
	decodeBody(t, w, &resp)
	if resp.Answer != "The population is 4521." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if ans.gotSession != "abc" {
		t.Errorf("session passed = %q", ans.gotSession)
	}
	if ans.gotQuestion != "What is the population?" {
		t.Errorf("question passed = %q", ans.gotQuestion)
	}
}

func TestHandleAsk_MissingParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "no session_id", target: "/ask?question=hello"},
		{name: "no question", target: "/ask?session_id=abc"},
		{name: "neither", target: "/ask"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(nil, &fakeAnswerer{}, nil)
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			w := httptest.NewRecorder()

			s.handleAsk(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestHandleAsk_SessionNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, &fakeAnswerer{err: session.ErrNotFound}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ask?session_id=gone&question=hi", nil)
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp errorResponse
	decodeBody(t, w, &resp)
	if resp.Detail != "Session not found." {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestHandleAsk_AnswerFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, &fakeAnswerer{err: errors.New("model timeout")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ask?session_id=abc&question=hi", nil)
	w := httptest.NewRecorder()

	s.handleAsk(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// DELETE /delete
// ---------------------------------------------------------------------------

func TestHandleDelete_Success(t *testing.T) {
	t.Parallel()

	del := &fakeDeleter{}
	s := newTestServer(nil, nil, del)

	req := httptest.NewRequest(http.MethodDelete, "/delete?session_id=abc", nil)
	w := httptest.NewRecorder()

	s.handleDelete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp deleteResponse
	decodeBody(t, w, &resp)
	if resp.Message != "Session deleted successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if del.gotSession != "abc" {
		t.Errorf("session passed = %q", del.gotSession)
	}
}

func TestHandleDelete_MissingSessionID(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, &fakeDeleter{})
	req := httptest.NewRequest(http.MethodDelete, "/delete", nil)
	w := httptest.NewRecorder()

	s.handleDelete(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleDelete_SessionNotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, &fakeDeleter{err: session.ErrNotFound})
	req := httptest.NewRequest(http.MethodDelete, "/delete?session_id=gone", nil)
	w := httptest.NewRecorder()

	s.handleDelete(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q", resp["status"])
	}
}
