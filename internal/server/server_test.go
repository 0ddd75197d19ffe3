package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/rag"
	"github.com/54b3r/pdfchat-go/internal/session"
)

// countEmbedder embeds every text as a short constant-direction vector so
// similarity search always matches.
type countEmbedder struct{}

func (countEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{1, float32(len(text) % 7)}
	}
	return out, nil
}

// cannedChat returns a fixed reply for every Generate call.
type cannedChat struct{ reply string }

func (c cannedChat) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(c.reply, nil), nil
}

func (cannedChat) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

// newFullServer wires a Server through New with real pipeline flows over
// in-memory collaborators.
func newFullServer(t *testing.T, cfg *Config) *Server {
	t.Helper()

	store := rag.NewMemoryStore()
	reg := session.NewMemoryRegistry()
	blobs := &memBlobs{refs: map[string][]byte{}}

	ing, err := pipeline.NewIngestor(blobs, countEmbedder{}, store, reg, pipeline.IngestConfig{})
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	locks := session.NewKeyedMutex()
	ans, err := pipeline.NewAnswerer(countEmbedder{}, store, reg, cannedChat{reply: "It is 4521."}, locks, 0, 0)
	if err != nil {
		t.Fatalf("NewAnswerer: %v", err)
	}
	td, err := pipeline.NewTeardown(blobs, store, reg, locks)
	if err != nil {
		t.Fatalf("NewTeardown: %v", err)
	}

	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Registry = prometheus.NewRegistry()

	s, err := New(ing, ans, td, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

// memBlobs is a minimal in-memory blob store for router tests.
type memBlobs struct{ refs map[string][]byte }

func (m *memBlobs) Store(_ context.Context, data []byte, _ string) (string, error) {
	ref := fmt.Sprintf("ref-%d", len(m.refs))
	m.refs[ref] = data
	return ref, nil
}

func (m *memBlobs) Destroy(_ context.Context, ref string) error {
	delete(m.refs, ref)
	return nil
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServerFullLifecycle(t *testing.T) {
	t.Parallel()

	s := newFullServer(t, nil)

	// Upload a plain-text document.
	body, contentType := multipartUpload(t, "file", "notes.txt",
		"The town of Exampletown has a population of 4521 people.")
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var up uploadResponse
	if err := json.NewDecoder(w.Body).Decode(&up); err != nil {
		t.Fatalf("upload decode: %v", err)
	}
	if up.SessionID == "" {
		t.Fatal("upload returned no session_id")
	}

	// Ask a question.
	req = httptest.NewRequest(http.MethodGet, "/ask?session_id="+up.SessionID+"&question=population%3F", nil)
	w = doRequest(s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var ask askResponse
	if err := json.NewDecoder(w.Body).Decode(&ask); err != nil {
		t.Fatalf("ask decode: %v", err)
	}
	if ask.Answer != "It is 4521." {
		t.Errorf("answer = %q", ask.Answer)
	}

	// Delete the session.
	req = httptest.NewRequest(http.MethodDelete, "/delete?session_id="+up.SessionID, nil)
	w = doRequest(s, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// The session is gone for both ask and delete.
	req = httptest.NewRequest(http.MethodGet, "/ask?session_id="+up.SessionID+"&question=hi", nil)
	if w = doRequest(s, req); w.Code != http.StatusNotFound {
		t.Errorf("ask after delete: expected 404, got %d", w.Code)
	}
	req = httptest.NewRequest(http.MethodDelete, "/delete?session_id="+up.SessionID, nil)
	if w = doRequest(s, req); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestServerAuthProtectsDocumentRoutes(t *testing.T) {
	t.Parallel()

	s := newFullServer(t, &Config{APIKey: "secret"})

	// Document routes require the token.
	req := httptest.NewRequest(http.MethodGet, "/ask?session_id=x&question=y", nil)
	if w := doRequest(s, req); w.Code != http.StatusUnauthorized {
		t.Errorf("ask without token: expected 401, got %d", w.Code)
	}

	// Operational routes stay open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	if w := doRequest(s, req); w.Code != http.StatusOK {
		t.Errorf("health without token: expected 200, got %d", w.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if w := doRequest(s, req); w.Code != http.StatusOK {
		t.Errorf("metrics without token: expected 200, got %d", w.Code)
	}

	// With the token the route responds (404 — unknown session, not 401).
	req = httptest.NewRequest(http.MethodGet, "/ask?session_id=x&question=y", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if w := doRequest(s, req); w.Code != http.StatusNotFound {
		t.Errorf("ask with token: expected 404, got %d", w.Code)
	}
}

func TestServerCORSHeaders(t *testing.T) {
	t.Parallel()

	s := newFullServer(t, &Config{CORSOrigins: []string{"https://app.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := doRequest(s, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	// Unlisted origins get no CORS grant.
	req = httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = doRequest(s, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin granted %q", got)
	}
}

func TestServerErrorBodyShape(t *testing.T) {
	t.Parallel()

	s := newFullServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ask?session_id=missing&question=hi", nil)
	w := doRequest(s, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("error body is not {\"detail\": ...}: %q", w.Body.String())
	}
	if resp.Detail != "Session not found." {
		t.Errorf("detail = %q", resp.Detail)
	}
}

func TestServerUploadUnreadableDocument(t *testing.T) {
	t.Parallel()

	s := newFullServer(t, nil)

	var empty bytes.Buffer
	body, contentType := multipartUpload(t, "file", "blank.txt", empty.String())
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := doRequest(s, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Detail != "No readable text found in PDF." {
		t.Errorf("detail = %q", resp.Detail)
	}
}
