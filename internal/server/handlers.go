package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/54b3r/pdfchat-go/internal/logging"
	"github.com/54b3r/pdfchat-go/internal/pipeline"
	"github.com/54b3r/pdfchat-go/internal/session"
)

// handleUpload handles POST /upload. The document arrives as a multipart
// form with a "file" part; the response carries the new session ID the
// client uses for /ask and /delete.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
		s.metrics.uploadsTotal.WithLabelValues(outcomeRejected).Inc()
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			s.metrics.uploadsTotal.WithLabelValues(outcomeRejected).Inc()
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided.")
		s.metrics.uploadsTotal.WithLabelValues(outcomeRejected).Inc()
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			s.metrics.uploadsTotal.WithLabelValues(outcomeRejected).Inc()
			return
		}
		logging.FromContext(r.Context()).Error("upload: reading file part failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to read uploaded file.")
		s.metrics.uploadsTotal.WithLabelValues(outcomeError).Inc()
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = "unnamed.pdf"
	}

	res, err := s.ingest.Ingest(r.Context(), data, filename)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoReadableText) {
			writeError(w, http.StatusBadRequest, "No readable text found in PDF.")
			s.metrics.uploadsTotal.WithLabelValues(outcomeRejected).Inc()
			return
		}
		logging.FromContext(r.Context()).Error("upload: ingestion failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to process the uploaded document.")
		s.metrics.uploadsTotal.WithLabelValues(outcomeError).Inc()
		return
	}

	s.metrics.uploadsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.sessionsActive.Inc()
	s.metrics.chunksIndexed.Observe(float64(res.Chunks))

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:   "PDF uploaded successfully!",
		SessionID: res.SessionID,
		Filename:  res.Filename,
	})
}

// handleAsk handles GET /ask?session_id=...&question=...
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	question := r.URL.Query().Get("question")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required.")
		return
	}
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required.")
		return
	}

	answer, err := s.answer.Answer(r.Context(), sessionID, question)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found.")
			s.metrics.questionsTotal.WithLabelValues(outcomeRejected).Inc()
			return
		}
		logging.FromContext(r.Context()).Error("ask: answering failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to answer the question.")
		s.metrics.questionsTotal.WithLabelValues(outcomeError).Inc()
		return
	}

	s.metrics.questionsTotal.WithLabelValues(outcomeOK).Inc()
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

// handleDelete handles DELETE /delete?session_id=...
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required.")
		return
	}

	if err := s.remove.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found.")
			return
		}
		logging.FromContext(r.Context()).Error("delete: teardown failed",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to delete the session.")
		return
	}

	s.metrics.sessionsActive.Dec()
	writeJSON(w, http.StatusOK, deleteResponse{Message: "Session deleted successfully"})
}

// handleHealth handles GET /health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the uniform {"detail": ...} error body.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
