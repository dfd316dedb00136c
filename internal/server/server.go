// Package server exposes the analysis pipeline and the question agent
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cvinsight/cv-insight/internal/agent"
	"github.com/cvinsight/cv-insight/internal/document"
	"github.com/cvinsight/cv-insight/internal/extract"
	"github.com/cvinsight/cv-insight/internal/pipeline"
)

// maxUploadBytes caps the accepted document size.
const maxUploadBytes = 10 << 20

// Analyzer is the upload/analyze surface of the pipeline.
type Analyzer interface {
	Upload(rawText, filename string) string
	Analyze(ctx context.Context, documentID string) (*pipeline.Result, error)
}

// Responder is the question-answering surface of the agent.
type Responder interface {
	Ask(ctx context.Context, documentID, question string) (*agent.Reply, error)
}

// TextLoader decodes uploaded bytes into plain text.
type TextLoader interface {
	Load(ctx context.Context, filename string, data []byte) (string, error)
}

// Server is the HTTP boundary of cv-insight.
type Server struct {
	analyzer  Analyzer
	responder Responder
	loader    TextLoader
	logger    *zap.Logger
	addr      string
}

// New creates a server bound to addr.
func New(analyzer Analyzer, responder Responder, loader TextLoader, logger *zap.Logger, addr string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		analyzer:  analyzer,
		responder: responder,
		loader:    loader,
		logger:    logger,
		addr:      addr,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents", s.handleUpload)
	mux.HandleFunc("POST /api/documents/{id}/analysis", s.handleAnalyze)
	mux.HandleFunc("POST /api/documents/{id}/question", s.handleQuestion)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.loggingMiddleware(mux)
}

// Start runs the HTTP server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("http server starting", zap.String("addr", s.addr))
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Chars      int    `json:"chars"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("form file: %w", err))
		return
	}
	defer file.Close()

	// The extension allow-list rejects unsupported formats before any
	// document state is created.
	if _, err := document.DetectFormat(header.Filename); err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	text, err := s.loader.Load(r.Context(), header.Filename, data)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	id := s.analyzer.Upload(text, header.Filename)
	s.writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentID: id,
		Filename:   header.Filename,
		Chars:      len(text),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	result, err := s.analyzer.Analyze(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type questionRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode question: %w", err))
		return
	}
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}

	reply, err := s.responder.Ask(r.Context(), r.PathValue("id"), req.Question)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, document.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrSchemaViolation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
