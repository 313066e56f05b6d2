// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/ocr"
	"github.com/Veraticus/sentinel/internal/pipeline"
	"github.com/Veraticus/sentinel/internal/storage"
)

const (
	// ScreenshotField is the multipart field carrying the uploaded image.
	ScreenshotField = "screenshot"

	defaultMaxUpload    = 16 << 20
	defaultHistoryLimit = 20
	shutdownTimeout     = 10 * time.Second
)

// Analyzer runs the fraud analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image) (*model.PipelineResult, error)
	AnalyzeText(ctx context.Context, text string) (*model.PipelineResult, error)
}

// LinkChecker grades the links found in a message.
type LinkChecker interface {
	AnalyzeText(ctx context.Context, text string) *model.LinkReport
}

// History lists stored analyses.
type History interface {
	ListAnalyses(ctx context.Context, opts storage.ListOptions) ([]*model.PipelineResult, error)
}

// Server serves the analysis API.
type Server struct {
	analyzer  Analyzer
	links     LinkChecker
	history   History
	mux       *http.ServeMux
	maxUpload int64
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/history.
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithMaxUpload limits the size of uploaded screenshots.
func WithMaxUpload(bytes int64) Option {
	return func(s *Server) {
		if bytes > 0 {
			s.maxUpload = bytes
		}
	}
}

// New builds a Server. links may be nil, which disables /api/links and the
// links query parameter.
func New(analyzer Analyzer, links LinkChecker, opts ...Option) *Server {
	s := &Server{
		analyzer:  analyzer,
		links:     links,
		maxUpload: defaultMaxUpload,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/analyze-text", s.handleAnalyzeText)
	if s.links != nil {
		s.mux.HandleFunc("POST /api/links", s.handleLinks)
	}
	if s.history != nil {
		s.mux.HandleFunc("GET /api/history", s.handleHistory)
	}
	return s
}

// Handler returns the HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	*model.PipelineResult
	Links *model.LinkReport `json:"links,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile(ScreenshotField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No screenshot uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	img, err := ocr.Decode(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Uploaded file is not a supported image")
		return
	}

	ctx := pipeline.WithSource(r.Context(), header.Filename)
	result, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	s.writeResult(w, r, result)
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	result, err := s.analyzer.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	s.writeResult(w, r, result)
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	report := s.links.AnalyzeText(r.Context(), req.Text)
	if report == nil {
		report = &model.LinkReport{
			Links:   []model.LinkAnalysis{},
			Overall: model.LinkOverview{RiskLevel: model.RiskLow},
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{Limit: defaultHistoryLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}
	if raw := r.URL.Query().Get("verdict"); raw != "" {
		label, err := model.ParseLabel(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Verdict = label
	}

	results, err := s.history.ListAnalyses(r.Context(), opts)
	if err != nil {
		common.LogError(err, "Failed to list analyses", nil)
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if results == nil {
		results = []*model.PipelineResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// writeResult responds with result, adding a link report when ?links=true.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, result *model.PipelineResult) {
	resp := analyzeResponse{PipelineResult: result}
	if s.links != nil {
		if want, _ := strconv.ParseBool(r.URL.Query().Get("links")); want {
			resp.Links = s.links.AnalyzeText(r.Context(), result.ExtractedText)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeText(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad json: %v", err))
		return req, false
	}
	return req, true
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "Analysis canceled")
		return
	}
	common.LogError(err, "Analysis failed", nil)
	writeError(w, http.StatusInternalServerError, "Analysis failed")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
