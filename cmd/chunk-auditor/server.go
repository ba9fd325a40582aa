// cmd/chunk-auditor/server.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chunk-auditor/internal/common/config"
	apperrors "chunk-auditor/internal/common/errors"
	"chunk-auditor/internal/common/logger"
	"chunk-auditor/internal/common/observability"
	"chunk-auditor/internal/composite"
	"chunk-auditor/internal/pipeline"
	"chunk-auditor/internal/render"
	"chunk-auditor/internal/report"
	"chunk-auditor/pkg/registry"
)

// auditRequest is the POST /v1/audits body. Exactly one of content and url
// must be set; the formatting fields override the configured defaults for
// this request only.
type auditRequest struct {
	Content      string `json:"content,omitempty"`
	URL          string `json:"url,omitempty"`
	Verbosity    string `json:"verbosity,omitempty"`
	FilterOutput *bool  `json:"filter_output,omitempty"`
	MaxItems     int    `json:"max_items,omitempty"`
}

type server struct {
	cfg       *config.Config
	pipe      *pipeline.Pipeline
	evaluator composite.Evaluator
	store     *report.Store
	generator *report.Generator
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func newServer(
	cfg *config.Config,
	pipe *pipeline.Pipeline,
	evaluator composite.Evaluator,
	store *report.Store,
	generator *report.Generator,
	obs *observability.Observability,
	log logger.Logger,
) *server {
	return &server{
		cfg:       cfg,
		pipe:      pipe,
		evaluator: evaluator,
		store:     store,
		generator: generator,
		obs:       obs,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout.
func (s *server) run(zapLog *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/audits", s.handleAudits)
	mux.HandleFunc("/v1/audits/", s.handleAuditByID)
	mux.HandleFunc("/v1/assessors", s.handleAssessors)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "chunk-auditor",
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ready",
		})
	})

	port := s.cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     mux,
		ReadTimeout: config.GetDuration(s.cfg.Server.ReadTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP service listening", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, draining requests...", zap.String("signal", sig.String()))
	}

	shutdownTimeout := config.GetDuration(s.cfg.Server.ShutdownTimeout)
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(ctx)
}

// handleAudits runs a full audit for the posted source and returns the run
// report with per-chunk machine records.
func (s *server) handleAudits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errors.HandleRequestError(w, r, apperrors.NewConfigInvalidError(
			fmt.Sprintf("unreadable request body: %v", err)))
		return
	}
	if (req.Content == "") == (req.URL == "") {
		s.errors.HandleRequestError(w, r, apperrors.NewConfigInvalidError(
			"exactly one of content and url is required"))
		return
	}

	opts := render.FormattingOptions{
		Verbosity:    render.Verbosity(s.cfg.Reporting.Verbosity),
		FilterOutput: s.cfg.Reporting.FilterOutput,
		MaxItems:     s.cfg.Reporting.MaxItems,
	}
	if req.Verbosity != "" {
		opts.Verbosity = render.Verbosity(req.Verbosity)
	}
	if req.FilterOutput != nil {
		opts.FilterOutput = *req.FilterOutput
	}
	if req.MaxItems > 0 {
		opts.MaxItems = req.MaxItems
	}

	runner, err := report.NewRunner(s.evaluator, opts, s.cfg.Scoring.MaxConcurrentChunks, s.logger)
	if err != nil {
		s.errors.HandleRequestError(w, r, apperrors.NewConfigInvalidError(err.Error()))
		return
	}

	started := time.Now()

	var batch *pipeline.Batch
	if req.URL != "" {
		batch, err = s.pipe.ProcessURL(r.Context(), req.URL)
	} else {
		batch, err = s.pipe.ProcessString(req.Content)
	}
	if err != nil {
		s.obs.RecordEvaluationProcessed(r.Context(), "error")
		s.errors.HandleRequestError(w, r, err)
		return
	}

	runReport, err := runner.Run(r.Context(), batch)
	if err != nil {
		s.obs.RecordEvaluationProcessed(r.Context(), "error")
		s.errors.HandleRequestError(w, r, err)
		return
	}
	s.obs.RecordEvaluationProcessed(r.Context(), "success")
	s.obs.RecordEvaluationDuration(r.Context(), time.Since(started), "success")

	if s.store != nil {
		if err := s.store.SaveRun(r.Context(), runReport); err != nil {
			s.logger.Warn("audit run not persisted", map[string]interface{}{
				"runId": runReport.RunID,
				"error": err.Error(),
			})
		}
	}

	writeJSON(w, http.StatusOK, runReport)
}

// handleAuditByID serves a persisted run. Without a store there is nothing
// to look up, which reads the same as an unknown id to the caller.
func (s *server) handleAuditByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/v1/audits/")
	if runID == "" || strings.Contains(runID, "/") {
		s.errors.HandleRequestError(w, r, apperrors.NewRunNotFoundError(runID))
		return
	}
	if s.store == nil {
		s.errors.HandleRequestError(w, r, apperrors.NewRunNotFoundError(runID))
		return
	}

	stored, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, report.ErrRunNotFound) {
			s.errors.HandleRequestError(w, r, apperrors.NewRunNotFoundError(runID))
		} else {
			s.errors.HandleRequestError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// handleAssessors serves the catalog built from the compiled assessor
// definitions, so it always matches the binary that scores the chunks.
func (s *server) handleAssessors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, registry.Default())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
