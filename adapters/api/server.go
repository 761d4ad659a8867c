// Package api exposes the inference engine over HTTP: submit a dual-band
// recording with configuration overrides, fetch run manifests and rendered
// reports.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/domain/signal"
	"pacbayes/internal"
	"pacbayes/internal/errors"
	"pacbayes/internal/pipeline"
	"pacbayes/internal/report"
	"pacbayes/ports"
)

// Server routes analysis requests to the pipeline and serves stored results.
type Server struct {
	router   *chi.Mux
	oracle   ports.CouplingOracle
	repo     ports.RunRepository
	defaults connectivity.Settings
	workers  int
	logger   *internal.Logger

	// Rendered reports are kept alongside the manifests because the density
	// diagnostics are not part of the persisted record.
	reportMu sync.RWMutex
	reports  map[core.RunID][]byte
}

// NewServer wires the routes.
func NewServer(oracle ports.CouplingOracle, repo ports.RunRepository, defaults connectivity.Settings, workers int) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		oracle:   oracle,
		repo:     repo,
		defaults: defaults,
		workers:  workers,
		logger:   internal.DefaultLogger,
		reports:  make(map[core.RunID][]byte),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Get("/{runID}", s.handleGetRun)
		r.Get("/{runID}/report", s.handleGetReport)
	})

	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RunRequest is the POST /runs payload.
type RunRequest struct {
	Phase        [][]float64            `json:"phase"`
	Amplitude    [][]float64            `json:"amplitude"`
	SamplingRate float64                `json:"sampling_rate"`
	Settings     *connectivity.Settings `json:"settings,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.InvalidInput("malformed run request"))
		return
	}

	settings := s.defaults
	if req.Settings != nil {
		settings = *req.Settings
	}

	bands := &signal.BandPair{
		Phase:        req.Phase,
		Amplitude:    req.Amplitude,
		SamplingRate: req.SamplingRate,
	}

	p := pipeline.New(s.oracle, settings, s.workers)
	outcome, err := p.Run(r.Context(), bands)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	manifest, err := p.BuildManifest(outcome)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	if err := s.repo.Save(r.Context(), manifest); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	dividers, counts := outcome.Model.Histogram(settings.NumBins)
	html := report.HTML(manifest, outcome.Model.Summarize(), dividers, counts)
	s.reportMu.Lock()
	s.reports[manifest.ID] = html
	s.reportMu.Unlock()

	s.logger.Info("run %s complete: %d significant observations", manifest.ID, manifest.Result.SignificantCount)
	s.writeJSON(w, http.StatusCreated, manifest)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	manifests, err := s.repo.List(r.Context(), 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, manifests)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.InvalidInput("malformed run id"))
		return
	}

	manifest, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, manifest)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.InvalidInput("malformed run id"))
		return
	}

	s.reportMu.RLock()
	html, ok := s.reports[id]
	s.reportMu.RUnlock()
	if !ok {
		s.writeError(w, http.StatusNotFound, core.ErrRunNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed (%d): %v", status, err)
	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

// statusFor maps engine error classes to HTTP statuses.
func statusFor(err error) int {
	switch {
	case core.IsConfigurationError(err), core.IsShapeMismatchError(err):
		return http.StatusBadRequest
	case core.IsInsufficientDataError(err):
		return http.StatusUnprocessableEntity
	case stderrors.Is(err, core.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
