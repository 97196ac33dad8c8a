package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"branch-deployer/internal/kube"
	"branch-deployer/internal/manifest"
	"branch-deployer/internal/metrics"
)

// missingBranch stands in for an absent branch query parameter.
const missingBranch = "undefined"

type Deployer interface {
	Deploy(ctx context.Context, b manifest.BranchContext) ([3]kube.Outcome, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Deployer  Deployer
	Pinger    Pinger
	Namespace string
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
	Gatherer  prometheus.Gatherer
	// OnFatal is called after a deploy failed without reaching the API server.
	OnFatal func(error)
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.OnFatal == nil {
		opts.OnFatal = func(error) {}
	}
	return &Server{opts: opts}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", s.handleDeploy)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", s.handleReady)
	if s.opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	logger := s.opts.Logger.With("request_id", requestID)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	branch := missingBranch
	if query.Has("branch") {
		branch = query.Get("branch")
	}
	b := manifest.BranchContext{
		Namespace:  s.opts.Namespace,
		BranchName: branch,
		GitHash:    query.Get("git_hash"),
		HasGitHash: query.Has("git_hash"),
	}
	logger.Info("deploy requested", "branch", b.BranchName, "git_hash", b.GitHash, "namespace", b.Namespace)

	// Dispatched upserts run to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())
	outcomes, err := s.opts.Deployer.Deploy(ctx, b)
	if err != nil {
		logger.Error("deploy failed unexpectedly", "branch", b.BranchName, "error", err)
		s.opts.Metrics.ObserveFatal()
		s.writeJSON(w, logger, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		s.opts.Metrics.ObserveRequest(strconv.Itoa(http.StatusInternalServerError), time.Since(start))
		s.opts.OnFatal(err)
		return
	}

	s.writeJSON(w, logger, http.StatusOK, outcomes[:])
	s.opts.Metrics.ObserveRequest(strconv.Itoa(http.StatusOK), time.Since(start))
	logger.Info("deploy finished", "branch", b.BranchName, "duration", time.Since(start).String())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Pinger == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.opts.Pinger.Ping(ctx); err != nil {
		s.opts.Logger.Warn("readiness probe failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, logger *slog.Logger, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("response write failed", "error", err)
	}
}
