// Package httpapi exposes the assistant over HTTP: chat, streaming chat,
// session management, approvals, metrics and health.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shopassist/pkg/approval"
	"shopassist/pkg/logx"
	"shopassist/pkg/metrics"
	"shopassist/pkg/orchestrator"
	"shopassist/pkg/persistence"
)

// Server is the assistant's HTTP front end.
type Server struct {
	orch      *orchestrator.Orchestrator
	store     *persistence.Store
	approvals *approval.Manager
	recorder  *metrics.Recorder
	logger    *logx.Logger
	httpSrv   *http.Server
}

// NewServer wires the HTTP front end.
func NewServer(addr string, orch *orchestrator.Orchestrator, store *persistence.Store, approvals *approval.Manager, recorder *metrics.Recorder) *Server {
	s := &Server{
		orch:      orch,
		store:     store,
		approvals: approvals,
		recorder:  recorder,
		logger:    logx.NewLogger("httpapi"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /v1/approvals", s.handleListApprovals)
	mux.HandleFunc("POST /v1/approvals/{id}", s.handleResolveApproval)
	mux.HandleFunc("GET /v1/logs", s.handleLogs)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks serving requests until the listener fails or the
// server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening on %s", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
