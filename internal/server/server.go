// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes reports, section generation and the Deep Dive
// workflow over HTTP. Every report gets its own workflow session; all
// sessions share one throttle gate so calls from different reports are
// paced together.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/report-drafter/internal/generate"
	"github.com/pdiddy/report-drafter/internal/store"
	"github.com/pdiddy/report-drafter/internal/throttle"
	"github.com/pdiddy/report-drafter/internal/workflow"
	"github.com/pdiddy/report-drafter/pkg/types"
)

// DefaultBacklog is how many notifications a report keeps when the
// configuration does not say.
const DefaultBacklog = 50

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store    *store.Store
	Gate     *throttle.Gate
	Gen      generate.Collaborator
	Settings *workflow.Settings
	Logger   *zap.Logger
}

// Server routes HTTP requests to the store and the per-report workflows.
type Server struct {
	store    *store.Store
	gate     *throttle.Gate
	gen      generate.Collaborator
	settings *workflow.Settings
	logger   *zap.Logger
	backlog  int

	// base is the context background runs are started with. It outlives
	// any single request and is cancelled by Shutdown.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a Server.
func New(cfg types.ServerConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backlog := cfg.NotificationBacklog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		store:    deps.Store,
		gate:     deps.Gate,
		gen:      deps.Gen,
		settings: deps.Settings,
		logger:   logger,
		backlog:  backlog,
		base:     base,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/sections", s.handleListSections)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.handleListReports)
			r.Post("/", s.handleCreateReport)

			r.Route("/{report}", func(r chi.Router) {
				r.Use(s.requireReport)

				r.Get("/", s.handleGetReport)
				r.Put("/info", s.handleSetInfo)
				r.Put("/owner", s.handleSetOwner)
				r.Delete("/", s.handleDeleteReport)

				r.Put("/sections/{section}", s.handleEditSection)
				r.Post("/sections/{section}/generate", s.handleGenerateSection)

				r.Get("/notifications", s.handleNotifications)

				r.Route("/deepdive", func(r chi.Router) {
					r.Get("/", s.handleSnapshot)
					r.Post("/start", s.handleStart)
					r.Post("/items", s.handleAddItem)
					r.Put("/items/{index}", s.handleEditItem)
					r.Delete("/items/{index}", s.handleRemoveItem)
					r.Post("/expand", s.handleExpand)
					r.Post("/reset", s.handleReset)
				})

				r.Get("/export/{format}", s.handleExport)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccount)
			r.Post("/use-quota", s.handleUseQuota)
			r.Get("/{account}", s.handleGetAccount)
			r.Get("/{account}/recharge", s.handleRechargeInfo)
			r.Post("/{account}/recharge", s.handleRecharge)
		})
	})
	return router
}

// Shutdown cancels every background run and waits for them to return.
func (s *Server) Shutdown() {
	s.cancel()
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.wait()
	}
}

// requireReport answers 404 for unknown report ids, so no session is ever
// created for a report that does not exist.
func (s *Server) requireReport(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "report")
		ok, err := s.store.ReportExists(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			respondError(w, http.StatusNotFound, fmt.Errorf("report %s: %w", id, store.ErrNotFound))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionCount returns how many report sessions are live.
func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// session returns the workflow session of reportID, creating it on first
// use.
func (s *Server) session(reportID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[reportID]; ok {
		return sess
	}
	sess := s.newSession(reportID)
	s.sessions[reportID] = sess
	return sess
}

// dropSession forgets the session of a deleted report, cancelling anything
// it still runs.
func (s *Server) dropSession(reportID string) {
	s.mu.Lock()
	sess, ok := s.sessions[reportID]
	delete(s.sessions, reportID)
	s.mu.Unlock()
	if ok {
		sess.cancel()
		sess.wait()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
