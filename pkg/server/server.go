// Package server provides the HTTP API for meetings, the agent and the conflict resolver.
package server

import (
	"net/http"

	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/agent"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/meeting"
	"github.com/MuneebDevss/conflict-resolver-agent/pkg/usecase/resolver"
)

// Server routes HTTP requests to the use cases
type Server struct {
	meetings *meeting.UseCase
	agent    *agent.Agent
	resolver *resolver.UseCase
	metrics  *Metrics
	mcp      http.Handler
	version  string

	mux *http.ServeMux
}

type Option func(*Server)

// WithAgent enables the /api/agent endpoints. Without it they answer 503.
func WithAgent(a *agent.Agent) Option {
	return func(s *Server) {
		s.agent = a
	}
}

// WithResolver enables the /api/conflicts endpoints. Without it they answer 503.
func WithResolver(r *resolver.UseCase) Option {
	return func(s *Server) {
		s.resolver = r
	}
}

// WithMetrics records request metrics and exposes them on /metrics
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMCP mounts an MCP streamable HTTP handler on /mcp
func WithMCP(h http.Handler) Option {
	return func(s *Server) {
		s.mcp = h
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func New(meetings *meeting.UseCase, opts ...Option) *Server {
	s := &Server{
		meetings: meetings,
		version:  "dev",
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/agent", s.handleAgent)
	s.mux.HandleFunc("POST /api/agent/clear-history", s.handleClearHistory)

	s.mux.HandleFunc("GET /api/meetings", s.handleListMeetings)
	s.mux.HandleFunc("POST /api/meetings", s.handleCreateMeeting)
	s.mux.HandleFunc("GET /api/meetings/conflicts", s.handleFindConflicts)
	s.mux.HandleFunc("GET /api/meetings/{id}", s.handleGetMeeting)
	s.mux.HandleFunc("PUT /api/meetings/{id}", s.handleUpdateMeeting)
	s.mux.HandleFunc("DELETE /api/meetings/{id}", s.handleDeleteMeeting)

	s.mux.HandleFunc("POST /api/conflicts/resolve", s.handleResolveConflict)
	s.mux.HandleFunc("GET /api/conflicts", s.handleListConflicts)

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.mcp != nil {
		s.mux.Handle("/mcp", s.mcp)
		s.mux.Handle("/mcp/", s.mcp)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.middleware(s.mux).ServeHTTP(w, r)
}
