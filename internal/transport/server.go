// server.go — HTTP surface of the MCP server.
// One base path (default /mcp) speaks the streamable HTTP transport: POST for
// JSON-RPC, GET for long-lived SSE, DELETE for session termination, OPTIONS
// for CORS preflight. /metrics and /healthz sit outside the base path. The
// transport never parses domain payloads; it normalizes the request and
// writes whatever ResponsePlan the router returns.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ashfox/ashfox-mcp/internal/logging"
	"github.com/ashfox/ashfox-mcp/internal/router"
)

const (
	// maxBodyBytes bounds POST bodies; a body of exactly this size succeeds.
	maxBodyBytes = 5_000_000

	// bodyReadTimeout bounds how long a client may dribble the body.
	bodyReadTimeout = 30 * time.Second

	// statusClientClosedRequest is the nginx convention for aborted requests.
	statusClientClosedRequest = 499

	headerSessionID       = "Mcp-Session-Id"
	headerProtocolVersion = "Mcp-Protocol-Version"
)

// Config is the transport configuration.
type Config struct {
	Host     string
	Port     int
	BasePath string
	Token    string
	Version  string
}

// Server binds the router to HTTP.
type Server struct {
	cfg     Config
	router  *router.Router
	log     *logging.Logger
	metrics *Metrics
	httpSrv *http.Server
}

// NewServer builds the HTTP server. The metrics value is shared with the
// tool service observer.
func NewServer(cfg Config, rt *router.Router, metrics *Metrics, log *logging.Logger) *Server {
	cfg.BasePath = NormalizeBasePath(cfg.BasePath)
	s := &Server{cfg: cfg, router: rt, log: log, metrics: metrics}
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.Handler(),
	}
	return s
}

// NormalizeBasePath forces a leading slash and strips the trailing one.
func NormalizeBasePath(p string) string {
	if p == "" {
		return "/mcp"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Handler builds the full mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleMCP)
	return mux
}

// ListenAndServe runs until the context is canceled, then drains.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpSrv.Addr, err)
	}
	s.log.Info("listening", map[string]any{"addr": ln.Addr().String(), "path": s.cfg.BasePath})

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpSrv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.cfg.Version,
		"sessions": s.router.SessionCount(),
	})
}

// handleMCP is the single streamable-HTTP endpoint.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.handlePreflight(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api") {
		setCORSHeaders(w)
	}

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	if r.URL.Path != s.cfg.BasePath {
		s.writeError(w, r, http.StatusNotFound, "not_found", "unknown path")
		return
	}
	if !s.authorized(r) {
		s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	}
}

// handlePreflight answers CORS preflight. Only /api* paths advertise CORS.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api") {
		setCORSHeaders(w)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "content-type,last-event-id,authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")
	}
	w.WriteHeader(http.StatusNoContent)
	s.metrics.CountRequest(r.Method, http.StatusNoContent)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+s.cfg.Token
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		s.writeError(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
		return
	}

	body, errStatus, errCode := s.readBody(w, r)
	if errStatus != 0 {
		s.writeError(w, r, errStatus, errCode, strings.ReplaceAll(errCode, "_", " "))
		return
	}

	plan := s.router.HandlePost(&router.Request{
		Ctx:             r.Context(),
		Body:            body,
		SessionID:       r.Header.Get(headerSessionID),
		ProtocolVersion: r.Header.Get(headerProtocolVersion),
		AcceptSSE:       acceptsSSE(r),
	})
	s.writePlan(w, r, plan)
}

// readBody reads a bounded POST body under the read timeout. A non-zero
// status reports the transport-level failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (body []byte, status int, code string) {
	limited := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(limited)
		done <- readResult{data, err}
	}()

	timer := time.NewTimer(bodyReadTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err == nil {
			return res.data, 0, ""
		}
		var tooLarge *http.MaxBytesError
		if errors.As(res.err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "payload_too_large"
		}
		return nil, statusClientClosedRequest, "request_aborted"
	case <-timer.C:
		return nil, http.StatusRequestTimeout, "request_timeout"
	case <-r.Context().Done():
		return nil, statusClientClosedRequest, "request_aborted"
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" || !s.router.EndSession(sessionID) {
		s.writeError(w, r, http.StatusNotFound, "unknown_session", "no such session")
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func acceptsSSE(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// writePlan writes a router ResponsePlan.
func (s *Server) writePlan(w http.ResponseWriter, r *http.Request, plan router.ResponsePlan) {
	if plan.SessionID != "" {
		w.Header().Set(headerSessionID, plan.SessionID)
	}
	switch plan.Kind {
	case router.PlanEmpty:
		w.WriteHeader(plan.Status)
	case router.PlanSSE:
		s.writeSingleEvent(w, plan)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(plan.Status)
		_, _ = w.Write(plan.Body)
	}
	s.metrics.CountRequest(r.Method, plan.Status)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{}`)
	}
	_, _ = w.Write(data)
	s.metrics.CountRequest(r.Method, status)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}
