// Package http exposes deployment controls and state over HTTP with chi.
package http

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deployer is the part of deploykit.Deployer the server drives.
type Deployer interface {
	Start(ctx context.Context) (<-chan deploykit.Result, bool)
	Request(req domain.Request) error
	Status() deploykit.Status
	Subscribe(buffer int) (<-chan state.Snapshot, func())
}

// Server serves the control API.
type Server struct {
	deployer Deployer
	metrics  http.Handler
	logger   *slog.Logger

	// base is the context runs started over HTTP inherit; they outlive the request.
	base context.Context
	runs sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithBaseContext sets the context deployments started over HTTP run under.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.base = ctx
	}
}

// NewServer creates a server for d.
func NewServer(d Deployer, opts ...Option) *Server {
	s := &Server{
		deployer: d,
		logger:   logging.NewNop(),
		base:     context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the deployer.
func NewHandler(d Deployer, opts ...Option) http.Handler {
	return NewServer(d, opts...).Handler()
}

var _ ServerInterface = (*Server)(nil)

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	return enableCORS(HandlerFromMux(s, r))
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>deploykit API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
  window.onload = () => {
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
    });
  };
</script>
</body>
</html>`

// Wait blocks until deployments started over HTTP have settled.
func (s *Server) Wait() {
	s.runs.Wait()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := Info{
		App:     "deploykit-http",
		Version: strings.TrimSpace(deploykit.Version),
	}
	if swagger, err := GetSwagger(); err == nil {
		info.ApiVersion = swagger.Info.Version
	} else {
		s.logger.Warn("OpenAPI document unavailable", "err", err)
	}
	s.writeJSON(w, http.StatusOK, info)
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deployer.Status())
}

// Deploy handles POST /deploy. The run continues after the response: 202 when
// it started, 409 when one is already in flight. With ?wait=true the handler
// blocks and answers with the outcome.
func (s *Server) Deploy(w http.ResponseWriter, r *http.Request, params DeployParams) {
	wait := params.Wait != nil && *params.Wait
	ctx := s.base
	if wait {
		ctx = r.Context()
	}

	// subscribe before starting so the run's first transition is not missed
	snaps, stop := s.deployer.Subscribe(4)
	defer stop()

	done, ok := s.deployer.Start(ctx)
	if !ok {
		st := s.deployer.Status()
		s.writeJSON(w, http.StatusConflict, conflict(string(st.State)))
		return
	}

	if wait {
		res := <-done
		s.writeOutcome(w, res.Outcome, res.Err)
		return
	}

	settled := make(chan deploykit.Result, 1)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		res := <-done
		settled <- res
		if res.Err != nil {
			s.logger.Warn("Deployment failed", "err", res.Err)
			return
		}
		s.logger.Info("Deployment settled", "status", res.Outcome.Status, "session_id", res.Outcome.SessionID)
	}()

	// answer once the run has left ready, or with the outcome if it settled without starting
	for {
		select {
		case res := <-settled:
			s.writeOutcome(w, res.Outcome, res.Err)
			return
		case snap := <-snaps:
			if snap.State == domain.StateReady {
				// tail of the previous run
				continue
			}
			select {
			case res := <-settled:
				if res.Outcome.Status == domain.OutcomeIgnored {
					s.writeOutcome(w, res.Outcome, res.Err)
					return
				}
			default:
			}
			s.writeJSON(w, http.StatusAccepted, snap)
			return
		case <-r.Context().Done():
			return
		}
	}
}

func conflict(kind string) Error {
	e := Error{Error: "a deployment is already in progress"}
	if kind != "" {
		e.Kind = &kind
	}
	return e
}

func (s *Server) writeOutcome(w http.ResponseWriter, out domain.Outcome, err error) {
	var f *domain.Failure
	switch {
	case out.Status == domain.OutcomeIgnored:
		s.writeJSON(w, http.StatusConflict, conflict(""))
	case errors.As(err, &f):
		s.writeJSON(w, http.StatusUnprocessableEntity, out)
	case err != nil:
		s.writeJSON(w, http.StatusInternalServerError, Error{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusOK, out)
	}
}

// PauseDeployment handles POST /pause.
func (s *Server) PauseDeployment(w http.ResponseWriter, r *http.Request) {
	s.request(w, domain.RequestPause)
}

// ResumeDeployment handles POST /resume.
func (s *Server) ResumeDeployment(w http.ResponseWriter, r *http.Request) {
	s.request(w, domain.RequestResume)
}

// CancelDeployment handles POST /cancel.
func (s *Server) CancelDeployment(w http.ResponseWriter, r *http.Request) {
	s.request(w, domain.RequestCancel)
}

func (s *Server) request(w http.ResponseWriter, t domain.RequestType) {
	err := s.deployer.Request(domain.Request{Type: t, Source: "http"})
	switch {
	case errors.Is(err, domain.ErrNotRunning):
		s.writeJSON(w, http.StatusConflict, Error{Error: err.Error()})
	case err != nil:
		s.writeJSON(w, http.StatusServiceUnavailable, Error{Error: err.Error()})
	default:
		s.logger.Info("Request accepted", "request", t)
		s.writeJSON(w, http.StatusAccepted, RequestAccepted{Request: string(t)})
	}
}

// GetMetrics handles GET /metrics; it is a 404 unless WithMetrics was given.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

// SubscribeEvents handles GET /events (SSE). It sends the current snapshot,
// then one "state" event per change. Slow clients miss intermediate progress.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	snaps, cancel := s.deployer.Subscribe(32)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	st := s.deployer.Status()
	writeEvent(w, state.Snapshot{State: st.State, Progress: st.Progress})
	flusher.Flush()
	s.logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			writeEvent(w, snap)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap state.Snapshot) {
	b, _ := json.Marshal(snap)
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", b)
}
