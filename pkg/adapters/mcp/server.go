// Package mcp exposes deployment controls as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI is the resource holding the deployer status.
const StateURI = "deploykit://state"

// Deployer is the part of deploykit.Deployer the tools drive.
type Deployer interface {
	Start(ctx context.Context) (<-chan deploykit.Result, bool)
	Request(req domain.Request) error
	Status() deploykit.Status
	Subscribe(buffer int) (<-chan state.Snapshot, func())
}

// DeployResult is returned by the deploy tool.
type DeployResult struct {
	Started bool            `json:"started" jsonschema_description:"True when a new deployment was started"`
	Outcome *domain.Outcome `json:"outcome,omitempty" jsonschema_description:"The settled outcome when wait was requested or the run ended at once"`
	State   string          `json:"state" jsonschema_description:"Lifecycle state after the call: ready, loading, paused or cancelled"`
}

// ControlResult is returned by pause, resume and cancel.
type ControlResult struct {
	Request string `json:"request" jsonschema_description:"The request that was queued"`
	State   string `json:"state" jsonschema_description:"Lifecycle state when the request was queued"`
}

type deployArgs struct {
	Wait bool `json:"wait"`
}

// Server exposes a Deployer as an MCP server.
type Server struct {
	deployer  Deployer
	mcpServer *server.MCPServer
	logger    *slog.Logger
	base      context.Context
	runs      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithBaseContext sets the context deployments started by the deploy tool run under.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.base = ctx
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(d Deployer, opts ...Option) *Server {
	s := &Server{
		deployer:  d,
		mcpServer: server.NewMCPServer("deploykit-mcp", strings.TrimSpace(deploykit.Version)),
		logger:    logging.NewNop(),
		base:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Wait blocks until deployments started by the deploy tool have settled.
func (s *Server) Wait() {
	s.runs.Wait()
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	deployTool := mcp.NewTool("deploy",
		mcp.WithDescription("Deploy the compiled contract. Returns once the deployment has started, or when it settles if wait is true."),
		mcp.WithBoolean("wait", mcp.Description("Block until the deployment settles (default false)")),
		mcp.WithOutputSchema[DeployResult](),
	)
	s.mcpServer.AddTool(deployTool, mcp.NewStructuredToolHandler(s.handleDeploy))

	statusTool := mcp.NewTool("status",
		mcp.WithDescription("Get the lifecycle state, progress and identifiers of the current or last deployment."),
		mcp.WithOutputSchema[deploykit.Status](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	for _, t := range []struct {
		req  domain.RequestType
		desc string
	}{
		{domain.RequestPause, "Pause the running deployment at its current step."},
		{domain.RequestResume, "Resume a paused deployment."},
		{domain.RequestCancel, "Cancel the running deployment."},
	} {
		tool := mcp.NewTool(string(t.req),
			mcp.WithDescription(t.desc),
			mcp.WithOutputSchema[ControlResult](),
		)
		s.mcpServer.AddTool(tool, mcp.NewStructuredToolHandler(s.control(t.req)))
	}
}

func (s *Server) handleDeploy(ctx context.Context, _ mcp.CallToolRequest, args deployArgs) (DeployResult, error) {
	runCtx := s.base
	if args.Wait {
		runCtx = ctx
	}

	snaps, stop := s.deployer.Subscribe(4)
	defer stop()

	done, ok := s.deployer.Start(runCtx)
	if !ok {
		return DeployResult{}, fmt.Errorf("a deployment is already in progress (%s)", s.deployer.Status().State)
	}
	if args.Wait {
		res := <-done
		return s.settled(res.Outcome, res.Err)
	}

	settled := make(chan deploykit.Result, 1)
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		res := <-done
		settled <- res
		s.logger.Info("Deployment settled", "status", res.Outcome.Status, "session_id", res.Outcome.SessionID)
	}()

	for {
		select {
		case snap := <-snaps:
			if snap.State == domain.StateReady {
				continue
			}
			return DeployResult{Started: true, State: string(snap.State)}, nil
		case res := <-settled:
			return s.settled(res.Outcome, res.Err)
		case <-ctx.Done():
			return DeployResult{}, ctx.Err()
		}
	}
}

func (s *Server) settled(out domain.Outcome, err error) (DeployResult, error) {
	if out.Status == domain.OutcomeIgnored {
		return DeployResult{}, errors.New("a deployment is already in progress")
	}
	var f *domain.Failure
	if err != nil && !errors.As(err, &f) {
		return DeployResult{}, err
	}
	return DeployResult{
		Started: true,
		Outcome: &out,
		State:   string(s.deployer.Status().State),
	}, nil
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest, _ map[string]any) (deploykit.Status, error) {
	return s.deployer.Status(), nil
}

func (s *Server) control(t domain.RequestType) func(context.Context, mcp.CallToolRequest, map[string]any) (ControlResult, error) {
	return func(_ context.Context, _ mcp.CallToolRequest, _ map[string]any) (ControlResult, error) {
		if err := s.deployer.Request(domain.Request{Type: t, Source: "mcp"}); err != nil {
			return ControlResult{}, fmt.Errorf("%s rejected: %w", t, err)
		}
		return ControlResult{Request: string(t), State: string(s.deployer.Status().State)}, nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Deployment state",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(s.deployer.Status())
		if err != nil {
			return nil, fmt.Errorf("encode state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	})
}
