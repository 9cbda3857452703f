package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/deploykit/internal/config"
	httpAdapter "github.com/aretw0/deploykit/pkg/adapters/http"
	"github.com/aretw0/deploykit/pkg/adapters/mcp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve exposes the control API on cfg.Server.Addr until ctx ends. In-flight
// deployments are cancelled on shutdown and awaited before Serve returns.
// A non-nil ready receives the bound address.
func Serve(ctx context.Context, cfg config.Config, opts RunOptions, ready func(addr string)) error {
	stack, err := NewStack(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer stack.Close()

	runs, cancelRuns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRuns()

	api := httpAdapter.NewServer(stack.Deployer,
		httpAdapter.WithMetrics(stack.Metrics.Handler()),
		httpAdapter.WithLogger(stack.Logger),
		httpAdapter.WithBaseContext(runs),
	)
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stack.Logger.Info("deploykit server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stack.Logger.Info("shutting down server")

		cancelRuns()
		api.Wait()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			stack.Logger.Warn("graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}

// ServeMCP exposes the deployer to MCP clients over stdio, or over SSE when
// sseAddr is set.
func ServeMCP(ctx context.Context, cfg config.Config, opts RunOptions, sseAddr, baseURL string) error {
	stack, err := NewStack(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer stack.Close()

	runs, cancelRuns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRuns()

	srv := mcp.NewServer(stack.Deployer, mcp.WithLogger(stack.Logger), mcp.WithBaseContext(runs))
	defer srv.Wait()
	defer cancelRuns()

	if sseAddr == "" {
		stack.Logger.Info("starting MCP server (stdio)")
		return srv.ServeStdio()
	}
	if baseURL == "" {
		baseURL = "http://localhost" + sseAddr
	}
	return srv.ServeSSE(ctx, sseAddr, baseURL)
}
