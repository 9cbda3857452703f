package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/internal/config"
	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/adapters/aelf"
	"github.com/aretw0/deploykit/pkg/adapters/file"
	"github.com/aretw0/deploykit/pkg/adapters/memory"
	"github.com/aretw0/deploykit/pkg/adapters/process"
	"github.com/aretw0/deploykit/pkg/adapters/redis"
	"github.com/aretw0/deploykit/pkg/observability"
	"github.com/aretw0/deploykit/pkg/ports"
)

// simulatedContract is deployed by --simulate when no artifact is configured.
var simulatedContract = memory.Program("simulated contract")

// Stack is a deployer with the infrastructure it was built on.
type Stack struct {
	Deployer *deploykit.Deployer
	Metrics  *observability.Metrics
	Explorer aelf.Explorer
	Logger   *slog.Logger
	Config   config.Config

	closers []func() error
}

// Close releases connections opened by NewStack.
func (s *Stack) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level: logging.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
}

// NewStack wires the chain, artifact, lock, metrics and explorer described by
// cfg into a Deployer. extra options are applied last.
func NewStack(ctx context.Context, cfg config.Config, opts RunOptions, extra ...deploykit.Option) (*Stack, error) {
	logger := NewLogger(cfg)
	s := &Stack{
		Metrics:  observability.NewMetrics(nil),
		Explorer: aelf.NewExplorer(cfg.Explorer.URL, cfg.Explorer.Cluster),
		Logger:   logger,
		Config:   cfg,
	}

	chain, artifact := s.adapters(opts)

	hooks := s.Metrics.Hooks()
	if opts.Debug {
		hooks = observability.Combine(hooks, observability.LoggingHooks(logger))
	}

	dopts := []deploykit.Option{
		deploykit.WithConfig(cfg.Runtime()),
		deploykit.WithLogger(logger),
		deploykit.WithLinker(s.Explorer),
		deploykit.WithLifecycleHooks(hooks),
		deploykit.WithIssueURL(cfg.Deploy.IssueURL),
	}

	if cfg.Lock.RedisAddr != "" {
		client, err := redis.Dial(ctx, cfg.Lock.RedisAddr, cfg.Lock.RedisPassword, cfg.Lock.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect lock backend: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		dopts = append(dopts, deploykit.WithLocker(redis.NewLocker(client), cfg.Lock.TTL))
		logger.Debug("distributed lock enabled", "addr", cfg.Lock.RedisAddr, "key", cfg.LockKey())
	}

	d, err := deploykit.New(chain, artifact, append(dopts, extra...)...)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("error initializing deployer: %w", err)
	}
	s.Deployer = d
	return s, nil
}

func (s *Stack) adapters(opts RunOptions) (ports.ChainClient, ports.ArtifactSource) {
	cfg := s.Config
	if opts.Simulate {
		chain := memory.Simulated(opts.SimulatedPolls,
			memory.WithLatency(opts.SimulatedLatency),
			memory.WithFaucet(cfg.Faucet.Amount, nil),
		)
		var artifact ports.ArtifactSource = simulatedContract
		if opts.Artifact != "" {
			artifact = file.NewArtifact(opts.Artifact)
		}
		s.Logger.Info("using simulated chain")
		return chain, artifact
	}

	copts := []aelf.Option{
		aelf.WithNodeURL(cfg.Node.Endpoint),
		aelf.WithExplorerURL(cfg.Explorer.URL),
		aelf.WithFaucetURL(cfg.Faucet.URL),
		aelf.WithBalancePath(cfg.Explorer.BalancePath),
		aelf.WithLogger(s.Logger),
	}
	if cfg.Wallet.SignCommand != "" {
		name, args := process.ParseCommand(cfg.Wallet.SignCommand)
		copts = append(copts, aelf.WithSigner(process.NewSigner(cfg.Wallet.Address, name, args)))
	}

	path := cfg.Deploy.Artifact
	if opts.Artifact != "" {
		path = opts.Artifact
	}
	return aelf.New(copts...), file.NewArtifact(path)
}

// RunOptions carries command-line switches that are not configuration keys.
type RunOptions struct {
	// Simulate replaces the aelf node with a scripted in-memory chain.
	Simulate         bool
	SimulatedPolls   int
	SimulatedLatency time.Duration
	// Artifact overrides deploy.artifact.
	Artifact string
	Debug    bool
	Quiet    bool
	// AssumeYes answers every pause prompt with yes.
	AssumeYes bool
}

// DefaultRunOptions simulates a short but visible deployment.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		SimulatedPolls:   3,
		SimulatedLatency: 300 * time.Millisecond,
	}
}

var _ runtime.Linker = aelf.Explorer{}
