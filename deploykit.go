package deploykit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/aretw0/deploykit/pkg/session"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/aretw0/deploykit/pkg/transfer"
	"github.com/aretw0/deploykit/pkg/translate"
)

type (
	// Config tunes polling, progress and proposal handling.
	Config = runtime.Config
	// Status is a point-in-time view of the deployer.
	Status = runtime.Status
	// Message is an operator-facing line produced during a run.
	Message = runtime.Message
	// Reporter receives operator messages.
	Reporter = runtime.Reporter
	// ReporterFunc adapts a function to Reporter.
	ReporterFunc = runtime.ReporterFunc
	// Linker builds explorer URLs for addresses and transactions.
	Linker = runtime.Linker
	// Airdrop is the result of a faucet claim.
	Airdrop = runtime.Airdrop
	// Result is what a deployment started with Start settles to.
	Result = runtime.Result
)

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return runtime.DefaultConfig()
}

// Deployer is the high-level entry point of the library.
// It wraps the internal controller and exposes its state for observers.
type Deployer struct {
	controller *runtime.Controller
	chain      ports.ChainClient
	artifact   ports.ArtifactSource
	holder     *state.Holder

	cfg       Config
	hooks     domain.LifecycleHooks
	confirmer ports.Confirmer
	linker    Linker
	reporter  Reporter
	sink      transfer.Sink
	locker    ports.DistributedLocker
	lockTTL   time.Duration
	issueURL  string
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Deployer.
type Option func(*Deployer)

// WithConfig replaces the whole pipeline configuration.
func WithConfig(cfg Config) Option {
	return func(d *Deployer) {
		d.cfg = cfg
	}
}

// WithPollInterval sets the wait between two status reads.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Deployer) {
		d.cfg.PollInterval = interval
	}
}

// WithMaxWait bounds each polling loop. Zero, the default, waits for the chain.
func WithMaxWait(wait time.Duration) Option {
	return func(d *Deployer) {
		d.cfg.MaxWait = wait
	}
}

// WithoutProposal skips the governance proposal step for chains that deploy directly.
func WithoutProposal() Option {
	return func(d *Deployer) {
		d.cfg.RequireProposal = false
	}
}

// WithKey names the deployment slot guarded by the session manager, usually the wallet address.
func WithKey(key string) Option {
	return func(d *Deployer) {
		if key != "" {
			d.cfg.Key = key
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(d *Deployer) {
		d.hooks = hooks
	}
}

// WithConfirmer sets the prompt consulted when a deployment is paused.
// Without one, a paused deployment waits for Resume or Cancel.
func WithConfirmer(c ports.Confirmer) Option {
	return func(d *Deployer) {
		d.confirmer = c
	}
}

// WithLinker adds explorer links to outcomes and failures.
func WithLinker(l Linker) Option {
	return func(d *Deployer) {
		d.linker = l
	}
}

// WithReporter receives the operator messages of every run.
func WithReporter(r Reporter) Option {
	return func(d *Deployer) {
		d.reporter = r
	}
}

// WithSink overrides how the program is handed to the chain.
func WithSink(s transfer.Sink) Option {
	return func(d *Deployer) {
		d.sink = s
	}
}

// WithLocker guards the deployment slot across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(d *Deployer) {
		d.locker = locker
		d.lockTTL = ttl
	}
}

// WithIssueURL is shown to the operator when the node yields no transaction id.
func WithIssueURL(url string) Option {
	return func(d *Deployer) {
		d.issueURL = url
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// New creates a Deployer that publishes the program from artifact through chain.
func New(chain ports.ChainClient, artifact ports.ArtifactSource, opts ...Option) (*Deployer, error) {
	if chain == nil {
		return nil, errors.New("chain client is required")
	}
	if artifact == nil {
		return nil, errors.New("artifact source is required")
	}

	d := &Deployer{
		chain:    chain,
		artifact: artifact,
		cfg:      runtime.DefaultConfig(),
		holder:   state.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}

	sessionOpts := []session.Option{session.WithLogger(d.logger)}
	if d.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(d.locker))
		if d.lockTTL > 0 {
			sessionOpts = append(sessionOpts, session.WithTTL(d.lockTTL))
		}
	}

	translateOpts := []translate.Option{translate.WithIssueURL(d.issueURL)}
	if d.linker != nil {
		translateOpts = append(translateOpts, translate.WithLinker(d.linker))
	}

	runtimeOpts := []runtime.Option{
		runtime.WithConfig(d.cfg),
		runtime.WithHolder(d.holder),
		runtime.WithSessions(session.NewManager(sessionOpts...)),
		runtime.WithTranslator(translate.New(translateOpts...)),
		runtime.WithHooks(d.hooks),
		runtime.WithLogger(d.logger),
	}
	if d.confirmer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithConfirmer(d.confirmer))
	}
	if d.linker != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithLinker(d.linker))
	}
	if d.reporter != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithReporter(d.reporter))
	}
	if d.sink != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithSink(d.sink))
	}

	d.controller = runtime.NewController(chain, artifact, runtimeOpts...)
	return d, nil
}

// Deploy runs one deployment to completion. Calling it while another run is in
// flight returns an ignored outcome. Failures are returned as *domain.Failure;
// a cancelled run returns a cancelled outcome and no error.
func (d *Deployer) Deploy(ctx context.Context) (domain.Outcome, error) {
	return d.controller.Run(ctx)
}

// Start begins a deployment in the background and reports whether it did.
// It returns false when another run is in flight; otherwise the channel
// receives the run's outcome once it settles.
func (d *Deployer) Start(ctx context.Context) (<-chan Result, bool) {
	return d.controller.Start(ctx)
}

// Pause asks the running deployment to suspend.
func (d *Deployer) Pause() error {
	return d.controller.Pause()
}

// Resume continues a paused deployment.
func (d *Deployer) Resume() error {
	return d.controller.Resume()
}

// Cancel abandons the running deployment.
func (d *Deployer) Cancel() error {
	return d.controller.Cancel()
}

// Request forwards an operator request tagged with its source.
func (d *Deployer) Request(req domain.Request) error {
	return d.controller.Request(req)
}

// State returns the current lifecycle state.
func (d *Deployer) State() domain.DeployState {
	return d.holder.State()
}

// Progress returns the completion ratio of the current run, 0 when idle.
func (d *Deployer) Progress() float64 {
	return d.holder.Progress()
}

// Status returns state, progress and the identifiers of the current or last run.
func (d *Deployer) Status() Status {
	return d.controller.Status()
}

// Observe registers fn for every state or progress change, in order.
func (d *Deployer) Observe(fn state.Observer) func() {
	return d.holder.Observe(fn)
}

// Subscribe returns a lossy channel of snapshots for slow consumers such as
// event streams.
func (d *Deployer) Subscribe(buffer int) (<-chan state.Snapshot, func()) {
	return d.holder.Subscribe(buffer)
}

// Balance returns the native token balance of address in base units.
func (d *Deployer) Balance(ctx context.Context, address string) (int64, error) {
	return d.chain.Balance(ctx, address)
}

// Faucet claims test tokens for address and verifies the balance increased.
func (d *Deployer) Faucet(ctx context.Context, address string) (Airdrop, error) {
	return runtime.ClaimTokens(ctx, d.chain, address)
}
