package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/poll"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/aretw0/deploykit/pkg/session"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/aretw0/deploykit/pkg/transfer"
	"github.com/aretw0/deploykit/pkg/translate"
)

// ErrQueueFull is returned when operator requests arrive faster than the run consumes them.
var ErrQueueFull = errors.New("request queue full")

// Status is a point-in-time view of the controller.
type Status struct {
	State         domain.DeployState `json:"state"`
	Progress      float64            `json:"progress"`
	SessionID     string             `json:"session_id,omitempty"`
	TransactionID string             `json:"tx_hash,omitempty"`
	ProposalID    string             `json:"proposal_id,omitempty"`
	Last          *domain.Outcome    `json:"last,omitempty"`
}

// Controller drives one deployment at a time through transfer, transaction
// polling and proposal polling.
type Controller struct {
	chain      ports.ChainClient
	artifact   ports.ArtifactSource
	holder     *state.Holder
	sessions   *session.Manager
	translator *translate.Translator
	confirmer  ports.Confirmer
	linker     Linker
	sink       transfer.Sink
	hooks      domain.LifecycleHooks
	reporter   Reporter
	logger     *slog.Logger
	cfg        Config

	requests chan domain.Request

	mu      sync.Mutex
	running bool
	current Status
	last    *domain.Outcome
}

// NewController creates a controller deploying the artifact through chain.
func NewController(chain ports.ChainClient, artifact ports.ArtifactSource, opts ...Option) *Controller {
	c := &Controller{
		chain:    chain,
		artifact: artifact,
		cfg:      DefaultConfig(),
		reporter: discard{},
		logger:   logging.NewNop(),
		requests: make(chan domain.Request, 8),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.holder == nil {
		c.holder = state.New()
	}
	if c.sessions == nil {
		c.sessions = session.NewManager(session.WithLogger(c.logger))
	}
	if c.translator == nil {
		topts := []translate.Option{}
		if c.linker != nil {
			topts = append(topts, translate.WithLinker(c.linker))
		}
		c.translator = translate.New(topts...)
	}
	if c.sink == nil {
		c.sink = transfer.ChainSink{Client: chain}
	}
	c.holder.Observe(c.onChange)
	return c
}

// Holder exposes the observable state.
func (c *Controller) Holder() *state.Holder {
	return c.holder
}

// Status returns the current state, progress and run identifiers.
func (c *Controller) Status() Status {
	snap := c.holder.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.current
	st.State, st.Progress = snap.State, snap.Progress
	st.Last = c.last
	return st
}

// Pause asks the running deployment to suspend at its current step.
func (c *Controller) Pause() error {
	return c.Request(domain.Request{Type: domain.RequestPause})
}

// Resume continues a paused deployment.
func (c *Controller) Resume() error {
	return c.Request(domain.Request{Type: domain.RequestResume})
}

// Cancel abandons the running deployment.
func (c *Controller) Cancel() error {
	return c.Request(domain.Request{Type: domain.RequestCancel})
}

// Request enqueues an operator request for the running deployment.
func (c *Controller) Request(req domain.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return domain.ErrNotRunning
	}
	select {
	case c.requests <- req:
		c.logger.Debug("Request queued", "request", req.Type, "source", req.Source)
		return nil
	default:
		return ErrQueueFull
	}
}

// Run deploys the compiled program. It is a no-op returning an ignored outcome
// when a deployment is already in flight. Failures are returned as *domain.Failure;
// a cancelled deployment returns a cancelled outcome and a nil error.
func (c *Controller) Run(ctx context.Context) (domain.Outcome, error) {
	if !c.claim() {
		return domain.Outcome{Status: domain.OutcomeIgnored}, nil
	}
	defer c.release()
	return c.run(ctx)
}

// Result is what a deployment started with Start settles to.
type Result struct {
	Outcome domain.Outcome
	Err     error
}

// Start claims the controller and runs the deployment in the background.
// It reports false, without starting anything, when a deployment is already
// in flight. The returned channel receives exactly one Result.
func (c *Controller) Start(ctx context.Context) (<-chan Result, bool) {
	if !c.claim() {
		return nil, false
	}
	done := make(chan Result, 1)
	go func() {
		defer c.release()
		out, err := c.run(ctx)
		done <- Result{Outcome: out, Err: err}
	}()
	return done, true
}

func (c *Controller) run(ctx context.Context) (domain.Outcome, error) {
	program, err := c.artifact.CompiledProgram(ctx)
	if err == nil && len(program) == 0 {
		err = domain.NewError(domain.KindNotBuilt, nil)
	} else if err != nil {
		err = domain.NewError(domain.KindNotBuilt, err)
	}
	if err != nil {
		return c.fail(ctx, domain.Outcome{}, err)
	}

	if err := c.holder.Transition(domain.StateReady, domain.StateLoading); err != nil {
		c.logger.Debug("Run lost the race for the ready state", "err", err)
		return domain.Outcome{Status: domain.OutcomeIgnored}, nil
	}
	c.holder.SetProgress(c.cfg.ProgressStart)
	c.reporter.Report(Message{
		Level: LevelInfo,
		Title: "Deploying...",
		Text:  "This could take a while depending on the program size and network conditions.",
	})

	sess, err := c.sessions.Begin(ctx, c.cfg.Key, program)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			err = domain.NewError(domain.KindDeploymentRejected, err)
		} else {
			err = domain.NewError(domain.KindTransport, err)
		}
		return c.settle(ctx, nil, time.Now(), "", err)
	}
	defer c.sessions.End(ctx, sess)

	c.track(func(s *Status) { s.SessionID = sess.ID })
	logger := c.logger.With("session_id", sess.ID)
	logger.Info("Deployment started", "size", len(program), "key", sess.Key)

	address, err := c.deploy(ctx, sess, logger)
	return c.settle(ctx, sess, sess.StartedAt, address, err)
}

func (c *Controller) claim() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.holder.State() != domain.StateReady {
		return false
	}
	c.running = true
	c.current = Status{}
	for {
		select {
		case <-c.requests:
		default:
			return true
		}
	}
}

func (c *Controller) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *Controller) track(fn func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.current)
}

func (c *Controller) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.SessionID
}

func (c *Controller) onChange(ch state.Change) {
	if c.hooks.OnStateChange != nil {
		c.hooks.OnStateChange(context.Background(), &domain.StateEvent{
			EventBase: c.event(domain.EventStateChange),
			From:      ch.From,
			To:        ch.To,
			Progress:  ch.Progress,
		})
	}
}

func (c *Controller) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: c.sessionID()}
}

// deploy runs the pipeline and returns the contract address.
func (c *Controller) deploy(ctx context.Context, sess *session.Session, logger *slog.Logger) (string, error) {
	ctl := transfer.NewControl(c.holder, c.requests,
		transfer.WithConfirmer(c.confirmer),
		transfer.WithControlLogger(logger),
		transfer.WithPauseHooks(
			func(step domain.Step) {
				c.reporter.Report(Message{Level: LevelWarning, Title: "Deployment paused.", Text: "Waiting for confirmation to continue."})
			},
			func(step domain.Step) {
				c.reporter.Report(Message{Level: LevelInfo, Title: "Resuming deployment..."})
			},
		),
	)

	// 1. Transfer
	var res transfer.Result
	err := c.step(ctx, domain.StepTransfer, func() error {
		var err error
		res, err = transfer.New(c.sink, ctl,
			transfer.WithChunkSize(c.cfg.ChunkSize),
			transfer.WithLogger(logger),
		).Start(ctx, sess.Program)
		return err
	})
	switch {
	case err != nil:
		return "", classify(err, domain.KindTransport)
	case res.Cancelled:
		return "", domain.ErrCancelled
	case res.TransactionID == "":
		return "", domain.NewError(domain.KindDeploymentRejected, nil)
	}
	txID := res.TransactionID
	sess.TransactionID = txID
	c.track(func(s *Status) { s.TransactionID = txID })
	logger = logger.With("tx_id", txID)
	logger.Info("Transaction submitted")

	// 2. Transaction finality
	var tx domain.TransactionRecord
	err = c.step(ctx, domain.StepTxPoll, func() error {
		return ctl.Do(ctx, domain.StepTxPoll, func(ctx context.Context) error {
			var err error
			tx, err = poll.Until(ctx,
				func(ctx context.Context) (domain.TransactionRecord, error) {
					return c.chain.TransactionStatus(ctx, txID)
				},
				domain.TransactionRecord.Final,
				c.pollOptions(domain.StepTxPoll, "Checking deployment status...")...,
			)
			return err
		})
	})
	if err != nil {
		return "", classify(err, domain.KindTransport).WithTransaction(txID)
	}
	if tx.Status != domain.TxMined {
		var cause error = errors.New("deployment failed")
		if tx.Error != "" {
			cause = &domain.ChainError{Category: domain.CategoryRejected, Message: tx.Error}
		}
		return "", domain.NewError(domain.KindTransactionFailed, cause).WithTransaction(txID)
	}
	logger.Info("Transaction mined", "block", tx.Block.Number)

	if !c.cfg.RequireProposal {
		return addressFromLogs(tx.Logs), nil
	}

	// 3. Proposal
	proposalID := proposalIDFromLogs(tx.Logs)
	if proposalID == "" {
		return "", domain.Errorf(domain.KindProposalNotFound, "proposal ID not found").WithTransaction(txID)
	}
	sess.ProposalID = proposalID
	c.track(func(s *Status) { s.ProposalID = proposalID })
	logger = logger.With("proposal_id", proposalID)
	logger.Info("Waiting for proposal")

	var proposal domain.ProposalRecord
	err = c.step(ctx, domain.StepProposal, func() error {
		return ctl.Do(ctx, domain.StepProposal, func(ctx context.Context) error {
			var err error
			proposal, err = poll.Until(ctx,
				func(ctx context.Context) (domain.ProposalRecord, error) {
					return c.chain.ProposalStatus(ctx, proposalID)
				},
				domain.ProposalRecord.Settled,
				c.pollOptions(domain.StepProposal, "Checking proposal status...")...,
			)
			return err
		})
	})
	if err != nil {
		var ce *domain.ChainError
		kind := domain.KindTransport
		if errors.As(err, &ce) && ce.Category == domain.CategoryNotFound {
			kind = domain.KindProposalNotFound
		}
		return "", classify(err, kind).WithTransaction(txID).WithProposal(proposalID)
	}

	// 4. Verdict
	if proposal.Status == domain.ProposalExpired && !proposal.ContractDeployed {
		return "", domain.NewError(domain.KindProposalExpired, nil).WithTransaction(txID).WithProposal(proposalID)
	}
	return proposal.ContractAddress, nil
}

func (c *Controller) pollOptions(step domain.Step, checking string) []poll.Option {
	opts := []poll.Option{
		poll.WithStage(string(step)),
		poll.WithInterval(c.cfg.PollInterval),
		poll.WithProgress(c.holder.Progress(), c.cfg.ProgressStep, c.cfg.ProgressCap, c.holder.SetProgress),
		poll.WithHook(func(it poll.Iteration) {
			status, settled := describe(it.Value)
			if c.hooks.OnPoll != nil {
				c.hooks.OnPoll(context.Background(), &domain.PollEvent{
					EventBase: c.event(domain.EventPoll),
					Step:      step,
					Iteration: it.N,
					Status:    status,
				})
			}
			if !settled {
				c.reporter.Report(Message{Level: LevelInfo, Title: checking, Text: status})
			}
		}),
	}
	if c.cfg.MaxWait > 0 {
		opts = append(opts, poll.WithMaxWait(c.cfg.MaxWait))
	}
	return opts
}

func describe(v any) (string, bool) {
	switch r := v.(type) {
	case domain.TransactionRecord:
		return string(r.Status), r.Final()
	case domain.ProposalRecord:
		return string(r.Status), r.Settled()
	}
	return fmt.Sprint(v), false
}

func (c *Controller) step(ctx context.Context, step domain.Step, fn func() error) error {
	start := time.Now()
	if c.hooks.OnStep != nil {
		c.hooks.OnStep(ctx, &domain.StepEvent{EventBase: c.event(domain.EventStep), Step: step})
	}
	err := fn()
	if c.hooks.OnStep != nil {
		c.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase: c.event(domain.EventStep),
			Step:      step,
			Done:      true,
			Duration:  time.Since(start),
			IsError:   err != nil,
		})
	}
	return err
}

// classify attaches a kind to err unless it already carries one or is a cancellation.
func classify(err error, kind domain.Kind) *domain.Error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, domain.ErrCancelled), errors.Is(err, poll.ErrCancelled), errors.Is(err, context.Canceled):
		kind = domain.KindCancelled
	case errors.Is(err, poll.ErrTimeout):
		kind = domain.KindTimeout
	default:
		var ce *domain.ChainError
		if kind == domain.KindTransport && errors.As(err, &ce) &&
			(ce.Category == domain.CategoryValidation || ce.Category == domain.CategoryRejected) {
			kind = domain.KindDeploymentRejected
		}
	}
	return domain.NewError(kind, err)
}

// settle is the single exit of a started run: it translates the error, produces
// the terminal message and returns the holder to ready.
func (c *Controller) settle(ctx context.Context, sess *session.Session, started time.Time, address string, err error) (domain.Outcome, error) {
	out := domain.Outcome{Elapsed: time.Since(started)}
	if sess != nil {
		out.SessionID = sess.ID
		out.TransactionID = sess.TransactionID
		out.ProposalID = sess.ProposalID
	}

	var runErr error
	if err == nil {
		c.holder.SetProgress(1)
		out.Status = domain.OutcomeSucceeded
		out.ContractAddress = address
		text := "Completed in " + FormatElapsed(out.Elapsed) + "."
		switch {
		case address != "" && c.linker != nil:
			out.ExplorerURL = c.linker.AddressURL(address)
			text += "\nView contract on aelf explorer: " + out.ExplorerURL + "."
		case address != "":
			text += "\nContract address: " + address + "."
		}
		out.Message = "Deployment successful. " + text
		c.reporter.Report(Message{Level: LevelSuccess, Title: "Deployment successful.", Text: text})
	} else {
		out, runErr = c.failure(out, err)
	}

	if cur := c.holder.State(); cur != domain.StateReady {
		if serr := c.holder.Settle(cur); serr != nil {
			c.logger.Error("Failed to settle state", "from", cur, "err", serr)
		}
	}

	c.finish(ctx, out)
	return out, runErr
}

// fail settles a run that never left the ready state.
func (c *Controller) fail(ctx context.Context, out domain.Outcome, err error) (domain.Outcome, error) {
	out, runErr := c.failure(out, err)
	c.finish(ctx, out)
	return out, runErr
}

func (c *Controller) failure(out domain.Outcome, err error) (domain.Outcome, error) {
	f := c.translator.Translate(err)
	if f.Kind == domain.KindCancelled {
		out.Status = domain.OutcomeCancelled
		out.Message = "Deployment cancelled."
		c.reporter.Report(Message{Level: LevelWarning, Title: out.Message})
		return out, nil
	}
	out.Status = domain.OutcomeFailed
	out.Failure = f
	out.Message = "Deployment error: " + f.Display
	c.reporter.Report(Message{Level: LevelError, Title: "Deployment error:", Text: f.Display})
	c.logger.Warn("Deployment failed", "session_id", out.SessionID, "kind", f.Kind, "reason", f.Reason, "tx_id", f.TransactionID)
	return out, f
}

func (c *Controller) finish(ctx context.Context, out domain.Outcome) {
	c.mu.Lock()
	c.last = &out
	c.mu.Unlock()
	if c.hooks.OnSettle != nil {
		c.hooks.OnSettle(ctx, &out)
	}
}
