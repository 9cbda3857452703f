package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/aretw0/deploykit/pkg/state"
)

// DefaultPrompt is the question asked when a deployment is paused.
const DefaultPrompt = "Continue deployment?"

var errPaused = errors.New("attempt paused")

// Control coordinates operator requests for a single deployment run.
// It is not safe for concurrent use: one run drives it from one goroutine.
type Control struct {
	holder    *state.Holder
	requests  <-chan domain.Request
	confirmer ports.Confirmer
	prompt    string
	logger    *slog.Logger

	// pending holds a pause or cancel that arrived as an attempt completed.
	pending *domain.Request
	// last is the state this control last moved the holder into.
	last domain.DeployState
	// onPause and onResume fire once per loading -> paused and paused -> loading edge.
	onPause  func(domain.Step)
	onResume func(domain.Step)
}

// ControlOption configures a Control.
type ControlOption func(*Control)

// WithConfirmer sets the operator prompt used when paused. Without one, a paused
// run waits for a Resume or Cancel request.
func WithConfirmer(c ports.Confirmer) ControlOption {
	return func(ctl *Control) {
		ctl.confirmer = c
	}
}

// WithPrompt overrides DefaultPrompt.
func WithPrompt(p string) ControlOption {
	return func(ctl *Control) {
		if p != "" {
			ctl.prompt = p
		}
	}
}

// WithControlLogger sets the logger.
func WithControlLogger(l *slog.Logger) ControlOption {
	return func(ctl *Control) {
		ctl.logger = l
	}
}

// WithPauseHooks registers callbacks for the paused and resumed edges.
func WithPauseHooks(onPause, onResume func(domain.Step)) ControlOption {
	return func(ctl *Control) {
		ctl.onPause = onPause
		ctl.onResume = onResume
	}
}

// NewControl creates a control reading operator requests from requests.
// The holder must be in the loading state when Do is first called.
func NewControl(holder *state.Holder, requests <-chan domain.Request, opts ...ControlOption) *Control {
	c := &Control{
		holder:   holder,
		requests: requests,
		prompt:   DefaultPrompt,
		logger:   logging.NewNop(),
		last:     domain.StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs fn until it returns without being interrupted by a pause request.
// It returns fn's error, domain.ErrCancelled when the operator declines to
// continue, or the context error when ctx ends.
func (c *Control) Do(ctx context.Context, step domain.Step, fn func(context.Context) error) error {
	for {
		if c.pending != nil {
			req := *c.pending
			c.pending = nil
			if err := c.suspend(ctx, step, req.Type == domain.RequestCancel); err != nil {
				return err
			}
		}

		interrupt, err := c.attempt(ctx, step, fn)
		if interrupt == nil {
			return err
		}
		if err := c.suspend(ctx, step, interrupt.Type == domain.RequestCancel); err != nil {
			return err
		}
	}
}

// attempt runs fn once. It returns the request that interrupted it, if any.
func (c *Control) attempt(ctx context.Context, step domain.Step, fn func(context.Context) error) (*domain.Request, error) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	done := make(chan error, 1)
	go func() {
		done <- fn(attemptCtx)
	}()

	for {
		select {
		case err := <-done:
			return nil, err

		case req := <-c.requests:
			switch req.Type {
			case domain.RequestPause, domain.RequestCancel:
				c.logger.Debug("Interrupting attempt", "step", step, "request", req.Type, "source", req.Source)
				cancel(errPaused)
				err := <-done
				switch {
				case err == nil:
					// fn finished before it saw the interrupt; apply it at the next step
					c.pending = &req
					return nil, nil
				case !interrupted(attemptCtx, err):
					c.pending = &req
					return nil, err
				}
				return &req, nil
			default:
				c.logger.Debug("Ignoring request while running", "step", step, "request", req.Type)
			}

		case <-ctx.Done():
			cancel(context.Cause(ctx))
			<-done
			return nil, ctx.Err()
		}
	}
}

// interrupted reports whether err is fn giving up because the attempt was
// paused, as opposed to a failure that happened to race the request.
func interrupted(ctx context.Context, err error) bool {
	if !errors.Is(context.Cause(ctx), errPaused) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, errPaused)
}

// suspend performs loading -> paused, waits for a decision and then moves to
// loading or cancelled. cancel skips the question.
func (c *Control) suspend(ctx context.Context, step domain.Step, cancel bool) error {
	if c.last != domain.StatePaused {
		if err := c.holder.Transition(domain.StateLoading, domain.StatePaused); err != nil {
			return fmt.Errorf("pause %s: %w", step, err)
		}
		c.last = domain.StatePaused
		c.logger.Info("Deployment paused", "step", step)
		if c.onPause != nil {
			c.onPause(step)
		}
	}

	resume := false
	if !cancel {
		var err error
		resume, err = c.decide(ctx, step)
		if err != nil {
			return err
		}
	}

	if !resume {
		if err := c.holder.Transition(domain.StatePaused, domain.StateCancelled); err != nil {
			return fmt.Errorf("cancel %s: %w", step, err)
		}
		c.last = domain.StateCancelled
		c.logger.Info("Deployment cancelled", "step", step)
		return domain.ErrCancelled
	}

	if err := c.holder.Transition(domain.StatePaused, domain.StateLoading); err != nil {
		return fmt.Errorf("resume %s: %w", step, err)
	}
	c.last = domain.StateLoading
	c.logger.Info("Deployment resumed", "step", step)
	if c.onResume != nil {
		c.onResume(step)
	}
	return nil
}

type answer struct {
	yes bool
	err error
}

// decide races the confirmer against resume and cancel requests.
func (c *Control) decide(ctx context.Context, step domain.Step) (bool, error) {
	askCtx, stopAsking := context.WithCancel(ctx)
	defer stopAsking()

	var answers chan answer
	if c.confirmer != nil {
		answers = make(chan answer, 1)
		go func() {
			yes, err := c.confirmer.Confirm(askCtx, c.prompt, true)
			answers <- answer{yes: yes, err: err}
		}()
	}

	for {
		select {
		case a := <-answers:
			if a.err != nil {
				if ctx.Err() != nil {
					return false, ctx.Err()
				}
				c.logger.Warn("Confirmation failed, continuing", "step", step, "err", a.err)
				return true, nil
			}
			return a.yes, nil

		case req := <-c.requests:
			switch req.Type {
			case domain.RequestResume:
				return true, nil
			case domain.RequestCancel:
				return false, nil
			default:
				c.logger.Debug("Already paused", "step", step, "source", req.Source)
			}

		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
