package runner

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
)

// Controls is the part of a deployer a signal can act on.
type Controls interface {
	Pause() error
	Cancel() error
	State() domain.DeployState
}

// Action is what the manager did with a signal.
type Action string

const (
	ActionPause  Action = "pause"
	ActionCancel Action = "cancel"
	ActionExit   Action = "exit"
)

// SignalManager routes SIGINT and SIGTERM to a deployment.
type SignalManager struct {
	ctx      context.Context
	cancel   context.CancelFunc
	controls Controls
	signals  chan os.Signal
	onSignal func(Action)
	logger   *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// SignalOption configures a SignalManager.
type SignalOption func(*SignalManager)

// WithSignalLogger sets the logger.
func WithSignalLogger(l *slog.Logger) SignalOption {
	return func(sm *SignalManager) {
		sm.logger = l
	}
}

// OnSignal registers fn to learn what each signal did.
func OnSignal(fn func(Action)) SignalOption {
	return func(sm *SignalManager) {
		sm.onSignal = fn
	}
}

// NewSignalManager starts listening for signals. The first interrupt pauses a
// loading deployment and a second one cancels it while paused. SIGTERM, or an
// interrupt with nothing in flight, cancels Context.
func NewSignalManager(parent context.Context, controls Controls, opts ...SignalOption) *SignalManager {
	sm := newSignalManager(parent, controls, opts...)
	signal.Notify(sm.signals, os.Interrupt, syscall.SIGTERM)
	go sm.loop()
	return sm
}

func newSignalManager(parent context.Context, controls Controls, opts ...SignalOption) *SignalManager {
	sm := &SignalManager{
		controls: controls,
		signals:  make(chan os.Signal, 2),
		logger:   logging.NewNop(),
		done:     make(chan struct{}),
	}
	sm.ctx, sm.cancel = context.WithCancel(parent)
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// Context is cancelled when the process should stop.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop stops listening and cancels Context.
func (sm *SignalManager) Stop() {
	sm.stopOnce.Do(func() {
		signal.Stop(sm.signals)
		close(sm.done)
		sm.cancel()
	})
}

func (sm *SignalManager) loop() {
	for {
		select {
		case <-sm.done:
			return
		case sig := <-sm.signals:
			sm.handle(sig)
		}
	}
}

func (sm *SignalManager) handle(sig os.Signal) Action {
	action := sm.route(sig)
	sm.logger.Debug("Signal received", "signal", sig.String(), "action", action)
	if action == ActionExit {
		sm.cancel()
	}
	if sm.onSignal != nil {
		sm.onSignal(action)
	}
	return action
}

func (sm *SignalManager) route(sig os.Signal) Action {
	if sig != os.Interrupt || sm.controls == nil {
		return ActionExit
	}

	var err error
	action := ActionExit
	switch sm.controls.State() {
	case domain.StateLoading:
		action, err = ActionPause, sm.controls.Pause()
	case domain.StatePaused:
		action, err = ActionCancel, sm.controls.Cancel()
	}
	if errors.Is(err, domain.ErrNotRunning) {
		return ActionExit
	}
	if err != nil {
		sm.logger.Warn("Signal request rejected", "action", action, "err", err)
	}
	return action
}
