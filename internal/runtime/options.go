package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/aretw0/deploykit/pkg/session"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/aretw0/deploykit/pkg/transfer"
	"github.com/aretw0/deploykit/pkg/translate"
)

// Config tunes the deployment pipeline.
type Config struct {
	PollInterval    time.Duration
	ProgressStart   float64
	ProgressStep    float64
	ProgressCap     float64
	RequireProposal bool
	// MaxWait bounds each polling loop. Zero waits until the chain settles.
	MaxWait   time.Duration
	ChunkSize int
	// Key identifies the deployment slot, usually the wallet address.
	Key string
}

// DefaultConfig matches the public testnet client behaviour.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		ProgressStart:   0.1,
		ProgressStep:    0.1,
		ProgressCap:     0.95,
		RequireProposal: true,
		Key:             "default",
	}
}

// Linker builds explorer URLs.
type Linker interface {
	AddressURL(address string) string
	TxURL(id string) string
}

// Option configures the Controller.
type Option func(*Controller)

// WithConfig replaces the pipeline configuration.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithHolder shares an existing state holder.
func WithHolder(h *state.Holder) Option {
	return func(c *Controller) {
		c.holder = h
	}
}

// WithSessions sets the session manager.
func WithSessions(m *session.Manager) Option {
	return func(c *Controller) {
		c.sessions = m
	}
}

// WithConfirmer sets the operator prompt used on pause.
func WithConfirmer(cf ports.Confirmer) Option {
	return func(c *Controller) {
		c.confirmer = cf
	}
}

// WithLinker adds explorer links to messages and failures.
func WithLinker(l Linker) Option {
	return func(c *Controller) {
		c.linker = l
	}
}

// WithTranslator replaces the default translator.
func WithTranslator(t *translate.Translator) Option {
	return func(c *Controller) {
		c.translator = t
	}
}

// WithSink overrides the transfer sink, which defaults to submitting through the chain client.
func WithSink(s transfer.Sink) Option {
	return func(c *Controller) {
		c.sink = s
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithReporter sets the sink for operator messages.
func WithReporter(r Reporter) Option {
	return func(c *Controller) {
		c.reporter = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}
