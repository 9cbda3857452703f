package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
)

// Receipt acknowledges a written chunk.
type Receipt struct {
	// TransactionID is set by the sink once the final chunk is accepted.
	TransactionID string
}

// Sink receives the payload. offset is the position of chunk within the payload
// and final marks the last chunk.
type Sink interface {
	Write(ctx context.Context, chunk []byte, offset int, final bool) (Receipt, error)
}

// Result is the outcome of a transfer.
type Result struct {
	TransactionID string
	Cancelled     bool
}

// Transfer writes one payload through a Sink under a Control.
type Transfer struct {
	sink      Sink
	control   *Control
	chunkSize int
	logger    *slog.Logger

	acked int
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithChunkSize splits the payload into chunks of n bytes. Zero sends it whole.
func WithChunkSize(n int) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.chunkSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transfer) {
		t.logger = l
	}
}

// New creates a transfer writing to sink.
func New(sink Sink, control *Control, opts ...Option) *Transfer {
	t := &Transfer{
		sink:    sink,
		control: control,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Acked returns how many payload bytes the sink has acknowledged.
func (t *Transfer) Acked() int {
	return t.acked
}

// Start sends payload and returns the transaction id carried by the final receipt.
// Pauses are handled by the control; a declined pause yields Result.Cancelled.
func (t *Transfer) Start(ctx context.Context, payload []byte) (Result, error) {
	t.acked = 0
	var txID string

	err := t.control.Do(ctx, domain.StepTransfer, func(ctx context.Context) error {
		if t.acked > 0 {
			t.logger.Info("Resuming transfer", "offset", t.acked, "size", len(payload))
		}
		for t.acked < len(payload) {
			end := len(payload)
			if t.chunkSize > 0 && t.acked+t.chunkSize < end {
				end = t.acked + t.chunkSize
			}
			final := end == len(payload)

			rec, err := t.sink.Write(ctx, payload[t.acked:end], t.acked, final)
			if err != nil {
				return fmt.Errorf("write chunk at %d: %w", t.acked, err)
			}
			t.acked = end
			if final {
				txID = rec.TransactionID
			}
			t.logger.Debug("Chunk acknowledged", "acked", t.acked, "size", len(payload))
		}
		return nil
	})

	if errors.Is(err, domain.ErrCancelled) {
		return Result{Cancelled: true}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return Result{TransactionID: txID}, nil
}

// ChainSink submits the whole payload as one deployment transaction.
type ChainSink struct {
	Client ports.ChainClient
}

// ErrPartialChunk is returned when a ChainSink is handed less than the whole payload.
var ErrPartialChunk = errors.New("chain sink accepts the whole payload only")

// Write implements Sink.
func (s ChainSink) Write(ctx context.Context, chunk []byte, offset int, final bool) (Receipt, error) {
	if offset != 0 || !final {
		return Receipt{}, ErrPartialChunk
	}
	id, err := s.Client.SubmitCode(ctx, chunk)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{TransactionID: id}, nil
}
