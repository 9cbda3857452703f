// Package memory provides in-process adapters: a scripted chain used by tests
// and simulated deployments, and an in-memory artifact source.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
)

// Calls counts chain requests by operation.
type Calls struct {
	Submit   int
	Tx       int
	Proposal int
	Faucet   int
	Balance  int
}

// Chain is a scripted ports.ChainClient. Status scripts are replayed in order;
// the last record repeats once a script is exhausted. Safe for concurrent use.
type Chain struct {
	mu sync.Mutex

	txID      string
	txs       []domain.TransactionRecord
	proposals []domain.ProposalRecord
	latency   time.Duration

	submitHook  func(ctx context.Context, attempt int) error
	txErr       error
	proposalErr error
	faucetErr   error

	faucetAmount int64
	balances     map[string]int64

	calls     Calls
	submitted [][]byte
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithTransactionID sets the id returned by SubmitCode. Empty simulates a node
// that accepts the request but yields no transaction.
func WithTransactionID(id string) ChainOption {
	return func(c *Chain) {
		c.txID = id
	}
}

// WithTransactions scripts TransactionStatus responses.
func WithTransactions(records ...domain.TransactionRecord) ChainOption {
	return func(c *Chain) {
		c.txs = records
	}
}

// WithProposals scripts ProposalStatus responses.
func WithProposals(records ...domain.ProposalRecord) ChainOption {
	return func(c *Chain) {
		c.proposals = records
	}
}

// WithLatency delays every call by d, honouring cancellation.
func WithLatency(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.latency = d
	}
}

// WithSubmitHook runs fn on every SubmitCode call, before the id is returned.
// attempt starts at 1. A non-nil error is returned from SubmitCode.
func WithSubmitHook(fn func(ctx context.Context, attempt int) error) ChainOption {
	return func(c *Chain) {
		c.submitHook = fn
	}
}

// WithTransactionError makes TransactionStatus fail.
func WithTransactionError(err error) ChainOption {
	return func(c *Chain) {
		c.txErr = err
	}
}

// WithProposalError makes ProposalStatus fail.
func WithProposalError(err error) ChainOption {
	return func(c *Chain) {
		c.proposalErr = err
	}
}

// WithBalance sets the starting balance of address.
func WithBalance(address string, amount int64) ChainOption {
	return func(c *Chain) {
		c.balances[address] = amount
	}
}

// WithFaucet sets the amount granted per faucet claim, or the error returned.
func WithFaucet(amount int64, err error) ChainOption {
	return func(c *Chain) {
		c.faucetAmount = amount
		c.faucetErr = err
	}
}

// NewChain creates a scripted chain. Without scripts, transactions are mined
// and proposals are deployed on the first read.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{
		txID:         "sim-tx-1",
		balances:     make(map[string]int64),
		faucetAmount: 100 * 1e8,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Simulated scripts a complete successful deployment that needs pending polls
// before the transaction is mined and again before the proposal deploys the contract.
func Simulated(pending int, opts ...ChainOption) *Chain {
	const txID = "sim-tx-1"
	const proposalID = "sim-proposal-1"
	const address = "2LUmicHyH4RXrMjG4beDwuDsiWJESyLkgkwPdGTR8kahRzq5XS"

	txs := make([]domain.TransactionRecord, 0, pending+1)
	for i := 0; i < pending; i++ {
		txs = append(txs, domain.TransactionRecord{ID: txID, Status: domain.TxPending})
	}
	txs = append(txs, domain.TransactionRecord{
		ID:     txID,
		Status: domain.TxMined,
		Block:  domain.BlockInfo{Number: 1024},
		Logs: []domain.Log{
			{Name: "ProposalCreated", Fields: map[string]any{"proposalId": proposalID}},
		},
	})

	proposals := make([]domain.ProposalRecord, 0, pending+1)
	for i := 0; i < pending; i++ {
		proposals = append(proposals, domain.ProposalRecord{ID: proposalID, Status: domain.ProposalActive})
	}
	proposals = append(proposals, domain.ProposalRecord{
		ID:               proposalID,
		Status:           domain.ProposalOther,
		ContractAddress:  address,
		ContractDeployed: true,
	})

	base := []ChainOption{
		WithTransactionID(txID),
		WithTransactions(txs...),
		WithProposals(proposals...),
	}
	return NewChain(append(base, opts...)...)
}

func (c *Chain) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SubmitCode implements ports.ChainClient.
func (c *Chain) SubmitCode(ctx context.Context, code []byte) (string, error) {
	c.mu.Lock()
	c.calls.Submit++
	attempt := c.calls.Submit
	c.submitted = append(c.submitted, code)
	hook, id := c.submitHook, c.txID
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if hook != nil {
		if err := hook(ctx, attempt); err != nil {
			return "", err
		}
	}
	return id, nil
}

// TransactionStatus implements ports.ChainClient.
func (c *Chain) TransactionStatus(ctx context.Context, txID string) (domain.TransactionRecord, error) {
	c.mu.Lock()
	c.calls.Tx++
	n := c.calls.Tx
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return domain.TransactionRecord{}, err
	}
	if c.txErr != nil {
		return domain.TransactionRecord{}, c.txErr
	}
	if len(c.txs) == 0 {
		return domain.TransactionRecord{ID: txID, Status: domain.TxMined}, nil
	}
	rec := c.txs[min(n, len(c.txs))-1]
	rec.ID = txID
	return rec, nil
}

// ProposalStatus implements ports.ChainClient.
func (c *Chain) ProposalStatus(ctx context.Context, proposalID string) (domain.ProposalRecord, error) {
	c.mu.Lock()
	c.calls.Proposal++
	n := c.calls.Proposal
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return domain.ProposalRecord{}, err
	}
	if c.proposalErr != nil {
		return domain.ProposalRecord{}, c.proposalErr
	}
	if len(c.proposals) == 0 {
		return domain.ProposalRecord{ID: proposalID, ContractDeployed: true}, nil
	}
	rec := c.proposals[min(n, len(c.proposals))-1]
	rec.ID = proposalID
	return rec, nil
}

// RequestFaucet implements ports.ChainClient.
func (c *Chain) RequestFaucet(ctx context.Context, address string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls.Faucet++
	if c.faucetErr != nil {
		return "", c.faucetErr
	}
	c.balances[address] += c.faucetAmount
	return fmt.Sprintf("Successfully sent %d ELF to %s", c.faucetAmount/1e8, address), nil
}

// Balance implements ports.ChainClient.
func (c *Chain) Balance(ctx context.Context, address string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls.Balance++
	return c.balances[address], nil
}

// Calls returns a snapshot of the request counters.
func (c *Chain) Calls() Calls {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Submitted returns every payload passed to SubmitCode.
func (c *Chain) Submitted() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.submitted...)
}

var _ ports.ChainClient = (*Chain)(nil)
