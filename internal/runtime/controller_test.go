package runtime_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/deploykit/internal/runtime"
	"github.com/aretw0/deploykit/pkg/adapters/memory"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/aretw0/deploykit/pkg/session"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var program = memory.Program{0xde, 0xad, 0xbe, 0xef}

type linker struct{}

func (linker) AddressURL(a string) string { return "https://explorer.test/address/" + a }
func (linker) TxURL(id string) string     { return "https://explorer.test/tx/" + id }

func fastConfig() runtime.Config {
	cfg := runtime.DefaultConfig()
	cfg.PollInterval = time.Millisecond
	return cfg
}

type recorder struct {
	mu      sync.Mutex
	changes []state.Change
	msgs    []runtime.Message
}

func (r *recorder) observe(c state.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) Report(m runtime.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) states() []domain.DeployState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeployState
	for _, c := range r.changes {
		if c.Transitioned() {
			out = append(out, c.To)
		}
	}
	return out
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Title)
	}
	return out
}

func newController(t *testing.T, chain ports.ChainClient, artifact ports.ArtifactSource, opts ...runtime.Option) (*runtime.Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	holder := state.New()
	holder.Observe(rec.observe)
	base := []runtime.Option{
		runtime.WithConfig(fastConfig()),
		runtime.WithHolder(holder),
		runtime.WithReporter(rec),
	}
	return runtime.NewController(chain, artifact, append(base, opts...)...), rec
}

// blockFirstSubmit blocks the first submission until its context ends and
// closes started once it is blocked.
func blockFirstSubmit(started chan<- struct{}) memory.ChainOption {
	return memory.WithSubmitHook(func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
}

func waitState(t *testing.T, h *state.Holder, want domain.DeployState) {
	t.Helper()
	require.Eventually(t, func() bool { return h.State() == want }, 2*time.Second, time.Millisecond)
}

func failureOf(t *testing.T, err error) *domain.Failure {
	t.Helper()
	var f *domain.Failure
	require.ErrorAs(t, err, &f)
	return f
}

func TestController_Success(t *testing.T) {
	chain := memory.Simulated(2)
	var settled []domain.OutcomeStatus
	var steps []string
	hooks := domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			if e.Done {
				steps = append(steps, string(e.Step)+":done")
				return
			}
			steps = append(steps, string(e.Step)+":start")
		},
		OnSettle: func(_ context.Context, o *domain.Outcome) {
			settled = append(settled, o.Status)
		},
	}
	c, rec := newController(t, chain, program, runtime.WithLinker(linker{}), runtime.WithHooks(hooks))

	out, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSucceeded, out.Status)
	assert.Equal(t, "sim-tx-1", out.TransactionID)
	assert.Equal(t, "sim-proposal-1", out.ProposalID)
	assert.NotEmpty(t, out.ContractAddress)
	assert.Equal(t, "https://explorer.test/address/"+out.ContractAddress, out.ExplorerURL)
	assert.True(t, strings.HasPrefix(out.Message, "Deployment successful. Completed in "))
	assert.Contains(t, out.Message, "View contract on aelf explorer: "+out.ExplorerURL)

	calls := chain.Calls()
	assert.Equal(t, 1, calls.Submit)
	assert.Equal(t, 3, calls.Tx)
	assert.Equal(t, 3, calls.Proposal)
	assert.Equal(t, [][]byte{program}, chain.Submitted())

	assert.Equal(t, []domain.DeployState{domain.StateLoading, domain.StateReady}, rec.states())
	assert.Equal(t, domain.StateReady, c.Holder().State())
	assert.Zero(t, c.Holder().Progress())

	// progress never decreases while in flight and reaches 1 before settling
	rec.mu.Lock()
	var last float64
	for _, ch := range rec.changes[:len(rec.changes)-1] {
		assert.GreaterOrEqual(t, ch.Progress, last)
		last = ch.Progress
	}
	final := rec.changes[len(rec.changes)-1]
	rec.mu.Unlock()
	assert.Equal(t, 1.0, last)
	assert.Equal(t, domain.StateReady, final.To)
	assert.Zero(t, final.Progress)

	assert.Equal(t, []string{
		"transfer:start", "transfer:done",
		"tx_poll:start", "tx_poll:done",
		"proposal_poll:start", "proposal_poll:done",
	}, steps)
	assert.Equal(t, []domain.OutcomeStatus{domain.OutcomeSucceeded}, settled)

	titles := rec.titles()
	require.NotEmpty(t, titles)
	assert.Equal(t, "Deploying...", titles[0])
	assert.Contains(t, titles, "Checking deployment status...")
	assert.Contains(t, titles, "Checking proposal status...")
	assert.Equal(t, "Deployment successful.", titles[len(titles)-1])

	st := c.Status()
	require.NotNil(t, st.Last)
	assert.Equal(t, domain.OutcomeSucceeded, st.Last.Status)
	assert.Equal(t, "sim-tx-1", st.TransactionID)
}

func TestController_NotBuiltMakesNoCalls(t *testing.T) {
	chain := memory.Simulated(0)
	c, rec := newController(t, chain, memory.Program(nil))

	out, err := c.Run(context.Background())
	f := failureOf(t, err)

	assert.Equal(t, domain.KindNotBuilt, f.Kind)
	assert.Equal(t, "The program is not built.", f.Reason)
	assert.Equal(t, domain.OutcomeFailed, out.Status)
	assert.Equal(t, "Deployment error: The program is not built.", out.Message)
	assert.Equal(t, memory.Calls{}, chain.Calls())
	assert.Empty(t, rec.states())
}

type brokenArtifact struct{}

func (brokenArtifact) CompiledProgram(context.Context) ([]byte, error) {
	return nil, errors.New("open build/output.dll: permission denied")
}

func TestController_ArtifactErrorIsNotBuilt(t *testing.T) {
	c, _ := newController(t, memory.Simulated(0), brokenArtifact{})

	_, err := c.Run(context.Background())
	assert.Equal(t, domain.KindNotBuilt, failureOf(t, err).Kind)
}

func TestController_RunWhileBusyIsIgnored(t *testing.T) {
	started := make(chan struct{})
	chain := memory.Simulated(0, blockFirstSubmit(started))
	c, _ := newController(t, chain, program)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx)
		done <- err
	}()
	<-started

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnored, out.Status)
	assert.Equal(t, 1, chain.Calls().Submit)
	assert.Equal(t, domain.StateLoading, c.Holder().State())

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, domain.StateReady, c.Holder().State())
}

func TestController_EmptyTransactionID(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactionID(""))
	c, _ := newController(t, chain, program)

	_, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindDeploymentRejected, f.Kind)
	assert.Empty(t, f.TransactionID)
	assert.Zero(t, chain.Calls().Tx)
}

func TestController_TransactionFailed(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactions(
		domain.TransactionRecord{Status: domain.TxPending},
		domain.TransactionRecord{Status: domain.TxFailed, Error: "Contract code has already been deployed"},
	))
	c, _ := newController(t, chain, program, runtime.WithLinker(linker{}))

	out, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindTransactionFailed, f.Kind)
	assert.Equal(t, "sim-tx-1", f.TransactionID)
	assert.Contains(t, f.Display, "https://explorer.test/tx/sim-tx-1")
	assert.Equal(t, "Deployment error: "+f.Display, out.Message)
	assert.Zero(t, chain.Calls().Proposal)
}

func TestController_ProposalNotFound(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactions(
		domain.TransactionRecord{Status: domain.TxMined},
	))
	c, _ := newController(t, chain, program)

	_, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindProposalNotFound, f.Kind)
	assert.Equal(t, "sim-tx-1", f.TransactionID)
	assert.Zero(t, chain.Calls().Proposal)
	assert.Equal(t, domain.StateReady, c.Holder().State())
}

func TestController_ProposalLookupNotFound(t *testing.T) {
	chain := memory.Simulated(0, memory.WithProposalError(&domain.ChainError{
		Category: domain.CategoryNotFound,
		Message:  "proposal not found",
	}))
	c, _ := newController(t, chain, program)

	_, err := c.Run(context.Background())
	assert.Equal(t, domain.KindProposalNotFound, failureOf(t, err).Kind)
}

func TestController_ProposalExpired(t *testing.T) {
	chain := memory.Simulated(1, memory.WithProposals(
		domain.ProposalRecord{Status: domain.ProposalActive},
		domain.ProposalRecord{Status: domain.ProposalExpired},
	))
	c, _ := newController(t, chain, program)

	out, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindProposalExpired, f.Kind)
	assert.Equal(t, "Contract not deployed after proposal expiry.", f.Reason)
	assert.Equal(t, "sim-proposal-1", out.ProposalID)
	assert.Equal(t, 2, chain.Calls().Proposal)
}

func TestController_ExpiredButDeployedSucceeds(t *testing.T) {
	chain := memory.Simulated(0, memory.WithProposals(
		domain.ProposalRecord{Status: domain.ProposalExpired, ContractDeployed: true, ContractAddress: "addr"},
	))
	c, _ := newController(t, chain, program)

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "addr", out.ContractAddress)
	assert.Contains(t, out.Message, "Contract address: addr.")
}

func TestController_TransportError(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactionError(errors.New("connection refused")))
	c, _ := newController(t, chain, program)

	_, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindTransport, f.Kind)
	assert.True(t, strings.HasPrefix(f.Reason, "Network error: "))
}

func TestController_WithoutProposal(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactions(domain.TransactionRecord{
		Status: domain.TxMined,
		Logs: []domain.Log{
			{Name: "CodeCheckRequired"},
			{Name: "ContractDeployed", Fields: map[string]any{"address": "2abc", "codeHash": "ff"}},
		},
	}))
	cfg := fastConfig()
	cfg.RequireProposal = false
	c, _ := newController(t, chain, program, runtime.WithConfig(cfg))

	out, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2abc", out.ContractAddress)
	assert.Zero(t, chain.Calls().Proposal)
}

func TestController_PauseThenResume(t *testing.T) {
	started := make(chan struct{})
	chain := memory.Simulated(0, blockFirstSubmit(started))
	c, rec := newController(t, chain, program)

	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(context.Background())
		done <- err
	}()

	<-started
	require.NoError(t, c.Pause())
	waitState(t, c.Holder(), domain.StatePaused)
	require.NoError(t, c.Resume())
	require.NoError(t, <-done)

	assert.Equal(t, domain.OutcomeSucceeded, out.Status)
	assert.Equal(t, 2, chain.Calls().Submit)
	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateLoading, domain.StateReady,
	}, rec.states())
	assert.Contains(t, rec.titles(), "Deployment paused.")
	assert.Contains(t, rec.titles(), "Resuming deployment...")
}

func TestController_PauseThenDecline(t *testing.T) {
	started := make(chan struct{})
	chain := memory.Simulated(0, blockFirstSubmit(started))
	no := ports.ConfirmFunc(func(context.Context, string, bool) (bool, error) { return false, nil })
	c, rec := newController(t, chain, program, runtime.WithConfirmer(no))

	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(context.Background())
		done <- err
	}()

	<-started
	require.NoError(t, c.Pause())
	require.NoError(t, <-done)

	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Equal(t, "Deployment cancelled.", out.Message)
	assert.Nil(t, out.Failure)
	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateCancelled, domain.StateReady,
	}, rec.states())
	assert.Zero(t, chain.Calls().Tx)
	assert.Zero(t, c.Holder().Progress())
}

func pollingConfig() runtime.Option {
	cfg := fastConfig()
	cfg.PollInterval = 10 * time.Millisecond
	return runtime.WithConfig(cfg)
}

func TestController_PauseDuringTransactionPolling(t *testing.T) {
	chain := memory.Simulated(10)
	c, rec := newController(t, chain, program, pollingConfig())

	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return chain.Calls().Tx >= 1 }, 2*time.Second, time.Millisecond)
	require.NoError(t, c.Pause())
	waitState(t, c.Holder(), domain.StatePaused)
	polled := chain.Calls().Tx
	require.NoError(t, c.Resume())
	require.NoError(t, <-done)

	assert.Equal(t, domain.OutcomeSucceeded, out.Status)
	assert.Equal(t, "sim-tx-1", out.TransactionID)
	assert.Equal(t, 1, chain.Calls().Submit, "resuming a poll must not resubmit")
	assert.Greater(t, chain.Calls().Tx, polled)
	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateLoading, domain.StateReady,
	}, rec.states())
}

func TestController_PauseDuringProposalPollingThenDecline(t *testing.T) {
	chain := memory.Simulated(10)
	no := ports.ConfirmFunc(func(context.Context, string, bool) (bool, error) { return false, nil })
	c, rec := newController(t, chain, program, pollingConfig(), runtime.WithConfirmer(no))

	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return chain.Calls().Proposal >= 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, c.Pause())
	require.NoError(t, <-done)

	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Nil(t, out.Failure)
	assert.Equal(t, "sim-tx-1", out.TransactionID)
	assert.Equal(t, "sim-proposal-1", out.ProposalID)
	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateCancelled, domain.StateReady,
	}, rec.states())
	assert.Less(t, chain.Calls().Proposal, 11)
}

func TestController_Start(t *testing.T) {
	started := make(chan struct{})
	chain := memory.Simulated(0, blockFirstSubmit(started))
	c, _ := newController(t, chain, program)

	done, ok := c.Start(context.Background())
	require.True(t, ok)
	<-started

	_, again := c.Start(context.Background())
	assert.False(t, again)

	require.NoError(t, c.Cancel())
	res := <-done
	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome.Status)
	assert.Equal(t, domain.StateReady, c.Holder().State())
}

func TestController_CancelWhileLoading(t *testing.T) {
	started := make(chan struct{})
	chain := memory.Simulated(0, blockFirstSubmit(started))
	c, rec := newController(t, chain, program)

	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(context.Background())
		done <- err
	}()

	<-started
	require.NoError(t, c.Cancel())
	require.NoError(t, <-done)

	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateCancelled, domain.StateReady,
	}, rec.states())
}

func TestController_ParentCancelDuringPolling(t *testing.T) {
	chain := memory.Simulated(1000)
	cfg := fastConfig()
	cfg.PollInterval = time.Hour
	c, _ := newController(t, chain, program, runtime.WithConfig(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out domain.Outcome
	go func() {
		var err error
		out, err = c.Run(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return chain.Calls().Tx == 1 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Equal(t, domain.StateReady, c.Holder().State())
}

func TestController_MaxWait(t *testing.T) {
	chain := memory.Simulated(1000)
	cfg := fastConfig()
	cfg.MaxWait = 20 * time.Millisecond
	c, _ := newController(t, chain, program, runtime.WithConfig(cfg))

	_, err := c.Run(context.Background())
	f := failureOf(t, err)
	assert.Equal(t, domain.KindTimeout, f.Kind)
	assert.Equal(t, "sim-tx-1", f.TransactionID)
}

func TestController_RequestWhenIdle(t *testing.T) {
	c, _ := newController(t, memory.Simulated(0), program)

	assert.ErrorIs(t, c.Pause(), domain.ErrNotRunning)
	assert.ErrorIs(t, c.Resume(), domain.ErrNotRunning)
	assert.ErrorIs(t, c.Cancel(), domain.ErrNotRunning)
}

func TestController_SessionBusy(t *testing.T) {
	sessions := session.NewManager()
	held, err := sessions.Begin(context.Background(), "default", nil)
	require.NoError(t, err)
	defer sessions.End(context.Background(), held)

	chain := memory.Simulated(0)
	c, rec := newController(t, chain, program, runtime.WithSessions(sessions))

	_, err = c.Run(context.Background())
	assert.Equal(t, domain.KindDeploymentRejected, failureOf(t, err).Kind)
	assert.Zero(t, chain.Calls().Submit)
	assert.Equal(t, []domain.DeployState{domain.StateLoading, domain.StateReady}, rec.states())
}

func TestController_RunsAgainAfterSettling(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactionID(""))
	c, _ := newController(t, chain, program)

	_, err := c.Run(context.Background())
	require.Error(t, err)
	_, err = c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, chain.Calls().Submit)
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{4200 * time.Millisecond, "4.2s"},
		{59*time.Second + 940*time.Millisecond, "59.9s"},
		{65 * time.Second, "1m 05s"},
		{time.Hour + 2*time.Minute + 9*time.Second, "1h 02m 09s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, runtime.FormatElapsed(tc.d), tc.d.String())
	}
}
