package deploykit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/deploykit"
	"github.com/aretw0/deploykit/pkg/adapters/memory"
	"github.com/aretw0/deploykit/pkg/adapters/redis"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAdapters(t *testing.T) {
	_, err := deploykit.New(nil, memory.Program{1})
	require.Error(t, err)

	_, err = deploykit.New(memory.NewChain(), nil)
	require.Error(t, err)
}

func TestDeployer_ObserveAndHooks(t *testing.T) {
	var mu sync.Mutex
	var seen []domain.DeployState
	var polls int

	d, err := deploykit.New(memory.Simulated(1), memory.Program{1, 2, 3},
		deploykit.WithPollInterval(time.Millisecond),
		deploykit.WithLifecycleHooks(domain.LifecycleHooks{
			OnPoll: func(context.Context, *domain.PollEvent) { polls++ },
		}),
	)
	require.NoError(t, err)
	d.Observe(func(c state.Change) {
		if c.Transitioned() {
			mu.Lock()
			seen = append(seen, c.To)
			mu.Unlock()
		}
	})

	out, err := d.Deploy(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, []domain.DeployState{domain.StateLoading, domain.StateReady}, seen)
	assert.Equal(t, 4, polls)
	assert.Equal(t, out.TransactionID, d.Status().Last.TransactionID)
}

func TestDeployer_ReporterAndIssueURL(t *testing.T) {
	var msgs []deploykit.Message
	d, err := deploykit.New(memory.NewChain(memory.WithTransactionID("")), memory.Program{1},
		deploykit.WithIssueURL("https://example.com/issues"),
		deploykit.WithReporter(deploykit.ReporterFunc(func(m deploykit.Message) { msgs = append(msgs, m) })),
	)
	require.NoError(t, err)

	_, err = d.Deploy(context.Background())
	var f *domain.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, domain.KindDeploymentRejected, f.Kind)
	assert.Contains(t, f.Reason, "https://example.com/issues")
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Deploying...", msgs[0].Title)
	assert.Contains(t, msgs[len(msgs)-1].Text, "https://example.com/issues")
}

func TestDeployer_WithoutProposal(t *testing.T) {
	chain := memory.NewChain(memory.WithTransactions(domain.TransactionRecord{
		Status: domain.TxMined,
		Logs:   []domain.Log{{Name: "ContractDeployed", Fields: map[string]any{"address": "2xyz"}}},
	}))
	d, err := deploykit.New(chain, memory.Program{1}, deploykit.WithoutProposal())
	require.NoError(t, err)

	out, err := d.Deploy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2xyz", out.ContractAddress)
}

func TestDeployer_DistributedLockHeldElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.Dial(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := redis.NewLocker(client, redis.WithRetryInterval(5*time.Millisecond))
	lease, err := locker.Lock(context.Background(), "wallet-1", time.Minute)
	require.NoError(t, err)
	defer func() { _ = lease.Release(context.Background()) }()

	chain := memory.Simulated(0)
	d, err := deploykit.New(chain, memory.Program{1},
		deploykit.WithKey("wallet-1"),
		deploykit.WithLocker(locker, time.Minute),
	)
	require.NoError(t, err)

	_, err = d.Deploy(context.Background())
	var f *domain.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, domain.KindDeploymentRejected, f.Kind)
	assert.Zero(t, chain.Calls().Submit)
	assert.Equal(t, domain.StateReady, d.State())
}

func TestDeployer_Faucet(t *testing.T) {
	chain := memory.NewChain(memory.WithFaucet(1e8, nil))
	d, err := deploykit.New(chain, memory.Program{1})
	require.NoError(t, err)

	res, err := d.Faucet(context.Background(), "wallet")
	require.NoError(t, err)
	assert.Equal(t, int64(1e8), res.Claimed())

	bal, err := d.Balance(context.Background(), "wallet")
	require.NoError(t, err)
	assert.Equal(t, int64(1e8), bal)
}
