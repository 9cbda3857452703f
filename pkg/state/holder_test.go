package state_test

import (
	"sync"
	"testing"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_AllowedEdges(t *testing.T) {
	h := state.New()
	assert.Equal(t, domain.StateReady, h.State())
	assert.Zero(t, h.Progress())

	steps := []struct{ from, to domain.DeployState }{
		{domain.StateReady, domain.StateLoading},
		{domain.StateLoading, domain.StatePaused},
		{domain.StatePaused, domain.StateLoading},
		{domain.StateLoading, domain.StatePaused},
		{domain.StatePaused, domain.StateCancelled},
		{domain.StateCancelled, domain.StateReady},
	}
	for _, s := range steps {
		require.NoError(t, h.Transition(s.from, s.to), "%s -> %s", s.from, s.to)
		assert.Equal(t, s.to, h.State())
	}
}

func TestHolder_IllegalEdges(t *testing.T) {
	illegal := []struct{ from, to domain.DeployState }{
		{domain.StateReady, domain.StatePaused},
		{domain.StateReady, domain.StateCancelled},
		{domain.StateLoading, domain.StateCancelled},
		{domain.StateCancelled, domain.StateLoading},
		{domain.StateLoading, domain.StateLoading},
	}
	for _, e := range illegal {
		t.Run(string(e.from)+"->"+string(e.to), func(t *testing.T) {
			h := state.New()
			err := h.Transition(e.from, e.to)
			assert.ErrorIs(t, err, state.ErrIllegalTransition)
			assert.Equal(t, domain.StateReady, h.State())
		})
	}
}

func TestHolder_TransitionFromWrongState(t *testing.T) {
	h := state.New()
	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))

	err := h.Transition(domain.StateReady, domain.StateLoading)
	assert.ErrorIs(t, err, state.ErrUnexpectedState)
	assert.Equal(t, domain.StateLoading, h.State())
}

func TestHolder_ProgressIsMonotonicAndResetOnSettle(t *testing.T) {
	h := state.New()

	h.SetProgress(0.5)
	assert.Zero(t, h.Progress(), "progress is ignored while ready")

	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))
	h.SetProgress(0.1)
	h.SetProgress(0.3)
	h.SetProgress(0.2)
	assert.InDelta(t, 0.3, h.Progress(), 1e-9)

	h.SetProgress(7)
	assert.Equal(t, 1.0, h.Progress())

	require.NoError(t, h.Settle(domain.StateLoading))
	assert.Equal(t, domain.StateReady, h.State())
	assert.Zero(t, h.Progress())
}

func TestHolder_SettleRejectsReady(t *testing.T) {
	h := state.New()
	assert.ErrorIs(t, h.Settle(domain.StateReady), state.ErrIllegalTransition)
}

func TestHolder_ObserversSeeEveryChangeInOrder(t *testing.T) {
	h := state.New()

	var mu sync.Mutex
	var seen []domain.DeployState
	stop := h.Observe(func(c state.Change) {
		if !c.Transitioned() {
			return
		}
		mu.Lock()
		seen = append(seen, c.To)
		mu.Unlock()
	})

	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))
	h.SetProgress(0.4)
	require.NoError(t, h.Transition(domain.StateLoading, domain.StatePaused))
	require.NoError(t, h.Transition(domain.StatePaused, domain.StateCancelled))
	require.NoError(t, h.Settle(domain.StateCancelled))

	stop()
	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))

	assert.Equal(t, []domain.DeployState{
		domain.StateLoading, domain.StatePaused, domain.StateCancelled, domain.StateReady,
	}, seen)
}

func TestHolder_ObserverMayRead(t *testing.T) {
	h := state.New()
	var got state.Snapshot
	h.Observe(func(state.Change) { got = h.Snapshot() })

	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))
	assert.Equal(t, domain.StateLoading, got.State)
}

func TestHolder_SubscribeDropsForSlowReaders(t *testing.T) {
	h := state.New()
	ch, cancel := h.Subscribe(1)

	require.NoError(t, h.Transition(domain.StateReady, domain.StateLoading))
	h.SetProgress(0.5)

	first := <-ch
	assert.Equal(t, domain.StateLoading, first.State)
	assert.Zero(t, first.Progress)

	select {
	case snap := <-ch:
		t.Fatalf("expected dropped snapshot, got %+v", snap)
	default:
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}
