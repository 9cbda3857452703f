package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a DistributedLocker
// implementation adheres to the interface contract.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-test-wallet-" + time.Now().Format("20060102150405.000")

	t.Run("Lock and Release", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NotNil(t, lease)
		require.NoError(t, lease.Release(ctx))
		assert.NoError(t, lease.Release(ctx), "second release is a no-op")
	})

	t.Run("Second holder waits until release", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, 5*time.Second)
		assert.Error(t, err, "lock must not be granted while held")

		require.NoError(t, lease.Release(ctx))

		lease2, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "lock must be granted after release")
		require.NoError(t, lease2.Release(ctx))
	})

	t.Run("Refresh while held", func(t *testing.T) {
		lease, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NoError(t, lease.Refresh(ctx, 5*time.Second))
		require.NoError(t, lease.Release(ctx))

		assert.ErrorIs(t, lease.Refresh(ctx, time.Second), ErrLockLost, "a released lease cannot be refreshed")
	})

	t.Run("Independent keys", func(t *testing.T) {
		l1, err := locker.Lock(ctx, key+"-a", time.Second)
		require.NoError(t, err)
		defer func() { _ = l1.Release(ctx) }()

		l2, err := locker.Lock(ctx, key+"-b", time.Second)
		require.NoError(t, err)
		_ = l2.Release(ctx)
	})
}
