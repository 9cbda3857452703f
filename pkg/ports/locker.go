package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockLost is returned by Lease.Refresh once the lock expired or was taken over.
var ErrLockLost = errors.New("distributed lock lost")

// Lease is a held distributed lock.
type Lease interface {
	// Refresh extends the lock to ttl from now. It fails with ErrLockLost
	// when this lease no longer owns the key.
	Refresh(ctx context.Context, ttl time.Duration) error
	// Release frees the lock. Releasing a lost lock is not an error.
	Release(ctx context.Context) error
}

// DistributedLocker coordinates deployments across processes sharing a wallet.
type DistributedLocker interface {
	// Lock acquires the lock for key, blocking until it is held or ctx is done.
	// The lease MUST be released once the deployment settles; ttl bounds how
	// long a crashed holder can keep the key and is renewed while it runs.
	Lock(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
