package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/deploykit/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrLockAcquire is returned when the lock cannot be acquired.
	ErrLockAcquire = errors.New("failed to acquire distributed lock")
)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "deploykit:"

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// refreshScript extends the key only if it still holds our token.
const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`

// Locker implements ports.DistributedLocker using Redis SET NX PX.
type Locker struct {
	client *backend.Client
	prefix string
	retry  time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) LockerOption {
	return func(l *Locker) {
		l.prefix = prefix
	}
}

// WithRetryInterval sets how often a held lock is retried.
func WithRetryInterval(d time.Duration) LockerOption {
	return func(l *Locker) {
		if d > 0 {
			l.retry = d
		}
	}
}

// NewLocker creates a new Redis locker from an existing client.
func NewLocker(client *backend.Client, opts ...LockerOption) *Locker {
	l := &Locker{
		client: client,
		prefix: DefaultPrefix,
		retry:  100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr, password string, db int) (*backend.Client, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Key returns the Redis key used for key.
func (l *Locker) Key(key string) string {
	return l.prefix + "lock:" + key
}

// Lock acquires the lock for key, retrying until ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.Lease, error) {
	lockKey := l.Key(key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		if ok {
			return &lease{client: l.client, key: lockKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// lease is a lock held under a random token.
type lease struct {
	client *backend.Client
	key    string
	token  string
}

func (ls *lease) Refresh(ctx context.Context, ttl time.Duration) error {
	n, err := ls.client.Eval(ctx, refreshScript, []string{ls.key}, ls.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("refresh %s: %w", ls.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ports.ErrLockLost, ls.key)
	}
	return nil
}

func (ls *lease) Release(ctx context.Context) error {
	return ls.client.Eval(ctx, releaseScript, []string{ls.key}, ls.token).Err()
}

var (
	_ ports.DistributedLocker = (*Locker)(nil)
	_ ports.Lease             = (*lease)(nil)
)
