package ports

import (
	"context"
	"time"
)

// LockHandle is a held lock
type LockHandle interface {
	Release(ctx context.Context) error
}

// LockManager defines the contract for the dispatch lock.
// TryAcquire fails fast with a conflict error when the key is already held.
type LockManager interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (LockHandle, error)
	Name() string
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}
