package external

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// MemoryLockManager holds dispatch locks in process memory.
// It only excludes cycles within a single process.
type MemoryLockManager struct {
	mutex sync.Mutex
	held  map[string]memoryLockEntry
	now   func() time.Time
}

type memoryLockEntry struct {
	owner     string
	expiresAt time.Time
}

// NewMemoryLockManager creates an in-process lock manager
func NewMemoryLockManager() *MemoryLockManager {
	return &MemoryLockManager{
		held: make(map[string]memoryLockEntry),
		now:  time.Now,
	}
}

// TryAcquire takes key for ttl, failing with a conflict error while another owner holds it
func (m *MemoryLockManager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (ports.LockHandle, error) {
	if key == "" {
		return nil, errors.NewValidationError("lock key cannot be empty")
	}
	if ttl <= 0 {
		return nil, errors.NewValidationError("lock TTL must be positive")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.now()
	if entry, exists := m.held[key]; exists && now.Before(entry.expiresAt) {
		return nil, errors.NewConflictError(fmt.Sprintf("lock %s is already held", key))
	}

	owner := uuid.New().String()
	m.held[key] = memoryLockEntry{owner: owner, expiresAt: now.Add(ttl)}

	return &memoryLockHandle{manager: m, key: key, owner: owner}, nil
}

// Name returns the backend name
func (m *MemoryLockManager) Name() string {
	return "memory"
}

func (m *MemoryLockManager) release(key, owner string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// an expired lock may have been taken over; leave the new owner alone
	if entry, exists := m.held[key]; exists && entry.owner == owner {
		delete(m.held, key)
	}
}

type memoryLockHandle struct {
	manager *MemoryLockManager
	key     string
	owner   string
}

func (h *memoryLockHandle) Release(ctx context.Context) error {
	h.manager.release(h.key, h.owner)
	return nil
}
