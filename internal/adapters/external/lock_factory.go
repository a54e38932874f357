package external

import (
	"fmt"

	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// Lock backend names
const (
	LockTypeMemory = "memory"
	LockTypeRedis  = "redis"
)

// NewLockManager creates the dispatch lock backend named in the config
func NewLockManager(config ports.LockConfig) (ports.LockManager, error) {
	switch config.Type {
	case LockTypeMemory:
		return NewMemoryLockManager(), nil
	case LockTypeRedis:
		manager, err := NewRedisLockManager(&config.Redis)
		if err != nil {
			return nil, err
		}
		return manager, nil
	default:
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("unsupported lock type: %s", config.Type), nil)
	}
}
