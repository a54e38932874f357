package external

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// releaseScript deletes the key only while it still belongs to the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockManager implements LockManager with SET NX and an owner token,
// so cycles in separate processes exclude each other
type RedisLockManager struct {
	client *redis.Client
}

// NewRedisLockManager connects to Redis and verifies the connection
func NewRedisLockManager(config *ports.RedisConfig) (*RedisLockManager, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("redis config cannot be nil", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  time.Duration(config.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewConfigurationError("failed to connect to Redis", err)
	}

	return &RedisLockManager{client: client}, nil
}

// TryAcquire sets key with a fresh owner token unless it already exists
func (r *RedisLockManager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (ports.LockHandle, error) {
	if key == "" {
		return nil, errors.NewValidationError("lock key cannot be empty")
	}
	if ttl <= 0 {
		return nil, errors.NewValidationError("lock TTL must be positive")
	}

	owner := uuid.New().String()
	acquired, err := r.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, errors.NewDatabaseError("redis lock acquire failed", err)
	}
	if !acquired {
		return nil, errors.NewConflictError(fmt.Sprintf("lock %s is already held", key))
	}

	return &redisLockHandle{client: r.client, key: key, owner: owner}, nil
}

// Name returns the backend name
func (r *RedisLockManager) Name() string {
	return "redis"
}

// Ping checks if Redis connection is alive
func (r *RedisLockManager) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.NewDatabaseError("redis ping failed", err)
	}
	return nil
}

// Close closes the Redis client connection
func (r *RedisLockManager) Close() error {
	if err := r.client.Close(); err != nil {
		return errors.NewDatabaseError("failed to close Redis connection", err)
	}
	return nil
}

type redisLockHandle struct {
	client *redis.Client
	key    string
	owner  string
}

func (h *redisLockHandle) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, h.client, []string{h.key}, h.owner).Err(); err != nil {
		return errors.NewDatabaseError("redis lock release failed", err)
	}
	return nil
}
