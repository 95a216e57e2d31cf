package guard

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// FlagStore caches the driver-verified flag per device. The flag is set
// when driver documents are submitted from that device and is never
// reconciled against the actual uploaded-document state.
type FlagStore interface {
	IsDriverVerified(ctx context.Context, deviceID string) bool
	SetDriverVerified(ctx context.Context, deviceID string) error
}

const flagKeyPrefix = "driver_verified:"

// RedisFlagStore keeps device flags in Redis so a device keeps its flag
// across app-server restarts.
type RedisFlagStore struct {
	rdb *redis.Client
}

func NewRedisFlagStore(addr string) *RedisFlagStore {
	return &RedisFlagStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (s *RedisFlagStore) IsDriverVerified(ctx context.Context, deviceID string) bool {
	val, err := s.rdb.Get(ctx, flagKeyPrefix+deviceID).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		// Treat a cache outage as "not verified"; the user re-verifies.
		log.Println("Error reading driver-verified flag:", err)
		return false
	}
	return val == "true"
}

func (s *RedisFlagStore) SetDriverVerified(ctx context.Context, deviceID string) error {
	return s.rdb.Set(ctx, flagKeyPrefix+deviceID, "true", 0).Err()
}

// MemoryFlagStore is the in-process fallback used in dev and tests.
type MemoryFlagStore struct {
	mu    sync.Mutex
	flags map[string]bool
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]bool)}
}

func (s *MemoryFlagStore) IsDriverVerified(ctx context.Context, deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[deviceID]
}

func (s *MemoryFlagStore) SetDriverVerified(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[deviceID] = true
	return nil
}
