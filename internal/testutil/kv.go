package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"supportbot/internal/kv"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// ErrStoreDown is returned by FlakyStore while it is down
var ErrStoreDown = errors.New("fake: store unavailable")

// NewTestRedis starts an in-process Redis and returns a store bound to it
func NewTestRedis(t *testing.T) (*kv.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return kv.NewRedisStore(client), mr
}

// FlakyStore wraps a kv.Store and fails selected operations on demand
type FlakyStore struct {
	kv.Store

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	failDel  bool
	setCalls int
}

// NewFlakyStore wraps inner
func NewFlakyStore(inner kv.Store) *FlakyStore {
	return &FlakyStore{Store: inner}
}

// FailGet toggles Get failures
func (s *FlakyStore) FailGet(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = fail
}

// FailSet toggles Set failures
func (s *FlakyStore) FailSet(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = fail
}

// FailDelete toggles Delete failures
func (s *FlakyStore) FailDelete(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDel = fail
}

// SetCalls returns how many Set calls were made
func (s *FlakyStore) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

// Get implements kv.Store
func (s *FlakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, ErrStoreDown
	}
	return s.Store.Get(ctx, key)
}

// Set implements kv.Store
func (s *FlakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.setCalls++
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return ErrStoreDown
	}
	return s.Store.Set(ctx, key, value, ttl)
}

// Delete implements kv.Store
func (s *FlakyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.failDel
	s.mu.Unlock()
	if fail {
		return ErrStoreDown
	}
	return s.Store.Delete(ctx, key)
}
