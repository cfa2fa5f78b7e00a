package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists one Context per authenticated user so the HTTP layer
// can rehydrate the page state between requests. Redis is the normal
// backend; when the client is nil (Redis unreachable at startup) the
// store degrades to process memory, which loses sessions on restart
// but keeps the service usable.
type Store struct {
	rdb *redis.Client
	ttl time.Duration

	mu  sync.Mutex
	mem map[uint64]Context
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, mem: make(map[uint64]Context)}
}

func sessionKey(userID uint64) string { return fmt.Sprintf("session:%d", userID) }

// Load returns the stored context for a user. found is false when no
// session exists (never logged in here, expired, or logged out).
func (s *Store) Load(ctx context.Context, userID uint64) (Context, bool, error) {
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		sc, ok := s.mem[userID]
		return sc, ok, nil
	}
	raw, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Context{}, false, nil
		}
		return Context{}, false, err
	}
	var sc Context
	if err := json.Unmarshal(raw, &sc); err != nil {
		return Context{}, false, err
	}
	return sc, true, nil
}

// Save stores the context under its user id, refreshing the TTL.
// Unauthenticated contexts are not persisted.
func (s *Store) Save(ctx context.Context, sc Context) error {
	if sc.UserID == 0 {
		return nil
	}
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mem[sc.UserID] = sc
		return nil
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sc.UserID), raw, s.ttl).Err()
}

// Delete discards the stored context, e.g. on logout.
func (s *Store) Delete(ctx context.Context, userID uint64) error {
	if s.rdb == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.mem, userID)
		return nil
	}
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}
