// Package cache adds an optional read-aside caching layer over the
// token store. Trigger settings are deliberately never cached; only
// per-user token lists pass through here.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pkg/push"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a Decorator that adds read-aside caching to any
// TokenStore. Cached per user, not per lookup, so multi-user resolves
// still benefit from partial hits.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) Tokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return []string{}, nil
	}

	out := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		key := s.cacheKey(userID)

		var cached []string
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			out = append(out, cached...)
			continue
		}

		// Fallback to the real store. Empty lists are cached too, so a
		// user with no devices does not hammer the database every scan.
		fresh, err := s.realStore.Tokens(ctx, []string{userID})
		if err != nil {
			return nil, err
		}

		// Caching is an optimization, not a transaction. If Redis is
		// down we just serve from the database.
		_ = s.cache.Set(ctx, key, fresh, s.ttl)
		out = append(out, fresh...)
	}
	return out, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) Register(ctx context.Context, userID string, token push.DeviceToken) error {
	// 1. Write to Source of Truth
	if err := s.realStore.Register(ctx, userID, token); err != nil {
		return err
	}
	// 2. Invalidate Cache
	return s.invalidate(ctx, userID)
}

// Unregister must clear the cache even though the DB write succeeded:
// a just-removed device should stop receiving pushes immediately.
func (s *CachedTokenStore) Unregister(ctx context.Context, userID, token string) error {
	if err := s.realStore.Unregister(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, s.cacheKey(userID))
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("push:tokens:%s", userID)
}
