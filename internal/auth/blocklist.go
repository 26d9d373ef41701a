// File: internal/auth/blocklist.go
package auth

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"postboard_backend/internal/shared"
)

// InMemoryBlocklistService is an in-memory implementation of
// shared.TokenBlocklistService backed by an expiring cache. Entries expire
// together with the tokens they blocklist, so the cache never outgrows the
// set of live sessions.
type InMemoryBlocklistService struct {
	cache *cache.Cache
}

var _ shared.TokenBlocklistService = (*InMemoryBlocklistService)(nil)

// NewInMemoryBlocklistService creates a new in-memory blocklist service.
// cleanupInterval controls how often expired entries are purged.
func NewInMemoryBlocklistService(cleanupInterval time.Duration) *InMemoryBlocklistService {
	return &InMemoryBlocklistService{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

// AddToBlocklist adds a token JTI to the cache. The entry is kept exactly as
// long as the token would have remained valid.
func (s *InMemoryBlocklistService) AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error {
	duration := time.Until(expiresAt)
	if duration <= 0 {
		return nil
	}
	s.cache.Set(jti, true, duration)
	return nil
}

// IsBlocklisted checks if a token JTI exists in the cache.
func (s *InMemoryBlocklistService) IsBlocklisted(ctx context.Context, jti string) (bool, error) {
	_, found := s.cache.Get(jti)
	return found, nil
}
