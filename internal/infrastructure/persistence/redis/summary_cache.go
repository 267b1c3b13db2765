package redis

import (
	"context"
	"errors"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
)

// SummaryCache caches dashboard snapshots in front of the snapshot table.
type SummaryCache struct {
	cache *Cache
}

// NewSummaryCache creates a new SummaryCache.
func NewSummaryCache(cache *Cache) *SummaryCache {
	return &SummaryCache{cache: cache}
}

// Get returns the cached snapshot for a student.
// Returns ErrCacheMiss when the key is absent.
func (s *SummaryCache) Get(ctx context.Context, studentID string) (*dashboard.Snapshot, error) {
	var snap dashboard.Snapshot
	if err := s.cache.Get(ctx, SummaryKey(studentID), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Set stores a snapshot with the summary TTL.
func (s *SummaryCache) Set(ctx context.Context, snap *dashboard.Snapshot) error {
	if snap == nil {
		return nil
	}
	return s.cache.Set(ctx, SummaryKey(snap.StudentID), snap, TTLSummary)
}

// SetWithTTL stores a snapshot with an explicit TTL.
func (s *SummaryCache) SetWithTTL(ctx context.Context, snap *dashboard.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return nil
	}
	return s.cache.Set(ctx, SummaryKey(snap.StudentID), snap, ttl)
}

// Invalidate drops the cached snapshot of a student.
func (s *SummaryCache) Invalidate(ctx context.Context, studentID string) error {
	return s.cache.Delete(ctx, SummaryKey(studentID))
}

// IsMiss reports whether the error is a plain cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
