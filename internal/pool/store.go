// Package pool holds the most recently published spike set. It is the only
// state shared between the scan loop and the query handlers.
package pool

import (
	"sync"
	"time"

	"oisentry/internal/models"
)

// Store retains the latest candidate pool and open-interest ranking. It is
// safe for concurrent use: the scanner is the single writer, the API handlers
// read at any time. Both views are always replaced together so readers never
// observe a half-updated pair.
type Store struct {
	mu        sync.RWMutex
	coinPool  []models.OIChange
	oiTop     []models.OIChange
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Publish replaces both views atomically. The slices are copied so callers may
// keep mutating their own buffers afterwards.
func (s *Store) Publish(coinPool, oiTop []models.OIChange) {
	poolCopy := make([]models.OIChange, len(coinPool))
	copy(poolCopy, coinPool)
	topCopy := make([]models.OIChange, len(oiTop))
	copy(topCopy, oiTop)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.coinPool = poolCopy
	s.oiTop = topCopy
	s.updatedAt = time.Now().UTC()
}

// CoinPool returns a snapshot of the candidate pool in scan-completion order.
func (s *Store) CoinPool() []models.OIChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OIChange, len(s.coinPool))
	copy(out, s.coinPool)
	return out
}

// OITop returns a snapshot of the spikes ranked by absolute change.
func (s *Store) OITop() []models.OIChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OIChange, len(s.oiTop))
	copy(out, s.oiTop)
	return out
}

// UpdatedAt reports when the store last accepted a publish. The zero time
// means no spike set has ever been published.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
