// Package cache holds the latest live price snapshot so the site and the
// bot read the same value.
package cache

import (
	"context"
	"sync"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
)

// PriceCache stores the latest snapshot per symbol.
type PriceCache interface {
	SetLatest(ctx context.Context, snap models.PriceSnapshot) error
	// GetLatest returns errs.ErrNotFound when nothing is cached or the
	// entry expired.
	GetLatest(ctx context.Context, symbol string) (models.PriceSnapshot, error)
	Close() error
}

// Memory is an in-process PriceCache used when Redis is not configured.
type Memory struct {
	ttl  time.Duration
	now  func() time.Time
	mu   sync.RWMutex
	snap map[string]memoryEntry
}

type memoryEntry struct {
	snap    models.PriceSnapshot
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:  ttl,
		now:  time.Now,
		snap: make(map[string]memoryEntry),
	}
}

func (m *Memory) SetLatest(_ context.Context, snap models.PriceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{snap: snap}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.snap[snap.Symbol] = entry
	return nil
}

func (m *Memory) GetLatest(_ context.Context, symbol string) (models.PriceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.snap[symbol]
	if !ok || (!entry.expires.IsZero() && !m.now().Before(entry.expires)) {
		return models.PriceSnapshot{}, errs.ErrNotFound
	}
	return entry.snap, nil
}

func (m *Memory) Close() error { return nil }
