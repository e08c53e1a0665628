package cache

import (
	"context"
	"log"
	"math"
	"sync"

	"neonx-web/models"
	"neonx-web/series"
)

// Tracker turns live ticks into snapshots with a running session high/low
// and writes them to a PriceCache.
type Tracker struct {
	cache PriceCache

	mu   sync.Mutex
	high float64
	low  float64
}

func NewTracker(c PriceCache) *Tracker {
	return &Tracker{cache: c, high: math.Inf(-1), low: math.Inf(1)}
}

// Observe records tick. Cache failures are logged; the live stream continues.
func (t *Tracker) Observe(ctx context.Context, tick models.Tick) models.PriceSnapshot {
	t.mu.Lock()
	t.high = math.Max(t.high, tick.Price)
	t.low = math.Min(t.low, tick.Price)
	snap := models.PriceSnapshot{
		Symbol:        tick.Symbol,
		Price:         tick.Price,
		ChangePercent: series.PercentChange(tick.Previous, tick.Price),
		High:          t.high,
		Low:           t.low,
		UpdatedAt:     tick.Time,
	}
	t.mu.Unlock()

	if err := t.cache.SetLatest(ctx, snap); err != nil {
		log.Printf("[WARN] cache latest price: %v", err)
	}
	return snap
}
