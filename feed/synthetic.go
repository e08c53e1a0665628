// Package feed produces the live synthetic price ticks shown in the site's
// headline price and streamed to websocket clients.
package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
	"neonx-web/series"
)

type TickHandler func(models.Tick)

// Config bounds the live walk.
type Config struct {
	Symbol   string
	MinPrice float64
	MaxPrice float64
	Interval time.Duration
}

// Synthetic walks one series step per interval and fans each tick out to
// its handlers in registration order.
type Synthetic struct {
	cfg      Config
	rnd      series.Source
	now      func() time.Time
	handlers []TickHandler

	mu    sync.RWMutex
	price float64
}

func NewSynthetic(cfg Config, rnd series.Source) (*Synthetic, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("feed interval %v must be positive: %w", cfg.Interval, errs.ErrInvalidArgument)
	}
	if cfg.MinPrice <= 0 || cfg.MinPrice >= cfg.MaxPrice {
		return nil, fmt.Errorf("feed bounds [%g, %g]: %w", cfg.MinPrice, cfg.MaxPrice, errs.ErrInvalidArgument)
	}
	if rnd == nil {
		return nil, fmt.Errorf("random source is nil: %w", errs.ErrInvalidArgument)
	}
	return &Synthetic{
		cfg:      cfg,
		rnd:      rnd,
		now:      time.Now,
		handlers: make([]TickHandler, 0),
		price:    (cfg.MinPrice + cfg.MaxPrice) / 2,
	}, nil
}

// AddHandler registers h. Handlers must be added before Run.
func (s *Synthetic) AddHandler(h TickHandler) {
	s.handlers = append(s.handlers, h)
}

// Price returns the current walk position.
func (s *Synthetic) Price() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price
}

// Next advances the walk by one step and notifies every handler.
func (s *Synthetic) Next() models.Tick {
	s.mu.Lock()
	previous := s.price
	s.price = series.Step(s.price, s.cfg.MinPrice, s.cfg.MaxPrice, s.rnd)
	tick := models.Tick{
		Symbol:   s.cfg.Symbol,
		Price:    s.price,
		Previous: previous,
		Time:     s.now(),
	}
	s.mu.Unlock()

	for _, h := range s.handlers {
		h(tick)
	}
	return tick
}

// Run emits ticks until ctx is cancelled.
func (s *Synthetic) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.Printf("[INFO] synthetic feed for %s started, every %v in [%g, %g]",
		s.cfg.Symbol, s.cfg.Interval, s.cfg.MinPrice, s.cfg.MaxPrice)
	tickCount := 0

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] synthetic feed stopped after %d ticks", tickCount)
			return ctx.Err()
		case <-ticker.C:
			tick := s.Next()
			tickCount++
			if tickCount%100 == 0 {
				log.Printf("[INFO] emitted %d ticks, latest: %s @ %s", tickCount, tick.Symbol, series.FormatPrice(tick.Price))
			}
		}
	}
}
