package bot

import (
	"context"
	"errors"
	"log"
	"sync"

	"neonx-web/alerts"
	"neonx-web/errs"
	"neonx-web/models"
)

// AlertChecker is the part of alerts.Manager the watcher uses.
type AlertChecker interface {
	Check(ctx context.Context, current float64, previous *float64) ([]models.TriggeredAlert, error)
}

// RetrySender delivers with retries.
type RetrySender interface {
	SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error
}

// Watcher compares the latest price with the one seen on the previous run
// and delivers every alert that fires.
type Watcher struct {
	symbol  string
	prices  PriceSource
	checker AlertChecker
	sender  RetrySender
	retries int

	mu       sync.Mutex
	previous *float64
}

func NewWatcher(symbol string, prices PriceSource, checker AlertChecker, sender RetrySender) *Watcher {
	return &Watcher{symbol: symbol, prices: prices, checker: checker, sender: sender, retries: 3}
}

// Run performs one check. It returns the number of alerts delivered.
func (w *Watcher) Run(ctx context.Context) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.prices.GetLatest(ctx, w.symbol)
	if errors.Is(err, errs.ErrNotFound) {
		return 0
	}
	if err != nil {
		log.Printf("[ERROR] alert check: read latest price: %v", err)
		return 0
	}

	fired, err := w.checker.Check(ctx, snap.Price, w.previous)
	current := snap.Price
	w.previous = &current
	if err != nil {
		log.Printf("[ERROR] alert check: %v", err)
	}

	delivered := 0
	for _, t := range fired {
		if err := w.sender.SendWithRetry(ctx, t.Alert.ChatID, alerts.FormatMessage(t), w.retries); err != nil {
			log.Printf("[ERROR] deliver alert %s: %v", t.Alert.ID, err)
			continue
		}
		delivered++
	}
	if len(fired) > 0 {
		log.Printf("[INFO] delivered %d/%d triggered alerts", delivered, len(fired))
	}
	return delivered
}
