// Package series produces the synthetic price path behind the site's chart
// widget, together with its labels, summary statistics and display text.
package series

import (
	"fmt"
	"math/rand"
	"sync"

	"neonx-web/errs"
	"neonx-web/models"
)

const (
	// Epsilon is the width of the uniform per-step perturbation.
	Epsilon = 0.00001
	// ClampOffset bounds how far inside the range a clamped value lands.
	ClampOffset = 0.000005
)

// Source is the randomness the generator draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Generate returns count prices walking from the midpoint of [min, max].
func Generate(count int, min, max float64, rnd Source) (models.PriceSeries, error) {
	if err := validateBounds(count, min, max); err != nil {
		return nil, err
	}
	if rnd == nil {
		return nil, fmt.Errorf("random source is nil: %w", errs.ErrInvalidArgument)
	}

	data := make(models.PriceSeries, 0, count)
	price := (min + max) / 2
	for i := 0; i < count; i++ {
		price = Step(price, min, max, rnd)
		data = append(data, price)
	}
	return data, nil
}

// Step perturbs price by one walk step and soft-clamps it back into range.
// A value that leaves the range is replaced by a random value just inside
// the violated boundary rather than pinned to it.
func Step(price, min, max float64, rnd Source) float64 {
	price += (rnd.Float64() - 0.5) * Epsilon

	if price < min {
		price = min + rnd.Float64()*ClampOffset
	}
	if price > max {
		price = max - rnd.Float64()*ClampOffset
	}
	return price
}

func validateBounds(count int, min, max float64) error {
	if count <= 0 {
		return fmt.Errorf("point count %d must be positive: %w", count, errs.ErrInvalidArgument)
	}
	if min <= 0 {
		return fmt.Errorf("min price %g must be positive: %w", min, errs.ErrInvalidArgument)
	}
	if min >= max {
		return fmt.Errorf("min price %g must be below max price %g: %w", min, max, errs.ErrInvalidArgument)
	}
	return nil
}

// LockedSource is a Source safe for use from several goroutines.
type LockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewLockedSource(seed int64) *LockedSource {
	return &LockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}
