// Package countdown drives the launch countdown widget.
package countdown

import (
	"fmt"
	"log"
	"sync"
	"time"

	"neonx-web/models"

	"github.com/robfig/cron/v3"
)

const (
	msPerSecond = int64(time.Second / time.Millisecond)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Compute splits the time left until target into display fields.
// Once target is reached every field is "00".
func Compute(target, now time.Time) models.CountdownParts {
	diff := target.Sub(now).Milliseconds()
	if diff <= 0 {
		return models.CountdownParts{Days: "00", Hours: "00", Minutes: "00", Seconds: "00", Done: true}
	}

	return models.CountdownParts{
		Days:    pad(diff / msPerDay),
		Hours:   pad(diff % msPerDay / msPerHour),
		Minutes: pad(diff % msPerHour / msPerMinute),
		Seconds: pad(diff % msPerMinute / msPerSecond),
	}
}

func pad(n int64) string {
	if n < 10 {
		return fmt.Sprintf("0%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// Sink receives a fresh set of countdown fields every tick.
type Sink interface {
	SetCountdown(parts models.CountdownParts)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(models.CountdownParts)

func (f SinkFunc) SetCountdown(p models.CountdownParts) { f(p) }

// Runner recomputes the countdown once per second.
type Runner struct {
	cron   *cron.Cron
	target time.Time
	clock  Clock
	sink   Sink

	mu   sync.RWMutex
	last models.CountdownParts
}

func NewRunner(target time.Time, clock Clock, sink Sink) *Runner {
	if clock == nil {
		clock = SystemClock
	}
	return &Runner{
		cron:   cron.New(cron.WithSeconds()),
		target: target,
		clock:  clock,
		sink:   sink,
	}
}

// Target returns the countdown's fixed target time.
func (r *Runner) Target() time.Time { return r.target }

// Start publishes the current value immediately, then once per second.
func (r *Runner) Start() error {
	r.Tick()
	if _, err := r.cron.AddFunc("@every 1s", func() { r.Tick() }); err != nil {
		return fmt.Errorf("register countdown tick: %w", err)
	}
	r.cron.Start()
	log.Printf("[INFO] countdown started, target %s", r.target.Format(time.RFC3339))
	return nil
}

// Stop halts the ticks and waits for a running one to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	log.Println("[INFO] countdown stopped")
}

// Tick computes and publishes one update.
func (r *Runner) Tick() models.CountdownParts {
	parts := Compute(r.target, r.clock.Now())

	r.mu.Lock()
	r.last = parts
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.SetCountdown(parts)
	}
	return parts
}

// Current returns the most recently published fields.
func (r *Runner) Current() models.CountdownParts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}
