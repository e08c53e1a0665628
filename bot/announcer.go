package bot

import (
	"context"
	"log"
	"sync"

	"neonx-web/models"
)

const launchMessage = "🚀 <b>NeonX has launched!</b>\n\nThe countdown is over. Use /price to follow the live price."

// LaunchAnnouncer is a countdown sink that posts once to a channel when the
// countdown reaches zero. A countdown that is already over on the first tick
// is not announced, so restarts after launch stay quiet.
type LaunchAnnouncer struct {
	ctx    context.Context
	chatID string
	sender RetrySender

	mu        sync.Mutex
	started   bool
	announced bool
}

func NewLaunchAnnouncer(ctx context.Context, chatID string, sender RetrySender) *LaunchAnnouncer {
	return &LaunchAnnouncer{ctx: ctx, chatID: chatID, sender: sender}
}

func (a *LaunchAnnouncer) SetCountdown(parts models.CountdownParts) {
	a.mu.Lock()
	first := !a.started
	a.started = true
	if !parts.Done || a.announced {
		a.mu.Unlock()
		return
	}
	a.announced = true
	a.mu.Unlock()

	if first {
		log.Println("[INFO] countdown already over at startup, launch announcement skipped")
		return
	}
	if a.chatID == "" {
		return
	}
	go func() {
		if err := a.sender.SendWithRetry(a.ctx, a.chatID, launchMessage, 3); err != nil {
			log.Printf("[ERROR] launch announcement: %v", err)
			return
		}
		log.Printf("[INFO] launch announced to %s", a.chatID)
	}()
}
