// Package community tracks who talks to the bot and reports totals.
package community

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
)

// ActiveWindow is how recently a user must have written to count as active.
const ActiveWindow = 24 * time.Hour

// Repository persists user activity.
type Repository interface {
	RecordUserActivity(ctx context.Context, u models.User, at time.Time) error
	GetUser(ctx context.Context, id string) (models.User, error)
	CommunityStats(ctx context.Context, activeSince time.Time) (models.CommunityStats, error)
}

type Manager struct {
	repo Repository
	now  func() time.Time
}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo, now: time.Now}
}

// RegisterActivity counts one message from u.
func (m *Manager) RegisterActivity(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return fmt.Errorf("user id is empty: %w", errs.ErrInvalidArgument)
	}
	return m.repo.RecordUserActivity(ctx, u, m.now())
}

func (m *Manager) User(ctx context.Context, id string) (models.User, error) {
	return m.repo.GetUser(ctx, id)
}

// Stats returns the community totals as of now.
func (m *Manager) Stats(ctx context.Context) (models.CommunityStats, error) {
	return m.repo.CommunityStats(ctx, m.now().Add(-ActiveWindow))
}

// FormatStats renders stats as an HTML Telegram message.
func FormatStats(stats models.CommunityStats) string {
	var b strings.Builder
	b.WriteString("📊 <b>NeonX Community Statistics</b> 📊\n\n")
	b.WriteString(fmt.Sprintf("Total users: %d\n", stats.TotalUsers))
	b.WriteString(fmt.Sprintf("Active users (24h): %d\n", stats.ActiveUsers))
	b.WriteString(fmt.Sprintf("Total messages: %d", stats.TotalMessages))
	if !stats.LastUpdated.IsZero() {
		b.WriteString("\n\nLast updated: " + stats.LastUpdated.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	return b.String()
}
