// Package alerts manages per-user price alerts for the Telegram bot.
package alerts

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
	"neonx-web/series"

	"github.com/google/uuid"
)

// Repository persists alerts.
type Repository interface {
	InsertAlert(ctx context.Context, a models.Alert) error
	DeleteAlert(ctx context.Context, id string) error
	ListAlerts(ctx context.Context, userID string) ([]models.Alert, error)
	ListAllAlerts(ctx context.Context) ([]models.Alert, error)
	UpdateAlertTrigger(ctx context.Context, id string, triggered bool, lastTriggered *time.Time) error
}

type Manager struct {
	repo Repository
	now  func() time.Time
}

func NewManager(repo Repository) *Manager {
	return &Manager{repo: repo, now: time.Now}
}

// Add registers a new alert. chatID defaults to userID. An alert with the
// same type and threshold for the user is rejected with errs.ErrDuplicate.
func (m *Manager) Add(ctx context.Context, userID, chatID string, typ models.AlertType, threshold float64) (models.Alert, error) {
	if userID == "" {
		return models.Alert{}, fmt.Errorf("user id is empty: %w", errs.ErrInvalidArgument)
	}
	if !typ.Valid() {
		return models.Alert{}, fmt.Errorf("unknown alert type %q: %w", typ, errs.ErrInvalidArgument)
	}
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return models.Alert{}, fmt.Errorf("threshold %g must be positive: %w", threshold, errs.ErrInvalidArgument)
	}
	if chatID == "" {
		chatID = userID
	}

	existing, err := m.repo.ListAlerts(ctx, userID)
	if err != nil {
		return models.Alert{}, err
	}
	for _, a := range existing {
		if a.Type == typ && a.Threshold == threshold {
			return models.Alert{}, fmt.Errorf("%s %g already set: %w", typ, threshold, errs.ErrDuplicate)
		}
	}

	alert := models.Alert{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChatID:    chatID,
		Type:      typ,
		Threshold: threshold,
		CreatedAt: m.now(),
	}
	if err := m.repo.InsertAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}
	log.Printf("[INFO] alert %s added for user %s: %s %g", alert.ID, userID, typ, threshold)
	return alert, nil
}

// Remove deletes the user's alert at the 1-based position shown by List.
func (m *Manager) Remove(ctx context.Context, userID string, position int) (models.Alert, error) {
	alerts, err := m.repo.ListAlerts(ctx, userID)
	if err != nil {
		return models.Alert{}, err
	}
	if position < 1 || position > len(alerts) {
		return models.Alert{}, fmt.Errorf("alert #%d of user %s: %w", position, userID, errs.ErrNotFound)
	}
	alert := alerts[position-1]
	if err := m.repo.DeleteAlert(ctx, alert.ID); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

func (m *Manager) List(ctx context.Context, userID string) ([]models.Alert, error) {
	return m.repo.ListAlerts(ctx, userID)
}

// Check evaluates every alert against the current price. An alert fires
// once when its condition becomes true and re-arms when it becomes false.
// previous may be nil, in which case percent-change alerts are not evaluated.
func (m *Manager) Check(ctx context.Context, current float64, previous *float64) ([]models.TriggeredAlert, error) {
	all, err := m.repo.ListAllAlerts(ctx)
	if err != nil {
		return nil, err
	}

	var fired []models.TriggeredAlert
	for _, a := range all {
		hit := conditionMet(a, current, previous)

		switch {
		case hit && !a.Triggered:
			now := m.now()
			if err := m.repo.UpdateAlertTrigger(ctx, a.ID, true, &now); err != nil {
				return fired, err
			}
			a.Triggered = true
			a.LastTriggered = &now
			fired = append(fired, models.TriggeredAlert{Alert: a, CurrentPrice: current, PreviousPrice: previous})
		case !hit && a.Triggered:
			if err := m.repo.UpdateAlertTrigger(ctx, a.ID, false, a.LastTriggered); err != nil {
				return fired, err
			}
		}
	}
	return fired, nil
}

func conditionMet(a models.Alert, current float64, previous *float64) bool {
	switch a.Type {
	case models.AlertPriceAbove:
		return current >= a.Threshold
	case models.AlertPriceBelow:
		return current <= a.Threshold
	case models.AlertPercentChange:
		if previous == nil || *previous == 0 {
			return false
		}
		return math.Abs(series.PercentChange(*previous, current)) >= a.Threshold
	}
	return false
}

const alertHeader = "🚨 <b>NeonX Price Alert</b> 🚨\n\n"

// FormatMessage renders the notification for a fired alert.
func FormatMessage(t models.TriggeredAlert) string {
	a := t.Alert
	switch a.Type {
	case models.AlertPriceAbove:
		return alertHeader +
			fmt.Sprintf("Price has risen above your alert threshold of %s!\n", series.FormatPrice(a.Threshold)) +
			fmt.Sprintf("Current price: %s", series.FormatPrice(t.CurrentPrice))
	case models.AlertPriceBelow:
		return alertHeader +
			fmt.Sprintf("Price has fallen below your alert threshold of %s!\n", series.FormatPrice(a.Threshold)) +
			fmt.Sprintf("Current price: %s", series.FormatPrice(t.CurrentPrice))
	case models.AlertPercentChange:
		if t.PreviousPrice == nil {
			break
		}
		pct := series.PercentChange(*t.PreviousPrice, t.CurrentPrice)
		direction := "decreased"
		if pct > 0 {
			direction = "increased"
		}
		return alertHeader +
			fmt.Sprintf("Price has %s by %.2f%%!\n", direction, math.Abs(pct)) +
			fmt.Sprintf("Previous price: %s\n", series.FormatPrice(*t.PreviousPrice)) +
			fmt.Sprintf("Current price: %s", series.FormatPrice(t.CurrentPrice))
	}
	return alertHeader + "Your price alert has been triggered!"
}

// FormatList renders a user's alerts with the positions Remove expects.
func FormatList(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return "You have no price alerts. Use /alert_above, /alert_below or /alert_change to add one."
	}
	var b strings.Builder
	b.WriteString("🔔 <b>Your price alerts</b>\n\n")
	for i, a := range alerts {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, describe(a)))
	}
	b.WriteString("\nRemove one with /remove &lt;number&gt;")
	return b.String()
}

func describe(a models.Alert) string {
	switch a.Type {
	case models.AlertPriceAbove:
		return "Price above " + series.FormatPrice(a.Threshold)
	case models.AlertPriceBelow:
		return "Price below " + series.FormatPrice(a.Threshold)
	case models.AlertPercentChange:
		return fmt.Sprintf("Change of %g%% or more", a.Threshold)
	}
	return string(a.Type)
}
