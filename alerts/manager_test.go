package alerts

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"neonx-web/database"
	"neonx-web/errs"
	"neonx-web/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := database.NewStore(database.DriverSQLite, filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	m := NewManager(store)
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return m
}

func ptr(v float64) *float64 { return &v }

func TestManager_AddAndDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	a, err := m.Add(ctx, "100", "", models.AlertPriceAbove, 0.00013)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ChatID != "100" {
		t.Errorf("expected chat id to default to user id, got %q", a.ChatID)
	}
	if a.ID == "" {
		t.Error("expected a generated id")
	}

	if _, err := m.Add(ctx, "100", "", models.AlertPriceAbove, 0.00013); !errors.Is(err, errs.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if _, err := m.Add(ctx, "200", "", models.AlertPriceAbove, 0.00013); err != nil {
		t.Errorf("same alert for another user should be allowed: %v", err)
	}
}

func TestManager_AddInvalid(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	testCases := []struct {
		name      string
		userID    string
		typ       models.AlertType
		threshold float64
	}{
		{"Unknown type", "100", models.AlertType("price_sideways"), 1},
		{"Zero threshold", "100", models.AlertPriceBelow, 0},
		{"Negative threshold", "100", models.AlertPercentChange, -5},
		{"Missing user", "", models.AlertPriceAbove, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.Add(ctx, tc.userID, "", tc.typ, tc.threshold); !errors.Is(err, errs.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestManager_CheckIsEdgeTriggered(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if _, err := m.Add(ctx, "100", "-42", models.AlertPriceAbove, 0.00013); err != nil {
		t.Fatalf("Add: %v", err)
	}

	steps := []struct {
		price float64
		fires int
	}{
		{0.00012, 0},
		{0.00014, 1},
		{0.00015, 0},
		{0.00012, 0},
		{0.00013, 1},
	}
	for i, step := range steps {
		fired, err := m.Check(ctx, step.price, nil)
		if err != nil {
			t.Fatalf("step %d: Check: %v", i, err)
		}
		if len(fired) != step.fires {
			t.Fatalf("step %d at %g: expected %d alerts, got %d", i, step.price, step.fires, len(fired))
		}
		if step.fires == 1 {
			if fired[0].Alert.ChatID != "-42" || fired[0].Alert.LastTriggered == nil {
				t.Errorf("step %d: unexpected triggered alert %+v", i, fired[0].Alert)
			}
		}
	}
}

func TestManager_CheckPercentChange(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	if _, err := m.Add(ctx, "100", "", models.AlertPercentChange, 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := m.Add(ctx, "100", "", models.AlertPriceBelow, 0.00009); err != nil {
		t.Fatalf("Add: %v", err)
	}

	fired, err := m.Check(ctx, 0.000106, nil)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("percent change needs a previous price, got %d alerts", len(fired))
	}

	fired, err = m.Check(ctx, 0.000094, ptr(0.0001))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(fired) != 1 || fired[0].Alert.Type != models.AlertPercentChange {
		t.Fatalf("expected only the percent alert, got %+v", fired)
	}

	msg := FormatMessage(fired[0])
	if !strings.Contains(msg, "decreased by 6.00%") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestManager_ListAndRemove(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	for _, th := range []float64{0.0002, 0.0003, 0.0004} {
		if _, err := m.Add(ctx, "100", "", models.AlertPriceAbove, th); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	removed, err := m.Remove(ctx, "100", 2)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if removed.Threshold != 0.0003 {
		t.Errorf("expected to remove the second alert, removed %g", removed.Threshold)
	}

	left, err := m.List(ctx, "100")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 2 || left[0].Threshold != 0.0002 || left[1].Threshold != 0.0004 {
		t.Errorf("unexpected remaining alerts %+v", left)
	}

	for _, pos := range []int{0, 3, -1} {
		if _, err := m.Remove(ctx, "100", pos); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("position %d: expected ErrNotFound, got %v", pos, err)
		}
	}

	list := FormatList(left)
	if !strings.Contains(list, "1. Price above $0.00020000") || !strings.Contains(list, "2. Price above $0.00040000") {
		t.Errorf("unexpected list %q", list)
	}
}

func TestFormatMessage(t *testing.T) {
	testCases := []struct {
		name  string
		alert models.TriggeredAlert
		want  string
	}{
		{"Above", models.TriggeredAlert{
			Alert:        models.Alert{Type: models.AlertPriceAbove, Threshold: 0.00013},
			CurrentPrice: 0.00014,
		}, "risen above your alert threshold of $0.00013000"},
		{"Below", models.TriggeredAlert{
			Alert:        models.Alert{Type: models.AlertPriceBelow, Threshold: 0.0001},
			CurrentPrice: 0.00009,
		}, "Current price: $0.00009000"},
		{"Percent without previous", models.TriggeredAlert{
			Alert:        models.Alert{Type: models.AlertPercentChange, Threshold: 5},
			CurrentPrice: 0.0001,
		}, "Your price alert has been triggered!"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if msg := FormatMessage(tc.alert); !strings.Contains(msg, tc.want) {
				t.Errorf("expected %q in %q", tc.want, msg)
			}
		})
	}
}
