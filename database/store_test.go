package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"neonx-web/errs"
	"neonx-web/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(DriverSQLite, filepath.Join(t.TempDir(), "neonx_test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Candles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		open := base.Add(time.Duration(i) * time.Minute)
		c := models.CandleStick{
			Symbol: "NEONX", Period: 60,
			Open: 0.00012, High: 0.00013, Low: 0.00011, Close: 0.000125, Ticks: 12,
			OpenTime: open, CloseTime: open.Add(time.Minute),
		}
		if err := s.SaveCandle(ctx, c); err != nil {
			t.Fatalf("Failed to save candle %d: %v", i, err)
		}
	}

	// Same window replaces the stored candle.
	if err := s.SaveCandle(ctx, models.CandleStick{
		Symbol: "NEONX", Period: 60,
		Open: 0.00012, High: 0.00014, Low: 0.00011, Close: 0.00014, Ticks: 20,
		OpenTime: base, CloseTime: base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("Failed to upsert candle: %v", err)
	}

	candles, err := s.GetCandles(ctx, "NEONX", 60, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to get candles: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(candles))
	}
	if candles[0].High != 0.00014 || candles[0].Ticks != 20 {
		t.Errorf("Expected upserted candle first, got %+v", candles[0])
	}
	if !candles[0].OpenTime.Equal(base) {
		t.Errorf("Expected open time %v, got %v", base, candles[0].OpenTime)
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].OpenTime.After(candles[i-1].OpenTime) {
			t.Errorf("Candles not in chronological order at %d", i)
		}
	}

	recent, err := s.GetCandles(ctx, "NEONX", 60, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Failed to get recent candles: %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("Expected 1 recent candle, got %d", len(recent))
	}

	other, err := s.GetCandles(ctx, "NEONX", 10, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to get candles: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no 10s candles, got %d", len(other))
	}

	count, err := s.GetCandleCount(ctx, "NEONX")
	if err != nil {
		t.Fatalf("Failed to count candles: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 candles, got %d", count)
	}
}

func TestStore_Alerts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	alerts := []models.Alert{
		{ID: "a1", UserID: "100", ChatID: "100", Type: models.AlertPriceAbove, Threshold: 0.0002, CreatedAt: created},
		{ID: "a2", UserID: "100", ChatID: "100", Type: models.AlertPriceBelow, Threshold: 0.0001, CreatedAt: created.Add(time.Second)},
		{ID: "b1", UserID: "200", ChatID: "-5", Type: models.AlertPercentChange, Threshold: 5, CreatedAt: created},
	}
	for _, a := range alerts {
		if err := s.InsertAlert(ctx, a); err != nil {
			t.Fatalf("Failed to insert alert %s: %v", a.ID, err)
		}
	}

	got, err := s.ListAlerts(ctx, "100")
	if err != nil {
		t.Fatalf("Failed to list alerts: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a1" || got[1].ID != "a2" {
		t.Fatalf("Unexpected alerts for user 100: %+v", got)
	}
	if got[0].Type != models.AlertPriceAbove || got[0].Triggered || got[0].LastTriggered != nil {
		t.Errorf("Unexpected alert state: %+v", got[0])
	}

	fired := created.Add(time.Hour)
	if err := s.UpdateAlertTrigger(ctx, "b1", true, &fired); err != nil {
		t.Fatalf("Failed to update alert: %v", err)
	}
	all, err := s.ListAllAlerts(ctx)
	if err != nil {
		t.Fatalf("Failed to list all alerts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 alerts, got %d", len(all))
	}
	b1 := all[2]
	if b1.ID != "b1" || !b1.Triggered || b1.LastTriggered == nil || !b1.LastTriggered.Equal(fired) {
		t.Errorf("Unexpected trigger state: %+v", b1)
	}

	if err := s.DeleteAlert(ctx, "a1"); err != nil {
		t.Fatalf("Failed to delete alert: %v", err)
	}
	if err := s.DeleteAlert(ctx, "a1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
	if err := s.UpdateAlertTrigger(ctx, "missing", false, nil); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected ErrNotFound updating missing alert, got %v", err)
	}
}

func TestNewStore_UnsupportedDriver(t *testing.T) {
	if _, err := NewStore("mysql", "dsn"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}
