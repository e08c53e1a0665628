package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"neonx-web/errs"
	"neonx-web/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store persists closed candles, price alerts and bot users. It speaks SQLite or
// Postgres; queries are written with ? placeholders and rebound per driver.
type Store struct {
	db *sqlx.DB
}

func NewStore(driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q: %w", driver, errs.ErrInvalidArgument)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps ":memory:" databases shared and avoids
		// SQLITE_BUSY between writers.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Printf("[INFO] %s store opened", driver)
	return s, nil
}

func (s *Store) createTables() error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			id ` + idColumn + `,
			symbol TEXT NOT NULL,
			period INTEGER NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			ticks INTEGER NOT NULL,
			open_time TIMESTAMP NOT NULL,
			close_time TIMESTAMP NOT NULL,
			UNIQUE(symbol, period, open_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candles_symbol_period_time ON candles(symbol, period, open_time)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			type TEXT NOT NULL,
			threshold REAL NOT NULL,
			triggered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			last_triggered TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			first_seen TIMESTAMP NOT NULL,
			last_active TIMESTAMP NOT NULL,
			message_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_last_active ON users(last_active)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SaveCandle inserts c, replacing any candle with the same window.
func (s *Store) SaveCandle(ctx context.Context, c models.CandleStick) error {
	query := `
	INSERT INTO candles (symbol, period, open, high, low, close, ticks, open_time, close_time)
	VALUES (:symbol, :period, :open, :high, :low, :close, :ticks, :open_time, :close_time)
	ON CONFLICT (symbol, period, open_time) DO UPDATE SET
		high = excluded.high, low = excluded.low, close = excluded.close,
		ticks = excluded.ticks, close_time = excluded.close_time
	`
	c.OpenTime = c.OpenTime.UTC()
	c.CloseTime = c.CloseTime.UTC()
	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("save candle: %w", err)
	}
	return nil
}

// GetCandles returns candles for symbol and period that opened at or after
// since, oldest first.
func (s *Store) GetCandles(ctx context.Context, symbol string, period int, since time.Time) ([]models.CandleStick, error) {
	query := s.db.Rebind(`
	SELECT symbol, period, open, high, low, close, ticks, open_time, close_time
	FROM candles
	WHERE symbol = ? AND period = ? AND open_time >= ?
	ORDER BY open_time ASC
	`)

	candles := []models.CandleStick{}
	if err := s.db.SelectContext(ctx, &candles, query, symbol, period, since.UTC()); err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	return candles, nil
}

// GetCandleCount returns the number of stored candles for symbol.
func (s *Store) GetCandleCount(ctx context.Context, symbol string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT COUNT(*) FROM candles WHERE symbol = ?`), symbol)
	return count, err
}

func (s *Store) InsertAlert(ctx context.Context, a models.Alert) error {
	query := `
	INSERT INTO alerts (id, user_id, chat_id, type, threshold, triggered, created_at, last_triggered)
	VALUES (:id, :user_id, :chat_id, :type, :threshold, :triggered, :created_at, :last_triggered)
	`
	a.CreatedAt = a.CreatedAt.UTC()
	if _, err := s.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// DeleteAlert removes the alert with id, or returns errs.ErrNotFound.
func (s *Store) DeleteAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM alerts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

// ListAlerts returns the alerts of userID in creation order.
func (s *Store) ListAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	alerts := []models.Alert{}
	query := s.db.Rebind(`SELECT * FROM alerts WHERE user_id = ? ORDER BY created_at ASC, id ASC`)
	if err := s.db.SelectContext(ctx, &alerts, query, userID); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// ListAllAlerts returns every alert grouped by user in creation order.
func (s *Store) ListAllAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts := []models.Alert{}
	query := `SELECT * FROM alerts ORDER BY user_id ASC, created_at ASC, id ASC`
	if err := s.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("list all alerts: %w", err)
	}
	return alerts, nil
}

// UpdateAlertTrigger stores the trigger state of an alert.
func (s *Store) UpdateAlertTrigger(ctx context.Context, id string, triggered bool, lastTriggered *time.Time) error {
	var last sql.NullTime
	if lastTriggered != nil {
		last = sql.NullTime{Time: lastTriggered.UTC(), Valid: true}
	}
	query := s.db.Rebind(`UPDATE alerts SET triggered = ?, last_triggered = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, triggered, last, id)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("alert %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

// RecordUserActivity counts one message from u at time at. A new user is
// inserted; a known one has its name fields refreshed when u carries them.
func (s *Store) RecordUserActivity(ctx context.Context, u models.User, at time.Time) error {
	query := s.db.Rebind(`
	INSERT INTO users (id, username, first_name, last_name, first_seen, last_active, message_count)
	VALUES (?, ?, ?, ?, ?, ?, 1)
	ON CONFLICT (id) DO UPDATE SET
		last_active = excluded.last_active,
		message_count = users.message_count + 1,
		username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
		first_name = CASE WHEN excluded.first_name <> '' THEN excluded.first_name ELSE users.first_name END,
		last_name = CASE WHEN excluded.last_name <> '' THEN excluded.last_name ELSE users.last_name END
	`)
	at = at.UTC()
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.Username, u.FirstName, u.LastName, at, at); err != nil {
		return fmt.Errorf("record user activity: %w", err)
	}
	return nil
}

// GetUser returns the stored user with id, or errs.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT * FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CommunityStats totals users and messages. Users whose last message is at
// or after activeSince count as active.
func (s *Store) CommunityStats(ctx context.Context, activeSince time.Time) (models.CommunityStats, error) {
	query := s.db.Rebind(`
	SELECT
		COUNT(*) AS total_users,
		COALESCE(SUM(CASE WHEN last_active >= ? THEN 1 ELSE 0 END), 0) AS active_users,
		COALESCE(SUM(message_count), 0) AS total_messages
	FROM users
	`)

	var stats models.CommunityStats
	if err := s.db.GetContext(ctx, &stats, query, activeSince.UTC()); err != nil {
		return models.CommunityStats{}, fmt.Errorf("community stats: %w", err)
	}

	// MAX() drops the column type in SQLite, so read the newest row instead.
	var last time.Time
	err := s.db.GetContext(ctx, &last, `SELECT last_active FROM users ORDER BY last_active DESC LIMIT 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.CommunityStats{}, fmt.Errorf("community stats: %w", err)
	}
	stats.LastUpdated = last
	return stats, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	log.Println("[INFO] closing store")
	return s.db.Close()
}
