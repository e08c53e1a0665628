package models

import "time"

// User is a Telegram user who has talked to the bot.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	FirstSeen    time.Time `json:"firstSeen" db:"first_seen"`
	LastActive   time.Time `json:"lastActive" db:"last_active"`
	MessageCount int       `json:"messageCount" db:"message_count"`
}

// CommunityStats summarises bot activity. ActiveUsers counts users seen in
// the last 24 hours.
type CommunityStats struct {
	TotalUsers    int       `json:"totalUsers" db:"total_users"`
	ActiveUsers   int       `json:"activeUsers" db:"active_users"`
	TotalMessages int       `json:"totalMessages" db:"total_messages"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Links are the token's official pages.
type Links struct {
	Website       string `json:"website" yaml:"website"`
	PumpFun       string `json:"pumpFun" yaml:"pump_fun"`
	MEXC          string `json:"mexc" yaml:"mexc"`
	TelegramGroup string `json:"telegramGroup" yaml:"telegram_group"`
	Twitter       string `json:"twitter" yaml:"twitter"`
}
