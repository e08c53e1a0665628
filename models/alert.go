package models

import "time"

type AlertType string

const (
	AlertPriceAbove    AlertType = "price_above"
	AlertPriceBelow    AlertType = "price_below"
	AlertPercentChange AlertType = "percent_change"
)

// Valid reports whether t is one of the known alert types.
func (t AlertType) Valid() bool {
	switch t {
	case AlertPriceAbove, AlertPriceBelow, AlertPercentChange:
		return true
	}
	return false
}

type Alert struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"userId" db:"user_id"`
	ChatID        string     `json:"chatId" db:"chat_id"`
	Type          AlertType  `json:"type" db:"type"`
	Threshold     float64    `json:"threshold" db:"threshold"`
	Triggered     bool       `json:"triggered" db:"triggered"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	LastTriggered *time.Time `json:"lastTriggered,omitempty" db:"last_triggered"`
}

// TriggeredAlert is produced by an alert check for each alert that just fired.
type TriggeredAlert struct {
	Alert         Alert
	CurrentPrice  float64
	PreviousPrice *float64
}
