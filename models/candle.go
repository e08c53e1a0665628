package models

import "time"

type CandleStick struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	Period    int       `json:"period" db:"period"`
	Open      float64   `json:"open" db:"open"`
	High      float64   `json:"high" db:"high"`
	Low       float64   `json:"low" db:"low"`
	Close     float64   `json:"close" db:"close"`
	Ticks     int       `json:"ticks" db:"ticks"`
	OpenTime  time.Time `json:"open_time" db:"open_time"`
	CloseTime time.Time `json:"close_time" db:"close_time"`
}
