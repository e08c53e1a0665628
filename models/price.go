package models

import "time"

// PriceSeries is an ordered, oldest-first sequence of synthetic prices.
type PriceSeries []float64

// Timeframe is one of the fixed chart presets.
type Timeframe struct {
	Name       string  `json:"name" yaml:"name"`
	PointCount int     `json:"pointCount" yaml:"point_count"`
	MinPrice   float64 `json:"minPrice" yaml:"min_price"`
	MaxPrice   float64 `json:"maxPrice" yaml:"max_price"`
}

// PriceSummary is derived from a PriceSeries on every regenerate.
type PriceSummary struct {
	Current       float64 `json:"current"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// ChartData is what the chart widget consumes.
type ChartData struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// DisplayFields holds the formatted text shown next to the chart.
type DisplayFields struct {
	CurrentPrice    string `json:"currentPrice"`
	High            string `json:"high"`
	Low             string `json:"low"`
	ChangePercent   string `json:"changePercent"`
	ChangeDirection string `json:"changeDirection"`
}

// Tick is a single live price update.
type Tick struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Previous float64   `json:"previous"`
	Time     time.Time `json:"time"`
}

// PriceSnapshot is the latest known live price, shared between the site and the bot.
type PriceSnapshot struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"changePercent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
