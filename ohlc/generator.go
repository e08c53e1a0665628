package ohlc

import (
	"math"
	"sort"
	"sync"
	"time"

	"neonx-web/models"
)

// Generator folds live ticks into per-period candles. Periods are in seconds.
type Generator struct {
	periods []int
	open    map[string]map[int]*PeriodData
	mutex   sync.Mutex
}

type PeriodData struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Ticks     int
	OpenTime  time.Time
	CloseTime time.Time
}

func NewGenerator(periods []int) *Generator {
	ps := make([]int, 0, len(periods))
	for _, p := range periods {
		if p > 0 {
			ps = append(ps, p)
		}
	}
	sort.Ints(ps)
	return &Generator{
		periods: ps,
		open:    make(map[string]map[int]*PeriodData),
	}
}

// Periods returns the configured periods in ascending order.
func (g *Generator) Periods() []int {
	return append([]int(nil), g.periods...)
}

// ProcessTick adds tick to the open candle of every period and returns the
// candles that the tick closed.
func (g *Generator) ProcessTick(tick models.Tick) []models.CandleStick {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.open[tick.Symbol] == nil {
		g.open[tick.Symbol] = make(map[int]*PeriodData)
	}
	bySymbol := g.open[tick.Symbol]

	var closed []models.CandleStick
	for _, period := range g.periods {
		start := getPeriodStart(tick.Time, period)
		current := bySymbol[period]

		if current == nil || !current.OpenTime.Equal(start) {
			if current != nil {
				closed = append(closed, createCandle(tick.Symbol, period, current))
			}
			bySymbol[period] = &PeriodData{
				Open:      tick.Price,
				High:      tick.Price,
				Low:       tick.Price,
				Close:     tick.Price,
				Ticks:     1,
				OpenTime:  start,
				CloseTime: start.Add(periodDuration(period)),
			}
			continue
		}

		current.High = math.Max(current.High, tick.Price)
		current.Low = math.Min(current.Low, tick.Price)
		current.Close = tick.Price
		current.Ticks++
	}
	return closed
}

// Flush closes every open candle whose period ended at or before now.
func (g *Generator) Flush(now time.Time) []models.CandleStick {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	var closed []models.CandleStick
	for symbol, bySymbol := range g.open {
		for period, data := range bySymbol {
			if !data.CloseTime.After(now) {
				closed = append(closed, createCandle(symbol, period, data))
				delete(bySymbol, period)
			}
		}
	}
	sort.Slice(closed, func(i, j int) bool {
		if closed[i].Period != closed[j].Period {
			return closed[i].Period < closed[j].Period
		}
		return closed[i].Symbol < closed[j].Symbol
	})
	return closed
}

// Current returns a copy of the open candle for symbol and period.
func (g *Generator) Current(symbol string, period int) (models.CandleStick, bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	data, ok := g.open[symbol][period]
	if !ok {
		return models.CandleStick{}, false
	}
	return createCandle(symbol, period, data), true
}

func createCandle(symbol string, period int, data *PeriodData) models.CandleStick {
	return models.CandleStick{
		Symbol:    symbol,
		Period:    period,
		Open:      data.Open,
		High:      data.High,
		Low:       data.Low,
		Close:     data.Close,
		Ticks:     data.Ticks,
		OpenTime:  data.OpenTime,
		CloseTime: data.CloseTime,
	}
}

func periodDuration(period int) time.Duration {
	return time.Duration(period) * time.Second
}

func getPeriodStart(t time.Time, period int) time.Time {
	return t.Truncate(periodDuration(period))
}
