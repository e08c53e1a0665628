package series

import (
	"fmt"
	"time"

	"neonx-web/models"
)

// Chart receives regenerated chart data.
type Chart interface {
	SetData(labels []string, data []float64)
}

// DisplaySink receives the formatted text fields next to the chart.
type DisplaySink interface {
	SetCurrentPrice(text string)
	SetHigh(text string)
	SetLow(text string)
	SetChangePercent(text, direction string)
}

// Controller regenerates the chart when a timeframe is selected. It owns
// its chart and display handles; nothing is reached through shared state.
type Controller struct {
	chart      Chart
	sink       DisplaySink
	rnd        Source
	timeframes Timeframes
	now        func() time.Time
}

type Option func(*Controller)

// WithClock overrides the clock used for label generation.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTimeframes replaces the built-in presets.
func WithTimeframes(tfs Timeframes) Option {
	return func(c *Controller) { c.timeframes = tfs }
}

func NewController(chart Chart, sink DisplaySink, rnd Source, opts ...Option) *Controller {
	c := &Controller{
		chart: chart,
		sink:  sink,
		rnd:   rnd,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeframes == nil {
		// Presets are static and valid.
		c.timeframes, _ = NewTimeframes(Presets)
	}
	return c
}

// SelectTimeframe regenerates labels and prices for the named timeframe,
// pushes them to the chart and the display sink, and returns the summary.
// Unknown names use the default timeframe.
func (c *Controller) SelectTimeframe(name string) (models.Timeframe, models.PriceSummary, error) {
	tf, _ := c.timeframes.Lookup(name)

	labels, err := Labels(tf.PointCount, c.now())
	if err != nil {
		return tf, models.PriceSummary{}, fmt.Errorf("labels for %s: %w", tf.Name, err)
	}
	data, err := Generate(tf.PointCount, tf.MinPrice, tf.MaxPrice, c.rnd)
	if err != nil {
		return tf, models.PriceSummary{}, fmt.Errorf("generate %s: %w", tf.Name, err)
	}
	sum, err := Summarize(data)
	if err != nil {
		return tf, models.PriceSummary{}, fmt.Errorf("summarize %s: %w", tf.Name, err)
	}

	c.chart.SetData(labels, data)
	Publish(c.sink, sum)
	return tf, sum, nil
}

// Publish writes every formatted summary field to sink.
func Publish(sink DisplaySink, sum models.PriceSummary) {
	d := Display(sum)
	sink.SetCurrentPrice(d.CurrentPrice)
	sink.SetHigh(d.High)
	sink.SetLow(d.Low)
	sink.SetChangePercent(d.ChangePercent, d.ChangeDirection)
}

// Panel is an in-memory Chart and DisplaySink; handlers render it as JSON.
type Panel struct {
	Chart   models.ChartData     `json:"chart"`
	Display models.DisplayFields `json:"display"`
}

func (p *Panel) SetData(labels []string, data []float64) {
	p.Chart = models.ChartData{Labels: labels, Data: data}
}

func (p *Panel) SetCurrentPrice(text string) { p.Display.CurrentPrice = text }
func (p *Panel) SetHigh(text string)         { p.Display.High = text }
func (p *Panel) SetLow(text string)          { p.Display.Low = text }

func (p *Panel) SetChangePercent(text, direction string) {
	p.Display.ChangePercent = text
	p.Display.ChangeDirection = direction
}
