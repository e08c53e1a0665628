package series

import (
	"fmt"
	"sort"

	"neonx-web/errs"
	"neonx-web/models"
)

const DefaultTimeframe = "24h"

// Presets are the chart's timeframe buttons.
var Presets = []models.Timeframe{
	{Name: "24h", PointCount: 24, MinPrice: 0.00011, MaxPrice: 0.00013},
	{Name: "7d", PointCount: 7 * 24, MinPrice: 0.00010, MaxPrice: 0.00014},
	{Name: "30d", PointCount: 30 * 24, MinPrice: 0.00009, MaxPrice: 0.00015},
	{Name: "all", PointCount: 90 * 24, MinPrice: 0.00005, MaxPrice: 0.00015},
}

// ValidateTimeframe checks that tf can be generated.
func ValidateTimeframe(tf models.Timeframe) error {
	if tf.Name == "" {
		return fmt.Errorf("timeframe name is empty: %w", errs.ErrInvalidArgument)
	}
	if err := validateBounds(tf.PointCount, tf.MinPrice, tf.MaxPrice); err != nil {
		return fmt.Errorf("timeframe %s: %w", tf.Name, err)
	}
	return nil
}

// Timeframes indexes a preset list by name.
type Timeframes map[string]models.Timeframe

// NewTimeframes validates presets and indexes them. It fails if the default
// timeframe is missing.
func NewTimeframes(presets []models.Timeframe) (Timeframes, error) {
	tfs := make(Timeframes, len(presets))
	for _, tf := range presets {
		if err := ValidateTimeframe(tf); err != nil {
			return nil, err
		}
		tfs[tf.Name] = tf
	}
	if _, ok := tfs[DefaultTimeframe]; !ok {
		return nil, fmt.Errorf("timeframe %s is required: %w", DefaultTimeframe, errs.ErrInvalidArgument)
	}
	return tfs, nil
}

// Lookup returns the named timeframe, falling back to the default one for
// unknown names. The bool reports whether name matched.
func (t Timeframes) Lookup(name string) (models.Timeframe, bool) {
	if tf, ok := t[name]; ok {
		return tf, true
	}
	return t[DefaultTimeframe], false
}

// Names lists the timeframes in preset order.
func (t Timeframes) Names() []string {
	names := make([]string, 0, len(t))
	for _, tf := range Presets {
		if _, ok := t[tf.Name]; ok {
			names = append(names, tf.Name)
		}
	}
	var extra []string
	for name := range t {
		if !containsPreset(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func containsPreset(name string) bool {
	for _, tf := range Presets {
		if tf.Name == name {
			return true
		}
	}
	return false
}
