package series

import (
	"fmt"
	"time"

	"neonx-web/errs"
)

const (
	hourlyMaxPoints  = 24
	dayHourMaxPoints = 7 * 24
)

// Labels returns count hourly labels ending at now, oldest first.
//
// Up to 24 points are labelled "H:00", up to 168 points "M/D H:00"; longer
// ranges only label the first hour of each day and leave the rest empty.
func Labels(count int, now time.Time) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("label count %d must be positive: %w", count, errs.ErrInvalidArgument)
	}

	labels := make([]string, 0, count)
	for i := count - 1; i >= 0; i-- {
		t := now.Add(-time.Duration(i) * time.Hour)

		var label string
		switch {
		case count <= hourlyMaxPoints:
			label = fmt.Sprintf("%d:00", t.Hour())
		case count <= dayHourMaxPoints:
			label = fmt.Sprintf("%d/%d %d:00", int(t.Month()), t.Day(), t.Hour())
		default:
			if t.Hour() == 0 {
				label = fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
			}
		}
		labels = append(labels, label)
	}
	return labels, nil
}
