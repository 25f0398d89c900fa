// Package reports computes calendar-aligned sales and repair metrics.
package reports

import (
	"fmt"
	"time"

	"github.com/arcadia-retail/arcadia-retail/internal/shared"
)

type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Window is a resolved reporting period. Start and End are both
// inclusive; End sits on the last nanosecond of the period.
type Window struct {
	Granularity Granularity `json:"granularity"`
	Label       string      `json:"label"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
}

// DayWindow covers one calendar day.
func DayWindow(date time.Time) Window {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return Window{
		Granularity: GranularityDay,
		Label:       start.Format("2006-01-02"),
		Start:       start,
		End:         start.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}

// MonthWindow covers one calendar month. The end is derived from day zero
// of the following month, never from a hardcoded month length.
func MonthWindow(year, month int) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, fmt.Errorf("%w: month must be between 1 and 12", shared.ErrValidation)
	}
	if err := checkYear(year); err != nil {
		return Window{}, err
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.Month(month+1), 0, 23, 59, 59, int(time.Second-time.Nanosecond), time.Local)
	return Window{
		Granularity: GranularityMonth,
		Label:       start.Format("2006-01"),
		Start:       start,
		End:         end,
	}, nil
}

// QuarterWindow covers one calendar quarter.
func QuarterWindow(year, quarter int) (Window, error) {
	if quarter < 1 || quarter > 4 {
		return Window{}, fmt.Errorf("%w: quarter must be between 1 and 4", shared.ErrValidation)
	}
	if err := checkYear(year); err != nil {
		return Window{}, err
	}
	firstMonth := (quarter-1)*3 + 1
	start := time.Date(year, time.Month(firstMonth), 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.Month(firstMonth+3), 0, 23, 59, 59, int(time.Second-time.Nanosecond), time.Local)
	return Window{
		Granularity: GranularityQuarter,
		Label:       fmt.Sprintf("%d-Q%d", year, quarter),
		Start:       start,
		End:         end,
	}, nil
}

// YearWindow covers one calendar year.
func YearWindow(year int) (Window, error) {
	if err := checkYear(year); err != nil {
		return Window{}, err
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	return Window{
		Granularity: GranularityYear,
		Label:       fmt.Sprintf("%d", year),
		Start:       start,
		End:         start.AddDate(1, 0, 0).Add(-time.Nanosecond),
	}, nil
}

func checkYear(year int) error {
	if year < 2000 || year > 2200 {
		return fmt.Errorf("%w: year out of range", shared.ErrValidation)
	}
	return nil
}
