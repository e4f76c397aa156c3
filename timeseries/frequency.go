package timeseries

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNoFrequency is returned when timestamps do not follow a regular sampling frequency.
var ErrNoFrequency = errors.New("timeseries: cannot infer frequency")

const day = 24 * time.Hour

// Frequency describes the sampling interval of a series.
//
// Fixed frequencies advance by Step. Calendar frequencies advance by Months
// and are anchored to the start or end of the month. Business-day
// frequency skips Saturdays and Sundays.
type Frequency struct {
	Label    string
	Step     time.Duration
	Months   int
	MonthEnd bool
	Business bool
}

// Common frequencies.
var (
	Daily       = Frequency{Label: "D", Step: day}
	BusinessDay = Frequency{Label: "B", Step: day, Business: true}
	Weekly      = Frequency{Label: "W", Step: 7 * day}
	Hourly      = Frequency{Label: "h", Step: time.Hour}
	MonthStart  = Frequency{Label: "MS", Months: 1}
	MonthEnd    = Frequency{Label: "ME", Months: 1, MonthEnd: true}
)

// String returns the frequency label.
func (f Frequency) String() string {
	return f.Label
}

// IsZero reports whether the frequency is unset.
func (f Frequency) IsZero() bool {
	return f.Label == ""
}

// Add advances t by n periods.
func (f Frequency) Add(t time.Time, n int) time.Time {
	switch {
	case f.Business:
		for n > 0 {
			t = t.Add(day)
			if !isWeekend(t) {
				n--
			}
		}
		return t
	case f.Months > 0:
		if f.MonthEnd {
			first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
			return first.AddDate(0, f.Months*n+1, -1)
		}
		return t.AddDate(0, f.Months*n, 0)
	default:
		return t.Add(time.Duration(n) * f.Step)
	}
}

// Range returns the n timestamps that follow after.
func (f Frequency) Range(after time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = f.Add(after, i+1)
	}
	return out
}

// InferFrequency determines the sampling frequency of strictly increasing timestamps.
func InferFrequency(ts []time.Time) (Frequency, error) {
	if len(ts) < 2 {
		return Frequency{}, fmt.Errorf("%w: need at least 2 timestamps, got %d", ErrNoFrequency, len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if !ts[i].After(ts[i-1]) {
			return Frequency{}, fmt.Errorf("%w: index %d", ErrNotOrdered, i)
		}
	}

	if f, ok := fixedFrequency(ts); ok {
		return f, nil
	}
	if businessDays(ts) {
		return BusinessDay, nil
	}
	if f, ok := calendarFrequency(ts); ok {
		return f, nil
	}
	return Frequency{}, fmt.Errorf("%w: irregular spacing starting at %s", ErrNoFrequency, ts[0].Format(time.RFC3339))
}

func fixedFrequency(ts []time.Time) (Frequency, bool) {
	step := ts[1].Sub(ts[0])
	for i := 2; i < len(ts); i++ {
		if ts[i].Sub(ts[i-1]) != step {
			return Frequency{}, false
		}
	}
	return Frequency{Label: stepLabel(step), Step: step}, true
}

func stepLabel(step time.Duration) string {
	unit := func(n int64, suffix string) string {
		if n == 1 {
			return suffix
		}
		return strconv.FormatInt(n, 10) + suffix
	}
	switch {
	case step == 7*day:
		return "W"
	case step%day == 0:
		return unit(int64(step/day), "D")
	case step%time.Hour == 0:
		return unit(int64(step/time.Hour), "h")
	case step%time.Minute == 0:
		return unit(int64(step/time.Minute), "min")
	case step%time.Second == 0:
		return unit(int64(step/time.Second), "s")
	default:
		return unit(int64(step/time.Millisecond), "ms")
	}
}

func businessDays(ts []time.Time) bool {
	for i, t := range ts {
		if isWeekend(t) {
			return false
		}
		if i > 0 && !BusinessDay.Add(ts[i-1], 1).Equal(t) {
			return false
		}
	}
	return true
}

func calendarFrequency(ts []time.Time) (Frequency, bool) {
	months := monthsBetween(ts[0], ts[1])
	if months <= 0 {
		return Frequency{}, false
	}

	allStart, allEnd := true, true
	for i, t := range ts {
		if t.Day() != 1 {
			allStart = false
		}
		if t.AddDate(0, 0, 1).Month() == t.Month() {
			allEnd = false
		}
		if i > 0 && monthsBetween(ts[i-1], t) != months {
			return Frequency{}, false
		}
	}
	if !allStart && !allEnd {
		return Frequency{}, false
	}

	f := Frequency{Months: months, MonthEnd: !allStart}
	base := "M"
	switch months {
	case 3:
		base = "Q"
	case 12:
		base = "Y"
	}
	anchor := "S"
	if f.MonthEnd {
		anchor = "E"
	}
	if months == 1 || months == 3 || months == 12 {
		f.Label = base + anchor
	} else {
		f.Label = strconv.Itoa(months) + "M" + anchor
	}
	return f, true
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
