// Package schedule computes fire dates for recurring invoice templates.
//
// With no last run a template first fires on its start date. After that it
// fires every count units of its interval, counted from the last fire date.
// Monthly and yearly runs keep the start date's day of month where the
// calendar allows it. A computed date never falls before the start date.
package schedule

import (
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/invoicely/pkg/civil"
)

type Interval string

const (
	Day   Interval = "day"
	Week  Interval = "week"
	Month Interval = "month"
	Year  Interval = "year"
)

var (
	ErrInvalidInterval      = errors.New("invalid_interval")
	ErrInvalidIntervalCount = errors.New("invalid_interval_count")
	ErrInvalidStartDate     = errors.New("invalid_start_date")
	ErrNotMonotonic         = errors.New("schedule_not_monotonic")
)

var aliases = map[string]Interval{
	"day":     Day,
	"daily":   Day,
	"week":    Week,
	"weekly":  Week,
	"month":   Month,
	"monthly": Month,
	"year":    Year,
	"yearly":  Year,
	"annual":  Year,
}

// ParseInterval normalizes an interval name. Unknown names are rejected.
func ParseInterval(value string) (Interval, error) {
	interval, ok := aliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", ErrInvalidInterval
	}
	return interval, nil
}

func (i Interval) Valid() bool {
	switch i {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Advance moves d forward by count units. Day and week steps are exact.
// Month and year steps land on anchorDay, clamped to the last day of the
// target month, so a Jan 31 schedule runs on Feb 29 and then Mar 31.
// Year steps also keep anchorMonth.
func (i Interval) Advance(d civil.Date, count int, anchorMonth time.Month, anchorDay int) civil.Date {
	switch i {
	case Day:
		return d.AddDate(0, 0, count)
	case Week:
		return d.AddDate(0, 0, 7*count)
	case Month:
		t := d.Time()
		first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, count, 0)
		return clampedDate(first.Year(), first.Month(), anchorDay)
	case Year:
		return clampedDate(d.Time().Year()+count, anchorMonth, anchorDay)
	default:
		return d
	}
}

func clampedDate(year int, month time.Month, day int) civil.Date {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return civil.New(year, month, day)
}

// NextRun returns the next fire date for the template described by the arguments.
func NextRun(start civil.Date, interval Interval, count int, lastRun *civil.Date) (civil.Date, error) {
	if !interval.Valid() {
		return civil.Date{}, ErrInvalidInterval
	}
	if count < 1 {
		return civil.Date{}, ErrInvalidIntervalCount
	}
	if start.IsZero() {
		return civil.Date{}, ErrInvalidStartDate
	}
	if lastRun == nil || lastRun.IsZero() {
		return start, nil
	}

	anchor := start.Time()
	next := interval.Advance(*lastRun, count, anchor.Month(), anchor.Day())
	if next.Before(start) {
		return start, nil
	}
	return next, nil
}

// Template is the schedule state of a recurring invoice.
type Template struct {
	StartDate     civil.Date
	EndDate       *civil.Date
	Interval      Interval
	IntervalCount int
	LastRun       *civil.Date
	NextRun       *civil.Date
}

// Fire records a run on firedOn and recomputes the next run date. The new
// date must be strictly after the previous one.
func Fire(t Template, firedOn civil.Date) (Template, error) {
	if firedOn.IsZero() {
		return Template{}, ErrNotMonotonic
	}
	last := firedOn
	next, err := NextRun(t.StartDate, t.Interval, t.IntervalCount, &last)
	if err != nil {
		return Template{}, err
	}
	if t.NextRun != nil && !next.After(*t.NextRun) {
		return Template{}, ErrNotMonotonic
	}

	t.LastRun = &last
	t.NextRun = &next
	return t, nil
}

// Finished reports whether the next run falls after the template end date.
func (t Template) Finished() bool {
	return t.EndDate != nil && !t.EndDate.IsZero() && t.NextRun != nil && t.NextRun.After(*t.EndDate)
}
