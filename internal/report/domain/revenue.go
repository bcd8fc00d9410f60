package domain

import (
	"strings"
	"time"

	"github.com/smallbiznis/invoicely/pkg/civil"
)

// Granularity is the calendar unit a revenue bucket spans.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Range selects the window and bucket size of the revenue series.
type Range string

const (
	RangeAll      Range = ""
	Range30Days   Range = "30days"
	Range3Months  Range = "3months"
	Range6Months  Range = "6months"
	Range12Months Range = "12months"
)

func ParseRange(value string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(value))); r {
	case RangeAll, Range30Days, Range3Months, Range6Months, Range12Months:
		return r, nil
	case "all":
		return RangeAll, nil
	default:
		return RangeAll, ErrInvalidRange
	}
}

func (r Range) Granularity() Granularity {
	switch r {
	case Range30Days:
		return GranularityDay
	case Range3Months:
		return GranularityWeek
	default:
		return GranularityMonth
	}
}

// Since returns the earliest creation time the range covers. ok is false for
// the all-time range.
func (r Range) Since(now time.Time) (since time.Time, ok bool) {
	switch r {
	case Range30Days:
		return now.AddDate(0, 0, -30), true
	case Range3Months:
		return now.AddDate(0, -3, 0), true
	case Range6Months:
		return now.AddDate(0, -6, 0), true
	case Range12Months:
		return now.AddDate(0, -12, 0), true
	default:
		return time.Time{}, false
	}
}

// Truncate returns the first day of the bucket holding t. Weeks start on Monday.
func (g Granularity) Truncate(t time.Time) civil.Date {
	day := civil.FromTime(t.UTC())
	switch g {
	case GranularityDay:
		return day
	case GranularityWeek:
		offset := (int(day.Time().Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return civil.New(day.Time().Year(), day.Time().Month(), 1)
	}
}

type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

func ParseOrder(value string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "desc":
		return OrderDesc, nil
	case "asc":
		return OrderAsc, nil
	default:
		return OrderDesc, ErrInvalidOrder
	}
}
