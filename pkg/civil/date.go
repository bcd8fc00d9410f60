// Package civil holds calendar values that carry no time of day.
package civil

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const Layout = "2006-01-02"

// Date is a calendar date stored as a SQL date and encoded as "2006-01-02"
// in JSON. The time of day is always midnight UTC.
type Date datatypes.Date

func New(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime keeps the calendar day of t in its own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

func Parse(value string) (Date, error) {
	parsed, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return FromTime(parsed), nil
}

func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d Date) String() string {
	return time.Time(d).Format(Layout)
}

func (d Date) Before(other Date) bool {
	return time.Time(d).Before(time.Time(other))
}

func (d Date) After(other Date) bool {
	return time.Time(d).After(time.Time(other))
}

func (d Date) Equal(other Date) bool {
	return time.Time(d).Equal(time.Time(other))
}

func (d Date) AddDate(years, months, days int) Date {
	return FromTime(time.Time(d).AddDate(years, months, days))
}

// DaysSince returns the whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(time.Time(d).Sub(time.Time(other)).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(raw)
	if err != nil {
		if t, tErr := time.Parse(time.RFC3339, raw); tErr == nil {
			*d = FromTime(t)
			return nil
		}
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return datatypes.Date(d).Value()
}

var textLayouts = []string{
	Layout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
}

// Scan accepts driver time values and the text forms sqlite hands back.
func (d *Date) Scan(value interface{}) error {
	switch typed := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(typed)
		return nil
	case string:
		return d.scanText(typed)
	case []byte:
		return d.scanText(string(typed))
	default:
		return (*datatypes.Date)(d).Scan(value)
	}
}

func (d *Date) scanText(value string) error {
	value = strings.TrimSpace(value)
	for _, layout := range textLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			*d = FromTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("cannot scan %q into civil.Date", value)
}

func (Date) GormDataType() string {
	return "date"
}
