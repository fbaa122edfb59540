package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the human-readable rendering used in API responses,
// e.g. "Fri Jan 05 2024".
const DateLayout = "Mon Jan 02 2006"

// ErrInvalidDate is returned when a string cannot be parsed as a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// inputLayouts lists the accepted input formats, tried in order.
var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006/01/02",
}

// Date is a calendar day without a time-of-day component.
// The zero value is not a valid date.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	t = t.UTC()
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// DateOf builds a Date from its components.
func DateOf(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses value using the accepted input layouts.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range inputLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return NewDate(parsed), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// String renders the date as DateLayout.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.t.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so a Date can be bound to a DATE column.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.ISO(), nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch value := src.(type) {
	case time.Time:
		*d = DateOf(value.Year(), value.Month(), value.Day())
		return nil
	case string:
		parsed, err := ParseDate(value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(value))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into types.Date", src)
	}
}
