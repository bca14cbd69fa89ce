package models

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Date is a calendar day without a time of day. The zero value is not a valid date
// and is only used behind a nil check.
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day (normalized like time.Date)
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return Date{t: t}, nil
}

// DatePtr is a convenience for optional date fields
func DatePtr(year int, month time.Month, day int) *Date {
	d := NewDate(year, month, day)
	return &d
}

func (d Date) Time() time.Time { return d.t }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// DaysUntil returns the number of whole days from d to other, negative when other is earlier
func (d Date) DaysUntil(other Date) int {
	return int((other.t.Unix() - d.t.Unix()) / secondsPerDay)
}

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// MarshalText renders the date as YYYY-MM-DD for JSON and YAML
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts YYYY-MM-DD and, for files written by other tools, RFC 3339 timestamps
func (d *Date) UnmarshalText(text []byte) error {
	s := string(text)
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date '%s': expected %s", s, DateLayout)
	}
	*d = DateOf(t)
	return nil
}

// yearsBetween is the age formula used throughout the tree: whole days floor-divided by 365
func yearsBetween(from, to Date) int {
	days := from.DaysUntil(to)
	years := days / 365
	if days%365 != 0 && days < 0 {
		years--
	}
	return years
}
