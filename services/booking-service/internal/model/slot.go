package model

import (
	"errors"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
)

var (
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime = errors.New("time must be HH:MM (24-hour)")
)

// Slot is a (date, time) pair at which at most one appointment may exist.
type Slot struct {
	Date  time.Time // midnight UTC
	Clock time.Duration
}

// SlotAt truncates t to the minute and splits it into date and time of day.
func SlotAt(t time.Time) Slot {
	t = t.UTC().Truncate(time.Minute)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Slot{Date: day, Clock: t.Sub(day)}
}

func (s Slot) Start() time.Time {
	return s.Date.Add(s.Clock)
}

func (s Slot) DateString() string {
	return s.Date.Format(DateLayout)
}

func (s Slot) TimeString() string {
	return s.Start().Format(ClockLayout)
}

func (s Slot) String() string {
	return s.Start().Format(DateTimeLayout)
}

// ParseDate accepts only the canonical zero-padded form, so "2024-1-10" is rejected.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	d, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil || d.Format(DateLayout) != raw {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// ParseClock parses a canonical HH:MM time of day into an offset from midnight.
// Non-canonical spellings such as "9:00" are rejected rather than normalized.
func ParseClock(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.ParseInLocation(ClockLayout, raw, time.UTC)
	if err != nil || t.Format(ClockLayout) != raw {
		return 0, ErrInvalidTime
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func ParseSlot(date, clock string) (Slot, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Slot{}, err
	}
	c, err := ParseClock(clock)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Date: d, Clock: c}, nil
}

// FloorMinute drops seconds and below, matching the minute granularity of reminders.
func FloorMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
