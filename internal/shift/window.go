// Package shift maps instants to business shifts whose day starts at a
// configured local hour instead of midnight.
package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/shiftbook/internal/common"
)

// DateLayout is the canonical text form of a shift date.
const DateLayout = "2006-01-02"

// Length is the fixed duration of every shift.
const Length = 24 * time.Hour

// Window is the business shift enclosing an instant.
// Start is inclusive, End exclusive; consecutive windows tile the timeline.
type Window struct {
	Start time.Time
	End   time.Time
	// Date is midnight of the local calendar day the shift started on.
	Date time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DateString formats the shift date.
func (w Window) DateString() string {
	return w.Date.Format(DateLayout)
}

// WindowFor returns the shift window containing t for a business running at a
// fixed UTC offset whose day begins at cutoverHour local time.
func WindowFor(t time.Time, offset time.Duration, cutoverHour int) Window {
	cutoverHour = ((cutoverHour % 24) + 24) % 24
	loc := time.FixedZone(zoneName(offset), int(offset/time.Second))

	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), cutoverHour, 0, 0, 0, loc)
	if local.Before(start) {
		start = start.Add(-Length)
	}

	return Window{
		Start: start,
		End:   start.Add(Length),
		Date:  time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc),
	}
}

// Calculator binds the business offset and cutover hour.
type Calculator struct {
	offset      time.Duration
	cutoverHour int
}

// NewCalculator validates the configuration and returns a Calculator.
func NewCalculator(offset time.Duration, cutoverHour int) (*Calculator, error) {
	if cutoverHour < 0 || cutoverHour > 23 {
		return nil, fmt.Errorf("%w: cutover hour %d outside 0-23", common.ErrInvalidConfig, cutoverHour)
	}
	if offset < -14*time.Hour || offset > 14*time.Hour {
		return nil, fmt.Errorf("%w: utc offset %s out of range", common.ErrInvalidConfig, offset)
	}
	return &Calculator{offset: offset, cutoverHour: cutoverHour}, nil
}

// WindowFor returns the shift containing t.
func (c *Calculator) WindowFor(t time.Time) Window {
	return WindowFor(t, c.offset, c.cutoverHour)
}

// DateFor returns only the shift date for t.
func (c *Calculator) DateFor(t time.Time) time.Time {
	return c.WindowFor(t).Date
}

// WindowForDate returns the shift that started on the given local calendar day.
func (c *Calculator) WindowForDate(year int, month time.Month, day int) Window {
	loc := time.FixedZone(zoneName(c.offset), int(c.offset/time.Second))
	return c.WindowFor(time.Date(year, month, day, c.cutoverHour, 0, 0, 0, loc))
}

// ParseDate parses a YYYY-MM-DD shift date and returns its window.
func (c *Calculator) ParseDate(s string) (Window, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Window{}, fmt.Errorf("invalid shift date %q: %w", s, err)
	}
	return c.WindowForDate(d.Year(), d.Month(), d.Day()), nil
}

// ParseOffset parses a UTC offset such as "+07:00", "-0530", "7" or "UTC".
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	s = strings.TrimPrefix(s, "UTC")
	if s == "" || s == "Z" {
		return 0, nil
	}

	sign := time.Duration(1)
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}

	var hours, minutes int
	var err error
	switch {
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		hours, err = strconv.Atoi(parts[0])
		if err == nil {
			minutes, err = strconv.Atoi(parts[1])
		}
	case len(s) == 4:
		hours, err = strconv.Atoi(s[:2])
		if err == nil {
			minutes, err = strconv.Atoi(s[2:])
		}
	default:
		hours, err = strconv.Atoi(s)
	}
	if err != nil || hours < 0 || hours > 14 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: utc offset %q", common.ErrInvalidConfig, s)
	}

	return sign * (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), nil
}

func zoneName(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("UTC%s%02d:%02d", sign, h, m)
}
