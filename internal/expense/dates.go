package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for dates that match no accepted layout.
var ErrInvalidDate = errors.New("invalid date")

var isoLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"20060102",
}

var monthFirstLayouts = []string{
	"01/02/2006", "1/2/2006", "01-02-2006", "01/02/06", "1/2/06",
	"Jan 2, 2006", "January 2, 2006",
}

var dayFirstLayouts = []string{
	"02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006", "2.1.2006", "02/01/06", "2/1/06",
	"2 Jan 2006", "02 Jan 2006", "2 January 2006",
}

// monthFirstLocales write dates as MM/DD/YYYY.
var monthFirstLocales = map[string]bool{"en-us": true, "en_us": true, "en-ph": true, "en_ph": true}

// ParseDate reads a date written for the given locale. ISO dates are always
// accepted; slashed dates are month-first only in month-first locales.
// The result is midnight UTC of the calendar day as written.
func ParseDate(raw, locale string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	layouts := isoLayouts
	if monthFirstLocales[strings.ToLower(locale)] {
		layouts = append(append([]string{}, layouts...), monthFirstLayouts...)
	} else {
		layouts = append(append([]string{}, layouts...), dayFirstLayouts...)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
