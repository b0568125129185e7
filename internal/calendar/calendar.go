// Package calendar converts between the solar (Jalali) calendar used in the
// source documents and Gregorian dates used for arithmetic.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// YYYY/M/D strings with SolarThreshold <= year < SolarCeiling are solar
// years; every other year is Gregorian. The ceiling keeps Gregorian years
// like 1900 out of the solar range. Gregorian dates round-trip through
// FormatAsSolar up to the end of solar year 1699, in March 2321.
const (
	SolarThreshold = 1300
	SolarCeiling   = 1700
)

var ymdPattern = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})(?:[ T].*)?$`)

// gregorianLayouts is tried in order for strings that are not YYYY/M/D.
var gregorianLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02.01.2006",
	"2.1.2006",
	"01/02/2006",
	"1/2/2006",
	"2006.01.02",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ParseFlexibleDate turns a cell value into a Gregorian date. time.Time
// values pass through. YYYY/M/D strings are solar when the year lies in
// [SolarThreshold, SolarCeiling) and Gregorian otherwise. Anything else is
// tried against a list of Gregorian layouts. Unparsable input returns
// ok=false.
func ParseFlexibleDate(value any) (t time.Time, ok bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDateString(v)
	case fmt.Stringer:
		return parseDateString(v.String())
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(foldDigits(s))
	if s == "" {
		return time.Time{}, false
	}

	if m := ymdPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if year >= SolarThreshold && year < SolarCeiling {
			return FromSolar(year, month, day)
		}
		return gregorian(year, month, day)
	}

	for _, layout := range gregorianLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FromSolar converts a solar date to the Gregorian date at midnight UTC.
// Out-of-range components (month 13, Esfand 30 in a common year) are rejected.
func FromSolar(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, time.UTC)
	if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
		return time.Time{}, false
	}
	return dateOnly(pt.Time()), true
}

// ToSolar returns the solar year, month and day of a Gregorian date.
func ToSolar(t time.Time) (year, month, day int) {
	pt := ptime.New(dateOnly(t))
	return pt.Year(), int(pt.Month()), pt.Day()
}

// FormatAsSolar renders a date as a zero-padded solar YYYY/MM/DD string.
// Input that cannot be read as a date yields "".
func FormatAsSolar(value any) string {
	t, ok := ParseFlexibleDate(value)
	if !ok {
		return ""
	}
	y, m, d := ToSolar(t)
	return fmt.Sprintf("%04d/%02d/%02d", y, m, d)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}

func gregorian(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func foldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
