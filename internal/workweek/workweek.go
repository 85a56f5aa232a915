// Package workweek decodes calendar working-week bitmasks.
//
// Bit 0 is Sunday and bit 6 is Saturday, the same order as time.Weekday, so
// a mask of 62 is Monday to Friday.
package workweek

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bpextract/internal/domain"
)

// Mask is a seven-bit working-week set.
type Mask uint8

const allDays Mask = 1<<7 - 1

// mondayFirst orders days the way calendars are read.
var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseMask reads a decimal mask such as the working-week attribute.
func ParseMask(s string) (Mask, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidMask, s)
	}
	if n < 0 || n > int(allDays) {
		return 0, fmt.Errorf("%w: %d is outside 0-127", domain.ErrInvalidMask, n)
	}
	return Mask(n), nil
}

// Works reports whether d is a working day.
func (m Mask) Works(d time.Weekday) bool {
	return m&(1<<uint(d)) != 0
}

// Days returns the working days, Monday first.
func (m Mask) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, d := range mondayFirst {
		if m.Works(d) {
			days = append(days, d)
		}
	}
	return days
}

// String lists the working days as three-letter names, e.g. "Mon,Tue".
func (m Mask) String() string {
	names := make([]string, 0, 7)
	for _, d := range m.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// Workday is one generated working date.
type Workday struct {
	Date    time.Time
	Weekday time.Weekday
}

// Generate lists every working day from from through from plus 365 days
// per year, both ends included. Times are truncated to the date.
func Generate(m Mask, from time.Time, years int) []Workday {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := start.AddDate(0, 0, 365*years)

	var out []Workday
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if m.Works(d.Weekday()) {
			out = append(out, Workday{Date: d, Weekday: d.Weekday()})
		}
	}
	return out
}
