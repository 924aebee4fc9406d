// Package dates parses the mixed-calendar date strings used by deal records.
//
// Dates arrive either as Gregorian or as Jalali (Iranian solar calendar),
// distinguished by year magnitude: a year below 1500 is Jalali and gets
// converted. The heuristic is preserved from the system this ledger replaces;
// an explicit calendar tag would be safer near calendar boundaries.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// jalaliYearCutoff separates Jalali years (e.g. 1403) from Gregorian ones.
const jalaliYearCutoff = 1500

// ParseStrict parses "YYYY-MM-DD" or "YYYY/MM/DD" in either calendar and
// returns the Gregorian date at midnight UTC.
func ParseStrict(s string) (time.Time, error) {
	parts := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "/", "-"), "-")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if y < jalaliYearCutoff {
		pt := ptime.Date(y, ptime.Month(m), d, 0, 0, 0, 0, ptime.Iran())
		g := pt.Time()
		return time.Date(g.Year(), g.Month(), g.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

// Parse parses a date string and falls back to the given time on any
// failure, mirroring how deal dates were handled upstream.
func Parse(s string, fallback time.Time) time.Time {
	if s != "" {
		if t, err := ParseStrict(s); err == nil {
			return t
		}
	}
	if fallback.IsZero() {
		fallback = time.Now()
	}
	return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a date in the storage format.
func Format(t time.Time) string {
	return t.Format("2006-01-02")
}
