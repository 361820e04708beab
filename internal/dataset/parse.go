package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Month-first layouts are tried before day-first ones, so 01/02/2024 reads as January 2.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02/01/2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"01-02-06",
	"1/2/06",
}

// parseDate returns the calendar date of s, or false if no known layout matches.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// parseEngagements reads a non-negative count. Fractional values are truncated toward zero.
func parseEngagements(s string) (int64, bool) {
	raw := strings.NewReplacer(" ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if raw == "" {
		return 0, false
	}
	if strings.Contains(raw, ",") {
		if !groupedThousands(raw) {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, ",", "")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// groupedThousands reports whether s looks like 1,234,567 with an optional .fraction.
func groupedThousands(s string) bool {
	intPart, _, _ := strings.Cut(s, ".")
	groups := strings.Split(intPart, ",")
	if len(groups) < 2 || len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
