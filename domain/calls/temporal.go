package calls

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDate reads "DD/MM/YYYY" (day and month may be un-padded) or ISO
// "YYYY-MM-DD", ignoring any trailing time of day. The result is the calendar
// date at midnight UTC. ok is false for non-numeric parts or impossible dates.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	var y, m, d int
	switch {
	case strings.Count(s, "/") == 2:
		p := strings.Split(s, "/")
		if d, ok = atoi(p[0]); !ok {
			return time.Time{}, false
		}
		if m, ok = atoi(p[1]); !ok {
			return time.Time{}, false
		}
		if y, ok = atoi(p[2]); !ok {
			return time.Time{}, false
		}
	case strings.Count(s, "-") == 2:
		p := strings.Split(s, "-")
		if len(p[0]) != 4 {
			return time.Time{}, false
		}
		if y, ok = atoi(p[0]); !ok {
			return time.Time{}, false
		}
		if m, ok = atoi(p[1]); !ok {
			return time.Time{}, false
		}
		if d, ok = atoi(p[2]); !ok {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t = time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 31/02 into March; reject instead.
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// ParseDurationToMinutes reads "HH:MM:SS", "MM:SS" or a bare number of
// minutes. It is total: anything it cannot read is 0, and it never returns a
// negative or non-finite value.
func ParseDurationToMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var minutes float64
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		nums := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil || v < 0 {
				return 0
			}
			nums[i] = v
		}
		switch len(nums) {
		case 3:
			minutes = nums[0]*60 + nums[1] + nums[2]/60
		case 2:
			minutes = nums[0] + nums[1]/60
		default:
			return 0
		}
	} else {
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0
		}
		minutes = v
	}
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		return 0
	}
	return minutes
}

// WeekNumber is the ISO-8601 week of t: weeks start on Monday and week 1 is
// the one holding the year's first Thursday.
func WeekNumber(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// WeekKey formats the ISO week of t as "YYYY-Www". The year is the ISO year,
// which differs from the calendar year around January 1st.
func WeekKey(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// StartOfDay drops the time of day of t, keeping its calendar date.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func atoi(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
