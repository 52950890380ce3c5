package calls_test

import (
	"math"
	"testing"
	"time"

	"callcenter-stats/domain/calls"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	dec31 := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		input string
		want  time.Time
		ok    bool
	}{
		"BrazilianFormat":      {input: "31/12/2024", want: dec31, ok: true},
		"ISOFormat":            {input: "2024-12-31", want: dec31, ok: true},
		"UnpaddedDayAndMonth":  {input: "1/2/2025", want: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), ok: true},
		"TrailingTimeOfDay":    {input: "31/12/2024 23:59:59", want: dec31, ok: true},
		"ISOWithTime":          {input: "2024-12-31T08:00:00Z", want: dec31, ok: true},
		"SurroundingSpaces":    {input: "  31/12/2024  ", want: dec31, ok: true},
		"NotADate":             {input: "not-a-date", ok: false},
		"Empty":                {input: "", ok: false},
		"ImpossibleDay":        {input: "31/02/2024", ok: false},
		"MonthOutOfRange":      {input: "01/13/2024", ok: false},
		"NonNumericPart":       {input: "aa/12/2024", ok: false},
		"ISOShortYear":         {input: "24-12-31", ok: false},
		"LeapDay":              {input: "29/02/2024", want: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), ok: true},
		"LeapDayInCommonYear":  {input: "29/02/2023", ok: false},
		"NegativeLookingParts": {input: "-1/12/2024", ok: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := calls.ParseDate(tc.input)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseDurationToMinutes(t *testing.T) {
	tests := map[string]struct {
		input string
		want  float64
	}{
		"HoursMinutesSeconds": {input: "01:02:03", want: 62.05},
		"MinutesSeconds":      {input: "02:30", want: 2.5},
		"BareMinutes":         {input: "12", want: 12},
		"CommaDecimal":        {input: "1,5", want: 1.5},
		"Empty":               {input: "", want: 0},
		"Garbage":             {input: "abc", want: 0},
		"BadSegment":          {input: "01:xx:03", want: 0},
		"Negative":            {input: "-5", want: 0},
		"NegativeSegment":     {input: "00:-1:00", want: 0},
		"TooManySegments":     {input: "1:2:3:4", want: 0},
		"NaN":                 {input: "NaN", want: 0},
		"Infinity":            {input: "Inf", want: 0},
		"Zero":                {input: "00:00:00", want: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := calls.ParseDurationToMinutes(tc.input)
			assert.InDelta(t, tc.want, got, 1e-9)
			assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestWeekNumber(t *testing.T) {
	tests := map[string]struct {
		date time.Time
		week int
		key  string
	}{
		"MidYear":          {date: time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC), week: 25, key: "2025-W25"},
		"NewYearInWeek1":   {date: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), week: 1, key: "2025-W01"},
		"DecemberInWeek1":  {date: time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC), week: 1, key: "2025-W01"},
		"JanuaryInWeek53":  {date: time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), week: 53, key: "2020-W53"},
		"SundayEndsWeek":   {date: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), week: 1, key: "2025-W01"},
		"MondayStartsWeek": {date: time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC), week: 2, key: "2025-W02"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.week, calls.WeekNumber(tc.date))
			assert.Equal(t, tc.key, calls.WeekKey(tc.date))
		})
	}
}
