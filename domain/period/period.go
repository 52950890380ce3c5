// Package period resolves named dashboard periods into inclusive date windows
// and filters call records with them.
//
// Relative tags (last7Days, last15Days) end at the most recent record of the
// dataset, while calendar-month tags are anchored on the wall clock. Both
// behaviours are kept as the dashboard has always shown them.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"callcenter-stats/domain/calls"

	lo "github.com/samber/lo"
)

// Tag names a period selector.
type Tag string

const (
	Last7Days    Tag = "last7Days"
	Last15Days   Tag = "last15Days"
	LastMonth    Tag = "ultimoMes"
	MonthBefore  Tag = "penultimoMes"
	CurrentMonth Tag = "currentMonth"
	AllRecords   Tag = "allRecords"
	Custom       Tag = "custom"
)

// ErrUnknownTag is returned by Parse for selectors it does not know.
var ErrUnknownTag = errors.New("unknown period")

// Tags lists every known selector.
var Tags = []Tag{Last7Days, Last15Days, LastMonth, MonthBefore, CurrentMonth, AllRecords, Custom}

// Period is a selector plus, for Custom, its bounds. A zero bound means the
// bound was not given.
type Period struct {
	Tag   Tag
	Start time.Time
	End   time.Time
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Contains reports whether the calendar date of t lies in the window.
func (w Window) Contains(t time.Time) bool {
	d := calls.StartOfDay(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days is the number of calendar days covered, both ends included.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Parse builds a Period from its query-string form. start and end are only
// read for the custom tag and accept the same formats as calls.ParseDate.
// Unreadable custom bounds are left zero, which makes the period fall back
// to all records.
func Parse(tag, start, end string) (Period, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Period{Tag: AllRecords}, nil
	}
	t, ok := lo.Find(Tags, func(k Tag) bool { return strings.EqualFold(string(k), tag) })
	if !ok {
		return Period{}, fmt.Errorf("%w %q", ErrUnknownTag, tag)
	}
	p := Period{Tag: t}
	if t == Custom {
		p.Start, _ = calls.ParseDate(start)
		p.End, _ = calls.ParseDate(end)
	}
	return p, nil
}

// MaxDate is the latest record date, and false for an empty slice.
func MaxDate(records []calls.CallRecord) (time.Time, bool) {
	if len(records) == 0 {
		return time.Time{}, false
	}
	r := lo.MaxBy(records, func(a, b calls.CallRecord) bool { return a.Date.After(b.Date) })
	return calls.StartOfDay(r.Date), true
}

// MinDate is the earliest record date, and false for an empty slice.
func MinDate(records []calls.CallRecord) (time.Time, bool) {
	if len(records) == 0 {
		return time.Time{}, false
	}
	r := lo.MinBy(records, func(a, b calls.CallRecord) bool { return a.Date.Before(b.Date) })
	return calls.StartOfDay(r.Date), true
}

// Resolve computes the window of p. maxDate anchors the relative tags and now
// anchors the calendar-month tags. ok is false when p selects every record:
// AllRecords, or Custom with a missing or inverted bound.
func Resolve(p Period, maxDate, now time.Time) (w Window, ok bool) {
	maxDate = calls.StartOfDay(maxDate)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	switch p.Tag {
	case Last7Days:
		return Window{Start: maxDate.AddDate(0, 0, -7), End: maxDate}, true
	case Last15Days:
		return Window{Start: maxDate.AddDate(0, 0, -15), End: maxDate}, true
	case CurrentMonth:
		return monthWindow(month), true
	case LastMonth:
		return monthWindow(month.AddDate(0, -1, 0)), true
	case MonthBefore:
		return monthWindow(month.AddDate(0, -2, 0)), true
	case Custom:
		if p.Start.IsZero() || p.End.IsZero() {
			return Window{}, false
		}
		s, e := calls.StartOfDay(p.Start), calls.StartOfDay(p.End)
		if s.After(e) {
			return Window{}, false
		}
		return Window{Start: s, End: e}, true
	}
	return Window{}, false
}

func monthWindow(first time.Time) Window {
	return Window{Start: first, End: first.AddDate(0, 1, -1)}
}

// Filter keeps the records of p. The returned window is the one applied, or
// the span of the data when p selects every record; ok is false only when
// there is no data to derive a window from.
func Filter(records []calls.CallRecord, p Period, now time.Time) (out []calls.CallRecord, w Window, ok bool) {
	maxDate, has := MaxDate(records)
	if !has {
		return []calls.CallRecord{}, Window{}, false
	}
	w, bounded := Resolve(p, maxDate, now)
	if !bounded {
		minDate, _ := MinDate(records)
		return append([]calls.CallRecord{}, records...), Window{Start: minDate, End: maxDate}, true
	}
	out = lo.Filter(records, func(r calls.CallRecord, _ int) bool {
		return !r.Date.IsZero() && w.Contains(r.Date)
	})
	return out, w, true
}

// FilterTickets applies the same window logic to tickets. The relative tags
// anchor on the latest ticket.
func FilterTickets(tickets []calls.TicketRecord, p Period, now time.Time) ([]calls.TicketRecord, Window, bool) {
	if len(tickets) == 0 {
		return []calls.TicketRecord{}, Window{}, false
	}
	maxDate := calls.StartOfDay(lo.MaxBy(tickets, func(a, b calls.TicketRecord) bool { return a.Date.After(b.Date) }).Date)
	w, bounded := Resolve(p, maxDate, now)
	if !bounded {
		minDate := calls.StartOfDay(lo.MinBy(tickets, func(a, b calls.TicketRecord) bool { return a.Date.Before(b.Date) }).Date)
		return append([]calls.TicketRecord{}, tickets...), Window{Start: minDate, End: maxDate}, true
	}
	return lo.Filter(tickets, func(t calls.TicketRecord, _ int) bool {
		return !t.Date.IsZero() && w.Contains(t.Date)
	}), w, true
}
