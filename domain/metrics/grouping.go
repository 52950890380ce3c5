package metrics

import (
	"sort"
	"time"

	"callcenter-stats/domain/calls"

	lo "github.com/samber/lo"
)

// Granularity is the bucket size of a time series.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
)

// DailyBucketLimit is the longest span, in days, still charted day by day.
const DailyBucketLimit = 60

// GranularityFor picks day buckets for spans up to DailyBucketLimit days and
// month buckets beyond.
func GranularityFor(spanDays int) Granularity {
	if spanDays <= DailyBucketLimit {
		return ByDay
	}
	return ByMonth
}

// BucketStart truncates t to the start of its bucket.
func (g Granularity) BucketStart(t time.Time) time.Time {
	d := calls.StartOfDay(t)
	switch g {
	case ByMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case ByWeek:
		offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
		return d.AddDate(0, 0, -offset)
	}
	return d
}

// Key formats the bucket label of t.
func (g Granularity) Key(t time.Time) string {
	switch g {
	case ByMonth:
		return t.Format("2006-01")
	case ByWeek:
		return calls.WeekKey(t)
	}
	return t.Format("2006-01-02")
}

// CallBucket aggregates the calls of one period bucket.
type CallBucket struct {
	Key   string    `json:"key"`
	Start time.Time `json:"start"`

	TotalCalls    int `json:"totalCalls"`
	Attended      int `json:"attended"`
	Abandoned     int `json:"abandoned"`
	RetainedInIVR int `json:"retainedInIvr"`
	UnknownStatus int `json:"unknownStatus"`

	SumDuration           float64 `json:"sumDuration"`
	SumWait               float64 `json:"sumWait"`
	SumRatingAttendance   float64 `json:"sumRatingAttendance"`
	CountRatingAttendance int     `json:"countRatingAttendance"`
	SumRatingSolution     float64 `json:"sumRatingSolution"`
	CountRatingSolution   int     `json:"countRatingSolution"`

	AvgDuration         float64 `json:"avgDuration"`
	AvgWait             float64 `json:"avgWait"`
	AvgRatingAttendance float64 `json:"avgRatingAttendance"`
	AvgRatingSolution   float64 `json:"avgRatingSolution"`
}

func (b *CallBucket) add(r calls.CallRecord) {
	b.TotalCalls++
	switch r.Status {
	case calls.StatusAttended:
		b.Attended++
	case calls.StatusAbandoned:
		b.Abandoned++
	case calls.StatusRetainedInIVR:
		b.RetainedInIVR++
	default:
		b.UnknownStatus++
	}
	b.SumDuration += r.DurationMinutes
	b.SumWait += r.WaitMinutes
	if r.RatingAttendance != nil {
		b.SumRatingAttendance += *r.RatingAttendance
		b.CountRatingAttendance++
	}
	if r.RatingSolution != nil {
		b.SumRatingSolution += *r.RatingSolution
		b.CountRatingSolution++
	}
}

func (b *CallBucket) finalize() {
	b.AvgDuration = ratio(b.SumDuration, b.TotalCalls)
	b.AvgWait = ratio(b.SumWait, b.TotalCalls)
	b.AvgRatingAttendance = ratio(b.SumRatingAttendance, b.CountRatingAttendance)
	b.AvgRatingSolution = ratio(b.SumRatingSolution, b.CountRatingSolution)
}

// GroupCalls buckets records by g. Buckets come out in chronological order;
// empty buckets are not emitted.
func GroupCalls(records []calls.CallRecord, g Granularity) []CallBucket {
	buckets := map[time.Time]*CallBucket{}
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		start := g.BucketStart(r.Date)
		b, ok := buckets[start]
		if !ok {
			b = &CallBucket{Key: g.Key(start), Start: start}
			buckets[start] = b
		}
		b.add(r)
	}
	return sortedBuckets(buckets, func(b *CallBucket) CallBucket {
		b.finalize()
		return *b
	})
}

// TicketBucket counts ticket evaluations in one period bucket.
type TicketBucket struct {
	Key     string    `json:"key"`
	Start   time.Time `json:"start"`
	Total   int       `json:"total"`
	Good    int       `json:"good"`
	Bad     int       `json:"bad"`
	Unrated int       `json:"unrated"`
	// GoodRatio is good / (good + bad), 0 when nothing was rated.
	GoodRatio float64 `json:"goodRatio"`
}

// GroupTickets buckets tickets by g in chronological order.
func GroupTickets(tickets []calls.TicketRecord, g Granularity) []TicketBucket {
	buckets := map[time.Time]*TicketBucket{}
	for _, t := range tickets {
		if t.Date.IsZero() {
			continue
		}
		start := g.BucketStart(t.Date)
		b, ok := buckets[start]
		if !ok {
			b = &TicketBucket{Key: g.Key(start), Start: start}
			buckets[start] = b
		}
		b.Total++
		switch t.Evaluation {
		case calls.EvaluationGood:
			b.Good++
		case calls.EvaluationBad:
			b.Bad++
		default:
			b.Unrated++
		}
	}
	return sortedBuckets(buckets, func(b *TicketBucket) TicketBucket {
		b.GoodRatio = ratio(float64(b.Good), b.Good+b.Bad)
		return *b
	})
}

// SubjectCount is the number of tickets opened for one subject category.
type SubjectCount struct {
	Subject string `json:"subject"`
	Total   int    `json:"total"`
	Good    int    `json:"good"`
	Bad     int    `json:"bad"`
}

// Subjects counts tickets per subject, most frequent first, ties by subject.
// Tickets without subject are grouped under "(none)".
func Subjects(tickets []calls.TicketRecord) []SubjectCount {
	grouped := lo.GroupBy(tickets, func(t calls.TicketRecord) string {
		if t.Subject == "" {
			return "(none)"
		}
		return t.Subject
	})
	out := lo.MapToSlice(grouped, func(subject string, ts []calls.TicketRecord) SubjectCount {
		return SubjectCount{
			Subject: subject,
			Total:   len(ts),
			Good:    lo.CountBy(ts, func(t calls.TicketRecord) bool { return t.Evaluation == calls.EvaluationGood }),
			Bad:     lo.CountBy(ts, func(t calls.TicketRecord) bool { return t.Evaluation == calls.EvaluationBad }),
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

func sortedBuckets[B any](buckets map[time.Time]*B, done func(*B) B) []B {
	starts := lo.Keys(buckets)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	out := make([]B, 0, len(starts))
	for _, s := range starts {
		out = append(out, done(buckets[s]))
	}
	return out
}
