package metrics

import (
	"sort"

	"callcenter-stats/domain/calls"
)

// OperatorSummary accumulates the calls of one operator. The Avg* fields and
// Score are derived by Finalize and must not be set by hand.
type OperatorSummary struct {
	Operator              string  `json:"operator"`
	TotalCalls            int     `json:"totalCalls"`
	SumDuration           float64 `json:"sumDuration"`
	SumRatingAttendance   float64 `json:"sumRatingAttendance"`
	CountRatingAttendance int     `json:"countRatingAttendance"`
	SumRatingSolution     float64 `json:"sumRatingSolution"`
	CountRatingSolution   int     `json:"countRatingSolution"`

	AvgDuration         float64 `json:"avgDuration"`
	AvgRatingAttendance float64 `json:"avgRatingAttendance"`
	AvgRatingSolution   float64 `json:"avgRatingSolution"`
	Score               float64 `json:"score"`
}

// ScoreInput is the view of the summary the scoring formula reads.
func (s OperatorSummary) ScoreInput() ScoreInput {
	return ScoreInput{
		Calls:               s.TotalCalls,
		AvgRatingAttendance: s.AvgRatingAttendance,
		AvgRatingSolution:   s.AvgRatingSolution,
		TotalSpokenMinutes:  s.SumDuration,
	}
}

// Accumulate adds r to the summary of its operator, creating it on first
// sight. Ratings only count when present.
func Accumulate(summaries map[string]*OperatorSummary, r calls.CallRecord) {
	s, ok := summaries[r.Operator]
	if !ok {
		s = &OperatorSummary{Operator: r.Operator}
		summaries[r.Operator] = s
	}
	s.TotalCalls++
	s.SumDuration += r.DurationMinutes
	if r.RatingAttendance != nil {
		s.SumRatingAttendance += *r.RatingAttendance
		s.CountRatingAttendance++
	}
	if r.RatingSolution != nil {
		s.SumRatingSolution += *r.RatingSolution
		s.CountRatingSolution++
	}
}

// Finalize derives averages and scores and returns the summaries ordered by
// total calls, busiest first, ties broken by operator name.
func Finalize(summaries map[string]*OperatorSummary, w Weights) []OperatorSummary {
	out := make([]OperatorSummary, 0, len(summaries))
	for _, s := range summaries {
		f := *s
		f.AvgDuration = ratio(f.SumDuration, f.TotalCalls)
		f.AvgRatingAttendance = ratio(f.SumRatingAttendance, f.CountRatingAttendance)
		f.AvgRatingSolution = ratio(f.SumRatingSolution, f.CountRatingSolution)
		f.Score = w.Score(f.ScoreInput())
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCalls != out[j].TotalCalls {
			return out[i].TotalCalls > out[j].TotalCalls
		}
		return out[i].Operator < out[j].Operator
	})
	return out
}

// Rank orders finalized summaries by score, then total calls, then name.
// The input is not modified.
func Rank(summaries []OperatorSummary) []OperatorSummary {
	out := append([]OperatorSummary{}, summaries...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].TotalCalls != out[j].TotalCalls {
			return out[i].TotalCalls > out[j].TotalCalls
		}
		return out[i].Operator < out[j].Operator
	})
	return out
}

// ByOperator aggregates records whose operator passes valid.
func ByOperator(records []calls.CallRecord, valid func(string) bool, w Weights) []OperatorSummary {
	summaries := map[string]*OperatorSummary{}
	for _, r := range records {
		if valid != nil && !valid(r.Operator) {
			continue
		}
		Accumulate(summaries, r)
	}
	return Finalize(summaries, w)
}

func ratio(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
