package metrics

import (
	"time"

	"callcenter-stats/domain/calls"

	"github.com/montanaflynn/stats"
)

// MonthlyBucket is one month of an operator's history.
type MonthlyBucket struct {
	PeriodKey         string    `json:"periodKey"` // MM/YYYY
	Month             time.Time `json:"month"`
	CallCount         int       `json:"callCount"`
	SumDuration       float64   `json:"sumDuration"`
	RatingsAttendance []float64 `json:"ratingsAttendance"`
	RatingsSolution   []float64 `json:"ratingsSolution"`

	AvgDuration            float64 `json:"avgDuration"`
	AvgRatingAttendance    float64 `json:"avgRatingAttendance"`
	AvgRatingSolution      float64 `json:"avgRatingSolution"`
	MedianRatingAttendance float64 `json:"medianRatingAttendance"`
	MedianRatingSolution   float64 `json:"medianRatingSolution"`
	Score                  float64 `json:"score"`
}

// ScoreInput is the monthly view the performance score reads.
func (b MonthlyBucket) ScoreInput() ScoreInput {
	return ScoreInput{
		Calls:               b.CallCount,
		AvgRatingAttendance: b.AvgRatingAttendance,
		AvgRatingSolution:   b.AvgRatingSolution,
		TotalSpokenMinutes:  b.SumDuration,
	}
}

// Trend builds the monthly history of operator, oldest month first. Operator
// names are compared after folding.
func Trend(records []calls.CallRecord, operator string, w Weights) []MonthlyBucket {
	want := calls.Fold(operator)
	buckets := map[time.Time]*MonthlyBucket{}
	for _, r := range records {
		if r.Date.IsZero() || calls.Fold(r.Operator) != want {
			continue
		}
		start := ByMonth.BucketStart(r.Date)
		b, ok := buckets[start]
		if !ok {
			b = &MonthlyBucket{
				PeriodKey:         start.Format("01/2006"),
				Month:             start,
				RatingsAttendance: []float64{},
				RatingsSolution:   []float64{},
			}
			buckets[start] = b
		}
		b.CallCount++
		b.SumDuration += r.DurationMinutes
		if r.RatingAttendance != nil {
			b.RatingsAttendance = append(b.RatingsAttendance, *r.RatingAttendance)
		}
		if r.RatingSolution != nil {
			b.RatingsSolution = append(b.RatingsSolution, *r.RatingSolution)
		}
	}
	return sortedBuckets(buckets, func(b *MonthlyBucket) MonthlyBucket {
		b.AvgDuration = ratio(b.SumDuration, b.CallCount)
		b.AvgRatingAttendance, b.MedianRatingAttendance = meanMedian(b.RatingsAttendance)
		b.AvgRatingSolution, b.MedianRatingSolution = meanMedian(b.RatingsSolution)
		b.Score = w.Score(b.ScoreInput())
		return *b
	})
}

func meanMedian(v []float64) (mean, median float64) {
	if len(v) == 0 {
		return 0, 0
	}
	mean, _ = stats.Mean(v)
	median, _ = stats.Median(v)
	return mean, median
}
