package metrics

import (
	"callcenter-stats/domain/calls"

	"github.com/montanaflynn/stats"
	lo "github.com/samber/lo"
)

// Company is the company-wide view of a set of calls. Calls whose operator is
// a sentinel label still count here.
type Company struct {
	TotalCalls    int `json:"totalCalls"`
	Attended      int `json:"attendedCount"`
	Abandoned     int `json:"abandonedCount"`
	RetainedInIVR int `json:"retainedInIvrCount"`
	UnknownStatus int `json:"unknownStatusCount"`
	Operators     int `json:"operatorCount"`

	AverageDuration float64 `json:"averageDuration"` // TMA
	MedianDuration  float64 `json:"medianDuration"`
	AverageWait     float64 `json:"averageWait"` // TME
	AverageIVR      float64 `json:"averageIvr"`  // TMU
	TotalDuration   float64 `json:"totalDuration"`

	AvgRatingAttendance   float64 `json:"avgRatingAttendance"`
	CountRatingAttendance int     `json:"countRatingAttendance"`
	AvgRatingSolution     float64 `json:"avgRatingSolution"`
	CountRatingSolution   int     `json:"countRatingSolution"`

	AbandonRate float64 `json:"abandonRate"` // percent of all calls
}

// CompanyMetrics summarises records. valid decides which operators count
// towards Operators.
func CompanyMetrics(records []calls.CallRecord, valid func(string) bool) Company {
	c := Company{TotalCalls: len(records)}
	if len(records) == 0 {
		return c
	}
	var sumWait, sumIVR, sumAtt, sumSol float64
	durations := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		switch r.Status {
		case calls.StatusAttended:
			c.Attended++
		case calls.StatusAbandoned:
			c.Abandoned++
		case calls.StatusRetainedInIVR:
			c.RetainedInIVR++
		default:
			c.UnknownStatus++
		}
		c.TotalDuration += r.DurationMinutes
		durations = append(durations, r.DurationMinutes)
		sumWait += r.WaitMinutes
		sumIVR += r.IVRMinutes
		if r.RatingAttendance != nil {
			sumAtt += *r.RatingAttendance
			c.CountRatingAttendance++
		}
		if r.RatingSolution != nil {
			sumSol += *r.RatingSolution
			c.CountRatingSolution++
		}
	}
	c.AverageDuration = ratio(c.TotalDuration, c.TotalCalls)
	if m, err := durations.Median(); err == nil {
		c.MedianDuration = m
	}
	c.AverageWait = ratio(sumWait, c.TotalCalls)
	c.AverageIVR = ratio(sumIVR, c.TotalCalls)
	c.AvgRatingAttendance = ratio(sumAtt, c.CountRatingAttendance)
	c.AvgRatingSolution = ratio(sumSol, c.CountRatingSolution)
	c.AbandonRate = ratio(float64(c.Abandoned), c.TotalCalls) * 100

	names := lo.Uniq(lo.Map(records, func(r calls.CallRecord, _ int) string { return r.Operator }))
	c.Operators = lo.CountBy(names, func(n string) bool { return valid == nil || valid(n) })
	return c
}
