package metrics

import (
	"errors"
	"fmt"
	"math"
)

// ScoreInput is what the performance score is computed from: one operator,
// usually over one month.
type ScoreInput struct {
	Calls               int
	AvgRatingAttendance float64
	AvgRatingSolution   float64
	TotalSpokenMinutes  float64
}

// Weights parameterises the performance score.
type Weights struct {
	Calls      float64 `yaml:"calls"`
	Attendance float64 `yaml:"attendance"`
	Solution   float64 `yaml:"solution"`
	Duration   float64 `yaml:"duration"`

	// CallSaturation is the call count at which the volume term maxes out.
	CallSaturation float64 `yaml:"call_saturation"`
	// DurationScale is the total talk time, in minutes, at which the
	// duration term reaches zero.
	DurationScale float64 `yaml:"duration_scale"`
}

// DefaultWeights rewards volume up to 50 calls, then the two rating axes, and
// penalises total talk time linearly down to zero at 10 minutes.
var DefaultWeights = Weights{
	Calls:          0.25,
	Attendance:     0.30,
	Solution:       0.25,
	Duration:       0.20,
	CallSaturation: 50,
	DurationScale:  10,
}

// ErrInvalidWeights is returned by Validate.
var ErrInvalidWeights = errors.New("invalid score weights")

// Validate checks that weights are non-negative and sum to 1, and that the
// scales are positive.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Calls, w.Attendance, w.Solution, w.Duration} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
	}
	if sum := w.Calls + w.Attendance + w.Solution + w.Duration; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidWeights, sum)
	}
	if w.CallSaturation <= 0 || w.DurationScale <= 0 {
		return fmt.Errorf("%w: call_saturation and duration_scale must be positive", ErrInvalidWeights)
	}
	return nil
}

// Score computes the 0-100 performance score with DefaultWeights.
func Score(in ScoreInput) float64 { return DefaultWeights.Score(in) }

// Score computes the weighted 0-100 performance score, rounded to one decimal.
func (w Weights) Score(in ScoreInput) float64 {
	normCalls := math.Min(float64(in.Calls)/w.CallSaturation, 1) * 100
	normAttendance := in.AvgRatingAttendance / 5 * 100
	normSolution := in.AvgRatingSolution / 5 * 100
	normDuration := math.Max(0, 100-(in.TotalSpokenMinutes/w.DurationScale)*100)

	score := w.Calls*clamp(normCalls) +
		w.Attendance*clamp(normAttendance) +
		w.Solution*clamp(normSolution) +
		w.Duration*clamp(normDuration)
	return math.Round(clamp(score)*10) / 10
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
