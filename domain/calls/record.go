package calls

import (
	"strings"
	"time"
)

// Status is the outcome of a call as reported by the telephony export.
type Status string

const (
	StatusAttended      Status = "attended"
	StatusAbandoned     Status = "abandoned"
	StatusRetainedInIVR Status = "retained_in_ivr"
	StatusUnknown       Status = "unknown"
)

// ParseStatus maps the free-text "Tipo" cell to a Status.
func ParseStatus(s string) Status {
	v := Fold(s)
	switch {
	case v == "":
		return StatusUnknown
	case strings.HasPrefix(v, "atendid"), v == "attended", v == "answered":
		return StatusAttended
	case strings.HasPrefix(v, "abandon"):
		return StatusAbandoned
	case strings.Contains(v, "ura"), strings.Contains(v, "ivr"), strings.HasPrefix(v, "retid"):
		return StatusRetainedInIVR
	}
	return StatusUnknown
}

// CallRecord is one validated row of the calls sheet.
// Ratings are nil when the caller did not answer the survey.
type CallRecord struct {
	Line             int       `json:"line"`
	Operator         string    `json:"operator"`
	Date             time.Time `json:"date"`
	DurationMinutes  float64   `json:"durationMinutes"`
	WaitMinutes      float64   `json:"waitMinutes"`
	IVRMinutes       float64   `json:"ivrMinutes"`
	RatingAttendance *float64  `json:"ratingAttendance,omitempty"`
	RatingSolution   *float64  `json:"ratingSolution,omitempty"`
	Status           Status    `json:"status"`
}

// Evaluation is the good/bad label put on a support ticket.
type Evaluation string

const (
	EvaluationGood    Evaluation = "good"
	EvaluationBad     Evaluation = "bad"
	EvaluationUnrated Evaluation = "unrated"
)

// ParseEvaluation maps "bom"/"ruim" (and their English forms) to an Evaluation.
func ParseEvaluation(s string) Evaluation {
	switch Fold(s) {
	case "bom", "boa", "good", "otimo", "positivo":
		return EvaluationGood
	case "ruim", "bad", "pessimo", "negativo":
		return EvaluationBad
	}
	return EvaluationUnrated
}

// TicketRecord is one validated row of the tickets sheet.
type TicketRecord struct {
	Line       int        `json:"line"`
	Operator   string     `json:"operator"`
	Date       time.Time  `json:"date"`
	Subject    string     `json:"subject"`
	Evaluation Evaluation `json:"evaluation"`
}
