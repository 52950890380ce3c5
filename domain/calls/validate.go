package calls

import (
	"math"
	"strconv"
	"strings"

	lo "github.com/samber/lo"
)

// DefaultDenyList holds the sentinel labels the telephony export uses in the
// operator column for calls nobody answered. Entries are folded.
var DefaultDenyList = []string{
	"sem operador",
	"desligados",
	"desligado",
	"excluidos",
	"excluido",
	"agentes indisponiveis",
	"agente indisponivel",
	"rejeitaram",
	"rejeitado",
	"rejeitados",
}

// Validator turns RawFields into records and decides which operator names may
// be attributed calls.
type Validator struct {
	deny []string
}

// NewValidator builds a Validator using DefaultDenyList plus extra entries.
func NewValidator(extra ...string) *Validator {
	deny := append(append([]string{}, DefaultDenyList...), lo.Map(extra, func(s string, _ int) string { return Fold(s) })...)
	deny = lo.Uniq(lo.Compact(deny))
	return &Validator{deny: deny}
}

// ValidOperator reports whether name identifies a real agent. Empty,
// numeric-only and sentinel names are rejected.
func (v *Validator) ValidOperator(name string) bool {
	n := Fold(name)
	if n == "" {
		return false
	}
	if numericOnly(n) {
		return false
	}
	return !lo.SomeBy(v.deny, func(d string) bool { return strings.Contains(n, d) })
}

// Call builds a CallRecord from fields read with CallLayout. line is the
// 1-based sheet line used in messages. ok is false only when the date is
// missing or unreadable; other bad cells are recorded in issues and read as
// zero or absent.
func (v *Validator) Call(fields RawFields, line int, issues *Issues) (rec CallRecord, ok bool) {
	raw, present := fields.Get(FieldDate)
	if !present {
		issues.Errorf("line %d: missing date", line)
		return CallRecord{}, false
	}
	date, parsed := ParseDate(raw)
	if !parsed {
		issues.Errorf("line %d: invalid date %q", line, raw)
		return CallRecord{}, false
	}
	op, _ := fields.Get(FieldOperator)
	status, _ := fields.Get(FieldStatus)
	rec = CallRecord{
		Line:            line,
		Operator:        strings.Join(strings.Fields(op), " "),
		Date:            date,
		Status:          ParseStatus(status),
		DurationMinutes: duration(fields, FieldDuration, line, issues),
		WaitMinutes:     duration(fields, FieldWait, line, issues),
		IVRMinutes:      duration(fields, FieldIVR, line, issues),
	}
	rec.RatingAttendance = rating(fields, FieldRatingAttendance, line, issues)
	rec.RatingSolution = rating(fields, FieldRatingSolution, line, issues)
	if !v.ValidOperator(rec.Operator) {
		key := "operator:" + Fold(rec.Operator)
		if rec.Operator == "" {
			issues.Warnf(key, "calls without operator are excluded from operator metrics")
		} else {
			issues.Warnf(key, "operator %q is excluded from operator metrics", rec.Operator)
		}
	}
	return rec, true
}

// Ticket builds a TicketRecord from fields read with TicketLayout.
func (v *Validator) Ticket(fields RawFields, line int, issues *Issues) (TicketRecord, bool) {
	raw, present := fields.Get(FieldDate)
	if !present {
		issues.Errorf("line %d: missing date", line)
		return TicketRecord{}, false
	}
	date, parsed := ParseDate(raw)
	if !parsed {
		issues.Errorf("line %d: invalid date %q", line, raw)
		return TicketRecord{}, false
	}
	op, _ := fields.Get(FieldOperator)
	subject, _ := fields.Get(FieldSubject)
	label, _ := fields.Get(FieldEvaluation)
	ev := ParseEvaluation(label)
	if label != "" && ev == EvaluationUnrated {
		issues.Errorf("line %d: unknown evaluation %q", line, label)
	}
	return TicketRecord{
		Line:       line,
		Operator:   strings.TrimSpace(op),
		Date:       date,
		Subject:    strings.TrimSpace(subject),
		Evaluation: ev,
	}, true
}

func duration(fields RawFields, f Field, line int, issues *Issues) float64 {
	raw, ok := fields.Get(f)
	if !ok {
		return 0
	}
	m := ParseDurationToMinutes(raw)
	if m == 0 && !zeroDuration(raw) {
		issues.Errorf("line %d: invalid %s %q", line, f, raw)
	}
	return m
}

// zeroDuration tells an explicit zero ("00:00:00", "0") from unreadable input.
func zeroDuration(s string) bool {
	return strings.Trim(s, "0:., ") == ""
}

func rating(fields RawFields, f Field, line int, issues *Issues) *float64 {
	raw, ok := fields.Get(f)
	if !ok || raw == "-" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		issues.Errorf("line %d: invalid %s %q", line, f, raw)
		return nil
	}
	if math.IsNaN(n) || n < 1 || n > 5 {
		issues.Errorf("line %d: %s %v out of range 1-5", line, f, n)
		return nil
	}
	return &n
}

func numericOnly(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ', r == '-', r == '.', r == '/', r == '(', r == ')', r == '+':
		default:
			return false
		}
	}
	return digits > 0
}
