package calls

import (
	"errors"
	"fmt"
	"strings"

	lo "github.com/samber/lo"
)

// Field names a semantic column of a sheet.
type Field string

const (
	FieldOperator         Field = "operator"
	FieldDate             Field = "date"
	FieldStatus           Field = "status"
	FieldIVR              Field = "ivr"
	FieldWait             Field = "wait"
	FieldDuration         Field = "duration"
	FieldRatingAttendance Field = "rating_attendance"
	FieldRatingSolution   Field = "rating_solution"
	FieldSubject          Field = "subject"
	FieldEvaluation       Field = "evaluation"
)

// ErrLayoutMismatch is returned when a header row does not match the layout
// the rows are going to be read with.
var ErrLayoutMismatch = errors.New("header does not match sheet layout")

// Column binds a Field to its position in array rows and to its accepted
// names in object rows.
type Column struct {
	Field    Field
	Index    int
	Aliases  []string // object rows: first non-empty alias wins
	Hints    []string // folded substrings expected in the header cell
	Required bool
}

// Layout is the column map of one known sheet export.
type Layout struct {
	Name    string
	Columns []Column
}

// CallLayout is the call-detail export of the telephony platform.
var CallLayout = Layout{
	Name: "calls",
	Columns: []Column{
		{Field: FieldStatus, Index: 1, Aliases: []string{"Tipo", "Status", "status"}, Hints: []string{"tipo", "status"}},
		{Field: FieldDate, Index: 3, Aliases: []string{"Data", "Data Inicial", "date"}, Hints: []string{"data", "date"}, Required: true},
		{Field: FieldIVR, Index: 11, Aliases: []string{"Tempo na URA", "Tempo URA", "ivrTime"}, Hints: []string{"ura", "ivr"}},
		{Field: FieldWait, Index: 12, Aliases: []string{"Tempo de Espera", "Tempo Espera", "waitTime"}, Hints: []string{"espera", "wait"}},
		{Field: FieldDuration, Index: 14, Aliases: []string{"Tempo Falado", "Tempo Total", "duration"}, Hints: []string{"falado", "total", "duration"}},
		{Field: FieldOperator, Index: 17, Aliases: []string{"Nome do Atendente", "Atendente", "Operador", "operator"}, Hints: []string{"atendente", "operador", "operator"}, Required: true},
		{Field: FieldRatingAttendance, Index: 27, Aliases: []string{"Nota Atendimento", "Pergunta Atendente", "ratingAttendance"}, Hints: []string{"atend", "pergunta"}},
		{Field: FieldRatingSolution, Index: 28, Aliases: []string{"Nota Solução", "Nota Solucao", "Pergunta Solução", "ratingSolution"}, Hints: []string{"solu", "pergunta"}},
	},
}

// TicketLayout is the helpdesk ticket export.
var TicketLayout = Layout{
	Name: "tickets",
	Columns: []Column{
		{Field: FieldDate, Index: 3, Aliases: []string{"Data", "Data de Abertura", "date"}, Hints: []string{"data", "date"}, Required: true},
		{Field: FieldOperator, Index: 6, Aliases: []string{"Responsável", "Responsavel", "Operador", "operator"}, Hints: []string{"respons", "operador", "operator"}},
		{Field: FieldSubject, Index: 10, Aliases: []string{"Assunto", "Categoria", "subject"}, Hints: []string{"assunto", "categoria", "subject"}},
		{Field: FieldEvaluation, Index: 14, Aliases: []string{"Avaliação", "Avaliacao", "evaluation"}, Hints: []string{"avalia", "evaluation"}},
	},
}

// Column returns the column bound to f.
func (l Layout) Column(f Field) (Column, bool) {
	return lo.Find(l.Columns, func(c Column) bool { return c.Field == f })
}

// Width is the minimum number of cells an array row needs to carry every column.
func (l Layout) Width() int {
	return lo.MaxBy(l.Columns, func(a, b Column) bool { return a.Index > b.Index }).Index + 1
}

// ValidateHeader checks a header row against the layout. Only required
// columns are enforced; a header cell that matches none of a required
// column's hints means the export changed and positional reads would be wrong.
func (l Layout) ValidateHeader(header []string) error {
	if len(header) == 0 {
		return fmt.Errorf("%s: %w: empty header", l.Name, ErrLayoutMismatch)
	}
	for _, c := range l.Columns {
		if !c.Required {
			continue
		}
		if c.Index >= len(header) {
			return fmt.Errorf("%s: %w: column %d (%s) missing, header has %d columns", l.Name, ErrLayoutMismatch, c.Index, c.Field, len(header))
		}
		if len(c.Hints) == 0 {
			continue
		}
		cell := Fold(header[c.Index])
		if !lo.SomeBy(c.Hints, func(h string) bool { return strings.Contains(cell, h) }) {
			return fmt.Errorf("%s: %w: column %d is %q, expected %s", l.Name, ErrLayoutMismatch, c.Index, header[c.Index], c.Field)
		}
	}
	return nil
}
