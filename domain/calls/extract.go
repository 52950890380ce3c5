package calls

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RawFields holds the still-unparsed values of one row, keyed by Field.
// A field that is missing from the row is absent from the map.
type RawFields map[Field]string

// Get returns the value of f and whether the row carried it.
func (rf RawFields) Get(f Field) (string, bool) {
	v, ok := rf[f]
	return v, ok
}

// Extract reads every column of the layout from row. It never fails: cells
// outside the row, missing keys and blank values are simply absent.
func Extract(row RawRow, layout Layout) RawFields {
	out := make(RawFields, len(layout.Columns))
	for _, c := range layout.Columns {
		var (
			v  string
			ok bool
		)
		switch row.Shape() {
		case ShapeObject:
			v, ok = row.Lookup(c.Aliases...)
		default:
			v, ok = row.At(c.Index)
		}
		if ok {
			out[c.Field] = v
		}
	}
	return out
}

// Fold trims, lowercases and strips diacritics so "Excluídos " and "excluidos"
// compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(folded), " ")
}
