package csv

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"callcenter-stats/domain/metrics"

	lo "github.com/samber/lo"
)

// Output file names written by calculate and served by web.
const (
	CallsFile           = "calls.csv"
	TicketsFile         = "tickets.csv"
	OperatorMetricsFile = "operator_metrics.csv"
	RankingsFile        = "rankings.csv"
	CompanyMetricsFile  = "company_metrics.csv"
	CallsSeriesFile     = "calls_series.csv"
	OperatorTrendFile   = "operator_trend.csv"
	ErrorsFile          = "errors.csv"
	TicketsSeriesFile   = "tickets_series.csv"
	TicketSubjectsFile  = "ticket_subjects.csv"
)

// ReadTable loads every row of a CSV file, header included. Rows may have
// different lengths, as spreadsheet exports drop trailing empty cells.
func ReadTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readAll(f)
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// ReadObjects loads a CSV file and returns a slice of objects keyed by headers.
// Values are kept as strings to avoid lossy or incorrect type coercion.
func ReadObjects(path string) ([]map[string]string, error) {
	records, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}
	headers := records[0]
	res := make([]map[string]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		obj := make(map[string]string, len(headers))
		for j := 0; j < len(headers) && j < len(row); j++ {
			obj[headers[j]] = row[j]
		}
		res = append(res, obj)
	}
	return res, nil
}

// WriteTable writes rows as-is, creating parent directories.
func WriteTable(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func write(path string, header []string, rows [][]string) error {
	return WriteTable(path, append([][]string{header}, rows...))
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// WriteOperatorMetrics writes summaries in the order given.
func WriteOperatorMetrics(path string, summaries []metrics.OperatorSummary) error {
	header := []string{"operator", "total_calls", "sum_duration", "avg_duration", "count_rating_attendance", "avg_rating_attendance", "count_rating_solution", "avg_rating_solution", "score"}
	return write(path, header, lo.Map(summaries, func(s metrics.OperatorSummary, _ int) []string {
		return []string{
			s.Operator,
			strconv.Itoa(s.TotalCalls),
			ff(s.SumDuration),
			ff(s.AvgDuration),
			strconv.Itoa(s.CountRatingAttendance),
			ff(s.AvgRatingAttendance),
			strconv.Itoa(s.CountRatingSolution),
			ff(s.AvgRatingSolution),
			strconv.FormatFloat(s.Score, 'f', 1, 64),
		}
	}))
}

// WriteRankings writes the ranking with its 1-based position.
func WriteRankings(path string, ranking []metrics.OperatorSummary) error {
	header := []string{"position", "operator", "score", "total_calls", "avg_rating_attendance", "avg_rating_solution", "sum_duration"}
	return write(path, header, lo.Map(ranking, func(s metrics.OperatorSummary, i int) []string {
		return []string{
			strconv.Itoa(i + 1),
			s.Operator,
			strconv.FormatFloat(s.Score, 'f', 1, 64),
			strconv.Itoa(s.TotalCalls),
			ff(s.AvgRatingAttendance),
			ff(s.AvgRatingSolution),
			ff(s.SumDuration),
		}
	}))
}

// WriteCompanyMetrics writes the company view as metric,value pairs.
func WriteCompanyMetrics(path string, c metrics.Company) error {
	rows := [][]string{
		{"total_calls", strconv.Itoa(c.TotalCalls)},
		{"attended", strconv.Itoa(c.Attended)},
		{"abandoned", strconv.Itoa(c.Abandoned)},
		{"retained_in_ivr", strconv.Itoa(c.RetainedInIVR)},
		{"unknown_status", strconv.Itoa(c.UnknownStatus)},
		{"operators", strconv.Itoa(c.Operators)},
		{"average_duration", ff(c.AverageDuration)},
		{"median_duration", ff(c.MedianDuration)},
		{"average_wait", ff(c.AverageWait)},
		{"average_ivr", ff(c.AverageIVR)},
		{"total_duration", ff(c.TotalDuration)},
		{"avg_rating_attendance", ff(c.AvgRatingAttendance)},
		{"avg_rating_solution", ff(c.AvgRatingSolution)},
		{"abandon_rate", ff(c.AbandonRate)},
	}
	return write(path, []string{"metric", "value"}, rows)
}

// WriteCallSeries writes call buckets in chronological order.
func WriteCallSeries(path string, buckets []metrics.CallBucket) error {
	header := []string{"bucket", "start", "total_calls", "attended", "abandoned", "retained_in_ivr", "unknown_status", "avg_duration", "avg_wait", "avg_rating_attendance", "avg_rating_solution"}
	return write(path, header, lo.Map(buckets, func(b metrics.CallBucket, _ int) []string {
		return []string{
			b.Key,
			b.Start.Format("2006-01-02"),
			strconv.Itoa(b.TotalCalls),
			strconv.Itoa(b.Attended),
			strconv.Itoa(b.Abandoned),
			strconv.Itoa(b.RetainedInIVR),
			strconv.Itoa(b.UnknownStatus),
			ff(b.AvgDuration),
			ff(b.AvgWait),
			ff(b.AvgRatingAttendance),
			ff(b.AvgRatingSolution),
		}
	}))
}

// WriteOperatorTrend writes the monthly history of every operator, operators
// sorted by name.
func WriteOperatorTrend(path string, trends map[string][]metrics.MonthlyBucket) error {
	header := []string{"operator", "period", "calls", "sum_duration", "avg_rating_attendance", "median_rating_attendance", "avg_rating_solution", "median_rating_solution", "score"}
	ops := lo.Keys(trends)
	sort.Strings(ops)
	var rows [][]string
	for _, op := range ops {
		for _, b := range trends[op] {
			rows = append(rows, []string{
				op,
				b.PeriodKey,
				strconv.Itoa(b.CallCount),
				ff(b.SumDuration),
				ff(b.AvgRatingAttendance),
				ff(b.MedianRatingAttendance),
				ff(b.AvgRatingSolution),
				ff(b.MedianRatingSolution),
				strconv.FormatFloat(b.Score, 'f', 1, 64),
			})
		}
	}
	return write(path, header, rows)
}

// WriteErrors writes one issue message per row.
func WriteErrors(path string, errs []string) error {
	return write(path, []string{"message"}, lo.Map(errs, func(e string, _ int) []string { return []string{e} }))
}

// WriteTicketSeries writes ticket buckets in chronological order.
func WriteTicketSeries(path string, buckets []metrics.TicketBucket) error {
	header := []string{"bucket", "start", "total", "good", "bad", "unrated", "good_ratio"}
	return write(path, header, lo.Map(buckets, func(b metrics.TicketBucket, _ int) []string {
		return []string{
			b.Key,
			b.Start.Format("2006-01-02"),
			strconv.Itoa(b.Total),
			strconv.Itoa(b.Good),
			strconv.Itoa(b.Bad),
			strconv.Itoa(b.Unrated),
			ff(b.GoodRatio),
		}
	}))
}

// WriteTicketSubjects writes subject counts in the order given.
func WriteTicketSubjects(path string, subjects []metrics.SubjectCount) error {
	header := []string{"subject", "total", "good", "bad"}
	return write(path, header, lo.Map(subjects, func(s metrics.SubjectCount, _ int) []string {
		return []string{s.Subject, strconv.Itoa(s.Total), strconv.Itoa(s.Good), strconv.Itoa(s.Bad)}
	}))
}
