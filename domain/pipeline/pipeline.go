// Package pipeline turns raw sheet rows into the dashboard's validated
// records, company metrics, operator metrics and rankings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"callcenter-stats/domain/calls"
	"callcenter-stats/domain/metrics"
	"callcenter-stats/domain/period"
	"callcenter-stats/telemetry"

	lo "github.com/samber/lo"
)

// NoData is the error string reported for an input without data rows.
const NoData = "no data: the sheet has no data rows"

// Input is one sheet: its header row and its data rows. Header may be empty
// when every row is an object row.
type Input struct {
	Header []string
	Rows   []calls.RawRow
}

// TableInput splits a 2-D sheet whose first row is the header.
func TableInput(values [][]string) Input {
	header, rows := calls.Table(values)
	return Input{Header: header, Rows: rows}
}

// ObjectInput wraps name-keyed rows.
func ObjectInput(values []map[string]string) Input {
	return Input{Rows: calls.Objects(values)}
}

// Options configures an Engine. Zero values pick the defaults.
type Options struct {
	Validator   *calls.Validator
	Weights     metrics.Weights
	Granularity metrics.Granularity // empty picks it from the period span
	Now         func() time.Time
	Yield       func()
	Logger      *slog.Logger
}

// Engine runs the pipeline. It holds configuration only, so one Engine may
// serve any number of runs.
type Engine struct {
	validator   *calls.Validator
	weights     metrics.Weights
	granularity metrics.Granularity
	now         func() time.Time
	yield       func()
	log         *slog.Logger
}

// New builds an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		validator:   opts.Validator,
		weights:     opts.Weights,
		granularity: opts.Granularity,
		now:         opts.Now,
		yield:       opts.Yield,
		log:         opts.Logger,
	}
	if e.validator == nil {
		e.validator = calls.NewValidator()
	}
	if e.weights == (metrics.Weights{}) {
		e.weights = metrics.DefaultWeights
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// Result is what the dashboard renders for one period.
type Result struct {
	Period      period.Tag                         `json:"period"`
	Window      period.Window                      `json:"window"`
	Granularity metrics.Granularity                `json:"granularity"`
	Records     []calls.CallRecord                 `json:"dadosFiltrados"`
	Company     metrics.Company                    `json:"metricas"`
	Operators   map[string]metrics.OperatorSummary `json:"metricasOperadores"`
	Rankings    []metrics.OperatorSummary          `json:"rankings"`
	Series      []metrics.CallBucket               `json:"series"`
	Errors      []string                           `json:"erros"`
	Job         Job                                `json:"job"`

	// All holds every valid record before period filtering, for per-operator
	// history views.
	All []calls.CallRecord `json:"-"`
}

func emptyResult(p period.Period, errs ...string) *Result {
	return &Result{
		Period:    p.Tag,
		Records:   []calls.CallRecord{},
		Operators: map[string]metrics.OperatorSummary{},
		Rankings:  []metrics.OperatorSummary{},
		Series:    []metrics.CallBucket{},
		Errors:    append([]string{}, errs...),
		All:       []calls.CallRecord{},
	}
}

// Run reads the calls sheet in chunks, then aggregates the records of p.
// Bad rows never fail a run; they surface in Result.Errors. The returned
// error is calls.ErrLayoutMismatch when the header does not fit CallLayout,
// or ctx's error when the run was superseded.
func (e *Engine) Run(ctx context.Context, in Input, p period.Period, progress Progress) (*Result, error) {
	started := time.Now()
	defer func() { telemetry.PipelineDuration.Observe(time.Since(started).Seconds()) }()

	if len(in.Rows) == 0 {
		e.log.Warn("pipeline.no_data", "layout", calls.CallLayout.Name)
		telemetry.PipelineRuns.WithLabelValues("no_data").Inc()
		return emptyResult(p, NoData), nil
	}
	if err := checkHeader(in, calls.CallLayout); err != nil {
		e.log.Error("pipeline.layout.error", "error", err)
		telemetry.PipelineRuns.WithLabelValues("layout_mismatch").Inc()
		return emptyResult(p, err.Error()), err
	}

	records, issues, job, err := e.parseCalls(ctx, in.Rows, progress)
	if err != nil {
		telemetry.PipelineRuns.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("pipeline canceled after %d of %d rows: %w", job.ProcessedRows, job.TotalRows, err)
	}
	res := e.Aggregate(records, p, issues)
	res.Job = job
	telemetry.PipelineRuns.WithLabelValues("ok").Inc()
	telemetry.OperatorsRanked.Set(float64(len(res.Rankings)))
	e.log.Info("pipeline.done", "job", job.ID, "rows", job.TotalRows, "records", len(records), "filtered", len(res.Records), "operators", len(res.Operators), "issues", len(res.Errors), "duration", time.Since(started))
	return res, nil
}

// Parse only validates the rows of a calls sheet and returns every accepted
// record with the issues found.
func (e *Engine) Parse(ctx context.Context, in Input, progress Progress) ([]calls.CallRecord, *calls.Issues, error) {
	if len(in.Rows) == 0 {
		issues := calls.NewIssues()
		issues.Errorf(NoData)
		return []calls.CallRecord{}, issues, nil
	}
	if err := checkHeader(in, calls.CallLayout); err != nil {
		return nil, nil, err
	}
	records, issues, _, err := e.parseCalls(ctx, in.Rows, progress)
	return records, issues, err
}

func (e *Engine) parseCalls(ctx context.Context, rows []calls.RawRow, progress Progress) ([]calls.CallRecord, *calls.Issues, Job, error) {
	issues := calls.NewIssues()
	records := make([]calls.CallRecord, 0, len(rows))
	logged := func(pct float64, done, total int) {
		e.log.Debug("pipeline.chunk.done", "layout", calls.CallLayout.Name, "processed", done, "total", total, "percent", pct)
		if progress != nil {
			progress(pct, done, total)
		}
	}
	job, err := chunked(ctx, rows, e.yield, logged, func(i int, row calls.RawRow) {
		rec, ok := e.validator.Call(calls.Extract(row, calls.CallLayout), i+2, issues)
		if !ok {
			telemetry.RowsProcessed.WithLabelValues(calls.CallLayout.Name, "rejected").Inc()
			return
		}
		telemetry.RowsProcessed.WithLabelValues(calls.CallLayout.Name, "accepted").Inc()
		records = append(records, rec)
	})
	telemetry.RowIssues.WithLabelValues(calls.CallLayout.Name).Add(float64(issues.Len()))
	return records, issues, job, err
}

// Aggregate filters records to p and computes every dashboard aggregate in a
// single pass over the full filtered set. issues is read, not modified.
func (e *Engine) Aggregate(records []calls.CallRecord, p period.Period, issues *calls.Issues) *Result {
	if issues == nil {
		issues = calls.NewIssues()
	}
	res := emptyResult(p)
	res.All = records
	if len(records) == 0 {
		res.Errors = append(issues.All(), NoData)
		return res
	}

	filtered, w, _ := period.Filter(records, p, e.now())
	res.Window = w
	res.Records = filtered
	res.Granularity = e.granularity
	if res.Granularity == "" {
		res.Granularity = metrics.GranularityFor(w.Days())
	}

	res.Company = metrics.CompanyMetrics(filtered, e.validator.ValidOperator)
	summaries := metrics.ByOperator(filtered, e.validator.ValidOperator, e.weights)
	res.Operators = lo.SliceToMap(summaries, func(s metrics.OperatorSummary) (string, metrics.OperatorSummary) {
		return s.Operator, s
	})
	res.Rankings = metrics.Rank(summaries)
	res.Series = metrics.GroupCalls(filtered, res.Granularity)
	res.Errors = issues.All()
	return res
}

// Trend returns the monthly history of one operator over every record.
func (e *Engine) Trend(records []calls.CallRecord, operator string) []metrics.MonthlyBucket {
	return metrics.Trend(records, operator, e.weights)
}

// ValidOperator reports whether name counts towards operator metrics.
func (e *Engine) ValidOperator(name string) bool {
	return e.validator.ValidOperator(name)
}

// TicketResult is the tickets view of a period.
type TicketResult struct {
	Period      period.Tag             `json:"period"`
	Window      period.Window          `json:"window"`
	Granularity metrics.Granularity    `json:"granularity"`
	Records     []calls.TicketRecord   `json:"dadosFiltrados"`
	Series      []metrics.TicketBucket `json:"series"`
	Subjects    []metrics.SubjectCount `json:"subjects"`
	Errors      []string               `json:"erros"`
}

// Tickets reads a tickets sheet and aggregates the tickets of p.
func (e *Engine) Tickets(ctx context.Context, in Input, p period.Period, progress Progress) (*TicketResult, error) {
	res := &TicketResult{
		Period:   p.Tag,
		Records:  []calls.TicketRecord{},
		Series:   []metrics.TicketBucket{},
		Subjects: []metrics.SubjectCount{},
	}
	if len(in.Rows) == 0 {
		res.Errors = []string{NoData}
		return res, nil
	}
	if err := checkHeader(in, calls.TicketLayout); err != nil {
		res.Errors = []string{err.Error()}
		return res, err
	}
	issues := calls.NewIssues()
	tickets := make([]calls.TicketRecord, 0, len(in.Rows))
	if _, err := chunked(ctx, in.Rows, e.yield, progress, func(i int, row calls.RawRow) {
		if t, ok := e.validator.Ticket(calls.Extract(row, calls.TicketLayout), i+2, issues); ok {
			tickets = append(tickets, t)
		}
	}); err != nil {
		return nil, err
	}
	telemetry.RowsProcessed.WithLabelValues(calls.TicketLayout.Name, "accepted").Add(float64(len(tickets)))
	telemetry.RowsProcessed.WithLabelValues(calls.TicketLayout.Name, "rejected").Add(float64(len(in.Rows) - len(tickets)))
	telemetry.RowIssues.WithLabelValues(calls.TicketLayout.Name).Add(float64(issues.Len()))

	filtered, w, ok := period.FilterTickets(tickets, p, e.now())
	if !ok {
		res.Errors = append(issues.All(), NoData)
		return res, nil
	}
	res.Window = w
	res.Records = filtered
	res.Granularity = e.granularity
	if res.Granularity == "" {
		res.Granularity = metrics.GranularityFor(w.Days())
	}
	res.Series = metrics.GroupTickets(filtered, res.Granularity)
	res.Subjects = metrics.Subjects(filtered)
	res.Errors = issues.All()
	return res, nil
}

// checkHeader validates the header when positional rows will be read.
func checkHeader(in Input, layout calls.Layout) error {
	if !lo.SomeBy(in.Rows, func(r calls.RawRow) bool { return r.Shape() == calls.ShapeArray }) {
		return nil
	}
	if err := layout.ValidateHeader(in.Header); err != nil {
		if errors.Is(err, calls.ErrLayoutMismatch) {
			return err
		}
		return fmt.Errorf("%w: %v", calls.ErrLayoutMismatch, err)
	}
	return nil
}
