package calculate

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"callcenter-stats/connectors/config"
	ccsv "callcenter-stats/connectors/csv"
	"callcenter-stats/domain/calls"
	"callcenter-stats/domain/metrics"
	"callcenter-stats/domain/period"
	"callcenter-stats/domain/pipeline"

	lo "github.com/samber/lo"
)

// Run executes the calculate command. It expects flag arguments like:
// -period, -start, -end, -data.
func Run(args []string) error {
	fs := flag.NewFlagSet("calculate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tag := fs.String("period", "", "Period: last7Days|last15Days|ultimoMes|penultimoMes|currentMonth|allRecords|custom (default from config)")
	start := fs.String("start", "", "Custom period start, DD/MM/YYYY or YYYY-MM-DD")
	end := fs.String("end", "", "Custom period end, DD/MM/YYYY or YYYY-MM-DD")
	dataDir := fs.String("data", "", "Data directory (default from config, then ./data)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	if *tag == "" {
		*tag = cfg.Dashboard.DefaultPeriod
	}
	p, err := period.Parse(*tag, *start, *end)
	if err != nil {
		return err
	}
	base := *dataDir
	if base == "" {
		base = cfg.Dashboard.DataDir
	}
	e := pipeline.New(pipeline.Options{
		Validator: calls.NewValidator(cfg.Operators.Deny...),
		Weights:   cfg.Weights(),
		Logger:    slog.Default(),
	})
	return Calculate(context.Background(), e, base, p)
}

// Calculate reads data/calls.csv (and data/tickets.csv when present), runs the
// pipeline for p and writes every output CSV next to the inputs.
func Calculate(ctx context.Context, e *pipeline.Engine, base string, p period.Period) error {
	values, err := ccsv.ReadTable(filepath.Join(base, ccsv.CallsFile))
	if err != nil {
		return fmt.Errorf("read calls: %w", err)
	}
	slog.Info("calculate.start", "period", p.Tag, "rows", max(0, len(values)-1))

	res, runErr := e.Run(ctx, pipeline.TableInput(values), p, func(pct float64, done, total int) {
		slog.Info("calculate.progress", "percent", fmt.Sprintf("%.0f", pct), "processed", done, "total", total)
	})
	if res == nil {
		return runErr
	}
	if err := ccsv.WriteErrors(filepath.Join(base, ccsv.ErrorsFile), res.Errors); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	trends := map[string][]metrics.MonthlyBucket{}
	for _, op := range operators(res.All, e) {
		trends[op] = e.Trend(res.All, op)
	}

	// default order: most calls first
	summaries := lo.Values(res.Operators)
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCalls != summaries[j].TotalCalls {
			return summaries[i].TotalCalls > summaries[j].TotalCalls
		}
		return summaries[i].Operator < summaries[j].Operator
	})
	writes := []struct {
		name string
		fn   func(string) error
	}{
		{ccsv.OperatorMetricsFile, func(path string) error { return ccsv.WriteOperatorMetrics(path, summaries) }},
		{ccsv.RankingsFile, func(path string) error { return ccsv.WriteRankings(path, res.Rankings) }},
		{ccsv.CompanyMetricsFile, func(path string) error { return ccsv.WriteCompanyMetrics(path, res.Company) }},
		{ccsv.CallsSeriesFile, func(path string) error { return ccsv.WriteCallSeries(path, res.Series) }},
		{ccsv.OperatorTrendFile, func(path string) error { return ccsv.WriteOperatorTrend(path, trends) }},
	}
	for _, w := range writes {
		if err := w.fn(filepath.Join(base, w.name)); err != nil {
			slog.Error("calculate.write.error", "file", w.name, "error", err)
			return fmt.Errorf("write %s: %w", w.name, err)
		}
	}
	slog.Info("calculate.calls.done", "window", res.Window, "records", len(res.Records), "operators", len(res.Rankings), "issues", len(res.Errors))

	return calculateTickets(ctx, e, base, p)
}

func calculateTickets(ctx context.Context, e *pipeline.Engine, base string, p period.Period) error {
	values, err := ccsv.ReadTable(filepath.Join(base, ccsv.TicketsFile))
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("calculate.tickets.skip", "reason", "no tickets file")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read tickets: %w", err)
	}
	tr, err := e.Tickets(ctx, pipeline.TableInput(values), p, nil)
	if err != nil {
		slog.Error("calculate.tickets.error", "error", err)
		return err
	}
	if err := ccsv.WriteTicketSeries(filepath.Join(base, ccsv.TicketsSeriesFile), tr.Series); err != nil {
		return err
	}
	if err := ccsv.WriteTicketSubjects(filepath.Join(base, ccsv.TicketSubjectsFile), tr.Subjects); err != nil {
		return err
	}
	slog.Info("calculate.tickets.done", "tickets", len(tr.Records), "subjects", len(tr.Subjects), "issues", len(tr.Errors))
	return nil
}

// operators lists the distinct valid operator names of records.
func operators(records []calls.CallRecord, e *pipeline.Engine) []string {
	names := lo.Uniq(lo.Map(records, func(r calls.CallRecord, _ int) string { return r.Operator }))
	return lo.Filter(names, func(n string, _ int) bool { return e.ValidOperator(n) })
}
