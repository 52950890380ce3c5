package cmdimport

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"callcenter-stats/connectors/config"
	ccsv "callcenter-stats/connectors/csv"
	"callcenter-stats/connectors/sheets"

	"golang.org/x/sync/errgroup"
)

// ValueGetter reads a cell range of a spreadsheet.
type ValueGetter interface {
	GetValues(ctx context.Context, spreadsheetID, rangeA1 string) ([][]string, error)
}

// Source describes what one import run fetches.
type Source struct {
	SpreadsheetID string
	CallsRange    string
	TicketsRange  string // empty skips tickets
}

// Run executes the import subcommand. It expects flag arguments like:
// -spreadsheet, -calls-range, -tickets-range, -file, -data.
func Run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	spreadsheet := fs.String("spreadsheet", "", "Spreadsheet ID (optional if config has sheets.spreadsheet_id)")
	callsRange := fs.String("calls-range", "", "A1 range of the calls sheet (default from config)")
	ticketsRange := fs.String("tickets-range", "", "A1 range of the tickets sheet (default from config, \"-\" to skip)")
	file := fs.String("file", "", "Import calls from a local CSV export instead of the Sheets API")
	ticketsFile := fs.String("tickets-file", "", "Import tickets from a local CSV export (with -file)")
	dataDir := fs.String("data", "", "Output directory (default from config, then ./data)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	out := *dataDir
	if out == "" {
		out = cfg.Dashboard.DataDir
	}

	if *file != "" {
		slog.Info("import.start", "mode", "file", "file", *file, "ticketsFile", *ticketsFile, "data", out)
		return ImportFiles(*file, *ticketsFile, out)
	}

	src := Source{
		SpreadsheetID: firstNonEmpty(*spreadsheet, cfg.Sheets.SpreadsheetID),
		CallsRange:    firstNonEmpty(*callsRange, cfg.Sheets.CallsRange),
		TicketsRange:  firstNonEmpty(*ticketsRange, cfg.Sheets.TicketsRange),
	}
	if src.TicketsRange == "-" {
		src.TicketsRange = ""
	}
	if src.SpreadsheetID == "" {
		fmt.Fprintln(os.Stderr, "-spreadsheet is required when no config file with sheets.spreadsheet_id is provided (set CONFIG_PATH to a config file)")
		slog.Error("import.validation.error", "reason", "missing spreadsheet id")
		return fmt.Errorf("missing required -spreadsheet or CONFIG_PATH with sheets.spreadsheet_id")
	}

	ctx := context.Background()
	client, err := sheets.FromEnv(ctx, os.Getenv)
	if err != nil {
		slog.Error("import.validation.error", "reason", "missing credentials", "error", err)
		return err
	}
	slog.Info("import.start", "mode", "sheets", "spreadsheet", src.SpreadsheetID, "calls", src.CallsRange, "tickets", src.TicketsRange, "data", out)
	return Import(ctx, client, src, out)
}

// Import fetches the calls range and, when set, the tickets range
// concurrently and writes them under dataDir.
func Import(ctx context.Context, vg ValueGetter, src Source, dataDir string) error {
	var callRows, ticketRows [][]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := vg.GetValues(gctx, src.SpreadsheetID, src.CallsRange)
		if err != nil {
			slog.Error("phase.calls.fetch.error", "range", src.CallsRange, "error", err)
			return fmt.Errorf("fetch calls %s: %w", src.CallsRange, err)
		}
		slog.Info("phase.calls.fetched", "range", src.CallsRange, "rows", len(rows))
		callRows = rows
		return nil
	})
	if src.TicketsRange != "" {
		g.Go(func() error {
			rows, err := vg.GetValues(gctx, src.SpreadsheetID, src.TicketsRange)
			if err != nil {
				slog.Error("phase.tickets.fetch.error", "range", src.TicketsRange, "error", err)
				return fmt.Errorf("fetch tickets %s: %w", src.TicketsRange, err)
			}
			slog.Info("phase.tickets.fetched", "range", src.TicketsRange, "rows", len(rows))
			ticketRows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeRows(filepath.Join(dataDir, ccsv.CallsFile), callRows); err != nil {
		return err
	}
	if src.TicketsRange != "" {
		if err := writeRows(filepath.Join(dataDir, ccsv.TicketsFile), ticketRows); err != nil {
			return err
		}
	}
	slog.Info("import.done", "calls", dataRows(callRows), "tickets", dataRows(ticketRows), "data", dataDir)
	return nil
}

// ImportFiles copies local CSV exports into dataDir after checking they parse.
func ImportFiles(callsPath, ticketsPath, dataDir string) error {
	rows, err := ccsv.ReadTable(callsPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", callsPath, err)
	}
	if err := writeRows(filepath.Join(dataDir, ccsv.CallsFile), rows); err != nil {
		return err
	}
	var tickets [][]string
	if ticketsPath != "" {
		if tickets, err = ccsv.ReadTable(ticketsPath); err != nil {
			return fmt.Errorf("read %s: %w", ticketsPath, err)
		}
		if err := writeRows(filepath.Join(dataDir, ccsv.TicketsFile), tickets); err != nil {
			return err
		}
	}
	slog.Info("import.done", "calls", dataRows(rows), "tickets", dataRows(tickets), "data", dataDir)
	return nil
}

func writeRows(path string, rows [][]string) error {
	if err := ccsv.WriteTable(path, rows); err != nil {
		slog.Error("import.write.error", "path", path, "error", err)
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("import.write", "path", path, "rows", len(rows))
	return nil
}

func dataRows(rows [][]string) int {
	return max(0, len(rows)-1)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
