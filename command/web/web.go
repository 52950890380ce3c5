package web

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"callcenter-stats/connectors/config"
	ccsv "callcenter-stats/connectors/csv"
	"callcenter-stats/domain/calls"
	"callcenter-stats/domain/period"
	"callcenter-stats/domain/pipeline"
	"callcenter-stats/telemetry"

	"github.com/labstack/echo/v4"
)

// Run starts a small Echo web server exposing CSV-as-JSON APIs, the live
// dashboard pipeline and an optional SPA dashboard.
//
// Usage:
//
//	callcenter-stats web [-addr :8080] [-data ./data] [-ui ./ui/dist]
//
// Endpoints:
//
//	GET  /api/operators              -> <data>/operator_metrics.csv
//	GET  /api/rankings               -> <data>/rankings.csv
//	GET  /api/company                -> <data>/company_metrics.csv
//	GET  /api/calls/series           -> <data>/calls_series.csv
//	GET  /api/operators/trend        -> <data>/operator_trend.csv
//	GET  /api/errors                 -> <data>/errors.csv
//	GET  /api/tickets/series         -> <data>/tickets_series.csv
//	GET  /api/tickets/subjects       -> <data>/ticket_subjects.csv
//	GET  /api/dashboard              -> pipeline over <data>/calls.csv (?period=&start=&end=)
//	POST /api/dashboard              -> pipeline over the posted rows
//	GET  /api/operators/:name/trend  -> monthly history of one operator
//	GET  /api/tickets                -> ticket pipeline over <data>/tickets.csv
//	GET  /metrics                    -> Prometheus metrics
//
// When -ui points to a built Vite app (index.html exists), static files are served at / and
// unknown routes fall back to index.html for SPA routing.
func Run(args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", ":8080", "http listen address (host:port)")
	dataDir := fs.String("data", "", "directory containing CSV files (default from config, then ./data)")
	uiDir := fs.String("ui", "./ui/dist", "directory containing built UI (Vite dist)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Resolve()
	if err != nil {
		return err
	}
	if *dataDir == "" {
		*dataDir = cfg.Dashboard.DataDir
	}
	e := NewServer(Options{
		DataDir:       *dataDir,
		UIDir:         *uiDir,
		DefaultPeriod: cfg.Dashboard.DefaultPeriod,
		Engine: pipeline.New(pipeline.Options{
			Validator: calls.NewValidator(cfg.Operators.Deny...),
			Weights:   cfg.Weights(),
			Logger:    slog.Default(),
		}),
	})
	slog.Info("web.start", "addr", *addr, "data", *dataDir, "ui", *uiDir)
	return e.Start(*addr)
}

// Options configures NewServer.
type Options struct {
	DataDir       string
	UIDir         string
	DefaultPeriod string
	Engine        *pipeline.Engine
}

// NewServer builds the Echo server without starting it.
func NewServer(opts Options) *echo.Echo {
	if opts.Engine == nil {
		opts.Engine = pipeline.New(pipeline.Options{})
	}
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = string(period.Last7Days)
	}
	e := echo.New()
	e.HideBanner = true
	s := &server{opts: opts}

	// Helper to register a GET endpoint serving a specific CSV file
	serveCSV := func(route string, filename string) {
		e.GET(route, func(c echo.Context) error {
			path := filepath.Join(opts.DataDir, filename)
			rows, err := ccsv.ReadObjects(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return c.JSON(http.StatusNotFound, map[string]any{
						"error":   "file not found",
						"path":    path,
						"message": "CSV file is missing",
					})
				}
				return c.JSON(http.StatusInternalServerError, map[string]any{
					"error":   err.Error(),
					"path":    path,
					"message": "failed to read CSV",
				})
			}
			return c.JSON(http.StatusOK, rows)
		})
	}

	// APIs
	serveCSV("/api/operators", ccsv.OperatorMetricsFile)
	serveCSV("/api/rankings", ccsv.RankingsFile)
	serveCSV("/api/company", ccsv.CompanyMetricsFile)
	serveCSV("/api/calls/series", ccsv.CallsSeriesFile)
	serveCSV("/api/operators/trend", ccsv.OperatorTrendFile)
	serveCSV("/api/errors", ccsv.ErrorsFile)
	serveCSV("/api/tickets/series", ccsv.TicketsSeriesFile)
	serveCSV("/api/tickets/subjects", ccsv.TicketSubjectsFile)

	e.GET("/api/dashboard", s.dashboard)
	e.POST("/api/dashboard", s.dashboardPost)
	e.GET("/api/operators/:name/trend", s.operatorTrend)
	e.GET("/api/tickets", s.tickets)
	e.GET("/metrics", echo.WrapHandler(telemetry.Handler()))

	// Static UI (optional)
	indexPath := filepath.Join(opts.UIDir, "index.html")
	if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
		e.Static("/", opts.UIDir)
		e.GET("/", func(c echo.Context) error { return c.File(indexPath) })

		// Fallback to index.html for non-API 404s (SPA routing) while keeping static assets working
		e.HTTPErrorHandler = func(err error, c echo.Context) {
			if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
				p := c.Request().URL.Path
				if !strings.HasPrefix(p, "/api") {
					_ = c.File(indexPath)
					return
				}
			}
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
	return e
}

type server struct {
	opts Options

	mu     sync.Mutex
	cancel context.CancelFunc
}

// supersede cancels the dashboard run in flight, if any, and returns the
// context of the new one.
func (s *server) supersede(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()
	return ctx, cancel
}

func (s *server) period(c echo.Context) (period.Period, error) {
	tag := c.QueryParam("period")
	if tag == "" {
		tag = s.opts.DefaultPeriod
	}
	return period.Parse(tag, c.QueryParam("start"), c.QueryParam("end"))
}

func (s *server) readCalls() (pipeline.Input, error) {
	values, err := ccsv.ReadTable(filepath.Join(s.opts.DataDir, ccsv.CallsFile))
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.TableInput(values), nil
}

func (s *server) dashboard(c echo.Context) error {
	p, err := s.period(c)
	if err != nil {
		return badRequest(c, err)
	}
	in, err := s.readCalls()
	if err != nil {
		return fileError(c, ccsv.CallsFile, err)
	}
	return s.run(c, in, p)
}

// dashboardRequest is the POST body: either a 2-D sheet whose first row is
// the header, or name-keyed objects.
type dashboardRequest struct {
	Period  string              `json:"period"`
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Values  [][]string          `json:"values"`
	Objects []map[string]string `json:"objects"`
}

func (s *server) dashboardPost(c echo.Context) error {
	var req dashboardRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if req.Period == "" {
		req.Period = s.opts.DefaultPeriod
	}
	p, err := period.Parse(req.Period, req.Start, req.End)
	if err != nil {
		return badRequest(c, err)
	}
	in := pipeline.TableInput(req.Values)
	if len(req.Objects) > 0 {
		in = pipeline.ObjectInput(req.Objects)
	}
	return s.run(c, in, p)
}

func (s *server) run(c echo.Context, in pipeline.Input, p period.Period) error {
	ctx, cancel := s.supersede(c.Request().Context())
	defer cancel()
	res, err := s.opts.Engine.Run(ctx, in, p, nil)
	switch {
	case errors.Is(err, calls.ErrLayoutMismatch):
		return c.JSON(http.StatusUnprocessableEntity, res)
	case errors.Is(err, context.Canceled):
		slog.Info("web.dashboard.superseded", "period", p.Tag)
		return c.JSON(http.StatusConflict, map[string]any{"error": err.Error(), "message": "superseded by a newer request"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}

func (s *server) operatorTrend(c echo.Context) error {
	in, err := s.readCalls()
	if err != nil {
		return fileError(c, ccsv.CallsFile, err)
	}
	records, _, err := s.opts.Engine.Parse(c.Request().Context(), in, nil)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
	}
	name := c.Param("name")
	trend := s.opts.Engine.Trend(records, name)
	if len(trend) == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "operator not found", "operator": name})
	}
	return c.JSON(http.StatusOK, trend)
}

func (s *server) tickets(c echo.Context) error {
	p, err := s.period(c)
	if err != nil {
		return badRequest(c, err)
	}
	values, err := ccsv.ReadTable(filepath.Join(s.opts.DataDir, ccsv.TicketsFile))
	if err != nil {
		return fileError(c, ccsv.TicketsFile, err)
	}
	res, err := s.opts.Engine.Tickets(c.Request().Context(), pipeline.TableInput(values), p, nil)
	if errors.Is(err, calls.ErrLayoutMismatch) {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
}

func fileError(c echo.Context, name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error":   "file not found",
			"file":    name,
			"message": "run import first",
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error(), "file": name})
}
