package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ccsv "callcenter-stats/connectors/csv"
	"callcenter-stats/domain/calls"
	"callcenter-stats/domain/pipeline"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callsSheet() [][]string {
	w := calls.CallLayout.Width()
	h := make([]string, w)
	for i := range h {
		h[i] = fmt.Sprintf("Coluna %d", i)
	}
	h[1], h[3], h[14], h[17] = "Tipo", "Data", "Tempo Falado", "Nome do Atendente"
	rows := [][]string{h}
	for _, r := range [][2]string{{"02/01/2025", "Ana"}, {"10/01/2025", "Ana"}, {"10/01/2025", "Bia"}} {
		cells := make([]string, w)
		cells[1], cells[3], cells[14], cells[17] = "Atendida", r[0], "00:02:00", r[1]
		rows = append(rows, cells)
	}
	return rows
}

func newTestServer(t *testing.T) (*echo.Echo, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, ccsv.WriteTable(filepath.Join(dir, ccsv.CallsFile), callsSheet()))
	e := NewServer(Options{
		DataDir: dir,
		UIDir:   filepath.Join(dir, "no-ui"),
		Engine: pipeline.New(pipeline.Options{
			Now:   func() time.Time { return time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC) },
			Yield: func() {},
		}),
	})
	return e, dir
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	e, _ := newTestServer(t)
	rec := get(e, "/api/dashboard?period=last7Days")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Period   string             `json:"period"`
		Records  []calls.CallRecord `json:"dadosFiltrados"`
		Rankings []struct {
			Operator string `json:"operator"`
		} `json:"rankings"`
		Errors []string `json:"erros"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "last7Days", body.Period)
	assert.Len(t, body.Records, 2, "02/01 is outside the last 7 days of 10/01")
	assert.Len(t, body.Rankings, 2)
	assert.Empty(t, body.Errors)
}

func TestDashboardRejectsUnknownPeriod(t *testing.T) {
	e, _ := newTestServer(t)
	rec := get(e, "/api/dashboard?period=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardPostObjects(t *testing.T) {
	e, _ := newTestServer(t)
	body := `{"period":"allRecords","objects":[{"Data":"05/01/2025","Atendente":"Caio","Tempo Falado":"00:01:00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/dashboard", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Caio"`)
}

func TestDashboardPostLayoutMismatch(t *testing.T) {
	e, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/dashboard", strings.NewReader(`{"values":[["foo"],["bar"]]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "layout")
}

func TestOperatorTrend(t *testing.T) {
	e, _ := newTestServer(t)
	rec := get(e, "/api/operators/ana/trend")
	require.Equal(t, http.StatusOK, rec.Code)
	var trend []struct {
		PeriodKey string `json:"periodKey"`
		CallCount int    `json:"callCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trend))
	require.Len(t, trend, 1)
	assert.Equal(t, "01/2025", trend[0].PeriodKey)
	assert.Equal(t, 2, trend[0].CallCount)

	assert.Equal(t, http.StatusNotFound, get(e, "/api/operators/Zed/trend").Code)
}

func TestServeCSV(t *testing.T) {
	e, dir := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/rankings").Code)

	require.NoError(t, ccsv.WriteErrors(filepath.Join(dir, ccsv.ErrorsFile), []string{"line 3: missing date"}))
	rec := get(e, "/api/errors")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"message":"line 3: missing date"}]`, rec.Body.String())
}

func TestTicketsMissingFile(t *testing.T) {
	e, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(e, "/api/tickets").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, get(e, "/api/dashboard?period=allRecords").Code)
	rec := get(e, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "callcenter_pipeline_runs_total")
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dash</html>"), 0o644))
	e := NewServer(Options{DataDir: t.TempDir(), UIDir: dir})

	rec := get(e, "/operators/ana")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dash")
	assert.Equal(t, http.StatusNotFound, get(e, "/api/nope").Code)
}
