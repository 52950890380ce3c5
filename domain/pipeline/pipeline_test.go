package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"callcenter-stats/domain/calls"
	"callcenter-stats/domain/metrics"
	"callcenter-stats/domain/period"
	"callcenter-stats/domain/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header() []string {
	h := make([]string, calls.CallLayout.Width())
	for i := range h {
		h[i] = fmt.Sprintf("Coluna %d", i)
	}
	h[1] = "Tipo"
	h[3] = "Data Inicial"
	h[11] = "Tempo na URA"
	h[12] = "Tempo de Espera"
	h[14] = "Tempo Falado"
	h[17] = "Nome do Atendente"
	h[27] = "Pergunta Atendente"
	h[28] = "Pergunta Solução"
	return h
}

func row(date, operator, status, spoken, att, sol string) []string {
	r := make([]string, calls.CallLayout.Width())
	r[1] = status
	r[3] = date
	r[11] = "00:00:20"
	r[12] = "00:00:40"
	r[14] = spoken
	r[17] = operator
	r[27] = att
	r[28] = sol
	return r
}

func sheet(rows ...[]string) [][]string {
	return append([][]string{header()}, rows...)
}

func engine() *pipeline.Engine {
	return pipeline.New(pipeline.Options{
		Now: func() time.Time { return time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC) },
	})
}

func TestRunLast7DaysScenario(t *testing.T) {
	in := pipeline.TableInput(sheet(
		row("01/01/2025", "Ana", "Atendida", "00:02:00", "5", "5"),
		row("02/01/2025", "Ana", "Atendida", "00:03:00", "4", "4"),
		row("10/01/2025 14:32:00", "Bia", "Atendida", "00:01:00", "3", ""),
	))

	res, err := engine().Run(context.Background(), in, period.Period{Tag: period.Last7Days}, nil)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), res.Window.Start)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), res.Window.End)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Bia", res.Records[0].Operator)
	assert.Equal(t, metrics.ByDay, res.Granularity)
	assert.Equal(t, 1, res.Company.TotalCalls)
	assert.Contains(t, res.Operators, "Bia")
	assert.NotContains(t, res.Operators, "Ana")
	assert.Len(t, res.All, 3)
	assert.Empty(t, res.Errors)
}

func TestRunSentinelOperatorCountsOnlyForCompany(t *testing.T) {
	rows := [][]string{}
	for i := 0; i < 5; i++ {
		rows = append(rows, row("05/01/2025", "Sem Operador", "Abandonada", "0", "", ""))
	}
	rows = append(rows, row("05/01/2025", "Ana", "Atendida", "00:04:00", "5", "4"))

	res, err := engine().Run(context.Background(), pipeline.TableInput(sheet(rows...)), period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Company.TotalCalls)
	assert.Equal(t, 5, res.Company.Abandoned)
	assert.NotContains(t, res.Operators, "Sem Operador")
	require.Len(t, res.Rankings, 1)
	assert.Equal(t, "Ana", res.Rankings[0].Operator)
	assert.Len(t, res.Errors, 1, "one deduplicated warning for the sentinel name")
}

func TestRunIsIdempotent(t *testing.T) {
	rows := [][]string{}
	ops := []string{"Ana", "Bia", "Caio", "Davi"}
	for i := 0; i < 400; i++ {
		rows = append(rows, row(
			fmt.Sprintf("%d/%d/2024", i%28+1, i%12+1),
			ops[i%len(ops)],
			"Atendida",
			fmt.Sprintf("00:%02d:%02d", i%7, i%60),
			fmt.Sprintf("%d", i%5+1),
			fmt.Sprintf("%d", (i+2)%5+1),
		))
	}
	in := pipeline.TableInput(sheet(rows...))
	p := period.Period{Tag: period.AllRecords}

	first, err := engine().Run(context.Background(), in, p, nil)
	require.NoError(t, err)
	second, err := engine().Run(context.Background(), in, p, nil)
	require.NoError(t, err)

	a, err := json.Marshal([]any{first.Operators, first.Rankings})
	require.NoError(t, err)
	b, err := json.Marshal([]any{second.Operators, second.Rankings})
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	assert.Equal(t, metrics.ByMonth, first.Granularity, "a year of data is charted by month")
	for i := 1; i < len(first.Rankings); i++ {
		assert.GreaterOrEqual(t, first.Rankings[i-1].Score, first.Rankings[i].Score)
	}
}

func TestRunRowErrorsAreNonFatal(t *testing.T) {
	in := pipeline.TableInput(sheet(
		row("31/02/2025", "Ana", "Atendida", "00:01:00", "5", "5"),
		row("05/01/2025", "Ana", "Atendida", "forever", "7", "5"),
		row("06/01/2025", "Ana", "Atendida", "00:01:00", "", ""),
	))
	res, err := engine().Run(context.Background(), in, period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, []string{
		`line 2: invalid date "31/02/2025"`,
		`line 3: invalid duration "forever"`,
		`line 3: rating_attendance 7 out of range 1-5`,
	}, res.Errors)
	ana := res.Operators["Ana"]
	assert.Equal(t, 2, ana.TotalCalls)
	assert.Equal(t, 0, ana.CountRatingAttendance)
	assert.Equal(t, 1, ana.CountRatingSolution)
}

func TestRunNoData(t *testing.T) {
	res, err := engine().Run(context.Background(), pipeline.TableInput(nil), period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{pipeline.NoData}, res.Errors)
	assert.Empty(t, res.Operators)
	assert.Empty(t, res.Rankings)

	res, err = engine().Run(context.Background(), pipeline.TableInput(sheet(row("hoje", "Ana", "", "", "", ""))), period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, pipeline.NoData)
}

func TestRunHeaderMismatchFailsFast(t *testing.T) {
	values := sheet(row("05/01/2025", "Ana", "Atendida", "1", "", ""))
	values[0] = []string{"Chamada", "Tipo", "Fila"}
	res, err := engine().Run(context.Background(), pipeline.TableInput(values), period.Period{Tag: period.AllRecords}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, calls.ErrLayoutMismatch))
	require.NotNil(t, res)
	assert.Len(t, res.Errors, 1)
	assert.Empty(t, res.Records)
}

func TestRunObjectRows(t *testing.T) {
	in := pipeline.ObjectInput([]map[string]string{
		{"Data": "05/01/2025", "Atendente": "Ana", "Tempo Falado": "00:02:00", "Nota Atendimento": "5"},
		{"date": "2025-01-06", "operator": "Bia", "duration": "3"},
		{},
	})
	res, err := engine().Run(context.Background(), in, period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err, "object rows carry no header to validate")
	require.Len(t, res.Records, 2)
	assert.InDelta(t, 3.0, res.Operators["Bia"].SumDuration, 1e-9)
	assert.Equal(t, 1, res.Operators["Ana"].CountRatingAttendance)
}

func TestRunChunkedProgress(t *testing.T) {
	rows := make([][]string, 0, 2500)
	for i := 0; i < 2500; i++ {
		rows = append(rows, row("05/01/2025", "Ana", "Atendida", "1", "", ""))
	}
	yields := 0
	e := pipeline.New(pipeline.Options{Yield: func() { yields++ }})

	type report struct {
		pct         float64
		done, total int
	}
	var reports []report
	res, err := e.Run(context.Background(), pipeline.TableInput(sheet(rows...)), period.Period{Tag: period.AllRecords}, func(pct float64, done, total int) {
		reports = append(reports, report{pct, done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, []report{{40, 1000, 2500}, {80, 2000, 2500}, {100, 2500, 2500}}, reports)
	assert.Equal(t, 2, yields, "yield between chunks, not after the last")
	assert.Equal(t, 2500, res.Job.TotalRows)
	assert.Equal(t, 2500, res.Job.ProcessedRows)
	assert.NotEmpty(t, res.Job.ID)
	assert.Equal(t, 2500, res.Operators["Ana"].TotalCalls, "final pass aggregates every chunk")
}

func TestRunCanceled(t *testing.T) {
	rows := make([][]string, 0, 3000)
	for i := 0; i < 3000; i++ {
		rows = append(rows, row("05/01/2025", "Ana", "Atendida", "1", "", ""))
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := pipeline.New(pipeline.Options{Yield: cancel})

	res, err := e.Run(ctx, pipeline.TableInput(sheet(rows...)), period.Period{Tag: period.AllRecords}, nil)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 1000, pipeline.ChunkSize(0))
	assert.Equal(t, 1000, pipeline.ChunkSize(50_000))
	assert.Equal(t, 1500, pipeline.ChunkSize(150_000))
}

func TestTickets(t *testing.T) {
	h := make([]string, calls.TicketLayout.Width())
	h[3] = "Data de Abertura"
	ticket := func(date, subject, eval string) []string {
		r := make([]string, calls.TicketLayout.Width())
		r[3], r[6], r[10], r[14] = date, "Ana", subject, eval
		return r
	}
	in := pipeline.TableInput([][]string{
		h,
		ticket("01/03/2025", "Financeiro", "bom"),
		ticket("02/03/2025", "Financeiro", "ruim"),
		ticket("02/03/2025", "Suporte", "bom"),
		ticket("sem data", "Suporte", "bom"),
	})

	res, err := engine().Tickets(context.Background(), in, period.Period{Tag: period.AllRecords}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Equal(t, metrics.ByDay, res.Granularity)
	require.Len(t, res.Series, 2)
	assert.Equal(t, 1, res.Series[1].Bad)
	require.Len(t, res.Subjects, 2)
	assert.Equal(t, "Financeiro", res.Subjects[0].Subject)
	assert.Len(t, res.Errors, 1)
}

func TestTrend(t *testing.T) {
	records, issues, err := engine().Parse(context.Background(), pipeline.TableInput(sheet(
		row("05/01/2025", "Ana", "Atendida", "00:02:00", "5", "5"),
		row("05/02/2025", "Ana", "Atendida", "00:02:00", "4", "5"),
		row("06/02/2025", "Bia", "Atendida", "00:02:00", "4", "5"),
	)), nil)
	require.NoError(t, err)
	assert.Zero(t, issues.Len())

	trend := engine().Trend(records, "Ana")
	require.Len(t, trend, 2)
	assert.Equal(t, "01/2025", trend[0].PeriodKey)
	assert.Equal(t, "02/2025", trend[1].PeriodKey)
}
