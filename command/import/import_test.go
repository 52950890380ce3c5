package cmdimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	ccsv "callcenter-stats/connectors/csv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu     sync.Mutex
	ranges map[string][][]string
	asked  []string
}

func (f *fakeSheets) GetValues(_ context.Context, id, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, id+"/"+rng)
	rows, ok := f.ranges[rng]
	if !ok {
		return nil, errors.New("unknown range")
	}
	return rows, nil
}

func TestImportWritesBothSheets(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeSheets{ranges: map[string][][]string{
		"Chamadas!A:AC": {{"Data", "Tipo"}, {"01/01/2025", "Atendida"}},
		"Tickets!A:O":   {{"Data"}, {"02/01/2025"}},
	}}
	err := Import(context.Background(), fake, Source{SpreadsheetID: "s1", CallsRange: "Chamadas!A:AC", TicketsRange: "Tickets!A:O"}, dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1/Chamadas!A:AC", "s1/Tickets!A:O"}, fake.asked)

	calls, err := ccsv.ReadTable(filepath.Join(dir, ccsv.CallsFile))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Data", "Tipo"}, {"01/01/2025", "Atendida"}}, calls)

	tickets, err := ccsv.ReadTable(filepath.Join(dir, ccsv.TicketsFile))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Data"}, {"02/01/2025"}}, tickets)
}

func TestImportSkipsTickets(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeSheets{ranges: map[string][][]string{"A:AC": {{"Data"}}}}
	require.NoError(t, Import(context.Background(), fake, Source{SpreadsheetID: "s1", CallsRange: "A:AC"}, dir))
	assert.Equal(t, []string{"s1/A:AC"}, fake.asked)
	_, err := os.Stat(filepath.Join(dir, ccsv.TicketsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestImportFailsOnFetchError(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeSheets{ranges: map[string][][]string{"A:AC": {{"Data"}}}}
	err := Import(context.Background(), fake, Source{SpreadsheetID: "s1", CallsRange: "A:AC", TicketsRange: "missing"}, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch tickets missing")
	_, err = os.Stat(filepath.Join(dir, ccsv.CallsFile))
	assert.True(t, os.IsNotExist(err), "nothing is written when a fetch fails")
}

func TestImportFiles(t *testing.T) {
	src := t.TempDir()
	callsPath := filepath.Join(src, "export.csv")
	require.NoError(t, os.WriteFile(callsPath, []byte("Data,Tipo\n01/01/2025,Atendida\n"), 0o644))

	out := filepath.Join(t.TempDir(), "data")
	require.NoError(t, ImportFiles(callsPath, "", out))
	rows, err := ccsv.ReadTable(filepath.Join(out, ccsv.CallsFile))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.Error(t, ImportFiles(filepath.Join(src, "missing.csv"), "", out))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
