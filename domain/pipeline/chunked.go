package pipeline

import (
	"context"
	"runtime"

	"callcenter-stats/domain/calls"

	"github.com/google/uuid"
	lo "github.com/samber/lo"
)

// MinChunkSize is the smallest number of rows parsed between two yields.
const MinChunkSize = 1000

// Progress receives the state of a chunked run after every chunk.
type Progress func(percent float64, processed, total int)

// Job is the transient state of one chunked run.
type Job struct {
	ID              string  `json:"id"`
	TotalRows       int     `json:"totalRows"`
	ProcessedRows   int     `json:"processedRows"`
	ProgressPercent float64 `json:"progressPercent"`
}

// ChunkSize returns max(MinChunkSize, total/100).
func ChunkSize(total int) int {
	return max(MinChunkSize, total/100)
}

// chunked walks rows in ChunkSize pieces, calling each for every row and
// yielding to the scheduler between pieces. It stops early when ctx is done,
// which is how a newer run supersedes an older one.
func chunked(ctx context.Context, rows []calls.RawRow, yield func(), progress Progress, each func(i int, row calls.RawRow)) (Job, error) {
	job := Job{ID: uuid.NewString(), TotalRows: len(rows)}
	if len(rows) == 0 {
		job.ProgressPercent = 100
		return job, nil
	}
	if yield == nil {
		yield = runtime.Gosched
	}
	size := ChunkSize(len(rows))
	for n, chunk := range lo.Chunk(rows, size) {
		if err := ctx.Err(); err != nil {
			return job, err
		}
		base := n * size
		for i, row := range chunk {
			each(base+i, row)
		}
		job.ProcessedRows += len(chunk)
		job.ProgressPercent = float64(job.ProcessedRows) * 100 / float64(job.TotalRows)
		if progress != nil {
			progress(job.ProgressPercent, job.ProcessedRows, job.TotalRows)
		}
		if job.ProcessedRows < job.TotalRows {
			yield()
		}
	}
	return job, nil
}
