package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andreypavlenko/matchday/internal/platform/logger"
	ingestmodel "github.com/andreypavlenko/matchday/modules/ingest/model"
	jobmodel "github.com/andreypavlenko/matchday/modules/jobs/model"
	jobports "github.com/andreypavlenko/matchday/modules/jobs/ports"
	mastersmodel "github.com/andreypavlenko/matchday/modules/masters/model"
	masterssvc "github.com/andreypavlenko/matchday/modules/masters/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// chunkBackoffs is the exponential retry schedule a chunk's upsert
// follows before being promoted to a batch failure (§4.B Failure
// semantics, §7).
var chunkBackoffs = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// rawRow is one CSV record, still keyed by column name.
type rawRow struct {
	rowNumber int
	fields    map[string]string
}

type rawChunk struct {
	rows []rawRow
}

// Ingester streams the day's job CSV in bounded chunks, validating and
// deriving flags per row, and upserts accepted rows through the job
// store (§4.B, §5).
type Ingester struct {
	jobs       jobports.JobRepository
	masters    *masterssvc.Cache
	log        *logger.Logger
	batchSize  int
	workers    int
	graceDays  int
}

// NewIngester builds an Ingester. batchSize is the CSV chunk size
// (default 1000), workers the number of concurrent validate+upsert
// workers (default 4), graceDays the deactivation grace period
// (default 7).
func NewIngester(jobs jobports.JobRepository, masters *masterssvc.Cache, log *logger.Logger, batchSize, workers, graceDays int) *Ingester {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if workers <= 0 {
		workers = 4
	}
	if graceDays <= 0 {
		graceDays = 7
	}
	return &Ingester{jobs: jobs, masters: masters, log: log, batchSize: batchSize, workers: workers, graceDays: graceDays}
}

// Run streams r as a CSV, validating and upserting rows, then sweeps
// jobs absent from this run into inactive (§4.B.5). Once the header
// has been read and checked, it returns the §4.B ingest contract even
// when it also returns a fatal error, so callers can log partial
// progress before aborting; an empty file, an unreadable header or a
// missing required column returns a nil result with the error.
func (ing *Ingester) Run(ctx context.Context, r io.Reader, now time.Time) (*ingestmodel.Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ingestmodel.ErrEmptyFile
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[strings.TrimSpace(h)] = i
	}
	for _, col := range ingestmodel.RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ingestmodel.ErrMissingRequiredColumn, col)
		}
	}

	result := &ingestmodel.Result{}
	var mu sync.Mutex
	seen := make(map[int64]bool)

	chunks := make(chan rawChunk, 2*ing.workers)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(chunks)
		return ing.produce(groupCtx, reader, colIndex, chunks)
	})

	for w := 0; w < ing.workers; w++ {
		workerID := w
		group.Go(func() error {
			for chunk := range chunks {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				if err := ing.processChunk(groupCtx, chunk, workerID, now, result, &mu, seen); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return result, err
	}

	graceCutoff := now.AddDate(0, 0, -ing.graceDays)
	deactivated, err := ing.jobs.DeactivateMissing(ctx, seen, graceCutoff)
	if err != nil {
		return result, fmt.Errorf("deactivate missing jobs: %w", err)
	}
	result.Deactivated = deactivated

	return result, nil
}

// produce reads CSV records into fixed-size chunks and hands them to
// the bounded channel; the single reader + N-worker split of §5.
func (ing *Ingester) produce(ctx context.Context, reader *csv.Reader, colIndex map[string]int, chunks chan<- rawChunk) error {
	var buf []rawRow
	rowNum := 1 // header was row 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		chunk := rawChunk{rows: buf}
		buf = nil
		select {
		case chunks <- chunk:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv row %d: %w", rowNum, err)
		}
		rowNum++

		fields := make(map[string]string, len(colIndex))
		for col, idx := range colIndex {
			if idx < len(record) {
				fields[col] = record[idx]
			}
		}
		buf = append(buf, rawRow{rowNumber: rowNum, fields: fields})

		if len(buf) >= ing.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// processChunk validates every row in a chunk, upserts the accepted
// ones with retry, and merges counters/rejections into result.
func (ing *Ingester) processChunk(ctx context.Context, chunk rawChunk, workerID int, now time.Time, result *ingestmodel.Result, mu *sync.Mutex, seen map[int64]bool) error {
	var validJobs []*jobmodel.Job
	var rejections []ingestmodel.RejectionReason

	for _, row := range chunk.rows {
		if id, err := parseInt64(row.fields["job_id"]); err == nil {
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}

		job, err := parseRow(row.fields, now, ing.masters)
		if err != nil {
			rejections = append(rejections, ingestmodel.RejectionReason{
				RowNumber: row.rowNumber,
				JobID:     bestEffortJobID(row.fields),
				Code:      classifyError(err),
				Message:   err.Error(),
			})
			continue
		}
		validJobs = append(validJobs, job)
	}

	if len(validJobs) > 0 {
		if err := ing.upsertWithRetry(ctx, validJobs, workerID); err != nil {
			return err
		}
	}

	mu.Lock()
	result.Read += len(chunk.rows)
	result.Accepted += len(validJobs)
	result.Rejected += len(rejections)
	result.RejectionReasons = append(result.RejectionReasons, rejections...)
	mu.Unlock()

	return nil
}

// upsertWithRetry retries a chunk's upsert with the §4.B exponential
// backoff schedule before promoting the failure to a batch abort.
func (ing *Ingester) upsertWithRetry(ctx context.Context, jobs []*jobmodel.Job, workerID int) error {
	var lastErr error
	for attempt := 0; attempt <= len(chunkBackoffs); attempt++ {
		lastErr = ing.jobs.UpsertBatch(ctx, jobs)
		if lastErr == nil {
			return nil
		}
		if ing.log != nil {
			ing.log.WithWorker(workerID).Warn("chunk upsert failed, retrying",
				zap.Error(lastErr), zap.Int("attempt", attempt+1))
		}
		if attempt == len(chunkBackoffs) {
			break
		}
		select {
		case <-time.After(chunkBackoffs[attempt]):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ingestmodel.ErrChunkFailed, lastErr)
}

func bestEffortJobID(fields map[string]string) int64 {
	id, err := parseInt64(fields["job_id"])
	if err != nil {
		return 0
	}
	return id
}

// classifyError maps a row-rejection error to its reason code,
// consulting masters/ingest/jobs model sentinels in that order.
func classifyError(err error) string {
	if errors.Is(err, mastersmodel.ErrMasterMissing) {
		return "UNKNOWN_MASTER_ROW"
	}
	if code := ingestmodel.GetErrorCode(err); code != "" {
		return code
	}
	return string(jobmodel.GetErrorCode(err))
}
