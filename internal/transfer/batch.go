package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/soracast/coldferry/internal/manifest"
	"github.com/soracast/coldferry/internal/period"
)

// BatchResult summarizes one batch run. Skipped counts rows that never
// became jobs because the period could not be derived; Attempted counts
// jobs that entered the pipeline. Completed includes jobs whose cleanup
// failed, since the upload itself landed.
type BatchResult struct {
	Total           int
	Skipped         int
	Attempted       int
	Completed       int
	FailedDownload  int
	FailedUpload    int
	CleanupWarnings int
	Errors          []string
}

// BatchOptions configures a batch run.
type BatchOptions struct {
	// StagingDir is created if missing and holds downloads until upload.
	StagingDir string
	Logger     *slog.Logger
	// Progress, if set, is called once per record before processing,
	// including records that end up skipped.
	Progress func(index, total int, rec manifest.Record)
}

// Batch walks a manifest record list and runs the executor for each entry.
// One record's failure never aborts the rest of the batch.
type Batch struct {
	executor   *Executor
	stagingDir string
	logger     *slog.Logger
	progress   func(index, total int, rec manifest.Record)
}

func NewBatch(executor *Executor, opts BatchOptions) *Batch {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Batch{
		executor:   executor,
		stagingDir: opts.StagingDir,
		logger:     opts.Logger,
		progress:   opts.Progress,
	}
}

// Run processes records in order and returns the aggregate outcome. It
// returns early only on context cancellation; per-record failures are
// recorded and the walk continues.
func (b *Batch) Run(ctx context.Context, records []manifest.Record) BatchResult {
	result := BatchResult{Total: len(records)}

	if len(records) == 0 {
		b.logger.Info("no records to transfer")
		return result
	}

	if err := os.MkdirAll(b.stagingDir, 0o755); err != nil {
		b.logger.Error("cannot create staging directory", "path", b.stagingDir, "error", err)
		result.Errors = append(result.Errors, fmt.Sprintf("staging directory %s: %v", b.stagingDir, err))
		return result
	}

	for i, rec := range records {
		if ctx.Err() != nil {
			b.logger.Warn("batch canceled", "processed", i, "total", len(records))
			break
		}

		if b.progress != nil {
			b.progress(i+1, len(records), rec)
		}

		formatted, err := period.Format(rec.PeriodText)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rec.DeliveryID, err))
			b.logger.Warn("skipping record", "delivery_id", rec.DeliveryID, "error", err)
			continue
		}

		job := NewJob(rec, formatted, b.stagingDir)
		b.logger.Info("processing record",
			"index", i+1,
			"total", len(records),
			"delivery_id", rec.DeliveryID,
			"key", job.StorageKey,
		)

		result.Attempted++
		err = b.executor.Run(ctx, job)

		switch {
		case job.State == StateCleaned:
			result.Completed++
		case job.State == StateFailed && job.FailedStage == StageCleanup:
			result.Completed++
			result.CleanupWarnings++
		case job.State == StateFailed && job.FailedStage == StageDownload:
			result.FailedDownload++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: download: %v", rec.DeliveryID, err))
		case job.State == StateFailed && job.FailedStage == StageUpload:
			result.FailedUpload++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: upload: %v", rec.DeliveryID, err))
		}
	}

	b.logger.Info("batch finished",
		"total", result.Total,
		"skipped", result.Skipped,
		"attempted", result.Attempted,
		"completed", result.Completed,
		"failed_download", result.FailedDownload,
		"failed_upload", result.FailedUpload,
		"cleanup_warnings", result.CleanupWarnings,
	)

	return result
}
