package transfer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/soracast/coldferry/internal/fetch"
	"github.com/soracast/coldferry/internal/metrics"
	"github.com/soracast/coldferry/internal/storage"
)

// Uploader is the storage capability the executor drives.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) error
}

// ExecutorOptions configures the per-record pipeline.
type ExecutorOptions struct {
	// Headers are sent with every fetch, e.g. the x-api-key token.
	Headers map[string]string
	Retry   RetryPolicy
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Executor drives one job at a time through download, upload and cleanup.
// Download and upload are independent retry domains: a transient blip in one
// stage never consumes the other stage's attempt budget.
type Executor struct {
	fetcher  fetch.Fetcher
	uploader Uploader
	headers  map[string]string
	retry    RetryPolicy
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewExecutor creates an executor around the two injected capabilities.
func NewExecutor(fetcher fetch.Fetcher, uploader Uploader, opts ExecutorOptions) *Executor {
	if opts.Retry.Attempts < 1 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}

	return &Executor{
		fetcher:  fetcher,
		uploader: uploader,
		headers:  opts.Headers,
		retry:    opts.Retry,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Run drives job to a terminal state. The returned error is the terminal
// failure; a cleanup-only failure returns nil because the transfer is
// complete once the upload lands.
func (e *Executor) Run(ctx context.Context, job *Job) error {
	logger := e.logger.With("delivery_id", job.Record.DeliveryID, "key", job.StorageKey)

	if err := e.download(ctx, logger, job); err != nil {
		job.fail(StageDownload, err)
		logger.Error("download failed, skipping record", "error", err)
		return err
	}
	job.State = StateDownloaded

	if err := e.upload(ctx, logger, job); err != nil {
		job.fail(StageUpload, err)
		logger.Error("upload failed, local file retained", "error", err, "path", job.LocalPath)
		return err
	}
	job.State = StateUploaded

	if err := e.cleanup(job); err != nil {
		job.fail(StageCleanup, err)
		logger.Warn("cleanup failed, stale file left behind", "error", err, "path", job.LocalPath)
		return nil
	}
	job.State = StateCleaned

	logger.Info("record transferred")
	return nil
}

func (e *Executor) download(ctx context.Context, logger *slog.Logger, job *Job) error {
	start := time.Now()
	defer func() { e.metrics.RecordTiming(metrics.OpDownload, time.Since(start)) }()

	return retry(ctx, e.retry, logger, StageDownload, func(attempt int) error {
		err := e.fetcher.Fetch(ctx, job.Record.URL, job.LocalPath, e.headers)
		if err != nil {
			// An expected transport failure logs as a warning; anything
			// else (missing binary, canceled context) is an error. Both
			// count as a failed attempt.
			level := slog.LevelWarn
			var fetchErr *fetch.Error
			if !errors.As(err, &fetchErr) {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "download attempt failed", "attempt", attempt, "attempts", e.retry.Attempts, "error", err)
		}
		return err
	}, func(error) bool { return true })
}

func (e *Executor) upload(ctx context.Context, logger *slog.Logger, job *Job) error {
	start := time.Now()
	defer func() { e.metrics.RecordTiming(metrics.OpUpload, time.Since(start)) }()

	return retry(ctx, e.retry, logger, StageUpload, func(attempt int) error {
		err := e.uploader.Upload(ctx, job.LocalPath, job.StorageKey)
		if err != nil {
			logger.Warn("upload attempt failed", "attempt", attempt, "attempts", e.retry.Attempts, "error", err)
		}
		return err
	}, storage.IsRetryable)
}

func (e *Executor) cleanup(job *Job) error {
	start := time.Now()
	defer func() { e.metrics.RecordTiming(metrics.OpCleanup, time.Since(start)) }()

	return os.Remove(job.LocalPath)
}
