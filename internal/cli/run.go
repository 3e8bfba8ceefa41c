package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soracast/coldferry/internal/config"
	"github.com/soracast/coldferry/internal/fetch"
	"github.com/soracast/coldferry/internal/manifest"
	"github.com/soracast/coldferry/internal/metrics"
	"github.com/soracast/coldferry/internal/period"
	"github.com/soracast/coldferry/internal/storage"
	"github.com/soracast/coldferry/internal/transfer"
)

var (
	runManifest   string
	runStagingDir string
	runFetcher    string
	runDryRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Transfer manifest records into cold storage",
	Long: `Run the batch transfer for every record in the delivery manifest.

Each record's file is downloaded from its URL with the configured API key,
uploaded to the archive bucket as <delivery id>_<period>.zip, and the local
copy is removed once the upload succeeds. Per-record failures are collected
and reported at the end; the command still exits zero so that one broken
delivery cannot fail the whole scheduled batch.

Examples:
  coldferry run
  coldferry run --manifest deliveries/2024-06.csv
  coldferry run --fetcher http --staging-dir /tmp/coldferry
  coldferry run --dry-run`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runManifest, "manifest", "m", "", "delivery manifest CSV (defaults to COLDFERRY_MANIFEST)")
	runCmd.Flags().StringVar(&runStagingDir, "staging-dir", "", "directory for downloaded files (defaults to COLDFERRY_STAGING_DIR)")
	runCmd.Flags().StringVar(&runFetcher, "fetcher", "", "download implementation, curl or http (defaults to COLDFERRY_FETCHER)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show planned transfers without downloading or uploading")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Flags override environment and config file
	if runManifest != "" {
		cfg.ManifestPath = runManifest
	}
	if runStagingDir != "" {
		cfg.StagingDir = runStagingDir
	}
	if runFetcher != "" {
		cfg.Fetcher = runFetcher
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	records, err := manifest.NewReader(logger).Read(cfg.ManifestPath)
	if err != nil {
		// An unusable manifest yields an empty batch; the command still
		// exits zero.
		logger.Error("manifest unusable, nothing to transfer", "path", cfg.ManifestPath, "error", err)
		fmt.Println(defaultTheme.errorStyle().Render(fmt.Sprintf("✗ Manifest unusable: %v", err)))
		return nil
	}

	if runDryRun {
		printPlan(records)
		return nil
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("no API key configured, set COLDFERRY_API_KEY")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client, err := storage.NewClient(ctx, storage.Config{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return fmt.Errorf("configure object storage: %w", err)
	}
	uploader := storage.NewUploader(client, cfg.Bucket, cfg.StorageClass, logger)

	collector := metrics.NewCollector()
	executor := transfer.NewExecutor(newFetcher(), uploader, transfer.ExecutorOptions{
		Headers: map[string]string{"x-api-key": cfg.APIKey},
		Retry:   transfer.RetryPolicy{Attempts: cfg.Retries, Factor: cfg.Backoff},
		Logger:  logger,
		Metrics: collector,
	})

	logger.Info("batch starting",
		"manifest", cfg.ManifestPath,
		"records", len(records),
		"bucket", cfg.Bucket,
		"storage_class", cfg.StorageClass,
		"fetcher", cfg.Fetcher,
		"retries", cfg.Retries,
	)

	batch := transfer.NewBatch(executor, transfer.BatchOptions{
		StagingDir: cfg.StagingDir,
		Logger:     logger,
		Progress: func(index, total int, rec manifest.Record) {
			mark := defaultTheme.statusStyle().Render(fmt.Sprintf("[%d/%d]", index, total))
			fmt.Printf("%s %s\n", mark, rec.DeliveryID)
		},
	})

	result := batch.Run(ctx, records)
	printSummary(result)

	snap := collector.Snapshot()
	logger.Debug("stage timings", "download", snap.Download, "upload", snap.Upload, "cleanup", snap.Cleanup)
	if verbose {
		printTimings(snap)
	}

	// Per-record failures are reported above but never change the exit code.
	return nil
}

// newFetcher builds the configured download implementation.
func newFetcher() fetch.Fetcher {
	if cfg.Fetcher == config.FetcherHTTP {
		return fetch.NewHTTPFetcher(cfg.HTTPTimeout)
	}
	return fetch.NewCurlFetcher("")
}

// printPlan lists the transfers a real run would attempt.
func printPlan(records []manifest.Record) {
	if len(records) == 0 {
		fmt.Println("No transferable records found.")
		return
	}

	fmt.Printf("Would transfer %d records to s3://%s (%s):\n\n", len(records), cfg.Bucket, cfg.StorageClass)
	for i, rec := range records {
		formatted, err := period.Format(rec.PeriodText)
		if err != nil {
			skip := defaultTheme.errorStyle().Render(fmt.Sprintf("skipped: %v", err))
			fmt.Printf("  [%d/%d] %s %s\n", i+1, len(records), rec.DeliveryID, skip)
			continue
		}
		job := transfer.NewJob(rec, formatted, cfg.StagingDir)
		fmt.Printf("  [%d/%d] %s -> %s\n", i+1, len(records), rec.DeliveryID, job.StorageKey)
	}
}

// printSummary renders the batch outcome.
func printSummary(result transfer.BatchResult) {
	fmt.Println()
	failed := result.FailedDownload + result.FailedUpload
	if failed > 0 {
		fmt.Println(defaultTheme.errorStyle().Render(fmt.Sprintf("✗ %d of %d records failed", failed, result.Attempted)))
	} else {
		fmt.Println(defaultTheme.completedStyle().Render("✓ Completed"))
	}

	fmt.Println()
	fmt.Printf("  Records:           %d\n", result.Total)
	fmt.Printf("  Transferred:       %d\n", result.Completed)
	if result.Skipped > 0 {
		fmt.Printf("  Skipped:           %d\n", result.Skipped)
	}
	if result.FailedDownload > 0 {
		fmt.Printf("  Failed downloads:  %d\n", result.FailedDownload)
	}
	if result.FailedUpload > 0 {
		fmt.Printf("  Failed uploads:    %d\n", result.FailedUpload)
	}
	if result.CleanupWarnings > 0 {
		fmt.Printf("  Cleanup warnings:  %d\n", result.CleanupWarnings)
	}

	if len(result.Errors) > 0 {
		fmt.Println(defaultTheme.errorStyle().Render(fmt.Sprintf("\nErrors (%d):", len(result.Errors))))
		for _, e := range result.Errors {
			fmt.Printf("  • %s\n", e)
		}
	}
}

// printTimings renders per-stage timing statistics.
func printTimings(snap metrics.Snapshot) {
	fmt.Println(defaultTheme.hintStyle().Render("\nStage timings:"))
	printStage("download", snap.Download)
	printStage("upload", snap.Upload)
	printStage("cleanup", snap.Cleanup)
}

func printStage(name string, s *metrics.StageSnapshot) {
	if s == nil {
		return
	}
	fmt.Printf("  %-9s %d ops, avg %.0fms, min %dms, max %dms\n", name, s.Count, s.AvgTimeMs, s.MinTimeMs, s.MaxTimeMs)
}
