// Package transfer drives manifest records through the download, upload and
// cleanup pipeline. It owns the per-record state machine and retry policy;
// the actual fetch and storage work is delegated to injected capabilities.
package transfer

import (
	"fmt"
	"path/filepath"

	"github.com/soracast/coldferry/internal/manifest"
)

// State of a transfer job. StateCleaned and StateFailed are terminal.
type State string

const (
	StatePending    State = "pending"
	StateDownloaded State = "downloaded"
	StateUploaded   State = "uploaded"
	StateCleaned    State = "cleaned"
	StateFailed     State = "failed"
)

// Stage names the pipeline step a job failed in.
type Stage string

const (
	StageDownload Stage = "download"
	StageUpload   Stage = "upload"
	StageCleanup  Stage = "cleanup"
)

// Job tracks one record through the pipeline. A job is owned by a single
// executor invocation and discarded once its outcome is recorded.
type Job struct {
	Record      manifest.Record
	StorageKey  string
	LocalPath   string
	State       State
	FailedStage Stage
	Err         error
}

// NewJob derives the storage key and staging path for a record.
func NewJob(rec manifest.Record, formattedPeriod, stagingDir string) *Job {
	key := fmt.Sprintf("%s_%s.zip", rec.DeliveryID, formattedPeriod)
	return &Job{
		Record:     rec,
		StorageKey: key,
		LocalPath:  filepath.Join(stagingDir, key),
		State:      StatePending,
	}
}

// fail marks the job failed at stage.
func (j *Job) fail(stage Stage, err error) {
	j.State = StateFailed
	j.FailedStage = stage
	j.Err = err
}

// UploadCompleted reports whether the job's payload reached storage. A job
// that failed only during cleanup still counts as a completed upload.
func (j *Job) UploadCompleted() bool {
	return j.State == StateCleaned || (j.State == StateFailed && j.FailedStage == StageCleanup)
}
