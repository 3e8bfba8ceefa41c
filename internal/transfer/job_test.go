package transfer

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/soracast/coldferry/internal/manifest"
)

func TestNewJob(t *testing.T) {
	rec := manifest.Record{
		DeliveryID: "A1",
		DataName:   "気象予測データ",
		PeriodText: "2024年6月28日 から 2024年6月30日",
		URL:        "https://example.com/a1.zip",
		Expiration: "2024-07-31",
	}

	job := NewJob(rec, "20240628-20240630", "downloads")

	if job.StorageKey != "A1_20240628-20240630.zip" {
		t.Errorf("StorageKey = %q, want %q", job.StorageKey, "A1_20240628-20240630.zip")
	}
	if want := filepath.Join("downloads", "A1_20240628-20240630.zip"); job.LocalPath != want {
		t.Errorf("LocalPath = %q, want %q", job.LocalPath, want)
	}
	if job.State != StatePending {
		t.Errorf("State = %q, want %q", job.State, StatePending)
	}
}

func TestJobFail(t *testing.T) {
	job := NewJob(manifest.Record{DeliveryID: "B2"}, "20240101-20240102", "downloads")
	cause := errors.New("boom")

	job.fail(StageUpload, cause)

	if job.State != StateFailed {
		t.Errorf("State = %q, want %q", job.State, StateFailed)
	}
	if job.FailedStage != StageUpload {
		t.Errorf("FailedStage = %q, want %q", job.FailedStage, StageUpload)
	}
	if !errors.Is(job.Err, cause) {
		t.Errorf("Err = %v, want %v", job.Err, cause)
	}
}

func TestUploadCompleted(t *testing.T) {
	tests := []struct {
		name  string
		state State
		stage Stage
		want  bool
	}{
		{"pending", StatePending, "", false},
		{"downloaded", StateDownloaded, "", false},
		{"uploaded", StateUploaded, "", false},
		{"cleaned", StateCleaned, "", true},
		{"failed download", StateFailed, StageDownload, false},
		{"failed upload", StateFailed, StageUpload, false},
		{"failed cleanup", StateFailed, StageCleanup, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{State: tt.state, FailedStage: tt.stage}
			if got := job.UploadCompleted(); got != tt.want {
				t.Errorf("UploadCompleted() = %v, want %v", got, tt.want)
			}
		})
	}
}
