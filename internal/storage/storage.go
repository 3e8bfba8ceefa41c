// Package storage uploads staged files to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the minimal S3 surface the uploader needs, allowing injection of
// a mock client in tests.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Compile-time check that the real client satisfies S3API.
var _ S3API = (*s3.Client)(nil)

// Storage classes accepted by the uploader, mirroring the S3 API values.
const (
	ClassStandard           = "STANDARD"
	ClassReducedRedundancy  = "REDUCED_REDUNDANCY"
	ClassStandardIA         = "STANDARD_IA"
	ClassOneZoneIA          = "ONEZONE_IA"
	ClassIntelligentTiering = "INTELLIGENT_TIERING"
	ClassGlacier            = "GLACIER"
	ClassGlacierIR          = "GLACIER_IR"
	ClassDeepArchive        = "DEEP_ARCHIVE"
)

// ValidClass reports whether name is a storage class the uploader accepts.
func ValidClass(name string) bool {
	switch name {
	case ClassStandard, ClassReducedRedundancy, ClassStandardIA, ClassOneZoneIA,
		ClassIntelligentTiering, ClassGlacier, ClassGlacierIR, ClassDeepArchive:
		return true
	}
	return false
}

// Uploader puts staged files into a single bucket under a single storage
// class, both fixed at construction.
type Uploader struct {
	api          S3API
	bucket       string
	storageClass string
	logger       *slog.Logger
}

// NewUploader creates an uploader bound to bucket and storageClass.
func NewUploader(api S3API, bucket, storageClass string, logger *slog.Logger) *Uploader {
	if storageClass == "" {
		storageClass = ClassStandard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{api: api, bucket: bucket, storageClass: storageClass, logger: logger}
}

// Upload puts the file at localPath into the bucket under key. A missing
// local file or unusable credentials are terminal failures; everything else
// is transient (see IsRetryable).
func (u *Uploader) Upload(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Error{Op: "upload", Bucket: u.bucket, Key: key, Err: fmt.Errorf("%w: %s", ErrFileMissing, localPath)}
		}
		return &Error{Op: "upload", Bucket: u.bucket, Key: key, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &Error{Op: "upload", Bucket: u.bucket, Key: key, Err: err}
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		StorageClass:  awstypes.StorageClass(u.storageClass),
	}

	if _, err := u.api.PutObject(ctx, input); err != nil {
		return &Error{Op: "upload", Bucket: u.bucket, Key: key, Err: classify(err)}
	}

	u.logger.DebugContext(ctx, "object stored",
		"bucket", u.bucket, "key", key, "bytes", info.Size(), "storage_class", u.storageClass)

	return nil
}
