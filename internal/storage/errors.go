package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Sentinel errors for the terminal upload failure classes.
// Use errors.Is() to check for these in calling code.
var (
	// ErrFileMissing indicates the local staging file does not exist.
	// Retrying the upload cannot produce it.
	ErrFileMissing = errors.New("storage: local file missing")

	// ErrCredentials indicates request credentials are absent, expired, or
	// rejected. Retrying cannot heal them.
	ErrCredentials = errors.New("storage: credentials unavailable")
)

// Error wraps an upload failure with its operation context.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("storage.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// credentialCodes are smithy API error codes the service returns when the
// request credentials are missing or unusable.
var credentialCodes = map[string]bool{
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"UnrecognizedClientException": true,
	"ExpiredToken":                true,
	"AccessDenied":                true,
}

// classify maps an SDK error onto a sentinel class. Everything that is not a
// credentials failure counts as transient.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && credentialCodes[apiErr.ErrorCode()] {
		return fmt.Errorf("%w: %s", ErrCredentials, apiErr.ErrorCode())
	}

	// An empty provider chain fails before the request is signed; the SDK
	// reports that only in message text.
	msg := err.Error()
	if strings.Contains(msg, "failed to retrieve credentials") ||
		strings.Contains(msg, "no EC2 IMDS role found") {
		return fmt.Errorf("%w: %v", ErrCredentials, err)
	}

	return err
}

// IsRetryable reports whether an upload error is worth another attempt.
func IsRetryable(err error) bool {
	return !errors.Is(err, ErrFileMissing) && !errors.Is(err, ErrCredentials)
}
