// Package fetch retrieves remote files into the local staging directory.
package fetch

import (
	"context"
	"fmt"
)

// Fetcher downloads url into the file at dest, sending headers with the
// request. Implementations follow redirects, fail on HTTP error status, and
// overwrite any stale partial file at dest. They never retry internally;
// the retry policy belongs to the transfer executor.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, headers map[string]string) error
}

// Error is the expected failure class of a fetch attempt: the transport ran
// but reported an HTTP error status or a non-zero exit code. Any other error
// returned by a Fetcher is unexpected (missing binary, canceled context,
// unwritable destination).
type Error struct {
	URL    string
	Code   int // curl exit code or HTTP status code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("fetch %s failed with code %d: %s", e.URL, e.Code, e.Detail)
	}
	return fmt.Sprintf("fetch %s failed with code %d", e.URL, e.Code)
}
