package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// CurlFetcher downloads by invoking the external curl binary. The flag set
// pins down the transfer contract: follow redirects (-L), fail on HTTP error
// status (-f), and no transport-level retries (--retry 0).
type CurlFetcher struct {
	binary string
}

// NewCurlFetcher creates a fetcher that shells out to curl. binary overrides
// the executable path; empty means "curl" from PATH.
func NewCurlFetcher(binary string) *CurlFetcher {
	if binary == "" {
		binary = "curl"
	}
	return &CurlFetcher{binary: binary}
}

// Fetch runs one curl invocation. A non-zero exit becomes a *Error carrying
// the exit code and the tail of stderr.
func (f *CurlFetcher) Fetch(ctx context.Context, url, dest string, headers map[string]string) error {
	cmd := exec.CommandContext(ctx, f.binary, buildCurlArgs(url, dest, headers)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Error{URL: url, Code: exitErr.ExitCode(), Detail: lastLine(stderr.String())}
		}
		return fmt.Errorf("run %s: %w", f.binary, err)
	}

	return nil
}

// buildCurlArgs assembles the argument list. Headers are emitted in sorted
// key order so invocations are reproducible.
func buildCurlArgs(url, dest string, headers map[string]string) []string {
	args := []string{"-sS", "-L", url}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-H", k+": "+headers[k])
	}

	return append(args, "-o", dest, "-f", "--retry", "0")
}

// lastLine returns the final non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
