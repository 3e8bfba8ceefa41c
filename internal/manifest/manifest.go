// Package manifest loads batch transfer records from delivery manifest files.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Manifest column headers. Manifests come out of the distribution portal
// with fixed Japanese headers and Shift-JIS encoding; neither is negotiable
// or auto-detected.
const (
	ColDeliveryID = "配信履歴ID"
	ColDataName   = "データ名"
	ColPeriod     = "期間"
	ColURL        = "URL"
	ColExpiration = "有効期限"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []string{ColDeliveryID, ColDataName, ColPeriod, ColURL, ColExpiration}

// requiredValues must be non-empty in every row; データ名 may be blank.
var requiredValues = []string{ColDeliveryID, ColPeriod, ColURL, ColExpiration}

// Record is one manifest row describing a file to transfer.
type Record struct {
	DeliveryID string
	DataName   string
	PeriodText string
	URL        string
	Expiration string
}

// Reader loads records from Shift-JIS encoded CSV manifests.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a manifest reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read parses the manifest at path and returns the rows whose required
// values are all present, in file order. Rows missing a required value are
// dropped individually with a warning; a missing required column fails the
// whole read.
func (r *Reader) Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	return r.parse(f)
}

func (r *Reader) parse(src io.Reader) ([]Record, error) {
	cr := csv.NewReader(transform.NewReader(src, japanese.ShiftJIS.NewDecoder()))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("manifest missing required column %q", name)
		}
	}

	var records []Record
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest row %d: %w", row, err)
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		dropped := false
		for _, name := range requiredValues {
			if field(name) == "" {
				r.logger.Warn("dropping manifest row with missing value", "row", row, "column", name)
				dropped = true
				break
			}
		}
		if dropped {
			continue
		}

		records = append(records, Record{
			DeliveryID: field(ColDeliveryID),
			DataName:   field(ColDataName),
			PeriodText: field(ColPeriod),
			URL:        field(ColURL),
			Expiration: field(ColExpiration),
		})
	}

	return records, nil
}
