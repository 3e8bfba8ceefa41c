// Package period derives storage-key date ranges from manifest period text.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// datePattern matches one calendar date inside free-form period text.
// Delivery manifests write dates with localized markers (2024年6月28日);
// the same expression accepts separator-punctuated forms (2024-06-28,
// 2024/6/28).
var datePattern = regexp.MustCompile(`(\d{4})[年/-](\d{1,2})[月/-](\d{1,2})日?`)

// FormatError reports period text from which no storage key can be derived.
// Records carrying such text are skipped, never retried.
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot derive period from %q: %s", e.Text, e.Reason)
}

// Format extracts exactly two calendar dates from text and returns them as
// "YYYYMMDD-YYYYMMDD", preserving their order of appearance. It fails with a
// *FormatError when the text does not contain exactly two dates or when a
// date is not a real calendar day.
func Format(text string) (string, error) {
	matches := datePattern.FindAllStringSubmatch(text, -1)
	if len(matches) != 2 {
		return "", &FormatError{Text: text, Reason: fmt.Sprintf("expected 2 dates, found %d", len(matches))}
	}

	start, err := normalize(matches[0])
	if err != nil {
		return "", &FormatError{Text: text, Reason: err.Error()}
	}
	end, err := normalize(matches[1])
	if err != nil {
		return "", &FormatError{Text: text, Reason: err.Error()}
	}

	return start + "-" + end, nil
}

// normalize zero-pads a matched (year, month, day) triple after checking
// that it names a real calendar day.
func normalize(match []string) (string, error) {
	y, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	d, _ := strconv.Atoi(match[3])

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return "", fmt.Errorf("invalid calendar date %s-%s-%s", match[1], match[2], match[3])
	}

	return fmt.Sprintf("%04d%02d%02d", y, m, d), nil
}
