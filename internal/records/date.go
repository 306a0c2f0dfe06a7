package records

import (
	"fmt"
	"strings"
	"time"
)

// recordedDateLayout is the portal's textual recorded-date format.
const recordedDateLayout = "01/02/2006"

// ParseRecordedDate parses the portal's MM/DD/YYYY recorded-date text.
// Callers that tolerate malformed dates store the value as absent, but the
// failure itself stays observable rather than being swallowed.
func ParseRecordedDate(text string) (time.Time, error) {
	t, err := time.Parse(recordedDateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recorded date %q: %w", text, err)
	}
	return t, nil
}
