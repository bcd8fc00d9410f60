// Package numbering assigns human-readable document numbers.
package numbering

import (
	"fmt"
	"strings"
)

const (
	InvoicePrefix  = "INV"
	EstimatePrefix = "EST"

	// Start is the first number a caller receives.
	Start = 1000
	width = 4
)

// Format returns "<prefix>-<n>" where n = Start + existing, padded to four digits.
// existing is the number of documents the caller already owns. The result is
// not guaranteed unique under concurrent writes; numbers are display values.
func Format(prefix string, existing int64) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("document number prefix is empty")
	}
	if existing < 0 {
		return "", fmt.Errorf("invalid document count: %d", existing)
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, Start+existing), nil
}
