package formatting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n using base-1024 units with one decimal place.
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	f := float64(n)
	i := 0
	for f >= 1024 && i < len(byteUnits)-1 {
		f /= 1024
		i++
	}

	return strconv.FormatFloat(f, 'f', 1, 64) + " " + byteUnits[i]
}

// ParseBytes parses a size such as "1MB" or "512 kb" into bytes (base-1024).
// A bare number is treated as bytes.
func ParseBytes(s string) (int64, error) {
	m := bytesPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		unit = "B"
	}

	for i, u := range byteUnits {
		if u == unit {
			return int64(value * float64(int64(1)<<(10*i))), nil
		}
	}

	return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
}
