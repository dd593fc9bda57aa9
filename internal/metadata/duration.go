package metadata

import (
	"strconv"
	"strings"
)

// ParseDuration converts the textual durations the upstream returns into
// seconds. Accepted shapes are H:MM:SS, M:SS and a bare seconds count.
// Anything malformed counts as zero rather than an error; callers treat a
// missing duration the same way.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
