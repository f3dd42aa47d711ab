package checklist

import (
	"strconv"
	"strings"
)

const MinQuantity = 1

// ParseQuantity reads a typed quantity. Anything that is not an integer
// becomes MinQuantity, and the result is never below it.
func ParseQuantity(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return MinQuantity
	}
	return ClampQuantity(n, 0)
}

// ClampQuantity clamps q to [MinQuantity, max]; max <= 0 means unbounded.
func ClampQuantity(q, max int) int {
	if q < MinQuantity {
		q = MinQuantity
	}
	if max > 0 && q > max {
		q = max
	}
	return q
}
