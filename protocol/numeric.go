package protocol

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// ParseNumber converts a regex-captured numeric field to T, returning the
// zero value on a malformed match. Text decoders validate the overall line
// against a pattern before calling this, so a parse failure here means a
// digit group overflowed T rather than a genuinely bad report.
func ParseNumber[T constraints.Integer | constraints.Float](s string) T {
	switch any(T(0)).(type) {
	case float32, float64:
		v, _ := strconv.ParseFloat(s, 64)
		return T(v)
	default:
		v, _ := strconv.ParseInt(s, 10, 64)
		return T(v)
	}
}
