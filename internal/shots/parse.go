package shots

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseValue reads the leading integer of free-form input text.
// Leading whitespace and a sign are accepted, a 0x prefix switches to hex,
// and parsing stops at the first non-digit. Text without any digit yields NaN.
func ParseValue(text string) float64 {
	s := strings.TrimLeftFunc(text, unicode.IsSpace)
	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	base := 10.0
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	value := 0.0
	digits := 0
	for i := 0; i < len(s); i++ {
		d, ok := digitValue(s[i], base)
		if !ok {
			break
		}
		value = value*base + d
		digits++
	}
	if digits == 0 {
		return math.NaN()
	}
	return sign * value
}

func digitValue(ch byte, base float64) (float64, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return float64(ch - '0'), true
	case base == 16 && ch >= 'a' && ch <= 'f':
		return float64(ch-'a') + 10, true
	case base == 16 && ch >= 'A' && ch <= 'F':
		return float64(ch-'A') + 10, true
	default:
		return 0, false
	}
}

// FormatValue renders a stored value for display. NaN renders as empty text.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
