package calc

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// FormatResult renders f the way the result line shows it: always with a
// fraction part ("3.0"), scientific notation outside [1e-3, 1e7) ("1.0E7"),
// and "NaN" / "Infinity" for the non-finite values.
func FormatResult(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(f)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}

	// 'E' yields "1.5E+07"; trim the exponent down to "1.5E7".
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.ContainsRune(mant, '.') {
		mant += ".0"
	}
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimLeft(exp, "+-"), "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}
	return mant + "E" + exp
}

// parseEntry parses the entry buffer as a decimal literal. Literals too large
// for float64 parse to ±Inf rather than failing; words like "inf" or "nan"
// and hex or underscore forms are malformed.
func parseEntry(s string) (float64, bool) {
	if s == "" || strings.IndexFunc(s, notDecimalRune) >= 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, true
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return f, true
	}
	return 0, false
}

func notDecimalRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return false
	case r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-':
		return false
	}
	return true
}
