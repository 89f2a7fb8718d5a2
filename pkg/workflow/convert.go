package workflow

import "strconv"

// ConvertValue coerces override and injection literals the way the server
// expects them: all-digit strings become int64, float-parseable strings
// become float64, anything else passes through unchanged.
func ConvertValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if allDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
