package expr

import (
	"fmt"
	"math"
	"strconv"
)

// normalize maps a Go value onto the closed value set: bool, int64,
// float64 and string.
func normalize(v any) (any, error) {
	switch val := v.(type) {
	case bool, int64, float64, string:
		return val, nil
	case Bare:
		return string(val), nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint:
		return fromUnsigned(uint64(val))
	case uint64:
		return fromUnsigned(val)
	case float32:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// fromUnsigned rejects values that do not fit in an int64.
func fromUnsigned(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d overflows int64", ErrUnsupportedValue, v)
	}
	return int64(v), nil
}

// IsTruthy returns whether a value is truthy.
// nil is false, bools return their value, empty strings are false,
// zero numbers are false, everything else is true.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 converts a numeric value to float64.
// Strings and Bare words are parsed; the second result is false when no number is found.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	case Bare:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Format renders a value the way it compares as text.
func Format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case Bare:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// asNumber reports whether v is an int64 or float64 and returns it as float64.
// Strings are not numbers here.
func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
