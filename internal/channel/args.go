package channel

import (
	"encoding/json"
	"math"
)

// Args wraps a call's argument map with typed accessors. JSON decoding yields
// float64 for numbers, so the numeric accessors accept any numeric type.
type Args map[string]any

// String returns the string at key. ok is false when the key is missing,
// null, or not a string.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the string at key or def.
func (a Args) StringOr(key, def string) string {
	if s, ok := a.String(key); ok {
		return s
	}
	return def
}

// IntOr returns the integer at key or def when missing or not numeric.
func (a Args) IntOr(key string, def int) int {
	f, ok := a.number(key)
	if !ok {
		return def
	}
	return int(math.Trunc(f))
}

// FloatOr returns the number at key or def when missing or not numeric.
func (a Args) FloatOr(key string, def float64) float64 {
	if f, ok := a.number(key); ok {
		return f
	}
	return def
}

func (a Args) number(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
