package expr

import (
	"encoding/json"
	"math"
	"strconv"
)

// Truthy returns the boolean interpretation of a value. nil, false, 0, "",
// and empty lists/maps are falsy; everything else is truthy. These are the
// embedded language's own rules, applied explicitly wherever the engine
// branches on a value.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		if n, ok := Number(v); ok {
			return n != 0
		}
		return true
	}
}

// Number converts any numeric Go value to float64. Decoded YAML/JSON and
// host code hand the engine a mix of int and float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

// TypeName names a value's type in the embedded language's terms.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	default:
		if _, ok := Number(v); ok {
			return "number"
		}
		return "unknown"
	}
}

// Stringify renders a value for string interpolation. Whole numbers render
// without a fractional part; lists and maps render as JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case []any, map[string]any:
		data, err := json.Marshal(val)
		if err != nil {
			return "<unserializable>"
		}
		return string(data)
	default:
		if n, ok := Number(v); ok {
			return FormatNumber(n)
		}
		data, err := json.Marshal(val)
		if err != nil {
			return "<unserializable>"
		}
		return string(data)
	}
}

// FormatNumber renders a float without a trailing ".0" for whole values.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Equal compares two values with numeric normalization: 42 (int) and 42.0
// (float64) are equal, lists and maps compare element-wise.
func Equal(a, b any) bool {
	if an, ok := Number(a); ok {
		bn, ok := Number(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !Equal(v, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
