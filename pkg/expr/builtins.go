package expr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// builtinFunc is a function from the closed builtin table. kwargs is nil
// when no keyword arguments were supplied.
type builtinFunc func(name string, args []any, kwargs map[string]any) (any, error)

// builtins is the fixed function table of the embedded language. There are
// no user-defined functions.
var builtins = map[string]builtinFunc{
	"len":        builtinLen,
	"get":        builtinGet,
	"merge":      builtinMerge,
	"split":      builtinSplit,
	"join":       builtinJoin,
	"strip":      builtinStrip,
	"flatten":    builtinFlatten,
	"parse_json": builtinParseJSON,
	"print_json": builtinPrintJSON,
	"is_string":  typePredicate("string"),
	"is_number":  typePredicate("number"),
	"is_list":    typePredicate("list"),
	"is_dict":    typePredicate("dict"),
	"is_bool":    typePredicate("bool"),
}

func builtinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func wantArgs(name string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s() takes %d arguments, got %d", name, n, len(args))
	}
	return nil
}

func builtinLen(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case string:
		return float64(len(v)), nil
	case []any:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	default:
		return nil, fmt.Errorf("len() does not support %s", TypeName(args[0]))
	}
}

// builtinGet returns container[key], or the default when the key or index
// is absent.
func builtinGet(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 3); err != nil {
		return nil, err
	}
	container, key, fallback := args[0], args[1], args[2]
	switch c := container.(type) {
	case []any:
		f, ok := Number(key)
		if !ok || f != float64(int(f)) {
			return fallback, nil
		}
		i := int(f)
		if i < 0 || i >= len(c) {
			return fallback, nil
		}
		return c[i], nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return fallback, nil
		}
		if v, present := c[k]; present {
			return v, nil
		}
		return fallback, nil
	default:
		return nil, fmt.Errorf("get() does not support %s containers", TypeName(container))
	}
}

// builtinMerge concatenates lists, right-bias merges maps, and string
// concatenates anything else.
func builtinMerge(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 2); err != nil {
		return nil, err
	}
	if a, ok := args[0].([]any); ok {
		if b, ok := args[1].([]any); ok {
			out := make([]any, 0, len(a)+len(b))
			out = append(out, a...)
			return append(out, b...), nil
		}
	}
	if a, ok := args[0].(map[string]any); ok {
		if b, ok := args[1].(map[string]any); ok {
			out := make(map[string]any, len(a)+len(b))
			for k, v := range a {
				out[k] = v
			}
			for k, v := range b {
				out[k] = v
			}
			return out, nil
		}
	}
	return Stringify(args[0]) + Stringify(args[1]), nil
}

func builtinSplit(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 2); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("split() expects a string, got %s", TypeName(args[0]))
	}
	sep, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("split() expects a string delimiter, got %s", TypeName(args[1]))
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

func builtinJoin(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 2); err != nil {
		return nil, err
	}
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("join() expects a list, got %s", TypeName(args[0]))
	}
	sep, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("join() expects a string delimiter, got %s", TypeName(args[1]))
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Stringify(item)
	}
	return strings.Join(parts, sep), nil
}

func builtinStrip(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("strip() expects a string, got %s", TypeName(args[0]))
	}
	return strings.TrimSpace(s), nil
}

// builtinFlatten deep-flattens nested lists into a single list.
func builtinFlatten(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 1); err != nil {
		return nil, err
	}
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("flatten() expects a list, got %s", TypeName(args[0]))
	}
	var out []any
	var walk func([]any)
	walk = func(list []any) {
		for _, item := range list {
			if nested, ok := item.([]any); ok {
				walk(nested)
			} else {
				out = append(out, item)
			}
		}
	}
	walk(items)
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// builtinParseJSON parses a JSON string. With ignore_error=true a parse
// failure returns the input unchanged instead of failing.
func builtinParseJSON(name string, args []any, kwargs map[string]any) (any, error) {
	ignoreError := false
	if v, ok := kwargs["ignore_error"]; ok {
		ignoreError = Truthy(v)
	} else if len(args) == 2 {
		ignoreError = Truthy(args[1])
		args = args[:1]
	}
	if err := wantArgs(name, args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("parse_json() expects a string, got %s", TypeName(args[0]))
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		if ignoreError {
			return s, nil
		}
		return nil, fmt.Errorf("failed to parse JSON from: %s", s)
	}
	return out, nil
}

func builtinPrintJSON(name string, args []any, _ map[string]any) (any, error) {
	if err := wantArgs(name, args, 1); err != nil {
		return nil, err
	}
	data, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to serialize value to JSON: %w", err)
	}
	return string(data), nil
}

func typePredicate(typeName string) builtinFunc {
	return func(name string, args []any, _ map[string]any) (any, error) {
		if err := wantArgs(name, args, 1); err != nil {
			return nil, err
		}
		return TypeName(args[0]) == typeName, nil
	}
}
