package expr

import "fmt"

// JsonExpr is a recursively parsed mirror of an arbitrary JSON-like value
// in which string leaves may embed template code. A node is dynamic iff any
// child is dynamic; fully static subtrees evaluate to a value deeply equal
// to the original input.
type JsonExpr struct {
	raw     any
	mirror  any
	dynamic bool
}

// ParseJson parses a JSON-like value (maps, lists, strings, numbers, bools,
// nil). Malformed embedded code in any string leaf fails here.
func ParseJson(value any) (*JsonExpr, error) {
	mirror, dynamic, err := parseJsonNode(value)
	if err != nil {
		return nil, err
	}
	return &JsonExpr{raw: value, mirror: mirror, dynamic: dynamic}, nil
}

// MustParseJson is ParseJson for values known to be well-formed.
func MustParseJson(value any) *JsonExpr {
	e, err := ParseJson(value)
	if err != nil {
		panic(err)
	}
	return e
}

func parseJsonNode(value any) (any, bool, error) {
	switch v := value.(type) {
	case string:
		se, err := ParseString(v)
		if err != nil {
			return nil, false, err
		}
		// Dynamic when code executes or when unescaping changed the string:
		// a string is only static when rendering equals the raw source.
		if se.IsDynamic() || se.Static() != v {
			return se, true, nil
		}
		return v, false, nil
	case map[string]any:
		mirror := make(map[string]any, len(v))
		dynamic := false
		for key, child := range v {
			parsed, childDynamic, err := parseJsonNode(child)
			if err != nil {
				return nil, false, fmt.Errorf("at key %q: %w", key, err)
			}
			mirror[key] = parsed
			dynamic = dynamic || childDynamic
		}
		if !dynamic {
			return v, false, nil
		}
		return mirror, true, nil
	case []any:
		mirror := make([]any, len(v))
		dynamic := false
		for i, child := range v {
			parsed, childDynamic, err := parseJsonNode(child)
			if err != nil {
				return nil, false, fmt.Errorf("at index %d: %w", i, err)
			}
			mirror[i] = parsed
			dynamic = dynamic || childDynamic
		}
		if !dynamic {
			return v, false, nil
		}
		return mirror, true, nil
	default:
		// Primitives are always static.
		return v, false, nil
	}
}

// IsDynamic reports whether any string leaf embeds code or unescaping.
func (e *JsonExpr) IsDynamic() bool { return e.dynamic }

// Raw returns the original input value.
func (e *JsonExpr) Raw() any { return e.raw }

// Evaluate renders the structure against a scope. Static structures return
// the original input untouched.
func (e *JsonExpr) Evaluate(ctx *Context) (any, error) {
	if !e.dynamic {
		return e.raw, nil
	}
	if ctx == nil {
		ctx = NewContext(nil)
	}
	return evalJsonNode(e.mirror, ctx)
}

func evalJsonNode(mirror any, ctx *Context) (any, error) {
	switch v := mirror.(type) {
	case *StringExpr:
		return v.Evaluate(ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, child := range v {
			val, err := evalJsonNode(child, ctx)
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			val, err := evalJsonNode(child, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	default:
		return v, nil
	}
}
