package expr

import (
	"fmt"
	"math"
)

// evalNode evaluates an AST node against a scope chain.
func evalNode(n node, ctx *Context) (any, error) {
	switch v := n.(type) {
	case literalNode:
		return v.Value, nil
	case nameNode:
		return ctx.Resolve(v.Name)
	case listNode:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			val, err := evalNode(item, ctx)
			if err != nil {
				return nil, err
			}
			items[i] = val
		}
		return items, nil
	case mapNode:
		out := make(map[string]any, len(v.Entries))
		for _, entry := range v.Entries {
			key, err := evalNode(entry.Key, ctx)
			if err != nil {
				return nil, err
			}
			keyStr, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("map key must be a string, got %s", TypeName(key))
			}
			val, err := evalNode(entry.Value, ctx)
			if err != nil {
				return nil, err
			}
			out[keyStr] = val
		}
		return out, nil
	case indexNode:
		return evalIndex(v, ctx)
	case attrNode:
		target, err := evalNode(v.Target, ctx)
		if err != nil {
			return nil, err
		}
		return lookupKey(target, v.Name)
	case callNode:
		return evalCall(v, ctx)
	case unaryNode:
		return evalUnary(v, ctx)
	case binaryNode:
		return evalBinary(v, ctx)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", n)
	}
}

func evalIndex(n indexNode, ctx *Context) (any, error) {
	target, err := evalNode(n.Target, ctx)
	if err != nil {
		return nil, err
	}
	index, err := evalNode(n.Index, ctx)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case []any:
		f, ok := Number(index)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("list index must be an integer, got %s", TypeName(index))
		}
		i := int(f)
		if i < 0 {
			i += len(t)
		}
		if i < 0 || i >= len(t) {
			return nil, fmt.Errorf("list index %s out of range (length %d)", Stringify(index), len(t))
		}
		return t[i], nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, fmt.Errorf("dict key must be a string, got %s", TypeName(index))
		}
		return lookupKey(t, key)
	default:
		return nil, fmt.Errorf("%s is not indexable", TypeName(target))
	}
}

func lookupKey(target any, key string) (any, error) {
	m, ok := target.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot access %q on %s", key, TypeName(target))
	}
	v, present := m[key]
	if !present {
		return nil, fmt.Errorf("key %q not found in dict", key)
	}
	return v, nil
}

func evalCall(n callNode, ctx *Context) (any, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return nil, fmt.Errorf("%q is not a function, available functions: %v", n.Name, builtinNames())
	}
	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		val, err := evalNode(arg, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}
	var kwargs map[string]any
	if len(n.KwArgs) > 0 {
		kwargs = make(map[string]any, len(n.KwArgs))
		for _, kw := range n.KwArgs {
			val, err := evalNode(kw.Value, ctx)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = val
		}
	}
	return fn(n.Name, args, kwargs)
}

func evalUnary(n unaryNode, ctx *Context) (any, error) {
	operand, err := evalNode(n.Operand, ctx)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "not":
		return !Truthy(operand), nil
	case "-":
		f, ok := Number(operand)
		if !ok {
			return nil, fmt.Errorf("cannot negate %s", TypeName(operand))
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator %q", n.Op)
	}
}

func evalBinary(n binaryNode, ctx *Context) (any, error) {
	// and/or short-circuit and return the deciding operand's value.
	if n.Op == "and" || n.Op == "or" {
		left, err := evalNode(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		if n.Op == "and" && !Truthy(left) {
			return left, nil
		}
		if n.Op == "or" && Truthy(left) {
			return left, nil
		}
		return evalNode(n.Right, ctx)
	}

	left, err := evalNode(n.Left, ctx)
	if err != nil {
		return nil, err
	}
	right, err := evalNode(n.Right, ctx)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return Equal(left, right), nil
	case "!=":
		return !Equal(left, right), nil
	case "<", "<=", ">", ">=":
		return compare(n.Op, left, right)
	case "+":
		return evalAdd(left, right)
	case "-", "*", "/", "%":
		return evalArithmetic(n.Op, left, right)
	default:
		return nil, fmt.Errorf("unsupported operator %q", n.Op)
	}
}

func compare(op string, left, right any) (any, error) {
	if lf, ok := Number(left); ok {
		rf, ok := Number(right)
		if !ok {
			return nil, fmt.Errorf("cannot compare number with %s", TypeName(right))
		}
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		default:
			return lf >= rf, nil
		}
	}
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return nil, fmt.Errorf("cannot compare string with %s", TypeName(right))
		}
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		default:
			return ls >= rs, nil
		}
	}
	return nil, fmt.Errorf("%s values are not ordered", TypeName(left))
}

func evalAdd(left, right any) (any, error) {
	if lf, ok := Number(left); ok {
		if rf, ok := Number(right); ok {
			return lf + rf, nil
		}
	}
	if ls, ok := left.(string); ok {
		if rs, ok := right.(string); ok {
			return ls + rs, nil
		}
	}
	if ll, ok := left.([]any); ok {
		if rl, ok := right.([]any); ok {
			out := make([]any, 0, len(ll)+len(rl))
			out = append(out, ll...)
			return append(out, rl...), nil
		}
	}
	return nil, fmt.Errorf("cannot add %s and %s", TypeName(left), TypeName(right))
}

func evalArithmetic(op string, left, right any) (any, error) {
	lf, lok := Number(left)
	rf, rok := Number(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %q requires numbers, got %s and %s", op, TypeName(left), TypeName(right))
	}
	switch op {
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	default: // "%"
		if rf == 0 {
			return nil, fmt.Errorf("modulo by zero")
		}
		return math.Mod(lf, rf), nil
	}
}
