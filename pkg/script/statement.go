package script

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/expr"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/registry"
)

// Statement is one node of a tool body. Execute evaluates the node
// against the given scope, forwarding progress into the sink, and
// returns the node's result.
type Statement interface {
	Execute(ctx context.Context, scope *expr.Context, sink ports.RunSink) (any, error)
}

// catchAll matches every error kind in a catch list.
const catchAll = "*"

type evalDef struct {
	Eval    any    `mapstructure:"eval"`
	StoreAs string `mapstructure:"store_as"`
}

type callDef struct {
	Call    string `mapstructure:"call"`
	Params  any    `mapstructure:"params"`
	Catch   any    `mapstructure:"catch"`
	StoreAs string `mapstructure:"store_as"`
}

type ifDef struct {
	If      any    `mapstructure:"if"`
	Then    any    `mapstructure:"then"`
	Else    any    `mapstructure:"else"`
	StoreAs string `mapstructure:"store_as"`
}

// Build turns a decoded YAML statement definition into an executable
// Statement. Tool references are resolved against the registry now, so
// a body naming an unknown tool fails at load time.
func Build(def any, reg *registry.Registry) (Statement, error) {
	switch d := def.(type) {
	case []any:
		return buildSequence(d, reg)
	case map[string]any:
		if _, ok := d["eval"]; ok {
			return buildEval(d)
		}
		if _, ok := d["call"]; ok {
			return buildCall(d, reg)
		}
		if _, ok := d["if"]; ok {
			return buildIf(d, reg)
		}
		return nil, fmt.Errorf("statement must declare eval, call or if, got keys %v", mapKeys(d))
	default:
		return nil, fmt.Errorf("statement must be a mapping or a list, got %s", expr.TypeName(def))
	}
}

func buildEval(raw map[string]any) (Statement, error) {
	var def evalDef
	if err := decodeDef(raw, &def); err != nil {
		return nil, err
	}
	e, err := expr.ParseJson(def.Eval)
	if err != nil {
		return nil, fmt.Errorf("eval statement: %w", err)
	}
	return &EvalStatement{expr: e, storeAs: def.StoreAs}, nil
}

func buildCall(raw map[string]any, reg *registry.Registry) (Statement, error) {
	var def callDef
	if err := decodeDef(raw, &def); err != nil {
		return nil, err
	}
	tool, err := reg.Resolve(def.Call)
	if err != nil {
		return nil, err
	}
	params := def.Params
	if params == nil {
		params = map[string]any{}
	}
	pe, err := expr.ParseJson(params)
	if err != nil {
		return nil, fmt.Errorf("call %s params: %w", def.Call, err)
	}
	catch, err := catchList(def.Catch)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", def.Call, err)
	}
	return &CallStatement{tool: tool, params: pe, catch: catch, storeAs: def.StoreAs}, nil
}

func buildIf(raw map[string]any, reg *registry.Registry) (Statement, error) {
	var def ifDef
	if err := decodeDef(raw, &def); err != nil {
		return nil, err
	}
	cond, err := expr.ParseJson(def.If)
	if err != nil {
		return nil, fmt.Errorf("if condition: %w", err)
	}
	if def.Then == nil {
		return nil, fmt.Errorf("if statement requires a then branch")
	}
	then, err := Build(def.Then, reg)
	if err != nil {
		return nil, fmt.Errorf("then branch: %w", err)
	}
	var els Statement
	if def.Else != nil {
		if els, err = Build(def.Else, reg); err != nil {
			return nil, fmt.Errorf("else branch: %w", err)
		}
	}
	return &IfStatement{cond: cond, then: then, els: els, storeAs: def.StoreAs}, nil
}

func buildSequence(defs []any, reg *registry.Registry) (Statement, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("sequence must contain at least one statement")
	}
	steps := make([]Statement, 0, len(defs))
	for i, d := range defs {
		s, err := Build(d, reg)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return &SequenceStatement{steps: steps}, nil
}

func decodeDef(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid statement: %w", err)
	}
	return nil
}

func catchList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		kinds := make([]string, 0, len(v))
		for _, k := range v {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("catch entries must be strings, got %s", expr.TypeName(k))
			}
			kinds = append(kinds, s)
		}
		return kinds, nil
	default:
		return nil, fmt.Errorf("catch must be a string or a list of strings, got %s", expr.TypeName(raw))
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// EvalStatement evaluates a template expression and returns its value.
type EvalStatement struct {
	expr    *expr.JsonExpr
	storeAs string
}

func (s *EvalStatement) Execute(ctx context.Context, scope *expr.Context, sink ports.RunSink) (any, error) {
	result, err := s.expr.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	if s.storeAs != "" {
		if err := scope.Add(s.storeAs, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CallStatement invokes a resolved tool with evaluated parameters. A
// catch list downgrades matching failures into tool-visible errors.
type CallStatement struct {
	tool    ports.Tool
	params  *expr.JsonExpr
	catch   []string
	storeAs string
}

func (s *CallStatement) Execute(ctx context.Context, scope *expr.Context, sink ports.RunSink) (any, error) {
	raw, err := s.params.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	args, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("call %s: params must evaluate to a dict, got %s", s.tool.Name(), expr.TypeName(raw))
	}
	result, err := ports.RunTool(ctx, s.tool, args, sink)
	if err != nil {
		if s.caught(err) {
			return nil, &domain.ToolError{Tool: s.tool.Name(), Err: err}
		}
		return nil, err
	}
	if s.storeAs != "" {
		if err := scope.Add(s.storeAs, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *CallStatement) caught(err error) bool {
	kind := domain.ErrorKind(err)
	for _, c := range s.catch {
		if c == catchAll || c == "all" || c == kind {
			return true
		}
	}
	return false
}

// IfStatement evaluates a condition and runs one of two branches. The
// chosen branch executes in a child scope, so its bindings stay local.
type IfStatement struct {
	cond    *expr.JsonExpr
	then    Statement
	els     Statement
	storeAs string
}

func (s *IfStatement) Execute(ctx context.Context, scope *expr.Context, sink ports.RunSink) (any, error) {
	cond, err := s.cond.Evaluate(scope)
	if err != nil {
		return nil, err
	}
	branch := s.then
	if !expr.Truthy(cond) {
		branch = s.els
	}
	if branch == nil {
		return nil, nil
	}
	result, err := branch.Execute(ctx, scope.Child(nil), sink)
	if err != nil {
		return nil, err
	}
	if s.storeAs != "" {
		if err := scope.Add(s.storeAs, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SequenceStatement runs its steps in order and returns the last
// result. Steps share one child scope in which the binding _ always
// names the preceding step's result and output0, output1, ... name each
// completed step's result, so store_as bindings made by one step stay
// visible to the steps after it.
type SequenceStatement struct {
	steps []Statement
}

func (s *SequenceStatement) Execute(ctx context.Context, scope *expr.Context, sink ports.RunSink) (any, error) {
	seq := scope.Child(nil)
	var last any
	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := seq.Add("_", last); err != nil {
			return nil, err
		}
		result, err := step.Execute(ctx, seq, sink)
		if err != nil {
			return nil, err
		}
		last = result
		if err := seq.Add(fmt.Sprintf("output%d", i), last); err != nil {
			return nil, err
		}
	}
	return last, nil
}
