package script

import (
	"context"
	"fmt"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/expr"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/registry"
)

// Tool is a script-defined tool: declared parameters over a statement
// body. Each invocation validates its arguments, binds them in a fresh
// child of the script's frozen root scope, and executes the body.
type Tool struct {
	ports.ToolBase
	params []ParamConfig
	body   Statement
	root   *expr.Context
}

var _ ports.Tool = (*Tool)(nil)

// BuildTool assembles a script tool from its configuration. The body's
// tool references are resolved against the registry immediately.
func BuildTool(cfg ToolConfig, reg *registry.Registry, root *expr.Context) (*Tool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("tool requires a name")
	}
	if cfg.Body == nil {
		return nil, fmt.Errorf("tool %s requires a body", cfg.Name)
	}
	body, err := Build(cfg.Body, reg)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", cfg.Name, err)
	}
	for _, p := range cfg.Input {
		if p.Name == "" {
			return nil, fmt.Errorf("tool %s: input parameter requires a name", cfg.Name)
		}
		if err := checkParamType(p); err != nil {
			return nil, fmt.Errorf("tool %s: %w", cfg.Name, err)
		}
	}
	return &Tool{
		ToolBase: ports.ToolBase{
			ToolName:        cfg.Name,
			ToolDescription: cfg.Description,
			Schema:          paramSchema(cfg.Input),
			Direct:          cfg.ReturnDirect,
			Secret:          cfg.Confidential,
			Confirm:         cfg.RequireConfirmation,
		},
		params: cfg.Input,
		body:   body,
		root:   root,
	}, nil
}

// Invoke validates the arguments, binds them in a child scope and runs
// the body. The scope is discarded afterwards, so invocations never see
// each other's bindings.
func (t *Tool) Invoke(ctx context.Context, args map[string]any, sink ports.RunSink) (any, error) {
	bound, err := t.bindArgs(args)
	if err != nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: err}
	}
	return t.body.Execute(ctx, t.root.Child(bound), sink)
}

func (t *Tool) bindArgs(args map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(t.params))
	for _, p := range t.params {
		v, ok := args[p.Name]
		if !ok {
			if p.Required() {
				return nil, fmt.Errorf("missing required parameter %q", p.Name)
			}
			v = p.Default
		}
		if p.Type != "" && v != nil && expr.TypeName(v) != p.Type {
			return nil, fmt.Errorf("parameter %q must be a %s, got %s", p.Name, p.Type, expr.TypeName(v))
		}
		bound[p.Name] = v
	}
	for name := range args {
		if !hasParam(t.params, name) {
			return nil, fmt.Errorf("unexpected parameter %q", name)
		}
	}
	return bound, nil
}

func hasParam(params []ParamConfig, name string) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func checkParamType(p ParamConfig) error {
	switch p.Type {
	case "", "string", "number", "bool", "list", "dict":
		return nil
	default:
		return fmt.Errorf("parameter %q has unknown type %q", p.Name, p.Type)
	}
}

// paramSchema renders declared parameters as a JSON schema object, the
// shape providers expect for tool definitions.
func paramSchema(params []ParamConfig) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		prop := map[string]any{}
		if p.Type != "" {
			prop["type"] = schemaType(p.Type)
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required() {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func schemaType(t string) string {
	switch t {
	case "bool":
		return "boolean"
	case "list":
		return "array"
	case "dict":
		return "object"
	default:
		return t
	}
}
