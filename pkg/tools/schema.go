package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/skein/pkg/domain"
)

// schemaFor reflects a JSON schema for a tool's argument struct.
func schemaFor(v any) map[string]any {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot marshal reflected schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("tools: cannot decode reflected schema: %v", err))
	}
	delete(out, "$schema")
	return out
}

// decodeArgs binds loosely typed call arguments onto a tool's argument
// struct. Failures surface as tool-visible errors.
func decodeArgs(toolName string, args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return &domain.ToolError{Tool: toolName, Err: fmt.Errorf("invalid arguments: %w", err)}
	}
	return nil
}
