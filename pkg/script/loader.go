package script

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/skein/pkg/expr"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/registry"
)

// Script is a fully assembled worker script: parsed configuration, the
// frozen script scope, and the registry holding standard plus script
// tools.
type Script struct {
	Config   *Config
	Scope    *expr.Context
	Registry *registry.Registry
}

// Load reads and parses a script file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a script document. Unknown top-level fields are
// rejected so typos fail loudly.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &cfg, nil
}

// Assemble builds the script scope and its tools on top of a registry
// already holding the standard tools. Shared bindings are evaluated in
// sorted name order against the ambient environment (YAML maps do not
// preserve document order), then the scope is frozen. Tools are built
// in declaration order, so a tool may call any tool registered before
// it.
func Assemble(cfg *Config, reg *registry.Registry) (*Script, error) {
	scope := expr.NewContext(expr.DefaultEnvironment())
	for _, name := range sharedOrder(cfg.Shared) {
		je, err := expr.ParseJson(cfg.Shared[name])
		if err != nil {
			return nil, fmt.Errorf("shared %s: %w", name, err)
		}
		value, err := je.Evaluate(scope)
		if err != nil {
			return nil, fmt.Errorf("shared %s: %w", name, err)
		}
		if err := scope.Add(name, value); err != nil {
			return nil, err
		}
	}
	scope.Freeze()

	for _, tc := range cfg.Tools {
		tool, err := BuildTool(tc, reg, scope)
		if err != nil {
			return nil, err
		}
		reg.Register(tool)
	}
	return &Script{Config: cfg, Scope: scope, Registry: reg}, nil
}

// SystemMessage renders the chat system prompt against the script
// scope. An empty configuration yields an empty string.
func (s *Script) SystemMessage() (string, error) {
	if s.Config.Chat.SystemMessage == "" {
		return "", nil
	}
	se, err := expr.ParseString(s.Config.Chat.SystemMessage)
	if err != nil {
		return "", fmt.Errorf("system message: %w", err)
	}
	value, err := se.Evaluate(s.Scope)
	if err != nil {
		return "", fmt.Errorf("system message: %w", err)
	}
	return expr.Stringify(value), nil
}

// ChatTools resolves the tools exposed to the conversation model. With
// no explicit list configured, every registered tool is exposed.
func (s *Script) ChatTools() ([]ports.Tool, error) {
	if len(s.Config.Chat.Tools) == 0 {
		return s.Registry.Tools(), nil
	}
	tools := make([]ports.Tool, 0, len(s.Config.Chat.Tools))
	for _, name := range s.Config.Chat.Tools {
		tool, err := s.Registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Model returns the configuration of the named model, or the chat
// model when name is empty.
func (s *Script) Model(name string) (ModelConfig, error) {
	if name == "" {
		name = s.Config.Chat.Model
	}
	for _, mc := range s.Config.Models {
		if mc.Name == name {
			return mc, nil
		}
	}
	return ModelConfig{}, fmt.Errorf("unknown model %q", name)
}

// sharedOrder returns shared binding names sorted, keeping evaluation
// deterministic. YAML map decoding does not preserve document order.
func sharedOrder(shared map[string]any) []string {
	names := make([]string, 0, len(shared))
	for name := range shared {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
