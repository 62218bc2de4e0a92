package script

// Config is the top-level shape of a worker script file.
type Config struct {
	// Models declares the chat models the script can address by name.
	Models []ModelConfig `yaml:"models"`
	// Shared holds bindings visible to every tool body and prompt
	// template. Values may contain template expressions.
	Shared map[string]any `yaml:"shared"`
	// Tools declares the script tools in definition order. A tool may
	// call any tool defined before it, plus every standard tool.
	Tools []ToolConfig `yaml:"tools"`
	// Chat configures the top-level conversation.
	Chat ChatConfig `yaml:"chat"`
}

// ModelConfig names a chat model and its provider-level parameters.
type ModelConfig struct {
	Name        string         `yaml:"name"`
	Provider    string         `yaml:"provider"`
	Model       string         `yaml:"model"`
	ModelParams map[string]any `yaml:"model_params"`
}

// ToolConfig declares one script tool.
type ToolConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Input       []ParamConfig `yaml:"input"`
	// Body is the raw statement definition, decoded lazily by Build.
	Body any `yaml:"body"`
	// ReturnDirect marks the tool's result as bound for the user
	// instead of the model.
	ReturnDirect bool `yaml:"return_direct"`
	// Confidential marks direct results whose merged assistant message
	// is redacted from any copy of history sent back to a model.
	Confidential bool `yaml:"confidential"`
	// RequireConfirmation gates every invocation behind an explicit
	// user approval.
	RequireConfirmation bool `yaml:"require_confirmation"`
}

// ParamConfig declares one tool input parameter.
type ParamConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Type is one of string, number, bool, list or dict. Empty means
	// any type is accepted.
	Type string `yaml:"type"`
	// Default makes the parameter optional.
	Default any `yaml:"default"`
}

// Required reports whether a caller must supply the parameter.
func (p ParamConfig) Required() bool {
	return p.Default == nil
}

// ChatConfig configures the top-level conversation loop.
type ChatConfig struct {
	// Model names an entry from Models used for the conversation.
	Model string `yaml:"model"`
	// SystemMessage may contain template expressions evaluated against
	// the script scope.
	SystemMessage string `yaml:"system_message"`
	// DefaultPrompt, when set, is submitted as the first user message.
	DefaultPrompt string `yaml:"default_prompt"`
	// Tools lists the tool names exposed to the model. Empty exposes
	// every non-hidden tool.
	Tools []string `yaml:"tools"`
}
