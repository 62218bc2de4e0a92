package skein

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/skein/internal/logging"
	"github.com/aretw0/skein/pkg/adapters/anthropic"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
	"github.com/aretw0/skein/pkg/registry"
	"github.com/aretw0/skein/pkg/script"
	"github.com/aretw0/skein/pkg/tools"
	"github.com/aretw0/skein/pkg/worker"
)

// Version is the library version reported by the CLI.
const Version = "0.1.0"

// Engine is the high-level entry point for the Skein library. It loads a
// script, assembles its tool registry and conversation worker, and runs
// turns against the configured model.
type Engine struct {
	script *script.Script
	reg    *registry.Registry
	worker *worker.Worker
	system string
	logger *slog.Logger
	Name   string

	baseDir   string
	confirmer ports.Confirmer
	prompter  tools.Prompter
	model     ports.ChatModel
	streaming bool
	extra     []ports.Tool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithConfirmer routes tool confirmation requests to c. Without it,
// every request is approved.
func WithConfirmer(c ports.Confirmer) Option {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithPrompter enables the user_input builtin tool, backed by p.
func WithPrompter(p tools.Prompter) Option {
	return func(e *Engine) {
		e.prompter = p
	}
}

// WithBaseDir sets the directory the file tools resolve paths against.
// Defaults to the current directory.
func WithBaseDir(dir string) Option {
	return func(e *Engine) {
		e.baseDir = dir
	}
}

// WithModel injects the chat model directly, bypassing the provider
// lookup from the script's model configuration.
func WithModel(m ports.ChatModel) Option {
	return func(e *Engine) {
		e.model = m
	}
}

// WithStreaming toggles incremental model output.
func WithStreaming(streaming bool) Option {
	return func(e *Engine) {
		e.streaming = streaming
	}
}

// WithTools registers additional tools before the script is assembled,
// so script tools may call them.
func WithTools(ts ...ports.Tool) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, ts...)
	}
}

// New loads the script at path and assembles an Engine around it.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{baseDir: "."}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	cfg, err := script.Load(path)
	if err != nil {
		return nil, err
	}
	return eng.assemble(cfg)
}

// Parse assembles an Engine from an in-memory script document.
func Parse(data []byte, opts ...Option) (*Engine, error) {
	eng := &Engine{baseDir: "."}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	cfg, err := script.Parse(data)
	if err != nil {
		return nil, err
	}
	return eng.assemble(cfg)
}

func (e *Engine) assemble(cfg *script.Config) (*Engine, error) {
	reg := registry.New()
	reg.Register(tools.NewReadFile(e.baseDir))
	reg.Register(tools.NewWriteFile(e.baseDir))
	if e.prompter != nil {
		reg.Register(tools.NewUserInput(e.prompter))
	}
	for _, t := range e.extra {
		reg.Register(t)
	}

	sc, err := script.Assemble(cfg, reg)
	if err != nil {
		return nil, err
	}

	system, err := sc.SystemMessage()
	if err != nil {
		return nil, err
	}
	chatTools, err := sc.ChatTools()
	if err != nil {
		return nil, err
	}

	model := e.model
	if model == nil {
		mc, err := sc.Model("")
		if err != nil {
			return nil, err
		}
		model, err = buildModel(mc)
		if err != nil {
			return nil, err
		}
	}

	wopts := []worker.Option{
		worker.WithLogger(e.logger.With("script", e.Name)),
		worker.WithStreaming(e.streaming),
	}
	if e.confirmer != nil {
		wopts = append(wopts, worker.WithConfirmer(e.confirmer))
	}

	e.script = sc
	e.reg = reg
	e.system = system
	e.worker = worker.New(model, chatTools, wopts...)
	return e, nil
}

// buildModel instantiates the provider named by the model configuration.
// Anthropic is the only provider wired in so far.
func buildModel(mc script.ModelConfig) (ports.ChatModel, error) {
	switch mc.Provider {
	case "", "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("model %s: ANTHROPIC_API_KEY is not set", mc.Name)
		}
		var opts []anthropic.Option
		if v, ok := mc.ModelParams["max_tokens"]; ok {
			n, err := domainNumber(v)
			if err != nil {
				return nil, fmt.Errorf("model %s: max_tokens: %w", mc.Name, err)
			}
			opts = append(opts, anthropic.WithMaxTokens(int64(n)))
		}
		if v, ok := mc.ModelParams["temperature"]; ok {
			n, err := domainNumber(v)
			if err != nil {
				return nil, fmt.Errorf("model %s: temperature: %w", mc.Name, err)
			}
			opts = append(opts, anthropic.WithTemperature(n))
		}
		return anthropic.New(apiKey, mc.Model, opts...), nil
	default:
		return nil, fmt.Errorf("model %s: unknown provider %q", mc.Name, mc.Provider)
	}
}

func domainNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// Run executes one conversation turn. The system message is prepended
// when the history does not already carry one, so callers can persist
// plain conversation messages only.
func (e *Engine) Run(ctx context.Context, history []*domain.Message, events worker.Events) ([]*domain.Message, error) {
	if e.system != "" && (len(history) == 0 || history[0].Role != domain.RoleSystem) {
		withSystem := make([]*domain.Message, 0, len(history)+1)
		withSystem = append(withSystem, domain.NewSystemMessage(e.system))
		history = append(withSystem, history...)
	}
	return e.worker.Run(ctx, history, events)
}

// SystemMessage returns the rendered system prompt.
func (e *Engine) SystemMessage() string { return e.system }

// DefaultPrompt returns the script's opening user message, if any.
func (e *Engine) DefaultPrompt() string { return e.script.Config.Chat.DefaultPrompt }

// Usage returns the worker's accumulated token usage.
func (e *Engine) Usage() *domain.UsageTracker { return e.worker.Usage() }

// Registry returns the assembled tool registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Worker returns the underlying conversation worker.
func (e *Engine) Worker() *worker.Worker { return e.worker }
