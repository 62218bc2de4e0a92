package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

// Process runs a fixed external command as a tool. The command and its
// flags are set at registration time; call arguments are passed to the
// process as SKEIN_ARG_* environment variables, never as command-line
// flags, so argument content cannot inject options.
type Process struct {
	ports.ToolBase
	command string
	args    []string
	dir     string
}

// ProcessOption configures a process tool.
type ProcessOption func(*Process)

// WithWorkDir sets the working directory for the executed process.
func WithWorkDir(dir string) ProcessOption {
	return func(p *Process) {
		p.dir = dir
	}
}

// WithoutConfirmation disables the confirmation gate. Only sensible for
// commands with no side effects.
func WithoutConfirmation() ProcessOption {
	return func(p *Process) {
		p.Confirm = false
	}
}

// NewProcess registers command as a tool named name. The input schema
// is an open object; whatever arguments the model passes become
// environment variables of the process.
func NewProcess(name, description, command string, args []string, opts ...ProcessOption) *Process {
	p := &Process{
		ToolBase: ports.ToolBase{
			ToolName:        name,
			ToolDescription: description,
			Schema:          map[string]any{"type": "object"},
			Confirm:         true,
		},
		command: command,
		args:    args,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Process) UIHint(map[string]any) string {
	return fmt.Sprintf("Running %s", p.command)
}

func (p *Process) ConfirmationRequest(args map[string]any) *domain.ConfirmationRequest {
	req := &domain.ConfirmationRequest{
		Action: fmt.Sprintf("Run command %s", strings.Join(append([]string{p.command}, p.args...), " ")),
	}
	for k, v := range args {
		req.Params = append(req.Params, domain.ConfirmationParam{Name: k, Value: v})
	}
	return req
}

func (p *Process) Invoke(ctx context.Context, args map[string]any, _ ports.RunSink) (any, error) {
	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Dir = p.dir
	cmd.Env = append(cmd.Environ(), argEnv(args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &domain.ToolError{
			Tool: p.Name(),
			Err:  fmt.Errorf("execution failed: %w. Stderr: %s", err, stderr.String()),
		}
	}

	trimmed := strings.TrimSpace(stdout.String())

	// Processes that print JSON get their output parsed back into
	// structured values, so scripts can index into the result.
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var structured any
		if err := json.Unmarshal([]byte(trimmed), &structured); err == nil {
			return structured, nil
		}
	}
	return trimmed, nil
}

// argEnv serializes call arguments to environment variable pairs.
// Scalars are formatted directly, everything else as JSON.
func argEnv(args map[string]any) []string {
	env := make([]string, 0, len(args))
	for k, v := range args {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, fmt.Sprintf("SKEIN_ARG_%s=%s", strings.ToUpper(k), val))
	}
	return env
}
