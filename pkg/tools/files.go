package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

type readFileArgs struct {
	Path string `json:"path" jsonschema:"required,description=Path of the file to read"`
}

// ReadFile reads a text file and returns its content. Paths are
// resolved relative to the tool's base directory.
type ReadFile struct {
	ports.ToolBase
	base string
}

// NewReadFile creates the read_file tool rooted at base. An empty base
// means the process working directory.
func NewReadFile(base string) *ReadFile {
	return &ReadFile{
		ToolBase: ports.ToolBase{
			ToolName:        "read_file",
			ToolDescription: "Reads a text file and returns its content.",
			Schema:          schemaFor(&readFileArgs{}),
		},
		base: base,
	}
}

func (t *ReadFile) UIHint(args map[string]any) string {
	if path, ok := args["path"].(string); ok {
		return fmt.Sprintf("Reading %s", path)
	}
	return "Reading file"
}

func (t *ReadFile) Invoke(_ context.Context, args map[string]any, _ ports.RunSink) (any, error) {
	var in readFileArgs
	if err := decodeArgs(t.Name(), args, &in); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(t.resolve(in.Path))
	if err != nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: err}
	}
	return string(data), nil
}

func (t *ReadFile) resolve(path string) string {
	if t.base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(t.base, path)
}

type writeFileArgs struct {
	Path    string `json:"path" jsonschema:"required,description=Path of the file to write"`
	Content string `json:"content" jsonschema:"required,description=Content to write"`
}

// WriteFile writes content to a file, creating parent directories as
// needed. Every invocation is confirmation gated.
type WriteFile struct {
	ports.ToolBase
	base string
}

// NewWriteFile creates the write_file tool rooted at base.
func NewWriteFile(base string) *WriteFile {
	return &WriteFile{
		ToolBase: ports.ToolBase{
			ToolName:        "write_file",
			ToolDescription: "Writes content to a file, overwriting it if it exists.",
			Schema:          schemaFor(&writeFileArgs{}),
			Confirm:         true,
		},
		base: base,
	}
}

func (t *WriteFile) UIHint(args map[string]any) string {
	if path, ok := args["path"].(string); ok {
		return fmt.Sprintf("Writing %s", path)
	}
	return "Writing file"
}

// ConfirmationRequest shows the target path and the full content so the
// user knows exactly what will land on disk.
func (t *WriteFile) ConfirmationRequest(args map[string]any) *domain.ConfirmationRequest {
	var in writeFileArgs
	if err := decodeArgs(t.Name(), args, &in); err != nil {
		return nil
	}
	return &domain.ConfirmationRequest{
		Action: fmt.Sprintf("Write file %s", in.Path),
		Params: []domain.ConfirmationParam{
			{Name: "path", Value: in.Path},
			{Name: "content", Value: in.Content, Format: "markdown"},
		},
	}
}

func (t *WriteFile) Invoke(_ context.Context, args map[string]any, _ ports.RunSink) (any, error) {
	var in writeFileArgs
	if err := decodeArgs(t.Name(), args, &in); err != nil {
		return nil, err
	}
	path := t.resolve(in.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: err}
	}
	if err := os.WriteFile(path, []byte(in.Content), 0o644); err != nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: err}
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(in.Content), in.Path), nil
}

func (t *WriteFile) resolve(path string) string {
	if t.base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(t.base, path)
}
