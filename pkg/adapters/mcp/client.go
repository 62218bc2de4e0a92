// Package mcp imports tools from Model Context Protocol servers so
// scripts can call them like any other tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/ports"
)

// Caller is the slice of the MCP client used by imported tools.
type Caller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Connection is the client surface needed to import a server's tools.
type Connection interface {
	Caller
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
}

// Connect starts a stdio MCP server process and performs the
// initialization handshake.
func Connect(ctx context.Context, command string, env []string, args ...string) (*client.Client, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "skein", Version: "dev"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	return c, nil
}

// ImportTools lists the server's tools and wraps each as an engine
// tool. Names are prefixed with "<prefix>_" when a prefix is given, so
// multiple servers can coexist in one registry.
func ImportTools(ctx context.Context, conn Connection, prefix string) ([]ports.Tool, error) {
	result, err := conn.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}

	tools := make([]ports.Tool, 0, len(result.Tools))
	for _, remote := range result.Tools {
		name := remote.Name
		if prefix != "" {
			name = prefix + "_" + name
		}
		tools = append(tools, &Tool{
			ToolBase: ports.ToolBase{
				ToolName:        name,
				ToolDescription: remote.Description,
				Schema:          inputSchema(remote),
			},
			caller: conn,
			remote: remote.Name,
		})
	}
	return tools, nil
}

// Tool proxies invocations to a remote MCP tool.
type Tool struct {
	ports.ToolBase
	caller Caller
	remote string
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any, _ ports.RunSink) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.remote
	req.Params.Arguments = args

	result, err := t.caller.CallTool(ctx, req)
	if err != nil {
		return nil, &domain.ToolError{Tool: t.Name(), Err: err}
	}

	text := joinTextContent(result.Content)
	if result.IsError {
		return nil, &domain.ToolError{Tool: t.Name(), Err: fmt.Errorf("%s", text)}
	}

	// Structured results come back as JSON text; surface them as native
	// values so expressions can index into them.
	var structured any
	if err := json.Unmarshal([]byte(text), &structured); err == nil {
		switch structured.(type) {
		case map[string]any, []any:
			return structured, nil
		}
	}
	return text, nil
}

func joinTextContent(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func inputSchema(tool mcp.Tool) map[string]any {
	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil || len(schema) == 0 {
		return map[string]any{"type": "object"}
	}
	return schema
}
