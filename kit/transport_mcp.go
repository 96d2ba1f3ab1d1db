package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// InputSchema builds a JSON object schema for an MCP tool.
func InputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// RegisterMCPTool exposes endpoint as an MCP tool. Arguments are decoded into
// a fresh *Req before the call; the response is returned as JSON text.
// Decode and endpoint failures become tool errors, not protocol errors.
func RegisterMCPTool[Req any](srv *mcp.Server, tool *mcp.Tool, endpoint Endpoint) {
	if tool.InputSchema == nil {
		tool.InputSchema = InputSchema(map[string]any{}, nil)
	}
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = WithTransport(ctx, "mcp")

		r := new(Req)
		if args := req.Params.Arguments; len(args) > 0 {
			if err := json.Unmarshal(args, r); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		resp, err := endpoint(ctx, r)
		if err != nil {
			return toolError(err), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
