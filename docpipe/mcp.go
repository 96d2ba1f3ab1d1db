package docpipe

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/filingscan/kit"
)

// RegisterMCP registers docpipe tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerDetectTool(srv)
	p.registerQualityTool(srv)
}

// --- detect ---

type detectReq struct {
	Name string `json:"name"`
}

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "filingscan_detect",
		Description: "Detect the extraction strategy for a file name and whether its backend is available.",
		InputSchema: kit.InputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "File name, e.g. annual-report.pdf"},
		}, []string{"name"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*detectReq)
		format := Detect(r.Name)
		available := format != FormatUnknown && p.Capabilities()[format]
		return map[string]any{"format": string(format), "available": available}, nil
	}

	kit.RegisterMCPTool[detectReq](srv, tool, kit.Logging(p.logger, tool.Name)(endpoint))
}

// --- quality ---

type qualityReq struct {
	Text string `json:"text"`
}

func (p *Pipeline) registerQualityTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "filingscan_quality",
		Description: "Score extracted text for legibility (0-100) and count table-like lines.",
		InputSchema: kit.InputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Extracted text"},
		}, []string{"text"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*qualityReq)
		return map[string]any{
			"quality":       EstimateQuality(r.Text),
			"table_signals": DetectTableSignals(r.Text),
		}, nil
	}

	kit.RegisterMCPTool[qualityReq](srv, tool, kit.Logging(p.logger, tool.Name)(endpoint))
}
