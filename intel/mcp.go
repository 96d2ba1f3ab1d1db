package intel

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/filingscan/kit"
)

// RegisterMCP registers the stateless intel tools: risk scoring of an
// arbitrary headline and audit-firm risk.
func RegisterMCP(srv *mcp.Server, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	type scoreReq struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	scoreTool := &mcp.Tool{
		Name:        "filingscan_risk_score",
		Description: "Score a news headline and description against the enforcement risk vocabulary.",
		InputSchema: kit.InputSchema(map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
		}, []string{"title"}),
	}
	kit.RegisterMCPTool[scoreReq](srv, scoreTool, kit.Logging(logger, scoreTool.Name)(
		func(_ context.Context, req any) (any, error) {
			r := req.(*scoreReq)
			return map[string]any{"risk": Score(r.Title, r.Description), "max": len(Vocabulary)}, nil
		}))

	firmTool := &mcp.Tool{
		Name:        "filingscan_audit_firm_risk",
		Description: "Score an audit firm's regulatory exposure between 0 and 1 and list clauses it violated repeatedly.",
		InputSchema: kit.InputSchema(map[string]any{
			"audit_firm":           map[string]any{"type": "string"},
			"recent_violations":    map[string]any{"type": "integer"},
			"repeat_high_severity": map[string]any{"type": "integer"},
			"entity_ids":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"clause_history":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}, []string{"audit_firm"}),
	}
	kit.RegisterMCPTool[FirmHistory](srv, firmTool, kit.Logging(logger, firmTool.Name)(
		func(_ context.Context, req any) (any, error) {
			return req.(*FirmHistory).Assess(), nil
		}))
}
