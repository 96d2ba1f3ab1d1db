package server

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/filingscan/kit"
	"github.com/hazyhaar/filingscan/rules"
)

// RegisterMCP registers the workspace tools on srv. Engine tools read the
// current session; they report "not ready" as a tool error.
func (w *Workspace) RegisterMCP(srv *mcp.Server) {
	type empty struct{}
	log := func(name string) kit.Middleware {
		return kit.Chain(kit.RequestID(newRequestID), kit.Logging(w.logger, name))
	}

	reg := func(name, desc string, fn kit.Endpoint) {
		tool := &mcp.Tool{Name: name, Description: desc}
		kit.RegisterMCPTool[empty](srv, tool, log(name)(fn))
	}

	reg("filingscan_session", "Status and documents of the latest processed batch.",
		func(context.Context, any) (any, error) {
			sess := w.Session()
			if sess == nil {
				return nil, errors.New("no batch has been processed")
			}
			return sessionView(sess), nil
		})

	reg("filingscan_compliance", "Evaluate the latest batch against the regulatory rule book.",
		func(context.Context, any) (any, error) {
			findings, err := w.Compliance()
			if err != nil {
				return nil, err
			}
			return map[string]any{"findings": findings, "unresolved": rules.Unresolved(findings)}, nil
		})

	reg("filingscan_analytics", "Token counts, top terms and risk-indicator counts for the latest batch.",
		func(context.Context, any) (any, error) { return w.Analytics() })

	reg("filingscan_exam", "Preliminary exam: escalate to forensic review or continue monitoring. Requires compliance and an intelligence refresh first.",
		func(context.Context, any) (any, error) { return w.Exam() })

	type intelReq struct {
		Refresh bool `json:"refresh"`
	}
	intelTool := &mcp.Tool{
		Name:        "filingscan_intel",
		Description: "Regulatory news items ranked by enforcement risk. Set refresh to fetch the sources first.",
		InputSchema: kit.InputSchema(map[string]any{
			"refresh": map[string]any{"type": "boolean"},
		}, nil),
	}
	kit.RegisterMCPTool[intelReq](srv, intelTool, log(intelTool.Name)(
		func(ctx context.Context, req any) (any, error) {
			if req.(*intelReq).Refresh {
				items, err := w.RefreshIntelligence(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"items": items}, nil
			}
			items := w.Intelligence()
			if items == nil {
				return nil, errors.New("intelligence has not been refreshed")
			}
			return map[string]any{"items": items}, nil
		}))

	type searchReq struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	searchTool := &mcp.Tool{
		Name:        "filingscan_search",
		Description: "Find indexed chunks of the latest batch that share terms with a query, with the answer text.",
		InputSchema: kit.InputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "e.g. related party"},
			"limit": map[string]any{"type": "integer", "description": "Max hits (default 2)"},
		}, []string{"query"}),
	}
	kit.RegisterMCPTool[searchReq](srv, searchTool, log(searchTool.Name)(
		func(_ context.Context, req any) (any, error) {
			r := req.(*searchReq)
			if r.Query == "" {
				return nil, errors.New("query is required")
			}
			if r.Limit > 0 {
				return map[string]any{"query": r.Query, "hits": nonNilHits(w.Search(r.Query, r.Limit))}, nil
			}
			return w.Ask(r.Query), nil
		}))

	if w.cfg.Pipeline != nil {
		w.cfg.Pipeline.RegisterMCP(srv)
	}
}
