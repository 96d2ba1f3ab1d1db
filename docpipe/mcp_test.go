package docpipe

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "docpipe-test", Version: "0.1.0"}

func mcpSession(t *testing.T, pipe *Pipeline) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	pipe.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %s", name, tc.Text)
	}
	return tc.Text
}

func TestMCP_Detect(t *testing.T) {
	// WHAT: detect reports the format and whether its backend is wired.
	// WHY: Callers decide whether to upload scans when OCR is absent.
	session := mcpSession(t, New(Config{PDF: stubPDF{}}))

	tests := []struct {
		name      string
		format    string
		available bool
	}{
		{"AR-2024.PDF", "pdf", true},
		{"scan.jpeg", "image", false},
		{"ledger.csv", "csv", true},
		{"deck.pptx", "unknown", false},
	}
	for _, tt := range tests {
		text := mcpCallTool(t, session, "filingscan_detect", map[string]any{"name": tt.name})
		var resp struct {
			Format    string `json:"format"`
			Available bool   `json:"available"`
		}
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Format != tt.format || resp.Available != tt.available {
			t.Errorf("%s: got %+v, want format=%s available=%v", tt.name, resp, tt.format, tt.available)
		}
	}
}

func TestMCP_Quality(t *testing.T) {
	session := mcpSession(t, New(Config{}))

	text := mcpCallTool(t, session, "filingscan_quality", map[string]any{
		"text": "Revenue | 1,200\nExpenses | 900",
	})
	var resp struct {
		Quality      int `json:"quality"`
		TableSignals int `json:"table_signals"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TableSignals != 2 {
		t.Errorf("table_signals = %d, want 2", resp.TableSignals)
	}
	if resp.Quality <= 0 || resp.Quality >= 100 {
		t.Errorf("quality = %d, want within (0,100)", resp.Quality)
	}
}

func TestMCP_InvalidArguments(t *testing.T) {
	session := mcpSession(t, New(Config{}))
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "filingscan_quality",
		Arguments: map[string]any{"text": 42},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for non-string text")
	}
}
