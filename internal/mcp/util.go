package mcp

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// dataToMCP converts a result envelope to MCP text content via JSON
// marshaling. All data becomes JSON, clients parse it.
func dataToMCP(data any) *mcp.CallToolResult {
	b, err := json.Marshal(data)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "marshal error"}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// failure builds the uniform error envelope {success:false, error}, echoing
// back the query fields the caller sent so the result is self-describing.
func failure(err error, echo map[string]any) *mcp.CallToolResult {
	payload := map[string]any{
		"success": false,
		"error":   err.Error(),
	}
	for k, v := range echo {
		payload[k] = v
	}
	return dataToMCP(payload)
}
