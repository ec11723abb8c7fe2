// response.go — Response formatting and JSON serialization helpers.
// Maps ToolResponse values into MCP CallToolResult payloads.
package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// SafeMarshal performs defensive JSON marshaling with a fallback value.
func SafeMarshal(v any, fallback string) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// This should never happen with simple structs, but handle it defensively
		fmt.Fprintf(os.Stderr, "[ashfox] JSON marshal error: %v\n", err)
		return json.RawMessage(fallback)
	}
	return json.RawMessage(data)
}

const marshalFallback = `{"content":[{"type":"text","text":"Internal error: failed to marshal result"}],"isError":true}`

// ToCallToolResult converts a ToolResponse into the MCP CallToolResult shape.
// Success wraps data as a JSON text block plus structuredContent; failure sets
// isError with the error message as text and the full error as
// structuredContent. Transport-level status stays 200 either way.
func (tr ToolResponse) ToCallToolResult() CallToolResult {
	if tr.OK {
		structured := tr.StructuredContent
		if structured == nil {
			structured = tr.Data
		}
		text := string(SafeMarshal(structured, `{}`))
		result := CallToolResult{
			Content:           []ContentBlock{{Type: "text", Text: text}},
			StructuredContent: structured,
		}
		if len(tr.Meta) > 0 {
			result.Meta = tr.Meta
		}
		return result
	}

	err := tr.Err
	if err == nil {
		err = &ToolError{Code: ErrUnknown, Message: "tool failed without error detail",
			Details: map[string]any{"reason": "missing error payload"}}
	}
	result := CallToolResult{
		Content:           []ContentBlock{{Type: "text", Text: err.Message}},
		StructuredContent: err,
		IsError:           true,
	}
	if len(tr.Meta) > 0 {
		result.Meta = tr.Meta
	}
	return result
}

// ToolCallResponse builds the JSON-RPC response for a completed tool call.
func ToolCallResponse(id any, tr ToolResponse) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  SafeMarshal(tr.ToCallToolResult(), marshalFallback),
	}
}
