package mcp

import "encoding/json"

// protocolVersion is the MCP protocol revision this client speaks.
const protocolVersion = "2024-11-05"

// request is a JSON-RPC 2.0 request or notification (no ID).
type request struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// rpcError is the JSON-RPC error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// initializeParams is the MCP initialize handshake payload.
type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      clientInfo     `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// decodeResult extracts a textual result from an MCP response payload.
// FastMCP servers return either a bare string, or a content array of
// {"type":"text","text":...} blocks. Anything else is passed through
// as raw JSON.
func decodeResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var content struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &content); err == nil && len(content.Content) > 0 {
		out := ""
		for _, c := range content.Content {
			if c.Type == "text" {
				if out != "" {
					out += "\n"
				}
				out += c.Text
			}
		}
		if out != "" {
			return out
		}
	}

	return string(raw)
}
