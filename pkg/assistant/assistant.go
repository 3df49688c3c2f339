// Package assistant turns transcribed voice commands into short
// conversational replies plus tool invocations against the ordering
// backends.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tacolabs/hungry-agent/internal/log"
	"github.com/tacolabs/hungry-agent/pkg/inference"
)

// systemPrompt keeps replies short enough for TTS.
const systemPrompt = `You are a friendly taco ordering assistant. Keep responses conversational but brief - 1 to 2 sentences maximum.

RESPONSE STYLE:
- Sound natural and helpful
- 1-2 sentences only
- Be conversational but efficient
- Acknowledge what they want clearly

EXAMPLES:
User: "I want three al pastor tacos"
You: "Great choice! Let me search for al pastor tacos for you."

User: "Search for tacos"
You: "Perfect! Searching for delicious taco options now."

User: "Check my order status"
You: "Sure thing! What's your order number?"

Keep it friendly and conversational but concise!`

// Tool represents a function the assistant can invoke.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error)
}

// ToolResult is the outcome of one tool invocation.
type ToolResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the assistant's answer to one voice command.
type Response struct {
	// Text is the conversational reply, suitable for TTS.
	Text string `json:"text"`

	// ToolCalls are the raw function calls the model requested.
	ToolCalls []inference.ToolCall `json:"tool_calls,omitempty"`

	// Results are the outcomes of executing those calls.
	Results []ToolResult `json:"results,omitempty"`
}

// Assistant orchestrates the LLM and the registered tools.
type Assistant struct {
	llm      inference.Provider
	tools    []Tool
	handlers map[string]Tool
	defs     []inference.Tool
	logger   *slog.Logger
}

// New creates an assistant backed by the given inference provider.
func New(llm inference.Provider, tools []Tool) *Assistant {
	a := &Assistant{
		llm:      llm,
		handlers: make(map[string]Tool),
		logger:   log.Component("assistant"),
	}
	for _, tool := range tools {
		a.Register(tool)
	}
	return a
}

// Register adds a tool to the assistant's registry.
func (a *Assistant) Register(tool Tool) {
	a.tools = append(a.tools, tool)
	a.handlers[tool.Name] = tool
	a.defs = append(a.defs, inference.NewTool(tool.Name, tool.Description, tool.Parameters))
}

// Process runs one voice command through the model and executes any
// tool calls it requests. Tool failures are reported in the results,
// never as a request-level error.
func (a *Assistant) Process(ctx context.Context, sessionID, text string) (*Response, error) {
	req := inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(systemPrompt),
			inference.NewUserMessage(text),
		},
		Tools:     a.defs,
		MaxTokens: 100, // 1-2 sentences
	}

	resp, err := a.llm.Chat(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	out := &Response{
		Text:      resp.Message.Content,
		ToolCalls: resp.Message.ToolCalls,
	}

	for _, call := range resp.Message.ToolCalls {
		out.Results = append(out.Results, a.execute(ctx, sessionID, call))
	}

	return out, nil
}

func (a *Assistant) execute(ctx context.Context, sessionID string, call inference.ToolCall) ToolResult {
	tool, ok := a.handlers[call.Name]
	if !ok {
		a.logger.Warn("unknown tool requested", "tool", call.Name)
		return ToolResult{Name: call.Name, Error: fmt.Sprintf("unknown function: %s", call.Name)}
	}

	args := map[string]interface{}{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return ToolResult{Name: call.Name, Error: fmt.Sprintf("bad arguments: %v", err)}
		}
	}

	result, err := tool.Handler(ctx, sessionID, args)
	if err != nil {
		a.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return ToolResult{Name: call.Name, Error: err.Error()}
	}

	a.logger.Debug("tool executed", "tool", call.Name)
	return ToolResult{Name: call.Name, Success: true, Result: result}
}
