// SPDX-License-Identifier: AGPL-3.0-only
package generator

import "context"

// ToolDefinition is a provider-agnostic description of a tool that can be
// offered to the model during a completion.
type ToolDefinition struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object: {"type":"object","properties":...}.
	Parameters map[string]interface{}
}

// ToolCall is a single tool invocation requested by the model. Arguments is
// the raw JSON object emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult pairs a tool call with the text its execution produced.
type ToolResult struct {
	ToolCallID string
	Content    string
}

// Message is a provider-agnostic chat message. A "tool" message carries all
// tool results produced in one round; providers expand it into whatever
// shape their API expects.
type Message struct {
	Role        string // "user", "assistant", "tool"
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// CompletionRequest is one outbound call to a chat-completion backend.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int64
}

// ChatProvider abstracts a chat-completion backend so the generation loop
// can work with any LLM provider.
type ChatProvider interface {
	CreateCompletion(ctx context.Context, req *CompletionRequest) (*Message, error)
}

// Dispatcher executes a named tool with decoded arguments and returns its
// text result. Implementations must not panic on unknown names; they return
// sentinel text instead.
type Dispatcher interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (string, error)
}
