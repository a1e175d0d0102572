// SPDX-License-Identifier: AGPL-3.0-only
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dpare01/course-rag/internal/config"
)

const (
	// DefaultMaxToolRounds bounds sequential tool-calling rounds per query.
	DefaultMaxToolRounds = 2

	// Sampling parameters are fixed; answers should be deterministic and
	// bounded in length.
	temperature     = 0
	maxOutputTokens = 800
)

// systemPrompt is static to avoid rebuilding it on each call.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for searching and exploring course information.

Available Tools:
1. **search_course_content** - Search within course materials for specific information, concepts, or topics
2. **get_course_outline** - Get the complete structure of a course including all lesson titles

Tool Selection Guidelines:
- Use **get_course_outline** when users ask about:
  - Course structure or overview
  - What lessons are in a course
  - List of topics covered in a course
  - Course table of contents

- Use **search_course_content** when users ask about:
  - Specific concepts, definitions, or explanations
  - Detailed information from lesson content
  - Questions that require searching through course text

- **Sequential tool calls**: You may make up to 2 tool calls per query if needed. After reviewing results from your first tool call, you can make a second call if additional information is required.
- **When to use multiple calls**: Use a second tool call when the first search did not return sufficient information, you need to search a different course/lesson, or you need both outline and content details.
- **Efficiency**: If the first tool call provides a complete answer, respond directly without additional calls.
- If a tool yields no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without tools
- **Course-specific questions**: Use appropriate tool first, then answer
- **No meta-commentary**:
  - Provide direct answers only - no reasoning process, search explanations, or question-type analysis
  - Do not mention "based on the search results" or "based on the outline"

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// Generator runs the multi-round tool-calling protocol against a
// chat-completion backend and returns final answer text.
type Generator struct {
	provider      ChatProvider
	model         string
	maxToolRounds int
}

// New creates a Generator for the given provider and model id.
func New(provider ChatProvider, model string) *Generator {
	return &Generator{
		provider:      provider,
		model:         model,
		maxToolRounds: DefaultMaxToolRounds,
	}
}

// SetMaxToolRounds overrides the tool-round ceiling. Values below 1 are
// ignored.
func (g *Generator) SetMaxToolRounds(n int) {
	if n >= 1 {
		g.maxToolRounds = n
	}
}

// NewProvider builds the ChatProvider selected by cfg.
func NewProvider(cfg *config.AIConfig) (ChatProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		apiKey := cfg.AnthropicAPIKey
		if apiKey == "" {
			apiKey = cfg.APIKey
		}
		if apiKey == "" {
			return nil, fmt.Errorf("Anthropic API key is not set in configuration")
		}
		return NewAnthropicProvider(apiKey), nil
	case "openai":
		apiKey := cfg.OpenAIAPIKey
		if apiKey == "" {
			apiKey = cfg.APIKey
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is not set in configuration")
		}
		return NewOpenAIProvider(apiKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// Generate produces an answer for query, optionally grounding it through
// tool calls. history is a pre-formatted text block of prior conversation
// (empty to omit). tools advertises capabilities to the model; dispatcher
// executes them. Provider failures propagate to the caller; individual tool
// faults are converted to text and fed back into the loop.
func (g *Generator) Generate(ctx context.Context, query string, history string, tools []ToolDefinition, dispatcher Dispatcher) (string, error) {
	system := systemPrompt
	if history != "" {
		system = systemPrompt + "\n\nPrevious conversation:\n" + history
	}

	messages := []Message{
		{Role: "user", Content: query},
	}

	resp, err := g.provider.CreateCompletion(ctx, &CompletionRequest{
		Model:       g.model,
		System:      system,
		Messages:    messages,
		Tools:       tools,
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.ToolCalls) == 0 || dispatcher == nil {
		return resp.Content, nil
	}
	return g.runToolRounds(ctx, system, messages, tools, dispatcher, resp)
}

// runToolRounds executes up to maxToolRounds cycles of
// {model requests tools -> tools executed -> results fed back}. If the model
// still wants tools when the ceiling is reached, one final completion is
// issued without tools to force a text answer, so the loop makes at most
// maxToolRounds+1 completions.
func (g *Generator) runToolRounds(ctx context.Context, system string, messages []Message, tools []ToolDefinition, dispatcher Dispatcher, initial *Message) (string, error) {
	current := initial
	roundsCompleted := 0

	for roundsCompleted < g.maxToolRounds {
		// The assistant's tool-requesting message joins the sequence.
		messages = append(messages, *current)

		// Execute calls sequentially in emission order. A failing call
		// becomes an error result; it never aborts sibling calls.
		results := make([]ToolResult, 0, len(current.ToolCalls))
		for _, call := range current.ToolCalls {
			results = append(results, ToolResult{
				ToolCallID: call.ID,
				Content:    g.dispatch(ctx, dispatcher, call),
			})
		}
		if len(results) > 0 {
			messages = append(messages, Message{Role: "tool", ToolResults: results})
		}

		roundsCompleted++

		// Follow-up call with tools still advertised so the model may
		// choose to call again.
		next, err := g.provider.CreateCompletion(ctx, &CompletionRequest{
			Model:       g.model,
			System:      system,
			Messages:    messages,
			Tools:       tools,
			Temperature: temperature,
			MaxTokens:   maxOutputTokens,
		})
		if err != nil {
			return "", err
		}

		if len(next.ToolCalls) == 0 {
			return next.Content, nil
		}
		current = next
	}

	// Ceiling reached while the model still wants tools: one final call
	// without tools forces a text-only answer.
	final, err := g.provider.CreateCompletion(ctx, &CompletionRequest{
		Model:       g.model,
		System:      system,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

// dispatch runs one tool call and captures any fault as text so the round
// continues.
func (g *Generator) dispatch(ctx context.Context, dispatcher Dispatcher, call ToolCall) string {
	args := map[string]interface{}{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return fmt.Sprintf("Tool execution failed: %v", err)
		}
	}

	out, err := dispatcher.Execute(ctx, call.Name, args)
	if err != nil {
		return fmt.Sprintf("Tool execution failed: %v", err)
	}
	return out
}
