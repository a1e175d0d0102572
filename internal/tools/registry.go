// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/dpare01/course-rag/internal/errors"
	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/model"
)

// Registry keeps the mapping between tool names and implementations and
// dispatches the model's tool calls. Definitions are advertised in
// registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool keyed by the name in its definition.
func (r *Registry) Register(tool Tool) error {
	name := tool.Definition().Name
	if name == "" {
		return errors.InvalidInput("tool definition has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return errors.AlreadyExists("tool", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Definitions returns all registered tool definitions in registration order,
// for advertisement to the model.
func (r *Registry) Definitions() []generator.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]generator.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a tool call by name. An unknown name is not a fault:
// the model hallucinating a tool degrades to a visible message rather than
// aborting the round.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	r.mu.RLock()
	tool, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Sprintf("Tool '%s' not found", name), nil
	}
	return tool.Execute(ctx, args)
}

// LastSources returns the retained sources of the first registered tool
// whose list is non-empty. With one tool invoked per query this is the
// sources of the most recent execution.
func (r *Registry) LastSources() []model.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if tracker, ok := r.tools[name].(SourceTracker); ok {
			if sources := tracker.LastSources(); len(sources) > 0 {
				return sources
			}
		}
	}
	return []model.Source{}
}

// ResetSources clears every tool's retained source list. Call it once
// sources have been read out, before the next independent query.
func (r *Registry) ResetSources() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tool := range r.tools {
		if tracker, ok := tool.(SourceTracker); ok {
			tracker.ResetSources()
		}
	}
}
