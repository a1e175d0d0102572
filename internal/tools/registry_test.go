// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/model"
)

// stubTool is a minimal Tool with optional retained sources.
type stubTool struct {
	name    string
	result  string
	sources []model.Source
}

func (s *stubTool) Definition() generator.ToolDefinition {
	return generator.ToolDefinition{
		Name:       s.name,
		Parameters: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}
}

func (s *stubTool) Execute(context.Context, map[string]interface{}) (string, error) {
	return s.result, nil
}

func (s *stubTool) LastSources() []model.Source { return s.sources }
func (s *stubTool) ResetSources()               { s.sources = nil }

func TestRegistry_RegisterRequiresName(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&stubTool{name: ""})
	if err == nil {
		t.Fatal("Expected error for unnamed tool, got nil")
	}
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&stubTool{name: "a"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := r.Register(&stubTool{name: "a"}); err == nil {
		t.Fatal("Expected error for duplicate name, got nil")
	}
}

func TestRegistry_DefinitionsInRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&stubTool{name: name}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("Expected 3 definitions, got %d", len(defs))
	}
	for i, want := range []string{"zeta", "alpha", "mid"} {
		if defs[i].Name != want {
			t.Errorf("Expected definition %d to be '%s', got '%s'", i, want, defs[i].Name)
		}
	}
}

func TestRegistry_UnknownToolReturnsSentinel(t *testing.T) {
	r := NewRegistry()

	out, err := r.Execute(context.Background(), "nonexistent_tool", nil)
	if err != nil {
		t.Fatalf("Expected no error for unknown tool, got %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Errorf("Expected 'not found' sentinel, got '%s'", out)
	}
}

func TestRegistry_ExecuteDispatchesByName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "echo", result: "hello"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := r.Execute(context.Background(), "echo", map[string]interface{}{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("Expected 'hello', got '%s'", out)
	}
}

func TestRegistry_LastSourcesFirstNonEmptyWins(t *testing.T) {
	r := NewRegistry()
	first := &stubTool{name: "first"}
	second := &stubTool{name: "second", sources: []model.Source{{Title: "B"}}}
	third := &stubTool{name: "third", sources: []model.Source{{Title: "C"}}}
	for _, tool := range []Tool{first, second, third} {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	sources := r.LastSources()
	if len(sources) != 1 || sources[0].Title != "B" {
		t.Errorf("Expected first non-empty list (B), got %+v", sources)
	}
}

func TestRegistry_LastSourcesEmptyByDefault(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubTool{name: "a"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sources := r.LastSources()
	if sources == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(sources) != 0 {
		t.Errorf("Expected no sources, got %+v", sources)
	}
}

func TestRegistry_ResetSourcesClearsAllTools(t *testing.T) {
	r := NewRegistry()
	a := &stubTool{name: "a", sources: []model.Source{{Title: "A"}}}
	b := &stubTool{name: "b", sources: []model.Source{{Title: "B"}}}
	for _, tool := range []Tool{a, b} {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	r.ResetSources()

	if len(r.LastSources()) != 0 {
		t.Errorf("Expected no sources after reset, got %+v", r.LastSources())
	}
	if a.sources != nil || b.sources != nil {
		t.Error("Expected every tool's sources cleared")
	}
}

func TestRegistry_CourseToolsRegisterCleanly(t *testing.T) {
	r := NewRegistry()
	store := &fakeStore{}

	if err := r.Register(NewCourseSearchTool(store)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := r.Register(NewCourseOutlineTool(store)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("Expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "search_course_content" || defs[1].Name != "get_course_outline" {
		t.Errorf("Unexpected definition order: %s, %s", defs[0].Name, defs[1].Name)
	}
}
