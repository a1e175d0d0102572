// SPDX-License-Identifier: AGPL-3.0-only

package rag

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/ingest"
	"github.com/dpare01/course-rag/internal/model"
	"github.com/dpare01/course-rag/internal/session"
	"github.com/dpare01/course-rag/internal/store"
)

// scriptedProvider returns canned messages in order and records requests.
type scriptedProvider struct {
	responses []*generator.Message
	requests  []*generator.CompletionRequest
}

func (p *scriptedProvider) CreateCompletion(_ context.Context, req *generator.CompletionRequest) (*generator.Message, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return &generator.Message{Role: "assistant", Content: "out of script"}, nil
	}
	msg := p.responses[0]
	p.responses = p.responses[1:]
	return msg, nil
}

func newTestSystem(t *testing.T, provider generator.ChatProvider) (*System, *store.CourseStore) {
	t.Helper()
	st, err := store.NewCourseStore(filepath.Join(t.TempDir(), "courses.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	one := 1
	course := &model.Course{
		Title:   "Intro to Go",
		Link:    "https://example.com/go",
		Lessons: []model.Lesson{{Number: 1, Title: "Basics", Link: "https://example.com/go/1"}},
	}
	chunks := []model.Chunk{
		{CourseTitle: "Intro to Go", LessonNumber: &one, Content: "goroutines are lightweight threads"},
	}
	if err := st.AddCourse(context.Background(), course, chunks); err != nil {
		t.Fatalf("Failed to add course: %v", err)
	}

	gen := generator.New(provider, "test-model")
	sys, err := New(st, gen, session.NewManager(2), ingest.NewIndexer(st, 200, 40, nil), nil)
	if err != nil {
		t.Fatalf("Failed to build system: %v", err)
	}
	return sys, st
}

func TestQueryDirectAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*generator.Message{
		{Role: "assistant", Content: "Go is a language."},
	}}
	sys, _ := newTestSystem(t, provider)

	answer, sources, err := sys.Query(context.Background(), "What is Go?", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if answer != "Go is a language." {
		t.Errorf("Expected scripted answer, got %q", answer)
	}
	if len(sources) != 0 {
		t.Errorf("Expected no sources without tool use, got %v", sources)
	}
}

func TestQueryWrapsPromptAndAdvertisesTools(t *testing.T) {
	provider := &scriptedProvider{responses: []*generator.Message{
		{Role: "assistant", Content: "ok"},
	}}
	sys, _ := newTestSystem(t, provider)

	if _, _, err := sys.Query(context.Background(), "what is a goroutine", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := provider.requests[0]
	want := "Answer this question about course materials: what is a goroutine"
	if len(req.Messages) != 1 || req.Messages[0].Content != want {
		t.Errorf("Expected wrapped prompt %q, got %+v", want, req.Messages)
	}
	if len(req.Tools) != 2 {
		t.Fatalf("Expected 2 tool definitions, got %d", len(req.Tools))
	}
	if req.Tools[0].Name != "search_course_content" || req.Tools[1].Name != "get_course_outline" {
		t.Errorf("Expected search then outline tools, got %q and %q", req.Tools[0].Name, req.Tools[1].Name)
	}
}

func TestQueryToolUseCollectsAndResetsSources(t *testing.T) {
	provider := &scriptedProvider{responses: []*generator.Message{
		{Role: "assistant", ToolCalls: []generator.ToolCall{{
			ID:        "call_1",
			Name:      "search_course_content",
			Arguments: `{"query": "goroutines"}`,
		}}},
		{Role: "assistant", Content: "Goroutines are lightweight threads."},
	}}
	sys, _ := newTestSystem(t, provider)

	answer, sources, err := sys.Query(context.Background(), "explain goroutines", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(answer, "lightweight threads") {
		t.Errorf("Expected final answer, got %q", answer)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected 1 source from search, got %d: %v", len(sources), sources)
	}
	if sources[0].Title != "Intro to Go - Lesson 1" {
		t.Errorf("Expected source title 'Intro to Go - Lesson 1', got %q", sources[0].Title)
	}
	if sources[0].URL != "https://example.com/go/1" {
		t.Errorf("Expected lesson link, got %q", sources[0].URL)
	}

	// A second query with no tool use must not see stale sources.
	provider.responses = []*generator.Message{{Role: "assistant", Content: "plain answer"}}
	_, sources, err = sys.Query(context.Background(), "something else", "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("Expected sources cleared between queries, got %v", sources)
	}
}

func TestQuerySessionHistory(t *testing.T) {
	provider := &scriptedProvider{responses: []*generator.Message{
		{Role: "assistant", Content: "first answer"},
		{Role: "assistant", Content: "second answer"},
	}}
	sys, _ := newTestSystem(t, provider)

	id := sys.CreateSession()
	if _, _, err := sys.Query(context.Background(), "first question", id); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, _, err := sys.Query(context.Background(), "second question", id); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	system := provider.requests[1].System
	if !strings.Contains(system, "Previous conversation:") {
		t.Errorf("Expected history section in system prompt, got %q", system)
	}
	if !strings.Contains(system, "User: first question") || !strings.Contains(system, "Assistant: first answer") {
		t.Errorf("Expected prior exchange in system prompt, got %q", system)
	}
}

func TestDeleteSession(t *testing.T) {
	provider := &scriptedProvider{}
	sys, _ := newTestSystem(t, provider)

	id := sys.CreateSession()
	if !sys.DeleteSession(id) {
		t.Error("Expected delete of existing session to report true")
	}
	if sys.DeleteSession(id) {
		t.Error("Expected delete of missing session to report false")
	}
}

func TestAnalytics(t *testing.T) {
	provider := &scriptedProvider{}
	sys, _ := newTestSystem(t, provider)

	stats, err := sys.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if stats.TotalCourses != 1 {
		t.Errorf("Expected 1 course, got %d", stats.TotalCourses)
	}
	if len(stats.CourseTitles) != 1 || stats.CourseTitles[0] != "Intro to Go" {
		t.Errorf("Expected course title list, got %v", stats.CourseTitles)
	}
}
