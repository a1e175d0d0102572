// SPDX-License-Identifier: AGPL-3.0-only
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/dpare01/course-rag/internal/errors"
	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/model"
)

// CourseSearchTool searches course content with smart course-name matching
// and optional lesson filtering. It retains the sources of its most recent
// execution until reset.
type CourseSearchTool struct {
	store       SearchStore
	lastSources []model.Source
}

// NewCourseSearchTool creates a search tool backed by store.
func NewCourseSearchTool(store SearchStore) *CourseSearchTool {
	return &CourseSearchTool{store: store}
}

func (t *CourseSearchTool) Definition() generator.ToolDefinition {
	return generator.ToolDefinition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]interface{}{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]interface{}{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", errors.InvalidInput("query is required")
	}
	courseName := stringArg(args, "course_name")
	lessonNumber := optionalInt(args, "lesson_number")

	results, err := t.store.Search(ctx, query, courseName, lessonNumber)
	if err != nil {
		// Backend-reported errors go back to the model as text, not as
		// a fault.
		return err.Error(), nil
	}

	if results.IsEmpty() {
		var filterInfo strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filterInfo, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filterInfo, " in lesson %d", *lessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filterInfo.String()), nil
	}

	return t.formatResults(ctx, results), nil
}

// formatResults renders each chunk under a bracketed course/lesson header
// and rebuilds the retained source list, one entry per distinct
// (course, lesson) pair in first-seen order.
func (t *CourseSearchTool) formatResults(ctx context.Context, results *model.SearchResults) string {
	var formatted []string
	var sources []model.Source
	seen := map[string]bool{}

	for i, doc := range results.Documents {
		meta := results.Metadata[i]

		header := "[" + meta.CourseTitle
		sourceTitle := meta.CourseTitle
		if meta.LessonNumber != nil {
			header += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
			sourceTitle += fmt.Sprintf(" - Lesson %d", *meta.LessonNumber)
		}
		header += "]"

		// One link lookup per distinct pair; repeated chunks from the
		// same lesson are cited once.
		if !seen[sourceTitle] {
			seen[sourceTitle] = true
			var link string
			if meta.LessonNumber != nil {
				link, _ = t.store.GetLessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
			}
			sources = append(sources, model.Source{Title: sourceTitle, URL: link})
		}

		formatted = append(formatted, header+"\n"+doc)
	}

	t.lastSources = sources

	return strings.Join(formatted, "\n\n")
}

func (t *CourseSearchTool) LastSources() []model.Source {
	return t.lastSources
}

func (t *CourseSearchTool) ResetSources() {
	t.lastSources = nil
}
