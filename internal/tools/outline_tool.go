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

// CourseOutlineTool retrieves a course outline including all lessons. It
// retains a single course-level source from its most recent execution.
type CourseOutlineTool struct {
	store       SearchStore
	lastSources []model.Source
}

// NewCourseOutlineTool creates an outline tool backed by store.
func NewCourseOutlineTool(store SearchStore) *CourseOutlineTool {
	return &CourseOutlineTool{store: store}
}

func (t *CourseOutlineTool) Definition() generator.ToolDefinition {
	return generator.ToolDefinition{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including its title, course link, and list of all lessons with their numbers and titles. Use this when users ask about course structure, what lessons are in a course, or want an overview of course content.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"course_title": map[string]interface{}{
					"type":        "string",
					"description": "The course title to get the outline for (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			"required": []string{"course_title"},
		},
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	courseTitle := stringArg(args, "course_title")
	if courseTitle == "" {
		return "", errors.InvalidInput("course_title is required")
	}

	resolved, err := t.store.ResolveCourseName(ctx, courseTitle)
	if err != nil || resolved == "" {
		return fmt.Sprintf("No course found matching '%s'. Please try a different course name.", courseTitle), nil
	}

	meta, err := t.store.GetCourseMetadata(ctx, resolved)
	if err != nil {
		return fmt.Sprintf("Error retrieving course data: %v", err), nil
	}

	// Malformed stored lesson data degrades to an empty list.
	lessons := model.ParseLessons(meta.LessonsJSON)

	return t.formatOutline(meta.Title, meta.CourseLink, lessons), nil
}

func (t *CourseOutlineTool) formatOutline(title, courseLink string, lessons []model.Lesson) string {
	lines := []string{fmt.Sprintf("**%s**", title)}
	if courseLink != "" {
		lines = append(lines, fmt.Sprintf("Course Link: %s", courseLink))
	}
	lines = append(lines, "")

	if len(lessons) == 0 {
		lines = append(lines, "This course has no lessons listed.")
	} else {
		lines = append(lines, fmt.Sprintf("**Lessons (%d total):**", len(lessons)))
		for _, lesson := range lessons {
			lines = append(lines, fmt.Sprintf("  %d. %s", lesson.Number, lesson.Title))
		}
	}

	t.lastSources = []model.Source{{Title: title, URL: courseLink}}

	return strings.Join(lines, "\n")
}

func (t *CourseOutlineTool) LastSources() []model.Source {
	return t.lastSources
}

func (t *CourseOutlineTool) ResetSources() {
	t.lastSources = nil
}
