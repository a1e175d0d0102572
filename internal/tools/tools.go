// SPDX-License-Identifier: AGPL-3.0-only

// Package tools holds the capabilities the model may invoke mid-generation
// and the registry that dispatches them by name.
package tools

import (
	"context"

	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/model"
)

// Tool is a named, schema-described capability. Execute takes the argument
// mapping decoded from the model's tool call and returns text for the model.
// Errors returned here are faults; expected conditions (no results, unknown
// course) are reported as text.
type Tool interface {
	Definition() generator.ToolDefinition
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// SourceTracker is implemented by tools that retain citation records from
// their most recent execution.
type SourceTracker interface {
	LastSources() []model.Source
	ResetSources()
}

// SearchStore is the search-backend boundary the tools depend on. The
// SQLite store implements it; tests substitute fakes.
type SearchStore interface {
	// Search runs a filtered content search. courseName may be a partial
	// title; lessonNumber is nil when unfiltered. A failed course-name
	// resolution is reported as an error.
	Search(ctx context.Context, query string, courseName string, lessonNumber *int) (*model.SearchResults, error)
	// ResolveCourseName resolves a possibly-partial title to the canonical
	// course title, or "" when nothing matches.
	ResolveCourseName(ctx context.Context, name string) (string, error)
	// GetLessonLink returns the canonical link for a lesson, or "" when
	// none is stored.
	GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
	// GetCourseMetadata fetches the stored catalog record for a resolved
	// course title.
	GetCourseMetadata(ctx context.Context, title string) (*model.CourseMetadata, error)
}

// optionalInt reads an optional integer argument. JSON numbers decode as
// float64.
func optionalInt(args map[string]interface{}, key string) *int {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		i := n
		return &i
	default:
		return nil
	}
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}
