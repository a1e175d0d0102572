// SPDX-License-Identifier: AGPL-3.0-only
package model

import "encoding/json"

// Source is a citation surfaced to the end user alongside an answer.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ChunkMeta describes where a matched chunk came from. LessonNumber is nil
// for course-level content that belongs to no particular lesson.
type ChunkMeta struct {
	CourseTitle  string
	LessonNumber *int
}

// SearchResults holds the documents returned by a content search together
// with their positional metadata. Documents[i] corresponds to Metadata[i].
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMeta
}

// IsEmpty reports whether the search matched nothing.
func (r *SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// Lesson is one entry of a course outline.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the catalog record for one ingested course.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

// CourseMetadata is the stored catalog row for a course. Lessons are kept
// serialized; use ParseLessons to decode them.
type CourseMetadata struct {
	Title       string
	CourseLink  string
	Instructor  string
	LessonsJSON string
}

// Chunk is one indexed piece of course content.
type Chunk struct {
	CourseTitle  string
	LessonNumber *int
	Content      string
}

// ParseLessons decodes a serialized lesson list. Malformed data degrades to
// an empty list rather than failing the caller.
func ParseLessons(raw string) []Lesson {
	if raw == "" {
		return nil
	}
	var lessons []Lesson
	if err := json.Unmarshal([]byte(raw), &lessons); err != nil {
		return nil
	}
	return lessons
}
