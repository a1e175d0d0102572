// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"strings"
	"testing"
)

const sampleScript = `Course Title: Building RAG Systems
Course Link: https://example.com/rag
Course Instructor: Ada Lovelace

Lesson 0: Introduction
Lesson Link: https://example.com/rag/lesson-0
Welcome to the course. We will cover retrieval augmented generation.

Lesson 1: Chunking
This lesson explains overlapping chunk windows and why they help recall.
`

func TestParseHeader(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleScript))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if doc.Course.Title != "Building RAG Systems" {
		t.Errorf("Expected title 'Building RAG Systems', got %q", doc.Course.Title)
	}
	if doc.Course.Link != "https://example.com/rag" {
		t.Errorf("Expected course link, got %q", doc.Course.Link)
	}
	if doc.Course.Instructor != "Ada Lovelace" {
		t.Errorf("Expected instructor 'Ada Lovelace', got %q", doc.Course.Instructor)
	}
}

func TestParseLessonSections(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleScript))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(doc.Course.Lessons) != 2 {
		t.Fatalf("Expected 2 lessons, got %d", len(doc.Course.Lessons))
	}
	first := doc.Course.Lessons[0]
	if first.Number != 0 || first.Title != "Introduction" {
		t.Errorf("Expected lesson 0 'Introduction', got %d %q", first.Number, first.Title)
	}
	if first.Link != "https://example.com/rag/lesson-0" {
		t.Errorf("Expected lesson link, got %q", first.Link)
	}
	second := doc.Course.Lessons[1]
	if second.Link != "" {
		t.Errorf("Expected no link for lesson 1, got %q", second.Link)
	}

	if !strings.Contains(doc.LessonText[0], "Welcome to the course") {
		t.Errorf("Expected lesson 0 text, got %q", doc.LessonText[0])
	}
	if !strings.Contains(doc.LessonText[1], "overlapping chunk windows") {
		t.Errorf("Expected lesson 1 text, got %q", doc.LessonText[1])
	}
}

func TestParseLessonLinkNotConsumedMidBody(t *testing.T) {
	script := "Course Title: T\nLesson 1: A\nSome text first.\nLesson Link: https://late.example\nMore text.\n"
	doc, err := Parse(strings.NewReader(script))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc.Course.Lessons[0].Link != "" {
		t.Errorf("Expected link line inside the body to stay body text, got %q", doc.Course.Lessons[0].Link)
	}
	if !strings.Contains(doc.LessonText[1], "Lesson Link: https://late.example") {
		t.Errorf("Expected link line kept in body, got %q", doc.LessonText[1])
	}
}

func TestParsePreambleBeforeFirstLesson(t *testing.T) {
	script := "Course Title: T\n\nGeneral course notes here.\n\nLesson 1: A\nLesson body.\n"
	doc, err := Parse(strings.NewReader(script))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(doc.LessonText[-1], "General course notes here.") {
		t.Errorf("Expected preamble under lesson -1, got %q", doc.LessonText[-1])
	}
}

func TestParseMissingTitle(t *testing.T) {
	if _, err := Parse(strings.NewReader("Lesson 1: A\nbody\n")); err == nil {
		t.Error("Expected error for script without Course Title header")
	}
}
