// SPDX-License-Identifier: AGPL-3.0-only

// Package ingest reads course script documents and turns them into catalog
// records plus searchable content chunks.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dpare01/course-rag/internal/model"
)

// Document is a parsed course script: the course record and the raw text of
// each lesson keyed by lesson number. Text appearing before the first lesson
// marker is stored under lesson -1 (course-level preamble).
type Document struct {
	Course     model.Course
	LessonText map[int]string
}

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)

// Parse reads a course script. The expected layout is a short header
// (Course Title, Course Link, Course Instructor) followed by lesson sections
// introduced by "Lesson N: Title" lines, each optionally followed by a
// "Lesson Link:" line before the lesson transcript.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{LessonText: make(map[int]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	currentLesson := -1
	var body strings.Builder
	flush := func() {
		text := strings.TrimSpace(body.String())
		if text != "" {
			doc.LessonText[currentLesson] = text
		}
		body.Reset()
	}

	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if inHeader {
			switch {
			case strings.HasPrefix(trimmed, "Course Title:"):
				doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
				continue
			case strings.HasPrefix(trimmed, "Course Link:"):
				doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
				continue
			case strings.HasPrefix(trimmed, "Course Instructor:"):
				doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
				continue
			case trimmed == "":
				continue
			}
			inHeader = false
		}

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("bad lesson number in %q: %w", trimmed, err)
			}
			currentLesson = number
			doc.Course.Lessons = append(doc.Course.Lessons, model.Lesson{
				Number: number,
				Title:  strings.TrimSpace(m[2]),
			})
			continue
		}

		if strings.HasPrefix(trimmed, "Lesson Link:") && currentLesson >= 0 && body.Len() == 0 {
			link := strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
			for i := range doc.Course.Lessons {
				if doc.Course.Lessons[i].Number == currentLesson {
					doc.Course.Lessons[i].Link = link
				}
			}
			continue
		}

		body.WriteString(line)
		body.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read course script: %w", err)
	}
	flush()

	if doc.Course.Title == "" {
		return nil, fmt.Errorf("course script has no Course Title header")
	}
	return doc, nil
}
