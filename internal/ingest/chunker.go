// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"fmt"
	"strings"

	"github.com/dpare01/course-rag/internal/model"
)

// ChunkText splits text into overlapping word windows. Word counts stand in
// for tokens; overlap carries trailing context into the next window so a
// sentence split across a boundary still matches in both.
func ChunkText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// ChunkDocument converts a parsed course script into store chunks. The first
// chunk of each lesson is prefixed with course and lesson context so a match
// on it reads sensibly on its own.
func ChunkDocument(doc *Document, chunkSize, overlap int) []model.Chunk {
	var chunks []model.Chunk

	appendLesson := func(lessonNumber *int, prefix, text string) {
		for i, piece := range ChunkText(text, chunkSize, overlap) {
			if i == 0 && prefix != "" {
				piece = prefix + " " + piece
			}
			chunks = append(chunks, model.Chunk{
				CourseTitle:  doc.Course.Title,
				LessonNumber: lessonNumber,
				Content:      piece,
			})
		}
	}

	if preamble, ok := doc.LessonText[-1]; ok {
		appendLesson(nil, fmt.Sprintf("Course %s content:", doc.Course.Title), preamble)
	}
	for _, lesson := range doc.Course.Lessons {
		text, ok := doc.LessonText[lesson.Number]
		if !ok {
			continue
		}
		n := lesson.Number
		prefix := fmt.Sprintf("Course %s Lesson %d content:", doc.Course.Title, n)
		appendLesson(&n, prefix, text)
	}
	return chunks
}
