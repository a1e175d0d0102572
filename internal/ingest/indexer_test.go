// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dpare01/course-rag/internal/model"
)

type fakeWriter struct {
	courses map[string][]model.Chunk
	addErr  error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{courses: make(map[string][]model.Chunk)}
}

func (f *fakeWriter) HasCourse(_ context.Context, title string) (bool, error) {
	_, ok := f.courses[title]
	return ok, nil
}

func (f *fakeWriter) AddCourse(_ context.Context, course *model.Course, chunks []model.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.courses[course.Title] = chunks
	return nil
}

func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
}

func TestIndexFolder(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "course1.txt", "Course Title: Alpha\nLesson 1: One\nalpha lesson text here\n")
	writeScript(t, dir, "course2.txt", "Course Title: Beta\nLesson 1: One\nbeta lesson text here\n")
	writeScript(t, dir, "notes.pdf", "ignored binary format")

	store := newFakeWriter()
	ix := NewIndexer(store, 200, 40, nil)

	courses, chunks, err := ix.IndexFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if courses != 2 {
		t.Errorf("Expected 2 courses added, got %d", courses)
	}
	if chunks != 2 {
		t.Errorf("Expected 2 chunks added, got %d", chunks)
	}
	if _, ok := store.courses["Alpha"]; !ok {
		t.Error("Expected course Alpha to be indexed")
	}
}

func TestIndexFolderSkipsExistingCourses(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "course1.txt", "Course Title: Alpha\nLesson 1: One\nalpha text\n")

	store := newFakeWriter()
	store.courses["Alpha"] = nil

	ix := NewIndexer(store, 200, 40, nil)
	courses, _, err := ix.IndexFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if courses != 0 {
		t.Errorf("Expected 0 courses added for already-indexed title, got %d", courses)
	}
}

func TestIndexFolderSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.txt", "no header at all\n")
	writeScript(t, dir, "good.txt", "Course Title: Gamma\nLesson 1: One\ngamma text\n")

	store := newFakeWriter()
	ix := NewIndexer(store, 200, 40, nil)

	courses, _, err := ix.IndexFolder(context.Background(), dir)
	if err != nil {
		t.Fatalf("Expected scan to continue past bad file, got %v", err)
	}
	if courses != 1 {
		t.Errorf("Expected 1 course added, got %d", courses)
	}
}

func TestIndexFolderMissingDir(t *testing.T) {
	store := newFakeWriter()
	ix := NewIndexer(store, 200, 40, nil)

	if _, _, err := ix.IndexFolder(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing docs folder")
	}
}
