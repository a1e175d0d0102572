// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dpare01/course-rag/internal/logging"
	"github.com/dpare01/course-rag/internal/model"
)

// CourseWriter is the store surface the indexer needs.
type CourseWriter interface {
	HasCourse(ctx context.Context, title string) (bool, error)
	AddCourse(ctx context.Context, course *model.Course, chunks []model.Chunk) error
}

// Indexer scans a docs folder and loads new course scripts into the store.
type Indexer struct {
	store     CourseWriter
	chunkSize int
	overlap   int
	logger    *logging.Logger
}

// NewIndexer creates an indexer writing to store with the given chunking
// parameters.
func NewIndexer(store CourseWriter, chunkSize, overlap int, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Indexer{store: store, chunkSize: chunkSize, overlap: overlap, logger: logger}
}

// IndexFolder parses every course script under root and adds courses not yet
// present in the store. It returns how many courses and chunks were added.
// Files that fail to parse are logged and skipped; the scan continues.
func (ix *Indexer) IndexFolder(ctx context.Context, root string) (int, int, error) {
	files, err := discoverScripts(root)
	if err != nil {
		return 0, 0, err
	}

	coursesAdded := 0
	chunksAdded := 0
	for _, path := range files {
		doc, err := ix.parseFile(path)
		if err != nil {
			ix.logger.Warnf("Skipping %s: %v", path, err)
			continue
		}

		exists, err := ix.store.HasCourse(ctx, doc.Course.Title)
		if err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("check course %q: %w", doc.Course.Title, err)
		}
		if exists {
			ix.logger.Debugf("Course %q already indexed, skipping %s", doc.Course.Title, path)
			continue
		}

		chunks := ChunkDocument(doc, ix.chunkSize, ix.overlap)
		if err := ix.store.AddCourse(ctx, &doc.Course, chunks); err != nil {
			return coursesAdded, chunksAdded, fmt.Errorf("add course %q: %w", doc.Course.Title, err)
		}
		ix.logger.Infof("Indexed course %q (%d chunks) from %s", doc.Course.Title, len(chunks), filepath.Base(path))
		coursesAdded++
		chunksAdded += len(chunks)
	}
	return coursesAdded, chunksAdded, nil
}

func (ix *Indexer) parseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func discoverScripts(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("docs folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs folder %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
