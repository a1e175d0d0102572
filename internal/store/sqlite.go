// SPDX-License-Identifier: AGPL-3.0-only
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dpare01/course-rag/internal/model"

	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// maxResults bounds how many chunks one search returns.
const maxResults = 5

// CourseStore is the SQLite-backed course catalog and content index. It
// implements the search-backend interface the course tools depend on, using
// an FTS5 index for ranked content matching.
type CourseStore struct {
	db *sql.DB
}

// NewCourseStore opens (or creates) the SQLite database at dbPath, enables
// WAL mode, and runs any pending schema migrations.
func NewCourseStore(dbPath string) (*CourseStore, error) {
	// Ensure the parent directory exists.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &CourseStore{db: db}, nil
}

// AddCourse upserts a course's catalog record and replaces its indexed
// chunks.
func (s *CourseStore) AddCourse(ctx context.Context, course *model.Course, chunks []model.Chunk) error {
	lessonsJSON, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("marshal lessons: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO courses (title, course_link, instructor, lessons_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			course_link = excluded.course_link,
			instructor = excluded.instructor,
			lessons_json = excluded.lessons_json`,
		course.Title,
		course.Link,
		course.Instructor,
		string(lessonsJSON),
		time.Now().UTC().Format(timeFormat),
	); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE course_title = ?", course.Title); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}

	for _, chunk := range chunks {
		var lesson sql.NullInt64
		if chunk.LessonNumber != nil {
			lesson = sql.NullInt64{Int64: int64(*chunk.LessonNumber), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (course_title, lesson_number, content)
			VALUES (?, ?, ?)`,
			course.Title, lesson, chunk.Content,
		); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}

	return tx.Commit()
}

// HasCourse reports whether a course with exactly this title is indexed.
func (s *CourseStore) HasCourse(ctx context.Context, title string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM courses WHERE title = ?", title).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return true, nil
}

// CourseCount returns how many courses are indexed.
func (s *CourseStore) CourseCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// CourseTitles returns all indexed course titles in alphabetical order.
func (s *CourseStore) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT title FROM courses ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan course title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// Search runs a ranked content search, optionally filtered by a
// (possibly-partial) course name and a lesson number. A course filter that
// resolves to nothing is an error so the caller can relay the message.
func (s *CourseStore) Search(ctx context.Context, query string, courseName string, lessonNumber *int) (*model.SearchResults, error) {
	var resolvedCourse string
	if courseName != "" {
		resolved, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, fmt.Errorf("No course found matching '%s'", courseName)
		}
		resolvedCourse = resolved
	}

	sqlQuery := `
		SELECT c.content, c.course_title, c.lesson_number
		FROM chunks_fts f
		JOIN chunks c ON c.id = f.rowid
		WHERE chunks_fts MATCH ?`
	sqlArgs := []interface{}{ftsMatchExpr(query)}
	if resolvedCourse != "" {
		sqlQuery += " AND c.course_title = ?"
		sqlArgs = append(sqlArgs, resolvedCourse)
	}
	if lessonNumber != nil {
		sqlQuery += " AND c.lesson_number = ?"
		sqlArgs = append(sqlArgs, *lessonNumber)
	}
	sqlQuery += " ORDER BY f.rank LIMIT ?"
	sqlArgs = append(sqlArgs, maxResults)

	rows, err := s.db.QueryContext(ctx, sqlQuery, sqlArgs...)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	defer rows.Close()

	results := &model.SearchResults{}
	for rows.Next() {
		var content, courseTitle string
		var lesson sql.NullInt64
		if err := rows.Scan(&content, &courseTitle, &lesson); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		meta := model.ChunkMeta{CourseTitle: courseTitle}
		if lesson.Valid {
			n := int(lesson.Int64)
			meta.LessonNumber = &n
		}
		results.Documents = append(results.Documents, content)
		results.Metadata = append(results.Metadata, meta)
	}
	return results, rows.Err()
}

// ResolveCourseName resolves a possibly-partial title to the canonical
// course title: an exact case-insensitive match wins, otherwise the shortest
// title containing the fragment. Returns "" when nothing matches.
func (s *CourseStore) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}

	var title string
	err := s.db.QueryRowContext(ctx,
		"SELECT title FROM courses WHERE title = ? COLLATE NOCASE", name).Scan(&title)
	if err == nil {
		return title, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("resolve course name: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT title FROM courses
		WHERE title LIKE '%' || ? || '%'
		ORDER BY length(title) LIMIT 1`, name).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve course name: %w", err)
	}
	return title, nil
}

// GetLessonLink returns the stored link for a lesson, or "" when the course
// or lesson has none.
func (s *CourseStore) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	meta, err := s.GetCourseMetadata(ctx, courseTitle)
	if err != nil {
		return "", err
	}
	for _, lesson := range model.ParseLessons(meta.LessonsJSON) {
		if lesson.Number == lessonNumber {
			return lesson.Link, nil
		}
	}
	return "", nil
}

// GetCourseMetadata fetches the stored catalog record for a course title.
func (s *CourseStore) GetCourseMetadata(ctx context.Context, title string) (*model.CourseMetadata, error) {
	meta := &model.CourseMetadata{}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, course_link, instructor, lessons_json
		FROM courses WHERE title = ?`, title,
	).Scan(&meta.Title, &meta.CourseLink, &meta.Instructor, &meta.LessonsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course '%s' found but metadata unavailable", title)
	}
	if err != nil {
		return nil, fmt.Errorf("get course metadata: %w", err)
	}
	return meta, nil
}

// Close closes the underlying database.
func (s *CourseStore) Close() error {
	return s.db.Close()
}

// ftsMatchExpr turns free text into an FTS5 match expression. Tokens are
// quoted individually and joined with OR so user punctuation cannot break
// the query syntax.
func ftsMatchExpr(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '_' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
			('0' <= r && r <= '9'))
	})
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}
