// SPDX-License-Identifier: AGPL-3.0-only

// Package rag wires the store, tools, session history, and the AI generator
// into one query pipeline.
package rag

import (
	"context"
	"fmt"

	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/ingest"
	"github.com/dpare01/course-rag/internal/logging"
	"github.com/dpare01/course-rag/internal/model"
	"github.com/dpare01/course-rag/internal/session"
	"github.com/dpare01/course-rag/internal/store"
	"github.com/dpare01/course-rag/internal/tools"
)

// Analytics summarizes the indexed catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System is the top-level query pipeline. One instance serves all sessions.
type System struct {
	store     *store.CourseStore
	generator *generator.Generator
	registry  *tools.Registry
	sessions  *session.Manager
	indexer   *ingest.Indexer
	logger    *logging.Logger
}

// New assembles a System: registers the search and outline tools against the
// store and prepares the session manager.
func New(st *store.CourseStore, gen *generator.Generator, sessions *session.Manager, indexer *ingest.Indexer, logger *logging.Logger) (*System, error) {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearchTool(st)); err != nil {
		return nil, fmt.Errorf("register search tool: %w", err)
	}
	if err := registry.Register(tools.NewCourseOutlineTool(st)); err != nil {
		return nil, fmt.Errorf("register outline tool: %w", err)
	}

	return &System{
		store:     st,
		generator: gen,
		registry:  registry,
		sessions:  sessions,
		indexer:   indexer,
		logger:    logger,
	}, nil
}

// CreateSession starts a fresh conversation and returns its id.
func (s *System) CreateSession() string {
	return s.sessions.CreateSession()
}

// DeleteSession removes a conversation. It reports whether it existed.
func (s *System) DeleteSession(sessionID string) bool {
	return s.sessions.Delete(sessionID)
}

// Query answers one user question. The generator may call the registered
// tools; any sources they retained during the exchange are returned alongside
// the answer and then cleared so they cannot leak into the next query.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []model.Source, error) {
	prompt := fmt.Sprintf("Answer this question about course materials: %s", query)
	history := s.sessions.History(sessionID)

	answer, err := s.generator.Generate(ctx, prompt, history, s.registry.Definitions(), s.registry)
	if err != nil {
		return "", nil, err
	}

	sources := s.registry.LastSources()
	s.registry.ResetSources()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, query, answer)
	}
	return answer, sources, nil
}

// ExecuteTool runs one registered tool directly, bypassing the generator.
// The MCP surface uses this to expose the same tools to external agents.
func (s *System) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return s.registry.Execute(ctx, name, args)
}

// Analytics reports how many courses are indexed and their titles.
func (s *System) Analytics(ctx context.Context) (*Analytics, error) {
	count, err := s.store.CourseCount(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := s.store.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	return &Analytics{TotalCourses: count, CourseTitles: titles}, nil
}

// IndexFolder loads any new course scripts under path into the store.
func (s *System) IndexFolder(ctx context.Context, path string) (int, int, error) {
	return s.indexer.IndexFolder(ctx, path)
}
