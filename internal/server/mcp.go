// SPDX-License-Identifier: AGPL-3.0-only

// Package server exposes the RAG system over HTTP and, optionally, over MCP
// so external agents can query the same course index.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dpare01/course-rag/internal/config"
	"github.com/dpare01/course-rag/internal/errors"
	"github.com/dpare01/course-rag/internal/logging"
	"github.com/dpare01/course-rag/internal/rag"
)

// SearchParams holds parameters for the search_course_content MCP tool.
type SearchParams struct {
	Query        string `json:"query" description:"what to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" description:"course title, partial matches work"`
	LessonNumber int    `json:"lesson_number,omitempty" description:"specific lesson number to search within"`
}

// OutlineParams holds parameters for the get_course_outline MCP tool.
type OutlineParams struct {
	CourseTitle string `json:"course_title" description:"course title, partial matches work"`
}

// MCPServer exposes the course tools over stdio or SSE.
type MCPServer struct {
	system         *rag.System
	server         *mcp.Server
	httpServer     *http.Server
	cancel         context.CancelFunc
	transport      string
	address        string
	port           int
	wg             sync.WaitGroup
	logger         *logging.Logger
	shutdownMutex  sync.Mutex
	isShuttingDown bool
}

// NewMCPServer creates an MCP server over system using the transport
// configured in cfg.
func NewMCPServer(cfg *config.Config, system *rag.System, logger *logging.Logger) (*MCPServer, error) {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}

	switch cfg.Server.MCPTransport {
	case "stdio":
		logger.Infof("Using stdio transport")
	case "sse":
		logger.Infof("Using SSE transport on %s:%d", cfg.Server.Address, cfg.Server.MCPPort)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported transport mode: %s", cfg.Server.MCPTransport))
	}

	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)

	return &MCPServer{
		system:    system,
		server:    mcpSrv,
		transport: cfg.Server.MCPTransport,
		address:   cfg.Server.Address,
		port:      cfg.Server.MCPPort,
		logger:    logger,
	}, nil
}

// Start registers the tools and begins serving. It returns immediately; the
// server stops when ctx is cancelled or Stop is called.
func (s *MCPServer) Start(ctx context.Context) error {
	s.registerToolsDeclarative()

	switch s.transport {
	case "stdio":
		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.server.Run(runCtx, &mcp.StdioTransport{}); err != nil {
				s.logger.Errorf("Error running MCP server: %v", err)
			}
		}()
	case "sse":
		addr := fmt.Sprintf("%s:%d", s.address, s.port)
		handler := mcp.NewSSEHandler(func(_ *http.Request) *mcp.Server {
			return s.server
		}, nil)
		s.httpServer = &http.Server{Addr: addr, Handler: handler}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Errorf("Error running MCP server: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			s.logger.Errorf("Error stopping MCP server: %v", err)
		}
	}()

	return nil
}

// Stop shuts the server down. Safe to call more than once.
func (s *MCPServer) Stop() error {
	s.shutdownMutex.Lock()
	defer s.shutdownMutex.Unlock()

	if s.isShuttingDown {
		s.logger.Debugf("Stop called but server is already shutting down, ignoring")
		return nil
	}
	s.isShuttingDown = true

	if s.cancel != nil {
		s.cancel()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return errors.Internal(fmt.Errorf("error shutting down MCP server: %w", err))
		}
	}

	s.wg.Wait()
	return nil
}

// handleSearch runs a content search on behalf of an MCP client.
func (s *MCPServer) handleSearch(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchParams
	if err := extractParams(request, &params); err != nil {
		return nil, err
	}
	if params.Query == "" {
		return nil, errors.InvalidInput("query is required")
	}

	s.logger.Debugf("Handling search_course_content request for %q", params.Query)

	args := map[string]interface{}{"query": params.Query}
	if params.CourseName != "" {
		args["course_name"] = params.CourseName
	}
	if params.LessonNumber > 0 {
		args["lesson_number"] = params.LessonNumber
	}

	text, err := s.system.ExecuteTool(ctx, "search_course_content", args)
	if err != nil {
		return nil, err
	}
	return createTextResponse(text), nil
}

// handleOutline returns a course outline on behalf of an MCP client.
func (s *MCPServer) handleOutline(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params OutlineParams
	if err := extractParams(request, &params); err != nil {
		return nil, err
	}
	if params.CourseTitle == "" {
		return nil, errors.InvalidInput("course title is required")
	}

	s.logger.Debugf("Handling get_course_outline request for %q", params.CourseTitle)

	text, err := s.system.ExecuteTool(ctx, "get_course_outline", map[string]interface{}{
		"course_title": params.CourseTitle,
	})
	if err != nil {
		return nil, err
	}
	return createTextResponse(text), nil
}

// handleAnalytics reports the catalog summary.
func (s *MCPServer) handleAnalytics(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.logger.Debugf("Handling get_course_analytics request")

	stats, err := s.system.Analytics(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to get analytics: %w", err))
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to marshal analytics: %w", err))
	}
	return createTextResponse(string(statsJSON)), nil
}

// extractParams extracts parameters from a tool request.
func extractParams(request *mcp.CallToolRequest, params interface{}) error {
	if len(request.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(request.Params.Arguments, params); err != nil {
		return errors.InvalidInput(fmt.Sprintf("invalid parameters: %v", err))
	}
	return nil
}

// createTextResponse wraps plain text in an MCP tool result.
func createTextResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
