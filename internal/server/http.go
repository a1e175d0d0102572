// SPDX-License-Identifier: AGPL-3.0-only
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpare01/course-rag/internal/config"
	"github.com/dpare01/course-rag/internal/logging"
	"github.com/dpare01/course-rag/internal/model"
	"github.com/dpare01/course-rag/internal/rag"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the reply to POST /api/query.
type QueryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []model.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// queryTimeout bounds one query end to end, tool rounds included.
const queryTimeout = 2 * time.Minute

// HTTPServer serves the chat API.
type HTTPServer struct {
	system *rag.System
	srv    *http.Server
	logger *logging.Logger
}

// NewHTTPServer builds the API server around system.
func NewHTTPServer(cfg *config.Config, system *rag.System, logger *logging.Logger) *HTTPServer {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}

	s := &HTTPServer{system: system, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleHealth)
	api := router.Group("/api")
	{
		api.POST("/query", s.handleQuery)
		api.GET("/courses", s.handleCourses)
		api.DELETE("/session/:id", s.handleDeleteSession)
	}

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler: router,
	}
	return s
}

// Handler exposes the router, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving. It returns immediately; the server stops when ctx is
// cancelled or Stop is called.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		s.logger.Infof("HTTP API listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Error running HTTP server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			s.logger.Errorf("Error stopping HTTP server: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleQuery answers one question, creating a session when the client did
// not send one.
func (s *HTTPServer) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.system.CreateSession()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	answer, sources, err := s.system.Query(ctx, req.Query, sessionID)
	if err != nil {
		s.logger.Errorf("Query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sources == nil {
		sources = []model.Source{}
	}

	c.JSON(http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

func (s *HTTPServer) handleCourses(c *gin.Context) {
	stats, err := s.system.Analytics(c.Request.Context())
	if err != nil {
		s.logger.Errorf("Analytics failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *HTTPServer) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.system.DeleteSession(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("session %s not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "session_id": id})
}
