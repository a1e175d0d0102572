// SPDX-License-Identifier: AGPL-3.0-only
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dpare01/course-rag/internal/config"
	"github.com/dpare01/course-rag/internal/generator"
	"github.com/dpare01/course-rag/internal/ingest"
	"github.com/dpare01/course-rag/internal/logging"
	"github.com/dpare01/course-rag/internal/rag"
	"github.com/dpare01/course-rag/internal/scheduler"
	"github.com/dpare01/course-rag/internal/server"
	"github.com/dpare01/course-rag/internal/session"
	"github.com/dpare01/course-rag/internal/singleton"
	"github.com/dpare01/course-rag/internal/store"
)

var (
	address         = flag.String("address", "", "The address to bind the server to")
	port            = flag.Int("port", 0, "The port to bind the HTTP API to")
	mcpEnabled      = flag.Bool("mcp", false, "Expose the course tools over MCP")
	mcpTransport    = flag.String("mcp-transport", "", "MCP transport mode: sse or stdio")
	logLevel        = flag.String("log-level", "", "Logging level: debug, info, warn, error, fatal")
	logFile         = flag.String("log-file", "", "Log file path (default: stdout)")
	version         = flag.Bool("version", false, "Show version information and exit")
	aiProvider      = flag.String("ai-provider", "", "AI provider: anthropic or openai")
	aiBaseURL       = flag.String("ai-base-url", "", "Custom base URL for OpenAI-compatible endpoints (e.g. Ollama, vLLM, Groq, LiteLLM)")
	aiModel         = flag.String("ai-model", "", "AI model to use for answering queries")
	docsPath        = flag.String("docs", "", "Folder of course scripts to index on startup")
	dataDir         = flag.String("data-dir", "", "Data directory for the course index (default: ~/.course-rag)")
	reindexSchedule = flag.String("reindex-schedule", "", "Cron expression for periodic docs folder re-scans")
)

func main() {
	flag.Parse()

	cfg := loadConfig()

	if *version {
		log.Printf("%s version %s", cfg.Server.Name, cfg.Server.Version)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := createApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	waitForShutdown(cancel, app)
}

// loadConfig loads configuration from environment and command line flags
func loadConfig() *config.Config {
	cfg := config.DefaultConfig()
	config.FromEnv(cfg)
	applyCommandLineFlagsToConfig(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// applyCommandLineFlagsToConfig applies command line flags to the configuration
func applyCommandLineFlagsToConfig(cfg *config.Config) {
	if *address != "" {
		cfg.Server.Address = *address
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *mcpEnabled {
		cfg.Server.MCPEnabled = true
	}
	if *mcpTransport != "" {
		cfg.Server.MCPTransport = *mcpTransport
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.FilePath = *logFile
	}
	if *aiProvider != "" {
		cfg.AI.Provider = *aiProvider
	}
	if *aiBaseURL != "" {
		cfg.AI.BaseURL = *aiBaseURL
	}
	if *aiModel != "" {
		cfg.AI.Model = *aiModel
	}
	if *docsPath != "" {
		cfg.Docs.Path = *docsPath
	}
	if *dataDir != "" {
		cfg.Store.DataDir = *dataDir
	}
	if *reindexSchedule != "" {
		cfg.Docs.ReindexSchedule = *reindexSchedule
	}
}

// initLogger builds the process logger. With stdio MCP transport all logging
// must stay off stdout to avoid corrupting the JSON-RPC stream.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Logging.Level)

	if cfg.Logging.FilePath != "" {
		return logging.FileLogger(cfg.Logging.FilePath, level)
	}

	if cfg.Server.MCPEnabled && cfg.Server.MCPTransport == "stdio" {
		execPath, err := os.Executable()
		if err != nil {
			execPath = cfg.Server.Name
		}
		logPath := filepath.Join(filepath.Dir(execPath), fmt.Sprintf("%s.log", cfg.Server.Name))
		logger, err := logging.FileLogger(logPath, level)
		if err != nil {
			// Fall back to stderr to avoid corrupting stdout
			return logging.New(logging.Options{Output: os.Stderr, Level: level}), nil
		}
		return logger, nil
	}

	return logging.New(logging.Options{Level: level}), nil
}

// Application represents the running application
type Application struct {
	lock       *singleton.Lock
	store      *store.CourseStore
	system     *rag.System
	httpServer *server.HTTPServer
	mcpServer  *server.MCPServer
	scheduler  *scheduler.Scheduler
	docsPath   string
	reindex    string
	logger     *logging.Logger
}

// createApp wires the store, generator, and servers together
func createApp(cfg *config.Config) (*Application, error) {
	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logging.SetDefaultLogger(logger)

	lock, isPrimary, err := singleton.TryAcquire(cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("acquire data dir lock: %w", err)
	}
	if !isPrimary {
		return nil, fmt.Errorf("data directory %s is in use by another instance", cfg.Store.DataDir)
	}

	courseStore, err := store.NewCourseStore(cfg.Store.DBPath())
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("create course store: %w", err)
	}

	provider, err := generator.NewProvider(&cfg.AI)
	if err != nil {
		_ = courseStore.Close()
		_ = lock.Release()
		return nil, err
	}
	gen := generator.New(provider, cfg.AI.Model)
	gen.SetMaxToolRounds(cfg.AI.MaxToolRounds)

	sessions := session.NewManager(cfg.Session.MaxHistory)
	indexer := ingest.NewIndexer(courseStore, cfg.Docs.ChunkSize, cfg.Docs.ChunkOverlap, logger)

	system, err := rag.New(courseStore, gen, sessions, indexer, logger)
	if err != nil {
		_ = courseStore.Close()
		_ = lock.Release()
		return nil, err
	}

	app := &Application{
		lock:       lock,
		store:      courseStore,
		system:     system,
		httpServer: server.NewHTTPServer(cfg, system, logger),
		docsPath:   cfg.Docs.Path,
		reindex:    cfg.Docs.ReindexSchedule,
		logger:     logger,
	}

	if cfg.Server.MCPEnabled {
		mcpServer, err := server.NewMCPServer(cfg, system, logger)
		if err != nil {
			_ = courseStore.Close()
			_ = lock.Release()
			return nil, err
		}
		app.mcpServer = mcpServer
	}

	if cfg.Docs.ReindexSchedule != "" {
		app.scheduler = scheduler.New(system, cfg.Docs.Path, logger)
	}

	return app, nil
}

// Start indexes the docs folder and brings the servers up
func (a *Application) Start(ctx context.Context) error {
	if _, err := os.Stat(a.docsPath); err == nil {
		courses, chunks, err := a.system.IndexFolder(ctx, a.docsPath)
		if err != nil {
			a.logger.Errorf("Startup indexing failed: %v", err)
		} else {
			a.logger.Infof("Loaded %d courses (%d chunks) from %s", courses, chunks, a.docsPath)
		}
	} else {
		a.logger.Warnf("Docs folder %s not found, starting with the existing index", a.docsPath)
	}

	if a.scheduler != nil {
		if err := a.scheduler.Schedule(ctx, a.reindex); err != nil {
			return err
		}
	}

	if a.mcpServer != nil {
		if err := a.mcpServer.Start(ctx); err != nil {
			return err
		}
		a.logger.Infof("MCP server started")
	}

	if err := a.httpServer.Start(ctx); err != nil {
		return err
	}
	a.logger.Infof("HTTP API started")

	return nil
}

// Stop brings the servers down and releases the data directory
func (a *Application) Stop() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.logger.Infof("Reindex scheduler stopped")
	}

	if a.mcpServer != nil {
		if err := a.mcpServer.Stop(); err != nil {
			a.logger.Errorf("Error stopping MCP server: %v", err)
		}
	}

	if err := a.httpServer.Stop(); err != nil {
		a.logger.Errorf("Error stopping HTTP server: %v", err)
	}

	if err := a.store.Close(); err != nil {
		a.logger.Warnf("Error closing course store: %v", err)
	}

	if err := a.lock.Release(); err != nil {
		a.logger.Warnf("Error releasing data dir lock: %v", err)
	}
	return nil
}

// waitForShutdown waits for termination signals and performs cleanup
func waitForShutdown(cancel context.CancelFunc, app *Application) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	<-signalCh
	app.logger.Infof("Received termination signal, shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	shutdownDone := make(chan struct{})
	go func() {
		if err := app.Stop(); err != nil {
			app.logger.Errorf("Error during shutdown: %v", err)
		}
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		app.logger.Infof("Graceful shutdown completed")
	case <-shutdownCtx.Done():
		app.logger.Warnf("Shutdown timed out")
	}
}
