// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Store   StoreConfig
	Docs    DocsConfig
	Session SessionConfig
	Logging LoggingConfig
}

// ServerConfig configures the HTTP API and the optional MCP surface.
type ServerConfig struct {
	Name    string
	Version string
	Address string
	Port    int

	// MCPEnabled exposes the course tools over MCP in addition to the
	// HTTP API.
	MCPEnabled   bool
	MCPTransport string // "stdio" or "sse"
	MCPPort      int
}

// AIConfig configures the language-model backend.
type AIConfig struct {
	Provider        string // "anthropic" or "openai"
	APIKey          string // generic fallback key
	AnthropicAPIKey string
	OpenAIAPIKey    string
	BaseURL         string // custom base URL for OpenAI-compatible endpoints
	Model           string
	MaxToolRounds   int
}

// StoreConfig configures where the course index lives on disk.
type StoreConfig struct {
	DataDir string
}

// DBPath returns the SQLite database path under the data directory.
func (c *StoreConfig) DBPath() string {
	return filepath.Join(c.DataDir, "courses.db")
}

// DocsConfig configures course document ingestion.
type DocsConfig struct {
	Path         string
	ChunkSize    int // words per chunk
	ChunkOverlap int // words shared between adjacent chunks
	// ReindexSchedule is an optional cron expression for periodic
	// re-scans of the docs folder. Empty disables the scheduler.
	ReindexSchedule string
}

// SessionConfig configures conversation history.
type SessionConfig struct {
	MaxHistory int // exchanges remembered per session
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level    string
	FilePath string
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Name:         "course-rag",
			Version:      "0.3.0",
			Address:      "localhost",
			Port:         8000,
			MCPEnabled:   false,
			MCPTransport: "sse",
			MCPPort:      8001,
		},
		AI: AIConfig{
			Provider:      "anthropic",
			Model:         "claude-sonnet-4-20250514",
			MaxToolRounds: 2,
		},
		Store: StoreConfig{
			DataDir: filepath.Join(home, ".course-rag"),
		},
		Docs: DocsConfig{
			Path:         "./docs",
			ChunkSize:    200,
			ChunkOverlap: 40,
		},
		Session: SessionConfig{
			MaxHistory: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FromEnv overrides cfg with values from a .env file (if present) and the
// process environment.
func FromEnv(cfg *Config) {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	cfg.Server.Address = getEnv("SERVER_ADDRESS", cfg.Server.Address)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.MCPEnabled = getEnvBool("MCP_ENABLED", cfg.Server.MCPEnabled)
	cfg.Server.MCPTransport = getEnv("MCP_TRANSPORT", cfg.Server.MCPTransport)
	cfg.Server.MCPPort = getEnvInt("MCP_PORT", cfg.Server.MCPPort)

	cfg.AI.Provider = getEnv("AI_PROVIDER", cfg.AI.Provider)
	cfg.AI.APIKey = getEnv("AI_API_KEY", cfg.AI.APIKey)
	cfg.AI.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AI.AnthropicAPIKey)
	cfg.AI.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.AI.OpenAIAPIKey)
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.Model = getEnv("AI_MODEL", cfg.AI.Model)
	cfg.AI.MaxToolRounds = getEnvInt("AI_MAX_TOOL_ROUNDS", cfg.AI.MaxToolRounds)

	cfg.Store.DataDir = getEnv("DATA_DIR", cfg.Store.DataDir)

	cfg.Docs.Path = getEnv("DOCS_PATH", cfg.Docs.Path)
	cfg.Docs.ChunkSize = getEnvInt("CHUNK_SIZE", cfg.Docs.ChunkSize)
	cfg.Docs.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", cfg.Docs.ChunkOverlap)
	cfg.Docs.ReindexSchedule = getEnv("REINDEX_SCHEDULE", cfg.Docs.ReindexSchedule)

	cfg.Session.MaxHistory = getEnvInt("SESSION_MAX_HISTORY", cfg.Session.MaxHistory)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.FilePath = getEnv("LOG_FILE", cfg.Logging.FilePath)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.AI.Provider) {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("AI model must not be empty")
	}
	if c.AI.MaxToolRounds < 1 {
		return fmt.Errorf("AI max tool rounds must be at least 1, got %d", c.AI.MaxToolRounds)
	}
	if c.Server.MCPEnabled {
		switch c.Server.MCPTransport {
		case "stdio", "sse":
		default:
			return fmt.Errorf("unsupported MCP transport mode: %s", c.Server.MCPTransport)
		}
	}
	if c.Docs.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Docs.ChunkSize)
	}
	if c.Docs.ChunkOverlap < 0 || c.Docs.ChunkOverlap >= c.Docs.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", c.Docs.ChunkOverlap)
	}
	if c.Session.MaxHistory < 0 {
		return fmt.Errorf("session max history must not be negative, got %d", c.Session.MaxHistory)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
