package mcpserver

import (
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
)

// MCPServerApp wraps a bridge session and the MCP server.
type MCPServerApp struct {
	session *Session
	server  *server.MCPServer
	logger  *log.Logger
}

// NewMCPServerApp creates the MCP application over an established bridge
// session.
func NewMCPServerApp(session *Session, logger *log.Logger) *MCPServerApp {
	s := server.NewMCPServer(
		"godot-runtime-bridge",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	)

	app := &MCPServerApp{
		session: session,
		server:  s,
		logger:  logger,
	}
	app.registerTools()

	logger.Printf("MCP server initialized — pid=%d", os.Getpid())
	return app
}

// Serve starts the MCP server on stdio.
func (app *MCPServerApp) Serve() error {
	app.logger.Println("Serving on stdio...")
	err := server.ServeStdio(app.server)
	if err != nil {
		app.logger.Printf("Server exited with error: %v", err)
	} else {
		app.logger.Println("Server exited cleanly")
	}
	return err
}

// SetupLogger creates a file logger at dataDir/mcp-server.log
// (e.g. ~/.gdrb/mcp-server.log). Falls back to stderr if file open fails.
func SetupLogger(dataDir string) *log.Logger {
	logPath := filepath.Join(dataDir, "mcp-server.log")

	os.MkdirAll(dataDir, 0700)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return log.New(os.Stderr, "[MCP] ", log.LstdFlags|log.Lshortfile)
	}

	return log.New(f, "[MCP] ", log.LstdFlags|log.Lshortfile)
}
