package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/al-chunker/internal/alstore"
	"github.com/dshills/al-chunker/internal/chunker"
	"github.com/dshills/al-chunker/internal/indexer"
)

const (
	// ServerName is the MCP server name advertised to clients.
	ServerName = "al-chunker"
	// ServerVersion is the current server version.
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the index database.
	DefaultDBPath = "~/.al-chunker/index.db"
)

// Server wraps the MCP server with the application's dependencies.
type Server struct {
	mcp     *server.MCPServer
	storage alstore.Storage
	indexer *indexer.Indexer
	chunker *chunker.Chunker

	runLocksMu sync.Mutex
	runLocks   map[string]*indexer.RunLock
}

// NewServer opens (creating if necessary) the SQLite database at dbPath and
// returns a ready-to-serve Server. An empty or DefaultDBPath dbPath expands
// to ~/.al-chunker/index.db.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("mcpserver: resolving home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".al-chunker", "index.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mcpserver: creating database directory: %w", err)
	}

	store, err := alstore.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: opening storage: %w", err)
	}

	mcpServer := server.NewMCPServer(ServerName, ServerVersion)

	s := &Server{
		mcp:      mcpServer,
		storage:  store,
		indexer:  indexer.New(store),
		chunker:  chunker.New(),
		runLocks: make(map[string]*indexer.RunLock),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects or the process is signaled to stop.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(chunkALSourceTool(), s.handleChunkALSource)
	s.mcp.AddTool(indexALDirectoryTool(), s.handleIndexALDirectory)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}

// lockFor returns the RunLock tracking concurrent index_al_directory calls
// against root, creating it on first use.
func (s *Server) lockFor(root string) *indexer.RunLock {
	s.runLocksMu.Lock()
	defer s.runLocksMu.Unlock()
	lock, ok := s.runLocks[root]
	if !ok {
		lock = &indexer.RunLock{}
		s.runLocks[root] = lock
	}
	return lock
}
