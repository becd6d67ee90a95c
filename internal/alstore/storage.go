package alstore

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/al-chunker/pkg/al"
)

// ErrNotFound is returned when a requested file or run doesn't exist.
var ErrNotFound = errors.New("alstore: not found")

// IndexedFile records the last time a source file was indexed and the
// content hash it was indexed under, so the indexing pipeline can skip
// files that haven't changed.
type IndexedFile struct {
	ID            int64
	FilePath      string
	ContentHash   string
	LastIndexedAt time.Time
}

// SearchResult is one keyword-search hit over stored chunk content.
type SearchResult struct {
	Chunk     al.Chunk
	Relevance float64 // FTS5 bm25() score; lower is more relevant
}

// IndexingRun tracks one invocation of the indexing pipeline, identified by
// a UUID, for get_status to report on.
type IndexingRun struct {
	ID               string
	RootPath         string
	FilesIndexed     int
	ChunksWritten    int
	DiagnosticsCount int
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Status summarizes the current state of the store for get_status.
type Status struct {
	FilesIndexed int
	ChunksStored int
	LastRun      *IndexingRun
}

// Storage persists parsed objects' chunks and per-file content hashes. It is
// deliberately much smaller than a general code-intelligence store: there is
// no symbol table and no vector search, since embedding is out of scope for
// this library (spec.md §1) and AL objects are chunked directly rather than
// walked as a symbol graph.
type Storage interface {
	// File operations.
	UpsertFile(ctx context.Context, filePath, contentHash string) (*IndexedFile, error)
	GetFile(ctx context.Context, filePath string) (*IndexedFile, error)
	DeleteFile(ctx context.Context, filePath string) error

	// Chunk operations.
	ReplaceChunks(ctx context.Context, filePath string, chunks []al.Chunk) error
	SearchChunks(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// Indexing-run operations.
	StartRun(ctx context.Context, rootPath string) (*IndexingRun, error)
	FinishRun(ctx context.Context, runID string, filesIndexed, chunksWritten, diagnosticsCount int) error

	// Status.
	GetStatus(ctx context.Context) (*Status, error)

	Close() error
}
