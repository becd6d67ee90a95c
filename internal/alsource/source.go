package alsource

import "context"

// SourceFile is one discovered AL source file: its path (adapter-defined —
// relative to a local root, or a repository-relative path for GitHub) and
// its raw text content.
type SourceFile struct {
	Path    string
	Content string
}

// FileSource discovers AL source files from some origin. The core parser
// and chunker never depend on this interface directly — per spec.md §6 the
// core only ever sees (file_path, text) pairs already in hand; FileSource
// is how internal/indexer and cmd/alchunk obtain them.
type FileSource interface {
	Files(ctx context.Context) ([]SourceFile, error)
}
