package indexer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/al-chunker/internal/alhash"
	"github.com/dshills/al-chunker/internal/alsource"
	"github.com/dshills/al-chunker/internal/alstore"
	"github.com/dshills/al-chunker/internal/alxref"
	"github.com/dshills/al-chunker/internal/chunker"
	"github.com/dshills/al-chunker/pkg/al"
)

// Indexer coordinates the indexing pipeline: discover -> parse -> chunk ->
// cross-reference -> store.
type Indexer struct {
	chunker *chunker.Chunker
	storage alstore.Storage
}

// Config controls one indexing run.
type Config struct {
	// Workers is the number of files processed concurrently. Defaults to
	// runtime.NumCPU().
	Workers int
	// IncludeCrossReferences controls whether cross_reference chunks are
	// built and stored alongside each file's own chunks.
	IncludeCrossReferences bool
	// Chunker is passed through to chunker.ChunkFile for every file.
	Chunker chunker.Config
}

// DefaultConfig returns a Config with the library's default chunking
// settings and cross-references enabled.
func DefaultConfig() Config {
	return Config{
		Workers:                runtime.NumCPU(),
		IncludeCrossReferences: true,
		Chunker:                chunker.DefaultConfig(),
	}
}

// Statistics summarizes one completed indexing run.
type Statistics struct {
	FilesIndexed     int
	FilesSkipped     int
	FilesFailed      int
	ChunksCreated    int
	DiagnosticsCount int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates an Indexer backed by storage.
func New(storage alstore.Storage) *Indexer {
	return &Indexer{
		chunker: chunker.New(),
		storage: storage,
	}
}

// fileOutcome is what one file's parse/chunk phase produces for the later
// sequential cross-reference and write phase.
type fileOutcome struct {
	path        string
	hash        string
	chunks      []al.Chunk
	objects     []alxref.SourceObject
	diagnostics int
}

// IndexSource runs one complete indexing pass over every file src reports,
// recording the run against rootPath (an identifying label, not necessarily
// a filesystem path — e.g. a GitHub "owner/repo@ref" string).
func (idx *Indexer) IndexSource(ctx context.Context, src alsource.FileSource, rootPath string, cfg *Config) (*Statistics, error) {
	if cfg == nil {
		d := DefaultConfig()
		cfg = &d
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	run, err := idx.storage.StartRun(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("indexer: starting run: %w", err)
	}

	files, err := src.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("indexer: discovering files: %w", err)
	}

	outcomes, err := idx.parseFiles(ctx, files, cfg, stats)
	if err != nil {
		return nil, fmt.Errorf("indexer: parsing files: %w", err)
	}

	if err := idx.writeOutcomes(ctx, outcomes, cfg, stats); err != nil {
		return nil, fmt.Errorf("indexer: writing chunks: %w", err)
	}

	stats.Duration = time.Since(startTime)
	if err := idx.storage.FinishRun(ctx, run.ID, stats.FilesIndexed, stats.ChunksCreated, stats.DiagnosticsCount); err != nil {
		return nil, fmt.Errorf("indexer: finishing run: %w", err)
	}

	return stats, nil
}

// parseFiles runs the discover-then-chunk phase for every file concurrently,
// skipping files whose content hash matches what's already stored. Per-file
// errors are collected into stats.ErrorMessages and do not abort the run.
func (idx *Indexer) parseFiles(ctx context.Context, files []alsource.SourceFile, cfg *Config, stats *Statistics) ([]fileOutcome, error) {
	semaphore := make(chan struct{}, cfg.Workers)

	var (
		mu       sync.Mutex
		outcomes []fileOutcome
		skipped  int32
		failed   int32
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, f := range files {
		file := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			outcome, skip, err := idx.parseOne(gctx, file, cfg)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", file.Path, err))
				mu.Unlock()
				return nil
			}
			if skip {
				atomic.AddInt32(&skipped, 1)
				return nil
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	return outcomes, nil
}

// parseOne hashes, optionally skips, parses, and chunks a single file.
func (idx *Indexer) parseOne(ctx context.Context, file alsource.SourceFile, cfg *Config) (fileOutcome, bool, error) {
	hash := alhash.HashSource(file.Content)

	existing, err := idx.storage.GetFile(ctx, file.Path)
	if err != nil && err != alstore.ErrNotFound {
		return fileOutcome{}, false, fmt.Errorf("checking existing file: %w", err)
	}
	if err == nil && existing.ContentHash == hash {
		return fileOutcome{}, true, nil
	}

	chunks, parseResult := idx.chunker.ChunkFile(file.Content, file.Path, cfg.Chunker)

	outcome := fileOutcome{
		path:        file.Path,
		hash:        hash,
		chunks:      chunks,
		diagnostics: len(parseResult.Diagnostics),
	}

	if cfg.IncludeCrossReferences {
		outcome.objects = make([]alxref.SourceObject, len(parseResult.Objects))
		for i, obj := range parseResult.Objects {
			outcome.objects[i] = alxref.SourceObject{Object: obj, FilePath: file.Path}
		}
	}

	return outcome, false, nil
}

// writeOutcomes builds cross-reference chunks across every outcome from
// this run, merges them into the owning file's chunk set, and persists
// each file and its final chunk set.
func (idx *Indexer) writeOutcomes(ctx context.Context, outcomes []fileOutcome, cfg *Config, stats *Statistics) error {
	xrefByFile := make(map[string][]al.Chunk)
	if cfg.IncludeCrossReferences {
		var allObjects []alxref.SourceObject
		for _, o := range outcomes {
			allObjects = append(allObjects, o.objects...)
		}
		for _, c := range alxref.BuildCrossReferenceChunks(allObjects, cfg.Chunker.EstimateTokens) {
			xrefByFile[c.Metadata.FilePath] = append(xrefByFile[c.Metadata.FilePath], c)
		}
	}

	for _, o := range outcomes {
		if err := ctx.Err(); err != nil {
			return err
		}

		combined := append(o.chunks, xrefByFile[o.path]...)

		if _, err := idx.storage.UpsertFile(ctx, o.path, o.hash); err != nil {
			return fmt.Errorf("upserting file %s: %w", o.path, err)
		}
		if err := idx.storage.ReplaceChunks(ctx, o.path, combined); err != nil {
			return fmt.Errorf("replacing chunks for %s: %w", o.path, err)
		}

		stats.FilesIndexed++
		stats.ChunksCreated += len(combined)
		stats.DiagnosticsCount += o.diagnostics
	}

	return nil
}
