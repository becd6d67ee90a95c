package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/al-chunker/internal/alsource"
	"github.com/dshills/al-chunker/internal/alstore"
	"github.com/dshills/al-chunker/pkg/al"
)

// fakeStorage is a minimal in-memory alstore.Storage for exercising the
// pipeline without SQLite.
type fakeStorage struct {
	mu     sync.Mutex
	files  map[string]*alstore.IndexedFile
	chunks map[string][]al.Chunk
	runs   map[string]*alstore.IndexingRun
	nextID int64
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		files:  make(map[string]*alstore.IndexedFile),
		chunks: make(map[string][]al.Chunk),
		runs:   make(map[string]*alstore.IndexingRun),
	}
}

func (f *fakeStorage) UpsertFile(ctx context.Context, filePath, contentHash string) (*alstore.IndexedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.files[filePath]; ok {
		existing.ContentHash = contentHash
		existing.LastIndexedAt = time.Now()
		return existing, nil
	}
	f.nextID++
	rec := &alstore.IndexedFile{ID: f.nextID, FilePath: filePath, ContentHash: contentHash, LastIndexedAt: time.Now()}
	f.files[filePath] = rec
	return rec, nil
}

func (f *fakeStorage) GetFile(ctx context.Context, filePath string) (*alstore.IndexedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.files[filePath]
	if !ok {
		return nil, alstore.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, filePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, filePath)
	delete(f.chunks, filePath)
	return nil
}

func (f *fakeStorage) ReplaceChunks(ctx context.Context, filePath string, chunks []al.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[filePath]; !ok {
		return alstore.ErrNotFound
	}
	cp := make([]al.Chunk, len(chunks))
	copy(cp, chunks)
	f.chunks[filePath] = cp
	return nil
}

func (f *fakeStorage) SearchChunks(ctx context.Context, query string, limit int) ([]alstore.SearchResult, error) {
	return nil, nil
}

func (f *fakeStorage) StartRun(ctx context.Context, rootPath string) (*alstore.IndexingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "run-1"
	run := &alstore.IndexingRun{ID: id, RootPath: rootPath, StartedAt: time.Now()}
	f.runs[id] = run
	return run, nil
}

func (f *fakeStorage) FinishRun(ctx context.Context, runID string, filesIndexed, chunksWritten, diagnosticsCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return alstore.ErrNotFound
	}
	now := time.Now()
	run.FilesIndexed = filesIndexed
	run.ChunksWritten = chunksWritten
	run.DiagnosticsCount = diagnosticsCount
	run.FinishedAt = &now
	return nil
}

func (f *fakeStorage) GetStatus(ctx context.Context) (*alstore.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, cs := range f.chunks {
		total += len(cs)
	}
	return &alstore.Status{FilesIndexed: len(f.files), ChunksStored: total}, nil
}

func (f *fakeStorage) Close() error { return nil }

// fakeSource is a fixed-content FileSource for tests.
type fakeSource struct {
	files []alsource.SourceFile
}

func (s *fakeSource) Files(ctx context.Context) ([]alsource.SourceFile, error) {
	return s.files, nil
}

const tableSrc = `table 50100 "Customer"
{
    fields
    {
        field(1; "No."; Code[20]) { }
    }
}
`

const extensionSrc = `tableextension 50200 "Customer Ext" extends Customer
{
    fields
    {
        field(50200; "Loyalty Points"; Integer) { }
    }
}
`

func TestIndexSource_IndexesNewFiles(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := &fakeSource{files: []alsource.SourceFile{
		{Path: "Customer.al", Content: tableSrc},
	}}

	stats, err := idx.IndexSource(context.Background(), src, "/repo", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.NotZero(t, stats.ChunksCreated)

	rec, err := store.GetFile(context.Background(), "Customer.al")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ContentHash)
}

func TestIndexSource_SecondRunSkipsUnchangedFiles(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := &fakeSource{files: []alsource.SourceFile{
		{Path: "Customer.al", Content: tableSrc},
	}}

	_, err := idx.IndexSource(context.Background(), src, "/repo", nil)
	require.NoError(t, err)

	stats, err := idx.IndexSource(context.Background(), src, "/repo", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestIndexSource_BuildsCrossReferenceChunksAcrossFiles(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := &fakeSource{files: []alsource.SourceFile{
		{Path: "Customer.al", Content: tableSrc},
		{Path: "CustomerExt.al", Content: extensionSrc},
	}}

	stats, err := idx.IndexSource(context.Background(), src, "/repo", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)

	extChunks := store.chunks["CustomerExt.al"]
	var found bool
	for _, c := range extChunks {
		if c.Metadata.ChunkType == string(al.ChunkCrossReference) {
			found = true
			assert.Equal(t, "extends_table", c.Metadata.RelationshipType)
			assert.Equal(t, "Customer", c.Metadata.TargetObjectName)
		}
	}
	assert.True(t, found, "expected a cross_reference chunk among CustomerExt.al's chunks")
}

func TestIndexSource_CrossReferencesDisabled(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := &fakeSource{files: []alsource.SourceFile{
		{Path: "CustomerExt.al", Content: extensionSrc},
	}}

	cfg := DefaultConfig()
	cfg.IncludeCrossReferences = false

	_, err := idx.IndexSource(context.Background(), src, "/repo", &cfg)
	require.NoError(t, err)

	for _, c := range store.chunks["CustomerExt.al"] {
		assert.NotEqual(t, string(al.ChunkCrossReference), c.Metadata.ChunkType)
	}
}

// TestIndexSource_FixtureDirectory runs the full pipeline over the
// on-disk fixture files under testdata/fixtures — a small AL app with two
// tables, an enum, an interface, an implementing codeunit, and a
// tableextension — exercising alsource.LocalAdapter's directory walk
// instead of the fixed in-memory fakeSource the other tests use.
func TestIndexSource_FixtureDirectory(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := alsource.NewLocalAdapter("../../testdata/fixtures")

	stats, err := idx.IndexSource(context.Background(), src, "testdata/fixtures", nil)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.FilesIndexed)
	assert.Zero(t, stats.FilesFailed)
	assert.NotZero(t, stats.ChunksCreated)

	extChunks := store.chunks["CustomerExt.al"]
	var found bool
	for _, c := range extChunks {
		if c.Metadata.ChunkType == string(al.ChunkCrossReference) {
			found = true
		}
	}
	assert.True(t, found, "expected CustomerExt.al to carry a cross_reference chunk back to Customer")
}

func TestIndexSource_RecordsRunStatistics(t *testing.T) {
	store := newFakeStorage()
	idx := New(store)
	src := &fakeSource{files: []alsource.SourceFile{
		{Path: "Customer.al", Content: tableSrc},
	}}

	stats, err := idx.IndexSource(context.Background(), src, "/repo", nil)
	require.NoError(t, err)

	run := store.runs["run-1"]
	require.NotNil(t, run)
	assert.Equal(t, stats.FilesIndexed, run.FilesIndexed)
	assert.Equal(t, stats.ChunksCreated, run.ChunksWritten)
	assert.NotNil(t, run.FinishedAt)
}
