package alstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/al-chunker/pkg/al"
)

func setupTestStore(t *testing.T) *SQLiteStorage {
	store, err := Open(":memory:")
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_AppliesMigrations(t *testing.T) {
	store := setupTestStore(t)
	assert.NotNil(t, store.db)
}

func TestUpsertFile_InsertThenUpdate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	f, err := store.UpsertFile(ctx, "custaddr.al", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "custaddr.al", f.FilePath)
	assert.Equal(t, "abc123", f.ContentHash)

	updated, err := store.UpsertFile(ctx, "custaddr.al", "def456")
	require.NoError(t, err)
	assert.Equal(t, f.ID, updated.ID)
	assert.Equal(t, "def456", updated.ContentHash)
}

func TestGetFile_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetFile(context.Background(), "missing.al")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceChunks_RoundTripAndOverwrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertFile(ctx, "loyalty.al", "hash1")
	require.NoError(t, err)

	chunks := []al.Chunk{
		{
			Content: "enum 50100 \"Customer Loyalty\" { }",
			Metadata: al.ChunkMetadata{
				ObjectType: "enum",
				ObjectID:   50100,
				ObjectName: "Customer Loyalty",
				ChunkType:  string(al.ChunkWholeObject),
				LineStart:  1,
				LineEnd:    1,
				FileHash:   "hash1",
			},
			TokenEstimate: 9,
		},
	}
	require.NoError(t, store.ReplaceChunks(ctx, "loyalty.al", chunks))

	results, err := store.SearchChunks(ctx, "Loyalty", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Customer Loyalty", results[0].Chunk.Metadata.ObjectName)
	assert.Equal(t, "loyalty.al", results[0].Chunk.Metadata.FilePath)

	// Replacing again drops the old chunk set entirely.
	require.NoError(t, store.ReplaceChunks(ctx, "loyalty.al", nil))
	results, err = store.SearchChunks(ctx, "Loyalty", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReplaceChunks_UnknownFile(t *testing.T) {
	store := setupTestStore(t)
	err := store.ReplaceChunks(context.Background(), "nope.al", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunLifecycle_ReflectedInStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "/repo")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	require.NoError(t, store.FinishRun(ctx, run.ID, 3, 12, 1))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, run.ID, status.LastRun.ID)
	assert.Equal(t, 3, status.LastRun.FilesIndexed)
	assert.Equal(t, 12, status.LastRun.ChunksWritten)
	assert.NotNil(t, status.LastRun.FinishedAt)
}

func TestFinishRun_UnknownID(t *testing.T) {
	store := setupTestStore(t)
	err := store.FinishRun(context.Background(), "does-not-exist", 0, 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStatus_EmptyStore(t *testing.T) {
	store := setupTestStore(t)
	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.FilesIndexed)
	assert.Equal(t, 0, status.ChunksStored)
	assert.Nil(t, status.LastRun)
}
