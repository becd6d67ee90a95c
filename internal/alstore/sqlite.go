package alstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/al-chunker/pkg/al"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at dbPath and applies
// any pending migrations.
func Open(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("alstore: opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("alstore: enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("alstore: enabling foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("alstore: applying migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, filePath, contentHash string) (*IndexedFile, error) {
	now := time.Now()
	query := `
		INSERT INTO files (file_path, content_hash, last_indexed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			last_indexed_at = excluded.last_indexed_at
	`
	if _, err := s.db.ExecContext(ctx, query, filePath, contentHash, now); err != nil {
		return nil, fmt.Errorf("alstore: upserting file %s: %w", filePath, err)
	}
	return s.GetFile(ctx, filePath)
}

func (s *SQLiteStorage) GetFile(ctx context.Context, filePath string) (*IndexedFile, error) {
	query := `SELECT id, file_path, content_hash, last_indexed_at FROM files WHERE file_path = ?`
	var f IndexedFile
	err := s.db.QueryRowContext(ctx, query, filePath).Scan(&f.ID, &f.FilePath, &f.ContentHash, &f.LastIndexedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("alstore: getting file %s: %w", filePath, err)
	}
	return &f, nil
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, filePath string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE file_path = ?`, filePath)
	if err != nil {
		return fmt.Errorf("alstore: deleting file %s: %w", filePath, err)
	}
	return nil
}

// ReplaceChunks atomically drops every chunk previously stored for filePath
// and writes chunks in its place, so re-indexing a changed file never leaves
// stale chunks behind.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, filePath string, chunks []al.Chunk) error {
	file, err := s.GetFile(ctx, filePath)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("alstore: beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, file.ID); err != nil {
		return fmt.Errorf("alstore: clearing chunks for %s: %w", filePath, err)
	}

	insert := `
		INSERT INTO chunks (
			file_id, content, chunk_type, object_type, object_id, object_name,
			section_name, procedure_name, extends, source_table,
			relationship_type, target_object_type, target_object_name,
			line_start, line_end, file_hash, token_estimate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, c := range chunks {
		m := c.Metadata
		_, err := tx.ExecContext(ctx, insert,
			file.ID, c.Content, m.ChunkType, m.ObjectType, m.ObjectID, m.ObjectName,
			nullable(m.SectionName), nullable(m.ProcedureName), nullable(m.Extends), nullable(m.SourceTable),
			nullable(m.RelationshipType), nullable(m.TargetObjectType), nullable(m.TargetObjectName),
			m.LineStart, m.LineEnd, m.FileHash, c.TokenEstimate,
		)
		if err != nil {
			return fmt.Errorf("alstore: inserting chunk for %s: %w", filePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("alstore: committing chunks for %s: %w", filePath, err)
	}
	return nil
}

// SearchChunks runs a SQLite FTS5 keyword search over chunk content, ranked
// by bm25() relevance (lower is better).
func (s *SQLiteStorage) SearchChunks(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	sqlQuery := `
		SELECT c.content, c.chunk_type, c.object_type, c.object_id, c.object_name,
			c.section_name, c.procedure_name, c.extends, c.source_table,
			c.relationship_type, c.target_object_type, c.target_object_name,
			c.line_start, c.line_end, c.file_hash, c.token_estimate, f.file_path,
			bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN files f ON f.id = c.file_id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("alstore: searching chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var sectionName, procedureName, extends, sourceTable sql.NullString
		var relationshipType, targetObjectType, targetObjectName sql.NullString
		var filePath string
		err := rows.Scan(
			&r.Chunk.Content, &r.Chunk.Metadata.ChunkType, &r.Chunk.Metadata.ObjectType,
			&r.Chunk.Metadata.ObjectID, &r.Chunk.Metadata.ObjectName,
			&sectionName, &procedureName, &extends, &sourceTable,
			&relationshipType, &targetObjectType, &targetObjectName,
			&r.Chunk.Metadata.LineStart, &r.Chunk.Metadata.LineEnd, &r.Chunk.Metadata.FileHash,
			&r.Chunk.TokenEstimate, &filePath, &r.Relevance,
		)
		if err != nil {
			return nil, fmt.Errorf("alstore: scanning search result: %w", err)
		}
		r.Chunk.Metadata.FilePath = filePath
		r.Chunk.Metadata.SectionName = sectionName.String
		r.Chunk.Metadata.ProcedureName = procedureName.String
		r.Chunk.Metadata.Extends = extends.String
		r.Chunk.Metadata.SourceTable = sourceTable.String
		r.Chunk.Metadata.RelationshipType = relationshipType.String
		r.Chunk.Metadata.TargetObjectType = targetObjectType.String
		r.Chunk.Metadata.TargetObjectName = targetObjectName.String
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) StartRun(ctx context.Context, rootPath string) (*IndexingRun, error) {
	run := &IndexingRun{
		ID:        uuid.NewString(),
		RootPath:  rootPath,
		StartedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO indexing_runs (id, root_path, started_at) VALUES (?, ?, ?)`,
		run.ID, run.RootPath, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("alstore: starting run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStorage) FinishRun(ctx context.Context, runID string, filesIndexed, chunksWritten, diagnosticsCount int) error {
	query := `
		UPDATE indexing_runs
		SET files_indexed = ?, chunks_written = ?, diagnostics_count = ?, finished_at = ?
		WHERE id = ?
	`
	res, err := s.db.ExecContext(ctx, query, filesIndexed, chunksWritten, diagnosticsCount, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("alstore: finishing run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("alstore: checking run %s update: %w", runID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	var status Status
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&status.FilesIndexed)
	if err != nil {
		return nil, fmt.Errorf("alstore: counting files: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&status.ChunksStored)
	if err != nil {
		return nil, fmt.Errorf("alstore: counting chunks: %w", err)
	}

	var run IndexingRun
	var finishedAt sql.NullTime
	query := `
		SELECT id, root_path, files_indexed, chunks_written, diagnostics_count, started_at, finished_at
		FROM indexing_runs ORDER BY started_at DESC LIMIT 1
	`
	err = s.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.RootPath, &run.FilesIndexed, &run.ChunksWritten, &run.DiagnosticsCount,
		&run.StartedAt, &finishedAt,
	)
	if err == sql.ErrNoRows {
		return &status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("alstore: reading last run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	status.LastRun = &run
	return &status, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
