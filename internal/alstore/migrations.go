package alstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Migration is a single forward/backward schema change, applied in Version
// order.
type Migration struct {
	Version string
	Up      string
	Down    string
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS schema_version (
	version TEXT PRIMARY KEY,
	applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL UNIQUE,
	content_hash TEXT NOT NULL,
	last_indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_hash ON files(content_hash);

CREATE TABLE IF NOT EXISTS chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	chunk_type TEXT NOT NULL,
	object_type TEXT NOT NULL,
	object_id INTEGER NOT NULL,
	object_name TEXT NOT NULL,
	section_name TEXT,
	procedure_name TEXT,
	extends TEXT,
	source_table TEXT,
	relationship_type TEXT,
	target_object_type TEXT,
	target_object_name TEXT,
	line_start INTEGER NOT NULL,
	line_end INTEGER NOT NULL,
	file_hash TEXT NOT NULL,
	token_estimate INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(file_id);
CREATE INDEX IF NOT EXISTS idx_chunks_type ON chunks(chunk_type);
CREATE INDEX IF NOT EXISTS idx_chunks_object ON chunks(object_type, object_id);

CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
	content,
	object_name,
	section_name,
	procedure_name,
	content='chunks',
	content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
	INSERT INTO chunks_fts(rowid, content, object_name, section_name, procedure_name)
	VALUES (new.id, new.content, new.object_name, new.section_name, new.procedure_name);
END;

CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
	DELETE FROM chunks_fts WHERE rowid = old.id;
END;

CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE ON chunks BEGIN
	UPDATE chunks_fts SET
		content = new.content,
		object_name = new.object_name,
		section_name = new.section_name,
		procedure_name = new.procedure_name
	WHERE rowid = new.id;
END;

CREATE TABLE IF NOT EXISTS indexing_runs (
	id TEXT PRIMARY KEY,
	root_path TEXT NOT NULL,
	files_indexed INTEGER NOT NULL DEFAULT 0,
	chunks_written INTEGER NOT NULL DEFAULT 0,
	diagnostics_count INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);
`

const migrationV1Down = `
DROP TRIGGER IF EXISTS chunks_au;
DROP TRIGGER IF EXISTS chunks_ad;
DROP TRIGGER IF EXISTS chunks_ai;
DROP TABLE IF EXISTS indexing_runs;
DROP TABLE IF EXISTS chunks_fts;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS files;
DROP TABLE IF EXISTS schema_version;
`

// AllMigrations lists every schema migration, in Version order.
var AllMigrations = []Migration{
	{Version: "1.0.0", Up: migrationV1Up, Down: migrationV1Down},
}

// ApplyMigrations brings db up to the latest schema version.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var currentVersionStr string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&currentVersionStr)

	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("alstore: checking schema_version table: %w", err)
	} else {
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("alstore: reading schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("alstore: invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("alstore: invalid migration version %s: %w", migration.Version, err)
		}
		if !currentVersion.LessThan(migrationVersion) {
			continue
		}
		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("alstore: applying migration %s: %w", migration.Version, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("alstore: recording migration %s: %w", migration.Version, err)
		}
		currentVersion = migrationVersion
	}
	return nil
}
