package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/al-chunker/internal/alstore"
)

// defaultDBPath mirrors internal/mcpserver's DefaultDBPath so the CLI and
// the MCP server agree on where an unspecified database lives.
const defaultDBPath = "~/.al-chunker/index.db"

// openStorage opens the index database at dbPath, expanding a leading ~ and
// an empty path to the default location, creating the parent directory if
// needed.
func openStorage(dbPath string) (alstore.Storage, error) {
	resolved, err := expandDBPath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	store, err := alstore.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func expandDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	if dbPath == "~" || strings.HasPrefix(dbPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dbPath = filepath.Join(home, strings.TrimPrefix(dbPath, "~"))
	}
	return dbPath, nil
}

// printJSON writes v to w as indented JSON followed by a trailing newline.
func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
