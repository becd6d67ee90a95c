package alsource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LocalAdapter reads .al files from one or more local paths, each either a
// single file or a directory to walk recursively. Grounded on
// original_source/.../adapters/local.py's LocalAdapter.
type LocalAdapter struct {
	// Paths are the files or directories to read from.
	Paths []string
	// IgnorePatterns are doublestar glob patterns matched against each
	// file's path relative to the directory root it was found under; any
	// match excludes the file.
	IgnorePatterns []string
}

// NewLocalAdapter returns a LocalAdapter over paths with no ignore patterns.
func NewLocalAdapter(paths ...string) *LocalAdapter {
	return &LocalAdapter{Paths: paths}
}

// Files implements FileSource.
func (a *LocalAdapter) Files(ctx context.Context) ([]SourceFile, error) {
	var files []SourceFile
	for _, p := range a.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("alsource: stat %s: %w", p, err)
		}

		if info.IsDir() {
			found, err := a.walkDir(p)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}

		if !isALFile(p) {
			continue
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("alsource: reading %s: %w", p, err)
		}
		files = append(files, SourceFile{Path: filepath.Base(p), Content: string(content)})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (a *LocalAdapter) walkDir(root string) ([]SourceFile, error) {
	var files []SourceFile
	fsys := os.DirFS(root)

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !isALFile(path) || a.ignored(path) {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		files = append(files, SourceFile{Path: path, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("alsource: walking %s: %w", root, err)
	}
	return files, nil
}

func (a *LocalAdapter) ignored(relPath string) bool {
	for _, pat := range a.IgnorePatterns {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return true
		}
	}
	return false
}

func isALFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".al")
}
