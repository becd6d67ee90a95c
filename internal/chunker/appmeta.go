package chunker

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/al-chunker/pkg/al"
)

// appManifest is the subset of app.json this package summarizes. Fields
// absent from the manifest are simply omitted from the rendered chunk.
type appManifest struct {
	Name         string          `json:"name"`
	Publisher    string          `json:"publisher"`
	Version      string          `json:"version"`
	ID           string          `json:"id"`
	Application  string          `json:"application"`
	Platform     string          `json:"platform"`
	Runtime      string          `json:"runtime"`
	Dependencies []appDependency `json:"dependencies"`
}

type appDependency struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Publisher string `json:"publisher"`
	Version   string `json:"version"`
}

// BuildAppMetadataChunk builds a single app_metadata chunk summarizing an
// AL extension's app.json manifest — name, publisher, version, id, target
// platform/runtime, and dependencies — grounded on
// original_source/.../chunker.py::build_app_metadata_chunk. It returns an
// error, rather than panicking, when rawJSON does not decode as a JSON
// object.
func BuildAppMetadataChunk(rawJSON string, cfg Config) (*al.Chunk, error) {
	var manifest appManifest
	if err := json.Unmarshal([]byte(rawJSON), &manifest); err != nil {
		return nil, fmt.Errorf("alchunk: invalid app.json: %w", err)
	}

	lines := []string{"// App Metadata"}
	if manifest.Name != "" {
		lines = append(lines, "// Name: "+manifest.Name)
	}
	if manifest.Publisher != "" {
		lines = append(lines, "// Publisher: "+manifest.Publisher)
	}
	if manifest.Version != "" {
		lines = append(lines, "// Version: "+manifest.Version)
	}
	if manifest.ID != "" {
		lines = append(lines, "// ID: "+manifest.ID)
	}
	if manifest.Application != "" {
		lines = append(lines, "// Application: "+manifest.Application)
	}
	if manifest.Platform != "" {
		lines = append(lines, "// Platform: "+manifest.Platform)
	}
	if manifest.Runtime != "" {
		lines = append(lines, "// Runtime: "+manifest.Runtime)
	}
	if len(manifest.Dependencies) > 0 {
		lines = append(lines, "// Dependencies:")
		for _, dep := range manifest.Dependencies {
			lines = append(lines, "//   - "+formatDependency(dep))
		}
	}

	content := strings.Join(lines, "\n")
	objectName := manifest.Name
	if objectName == "" {
		objectName = "app"
	}

	var tokens int
	if cfg.EstimateTokens {
		tokens = al.EstimateTokens(content)
	}

	return &al.Chunk{
		Content: content,
		Metadata: al.ChunkMetadata{
			FilePath:   "app.json",
			ObjectType: "app",
			ObjectName: objectName,
			ChunkType:  string(al.ChunkAppMetadata),
			LineStart:  1,
			LineEnd:    strings.Count(content, "\n") + 1,
		},
		TokenEstimate: tokens,
	}, nil
}

func formatDependency(dep appDependency) string {
	name := dep.Name
	if name == "" {
		name = dep.ID
	}
	if name == "" {
		name = "?"
	}
	parts := []string{fmt.Sprintf("%q", name)}
	if dep.Publisher != "" {
		parts = append(parts, "by "+dep.Publisher)
	}
	if dep.Version != "" {
		parts = append(parts, "("+dep.Version+")")
	}
	return strings.Join(parts, " ")
}
