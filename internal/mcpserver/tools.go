package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/al-chunker/internal/alserialize"
	"github.com/dshills/al-chunker/internal/alsource"
	"github.com/dshills/al-chunker/internal/alxref"
	"github.com/dshills/al-chunker/internal/chunker"
	"github.com/dshills/al-chunker/internal/indexer"
	"github.com/dshills/al-chunker/pkg/al"
)

// MCP error codes, reserving -3200x for application errors alongside the
// JSON-RPC standard ones.
const (
	ErrorCodeInvalidParams      = -32602
	ErrorCodeInternalError      = -32603
	ErrorCodeIndexingInProgress = -32001
	ErrorCodeEmptyQuery         = -32002
)

// MCPError is a structured error a tool handler returns.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

var (
	ErrPathOrRepoRequired = errors.New("one of path, repo, or ado_repo is required")
	ErrPathAndRepoGiven   = errors.New("path, repo, and ado_repo are mutually exclusive")
	ErrIncompleteADORepo  = errors.New("ado_org, ado_project, and ado_repo must all be set together")
)

// handleChunkALSource handles chunk_al_source: a stateless chunk-and-return
// with no storage involved.
func (s *Server) handleChunkALSource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	source, ok := args["source"].(string)
	if !ok || source == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source parameter is required", map[string]interface{}{"param": "source"})
	}

	filePath := getStringDefault(args, "file_path", "")

	cfg := chunker.DefaultConfig()
	cfg.MaxChunkChars = getIntDefault(args, "max_chunk_chars", cfg.MaxChunkChars)
	cfg.MinChunkChars = getIntDefault(args, "min_chunk_chars", cfg.MinChunkChars)
	cfg.IncludeContextHeader = getBoolDefault(args, "include_context_header", cfg.IncludeContextHeader)
	cfg.EstimateTokens = getBoolDefault(args, "estimate_tokens", cfg.EstimateTokens)
	emitXref := getBoolDefault(args, "emit_cross_references", true)

	chunks, parseResult := s.chunker.ChunkFile(source, filePath, cfg)

	if emitXref {
		objects := make([]alxref.SourceObject, len(parseResult.Objects))
		for i, obj := range parseResult.Objects {
			objects[i] = alxref.SourceObject{Object: obj, FilePath: filePath}
		}
		chunks = append(chunks, alxref.BuildCrossReferenceChunks(objects, cfg.EstimateTokens)...)
	}

	chunksJSON, err := alserialize.ChunksToJSON(chunks)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "serializing chunks failed", map[string]interface{}{"error": err.Error()})
	}

	diagnostics := make([]string, len(parseResult.Diagnostics))
	for i, d := range parseResult.Diagnostics {
		diagnostics[i] = d.Message
	}

	resp := struct {
		Chunks      json.RawMessage `json:"chunks"`
		Diagnostics []string        `json:"diagnostics,omitempty"`
	}{Chunks: chunksJSON, Diagnostics: diagnostics}

	return mcp.NewToolResultText(formatJSON(resp)), nil
}

// handleIndexALDirectory handles index_al_directory: index a local
// directory, a GitHub repository, or an Azure DevOps repository into the
// server's storage.
func (s *Server) handleIndexALDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path := getStringDefault(args, "path", "")
	repo := getStringDefault(args, "repo", "")
	adoRepo := getStringDefault(args, "ado_repo", "")

	src, rootLabel, err := buildSource(args, path, repo, adoRepo)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{"path": path, "repo": repo, "ado_repo": adoRepo})
	}

	lock := s.lockFor(rootLabel)
	if !lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress for this root", map[string]interface{}{"root": rootLabel})
	}
	defer lock.Release()

	cfg := indexer.DefaultConfig()
	if w := getIntDefault(args, "workers", 0); w > 0 {
		cfg.Workers = w
	}
	cfg.IncludeCrossReferences = getBoolDefault(args, "emit_cross_references", true)

	stats, err := s.indexer.IndexSource(ctx, src, rootLabel, &cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{"error": err.Error()})
	}

	resp := map[string]interface{}{
		"root":              rootLabel,
		"files_indexed":     stats.FilesIndexed,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"chunks_created":    stats.ChunksCreated,
		"diagnostics_count": stats.DiagnosticsCount,
		"duration_ms":       stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		resp["errors"] = stats.ErrorMessages
	}

	return mcp.NewToolResultText(formatJSON(resp)), nil
}

// buildSource resolves path/repo/adoRepo into a FileSource and a label to
// record the indexing run against.
func buildSource(args map[string]interface{}, path, repo, adoRepo string) (alsource.FileSource, string, error) {
	given := 0
	for _, v := range []string{path, repo, adoRepo} {
		if v != "" {
			given++
		}
	}
	if given > 1 {
		return nil, "", ErrPathAndRepoGiven
	}
	if path != "" {
		ignore := getStringSlice(args, "ignore")
		return &alsource.LocalAdapter{Paths: []string{path}, IgnorePatterns: ignore}, path, nil
	}
	if repo != "" {
		adapter := alsource.NewGitHubAdapter(repo)
		adapter.Ref = getStringDefault(args, "ref", "main")
		adapter.Token = getStringDefault(args, "github_token", "")
		return adapter, fmt.Sprintf("%s@%s", repo, adapter.Ref), nil
	}
	if adoRepo != "" {
		org := getStringDefault(args, "ado_org", "")
		project := getStringDefault(args, "ado_project", "")
		if org == "" || project == "" {
			return nil, "", ErrIncompleteADORepo
		}
		adapter := alsource.NewAzureDevOpsAdapter(org, project, adoRepo)
		adapter.Ref = getStringDefault(args, "ref", "main")
		adapter.Token = getStringDefault(args, "ado_token", "")
		return adapter, fmt.Sprintf("%s/%s/%s@%s", org, project, adoRepo, adapter.Ref), nil
	}
	return nil, "", ErrPathOrRepoRequired
}

// handleSearchChunks handles search_chunks: BM25 keyword search over every
// chunk stored so far.
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{"param": "query"})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{"param": "limit", "value": limit})
	}

	results, err := s.storage.SearchChunks(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{"error": err.Error()})
	}

	chunks := make([]al.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	chunksJSON, err := alserialize.ChunksToJSON(chunks)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "serializing results failed", map[string]interface{}{"error": err.Error()})
	}
	var rawChunks []json.RawMessage
	if err := json.Unmarshal(chunksJSON, &rawChunks); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "serializing results failed", map[string]interface{}{"error": err.Error()})
	}

	type hit struct {
		Chunk     json.RawMessage `json:"chunk"`
		Relevance float64         `json:"relevance"`
	}
	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{Chunk: rawChunks[i], Relevance: r.Relevance}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": hits,
		"count":   len(hits),
	})), nil
}

// handleGetStatus handles get_status: counts plus the most recent
// indexing run.
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{"error": err.Error()})
	}

	resp := map[string]interface{}{
		"files_indexed": status.FilesIndexed,
		"chunks_stored": status.ChunksStored,
	}
	if status.LastRun != nil {
		run := map[string]interface{}{
			"id":                status.LastRun.ID,
			"root_path":         status.LastRun.RootPath,
			"files_indexed":     status.LastRun.FilesIndexed,
			"chunks_written":    status.LastRun.ChunksWritten,
			"diagnostics_count": status.LastRun.DiagnosticsCount,
			"started_at":        status.LastRun.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if status.LastRun.FinishedAt != nil {
			run["finished_at"] = status.LastRun.FinishedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		resp["last_run"] = run
	}

	return mcp.NewToolResultText(formatJSON(resp)), nil
}

// formatJSON formats v as indented JSON, falling back to %v on the
// (unreachable in practice) marshal failure.
func formatJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
