package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// chunkALSourceTool returns the tool definition for chunk_al_source.
func chunkALSourceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_al_source",
		Description: "Chunk a single AL source file's text into embedding-ready chunks, without touching any index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Raw AL source text",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path label recorded on each chunk's metadata",
					"default":     "",
				},
				"max_chunk_chars": map[string]interface{}{
					"type":        "integer",
					"description": "Size above which a whole object/section is split further",
					"default":     1500,
				},
				"min_chunk_chars": map[string]interface{}{
					"type":        "integer",
					"description": "Advisory minimum chunk size; never merges or drops chunks",
					"default":     100,
				},
				"include_context_header": map[string]interface{}{
					"type":        "boolean",
					"description": "Prefix non-whole_object chunks with an object/file context header",
					"default":     true,
				},
				"estimate_tokens": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether to compute each chunk's token_estimate",
					"default":     true,
				},
				"emit_cross_references": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether to append cross_reference chunks for extends/implements/EventSubscriber relationships among this source's own objects",
					"default":     true,
				},
			},
			Required: []string{"source"},
		},
	}
}

// indexALDirectoryTool returns the tool definition for index_al_directory.
func indexALDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_al_directory",
		Description: "Index every .al file under a local directory, a GitHub repository, or an Azure DevOps repository into the searchable index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute local directory to index. Mutually exclusive with repo and ado_repo.",
				},
				"repo": map[string]interface{}{
					"type":        "string",
					"description": "GitHub repository as \"owner/name\" to index. Mutually exclusive with path and ado_repo.",
				},
				"ref": map[string]interface{}{
					"type":        "string",
					"description": "Branch, tag, or commit SHA to index when repo or ado_repo is set",
					"default":     "main",
				},
				"github_token": map[string]interface{}{
					"type":        "string",
					"description": "GitHub token for private repositories or higher rate limits",
				},
				"ado_org": map[string]interface{}{
					"type":        "string",
					"description": "Azure DevOps organization. Required together with ado_project and ado_repo.",
				},
				"ado_project": map[string]interface{}{
					"type":        "string",
					"description": "Azure DevOps project. Required together with ado_org and ado_repo.",
				},
				"ado_repo": map[string]interface{}{
					"type":        "string",
					"description": "Azure DevOps repository to index. Mutually exclusive with path and repo.",
				},
				"ado_token": map[string]interface{}{
					"type":        "string",
					"description": "Azure DevOps personal access token",
				},
				"ignore": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns (relative to path) to exclude when indexing a local directory",
					"items":       map[string]interface{}{"type": "string"},
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Number of files processed concurrently",
				},
				"emit_cross_references": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether to build and store cross_reference chunks",
					"default":     true,
				},
			},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks.
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Keyword search over every chunk indexed so far, ranked by BM25",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (FTS5 match expression)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status.
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the current index's file and chunk counts, and the most recent indexing run",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
