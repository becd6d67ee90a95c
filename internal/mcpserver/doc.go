// Package mcpserver exposes the chunking library over the Model Context
// Protocol: a thin mark3labs/mcp-go server wrapping the same pipeline
// internal/indexer and cmd/alchunk drive directly.
//
// Four tools are registered, matching SPEC_FULL.md §4.7:
//
//   - chunk_al_source: stateless — chunk a source text passed in the
//     request and return the chunks as JSON, touching no storage.
//   - index_al_directory: index a local directory, GitHub repository, or
//     Azure DevOps repository into the server's database.
//   - search_chunks: keyword search over every chunk indexed so far.
//   - get_status: report what's currently indexed.
package mcpserver
