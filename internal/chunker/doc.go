// Package chunker turns a parsed al.Object into one or more al.Chunk values
// suitable for embedding, per spec.md §4.5. Small objects are kept whole;
// large ones are split at declaration boundaries — a header chunk, one chunk
// per section (split into groups of its named sub-blocks when a section alone
// is oversized; the sub-blocks themselves are not split further), and one
// chunk per procedure/trigger — each carrying a synthesized context header
// and metadata pointing back at its source location.
//
// Grounded on original_source/.../chunker.py (chunk_object, _extract_header,
// _split_section, _build_context_header, build_app_metadata_chunk) and
// structurally on dshills-gocontext-mcp's internal/chunker.Chunker (New,
// ChunkFile, token-estimate-and-hash-on-construction pattern).
package chunker
