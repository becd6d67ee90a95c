// Package alstore persists parsed al.Object values, their al.Chunk values,
// and per-file content hashes in SQLite, so that the indexing pipeline in
// internal/indexer has somewhere to write and the get_status and
// search_chunks operations have something to query.
//
// There is no vector search here: embedding is explicitly out of scope for
// this library (spec.md §1), so search_chunks is a SQLite FTS5 keyword
// search over chunk content rather than a nearest-neighbor search over
// vectors. The dual pure-Go/cgo SQLite driver split (build_purego.go /
// build_cgo.go) follows dshills-gocontext-mcp's internal/storage, under a
// locally named sqlite_cgo build tag.
package alstore
